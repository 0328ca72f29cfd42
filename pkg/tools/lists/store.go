package lists

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-go-golems/buddy/pkg/tools/filestore"
)

// Store keeps named lists of items in one JSON file shaped like
// {"list_name": ["item", ...]}.
type Store struct {
	file *filestore.JSONFile[map[string][]string]
}

func NewStore(path string) *Store {
	return &Store{file: filestore.NewJSONFile[map[string][]string](path)}
}

func (s *Store) Path() string {
	return s.file.Path()
}

type ListNotFoundError struct {
	List string
}

func (e *ListNotFoundError) Error() string {
	return fmt.Sprintf("list '%s' does not exist", e.List)
}

type ListFullError struct {
	List string
	Max  int
}

func (e *ListFullError) Error() string {
	return fmt.Sprintf("list '%s' is full (%d items)", e.List, e.Max)
}

type ItemNotFoundError struct {
	List string
	Item string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("item '%s' not found in list '%s'", e.Item, e.List)
}

// Add appends item to list, creating the list when needed. maxSize <= 0
// means unbounded. It reports whether the list was created.
func (s *Store) Add(ctx context.Context, list, item string, maxSize int) (created bool, err error) {
	err = s.file.Update(ctx, func(doc *map[string][]string) error {
		if *doc == nil {
			*doc = map[string][]string{}
		}
		items, ok := (*doc)[list]
		if !ok {
			created = true
			items = []string{}
		}
		if maxSize > 0 && len(items) >= maxSize {
			return &ListFullError{List: list, Max: maxSize}
		}
		(*doc)[list] = append(items, item)
		return nil
	})
	return created, err
}

// Remove deletes the first occurrence of item from list.
func (s *Store) Remove(ctx context.Context, list, item string) error {
	return s.file.Update(ctx, func(doc *map[string][]string) error {
		items, ok := (*doc)[list]
		if !ok {
			return &ListNotFoundError{List: list}
		}
		for i, it := range items {
			if it == item {
				(*doc)[list] = append(items[:i:i], items[i+1:]...)
				return nil
			}
		}
		return &ItemNotFoundError{List: list, Item: item}
	})
}

func (s *Store) Get(ctx context.Context, list string) ([]string, error) {
	doc, err := s.file.Load(ctx)
	if err != nil {
		return nil, err
	}
	items, ok := doc[list]
	if !ok {
		return nil, &ListNotFoundError{List: list}
	}
	if items == nil {
		items = []string{}
	}
	return items, nil
}

// Names returns the list names in sorted order.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	doc, err := s.file.Load(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
