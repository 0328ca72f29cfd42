// Package lists provides the named-list tools: add_to_list, remove_from_list,
// get_list_by_name and get_lists_headers.
package lists

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-go-golems/buddy/pkg/inference/tools"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	AddToListName       = "add_to_list"
	RemoveFromListName  = "remove_from_list"
	GetListByNameName   = "get_list_by_name"
	GetListsHeadersName = "get_lists_headers"
)

var (
	AddToListDescriptor = tools.ToolDescriptor{
		Name:        AddToListName,
		Description: "Adds a specific item to a named list.",
		InputFormat: `{"item": "str", "list_name": "str (optional)"}`,
		Parameters:  tools.SchemaFor[AddArgs](),
	}
	RemoveFromListDescriptor = tools.ToolDescriptor{
		Name:        RemoveFromListName,
		Description: "Removes an item from a list.",
		InputFormat: `{"item": "str", "list_name": "str"}`,
		Parameters:  tools.SchemaFor[RemoveArgs](),
	}
	GetListByNameDescriptor = tools.ToolDescriptor{
		Name:        GetListByNameName,
		Description: "Retrieves the contents of a specific list by its name.",
		InputFormat: `{"list_name": "str"}`,
		Parameters:  tools.SchemaFor[GetArgs](),
	}
	GetListsHeadersDescriptor = tools.ToolDescriptor{
		Name:        GetListsHeadersName,
		Description: "Retrieves the headers of all lists in the system.",
		InputFormat: "{}",
		Parameters:  tools.SchemaFor[HeadersArgs](),
	}
)

type AddArgs struct {
	Item     string `json:"item" jsonschema:"description=Item to add"`
	ListName string `json:"list_name,omitempty" jsonschema:"description=Target list; the default list when omitted"`
}

type RemoveArgs struct {
	Item     string `json:"item"`
	ListName string `json:"list_name"`
}

type GetArgs struct {
	ListName string `json:"list_name"`
}

type HeadersArgs struct{}

func requireField(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.Errorf("'%s' is required", name)
	}
	return nil
}

// NewAddTool returns add_to_list bound to cfg.
func NewAddTool(cfg AddConfig) (tools.Tool, error) {
	store := NewStore(cfg.ListFilePath)
	return tools.NewTypedTool(func(ctx context.Context, in AddArgs) (interface{}, error) {
		if err := requireField("item", in.Item); err != nil {
			return nil, err
		}
		list := in.ListName
		if list == "" {
			list = cfg.DefaultListName
		}
		created, err := store.Add(ctx, list, in.Item, cfg.MaxListSize)
		if err != nil {
			var full *ListFullError
			if errors.As(err, &full) {
				log.Warn().Str("list", list).Int("max", cfg.MaxListSize).Msg("List limit reached")
			}
			return nil, err
		}
		if created {
			log.Info().Str("list", list).Str("path", store.Path()).Msg("Created new list")
		}
		log.Info().Str("item", in.Item).Str("list", list).Msg("Persisted item")
		return fmt.Sprintf("Success: Added '%s' to '%s'.", in.Item, list), nil
	})
}

func NewRemoveTool(cfg RemoveConfig) (tools.Tool, error) {
	store := NewStore(cfg.ListFilePath)
	return tools.NewTypedTool(func(ctx context.Context, in RemoveArgs) (interface{}, error) {
		if err := requireField("item", in.Item); err != nil {
			return nil, err
		}
		if err := requireField("list_name", in.ListName); err != nil {
			return nil, err
		}
		if err := store.Remove(ctx, in.ListName, in.Item); err != nil {
			return nil, err
		}
		if cfg.AllowAuditLogging {
			log.Info().Str("item", in.Item).Str("list", in.ListName).
				Msgf("[AUDIT] Removed '%s' from '%s'", in.Item, in.ListName)
		}
		return fmt.Sprintf("Success: Removed '%s'.", in.Item), nil
	})
}

func NewGetTool(cfg FileConfig) (tools.Tool, error) {
	store := NewStore(cfg.ListFilePath)
	return tools.NewTypedTool(func(ctx context.Context, in GetArgs) (interface{}, error) {
		if err := requireField("list_name", in.ListName); err != nil {
			return nil, err
		}
		items, err := store.Get(ctx, in.ListName)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("list", in.ListName).Int("items", len(items)).Msg("Retrieved list")
		return items, nil
	})
}

func NewHeadersTool(cfg FileConfig) (tools.Tool, error) {
	store := NewStore(cfg.ListFilePath)
	return tools.NewTypedTool(func(ctx context.Context, _ HeadersArgs) (interface{}, error) {
		return store.Names(ctx)
	})
}

// RegisterAdd decodes raw into an AddConfig and registers add_to_list.
func RegisterAdd(r tools.ToolRegistry, raw map[string]interface{}) error {
	_, err := tools.Register[AddConfig](r, AddToListDescriptor, raw, NewAddTool)
	return err
}

func RegisterRemove(r tools.ToolRegistry, raw map[string]interface{}) error {
	_, err := tools.Register[RemoveConfig](r, RemoveFromListDescriptor, raw, NewRemoveTool)
	return err
}

func RegisterGet(r tools.ToolRegistry, raw map[string]interface{}) error {
	_, err := tools.Register[FileConfig](r, GetListByNameDescriptor, raw, NewGetTool)
	return err
}

func RegisterHeaders(r tools.ToolRegistry, raw map[string]interface{}) error {
	_, err := tools.Register[FileConfig](r, GetListsHeadersDescriptor, raw, NewHeadersTool)
	return err
}
