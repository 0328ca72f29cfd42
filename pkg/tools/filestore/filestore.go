// Package filestore persists small JSON documents on disk.
//
// Every read-modify-write on a path is serialised by a lock shared by the
// whole process, so several tools (and several sessions) can point at the
// same file. Waiting for the lock honours the caller's context, and an
// update whose context ended is not written. Writes go to a temp file first
// and are renamed into place.
package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// ErrUnchanged can be returned from an Update callback to skip the write.
var ErrUnchanged = errors.New("document unchanged")

// pathLock is a mutex that can be waited on with a context.
type pathLock chan struct{}

var (
	locksMu sync.Mutex
	locks   = map[string]pathLock{}
)

func lockFor(path string) pathLock {
	key := path
	if abs, err := filepath.Abs(path); err == nil {
		key = abs
	}
	locksMu.Lock()
	defer locksMu.Unlock()
	l, ok := locks[key]
	if !ok {
		l = make(pathLock, 1)
		locks[key] = l
	}
	return l
}

// JSONFile is a JSON document of type T stored at a path. A missing or empty
// file reads as the zero value of T.
type JSONFile[T any] struct {
	path string
	lock pathLock
}

func NewJSONFile[T any](path string) *JSONFile[T] {
	return &JSONFile[T]{path: path, lock: lockFor(path)}
}

func (f *JSONFile[T]) Path() string {
	return f.path
}

func (f *JSONFile[T]) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrapf(err, "%s not accessed", f.path)
	}
	select {
	case f.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "timed out waiting for %s", f.path)
	}
}

func (f *JSONFile[T]) release() {
	<-f.lock
}

// Load reads the current document.
func (f *JSONFile[T]) Load(ctx context.Context) (T, error) {
	if err := f.acquire(ctx); err != nil {
		var zero T
		return zero, err
	}
	defer f.release()
	return f.read()
}

// Update loads the document, hands it to fn and writes it back unless fn
// fails. Returning ErrUnchanged from fn skips the write without an error.
// Nothing is written once ctx is done.
func (f *JSONFile[T]) Update(ctx context.Context, fn func(doc *T) error) error {
	if err := f.acquire(ctx); err != nil {
		return err
	}
	defer f.release()

	doc, err := f.read()
	if err != nil {
		return err
	}
	if err := fn(&doc); err != nil {
		if errors.Is(err, ErrUnchanged) {
			return nil
		}
		return err
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrapf(err, "%s not written", f.path)
	}
	return f.write(doc)
}

func (f *JSONFile[T]) read() (T, error) {
	var doc T
	b, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return doc, errors.Wrapf(err, "failed to read %s", f.path)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return doc, errors.Wrapf(err, "failed to parse %s", f.path)
	}
	return doc, nil
}

func (f *JSONFile[T]) write(doc T) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s", f.path)
	}
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create directory for %s", f.path)
		}
	}
	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, b, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", tmpPath)
	}
	return os.Rename(tmpPath, f.path)
}
