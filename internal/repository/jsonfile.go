package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// fileLocks holds one mutex per absolute path so that every repository
// touching the same file serialises its read-modify-write cycles.
var fileLocks sync.Map // map[string]*sync.Mutex

func lockFor(path string) *sync.Mutex {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	mu, _ := fileLocks.LoadOrStore(path, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// jsonFile is a whole-file JSON document of type T.  A missing file reads as
// the zero value of T.  Writes go to "<path>.tmp" first and are renamed over
// the original, so readers never observe a half-written file.
type jsonFile[T any] struct {
	path string
	mu   *sync.Mutex
}

func newJSONFile[T any](path string) *jsonFile[T] {
	return &jsonFile[T]{path: path, mu: lockFor(path)}
}

// load returns the current document.
func (f *jsonFile[T]) load() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readLocked()
}

// update runs fn on the current document and persists the result unless fn
// returns an error.  The whole cycle holds the file lock.
func (f *jsonFile[T]) update(fn func(*T) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.readLocked()
	if err != nil {
		return err
	}
	if err := fn(&doc); err != nil {
		return err
	}
	return f.writeLocked(doc)
}

func (f *jsonFile[T]) readLocked() (T, error) {
	var doc T
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("read %s: %w", f.path, err)
	}
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return doc, nil
}

func (f *jsonFile[T]) writeLocked(doc T) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(f.path), err)
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
