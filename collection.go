package salonpress

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/labstack/echo/v4"
)

// contentItem is implemented by every type persisted in a collection file.
type contentItem interface {
	key() string
	created() time.Time
	imagePath() string
}

// jsonCollection owns one JSON array file and its read cache.
//
// Mutations re-read the file, apply the change and rewrite the whole array.
// There is no lock around that cycle: two concurrent writers on the same
// file race and the later write wins for the whole collection.
type jsonCollection[T contentItem] struct {
	path   string
	cache  *collectionCache[T]
	now    func() time.Time
	logger echo.Logger
	write  func(path string, data []byte, perm fs.FileMode) error
}

func newJSONCollection[T contentItem](path string, ttl time.Duration, now func() time.Time, logger echo.Logger) *jsonCollection[T] {
	return &jsonCollection[T]{
		path:   path,
		cache:  newCollectionCache[T](ttl),
		now:    now,
		logger: logger,
		write:  writeFileAtomic,
	}
}

// all returns every stored item, newest first. A file that cannot be read
// yields an empty collection.
func (s *jsonCollection[T]) all() []T {
	now := s.now()
	if items, ok := s.cache.get(now); ok {
		return items
	}
	items, err := s.readFile()
	if err != nil {
		s.logger.Errorf("content: load %s: %v", filepath.Base(s.path), err)
		s.cache.invalidate()
		return []T{}
	}
	sortNewestFirst(items)
	s.cache.set(items, now)
	return items
}

// find returns the item with id from the read path.
func (s *jsonCollection[T]) find(id string) (T, bool) {
	for _, item := range s.all() {
		if item.key() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// mutate applies fn to a fresh copy of the file and persists what it returns.
// The cache is only refreshed after the write succeeds.
func (s *jsonCollection[T]) mutate(fn func(items []T) ([]T, error)) error {
	items, err := s.readFile()
	if err != nil {
		s.cache.invalidate()
		return fmt.Errorf("%w: load %s: %v", ErrStorage, filepath.Base(s.path), err)
	}
	next, err := fn(items)
	if err != nil {
		return err
	}
	sortNewestFirst(next)
	if err := s.writeFile(next); err != nil {
		return fmt.Errorf("%w: save %s: %v", ErrStorage, filepath.Base(s.path), err)
	}
	s.cache.set(next, s.now())
	return nil
}

func (s *jsonCollection[T]) readFile() ([]T, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (s *jsonCollection[T]) writeFile(items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	return s.write(s.path, append(data, '\n'), 0o644)
}

func sortNewestFirst[T contentItem](items []T) {
	slices.SortStableFunc(items, func(a, b T) int {
		return b.created().Compare(a.created())
	})
}

func indexOf[T contentItem](items []T, id string) int {
	return slices.IndexFunc(items, func(item T) bool { return item.key() == id })
}

// imageInUse reports whether any item still points at path.
func imageInUse[T contentItem](items []T, path string) bool {
	return slices.ContainsFunc(items, func(item T) bool { return item.imagePath() == path })
}

// writeFileAtomic writes data to a temp file next to path and renames it
// into place, so readers never observe a half-written file.
func writeFileAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
