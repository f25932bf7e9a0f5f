// Package cache persists upstream responses as one JSON file per resource.
//
// Entries are created once and never rewritten. Absence (or a zero-length
// file left behind by an interrupted write on another tool) is the only
// signal to fetch again.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/renameio/v2"
)

var (
	// ErrNotFound indicates that no entry exists for the key.
	ErrNotFound = errors.New("cache entry not found")
	// ErrExists indicates a write to a key that is already populated.
	ErrExists = errors.New("cache entry already exists")
	// ErrInvalidJSON indicates a write of bytes that are not a JSON document.
	ErrInvalidJSON = errors.New("cache entry is not valid JSON")
)

// Reader is the read side of the cache.
type Reader interface {
	Has(key Key) bool
	Read(key Key) ([]byte, error)
	List(dir Key) ([]Key, error)
}

// Store is a write-if-absent cache.
type Store interface {
	Reader
	Write(key Key, data []byte) error
}

// FileStore implements Store on a directory tree.
// Check-then-write is only safe for a single writer process.
type FileStore struct {
	root string
}

// NewFileStore creates a store rooted at dir. The directory is created lazily.
func NewFileStore(dir string) *FileStore {
	return &FileStore{root: dir}
}

// Root returns the store's base directory.
func (s *FileStore) Root() string {
	return s.root
}

func (s *FileStore) path(key Key) string {
	return filepath.Join(s.root, filepath.FromSlash(string(key)))
}

// Has reports whether a non-empty entry exists for key.
func (s *FileStore) Has(key Key) bool {
	info, err := os.Stat(s.path(key))
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// Read returns the stored bytes for key.
func (s *FileStore) Read(key Key) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return data, nil
}

// Write stores data under key if no entry exists yet. The file appears
// atomically, so readers never see a partial entry.
func (s *FileStore) Write(key Key, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("%w: %s", ErrInvalidJSON, key)
	}
	if s.Has(key) {
		return fmt.Errorf("%w: %s", ErrExists, key)
	}

	target := s.path(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", key, err)
	}
	if err := renameio.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// List returns every .json entry under dir (recursively), sorted.
// Hidden files, such as interrupted temp files, are skipped.
// A missing directory yields an empty list.
func (s *FileStore) List(dir Key) ([]Key, error) {
	base := s.path(dir)
	var keys []Key
	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == base {
				return fs.SkipAll
			}
			return err
		}
		name := d.Name()
		if d.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ext) {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := Key(filepath.ToSlash(rel))
		if s.Has(key) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	slices.Sort(keys)
	return keys, nil
}

// ReadJSON reads key from r and decodes it into dest.
func ReadJSON(r Reader, key Key, dest any) error {
	data, err := r.Read(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("parsing %s: %w", key, err)
	}
	return nil
}
