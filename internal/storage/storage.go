package storage

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// Store persists uploaded binary objects under opaque keys.
type Store interface {
	Save(key string, r io.Reader) error
	Open(key string) (io.ReadCloser, error)
	Delete(key string) error
	Exists(key string) (bool, error)
}

// FileStore keeps objects on a filesystem abstraction. Production uses the
// OS filesystem rooted at a base directory; tests use an in-memory one.
type FileStore struct {
	fs   afero.Fs
	base string
}

// NewFileStore builds a store rooted at baseDir on the host filesystem.
func NewFileStore(baseDir string) *FileStore {
	return &FileStore{fs: afero.NewOsFs(), base: baseDir}
}

// NewMemStore builds an in-memory store, useful in tests.
func NewMemStore() *FileStore {
	return &FileStore{fs: afero.NewMemMapFs(), base: "/"}
}

func (s *FileStore) path(key string) (string, error) {
	cleaned := path.Clean("/" + key)
	if cleaned == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}
	return path.Join(s.base, cleaned), nil
}

// Save writes the object, creating parent directories as needed.
func (s *FileStore) Save(key string, r io.Reader) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	f, err := s.fs.Create(p)
	if err != nil {
		return fmt.Errorf("storage: create %s: %w", key, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("storage: write %s: %w", key, err)
	}
	return nil
}

// Open returns a reader over the stored object.
func (s *FileStore) Open(key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}

	f, err := s.fs.Open(p)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", key, err)
	}
	return f, nil
}

// Delete removes the object. Deleting a missing key is not an error.
func (s *FileStore) Delete(key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	if err := s.fs.Remove(p); err != nil {
		if exists, statErr := afero.Exists(s.fs, p); statErr == nil && !exists {
			return nil
		}
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

// Exists reports whether the key holds an object.
func (s *FileStore) Exists(key string) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}
	return afero.Exists(s.fs, p)
}
