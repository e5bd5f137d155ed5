package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// FileStore keeps one JSON document per key under a directory. Writes go
// through a temp file and rename so a crash mid-write leaves the previous
// document intact.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create store directory")
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	// Keys are fixed index names, but sanitize anyway so an odd key cannot
	// escape the store directory.
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Join(s.dir, safe+".json")
}

func (s *FileStore) Read(_ context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return errors.Wrap(err, "failed to read store file")
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return errors.Wrap(err, "failed to unmarshal stored value")
	}
	return nil
}

func (s *FileStore) Write(_ context.Context, key string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "failed to marshal value for store")
	}

	target := s.path(key)
	tmp := fmt.Sprintf("%s.tmp-%d", target, os.Getpid())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write store file")
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "failed to replace store file")
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to delete store file")
	}
	return nil
}
