package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
)

// MemoryStore is the in-process Store used by tests and disposable
// deployments. It round-trips values through JSON so its decode behavior
// matches the durable backends.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Read(_ context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	data, ok := s.data[key]
	s.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return errors.Wrap(err, "failed to unmarshal stored value")
	}
	return nil
}

func (s *MemoryStore) Write(_ context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "failed to marshal value for store")
	}

	s.mu.Lock()
	s.data[key] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// Corrupt overwrites key with non-JSON bytes. Tests use it to exercise the
// indexes' recovery path.
func (s *MemoryStore) Corrupt(key string, raw []byte) {
	s.mu.Lock()
	s.data[key] = raw
	s.mu.Unlock()
}
