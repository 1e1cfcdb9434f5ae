package cache

import (
	"context"
	"errors"
	"sync"
)

// ErrWriteDenied is returned by stores that refuse writes, for example a
// MemoryStore with writes disabled or a read-only database file.
var ErrWriteDenied = errors.New("cache: write denied")

// Store is the persistent key-value interface the Adapter is built on.
//
// Get reports ok=false when the key has never been written (or was deleted);
// that is distinct from a key holding an empty JSON array. Set must be atomic:
// readers see either the old value or the new one.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore is an in-process Store used by tests and by sessions that run
// without a cache file.
type MemoryStore struct {
	mu         sync.RWMutex
	data       map[string][]byte
	denyWrites bool
}

// NewMemoryStore returns an empty MemoryStore that accepts writes.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// SetDenyWrites makes every subsequent Set and Delete fail with ErrWriteDenied,
// mimicking a storage quota or a permission error.
func (m *MemoryStore) SetDenyWrites(deny bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.denyWrites = deny
}

// Get implements Store.
func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Set implements Store.
func (m *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.denyWrites {
		return ErrWriteDenied
	}
	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.denyWrites {
		return ErrWriteDenied
	}
	delete(m.data, key)
	return nil
}

// Keys returns the number of keys currently stored.
func (m *MemoryStore) Keys() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
