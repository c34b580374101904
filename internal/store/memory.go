// internal/store/memory.go
//
// In-memory implementation of the KV interface.
// Used by tests, by the terminal client when no database is configured, and
// by the server when STORE_DRIVER=memory.
//
// Characteristics:
//   - Values are copied on the way in and out; callers may reuse buffers.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by KV.Get for a missing key.
var ErrNotFound = errors.New("store: not found")

// KV is a flat key-value store holding one snapshot per session key.
// Implementations may be backed by memory (this file), SQLite or Postgres.
type KV interface {
	// Put creates or overwrites key.
	Put(ctx context.Context, key string, value []byte) error

	// Get returns the value of key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// memory is an in-memory map-based KV implementation.
type memory struct {
	mu   sync.RWMutex      // guards vals
	vals map[string][]byte // keyed by session key
}

// NewMemory constructs an empty in-memory KV.
func NewMemory() KV {
	return &memory{vals: make(map[string][]byte)}
}

func (m *memory) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[key] = append([]byte(nil), value...)
	return nil
}

func (m *memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.vals[key]; ok {
		return append([]byte(nil), v...), nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vals, key)
	return nil
}
