// Package storage persists the ledger snapshot in a key/value backend.
//
// Every backend stores opaque byte values under string keys. The ledger only
// ever uses one key, overwritten in full on each mutation.
package storage

import (
	"context"
	"errors"
	"sync"
)

// DefaultKey is the key holding the ledger snapshot.
const DefaultKey = "expenses"

var ErrClosed = errors.New("storage closed")

// KV is the minimal key/value contract every backend implements.
type KV interface {
	// Get returns the value for key; ok is false when the key was never set.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// MemoryStore keeps values in process memory. Used for tests and the
// "memory" backend.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
