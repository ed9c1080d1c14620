package storage

import (
	"context"
	"sync"
)

// Backend is a durable byte store addressed by Key.
type Backend interface {
	// Get returns the stored bytes and whether the key exists.
	Get(ctx context.Context, key Key) ([]byte, bool, error)
	Put(ctx context.Context, key Key, value []byte) error
	// DeleteUser removes every collection stored for userID in namespace.
	DeleteUser(ctx context.Context, namespace, userID string) error
	Close() error
}

// Invalidator is implemented by backends that keep reads in process memory.
// Other processes may write the same buckets, so callers drop a user's
// entries before reloading them.
type Invalidator interface {
	InvalidateUser(namespace, userID string) int
}

// MemoryBackend keeps buckets in process memory. Used when no durable
// storage is configured and in tests.
type MemoryBackend struct {
	mu    sync.Mutex
	items map[Key][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{items: make(map[Key][]byte)}
}

func (m *MemoryBackend) Get(_ context.Context, key Key) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryBackend) Put(_ context.Context, key Key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryBackend) DeleteUser(_ context.Context, namespace, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.items {
		if k.Owner(namespace, userID) {
			delete(m.items, k)
		}
	}
	return nil
}

// Keys returns the stored keys, for inspection in tests and tooling.
func (m *MemoryBackend) Keys() []Key {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]Key, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	return keys
}

func (m *MemoryBackend) Close() error { return nil }

var _ Backend = (*MemoryBackend)(nil)
