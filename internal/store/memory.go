package store

import (
	"context"
	"maps"
	"sync"
)

// MemoryStore keeps the session in process memory. It does not survive a
// restart and is meant for tests and throwaway runs.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Load reads the persisted values.
func (m *MemoryStore) Load(_ context.Context) (Persisted, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fromValues(m.values), nil
}

// Save writes all three keys.
func (m *MemoryStore) Save(_ context.Context, p Persisted) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	maps.Copy(m.values, toValues(p))
	return nil
}

// Clear removes all three keys.
func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, KeyToken)
	delete(m.values, KeyUserID)
	delete(m.values, KeyTokenExpiration)
	return nil
}

// Set writes a single raw key. Used to simulate partially written or
// corrupted storage.
func (m *MemoryStore) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// Raw returns a copy of the stored key/value pairs.
func (m *MemoryStore) Raw() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.values)
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
