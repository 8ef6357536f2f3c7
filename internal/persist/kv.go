// Package persist stores dataset snapshots in a key-value collaborator.
// The layout mirrors the four independent keys of the persisted state:
// expenses, categories, overallBudget and categoryBudgets.
package persist

import (
	"context"
	"sync"
)

// KV is the outbound port for durable key-value storage.
type KV interface {
	// Get returns the value for key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// SetAll writes every entry, atomically where the backend supports it.
	SetAll(ctx context.Context, entries map[string]string) error
}

// MemoryKV is an in-process KV used by tests and as a no-setup fallback.
type MemoryKV struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryKV) SetAll(_ context.Context, entries map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range entries {
		m.values[k] = v
	}
	return nil
}
