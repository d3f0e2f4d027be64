package persistence

import (
	"context"
	"sync"
)

// MemorySlot is the in-process fallback used when no durable backend is
// reachable. Carts stored here survive only for the lifetime of the process.
type MemorySlot struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{slots: make(map[string][]byte)}
}

func (m *MemorySlot) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	payload, ok := m.slots[key]
	if !ok {
		return nil, ErrEmptySlot
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	return cp, nil
}

func (m *MemorySlot) Save(_ context.Context, key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := make([]byte, len(payload))
	copy(cp, payload)
	m.slots[key] = cp
	return nil
}

func (m *MemorySlot) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.slots, key)
	return nil
}
