package cart

import (
	"context"
	"sync"

	"github.com/Snapman5678/ChainWave/internal/persistence"
)

// Registry hands out one Store per session key. A store is created and
// restored from the persistence slot the first time its session is seen, then
// reused for the lifetime of the process so all handlers for a session agree
// on a single source of truth.
type Registry struct {
	mu     sync.Mutex
	slot   persistence.Slot
	stores map[string]*Store
}

func NewRegistry(slot persistence.Slot) *Registry {
	return &Registry{
		slot:   slot,
		stores: make(map[string]*Store),
	}
}

// ForSession returns the store for sessionID, creating and restoring it on
// first use.
func (r *Registry) ForSession(ctx context.Context, sessionID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	store, ok := r.stores[sessionID]
	if !ok {
		store = NewStore(sessionID, r.slot)
		store.Restore(ctx)
		r.stores[sessionID] = store
	}
	return store
}
