package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/Snapman5678/ChainWave/internal/domain"
	"github.com/Snapman5678/ChainWave/internal/persistence"
)

// Store owns the cart for one session. It is the single writer of cart state:
// every mutation enforces the stock-ceiling invariant, writes the full
// snapshot through to the persistence slot, and notifies subscribers before
// returning. Views hold only the snapshots they receive and never mutate them.
type Store struct {
	mu       sync.Mutex
	key      string
	lines    []domain.CartLine
	slot     persistence.Slot
	degraded bool

	subMu  sync.Mutex
	subs   map[int]func(domain.Cart)
	nextID int
}

// NewStore creates an empty store for the given session key. Call Restore to
// pick up a previously persisted cart.
func NewStore(key string, slot persistence.Slot) *Store {
	return &Store{
		key:  key,
		slot: slot,
		subs: make(map[int]func(domain.Cart)),
	}
}

// Restore loads the persisted cart for this session, if any. A missing slot
// yields an empty cart; a payload that fails to decode is discarded rather
// than surfaced, and lines violating the invariants are dropped individually.
func (s *Store) Restore(ctx context.Context) {
	payload, err := s.slot.Load(ctx, s.key)
	if err != nil {
		if !errors.Is(err, persistence.ErrEmptySlot) {
			log.Printf("cart %s: restore failed, starting empty: %v", s.key, err)
		}
		return
	}

	var lines []domain.CartLine
	if err := json.Unmarshal(payload, &lines); err != nil {
		log.Printf("cart %s: discarding corrupt persisted cart: %v", s.key, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = s.lines[:0]
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		if !l.Valid() || seen[l.ProductID] {
			log.Printf("cart %s: dropping invalid persisted line for product %q", s.key, l.ProductID)
			continue
		}
		seen[l.ProductID] = true
		s.lines = append(s.lines, l)
	}
}

// AddLine adds quantity units of product to the cart and reports whether the
// cart changed.
//
// For a brand-new line the quantity is clamped to the product's available
// stock (the ceiling is captured at the same time); only a product with no
// stock at all is rejected. For an existing line the summed quantity must fit
// under the captured ceiling or the whole mutation is rejected.
func (s *Store) AddLine(ctx context.Context, p domain.Product, quantity int) bool {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	if i := s.indexOf(p.ID); i >= 0 {
		line := s.lines[i]
		if line.Quantity+quantity > line.StockCeiling {
			s.mu.Unlock()
			return false
		}
		s.lines[i].Quantity = line.Quantity + quantity
	} else {
		if p.AvailableStock < 1 {
			s.mu.Unlock()
			return false
		}
		if quantity > p.AvailableStock {
			quantity = p.AvailableStock
		}
		s.lines = append(s.lines, domain.CartLine{
			ProductID:    p.ID,
			Name:         p.Name,
			UnitPrice:    p.Price,
			Quantity:     quantity,
			StockCeiling: p.AvailableStock,
			ImageURL:     p.ImageURL,
			BusinessName: p.BusinessName,
			ContactEmail: p.ContactEmail,
		})
	}
	snap := s.commitLocked(ctx)
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// UpdateQuantity sets the quantity of an existing line and reports whether
// the cart changed. A quantity of zero or less removes the line. A quantity
// above the line's ceiling is rejected and the old quantity kept; the caller
// is expected to surface the ceiling to the user. Unknown products are a
// no-op.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) bool {
	if quantity <= 0 {
		return s.RemoveLine(ctx, productID)
	}

	s.mu.Lock()
	i := s.indexOf(productID)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	if quantity > s.lines[i].StockCeiling {
		s.mu.Unlock()
		return false
	}
	s.lines[i].Quantity = quantity
	snap := s.commitLocked(ctx)
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// RemoveLine deletes the line for productID if present and reports whether
// the cart changed. Removing an absent line is a no-op, so calling it twice
// is the same as calling it once.
func (s *Store) RemoveLine(ctx context.Context, productID string) bool {
	s.mu.Lock()
	i := s.indexOf(productID)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	snap := s.commitLocked(ctx)
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// Clear empties the cart unconditionally. The persisted slot reflects the
// empty state afterwards.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.lines = s.lines[:0]
	snap := s.commitLocked(ctx)
	s.mu.Unlock()

	s.notify(snap)
}

// Snapshot returns a copy of the current cart. The caller owns the copy.
func (s *Store) Snapshot() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Total returns the derived cart total, recomputed from the current lines.
func (s *Store) Total() float64 {
	return s.Snapshot().Total()
}

// Count returns the sum of quantities across lines.
func (s *Store) Count() int {
	return s.Snapshot().Count()
}

// Subscribe registers fn to be called with the new snapshot after every
// mutation and returns the matching unsubscribe function. Notifications run
// synchronously on the mutating goroutine.
func (s *Store) Subscribe(fn func(domain.Cart)) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) indexOf(productID string) int {
	for i, l := range s.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) snapshotLocked() domain.Cart {
	lines := make([]domain.CartLine, len(s.lines))
	copy(lines, s.lines)
	return domain.Cart{Lines: lines}
}

// commitLocked persists the current lines and returns the snapshot to notify
// with. A failed write flips the store into memory-only mode for the rest of
// the session instead of failing the mutation.
func (s *Store) commitLocked(ctx context.Context) domain.Cart {
	snap := s.snapshotLocked()
	if s.degraded {
		return snap
	}

	payload, err := json.Marshal(snap.Lines)
	if err != nil {
		log.Printf("cart %s: marshal failed: %v", s.key, err)
		return snap
	}
	if err := s.slot.Save(ctx, s.key, payload); err != nil {
		log.Printf("cart %s: persistence unavailable, continuing in memory only: %v", s.key, err)
		s.degraded = true
	}
	return snap
}

func (s *Store) notify(snap domain.Cart) {
	s.subMu.Lock()
	fns := make([]func(domain.Cart), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
