package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Snapman5678/ChainWave/internal/domain"
	"github.com/Snapman5678/ChainWave/internal/persistence"
)

type failingSlot struct {
	mu      sync.Mutex
	loadErr error
	saveErr error
	payload []byte
}

func (f *failingSlot) Load(context.Context, string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.payload == nil {
		return nil, persistence.ErrEmptySlot
	}
	return f.payload, nil
}

func (f *failingSlot) Save(_ context.Context, _ string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.payload = payload
	return nil
}

func (f *failingSlot) Delete(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payload = nil
	return nil
}

func testProduct(id string, price float64, stock int) domain.Product {
	return domain.Product{
		ID:             id,
		Name:           "product " + id,
		Price:          price,
		AvailableStock: stock,
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore("session-1", persistence.NewMemorySlot())
}

func assertInvariants(t *testing.T, snap domain.Cart) {
	t.Helper()
	seen := make(map[string]bool)
	for _, l := range snap.Lines {
		assert.GreaterOrEqual(t, l.Quantity, 1)
		assert.LessOrEqual(t, l.Quantity, l.StockCeiling)
		assert.False(t, seen[l.ProductID], "duplicate line for product %s", l.ProductID)
		seen[l.ProductID] = true
	}
}

func TestAddLine_NewProduct(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	added := store.AddLine(ctx, testProduct("p1", 10, 5), 3)

	require.True(t, added)
	snap := store.Snapshot()
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 3, snap.Lines[0].Quantity)
	assert.Equal(t, 5, snap.Lines[0].StockCeiling)
	assert.Equal(t, 30.0, snap.Total())
	assertInvariants(t, snap)
}

func TestAddLine_NewProduct_ClampsToStock(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	added := store.AddLine(ctx, testProduct("p1", 10, 5), 8)

	require.True(t, added)
	snap := store.Snapshot()
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 5, snap.Lines[0].Quantity)
	assertInvariants(t, snap)
}

func TestAddLine_OutOfStockProduct_Rejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	added := store.AddLine(ctx, testProduct("p1", 10, 0), 1)

	assert.False(t, added)
	assert.Empty(t, store.Snapshot().Lines)
}

func TestAddLine_ExistingLine_IncrementsUnderCeiling(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	p := testProduct("p1", 10, 5)

	require.True(t, store.AddLine(ctx, p, 2))
	require.True(t, store.AddLine(ctx, p, 2))

	snap := store.Snapshot()
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 4, snap.Lines[0].Quantity)
	assertInvariants(t, snap)
}

func TestAddLine_ExistingLine_RejectsOverCeiling(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	p := testProduct("p1", 10, 5)

	require.True(t, store.AddLine(ctx, p, 3))

	// 3 + 4 = 7 exceeds the ceiling of 5; the line must be left unchanged
	added := store.AddLine(ctx, p, 4)

	assert.False(t, added)
	snap := store.Snapshot()
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 3, snap.Lines[0].Quantity)
}

func TestAddLine_DefaultQuantityIsOne(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.True(t, store.AddLine(ctx, testProduct("p1", 10, 5), 0))

	snap := store.Snapshot()
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 1, snap.Lines[0].Quantity)
}

func TestAddLine_CeilingCapturedAtAddTime(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	p := testProduct("p1", 10, 5)

	require.True(t, store.AddLine(ctx, p, 2))

	// Later catalog state does not alter the captured ceiling
	p.AvailableStock = 100
	assert.False(t, store.AddLine(ctx, p, 4))

	snap := store.Snapshot()
	assert.Equal(t, 5, snap.Lines[0].StockCeiling)
	assert.Equal(t, 2, snap.Lines[0].Quantity)
}

func TestUpdateQuantity_SetsNewQuantity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.True(t, store.AddLine(ctx, testProduct("p1", 10, 5), 3))
	require.True(t, store.UpdateQuantity(ctx, "p1", 5))

	assert.Equal(t, 5, store.Snapshot().Lines[0].Quantity)
}

func TestUpdateQuantity_ZeroRemovesLine(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.True(t, store.AddLine(ctx, testProduct("p1", 10, 5), 3))
	store.UpdateQuantity(ctx, "p1", 0)

	snap := store.Snapshot()
	assert.Empty(t, snap.Lines)
	assert.Equal(t, 0.0, snap.Total())
}

func TestUpdateQuantity_OverCeiling_KeepsOldQuantity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.True(t, store.AddLine(ctx, testProduct("p1", 10, 5), 3))
	updated := store.UpdateQuantity(ctx, "p1", 6)

	assert.False(t, updated)
	assert.Equal(t, 3, store.Snapshot().Lines[0].Quantity)
}

func TestUpdateQuantity_UnknownProduct_NoOp(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.True(t, store.AddLine(ctx, testProduct("p1", 10, 5), 3))
	updated := store.UpdateQuantity(ctx, "missing", 2)

	assert.False(t, updated)
	assert.Len(t, store.Snapshot().Lines, 1)
}

func TestRemoveLine_IsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.True(t, store.AddLine(ctx, testProduct("p1", 10, 5), 3))

	assert.True(t, store.RemoveLine(ctx, "p1"))
	assert.False(t, store.RemoveLine(ctx, "p1"))
	assert.Empty(t, store.Snapshot().Lines)
}

func TestTotal_MultipleLines(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.True(t, store.AddLine(ctx, testProduct("p1", 10.00, 5), 2))
	require.True(t, store.AddLine(ctx, testProduct("p2", 25.00, 5), 1))

	assert.Equal(t, 45.00, store.Total())
	assert.Equal(t, 3, store.Count())
}

func TestLines_PreserveInsertionOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.True(t, store.AddLine(ctx, testProduct("p1", 1, 9), 1))
	require.True(t, store.AddLine(ctx, testProduct("p2", 1, 9), 1))
	require.True(t, store.AddLine(ctx, testProduct("p3", 1, 9), 1))
	require.True(t, store.AddLine(ctx, testProduct("p2", 1, 9), 1))

	snap := store.Snapshot()
	require.Len(t, snap.Lines, 3)
	assert.Equal(t, "p1", snap.Lines[0].ProductID)
	assert.Equal(t, "p2", snap.Lines[1].ProductID)
	assert.Equal(t, "p3", snap.Lines[2].ProductID)
}

func TestClear_EmptiesCartAndPersistedState(t *testing.T) {
	slot := persistence.NewMemorySlot()
	store := NewStore("session-1", slot)
	ctx := context.Background()

	require.True(t, store.AddLine(ctx, testProduct("p1", 10, 5), 3))
	require.True(t, store.AddLine(ctx, testProduct("p2", 25, 5), 1))

	store.Clear(ctx)

	snap := store.Snapshot()
	assert.Empty(t, snap.Lines)
	assert.Equal(t, 0.0, snap.Total())

	payload, err := slot.Load(ctx, "session-1")
	require.NoError(t, err)
	var lines []domain.CartLine
	require.NoError(t, json.Unmarshal(payload, &lines))
	assert.Empty(t, lines)
}

func TestRestore_RoundTrip(t *testing.T) {
	slot := persistence.NewMemorySlot()
	ctx := context.Background()

	store := NewStore("session-1", slot)
	require.True(t, store.AddLine(ctx, testProduct("p1", 10, 5), 3))
	require.True(t, store.AddLine(ctx, testProduct("p2", 25, 8), 2))

	restored := NewStore("session-1", slot)
	restored.Restore(ctx)

	assert.Equal(t, store.Snapshot(), restored.Snapshot())
	assert.Equal(t, store.Total(), restored.Total())
}

func TestRestore_EmptySlot(t *testing.T) {
	store := newTestStore(t)
	store.Restore(context.Background())

	assert.Empty(t, store.Snapshot().Lines)
}

func TestRestore_CorruptPayload_StartsEmpty(t *testing.T) {
	slot := persistence.NewMemorySlot()
	ctx := context.Background()
	require.NoError(t, slot.Save(ctx, "session-1", []byte("{not json")))

	store := NewStore("session-1", slot)
	store.Restore(ctx)

	assert.Empty(t, store.Snapshot().Lines)
}

func TestRestore_DropsInvalidLines(t *testing.T) {
	slot := persistence.NewMemorySlot()
	ctx := context.Background()

	lines := []domain.CartLine{
		{ProductID: "p1", Name: "ok", UnitPrice: 10, Quantity: 2, StockCeiling: 5},
		{ProductID: "", Quantity: 1, StockCeiling: 5},                        // missing product
		{ProductID: "p2", Quantity: 9, StockCeiling: 5},                      // over ceiling
		{ProductID: "p1", Name: "dup", UnitPrice: 10, Quantity: 1, StockCeiling: 5}, // duplicate
	}
	payload, err := json.Marshal(lines)
	require.NoError(t, err)
	require.NoError(t, slot.Save(ctx, "session-1", payload))

	store := NewStore("session-1", slot)
	store.Restore(ctx)

	snap := store.Snapshot()
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, "p1", snap.Lines[0].ProductID)
	assert.Equal(t, 2, snap.Lines[0].Quantity)
	assertInvariants(t, snap)
}

func TestRestore_LoadFailure_StartsEmpty(t *testing.T) {
	slot := &failingSlot{loadErr: errors.New("storage unavailable")}
	store := NewStore("session-1", slot)

	store.Restore(context.Background())

	assert.Empty(t, store.Snapshot().Lines)
}

func TestPersistenceFailure_DegradesToMemoryOnly(t *testing.T) {
	slot := &failingSlot{saveErr: errors.New("quota exceeded")}
	store := NewStore("session-1", slot)
	ctx := context.Background()

	// Mutations still succeed against the in-memory state
	require.True(t, store.AddLine(ctx, testProduct("p1", 10, 5), 3))
	require.True(t, store.UpdateQuantity(ctx, "p1", 4))

	snap := store.Snapshot()
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 4, snap.Lines[0].Quantity)
}

func TestSubscribe_NotifiedOnEveryMutation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var mu sync.Mutex
	var snapshots []domain.Cart
	unsubscribe := store.Subscribe(func(snap domain.Cart) {
		mu.Lock()
		defer mu.Unlock()
		snapshots = append(snapshots, snap)
	})

	require.True(t, store.AddLine(ctx, testProduct("p1", 10, 5), 2))
	require.True(t, store.UpdateQuantity(ctx, "p1", 3))
	require.True(t, store.RemoveLine(ctx, "p1"))
	store.Clear(ctx)

	mu.Lock()
	require.Len(t, snapshots, 4)
	assert.Equal(t, 2, snapshots[0].Lines[0].Quantity)
	assert.Equal(t, 3, snapshots[1].Lines[0].Quantity)
	assert.Empty(t, snapshots[2].Lines)
	assert.Empty(t, snapshots[3].Lines)
	mu.Unlock()

	// No notifications after unsubscribe
	unsubscribe()
	require.True(t, store.AddLine(ctx, testProduct("p2", 5, 5), 1))

	mu.Lock()
	assert.Len(t, snapshots, 4)
	mu.Unlock()
}

func TestSubscribe_RejectedMutationDoesNotNotify(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.True(t, store.AddLine(ctx, testProduct("p1", 10, 5), 5))

	notified := 0
	store.Subscribe(func(domain.Cart) { notified++ })

	assert.False(t, store.AddLine(ctx, testProduct("p1", 10, 5), 1))
	assert.False(t, store.UpdateQuantity(ctx, "p1", 99))
	assert.False(t, store.RemoveLine(ctx, "missing"))

	assert.Equal(t, 0, notified)
}
