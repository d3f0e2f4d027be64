package checkout

import (
	"context"
	"sync"

	"github.com/Snapman5678/ChainWave/internal/domain"
)

type mockRepository struct {
	mu           sync.Mutex
	orders       map[string]*Order
	byIdemKey    map[string]*Order
	events       []*OutboxEvent
	nextEventID  int64
	createErr    error
	processedIDs []int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		orders:    make(map[string]*Order),
		byIdemKey: make(map[string]*Order),
	}
}

func (m *mockRepository) CreateOrder(_ context.Context, order *Order, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.orders[order.ID] = order
	if order.IdempotencyKey != "" {
		m.byIdemKey[order.IdempotencyKey] = order
	}
	m.nextEventID++
	m.events = append(m.events, &OutboxEvent{
		ID:          m.nextEventID,
		AggregateID: order.ID,
		EventType:   "order.completed",
		Payload:     payload,
	})
	return nil
}

func (m *mockRepository) GetOrderByIdempotencyKey(_ context.Context, key string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.byIdemKey[key]
	if !ok {
		return nil, ErrIdempotencyKeyMiss
	}
	return order, nil
}

func (m *mockRepository) GetOrder(_ context.Context, id string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (m *mockRepository) ListOrders(_ context.Context, sessionID string) ([]*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Order
	for _, order := range m.orders {
		if order.SessionID == sessionID {
			out = append(out, order)
		}
	}
	return out, nil
}

func (m *mockRepository) GetUnprocessedEvents(_ context.Context, limit int) ([]*OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) > limit {
		return m.events[:limit], nil
	}
	return m.events, nil
}

func (m *mockRepository) MarkEventAsProcessed(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processedIDs = append(m.processedIDs, id)
	return nil
}

func (m *mockRepository) Close() error { return nil }

type mockCatalog struct {
	mu    sync.Mutex
	stock map[string]int
	price map[string]float64
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		stock: make(map[string]int),
		price: make(map[string]float64),
	}
}

func (m *mockCatalog) setProduct(id string, price float64, stock int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stock[id] = stock
	m.price[id] = price
}

func (m *mockCatalog) stockOf(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stock[id]
}

func (m *mockCatalog) Get(_ context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stock, ok := m.stock[id]
	if !ok {
		return nil, errProductMissing
	}
	return &domain.Product{
		ID:             id,
		Name:           "product " + id,
		Price:          m.price[id],
		AvailableStock: stock,
	}, nil
}

func (m *mockCatalog) AdjustStock(_ context.Context, id string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stock, ok := m.stock[id]
	if !ok {
		return errProductMissing
	}
	if stock+delta < 0 {
		return errStockShort
	}
	m.stock[id] = stock + delta
	return nil
}
