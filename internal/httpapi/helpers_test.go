package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/Snapman5678/ChainWave/internal/cart"
	"github.com/Snapman5678/ChainWave/internal/catalog"
	"github.com/Snapman5678/ChainWave/internal/checkout"
	"github.com/Snapman5678/ChainWave/internal/domain"
	"github.com/Snapman5678/ChainWave/internal/persistence"
)

// stubCatalog backs both the cart handler's ProductGetter and the catalog
// handler's Catalog interface.
type stubCatalog struct {
	mu       sync.Mutex
	products map[string]*domain.Product
	err      error
}

func newStubCatalog(products ...*domain.Product) *stubCatalog {
	s := &stubCatalog{products: make(map[string]*domain.Product)}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *stubCatalog) Get(_ context.Context, id string) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
}

func (s *stubCatalog) List(_ context.Context, query, category string) ([]*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []*domain.Product
	for _, p := range s.products {
		if query != "" && p.Name != query {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *stubCatalog) Create(_ context.Context, p *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.products[p.ID] = p
	return nil
}

type stubCheckout struct {
	mu     sync.Mutex
	order  *checkout.Order
	orders []*checkout.Order
	err    error

	gotSessionID string
	gotAddress   checkout.Address
	gotIdemKey   string
}

func (s *stubCheckout) Checkout(_ context.Context, sessionID string, _ checkout.CartStore, addr checkout.Address, idempotencyKey string) (*checkout.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gotSessionID = sessionID
	s.gotAddress = addr
	s.gotIdemKey = idempotencyKey
	if s.err != nil {
		return nil, s.err
	}
	return s.order, nil
}

func (s *stubCheckout) GetOrder(_ context.Context, id string) (*checkout.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, o := range s.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, checkout.ErrOrderNotFound
}

func (s *stubCheckout) ListOrders(_ context.Context, sessionID string) ([]*checkout.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []*checkout.Order
	for _, o := range s.orders {
		if o.SessionID == sessionID {
			out = append(out, o)
		}
	}
	return out, nil
}

type testEnv struct {
	router   *chi.Mux
	catalog  *stubCatalog
	checkout *stubCheckout
	registry *cart.Registry
}

func newTestEnv(t *testing.T, products ...*domain.Product) *testEnv {
	t.Helper()

	stubCat := newStubCatalog(products...)
	stubCheck := &stubCheckout{}
	registry := cart.NewRegistry(persistence.NewMemorySlot())

	timeout := 5 * time.Second
	router := NewRouter(
		NewCartHandler(registry, stubCat, timeout),
		NewCatalogHandler(stubCat, timeout),
		NewCheckoutHandler(stubCheck, registry, timeout),
		timeout,
	)

	return &testEnv{router: router, catalog: stubCat, checkout: stubCheck, registry: registry}
}

// do performs a request against the router for the given session.
func (e *testEnv) do(t *testing.T, method, target, sessionID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, target, reader)
	if sessionID != "" {
		req.Header.Set("X-Session-ID", sessionID)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) CartResponseDTO {
	t.Helper()
	var resp CartResponseDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func testProduct(id string, price float64, stock int) *domain.Product {
	return &domain.Product{
		ID:             id,
		Name:           "product " + id,
		Price:          price,
		Category:       "test",
		AvailableStock: stock,
	}
}
