package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Snapman5678/ChainWave/internal/cart"
	"github.com/Snapman5678/ChainWave/internal/catalog"
	"github.com/Snapman5678/ChainWave/internal/domain"
)

// ProductGetter is the slice of the catalog the cart handler needs.
type ProductGetter interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
}

type CartHandler struct {
	registry *cart.Registry
	catalog  ProductGetter
	timeout  time.Duration
}

func NewCartHandler(registry *cart.Registry, catalog ProductGetter, timeout time.Duration) *CartHandler {
	return &CartHandler{
		registry: registry,
		catalog:  catalog,
		timeout:  timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

// CartResponseDTO is the snapshot views render from: the ordered lines plus
// the derived total and badge count.
type CartResponseDTO struct {
	Lines []domain.CartLine `json:"lines"`
	Total float64           `json:"total"`
	Count int               `json:"count"`
}

func cartResponse(snap domain.Cart) CartResponseDTO {
	return CartResponseDTO{
		Lines: snap.Lines,
		Total: snap.Total(),
		Count: snap.Count(),
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}

	store := h.registry.ForSession(ctx, sessionID)
	respondJSON(w, http.StatusOK, cartResponse(store.Snapshot()))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	product, err := h.catalog.Get(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "product not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load product")
		return
	}

	store := h.registry.ForSession(ctx, sessionID)
	if !store.AddLine(ctx, *product, req.Quantity) {
		respondError(w, http.StatusConflict, "stock_exceeded", "requested quantity exceeds available stock")
		return
	}

	respondJSON(w, http.StatusCreated, cartResponse(store.Snapshot()))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}

	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	store := h.registry.ForSession(ctx, sessionID)
	if _, ok := store.Snapshot().Find(productID); !ok {
		respondError(w, http.StatusNotFound, "not_found", "product not in cart")
		return
	}
	if !store.UpdateQuantity(ctx, productID, req.Quantity) {
		respondError(w, http.StatusConflict, "stock_exceeded", "requested quantity exceeds available stock")
		return
	}

	respondJSON(w, http.StatusOK, cartResponse(store.Snapshot()))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}

	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	store := h.registry.ForSession(ctx, sessionID)
	store.RemoveLine(ctx, productID)

	respondJSON(w, http.StatusOK, cartResponse(store.Snapshot()))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}

	store := h.registry.ForSession(ctx, sessionID)
	store.Clear(ctx)

	respondJSON(w, http.StatusOK, cartResponse(store.Snapshot()))
}
