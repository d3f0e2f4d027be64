package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Snapman5678/ChainWave/internal/cart"
	"github.com/Snapman5678/ChainWave/internal/checkout"
)

// CheckoutService is the checkout collaborator surface the handler drives.
type CheckoutService interface {
	Checkout(ctx context.Context, sessionID string, store checkout.CartStore, addr checkout.Address, idempotencyKey string) (*checkout.Order, error)
	GetOrder(ctx context.Context, id string) (*checkout.Order, error)
	ListOrders(ctx context.Context, sessionID string) ([]*checkout.Order, error)
}

type CheckoutHandler struct {
	service  CheckoutService
	registry *cart.Registry
	timeout  time.Duration
}

func NewCheckoutHandler(service CheckoutService, registry *cart.Registry, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		service:  service,
		registry: registry,
		timeout:  timeout,
	}
}

type CheckoutRequestDTO struct {
	Address        checkout.Address `json:"address"`
	IdempotencyKey string           `json:"idempotency_key"`
}

func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	store := h.registry.ForSession(ctx, sessionID)
	order, err := h.service.Checkout(ctx, sessionID, store, req.Address, req.IdempotencyKey)
	if err != nil {
		handleCheckoutError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

func (h *CheckoutHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}

	orders, err := h.service.ListOrders(ctx, sessionID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list orders")
		return
	}
	if orders == nil {
		orders = []*checkout.Order{}
	}

	respondJSON(w, http.StatusOK, orders)
}

func (h *CheckoutHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "id")
	order, err := h.service.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, checkout.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "order not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get order")
		return
	}

	respondJSON(w, http.StatusOK, order)
}

func handleCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "no items to checkout")
	case errors.Is(err, checkout.ErrInvalidAddress):
		respondError(w, http.StatusBadRequest, "invalid_address", "please fill in all address fields")
	case errors.Is(err, checkout.ErrInsufficientStock):
		respondError(w, http.StatusConflict, "insufficient_stock", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "checkout failed")
	}
}
