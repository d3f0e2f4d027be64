package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Snapman5678/ChainWave/internal/domain"
)

// Catalog is the slice of the catalog collaborator checkout needs: live stock
// reads for re-validation and stock adjustment at order time.
type Catalog interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
	AdjustStock(ctx context.Context, id string, delta int) error
}

// CartStore is the slice of the cart store checkout consumes: the finalized
// line list and total, plus clearing after a successful order.
type CartStore interface {
	Snapshot() domain.Cart
	Clear(ctx context.Context)
}

type Service struct {
	repo    RepoInterface
	catalog Catalog
}

func NewService(repo RepoInterface, catalog Catalog) *Service {
	return &Service{repo: repo, catalog: catalog}
}

// Checkout turns the session's cart into an order.
//
// The cart's captured stock ceilings can be stale by the time the user pays,
// so every line is re-validated against live catalog stock here; a shortfall
// rejects the whole order with ErrInsufficientStock and leaves the cart
// untouched. On success the stock is deducted, the order and its outbox event
// are persisted in one transaction, and the cart is cleared.
func (s *Service) Checkout(ctx context.Context, sessionID string, store CartStore, addr Address, idempotencyKey string) (*Order, error) {
	snap := store.Snapshot()
	if len(snap.Lines) == 0 {
		return nil, ErrEmptyCart
	}
	if !addr.Complete() {
		return nil, ErrInvalidAddress
	}

	if idempotencyKey != "" {
		existing, err := s.repo.GetOrderByIdempotencyKey(ctx, idempotencyKey)
		if err != nil && !errors.Is(err, ErrIdempotencyKeyMiss) {
			return nil, fmt.Errorf("failed to check idempotency: %w", err)
		}
		if existing != nil {
			log.Printf("duplicate checkout for idempotency_key %v, returning order %v", idempotencyKey, existing.ID)
			return existing, nil
		}
	}

	// Re-validate against live stock before touching anything
	for _, line := range snap.Lines {
		p, err := s.catalog.Get(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to validate product %s: %w", line.ProductID, err)
		}
		if p.AvailableStock < line.Quantity {
			return nil, fmt.Errorf("%w: product %s has %d left, cart wants %d",
				ErrInsufficientStock, line.ProductID, p.AvailableStock, line.Quantity)
		}
	}

	deducted, err := s.deductStock(ctx, snap.Lines)
	if err != nil {
		s.restoreStock(ctx, deducted)
		return nil, err
	}

	order := buildOrder(sessionID, snap, addr, idempotencyKey)
	payload, err := json.Marshal(orderCompletedEvent{
		OrderID:     order.ID,
		SessionID:   order.SessionID,
		Items:       order.Lines,
		TotalAmount: order.Total,
		Currency:    order.Currency,
		CompletedAt: order.CreatedAt,
	})
	if err != nil {
		s.restoreStock(ctx, snap.Lines)
		return nil, fmt.Errorf("failed to marshal order event: %w", err)
	}

	if err := s.repo.CreateOrder(ctx, order, payload); err != nil {
		s.restoreStock(ctx, snap.Lines)
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	store.Clear(ctx)
	return order, nil
}

// GetOrder returns a single order by id.
func (s *Service) GetOrder(ctx context.Context, id string) (*Order, error) {
	return s.repo.GetOrder(ctx, id)
}

// ListOrders returns the session's order history, newest first.
func (s *Service) ListOrders(ctx context.Context, sessionID string) ([]*Order, error) {
	return s.repo.ListOrders(ctx, sessionID)
}

// deductStock deducts every line's quantity and returns the lines actually
// deducted so a failure partway through can be compensated.
func (s *Service) deductStock(ctx context.Context, lines []domain.CartLine) ([]domain.CartLine, error) {
	var deducted []domain.CartLine
	for _, line := range lines {
		if err := s.catalog.AdjustStock(ctx, line.ProductID, -line.Quantity); err != nil {
			return deducted, fmt.Errorf("failed to deduct stock for product %s: %w", line.ProductID, err)
		}
		deducted = append(deducted, line)
	}
	return deducted, nil
}

func (s *Service) restoreStock(ctx context.Context, lines []domain.CartLine) {
	for _, line := range lines {
		if err := s.catalog.AdjustStock(ctx, line.ProductID, line.Quantity); err != nil {
			log.Printf("failed to restore stock for product %s: %v", line.ProductID, err)
		}
	}
}

func buildOrder(sessionID string, snap domain.Cart, addr Address, idempotencyKey string) *Order {
	order := &Order{
		ID:             uuid.New().String(),
		SessionID:      sessionID,
		Address:        addr,
		Total:          snap.Total(),
		Currency:       Currency,
		IdempotencyKey: idempotencyKey,
		Status:         StatusCompleted,
		CreatedAt:      time.Now(),
	}
	for _, line := range snap.Lines {
		order.Lines = append(order.Lines, OrderLine{
			ProductID:   line.ProductID,
			ProductName: line.Name,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Subtotal:    line.Subtotal(),
		})
	}
	return order
}
