package catalog

import (
	"context"
	"errors"

	"github.com/Snapman5678/ChainWave/internal/domain"
)

// Common errors returned by the catalog
var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ProductRepository defines the interface for product storage operations
type ProductRepository interface {
	// ListProducts returns all products in insertion order
	ListProducts(ctx context.Context) ([]*domain.Product, error)

	// SearchProducts returns products whose name or description matches query
	SearchProducts(ctx context.Context, query string) ([]*domain.Product, error)

	// ListProductsByCategory returns products in the given category
	ListProductsByCategory(ctx context.Context, category string) ([]*domain.Product, error)

	// GetProduct returns a single product or ErrProductNotFound
	GetProduct(ctx context.Context, id string) (*domain.Product, error)

	// CreateProduct inserts a new product listing
	CreateProduct(ctx context.Context, p *domain.Product) error

	// AdjustStock changes available stock by delta (negative to deduct).
	// Returns ErrInsufficientStock when the result would go below zero.
	AdjustStock(ctx context.Context, id string, delta int) error

	Close() error
}
