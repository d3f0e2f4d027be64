package catalog

import (
	"context"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/Snapman5678/ChainWave/internal/domain"
)

// Service is the catalog collaborator handed to the cart and checkout flows.
// Product lookups go through singleflight so a burst of add-to-cart clicks
// for the same product hits the repository once.
type Service struct {
	repo ProductRepository
	sfg  singleflight.Group
}

func NewService(repo ProductRepository) *Service {
	return &Service{repo: repo}
}

// List returns products, optionally filtered by a search query or category.
// A non-empty query wins over the category filter, matching the marketplace
// search box behavior.
func (s *Service) List(ctx context.Context, query, category string) ([]*domain.Product, error) {
	query = strings.TrimSpace(query)
	if query != "" {
		return s.repo.SearchProducts(ctx, query)
	}
	if category != "" {
		return s.repo.ListProductsByCategory(ctx, category)
	}
	return s.repo.ListProducts(ctx)
}

// Get returns a single product by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	v, err, _ := s.sfg.Do(id, func() (interface{}, error) {
		return s.repo.GetProduct(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Product), nil
}

// Create inserts a new listing.
func (s *Service) Create(ctx context.Context, p *domain.Product) error {
	return s.repo.CreateProduct(ctx, p)
}

// AdjustStock changes available stock by delta (negative to deduct).
func (s *Service) AdjustStock(ctx context.Context, id string, delta int) error {
	return s.repo.AdjustStock(ctx, id, delta)
}
