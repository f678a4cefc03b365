package products

import (
	"context"
	"fmt"

	catalogshared "github.com/wareline/wareline/internal/catalog/shared"
	"github.com/wareline/wareline/internal/shared"
)

// Service holds product business rules.
type Service struct {
	repo Repository
}

// NewService constructs the product service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters catalogshared.ListFilters) ([]Product, int, error) {
	return s.repo.List(ctx, filters)
}

// LowStock reports products at or below their reorder point.
func (s *Service) LowStock(ctx context.Context) ([]LowStockProduct, error) {
	return s.repo.ListLowStock(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, fmt.Errorf("%w: invalid product id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// Create inserts a product, generating a SKU when none is supplied.
func (s *Service) Create(ctx context.Context, product Product) (Product, error) {
	if err := s.validate(product); err != nil {
		return Product{}, err
	}
	if product.SKU == "" {
		seq, err := s.repo.NextSKUSequence(ctx)
		if err != nil {
			return Product{}, err
		}
		product.SKU = fmt.Sprintf("PROD-%06d", seq)
	}
	return s.repo.Create(ctx, product)
}

func (s *Service) Update(ctx context.Context, id int64, product Product) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid product id", shared.ErrValidation)
	}
	if err := s.validate(product); err != nil {
		return err
	}
	if product.SKU == "" {
		current, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		product.SKU = current.SKU
	}
	return s.repo.Update(ctx, id, product)
}

// Deactivate soft-deletes a product. Products are never hard-deleted because
// stock and movement rows keep referencing them.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid product id", shared.ErrValidation)
	}
	return s.repo.SetActive(ctx, id, false)
}

func (s *Service) Activate(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid product id", shared.ErrValidation)
	}
	return s.repo.SetActive(ctx, id, true)
}
