package products

import (
	"fmt"
	"strings"

	"github.com/wareline/wareline/internal/shared"
)

func (s *Service) validate(p Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product name is required", shared.ErrValidation)
	}
	if p.CategoryID <= 0 {
		return fmt.Errorf("%w: category is required", shared.ErrValidation)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price must be >= 0", shared.ErrValidation)
	}
	if p.ReorderPoint.IsNegative() {
		return fmt.Errorf("%w: reorder point must be >= 0", shared.ErrValidation)
	}
	return nil
}
