package locations

import (
	"context"
	"fmt"
	"strings"

	catalogshared "github.com/wareline/wareline/internal/catalog/shared"
	"github.com/wareline/wareline/internal/shared"
)

// Service holds location business rules.
type Service struct {
	repo Repository
}

// NewService constructs the location service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters catalogshared.ListFilters) ([]Location, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Location, error) {
	if id <= 0 {
		return Location{}, fmt.Errorf("%w: invalid location id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, location Location) (Location, error) {
	if err := s.validate(&location); err != nil {
		return Location{}, err
	}
	if location.WarehouseID != nil {
		ok, err := s.repo.WarehouseExists(ctx, *location.WarehouseID)
		if err != nil {
			return Location{}, err
		}
		if !ok {
			return Location{}, fmt.Errorf("%w: warehouse not found", shared.ErrNotFound)
		}
	}
	if location.Code == "" {
		seq, err := s.repo.NextCodeSequence(ctx)
		if err != nil {
			return Location{}, err
		}
		location.Code = fmt.Sprintf("LOC-%06d", seq)
	}
	return s.repo.Create(ctx, location)
}

func (s *Service) Update(ctx context.Context, id int64, location Location) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid location id", shared.ErrValidation)
	}
	if err := s.validate(&location); err != nil {
		return err
	}
	if location.ParentID != nil && *location.ParentID == id {
		return fmt.Errorf("%w: location cannot be its own parent", shared.ErrValidation)
	}
	if location.WarehouseID != nil {
		ok, err := s.repo.WarehouseExists(ctx, *location.WarehouseID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: warehouse not found", shared.ErrNotFound)
		}
	}
	return s.repo.Update(ctx, id, location)
}

// Deactivate soft-deletes the location together with its direct children.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid location id", shared.ErrValidation)
	}
	return s.repo.DeactivateCascade(ctx, id)
}

func (s *Service) Activate(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid location id", shared.ErrValidation)
	}
	return s.repo.SetActive(ctx, id, true)
}

func (s *Service) validate(l *Location) error {
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("%w: location name is required", shared.ErrValidation)
	}
	if l.Type == "" {
		l.Type = TypeInternal
	}
	if !ValidType(l.Type) {
		return fmt.Errorf("%w: unknown location type %q", shared.ErrValidation, l.Type)
	}
	return nil
}
