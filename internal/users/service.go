package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/wareline/wareline/internal/rbac"
	"github.com/wareline/wareline/internal/shared"
)

// Service holds account administration rules.
type Service struct {
	repo Repository
}

// NewService constructs the user service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	if id <= 0 {
		return User{}, fmt.Errorf("%w: invalid user id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// Update changes profile fields and role. Username is immutable.
func (s *Service) Update(ctx context.Context, id int64, user User) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid user id", shared.ErrValidation)
	}
	if strings.TrimSpace(user.Email) == "" {
		return fmt.Errorf("%w: email is required", shared.ErrValidation)
	}
	role, err := rbac.ParseRole(user.Role)
	if err != nil {
		return fmt.Errorf("%w: %s", shared.ErrValidation, err)
	}
	user.Role = string(role)
	return s.repo.Update(ctx, id, user)
}

// Deactivate disables an account. Actors cannot lock themselves out.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid user id", shared.ErrValidation)
	}
	if actor, ok := shared.IdentityFromContext(ctx); ok && actor.UserID == id {
		return fmt.Errorf("%w: cannot deactivate own account", shared.ErrConflict)
	}
	return s.repo.SetActive(ctx, id, false)
}

func (s *Service) Activate(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid user id", shared.ErrValidation)
	}
	return s.repo.SetActive(ctx, id, true)
}
