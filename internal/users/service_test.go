package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wareline/wareline/internal/rbac"
	"github.com/wareline/wareline/internal/shared"
)

type memoryUserRepo struct {
	users map[int64]User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: map[int64]User{}}
}

func (m *memoryUserRepo) List(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *memoryUserRepo) Get(ctx context.Context, id int64) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (m *memoryUserRepo) Update(ctx context.Context, id int64, user User) error {
	existing, ok := m.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	existing.Email = user.Email
	existing.FirstName = user.FirstName
	existing.LastName = user.LastName
	existing.Role = user.Role
	m.users[id] = existing
	return nil
}

func (m *memoryUserRepo) SetActive(ctx context.Context, id int64, active bool) error {
	u, ok := m.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.IsActive = active
	m.users[id] = u
	return nil
}

func seedUser(repo *memoryUserRepo, id int64, username, role string) {
	repo.users[id] = User{ID: id, Username: username, Email: username + "@wareline.test", Role: role, IsActive: true}
}

func TestUpdateRejectsUnknownRole(t *testing.T) {
	repo := newMemoryUserRepo()
	seedUser(repo, 1, "clerk", string(rbac.RoleWarehouseStaff))
	svc := NewService(repo)

	err := svc.Update(context.Background(), 1, User{Email: "clerk@wareline.test", Role: "superadmin"})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Equal(t, string(rbac.RoleWarehouseStaff), repo.users[1].Role)
}

func TestUpdatePromotesRole(t *testing.T) {
	repo := newMemoryUserRepo()
	seedUser(repo, 1, "clerk", string(rbac.RoleWarehouseStaff))
	svc := NewService(repo)

	err := svc.Update(context.Background(), 1, User{
		Email:     "clerk@wareline.test",
		FirstName: "Ada",
		Role:      string(rbac.RoleInventoryManager),
	})
	require.NoError(t, err)
	require.Equal(t, string(rbac.RoleInventoryManager), repo.users[1].Role)
	require.Equal(t, "Ada", repo.users[1].FirstName)
	require.Equal(t, "clerk", repo.users[1].Username)
}

func TestUpdateRequiresEmail(t *testing.T) {
	repo := newMemoryUserRepo()
	seedUser(repo, 1, "clerk", string(rbac.RoleWarehouseStaff))
	svc := NewService(repo)

	err := svc.Update(context.Background(), 1, User{Email: "  ", Role: string(rbac.RoleWarehouseStaff)})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeactivateRejectsOwnAccount(t *testing.T) {
	repo := newMemoryUserRepo()
	seedUser(repo, 7, "boss", string(rbac.RoleInventoryManager))
	svc := NewService(repo)

	ctx := shared.ContextWithIdentity(context.Background(), shared.Identity{
		UserID:   7,
		Username: "boss",
		Role:     string(rbac.RoleInventoryManager),
	})
	err := svc.Deactivate(ctx, 7)
	require.ErrorIs(t, err, shared.ErrConflict)
	require.True(t, repo.users[7].IsActive)
}

func TestDeactivateAndActivateOtherAccount(t *testing.T) {
	repo := newMemoryUserRepo()
	seedUser(repo, 7, "boss", string(rbac.RoleInventoryManager))
	seedUser(repo, 8, "clerk", string(rbac.RoleWarehouseStaff))
	svc := NewService(repo)

	ctx := shared.ContextWithIdentity(context.Background(), shared.Identity{UserID: 7, Username: "boss", Role: string(rbac.RoleInventoryManager)})
	require.NoError(t, svc.Deactivate(ctx, 8))
	require.False(t, repo.users[8].IsActive)

	require.NoError(t, svc.Activate(ctx, 8))
	require.True(t, repo.users[8].IsActive)
}

func TestGetUnknownUser(t *testing.T) {
	svc := NewService(newMemoryUserRepo())

	_, err := svc.Get(context.Background(), 99)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
