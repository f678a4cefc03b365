package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wareline/wareline/internal/shared"
)

type memoryUserRepo struct {
	users  map[int64]*User
	nextID int64
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[int64]*User)}
}

func (r *memoryUserRepo) FindByUsername(ctx context.Context, username string) (*User, error) {
	for _, u := range r.users {
		if u.Username == username || u.Email == username {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryUserRepo) FindByID(ctx context.Context, id int64) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (r *memoryUserRepo) Create(ctx context.Context, user User) (*User, error) {
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return nil, shared.ErrDuplicate
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.IsActive = true
	user.CreatedAt = time.Now()
	r.users[user.ID] = &user
	return &user, nil
}

func newTestService() (*Service, *memoryUserRepo) {
	repo := newMemoryUserRepo()
	return NewService(repo, NewTokenIssuer("test-secret", time.Hour)), repo
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	user, token, err := svc.Register(ctx, RegisterInput{
		Username: "manager",
		Email:    "manager@example.com",
		Password: "supersafe123",
		Role:     "inventory_manager",
	})
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	require.NotEmpty(t, token)

	_, token, err = svc.Login(ctx, "manager", "supersafe123")
	require.NoError(t, err)

	identity, err := svc.Verify(token)
	require.NoError(t, err)
	require.Equal(t, user.ID, identity.UserID)
	require.Equal(t, "inventory_manager", identity.Role)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc, _ := newTestService()
	_, _, err := svc.Register(context.Background(), RegisterInput{
		Username: "x",
		Email:    "x@example.com",
		Password: "supersafe123",
		Role:     "warlord",
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestRegisterDefaultsToStaffRole(t *testing.T) {
	svc, _ := newTestService()
	user, _, err := svc.Register(context.Background(), RegisterInput{
		Username: "worker",
		Email:    "worker@example.com",
		Password: "supersafe123",
	})
	require.NoError(t, err)
	require.Equal(t, "warehouse_staff", user.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService()
	_, _, err := svc.Register(context.Background(), RegisterInput{
		Username: "manager",
		Email:    "manager@example.com",
		Password: "supersafe123",
	})
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "manager", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Minute)
	token, err := issuer.Issue(&User{ID: 1, Username: "m", Role: "inventory_manager"})
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", time.Hour)
	other := NewTokenIssuer("secret-b", time.Hour)
	token, err := issuer.Issue(&User{ID: 1, Username: "m", Role: "inventory_manager"})
	require.NoError(t, err)

	_, err = other.Verify(token)
	require.ErrorIs(t, err, shared.ErrUnauthenticated)
}
