package categories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	catalogshared "github.com/wareline/wareline/internal/catalog/shared"
	"github.com/wareline/wareline/internal/shared"
)

type memoryCategoryRepo struct {
	categories     map[int64]Category
	activeProducts map[int64]int
	nextID         int64
	nextSeq        int64
}

func newMemoryCategoryRepo() *memoryCategoryRepo {
	return &memoryCategoryRepo{
		categories:     make(map[int64]Category),
		activeProducts: make(map[int64]int),
	}
}

func (r *memoryCategoryRepo) List(ctx context.Context, filters catalogshared.ListFilters) ([]Category, int, error) {
	out := make([]Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (r *memoryCategoryRepo) Get(ctx context.Context, id int64) (Category, error) {
	c, ok := r.categories[id]
	if !ok {
		return Category{}, shared.ErrNotFound
	}
	return c, nil
}

func (r *memoryCategoryRepo) Create(ctx context.Context, category Category) (Category, error) {
	r.nextID++
	category.ID = r.nextID
	category.IsActive = true
	r.categories[category.ID] = category
	return category, nil
}

func (r *memoryCategoryRepo) Update(ctx context.Context, id int64, category Category) error {
	c, ok := r.categories[id]
	if !ok {
		return shared.ErrNotFound
	}
	c.Name = category.Name
	c.Description = category.Description
	r.categories[id] = c
	return nil
}

func (r *memoryCategoryRepo) SetActive(ctx context.Context, id int64, active bool) error {
	c, ok := r.categories[id]
	if !ok {
		return shared.ErrNotFound
	}
	c.IsActive = active
	r.categories[id] = c
	return nil
}

func (r *memoryCategoryRepo) CountActiveProducts(ctx context.Context, id int64) (int, error) {
	return r.activeProducts[id], nil
}

func (r *memoryCategoryRepo) NextCodeSequence(ctx context.Context) (int64, error) {
	r.nextSeq++
	return r.nextSeq, nil
}

func TestCreateGeneratesCode(t *testing.T) {
	repo := newMemoryCategoryRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), Category{Name: "Beverages"})
	require.NoError(t, err)
	require.Equal(t, "CAT-000001", created.Code)
	require.True(t, created.IsActive)
}

func TestDeactivateBlockedByActiveProducts(t *testing.T) {
	repo := newMemoryCategoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, Category{Name: "Beverages"})
	require.NoError(t, err)

	repo.activeProducts[created.ID] = 3
	err = svc.Deactivate(ctx, created.ID)
	require.ErrorIs(t, err, shared.ErrConflict)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, got.IsActive)
}

func TestDeactivateSucceedsWithoutActiveProducts(t *testing.T) {
	repo := newMemoryCategoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, Category{Name: "Seasonal"})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, created.ID))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(newMemoryCategoryRepo())
	_, err := svc.Create(context.Background(), Category{})
	require.ErrorIs(t, err, shared.ErrValidation)
}
