package locations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	catalogshared "github.com/wareline/wareline/internal/catalog/shared"
	"github.com/wareline/wareline/internal/shared"
)

type memoryLocationRepo struct {
	locations  map[int64]Location
	warehouses map[int64]bool
	nextID     int64
	nextSeq    int64
}

func newMemoryLocationRepo() *memoryLocationRepo {
	return &memoryLocationRepo{
		locations:  make(map[int64]Location),
		warehouses: make(map[int64]bool),
	}
}

func (r *memoryLocationRepo) List(ctx context.Context, filters catalogshared.ListFilters) ([]Location, int, error) {
	out := make([]Location, 0, len(r.locations))
	for _, l := range r.locations {
		out = append(out, l)
	}
	return out, len(out), nil
}

func (r *memoryLocationRepo) Get(ctx context.Context, id int64) (Location, error) {
	l, ok := r.locations[id]
	if !ok {
		return Location{}, shared.ErrNotFound
	}
	return l, nil
}

func (r *memoryLocationRepo) Create(ctx context.Context, location Location) (Location, error) {
	r.nextID++
	location.ID = r.nextID
	location.IsActive = true
	r.locations[location.ID] = location
	return location, nil
}

func (r *memoryLocationRepo) Update(ctx context.Context, id int64, location Location) error {
	if _, ok := r.locations[id]; !ok {
		return shared.ErrNotFound
	}
	location.ID = id
	location.IsActive = r.locations[id].IsActive
	r.locations[id] = location
	return nil
}

func (r *memoryLocationRepo) SetActive(ctx context.Context, id int64, active bool) error {
	l, ok := r.locations[id]
	if !ok {
		return shared.ErrNotFound
	}
	l.IsActive = active
	r.locations[id] = l
	return nil
}

func (r *memoryLocationRepo) DeactivateCascade(ctx context.Context, id int64) error {
	if err := r.SetActive(ctx, id, false); err != nil {
		return err
	}
	for key, l := range r.locations {
		if l.ParentID != nil && *l.ParentID == id {
			l.IsActive = false
			r.locations[key] = l
		}
	}
	return nil
}

func (r *memoryLocationRepo) WarehouseExists(ctx context.Context, warehouseID int64) (bool, error) {
	return r.warehouses[warehouseID], nil
}

func (r *memoryLocationRepo) NextCodeSequence(ctx context.Context) (int64, error) {
	r.nextSeq++
	return r.nextSeq, nil
}

func TestCreateDefaultsToInternalType(t *testing.T) {
	repo := newMemoryLocationRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), Location{Name: "Rack A"})
	require.NoError(t, err)
	require.Equal(t, TypeInternal, created.Type)
	require.Equal(t, "LOC-000001", created.Code)
}

func TestCreateRejectsUnknownType(t *testing.T) {
	svc := NewService(newMemoryLocationRepo())
	_, err := svc.Create(context.Background(), Location{Name: "Rack A", Type: "outer-space"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateChecksWarehouse(t *testing.T) {
	repo := newMemoryLocationRepo()
	svc := NewService(repo)
	ctx := context.Background()

	missing := int64(42)
	_, err := svc.Create(ctx, Location{Name: "Rack A", WarehouseID: &missing})
	require.ErrorIs(t, err, shared.ErrNotFound)

	repo.warehouses[missing] = true
	_, err = svc.Create(ctx, Location{Name: "Rack A", WarehouseID: &missing})
	require.NoError(t, err)
}

func TestUpdateRejectsSelfParent(t *testing.T) {
	repo := newMemoryLocationRepo()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, Location{Name: "Rack A"})
	require.NoError(t, err)

	err = svc.Update(ctx, created.ID, Location{Name: "Rack A", ParentID: &created.ID})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeactivateCascadesToChildren(t *testing.T) {
	repo := newMemoryLocationRepo()
	svc := NewService(repo)
	ctx := context.Background()

	parent, err := svc.Create(ctx, Location{Name: "Zone 1"})
	require.NoError(t, err)
	child, err := svc.Create(ctx, Location{Name: "Zone 1 / Shelf 3", ParentID: &parent.ID})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, parent.ID))

	gotParent, err := svc.Get(ctx, parent.ID)
	require.NoError(t, err)
	require.False(t, gotParent.IsActive)

	gotChild, err := svc.Get(ctx, child.ID)
	require.NoError(t, err)
	require.False(t, gotChild.IsActive)
}
