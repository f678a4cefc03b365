package warehouses

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	catalogshared "github.com/wareline/wareline/internal/catalog/shared"
	"github.com/wareline/wareline/internal/shared"
)

type memoryWarehouseRepo struct {
	warehouses map[int64]Warehouse
	locations  map[int64]bool // location id -> active, all owned by warehouse 1
	nextID     int64
	seq        int64
	cascades   int
}

func newMemoryWarehouseRepo() *memoryWarehouseRepo {
	return &memoryWarehouseRepo{warehouses: map[int64]Warehouse{}, locations: map[int64]bool{}}
}

func (m *memoryWarehouseRepo) List(ctx context.Context, filters catalogshared.ListFilters) ([]Warehouse, int, error) {
	out := make([]Warehouse, 0, len(m.warehouses))
	for _, w := range m.warehouses {
		out = append(out, w)
	}
	return out, len(out), nil
}

func (m *memoryWarehouseRepo) Get(ctx context.Context, id int64) (Warehouse, error) {
	w, ok := m.warehouses[id]
	if !ok {
		return Warehouse{}, shared.ErrNotFound
	}
	return w, nil
}

func (m *memoryWarehouseRepo) Create(ctx context.Context, warehouse Warehouse) (Warehouse, error) {
	for _, existing := range m.warehouses {
		if existing.Code == warehouse.Code {
			return Warehouse{}, shared.ErrDuplicate
		}
	}
	m.nextID++
	warehouse.ID = m.nextID
	warehouse.IsActive = true
	m.warehouses[warehouse.ID] = warehouse
	return warehouse, nil
}

func (m *memoryWarehouseRepo) Update(ctx context.Context, id int64, warehouse Warehouse) error {
	existing, ok := m.warehouses[id]
	if !ok {
		return shared.ErrNotFound
	}
	warehouse.ID = id
	warehouse.Code = existing.Code
	warehouse.IsActive = existing.IsActive
	m.warehouses[id] = warehouse
	return nil
}

func (m *memoryWarehouseRepo) SetActive(ctx context.Context, id int64, active bool) error {
	w, ok := m.warehouses[id]
	if !ok {
		return shared.ErrNotFound
	}
	w.IsActive = active
	m.warehouses[id] = w
	return nil
}

func (m *memoryWarehouseRepo) DeactivateCascade(ctx context.Context, id int64) error {
	w, ok := m.warehouses[id]
	if !ok {
		return shared.ErrNotFound
	}
	w.IsActive = false
	m.warehouses[id] = w
	for loc := range m.locations {
		m.locations[loc] = false
	}
	m.cascades++
	return nil
}

func (m *memoryWarehouseRepo) NextCodeSequence(ctx context.Context) (int64, error) {
	m.seq++
	return m.seq, nil
}

func TestCreateGeneratesWarehouseCode(t *testing.T) {
	repo := newMemoryWarehouseRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), Warehouse{Name: "Main"})
	require.NoError(t, err)
	require.Equal(t, "WH-0001", created.Code)
	require.True(t, created.IsActive)

	second, err := svc.Create(context.Background(), Warehouse{Name: "Overflow"})
	require.NoError(t, err)
	require.Equal(t, "WH-0002", second.Code)
}

func TestCreateKeepsExplicitCode(t *testing.T) {
	repo := newMemoryWarehouseRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), Warehouse{Name: "Main", Code: "WH-EAST"})
	require.NoError(t, err)
	require.Equal(t, "WH-EAST", created.Code)
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(newMemoryWarehouseRepo())

	_, err := svc.Create(context.Background(), Warehouse{Name: "   "})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeactivateCascadesToLocations(t *testing.T) {
	repo := newMemoryWarehouseRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), Warehouse{Name: "Main"})
	require.NoError(t, err)
	repo.locations[10] = true
	repo.locations[11] = true

	require.NoError(t, svc.Deactivate(context.Background(), created.ID))

	stored, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.False(t, stored.IsActive)
	require.Equal(t, 1, repo.cascades)
	for id, active := range repo.locations {
		require.False(t, active, "location %d should be inactive", id)
	}
}
