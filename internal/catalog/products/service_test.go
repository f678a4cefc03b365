package products

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	catalogshared "github.com/wareline/wareline/internal/catalog/shared"
	"github.com/wareline/wareline/internal/shared"
)

type memoryProductRepo struct {
	products map[int64]Product
	onHand   map[int64]decimal.Decimal
	nextID   int64
	nextSeq  int64
}

func newMemoryProductRepo() *memoryProductRepo {
	return &memoryProductRepo{
		products: make(map[int64]Product),
		onHand:   make(map[int64]decimal.Decimal),
	}
}

func (r *memoryProductRepo) List(ctx context.Context, filters catalogshared.ListFilters) ([]Product, int, error) {
	out := make([]Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (r *memoryProductRepo) Get(ctx context.Context, id int64) (Product, error) {
	p, ok := r.products[id]
	if !ok {
		return Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (r *memoryProductRepo) Create(ctx context.Context, product Product) (Product, error) {
	for _, p := range r.products {
		if p.SKU == product.SKU {
			return Product{}, shared.ErrDuplicate
		}
	}
	r.nextID++
	product.ID = r.nextID
	product.IsActive = true
	r.products[product.ID] = product
	return product, nil
}

func (r *memoryProductRepo) Update(ctx context.Context, id int64, product Product) error {
	if _, ok := r.products[id]; !ok {
		return shared.ErrNotFound
	}
	product.ID = id
	product.IsActive = r.products[id].IsActive
	r.products[id] = product
	return nil
}

func (r *memoryProductRepo) SetActive(ctx context.Context, id int64, active bool) error {
	p, ok := r.products[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.IsActive = active
	r.products[id] = p
	return nil
}

func (r *memoryProductRepo) ListLowStock(ctx context.Context) ([]LowStockProduct, error) {
	out := []LowStockProduct{}
	for id, p := range r.products {
		if !p.IsActive || !p.ReorderPoint.IsPositive() {
			continue
		}
		if onHand := r.onHand[id]; onHand.LessThanOrEqual(p.ReorderPoint) {
			out = append(out, LowStockProduct{Product: p, OnHand: onHand})
		}
	}
	return out, nil
}

func (r *memoryProductRepo) NextSKUSequence(ctx context.Context) (int64, error) {
	r.nextSeq++
	return r.nextSeq, nil
}

func validProduct() Product {
	return Product{
		Name:       "Forklift Tire",
		CategoryID: 1,
		UOM:        "unit",
		Price:      decimal.RequireFromString("129.90"),
	}
}

func TestCreateGeneratesSKU(t *testing.T) {
	svc := NewService(newMemoryProductRepo())

	created, err := svc.Create(context.Background(), validProduct())
	require.NoError(t, err)
	require.Equal(t, "PROD-000001", created.SKU)
	require.True(t, created.IsActive)
}

func TestCreateKeepsExplicitSKU(t *testing.T) {
	svc := NewService(newMemoryProductRepo())

	p := validProduct()
	p.SKU = "TIRE-01"
	created, err := svc.Create(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, "TIRE-01", created.SKU)
}

func TestCreateDuplicateSKU(t *testing.T) {
	svc := NewService(newMemoryProductRepo())
	ctx := context.Background()

	p := validProduct()
	p.SKU = "TIRE-01"
	_, err := svc.Create(ctx, p)
	require.NoError(t, err)

	_, err = svc.Create(ctx, p)
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestUpdatePreservesSKUWhenOmitted(t *testing.T) {
	repo := newMemoryProductRepo()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, validProduct())
	require.NoError(t, err)

	update := validProduct()
	update.Name = "Forklift Tire XL"
	require.NoError(t, svc.Update(ctx, created.ID, update))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.SKU, got.SKU)
	require.Equal(t, "Forklift Tire XL", got.Name)
}

func TestDeactivateIsSoft(t *testing.T) {
	repo := newMemoryProductRepo()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, validProduct())
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, created.ID))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)
}

func TestLowStockReportsOnlyProductsAtOrBelowReorderPoint(t *testing.T) {
	repo := newMemoryProductRepo()
	svc := NewService(repo)
	ctx := context.Background()

	low := validProduct()
	low.Name = "Pallet Wrap"
	low.ReorderPoint = decimal.RequireFromString("10")
	lowCreated, err := svc.Create(ctx, low)
	require.NoError(t, err)
	repo.onHand[lowCreated.ID] = decimal.RequireFromString("4")

	healthy := validProduct()
	healthy.Name = "Strap Roll"
	healthy.ReorderPoint = decimal.RequireFromString("10")
	healthyCreated, err := svc.Create(ctx, healthy)
	require.NoError(t, err)
	repo.onHand[healthyCreated.ID] = decimal.RequireFromString("25")

	// No reorder point means no alerting, whatever the on-hand level.
	untracked := validProduct()
	untracked.Name = "Shrink Film"
	untrackedCreated, err := svc.Create(ctx, untracked)
	require.NoError(t, err)
	repo.onHand[untrackedCreated.ID] = decimal.Zero

	items, err := svc.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, lowCreated.ID, items[0].ID)
	require.True(t, items[0].OnHand.Equal(decimal.RequireFromString("4")))
}
