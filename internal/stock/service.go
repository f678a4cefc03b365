package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/wareline/wareline/internal/platform/cache"
	"github.com/wareline/wareline/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxLedger) error) error
	Breakdown(ctx context.Context, productID int64) ([]LocationLevel, error)
	ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates ledger reads and the manager absolute-set override.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	cache *cache.Cache
	group singleflight.Group
}

// NewService builds Service. cache may be nil.
func NewService(repo RepositoryPort, audit AuditPort, c *cache.Cache) *Service {
	return &Service{repo: repo, audit: audit, cache: c}
}

func breakdownKey(productID int64) string {
	return fmt.Sprintf("stock:product:%d", productID)
}

// ProductBreakdown returns the per-location levels for a product. Responses
// are cached; a singleflight group collapses concurrent cache misses for the
// same product into one query.
func (s *Service) ProductBreakdown(ctx context.Context, productID int64) ([]LocationLevel, error) {
	if productID <= 0 {
		return nil, fmt.Errorf("%w: invalid product id", shared.ErrValidation)
	}
	key := breakdownKey(productID)
	result, err, _ := s.group.Do(key, func() (any, error) {
		var levels []LocationLevel
		err := s.cache.FetchJSON(ctx, key, &levels, func(ctx context.Context) (any, error) {
			return s.repo.Breakdown(ctx, productID)
		})
		return levels, err
	})
	if err != nil {
		return nil, err
	}
	return result.([]LocationLevel), nil
}

// InvalidateProducts drops cached breakdowns after a ledger mutation.
func (s *Service) InvalidateProducts(ctx context.Context, productIDs ...int64) {
	keys := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		keys = append(keys, breakdownKey(id))
	}
	_ = s.cache.Invalidate(ctx, keys...)
}

// SetAbsolute overwrites the on-hand quantity for one (product, location)
// pair. No bounds check: the override is a manager correction and may set any
// value, including below current reservations. The write is audit-logged.
func (s *Service) SetAbsolute(ctx context.Context, actorID, productID, locationID int64, quantity decimal.Decimal) (Level, error) {
	if productID <= 0 || locationID <= 0 {
		return Level{}, fmt.Errorf("%w: product and location required", shared.ErrValidation)
	}

	var updated Level
	err := s.repo.WithTx(ctx, func(ctx context.Context, ledger TxLedger) error {
		level, err := ledger.GetForUpdate(ctx, productID, locationID)
		if err != nil && !errors.Is(err, ErrLevelNotFound) {
			return err
		}
		previous := level.Quantity
		level.Quantity = quantity
		if err := ledger.Upsert(ctx, level); err != nil {
			return err
		}
		updated = level

		return s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "stock.set_absolute",
			Entity:   "stock",
			EntityID: fmt.Sprintf("%d:%d", productID, locationID),
			Meta: map[string]any{
				"previous_quantity": previous.String(),
				"new_quantity":      quantity.String(),
			},
			At: time.Now().UTC(),
		})
	})
	if err != nil {
		return Level{}, err
	}

	s.InvalidateProducts(ctx, productID)
	updated.UpdatedAt = time.Now().UTC()
	return updated, nil
}

// Movements queries the immutable movement log.
func (s *Service) Movements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	return s.repo.ListMovements(ctx, filter)
}
