package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	jobmetrics "github.com/wareline/wareline/internal/jobs"
	"github.com/wareline/wareline/internal/shared"
)

// StockLowScanJob reports active products whose total on-hand quantity across
// internal locations has fallen to or below their reorder point.
type StockLowScanJob struct {
	pool    *pgxpool.Pool
	audit   *shared.AuditLogger
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewStockLowScanJob constructs the low stock sweep job. metrics may be nil.
func NewStockLowScanJob(pool *pgxpool.Pool, audit *shared.AuditLogger, logger *slog.Logger, metrics *jobmetrics.Metrics) *StockLowScanJob {
	return &StockLowScanJob{pool: pool, audit: audit, logger: logger, metrics: metrics}
}

type lowStockRow struct {
	ProductID    int64
	SKU          string
	Name         string
	OnHand       decimal.Decimal
	ReorderPoint decimal.Decimal
}

// Handle processes TaskStockLowScan tasks.
func (j *StockLowScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	return j.metrics.Track("stock_low_scan").End(j.run(ctx, t))
}

func (j *StockLowScanJob) run(ctx context.Context, t *asynq.Task) error {
	var payload StockLowScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	rows, err := j.pool.Query(ctx, `
		SELECT p.product_key, p.sku, p.product_name,
		       COALESCE(SUM(s.quantity), 0) AS on_hand,
		       p.reorder_point
		FROM dim_product p
		LEFT JOIN (dim_stock s
			JOIN dim_location l ON l.location_key = s.location_key
			AND l.location_type = 'internal') ON s.product_key = p.product_key
		WHERE p.is_active = TRUE AND p.reorder_point > 0
		GROUP BY p.product_key, p.sku, p.product_name, p.reorder_point
		HAVING COALESCE(SUM(s.quantity), 0) <= p.reorder_point`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var low []lowStockRow
	for rows.Next() {
		var r lowStockRow
		if err := rows.Scan(&r.ProductID, &r.SKU, &r.Name, &r.OnHand, &r.ReorderPoint); err != nil {
			return err
		}
		low = append(low, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, r := range low {
		j.logger.Warn("product below reorder point",
			slog.Int64("product_id", r.ProductID),
			slog.String("sku", r.SKU),
			slog.String("name", r.Name),
			slog.String("on_hand", r.OnHand.String()),
			slog.String("reorder_point", r.ReorderPoint.String()))
		if j.audit != nil {
			if err := j.audit.Record(ctx, shared.AuditLog{
				Action:   "stock.low_stock",
				Entity:   "product",
				EntityID: strconv.FormatInt(r.ProductID, 10),
				Meta: map[string]any{
					"sku":           r.SKU,
					"on_hand":       r.OnHand.String(),
					"reorder_point": r.ReorderPoint.String(),
				},
			}); err != nil {
				j.logger.Warn("record low stock audit", slog.Any("error", err))
			}
		}
	}
	j.metrics.AddLowStock(len(low))
	j.logger.Info("low stock sweep complete", slog.Int("low_products", len(low)))
	return nil
}
