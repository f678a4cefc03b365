package stock

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrLevelNotFound indicates a missing ledger row.
var ErrLevelNotFound = errors.New("stock level not found")

// TxLedger exposes the transactional operations used during document
// validation. Every read-modify-write goes through GetForUpdate so concurrent
// validations touching the same (product, location) pair serialize on the row
// lock.
type TxLedger interface {
	GetForUpdate(ctx context.Context, productID, locationID int64) (Level, error)
	Upsert(ctx context.Context, level Level) error
	InsertMovement(ctx context.Context, movement Movement) error
}

// Repository persists the stock ledger and movement log in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txLedger struct {
	tx pgx.Tx
}

// NewTxLedger wraps an open transaction. Operation validation shares its
// transaction with document writes through this.
func NewTxLedger(tx pgx.Tx) TxLedger {
	return &txLedger{tx: tx}
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxLedger) error) error {
	if r == nil {
		return errors.New("stock repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	if err := fn(ctx, &txLedger{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// Breakdown returns the per-location levels for a product. Rows with zero
// quantity and zero reservation are included; missing rows simply do not
// appear.
func (r *Repository) Breakdown(ctx context.Context, productID int64) ([]LocationLevel, error) {
	rows, err := r.pool.Query(ctx, `SELECT s.product_key, s.location_key, s.quantity, s.reserved_quantity, s.updated_at, l.location_name
FROM dim_stock s
JOIN dim_location l ON l.location_key = s.location_key
WHERE s.product_key=$1
ORDER BY l.location_name ASC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	levels := []LocationLevel{}
	for rows.Next() {
		var ll LocationLevel
		if err := rows.Scan(&ll.ProductID, &ll.LocationID, &ll.Quantity, &ll.Reserved, &ll.UpdatedAt, &ll.LocationName); err != nil {
			return nil, err
		}
		ll.AvailableQty = ll.Available()
		levels = append(levels, ll)
	}
	return levels, rows.Err()
}

// ListMovements queries the movement log, newest first.
func (r *Repository) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	where := ``
	args := []any{}
	argCount := 0

	if filter.Type != "" {
		argCount++
		where += ` AND m.movement_type=$` + strconv.Itoa(argCount)
		args = append(args, filter.Type)
	}
	if filter.ProductID > 0 {
		argCount++
		where += ` AND m.product_key=$` + strconv.Itoa(argCount)
		args = append(args, filter.ProductID)
	}
	if filter.LocationID > 0 {
		argCount++
		n := strconv.Itoa(argCount)
		where += ` AND (m.source_location_key=$` + n + ` OR m.destination_location_key=$` + n + `)`
		args = append(args, filter.LocationID)
	}
	if !filter.From.IsZero() {
		argCount++
		where += ` AND m.movement_date >= $` + strconv.Itoa(argCount)
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		argCount++
		where += ` AND m.movement_date <= $` + strconv.Itoa(argCount)
		args = append(args, filter.To)
	}

	argCount++
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, `SELECT m.movement_key, m.movement_id, m.movement_type, COALESCE(m.reference, ''), m.product_key,
	m.source_location_key, m.destination_location_key, m.quantity, COALESCE(m.uom, ''), m.movement_date,
	m.validated_by, m.validated_at, COALESCE(m.notes, ''), m.created_by, m.created_at,
	p.product_name, p.sku, COALESCE(src.location_name, ''), COALESCE(dst.location_name, '')
FROM dim_stock_movement m
JOIN dim_product p ON p.product_key = m.product_key
LEFT JOIN dim_location src ON src.location_key = m.source_location_key
LEFT JOIN dim_location dst ON dst.location_key = m.destination_location_key
WHERE 1=1`+where+`
ORDER BY m.created_at DESC, m.movement_key DESC
LIMIT $`+strconv.Itoa(argCount), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := []Movement{}
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.MovementID, &m.Type, &m.Reference, &m.ProductID,
			&m.SourceID, &m.DestinationID, &m.Quantity, &m.UOM, &m.MovementDate,
			&m.ValidatedBy, &m.ValidatedAt, &m.Notes, &m.CreatedBy, &m.CreatedAt,
			&m.ProductName, &m.ProductSKU, &m.SourceName, &m.DestinationName); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func (l *txLedger) GetForUpdate(ctx context.Context, productID, locationID int64) (Level, error) {
	var level Level
	err := l.tx.QueryRow(ctx, `SELECT product_key, location_key, quantity, reserved_quantity, updated_at
FROM dim_stock WHERE product_key=$1 AND location_key=$2 FOR UPDATE`, productID, locationID).
		Scan(&level.ProductID, &level.LocationID, &level.Quantity, &level.Reserved, &level.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Level{ProductID: productID, LocationID: locationID}, ErrLevelNotFound
		}
		return Level{}, err
	}
	return level, nil
}

func (l *txLedger) Upsert(ctx context.Context, level Level) error {
	_, err := l.tx.Exec(ctx, `INSERT INTO dim_stock (product_key, location_key, quantity, reserved_quantity, created_at, updated_at)
VALUES ($1,$2,$3,$4,NOW(),NOW())
ON CONFLICT (product_key, location_key) DO UPDATE SET quantity=EXCLUDED.quantity, reserved_quantity=EXCLUDED.reserved_quantity, updated_at=NOW()`,
		level.ProductID, level.LocationID, level.Quantity, level.Reserved)
	return err
}

func (l *txLedger) InsertMovement(ctx context.Context, movement Movement) error {
	date := movement.MovementDate
	if date.IsZero() {
		date = time.Now().UTC()
	}
	_, err := l.tx.Exec(ctx, `INSERT INTO dim_stock_movement (movement_id, movement_type, reference, product_key, source_location_key, destination_location_key, quantity, uom, movement_date, validated_by, validated_at, notes, created_by, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,NOW())`,
		movement.MovementID, movement.Type, movement.Reference, movement.ProductID,
		movement.SourceID, movement.DestinationID, movement.Quantity, movement.UOM, date,
		movement.ValidatedBy, movement.ValidatedAt, movement.Notes, movement.CreatedBy)
	return err
}
