package warehouses

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	catalogshared "github.com/wareline/wareline/internal/catalog/shared"
	"github.com/wareline/wareline/internal/platform/db"
	"github.com/wareline/wareline/internal/shared"
)

// Repository defines persistence for warehouses.
type Repository interface {
	List(ctx context.Context, filters catalogshared.ListFilters) ([]Warehouse, int, error)
	Get(ctx context.Context, id int64) (Warehouse, error)
	Create(ctx context.Context, warehouse Warehouse) (Warehouse, error)
	Update(ctx context.Context, id int64, warehouse Warehouse) error
	SetActive(ctx context.Context, id int64, active bool) error
	// DeactivateCascade flips the warehouse and every location inside it to
	// inactive in a single transaction.
	DeactivateCascade(ctx context.Context, id int64) error
	NextCodeSequence(ctx context.Context) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

var sortColumns = map[string]string{
	"":     "warehouse_name",
	"name": "warehouse_name",
	"code": "warehouse_code",
	"date": "created_at",
}

const warehouseColumns = `warehouse_key, warehouse_code, warehouse_name, address, city, state, country, postal_code, is_active, created_at, updated_at`

func scanWarehouse(row pgx.Row) (Warehouse, error) {
	var wh Warehouse
	err := row.Scan(&wh.ID, &wh.Code, &wh.Name, &wh.Address, &wh.City, &wh.State,
		&wh.Country, &wh.PostalCode, &wh.IsActive, &wh.CreatedAt, &wh.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Warehouse{}, shared.ErrNotFound
		}
		return Warehouse{}, err
	}
	return wh, nil
}

func (r *repository) List(ctx context.Context, filters catalogshared.ListFilters) ([]Warehouse, int, error) {
	where := ``
	args := []any{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		n := strconv.Itoa(argCount)
		where += ` AND (warehouse_name ILIKE $` + n + ` OR warehouse_code ILIKE $` + n + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.IsActive != nil {
		argCount++
		where += ` AND is_active=$` + strconv.Itoa(argCount)
		args = append(args, *filters.IsActive)
	}

	countQuery := `SELECT COUNT(*) FROM dim_warehouse WHERE 1=1` + where
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + warehouseColumns + ` FROM dim_warehouse WHERE 1=1` + where +
		` ORDER BY ` + catalogshared.SortOrder(sortColumns, filters.SortBy, filters.SortDir)
	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		offset := (filters.Page - 1) * filters.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	warehouses := []Warehouse{}
	for rows.Next() {
		var wh Warehouse
		if err := rows.Scan(&wh.ID, &wh.Code, &wh.Name, &wh.Address, &wh.City, &wh.State,
			&wh.Country, &wh.PostalCode, &wh.IsActive, &wh.CreatedAt, &wh.UpdatedAt); err != nil {
			return nil, 0, err
		}
		warehouses = append(warehouses, wh)
	}
	return warehouses, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Warehouse, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+warehouseColumns+` FROM dim_warehouse WHERE warehouse_key=$1`, id)
	return scanWarehouse(row)
}

func (r *repository) Create(ctx context.Context, warehouse Warehouse) (Warehouse, error) {
	now := time.Now().UTC()
	row := r.pool.QueryRow(ctx, `INSERT INTO dim_warehouse (warehouse_code, warehouse_name, address, city, state, country, postal_code, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9) RETURNING `+warehouseColumns,
		warehouse.Code, warehouse.Name, warehouse.Address, warehouse.City, warehouse.State,
		warehouse.Country, warehouse.PostalCode, true, now)
	created, err := scanWarehouse(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Warehouse{}, shared.ErrDuplicate
		}
		return Warehouse{}, err
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, id int64, warehouse Warehouse) error {
	tag, err := r.pool.Exec(ctx, `UPDATE dim_warehouse SET warehouse_name=$2, address=$3, city=$4, state=$5, country=$6, postal_code=$7, updated_at=NOW()
WHERE warehouse_key=$1`,
		id, warehouse.Name, warehouse.Address, warehouse.City, warehouse.State, warehouse.Country, warehouse.PostalCode)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return shared.ErrDuplicate
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE dim_warehouse SET is_active=$2, updated_at=NOW() WHERE warehouse_key=$1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) DeactivateCascade(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE dim_warehouse SET is_active=FALSE, updated_at=NOW() WHERE warehouse_key=$1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		_, err = tx.Exec(ctx, `UPDATE dim_location SET is_active=FALSE, updated_at=NOW() WHERE warehouse_key=$1`, id)
		return err
	})
}

func (r *repository) NextCodeSequence(ctx context.Context) (int64, error) {
	var next int64
	err := r.pool.QueryRow(ctx, `SELECT nextval('warehouse_code_seq')`).Scan(&next)
	return next, err
}
