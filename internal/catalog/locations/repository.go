package locations

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

// Repository defines persistence for locations.
type Repository interface {
	List(ctx context.Context, filters catalogshared.ListFilters) ([]Location, int, error)
	Get(ctx context.Context, id int64) (Location, error)
	Create(ctx context.Context, location Location) (Location, error)
	Update(ctx context.Context, id int64, location Location) error
	SetActive(ctx context.Context, id int64, active bool) error
	// DeactivateCascade flips the location and its direct children to
	// inactive in a single transaction.
	DeactivateCascade(ctx context.Context, id int64) error
	WarehouseExists(ctx context.Context, warehouseID int64) (bool, error)
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
	"":     "l.location_name",
	"name": "l.location_name",
	"code": "l.location_code",
	"type": "l.location_type",
	"date": "l.created_at",
}

const locationSelect = `SELECT l.location_key, l.location_code, l.location_name, l.location_type,
	l.warehouse_key, l.parent_location_key, l.barcode, l.is_active, l.created_at, l.updated_at,
	COALESCE(w.warehouse_name, ''), COALESCE(p.location_name, '')
FROM dim_location l
LEFT JOIN dim_warehouse w ON w.warehouse_key = l.warehouse_key
LEFT JOIN dim_location p ON p.location_key = l.parent_location_key`

func scanLocation(row pgx.Row) (Location, error) {
	var l Location
	err := row.Scan(&l.ID, &l.Code, &l.Name, &l.Type, &l.WarehouseID, &l.ParentID,
		&l.Barcode, &l.IsActive, &l.CreatedAt, &l.UpdatedAt, &l.WarehouseName, &l.ParentName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Location{}, shared.ErrNotFound
		}
		return Location{}, err
	}
	return l, nil
}

func (r *repository) List(ctx context.Context, filters catalogshared.ListFilters) ([]Location, int, error) {
	where := ``
	args := []any{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		n := strconv.Itoa(argCount)
		where += ` AND (l.location_name ILIKE $` + n + ` OR l.location_code ILIKE $` + n + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.IsActive != nil {
		argCount++
		where += ` AND l.is_active=$` + strconv.Itoa(argCount)
		args = append(args, *filters.IsActive)
	}
	if filters.WarehouseID != nil {
		argCount++
		where += ` AND l.warehouse_key=$` + strconv.Itoa(argCount)
		args = append(args, *filters.WarehouseID)
	}

	countQuery := `SELECT COUNT(*) FROM dim_location l WHERE 1=1` + where
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := locationSelect + ` WHERE 1=1` + where +
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

	locations := []Location{}
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.Code, &l.Name, &l.Type, &l.WarehouseID, &l.ParentID,
			&l.Barcode, &l.IsActive, &l.CreatedAt, &l.UpdatedAt, &l.WarehouseName, &l.ParentName); err != nil {
			return nil, 0, err
		}
		locations = append(locations, l)
	}
	return locations, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Location, error) {
	row := r.pool.QueryRow(ctx, locationSelect+` WHERE l.location_key=$1`, id)
	return scanLocation(row)
}

func (r *repository) Create(ctx context.Context, location Location) (Location, error) {
	now := time.Now().UTC()
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO dim_location (location_code, location_name, location_type, warehouse_key, parent_location_key, barcode, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8) RETURNING location_key`,
		location.Code, location.Name, location.Type, location.WarehouseID, location.ParentID,
		location.Barcode, true, now).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return Location{}, shared.ErrDuplicate
			case "23503":
				return Location{}, shared.ErrNotFound
			}
		}
		return Location{}, err
	}
	return r.Get(ctx, id)
}

func (r *repository) Update(ctx context.Context, id int64, location Location) error {
	tag, err := r.pool.Exec(ctx, `UPDATE dim_location SET location_name=$2, location_type=$3, warehouse_key=$4, parent_location_key=$5, barcode=$6, updated_at=NOW()
WHERE location_key=$1`,
		id, location.Name, location.Type, location.WarehouseID, location.ParentID, location.Barcode)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return shared.ErrDuplicate
			case "23503":
				return shared.ErrNotFound
			}
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE dim_location SET is_active=$2, updated_at=NOW() WHERE location_key=$1`, id, active)
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
		tag, err := tx.Exec(ctx, `UPDATE dim_location SET is_active=FALSE, updated_at=NOW() WHERE location_key=$1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		_, err = tx.Exec(ctx, `UPDATE dim_location SET is_active=FALSE, updated_at=NOW() WHERE parent_location_key=$1`, id)
		return err
	})
}

func (r *repository) WarehouseExists(ctx context.Context, warehouseID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM dim_warehouse WHERE warehouse_key=$1)`, warehouseID).Scan(&exists)
	return exists, err
}

func (r *repository) NextCodeSequence(ctx context.Context) (int64, error) {
	var next int64
	err := r.pool.QueryRow(ctx, `SELECT nextval('location_code_seq')`).Scan(&next)
	return next, err
}
