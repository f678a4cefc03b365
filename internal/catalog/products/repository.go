package products

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	catalogshared "github.com/wareline/wareline/internal/catalog/shared"
	"github.com/wareline/wareline/internal/shared"
)

// Repository defines persistence for products.
type Repository interface {
	List(ctx context.Context, filters catalogshared.ListFilters) ([]Product, int, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, id int64, product Product) error
	SetActive(ctx context.Context, id int64, active bool) error
	// ListLowStock returns active products with a reorder point whose on-hand
	// total across internal locations is at or below it.
	ListLowStock(ctx context.Context) ([]LowStockProduct, error)
	NextSKUSequence(ctx context.Context) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

var sortColumns = map[string]string{
	"":     "product_name",
	"name": "product_name",
	"sku":  "sku",
	"date": "created_at",
}

const productColumns = `product_key, sku, product_name, description, category_key, uom, reorder_point, price, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.CategoryID, &p.UOM, &p.ReorderPoint, &p.Price, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, shared.ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *repository) List(ctx context.Context, filters catalogshared.ListFilters) ([]Product, int, error) {
	where := ``
	args := []any{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		n := strconv.Itoa(argCount)
		where += ` AND (product_name ILIKE $` + n + ` OR sku ILIKE $` + n + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.IsActive != nil {
		argCount++
		where += ` AND is_active=$` + strconv.Itoa(argCount)
		args = append(args, *filters.IsActive)
	}
	if filters.CategoryID != nil {
		argCount++
		where += ` AND category_key=$` + strconv.Itoa(argCount)
		args = append(args, *filters.CategoryID)
	}

	query := `SELECT ` + productColumns + ` FROM dim_product WHERE 1=1` + where
	countQuery := `SELECT COUNT(*) FROM dim_product WHERE 1=1` + where

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY ` + catalogshared.SortOrder(sortColumns, filters.SortBy, filters.SortDir)

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

	products := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.CategoryID, &p.UOM, &p.ReorderPoint, &p.Price, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM dim_product WHERE product_key=$1`, id)
	return scanProduct(row)
}

func (r *repository) Create(ctx context.Context, product Product) (Product, error) {
	now := time.Now().UTC()
	row := r.pool.QueryRow(ctx, `INSERT INTO dim_product (sku, product_name, description, category_key, uom, reorder_point, price, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9) RETURNING `+productColumns,
		product.SKU, product.Name, product.Description, product.CategoryID, product.UOM, product.ReorderPoint, product.Price, true, now)
	created, err := scanProduct(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Product{}, shared.ErrDuplicate
		}
		return Product{}, err
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, id int64, product Product) error {
	tag, err := r.pool.Exec(ctx, `UPDATE dim_product SET sku=$2, product_name=$3, description=$4, category_key=$5, uom=$6, reorder_point=$7, price=$8, updated_at=NOW() WHERE product_key=$1`,
		id, product.SKU, product.Name, product.Description, product.CategoryID, product.UOM, product.ReorderPoint, product.Price)
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
	tag, err := r.pool.Exec(ctx, `UPDATE dim_product SET is_active=$2, updated_at=NOW() WHERE product_key=$1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) ListLowStock(ctx context.Context) ([]LowStockProduct, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.product_key, p.sku, p.product_name, p.description, p.category_key, p.uom,
		       p.reorder_point, p.price, p.is_active, p.created_at, p.updated_at,
		       COALESCE(SUM(s.quantity), 0) AS on_hand
		FROM dim_product p
		LEFT JOIN (dim_stock s
			JOIN dim_location l ON l.location_key = s.location_key
			AND l.location_type = 'internal') ON s.product_key = p.product_key
		WHERE p.is_active = TRUE AND p.reorder_point > 0
		GROUP BY p.product_key, p.sku, p.product_name, p.description, p.category_key, p.uom,
		         p.reorder_point, p.price, p.is_active, p.created_at, p.updated_at
		HAVING COALESCE(SUM(s.quantity), 0) <= p.reorder_point
		ORDER BY p.product_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []LowStockProduct{}
	for rows.Next() {
		var p LowStockProduct
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.CategoryID, &p.UOM,
			&p.ReorderPoint, &p.Price, &p.IsActive, &p.CreatedAt, &p.UpdatedAt, &p.OnHand); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *repository) NextSKUSequence(ctx context.Context) (int64, error) {
	var next int64
	err := r.pool.QueryRow(ctx, `SELECT nextval('product_sku_seq')`).Scan(&next)
	return next, err
}
