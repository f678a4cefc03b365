package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog product.
type Product struct {
	ID           int64           `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	CategoryID   int64           `json:"category_id"`
	UOM          string          `json:"uom"`
	ReorderPoint decimal.Decimal `json:"reorder_point"`
	Price        decimal.Decimal `json:"price"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// LowStockProduct is a product whose on-hand quantity across internal
// locations is at or below its reorder point.
type LowStockProduct struct {
	Product
	OnHand decimal.Decimal `json:"on_hand"`
}
