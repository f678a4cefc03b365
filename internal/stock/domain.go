package stock

import (
	"time"

	"github.com/shopspring/decimal"
)

// Level is one ledger row, unique on (product, location). A row missing from
// the table reads as zero stock.
type Level struct {
	ProductID  int64           `json:"product_id"`
	LocationID int64           `json:"location_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Reserved   decimal.Decimal `json:"reserved_quantity"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Available is quantity minus reserved. It may go negative when reserved
// exceeds on-hand; the ledger does not clamp it.
func (l Level) Available() decimal.Decimal {
	return l.Quantity.Sub(l.Reserved)
}

// LocationLevel is a Level joined with its location for breakdown views.
type LocationLevel struct {
	Level
	LocationName string          `json:"location_name"`
	AvailableQty decimal.Decimal `json:"available_quantity"`
}

// Movement types mirror the four document types.
const (
	MovementReceipt    = "receipt"
	MovementDelivery   = "delivery"
	MovementTransfer   = "transfer"
	MovementAdjustment = "adjustment"
)

// Movement is one immutable ledger audit row, written during document
// validation and never updated afterwards.
type Movement struct {
	ID            int64           `json:"id"`
	MovementID    string          `json:"movement_id"`
	Type          string          `json:"type"`
	Reference     string          `json:"reference"`
	ProductID     int64           `json:"product_id"`
	SourceID      *int64          `json:"source_location_id,omitempty"`
	DestinationID *int64          `json:"destination_location_id,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	UOM           string          `json:"uom,omitempty"`
	MovementDate  time.Time       `json:"movement_date"`
	ValidatedBy   *int64          `json:"validated_by,omitempty"`
	ValidatedAt   *time.Time      `json:"validated_at,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedBy     *int64          `json:"created_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`

	// Denormalized for list views.
	ProductName     string `json:"product_name,omitempty"`
	ProductSKU      string `json:"product_sku,omitempty"`
	SourceName      string `json:"source_location_name,omitempty"`
	DestinationName string `json:"destination_location_name,omitempty"`
}

// MovementFilter narrows movement log queries.
type MovementFilter struct {
	Type       string
	ProductID  int64
	LocationID int64
	From       time.Time
	To         time.Time
	Limit      int
}
