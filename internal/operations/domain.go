package operations

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wareline/wareline/internal/shared"
)

// DocumentType is a closed enumeration of the four operation documents.
type DocumentType string

const (
	TypeReceipt    DocumentType = "receipt"
	TypeDelivery   DocumentType = "delivery"
	TypeTransfer   DocumentType = "transfer"
	TypeAdjustment DocumentType = "adjustment"
)

// ParseType validates a document type coming from a route or storage.
func ParseType(s string) (DocumentType, error) {
	switch DocumentType(s) {
	case TypeReceipt, TypeDelivery, TypeTransfer, TypeAdjustment:
		return DocumentType(s), nil
	}
	return "", fmt.Errorf("%w: unknown document type %q", shared.ErrValidation, s)
}

// Prefix returns the document number prefix, e.g. "REC" for receipts.
func (t DocumentType) Prefix() string {
	switch t {
	case TypeReceipt:
		return "REC"
	case TypeDelivery:
		return "DEL"
	case TypeTransfer:
		return "TRF"
	case TypeAdjustment:
		return "ADJ"
	}
	return ""
}

// Document lifecycle statuses. There are exactly two: a draft is fully
// mutable, a validated document and its lines are immutable.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusValidated Status = "validated"
)

// Document is one operation document header with its lines.
type Document struct {
	ID     int64        `json:"id"`
	Number string       `json:"number"`
	Type   DocumentType `json:"type"`
	Status Status       `json:"status"`

	// PartnerName holds the supplier name on receipts and the customer
	// name on deliveries.
	PartnerName string `json:"partner_name,omitempty"`

	SourceID      *int64 `json:"source_location_key,omitempty"`
	DestinationID *int64 `json:"destination_location_key,omitempty"`
	// LocationID is the counted location on adjustments.
	LocationID *int64 `json:"location_key,omitempty"`

	Date        time.Time  `json:"date"`
	Notes       string     `json:"notes,omitempty"`
	CreatedBy   int64      `json:"created_by"`
	ValidatedBy *int64     `json:"validated_by,omitempty"`
	ValidatedAt *time.Time `json:"validated_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Lines []Line `json:"lines"`

	// Denormalized for list and detail views.
	SourceName      string `json:"source_location_name,omitempty"`
	DestinationName string `json:"destination_location_name,omitempty"`
	LocationName    string `json:"location_name,omitempty"`
	CreatorName     string `json:"creator_name,omitempty"`
}

// Line is one document line. Quantity carries the moved amount on receipts,
// deliveries and transfers. On adjustments CountedQuantity is the physical
// count; SystemQuantity and Difference are snapshotted at validation.
type Line struct {
	ID              int64           `json:"id"`
	DocumentID      int64           `json:"-"`
	ProductID       int64           `json:"product_key"`
	Quantity        decimal.Decimal `json:"quantity"`
	CountedQuantity decimal.Decimal `json:"counted_quantity"`
	SystemQuantity  decimal.Decimal `json:"system_quantity"`
	Difference      decimal.Decimal `json:"difference"`

	ProductName string `json:"product_name,omitempty"`
	ProductSKU  string `json:"product_sku,omitempty"`
	ProductUOM  string `json:"uom,omitempty"`
}

// FormatNumber renders a document number such as REC-00042.
func FormatNumber(t DocumentType, seq int64) string {
	return fmt.Sprintf("%s-%05d", t.Prefix(), seq)
}
