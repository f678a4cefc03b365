package locations

import "time"

// Location types mirror how stock can sit inside or outside a warehouse.
const (
	TypeInternal = "internal"
	TypeTransit  = "transit"
	TypeCustomer = "customer"
	TypeSupplier = "supplier"
)

// ValidType reports whether t is a known location type.
func ValidType(t string) bool {
	switch t {
	case TypeInternal, TypeTransit, TypeCustomer, TypeSupplier:
		return true
	}
	return false
}

// Location is a storage spot, either inside a warehouse or a virtual
// counterpart (customer, supplier, transit).
type Location struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	WarehouseID *int64    `json:"warehouse_id,omitempty"`
	ParentID    *int64    `json:"parent_id,omitempty"`
	Barcode     string    `json:"barcode,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Denormalized for list and detail views.
	WarehouseName string `json:"warehouse_name,omitempty"`
	ParentName    string `json:"parent_name,omitempty"`
}
