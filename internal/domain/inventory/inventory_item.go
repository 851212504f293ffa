package inventory

import (
	"github.com/google/uuid"

	"github.com/pharmaops/backend/internal/domain/shared"
)

// InventoryItem tracks the on-hand quantity of one resource at one branch.
// Quantity is decremented when a sale reserves stock and incremented when
// the reconciliation sweep restores an abandoned reservation; it never goes
// negative.
type InventoryItem struct {
	shared.PharmacyAggregateRoot
	ResourceID uuid.UUID `gorm:"type:uuid;not null;index"`
	Quantity   int64     `gorm:"not null;default:0;check:quantity >= 0"`
}

// TableName returns the table name for GORM
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// NewInventoryItem creates an inventory record for a resource at a branch
func NewInventoryItem(pharmacyID, branchID, resourceID uuid.UUID, quantity int64) (*InventoryItem, error) {
	if resourceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RESOURCE", "Resource ID cannot be empty")
	}
	if quantity < 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	return &InventoryItem{
		PharmacyAggregateRoot: shared.NewPharmacyAggregateRoot(pharmacyID, branchID),
		ResourceID:            resourceID,
		Quantity:              quantity,
	}, nil
}
