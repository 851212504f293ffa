package inventory

import (
	"context"

	"github.com/google/uuid"
)

// InventoryItemRepository defines the interface for inventory persistence
type InventoryItemRepository interface {
	// FindByResource finds the inventory record for a resource at a branch
	FindByResource(ctx context.Context, pharmacyID, branchID, resourceID uuid.UUID) (*InventoryItem, error)

	// IncrementQuantity atomically adds qty to the matching inventory record.
	// Returns shared.ErrNotFound if no record exists for the resource at the
	// branch; the caller decides whether that is recoverable.
	IncrementQuantity(ctx context.Context, pharmacyID, branchID, resourceID uuid.UUID, qty int64) error

	// Save creates or updates an inventory record
	Save(ctx context.Context, item *InventoryItem) error
}
