package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmaops/backend/internal/domain/inventory"
	"github.com/pharmaops/backend/internal/domain/shared"
)

// GormInventoryItemRepository implements InventoryItemRepository using GORM
type GormInventoryItemRepository struct {
	db *gorm.DB
}

// NewGormInventoryItemRepository creates a new GormInventoryItemRepository
func NewGormInventoryItemRepository(db *gorm.DB) *GormInventoryItemRepository {
	return &GormInventoryItemRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormInventoryItemRepository) WithTx(tx *gorm.DB) *GormInventoryItemRepository {
	return &GormInventoryItemRepository{db: tx}
}

// FindByResource finds the inventory record for a resource at a branch
func (r *GormInventoryItemRepository) FindByResource(ctx context.Context, pharmacyID, branchID, resourceID uuid.UUID) (*inventory.InventoryItem, error) {
	var item inventory.InventoryItem
	if err := r.db.WithContext(ctx).
		Where("pharmacy_id = ? AND branch_id = ? AND resource_id = ?", pharmacyID, branchID, resourceID).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Inventory record not found")
		}
		return nil, err
	}
	return &item, nil
}

// IncrementQuantity atomically adds qty to the matching inventory record.
// The increment happens in SQL so concurrent sweeps never lose an update.
func (r *GormInventoryItemRepository) IncrementQuantity(ctx context.Context, pharmacyID, branchID, resourceID uuid.UUID, qty int64) error {
	result := r.db.WithContext(ctx).
		Model(&inventory.InventoryItem{}).
		Where("pharmacy_id = ? AND branch_id = ? AND resource_id = ?", pharmacyID, branchID, resourceID).
		Update("quantity", gorm.Expr("quantity + ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Save creates or updates an inventory record
func (r *GormInventoryItemRepository) Save(ctx context.Context, item *inventory.InventoryItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// Ensure GormInventoryItemRepository implements InventoryItemRepository
var _ inventory.InventoryItemRepository = (*GormInventoryItemRepository)(nil)
