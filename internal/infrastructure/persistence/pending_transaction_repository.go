package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pharmaops/backend/internal/domain/identity"
	"github.com/pharmaops/backend/internal/domain/sales"
	"github.com/pharmaops/backend/internal/domain/shared"
	"github.com/pharmaops/backend/internal/infrastructure/persistence/datascope"
)

// GormPendingTransactionRepository implements PendingTransactionRepository
// using GORM
type GormPendingTransactionRepository struct {
	db *gorm.DB
}

// NewGormPendingTransactionRepository creates a new GormPendingTransactionRepository
func NewGormPendingTransactionRepository(db *gorm.DB) *GormPendingTransactionRepository {
	return &GormPendingTransactionRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormPendingTransactionRepository) WithTx(tx *gorm.DB) *GormPendingTransactionRepository {
	return &GormPendingTransactionRepository{db: tx}
}

// FindByID finds a pending transaction by its ID, items included
func (r *GormPendingTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.PendingTransaction, error) {
	var tx sales.PendingTransaction
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&tx, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Pending transaction not found")
		}
		return nil, err
	}
	return &tx, nil
}

// FindReclaimCandidates finds unfinalized transactions carrying a short code
// within the given scope, oldest first. Age filtering is left to the caller
// because the hold TTL varies per pharmacy.
func (r *GormPendingTransactionRepository) FindReclaimCandidates(ctx context.Context, scope identity.ScopeFilter) ([]sales.PendingTransaction, error) {
	var txs []sales.PendingTransaction
	query := datascope.Apply(
		r.db.WithContext(ctx).Model(&sales.PendingTransaction{}),
		scope,
	).Where("finalized = FALSE AND short_code <> ''")

	if err := query.
		Preload("Items").
		Order("created_at ASC").
		Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// Save creates or updates a pending transaction with its items
func (r *GormPendingTransactionRepository) Save(ctx context.Context, tx *sales.PendingTransaction) error {
	return r.db.WithContext(ctx).Save(tx).Error
}

// Retire deletes a pending transaction and its items. The delete is
// conditional on the parent row still existing, so overlapping sweeps cannot
// both claim the same transaction.
func (r *GormPendingTransactionRepository) Retire(ctx context.Context, id uuid.UUID) (bool, error) {
	claimed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&sales.PendingTransaction{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Already retired by a concurrent sweep
			return nil
		}
		claimed = true
		return tx.Delete(&sales.TransactionItem{}, "transaction_id = ?", id).Error
	})
	if err != nil {
		return false, err
	}
	return claimed, nil
}

// Ensure GormPendingTransactionRepository implements PendingTransactionRepository
var _ sales.PendingTransactionRepository = (*GormPendingTransactionRepository)(nil)
