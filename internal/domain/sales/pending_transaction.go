package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pharmaops/backend/internal/domain/shared"
)

// PendingTransaction is a sale that reserved inventory but has not been
// confirmed yet. It is identified to the customer by a short pickup code.
// A pending transaction is mutated in exactly two ways after creation:
// Finalize (the sale completed) or retirement by the reconciliation sweep
// (the sale was abandoned and its reservations are reclaimed).
type PendingTransaction struct {
	shared.PharmacyAggregateRoot
	ShortCode   string          `gorm:"type:varchar(16);index"`
	Finalized   bool            `gorm:"not null;default:false;index"`
	FinalizedAt *time.Time      `gorm:"type:timestamp"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	Items []TransactionItem `gorm:"foreignKey:TransactionID;references:ID"`
}

// TableName returns the table name for GORM
func (PendingTransaction) TableName() string {
	return "pending_transactions"
}

// TransactionItem is one reserved line of a pending transaction
type TransactionItem struct {
	shared.BaseEntity
	TransactionID uuid.UUID `gorm:"type:uuid;not null;index"`
	ResourceID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Quantity      int64     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TransactionItem) TableName() string {
	return "transaction_items"
}

// NewPendingTransaction creates a pending transaction holding the given
// reservations under a short pickup code
func NewPendingTransaction(
	pharmacyID, branchID uuid.UUID,
	shortCode string,
	totalAmount decimal.Decimal,
	items []TransactionItem,
) (*PendingTransaction, error) {
	if pharmacyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PHARMACY", "Pharmacy ID cannot be empty")
	}
	if branchID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BRANCH", "Branch ID cannot be empty")
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError("EMPTY_TRANSACTION", "A pending transaction must reserve at least one item")
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Reserved quantity must be positive")
		}
	}

	tx := &PendingTransaction{
		PharmacyAggregateRoot: shared.NewPharmacyAggregateRoot(pharmacyID, branchID),
		ShortCode:             shortCode,
		TotalAmount:           totalAmount,
		Items:                 items,
	}
	for i := range tx.Items {
		if tx.Items[i].ID == uuid.Nil {
			tx.Items[i].BaseEntity = shared.NewBaseEntity()
		}
		tx.Items[i].TransactionID = tx.ID
	}

	return tx, nil
}

// Finalize marks the sale as completed, which removes it from the
// reconciliation sweep's candidate set permanently
func (t *PendingTransaction) Finalize() error {
	if t.Finalized {
		return shared.ErrInvalidState
	}
	now := time.Now()
	t.Finalized = true
	t.FinalizedAt = &now
	t.UpdatedAt = now
	t.IncrementVersion()
	return nil
}

// HasShortCode reports whether the transaction carries a pickup code.
// Transactions without one are never subject to expiry.
func (t *PendingTransaction) HasShortCode() bool {
	return t.ShortCode != ""
}

// Age returns how long the transaction has been pending as of now
func (t *PendingTransaction) Age(now time.Time) time.Duration {
	return now.Sub(t.CreatedAt)
}
