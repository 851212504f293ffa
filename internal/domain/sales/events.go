package sales

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pharmaops/backend/internal/domain/shared"
)

// Event types for pending transactions
const (
	EventTypeTransactionFinalized  = "sales.transaction.finalized"
	EventTypeTransactionReconciled = "sales.transaction.reconciled"
)

// TransactionReconciledEvent is published when the reconciliation sweep
// restores a transaction's reservations and retires its record
type TransactionReconciledEvent struct {
	shared.BaseDomainEvent
	BranchID      uuid.UUID       `json:"branch_id"`
	ShortCode     string          `json:"short_code"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	ItemCount     int             `json:"item_count"`
	RestoredUnits int64           `json:"restored_units"`
}

// NewTransactionReconciledEvent creates a TransactionReconciledEvent
func NewTransactionReconciledEvent(tx *PendingTransaction) *TransactionReconciledEvent {
	var units int64
	for _, item := range tx.Items {
		units += item.Quantity
	}
	return &TransactionReconciledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeTransactionReconciled,
			"PendingTransaction",
			tx.ID,
			tx.PharmacyID,
		),
		BranchID:      tx.BranchID,
		ShortCode:     tx.ShortCode,
		TotalAmount:   tx.TotalAmount,
		ItemCount:     len(tx.Items),
		RestoredUnits: units,
	}
}

// TransactionFinalizedEvent is published when a pending sale is confirmed
type TransactionFinalizedEvent struct {
	shared.BaseDomainEvent
	BranchID    uuid.UUID       `json:"branch_id"`
	ShortCode   string          `json:"short_code"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewTransactionFinalizedEvent creates a TransactionFinalizedEvent
func NewTransactionFinalizedEvent(tx *PendingTransaction) *TransactionFinalizedEvent {
	return &TransactionFinalizedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeTransactionFinalized,
			"PendingTransaction",
			tx.ID,
			tx.PharmacyID,
		),
		BranchID:    tx.BranchID,
		ShortCode:   tx.ShortCode,
		TotalAmount: tx.TotalAmount,
	}
}
