package sales

import (
	"context"

	"github.com/google/uuid"

	"github.com/pharmaops/backend/internal/domain/identity"
)

// PendingTransactionRepository defines the interface for pending transaction
// persistence
type PendingTransactionRepository interface {
	// FindByID finds a pending transaction by its ID, items included
	FindByID(ctx context.Context, id uuid.UUID) (*PendingTransaction, error)

	// FindReclaimCandidates finds unfinalized transactions that carry a short
	// code, restricted by the scope filter, items included. Age filtering is
	// left to the caller because the hold TTL varies per pharmacy.
	FindReclaimCandidates(ctx context.Context, scope identity.ScopeFilter) ([]PendingTransaction, error)

	// Save creates or updates a pending transaction with its items
	Save(ctx context.Context, tx *PendingTransaction) error

	// Retire deletes a pending transaction and its items. The deletion is
	// conditional on the row still existing: claimed=false means another
	// sweep retired it first, which callers treat as a no-op rather than an
	// error.
	Retire(ctx context.Context, id uuid.UUID) (claimed bool, err error)
}
