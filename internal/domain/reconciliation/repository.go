package reconciliation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pharmaops/backend/internal/domain/identity"
)

// HistoryTotals aggregates past sweep results within a scope
type HistoryTotals struct {
	TotalRestored int64
	TotalValue    decimal.Decimal
	LastRunAt     *time.Time
}

// RunRecordRepository defines the interface for cleanup history persistence.
// History is append-only: there is no update or delete operation.
type RunRecordRepository interface {
	// Append inserts a new run record
	Append(ctx context.Context, record *CleanupRunRecord) error

	// AggregateTotals sums restored counts and values over records matching
	// the scope filter and reports the most recent run time. Scoping is a
	// read-time concern; automatic (globally attributed) records carry no
	// pharmacy/branch and so fall outside any tenant-scoped filter.
	AggregateTotals(ctx context.Context, scope identity.ScopeFilter) (*HistoryTotals, error)
}
