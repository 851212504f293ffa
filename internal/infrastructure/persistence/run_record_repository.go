package persistence

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pharmaops/backend/internal/domain/identity"
	"github.com/pharmaops/backend/internal/domain/reconciliation"
	"github.com/pharmaops/backend/internal/infrastructure/persistence/datascope"
)

// GormRunRecordRepository implements RunRecordRepository using GORM
type GormRunRecordRepository struct {
	db *gorm.DB
}

// NewGormRunRecordRepository creates a new GormRunRecordRepository
func NewGormRunRecordRepository(db *gorm.DB) *GormRunRecordRepository {
	return &GormRunRecordRepository{db: db}
}

// Append inserts a new run record. History is append-only; there is no
// update path.
func (r *GormRunRecordRepository) Append(ctx context.Context, record *reconciliation.CleanupRunRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// runRecordTotalsRow is the scan target for the aggregate query
type runRecordTotalsRow struct {
	TotalRestored int64
	TotalValue    decimal.Decimal
	LastRunAt     *time.Time
}

// AggregateTotals sums restored counts and values over records within the
// scope and reports the most recent run time. Globally attributed records
// carry NULL pharmacy/branch and so fall outside any tenant-scoped filter.
func (r *GormRunRecordRepository) AggregateTotals(ctx context.Context, scope identity.ScopeFilter) (*reconciliation.HistoryTotals, error) {
	var row runRecordTotalsRow
	query := datascope.Apply(
		r.db.WithContext(ctx).Model(&reconciliation.CleanupRunRecord{}),
		scope,
	)

	if err := query.
		Select("COALESCE(SUM(restored_count), 0) AS total_restored, COALESCE(SUM(restored_value), 0) AS total_value, MAX(created_at) AS last_run_at").
		Scan(&row).Error; err != nil {
		return nil, err
	}

	return &reconciliation.HistoryTotals{
		TotalRestored: row.TotalRestored,
		TotalValue:    row.TotalValue,
		LastRunAt:     row.LastRunAt,
	}, nil
}

// Ensure GormRunRecordRepository implements RunRecordRepository
var _ reconciliation.RunRecordRepository = (*GormRunRecordRepository)(nil)
