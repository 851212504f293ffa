package reconciliation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pharmaops/backend/internal/application/settings"
	"github.com/pharmaops/backend/internal/domain/identity"
	"github.com/pharmaops/backend/internal/domain/reconciliation"
	"github.com/pharmaops/backend/internal/domain/sales"
)

// ReconciliationStats is the point-in-time view over live-eligible
// candidates and past sweep history
type ReconciliationStats struct {
	CurrentlyExpiredCount   int             `json:"currently_expired_count"`
	CurrentlyExpiredValue   decimal.Decimal `json:"currently_expired_value"`
	OldestExpiredAt         *time.Time      `json:"oldest_expired_at,omitempty"`
	HistoricalTotalRestored int64           `json:"historical_total_restored"`
	HistoricalTotalValue    decimal.Decimal `json:"historical_total_value"`
	LastRunAt               *time.Time      `json:"last_run_at,omitempty"`
}

// StatsService reports on reconciliation state without mutating anything.
// It scopes its queries exactly the way manual sweeps do.
type StatsService struct {
	txRepo      sales.PendingTransactionRepository
	historyRepo reconciliation.RunRecordRepository
	settings    settings.Provider
	logger      *zap.Logger
}

// NewStatsService creates a StatsService
func NewStatsService(
	txRepo sales.PendingTransactionRepository,
	historyRepo reconciliation.RunRecordRepository,
	settingsProvider settings.Provider,
	logger *zap.Logger,
) *StatsService {
	return &StatsService{
		txRepo:      txRepo,
		historyRepo: historyRepo,
		settings:    settingsProvider,
		logger:      logger,
	}
}

// GetStats returns reconciliation statistics. With a tenant context the view
// is branch-scoped through the same resolver the cleanup engine uses; with
// nil the view is system-wide.
//
// A pharmacy with the expiry feature disabled reports zero live figures, but
// its history from sweeps run while the feature was enabled stays visible.
func (s *StatsService) GetStats(ctx context.Context, tenant *identity.TenantContext) (*ReconciliationStats, error) {
	stats := &ReconciliationStats{
		CurrentlyExpiredValue: decimal.Zero,
		HistoricalTotalValue:  decimal.Zero,
	}

	scope := identity.ScopeFilter{}
	if tenant != nil {
		scope = identity.ResolveScope(*tenant, identity.ScopeBranchLevel)
	}

	totals, err := s.historyRepo.AggregateTotals(ctx, scope)
	if err != nil {
		s.logger.Error("Failed to aggregate cleanup history", zap.Error(err))
		return nil, err
	}
	stats.HistoricalTotalRestored = totals.TotalRestored
	stats.HistoricalTotalValue = totals.TotalValue
	stats.LastRunAt = totals.LastRunAt

	// Scoped view of a feature-disabled pharmacy: live figures are zero by
	// definition, skip the candidate query entirely.
	if tenant != nil && tenant.PharmacyID != nil {
		st, err := s.settings.ForPharmacy(ctx, *tenant.PharmacyID)
		if err != nil {
			return nil, err
		}
		if !st.ShortCodeEnabled {
			return stats, nil
		}
	}

	candidates, err := s.txRepo.FindReclaimCandidates(ctx, scope)
	if err != nil {
		s.logger.Error("Failed to query reclaim candidates for stats", zap.Error(err))
		return nil, err
	}

	now := time.Now()
	for i := range candidates {
		tx := &candidates[i]

		st, err := s.settings.ForPharmacy(ctx, tx.PharmacyID)
		if err != nil {
			s.logger.Warn("Could not resolve settings for candidate, excluding from stats",
				zap.String("transaction_id", tx.ID.String()),
				zap.String("pharmacy_id", tx.PharmacyID.String()),
				zap.Error(err),
			)
			continue
		}
		if !st.ShortCodeEnabled {
			continue
		}
		if !sales.IsExpired(tx, st.HoldTTL(), now) {
			continue
		}

		stats.CurrentlyExpiredCount++
		stats.CurrentlyExpiredValue = stats.CurrentlyExpiredValue.Add(tx.TotalAmount)
		if stats.OldestExpiredAt == nil || tx.CreatedAt.Before(*stats.OldestExpiredAt) {
			createdAt := tx.CreatedAt
			stats.OldestExpiredAt = &createdAt
		}
	}

	return stats, nil
}
