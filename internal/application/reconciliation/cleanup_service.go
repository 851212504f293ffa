package reconciliation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pharmaops/backend/internal/application/settings"
	"github.com/pharmaops/backend/internal/domain/identity"
	"github.com/pharmaops/backend/internal/domain/inventory"
	"github.com/pharmaops/backend/internal/domain/reconciliation"
	"github.com/pharmaops/backend/internal/domain/sales"
	"github.com/pharmaops/backend/internal/domain/shared"
	"github.com/pharmaops/backend/internal/infrastructure/telemetry"
)

// CleanupService reclaims inventory reserved by abandoned pending
// transactions. One call is one sweep: find eligible candidates within a
// scope, restore each candidate's reservations, retire the candidate, and
// append a history record.
//
// Sweeps may overlap (the periodic trigger and an operator can run
// concurrently). Each candidate is retired with a conditional delete
// immediately after its items are restored, so a candidate claimed by one
// sweep disappears from the other's view; the loser of the race treats the
// missed claim as a no-op.
type CleanupService struct {
	txRepo        sales.PendingTransactionRepository
	inventoryRepo inventory.InventoryItemRepository
	historyRepo   reconciliation.RunRecordRepository
	settings      settings.Provider
	eventBus      shared.EventBus
	logger        *zap.Logger
}

// NewCleanupService creates a CleanupService. eventBus may be nil.
func NewCleanupService(
	txRepo sales.PendingTransactionRepository,
	inventoryRepo inventory.InventoryItemRepository,
	historyRepo reconciliation.RunRecordRepository,
	settingsProvider settings.Provider,
	eventBus shared.EventBus,
	logger *zap.Logger,
) *CleanupService {
	return &CleanupService{
		txRepo:        txRepo,
		inventoryRepo: inventoryRepo,
		historyRepo:   historyRepo,
		settings:      settingsProvider,
		eventBus:      eventBus,
		logger:        logger,
	}
}

// RunInput describes one sweep invocation
type RunInput struct {
	Mode reconciliation.RunMode
	// TriggeredBy identifies the operator for manual runs
	TriggeredBy *uuid.UUID
	// Tenant is the operator context for manual runs; nil for automatic runs
	Tenant *identity.TenantContext
}

// RunSummary aggregates one sweep's outcome
type RunSummary struct {
	RestoredCount int             `json:"restored_count"`
	TotalValue    decimal.Decimal `json:"total_value"`
	SkippedCount  int             `json:"skipped_count"`
	ProcessedAt   time.Time       `json:"processed_at"`
}

// Run executes one cleanup sweep.
//
// Automatic runs sweep unrestricted: the background trigger is unattended
// and exists for global hygiene across every tenant. Manual runs resolve a
// branch-level scope from the operator context, so a human can only reclaim
// within their own authorization boundary.
//
// Store connectivity failures on the candidate query abort the run with no
// partial aggregate. Failures on a single candidate or line item are logged
// and skipped; the returned summary reflects only successes.
func (s *CleanupService) Run(ctx context.Context, input RunInput) (*RunSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cleanup", "sweep",
		telemetry.WithAttribute(telemetry.SpanAttrRunMode, string(input.Mode)),
	)
	defer span.End()

	summary := &RunSummary{
		TotalValue:  decimal.Zero,
		ProcessedAt: time.Now(),
	}

	scope := identity.ScopeFilter{}
	if input.Mode == reconciliation.RunModeManual {
		if input.Tenant == nil {
			return nil, shared.ErrMissingContext
		}
		scope = identity.ResolveScope(*input.Tenant, identity.ScopeBranchLevel)

		// An operator whose pharmacy has the expiry feature switched off
		// gets an empty sweep, not an error.
		if input.Tenant.PharmacyID != nil {
			st, err := s.settings.ForPharmacy(ctx, *input.Tenant.PharmacyID)
			if err != nil {
				return nil, err
			}
			if !st.ShortCodeEnabled {
				s.logger.Info("Expiry feature disabled for pharmacy, nothing to reclaim",
					zap.String("pharmacy_id", input.Tenant.PharmacyID.String()),
				)
				return summary, nil
			}
		}
	}

	candidates, err := s.txRepo.FindReclaimCandidates(ctx, scope)
	if err != nil {
		s.logger.Error("Failed to query reclaim candidates",
			zap.String("mode", string(input.Mode)),
			zap.Error(err),
		)
		telemetry.RecordError(span, err)
		return nil, err
	}

	if len(candidates) == 0 {
		s.logger.Debug("No reclaim candidates found", zap.String("mode", string(input.Mode)))
		return summary, nil
	}

	now := time.Now()
	for i := range candidates {
		tx := &candidates[i]

		st, err := s.settings.ForPharmacy(ctx, tx.PharmacyID)
		if err != nil {
			s.logger.Warn("Could not resolve settings for candidate, skipping",
				zap.String("transaction_id", tx.ID.String()),
				zap.String("pharmacy_id", tx.PharmacyID.String()),
				zap.Error(err),
			)
			summary.SkippedCount++
			continue
		}
		if !st.ShortCodeEnabled {
			continue
		}
		if !sales.IsExpired(tx, st.HoldTTL(), now) {
			continue
		}

		if !s.reconcile(ctx, tx) {
			summary.SkippedCount++
			continue
		}
		summary.RestoredCount++
		summary.TotalValue = summary.TotalValue.Add(tx.TotalAmount)
	}

	s.logger.Info("Completed cleanup sweep",
		zap.String("mode", string(input.Mode)),
		zap.Int("candidates", len(candidates)),
		zap.Int("restored", summary.RestoredCount),
		zap.Int("skipped", summary.SkippedCount),
		zap.String("total_value", summary.TotalValue.String()),
	)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrRestoredCount, summary.RestoredCount,
		telemetry.SpanAttrSkippedCount, summary.SkippedCount,
		telemetry.SpanAttrAmount, summary.TotalValue.String(),
	)

	if summary.RestoredCount > 0 {
		s.appendRunRecord(ctx, input, summary)
	}

	return summary, nil
}

// reconcile restores one candidate's reservations and retires it. Returns
// false when the candidate was skipped, either because an item failed to
// restore or because a concurrent sweep claimed it first.
func (s *CleanupService) reconcile(ctx context.Context, tx *sales.PendingTransaction) bool {
	failedItems := 0
	for _, item := range tx.Items {
		err := s.inventoryRepo.IncrementQuantity(ctx, tx.PharmacyID, tx.BranchID, item.ResourceID, item.Quantity)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				s.logger.Warn("Inventory record missing for reserved item",
					zap.String("transaction_id", tx.ID.String()),
					zap.String("resource_id", item.ResourceID.String()),
					zap.Int64("quantity", item.Quantity),
				)
			} else {
				s.logger.Warn("Failed to restore reserved item",
					zap.String("transaction_id", tx.ID.String()),
					zap.String("resource_id", item.ResourceID.String()),
					zap.Int64("quantity", item.Quantity),
					zap.Error(err),
				)
			}
			failedItems++
		}
	}

	// A transaction whose items only partially restored is left pending for
	// a later sweep rather than retired with inventory unrecovered.
	if failedItems > 0 {
		s.logger.Warn("Leaving transaction for a later sweep after restoration failures",
			zap.String("transaction_id", tx.ID.String()),
			zap.Int("failed_items", failedItems),
			zap.Int("total_items", len(tx.Items)),
		)
		return false
	}

	claimed, err := s.txRepo.Retire(ctx, tx.ID)
	if err != nil {
		s.logger.Error("Failed to retire reconciled transaction",
			zap.String("transaction_id", tx.ID.String()),
			zap.Error(err),
		)
		return false
	}
	if !claimed {
		s.logger.Debug("Transaction already retired by a concurrent sweep",
			zap.String("transaction_id", tx.ID.String()),
		)
		return false
	}

	if s.eventBus != nil {
		event := sales.NewTransactionReconciledEvent(tx)
		if err := s.eventBus.Publish(ctx, event); err != nil {
			s.logger.Warn("Failed to publish TransactionReconciled event",
				zap.String("transaction_id", tx.ID.String()),
				zap.Error(err),
			)
			// The reclaim already happened; event delivery is best effort
		}
	}

	telemetry.AddEvent(telemetry.SpanFromContext(ctx), "transaction_reconciled",
		telemetry.SpanAttrTransactionID, tx.ID.String(),
		telemetry.SpanAttrShortCode, tx.ShortCode,
	)

	s.logger.Debug("Reconciled abandoned transaction",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("short_code", tx.ShortCode),
		zap.String("pharmacy_id", tx.PharmacyID.String()),
		zap.String("branch_id", tx.BranchID.String()),
		zap.String("total_amount", tx.TotalAmount.String()),
	)

	return true
}

// appendRunRecord writes the sweep's history entry. Automatic runs are
// attributed globally; manual runs carry the operator's pharmacy/branch.
func (s *CleanupService) appendRunRecord(ctx context.Context, input RunInput, summary *RunSummary) {
	var record *reconciliation.CleanupRunRecord
	if input.Mode == reconciliation.RunModeManual {
		var pharmacyID, branchID *uuid.UUID
		if input.Tenant != nil {
			pharmacyID = input.Tenant.PharmacyID
			branchID = input.Tenant.BranchID
		}
		record = reconciliation.NewManualRunRecord(input.TriggeredBy, pharmacyID, branchID, summary.RestoredCount, summary.TotalValue)
	} else {
		record = reconciliation.NewAutomaticRunRecord(summary.RestoredCount, summary.TotalValue)
	}

	if err := s.historyRepo.Append(ctx, record); err != nil {
		// Inventory was already restored; a lost history entry must not fail
		// the sweep, but it has to be visible in logs.
		s.logger.Error("Failed to append cleanup run record",
			zap.String("mode", string(input.Mode)),
			zap.Int("restored", summary.RestoredCount),
			zap.Error(err),
		)
	}
}
