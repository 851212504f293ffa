package reconciliation

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pharmaops/backend/internal/domain/shared"
)

// RunMode says what triggered a cleanup sweep
type RunMode string

const (
	// RunModeManual is an operator-invoked sweep, bounded by the operator's
	// authorization scope
	RunModeManual RunMode = "manual"
	// RunModeAutomatic is the unattended periodic sweep, global by design
	RunModeAutomatic RunMode = "automatic"
)

// CleanupRunRecord is the append-only history entry written once per sweep
// that restored at least one transaction. Records are never mutated or
// deleted; tenant scoping is applied only when history is read.
//
// Automatic runs carry no pharmacy/branch attribution because they span
// every tenant; manual runs carry the operator's. Both columns are therefore
// nullable, unlike every other tenant-tagged table.
type CleanupRunRecord struct {
	shared.BaseEntity
	Mode          RunMode         `gorm:"type:varchar(16);not null;index"`
	TriggeredBy   *uuid.UUID      `gorm:"type:uuid"`
	RestoredCount int             `gorm:"not null"`
	RestoredValue decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PharmacyID    *uuid.UUID      `gorm:"type:uuid;index"`
	BranchID      *uuid.UUID      `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (CleanupRunRecord) TableName() string {
	return "cleanup_run_records"
}

// NewAutomaticRunRecord creates the history entry for an unattended sweep.
// No pharmacy/branch attribution: the sweep reclaimed across all tenants.
func NewAutomaticRunRecord(restoredCount int, restoredValue decimal.Decimal) *CleanupRunRecord {
	return &CleanupRunRecord{
		BaseEntity:    shared.NewBaseEntity(),
		Mode:          RunModeAutomatic,
		RestoredCount: restoredCount,
		RestoredValue: restoredValue,
	}
}

// NewManualRunRecord creates the history entry for an operator-invoked sweep,
// attributed to the operator and their pharmacy/branch. A nil triggeredBy
// keeps the manual mode but leaves the operator unattributed.
func NewManualRunRecord(
	triggeredBy *uuid.UUID,
	pharmacyID, branchID *uuid.UUID,
	restoredCount int,
	restoredValue decimal.Decimal,
) *CleanupRunRecord {
	return &CleanupRunRecord{
		BaseEntity:    shared.NewBaseEntity(),
		Mode:          RunModeManual,
		TriggeredBy:   triggeredBy,
		RestoredCount: restoredCount,
		RestoredValue: restoredValue,
		PharmacyID:    pharmacyID,
		BranchID:      branchID,
	}
}
