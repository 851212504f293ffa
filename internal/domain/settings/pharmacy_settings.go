package settings

import (
	"time"

	"github.com/google/uuid"

	"github.com/pharmaops/backend/internal/domain/shared"
)

// DefaultHoldTTLMinutes is the hold TTL applied when a pharmacy has not
// configured its own
const DefaultHoldTTLMinutes = 15

// PharmacySettings holds the per-pharmacy reconciliation configuration.
// When ShortCodeEnabled is false the expiry feature is off for that
// pharmacy: nothing it owns is ever eligible for cleanup, though history
// from earlier sweeps remains visible.
type PharmacySettings struct {
	shared.BaseEntity
	PharmacyID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	ShortCodeEnabled bool      `gorm:"not null;default:true"`
	HoldTTLMinutes   int       `gorm:"not null;default:15"`
}

// TableName returns the table name for GORM
func (PharmacySettings) TableName() string {
	return "pharmacy_settings"
}

// NewPharmacySettings creates settings for a pharmacy
func NewPharmacySettings(pharmacyID uuid.UUID, shortCodeEnabled bool, holdTTLMinutes int) (*PharmacySettings, error) {
	if pharmacyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PHARMACY", "Pharmacy ID cannot be empty")
	}
	if holdTTLMinutes <= 0 {
		holdTTLMinutes = DefaultHoldTTLMinutes
	}
	return &PharmacySettings{
		BaseEntity:       shared.NewBaseEntity(),
		PharmacyID:       pharmacyID,
		ShortCodeEnabled: shortCodeEnabled,
		HoldTTLMinutes:   holdTTLMinutes,
	}, nil
}

// DefaultSettings returns the settings applied to a pharmacy that has not
// configured any
func DefaultSettings(pharmacyID uuid.UUID) *PharmacySettings {
	return &PharmacySettings{
		BaseEntity:       shared.NewBaseEntity(),
		PharmacyID:       pharmacyID,
		ShortCodeEnabled: true,
		HoldTTLMinutes:   DefaultHoldTTLMinutes,
	}
}

// HoldTTL returns the hold TTL as a duration
func (s *PharmacySettings) HoldTTL() time.Duration {
	return time.Duration(s.HoldTTLMinutes) * time.Minute
}
