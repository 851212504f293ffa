package settings

import (
	"context"

	"github.com/google/uuid"
)

// PharmacySettingsRepository defines the interface for settings persistence
type PharmacySettingsRepository interface {
	// FindByPharmacy finds the settings row for a pharmacy.
	// Returns shared.ErrNotFound when the pharmacy never configured any.
	FindByPharmacy(ctx context.Context, pharmacyID uuid.UUID) (*PharmacySettings, error)

	// Save creates or updates a pharmacy's settings
	Save(ctx context.Context, s *PharmacySettings) error
}
