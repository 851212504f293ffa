package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pharmaops/backend/internal/domain/settings"
	"github.com/pharmaops/backend/internal/domain/shared"
)

// GormPharmacySettingsRepository implements PharmacySettingsRepository using GORM
type GormPharmacySettingsRepository struct {
	db *gorm.DB
}

// NewGormPharmacySettingsRepository creates a new GormPharmacySettingsRepository
func NewGormPharmacySettingsRepository(db *gorm.DB) *GormPharmacySettingsRepository {
	return &GormPharmacySettingsRepository{db: db}
}

// FindByPharmacy finds the settings row for a pharmacy
func (r *GormPharmacySettingsRepository) FindByPharmacy(ctx context.Context, pharmacyID uuid.UUID) (*settings.PharmacySettings, error) {
	var s settings.PharmacySettings
	if err := r.db.WithContext(ctx).
		Where("pharmacy_id = ?", pharmacyID).
		First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Pharmacy settings not found")
		}
		return nil, err
	}
	return &s, nil
}

// Save upserts a pharmacy's settings, keyed by the pharmacy rather than the
// row ID so repeated saves from different nodes converge on one row
func (r *GormPharmacySettingsRepository) Save(ctx context.Context, s *settings.PharmacySettings) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pharmacy_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"short_code_enabled", "hold_ttl_minutes", "updated_at"}),
		}).
		Create(s).Error
}

// Ensure GormPharmacySettingsRepository implements PharmacySettingsRepository
var _ settings.PharmacySettingsRepository = (*GormPharmacySettingsRepository)(nil)
