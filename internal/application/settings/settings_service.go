package settings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pharmaops/backend/internal/domain/settings"
	"github.com/pharmaops/backend/internal/domain/shared"
)

// Provider resolves the effective reconciliation settings for a pharmacy
type Provider interface {
	// ForPharmacy returns the pharmacy's settings, falling back to platform
	// defaults when the pharmacy never configured any
	ForPharmacy(ctx context.Context, pharmacyID uuid.UUID) (*settings.PharmacySettings, error)
}

// Service resolves pharmacy settings through a cache in front of the
// settings store
type Service struct {
	repo   settings.PharmacySettingsRepository
	cache  settings.Cache
	logger *zap.Logger
}

// NewService creates a settings service. cache may be nil, in which case
// every lookup hits the store.
func NewService(repo settings.PharmacySettingsRepository, cache settings.Cache, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// ForPharmacy returns the pharmacy's settings, falling back to platform
// defaults when the pharmacy never configured any. Cache failures degrade
// to store reads.
func (s *Service) ForPharmacy(ctx context.Context, pharmacyID uuid.UUID) (*settings.PharmacySettings, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, pharmacyID)
		if err != nil {
			s.logger.Warn("Settings cache read failed, falling through to store",
				zap.String("pharmacy_id", pharmacyID.String()),
				zap.Error(err),
			)
		} else if cached != nil {
			return cached, nil
		}
	}

	found, err := s.repo.FindByPharmacy(ctx, pharmacyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			found = settings.DefaultSettings(pharmacyID)
		} else {
			return nil, err
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, found); err != nil {
			s.logger.Warn("Settings cache write failed",
				zap.String("pharmacy_id", pharmacyID.String()),
				zap.Error(err),
			)
		}
	}

	return found, nil
}

// Update saves a pharmacy's settings and invalidates the cached entry
func (s *Service) Update(ctx context.Context, updated *settings.PharmacySettings) error {
	if err := s.repo.Save(ctx, updated); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, updated.PharmacyID); err != nil {
			s.logger.Warn("Settings cache invalidation failed",
				zap.String("pharmacy_id", updated.PharmacyID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}
