package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pharmaops/backend/internal/domain/settings"
	"github.com/pharmaops/backend/internal/domain/shared"
)

// MockPharmacySettingsRepository is a mock implementation of PharmacySettingsRepository
type MockPharmacySettingsRepository struct {
	mock.Mock
}

func (m *MockPharmacySettingsRepository) FindByPharmacy(ctx context.Context, pharmacyID uuid.UUID) (*settings.PharmacySettings, error) {
	args := m.Called(ctx, pharmacyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settings.PharmacySettings), args.Error(1)
}

func (m *MockPharmacySettingsRepository) Save(ctx context.Context, s *settings.PharmacySettings) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

// MockSettingsCache is a mock implementation of settings.Cache
type MockSettingsCache struct {
	mock.Mock
}

func (m *MockSettingsCache) Get(ctx context.Context, pharmacyID uuid.UUID) (*settings.PharmacySettings, error) {
	args := m.Called(ctx, pharmacyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settings.PharmacySettings), args.Error(1)
}

func (m *MockSettingsCache) Set(ctx context.Context, s *settings.PharmacySettings) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSettingsCache) Invalidate(ctx context.Context, pharmacyID uuid.UUID) error {
	args := m.Called(ctx, pharmacyID)
	return args.Error(0)
}

func (m *MockSettingsCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestService_ForPharmacy_CacheHit(t *testing.T) {
	repo := new(MockPharmacySettingsRepository)
	settingsCache := new(MockSettingsCache)
	service := NewService(repo, settingsCache, zap.NewNop())

	pharmacyID := uuid.New()
	cached, _ := settings.NewPharmacySettings(pharmacyID, true, 30)
	settingsCache.On("Get", mock.Anything, pharmacyID).Return(cached, nil)

	got, err := service.ForPharmacy(context.Background(), pharmacyID)

	require.NoError(t, err)
	assert.Equal(t, cached, got)
	repo.AssertNotCalled(t, "FindByPharmacy")
}

func TestService_ForPharmacy_MissFallsThroughAndCaches(t *testing.T) {
	repo := new(MockPharmacySettingsRepository)
	settingsCache := new(MockSettingsCache)
	service := NewService(repo, settingsCache, zap.NewNop())

	pharmacyID := uuid.New()
	stored, _ := settings.NewPharmacySettings(pharmacyID, false, 45)
	settingsCache.On("Get", mock.Anything, pharmacyID).Return(nil, nil)
	repo.On("FindByPharmacy", mock.Anything, pharmacyID).Return(stored, nil)
	settingsCache.On("Set", mock.Anything, stored).Return(nil)

	got, err := service.ForPharmacy(context.Background(), pharmacyID)

	require.NoError(t, err)
	assert.Equal(t, stored, got)
	settingsCache.AssertExpectations(t)
}

func TestService_ForPharmacy_UnconfiguredPharmacyGetsDefaults(t *testing.T) {
	repo := new(MockPharmacySettingsRepository)
	service := NewService(repo, nil, zap.NewNop())

	pharmacyID := uuid.New()
	repo.On("FindByPharmacy", mock.Anything, pharmacyID).Return(nil, shared.ErrNotFound)

	got, err := service.ForPharmacy(context.Background(), pharmacyID)

	require.NoError(t, err)
	assert.True(t, got.ShortCodeEnabled)
	assert.Equal(t, settings.DefaultHoldTTLMinutes, got.HoldTTLMinutes)
}

func TestService_ForPharmacy_StoreErrorPropagates(t *testing.T) {
	repo := new(MockPharmacySettingsRepository)
	service := NewService(repo, nil, zap.NewNop())

	pharmacyID := uuid.New()
	repo.On("FindByPharmacy", mock.Anything, pharmacyID).Return(nil, errors.New("connection refused"))

	_, err := service.ForPharmacy(context.Background(), pharmacyID)

	assert.Error(t, err)
}

func TestService_ForPharmacy_CacheErrorDegradesToStore(t *testing.T) {
	repo := new(MockPharmacySettingsRepository)
	settingsCache := new(MockSettingsCache)
	service := NewService(repo, settingsCache, zap.NewNop())

	pharmacyID := uuid.New()
	stored, _ := settings.NewPharmacySettings(pharmacyID, true, 15)
	settingsCache.On("Get", mock.Anything, pharmacyID).Return(nil, errors.New("redis down"))
	repo.On("FindByPharmacy", mock.Anything, pharmacyID).Return(stored, nil)
	settingsCache.On("Set", mock.Anything, stored).Return(errors.New("redis down"))

	got, err := service.ForPharmacy(context.Background(), pharmacyID)

	require.NoError(t, err)
	assert.Equal(t, stored, got)
}

func TestService_Update_InvalidatesCache(t *testing.T) {
	repo := new(MockPharmacySettingsRepository)
	settingsCache := new(MockSettingsCache)
	service := NewService(repo, settingsCache, zap.NewNop())

	updated, _ := settings.NewPharmacySettings(uuid.New(), false, 20)
	repo.On("Save", mock.Anything, updated).Return(nil)
	settingsCache.On("Invalidate", mock.Anything, updated.PharmacyID).Return(nil)

	require.NoError(t, service.Update(context.Background(), updated))
	settingsCache.AssertExpectations(t)
}
