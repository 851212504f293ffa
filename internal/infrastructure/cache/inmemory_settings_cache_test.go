package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaops/backend/internal/domain/settings"
)

func TestInMemorySettingsCache_GetSet(t *testing.T) {
	c := NewInMemorySettingsCache()
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	pharmacyID := uuid.New()

	cached, err := c.Get(ctx, pharmacyID)
	require.NoError(t, err)
	assert.Nil(t, cached, "miss before set")

	s, err := settings.NewPharmacySettings(pharmacyID, true, 30)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, s))

	cached, err = c.Get(ctx, pharmacyID)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, pharmacyID, cached.PharmacyID)
	assert.Equal(t, 30, cached.HoldTTLMinutes)

	hits, misses := c.Stats()
	assert.EqualValues(t, 1, hits)
	assert.EqualValues(t, 1, misses)
}

func TestInMemorySettingsCache_Expiry(t *testing.T) {
	c := NewInMemorySettingsCache(WithInMemoryConfig(settings.CacheConfig{TTL: 10 * time.Millisecond}))
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	s, err := settings.NewPharmacySettings(uuid.New(), true, 15)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, s))

	time.Sleep(20 * time.Millisecond)

	cached, err := c.Get(ctx, s.PharmacyID)
	require.NoError(t, err)
	assert.Nil(t, cached, "entry expired")
}

func TestInMemorySettingsCache_Invalidate(t *testing.T) {
	c := NewInMemorySettingsCache()
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	s, err := settings.NewPharmacySettings(uuid.New(), false, 15)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, s))
	require.NoError(t, c.Invalidate(ctx, s.PharmacyID))

	cached, err := c.Get(ctx, s.PharmacyID)
	require.NoError(t, err)
	assert.Nil(t, cached)
}
