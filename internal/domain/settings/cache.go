package settings

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Cache caches pharmacy settings lookups. The automatic sweep spans every
// tenant and consults settings once per candidate pharmacy, so settings
// reads are the hottest path in the reconciliation engine. A (nil, nil)
// return is a cache miss; errors are infrastructure failures the caller may
// ignore in favor of the source of truth.
type Cache interface {
	// Get retrieves cached settings for a pharmacy, nil on miss
	Get(ctx context.Context, pharmacyID uuid.UUID) (*PharmacySettings, error)

	// Set stores settings for a pharmacy
	Set(ctx context.Context, s *PharmacySettings) error

	// Invalidate drops the cached settings for a pharmacy
	Invalidate(ctx context.Context, pharmacyID uuid.UUID) error

	// Close releases cache resources
	Close() error
}

// CacheConfig holds settings cache configuration
type CacheConfig struct {
	TTL time.Duration
}

// DefaultCacheConfig returns the default cache configuration
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL: 1 * time.Minute,
	}
}
