// Package cache provides the settings.Cache implementations: an in-process
// cache for single-instance deployments and a Redis cache shared across
// server instances.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pharmaops/backend/internal/domain/settings"
)

const defaultCleanupInterval = 30 * time.Second

// InMemorySettingsCache implements SettingsCache using in-process storage.
// It is designed to be used standalone or as L1 in front of Redis.
type InMemorySettingsCache struct {
	entries sync.Map // map[uuid.UUID]*cacheEntry
	config  settings.CacheConfig
	logger  *zap.Logger
	stopCh  chan struct{}
	stopped int32

	hits   int64
	misses int64
}

type cacheEntry struct {
	value     *settings.PharmacySettings
	expiresAt time.Time
}

func (e *cacheEntry) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// InMemorySettingsCacheOption is a functional option for configuring the cache
type InMemorySettingsCacheOption func(*InMemorySettingsCache)

// WithInMemoryConfig sets the cache configuration
func WithInMemoryConfig(config settings.CacheConfig) InMemorySettingsCacheOption {
	return func(c *InMemorySettingsCache) {
		c.config = config
	}
}

// WithInMemoryLogger sets the logger for the cache
func WithInMemoryLogger(logger *zap.Logger) InMemorySettingsCacheOption {
	return func(c *InMemorySettingsCache) {
		c.logger = logger
	}
}

// NewInMemorySettingsCache creates a new in-memory settings cache
func NewInMemorySettingsCache(opts ...InMemorySettingsCacheOption) *InMemorySettingsCache {
	c := &InMemorySettingsCache{
		config: settings.DefaultCacheConfig(),
		logger: zap.NewNop(),
		stopCh: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	go c.cleanupExpired()

	return c
}

// Get retrieves cached settings for a pharmacy, nil on miss
func (c *InMemorySettingsCache) Get(_ context.Context, pharmacyID uuid.UUID) (*settings.PharmacySettings, error) {
	if value, ok := c.entries.Load(pharmacyID); ok {
		entry := value.(*cacheEntry)
		if !entry.isExpired() {
			atomic.AddInt64(&c.hits, 1)
			return entry.value, nil
		}
		c.entries.Delete(pharmacyID)
	}

	atomic.AddInt64(&c.misses, 1)
	return nil, nil
}

// Set stores settings for a pharmacy
func (c *InMemorySettingsCache) Set(_ context.Context, s *settings.PharmacySettings) error {
	c.entries.Store(s.PharmacyID, &cacheEntry{
		value:     s,
		expiresAt: time.Now().Add(c.config.TTL),
	})
	return nil
}

// Invalidate drops the cached settings for a pharmacy
func (c *InMemorySettingsCache) Invalidate(_ context.Context, pharmacyID uuid.UUID) error {
	c.entries.Delete(pharmacyID)
	return nil
}

// Close stops the background cleanup goroutine
func (c *InMemorySettingsCache) Close() error {
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}

// Stats returns hit/miss counters for monitoring
func (c *InMemorySettingsCache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// cleanupExpired periodically evicts expired entries so the map does not
// grow unbounded in long-running processes
func (c *InMemorySettingsCache) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.entries.Range(func(key, value any) bool {
				if value.(*cacheEntry).isExpired() {
					c.entries.Delete(key)
				}
				return true
			})
		}
	}
}
