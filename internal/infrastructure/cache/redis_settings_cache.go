package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pharmaops/backend/internal/domain/settings"
)

// RedisConfig holds Redis connection settings for the cache
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisSettingsCache implements SettingsCache using Redis, shared across
// server instances
type RedisSettingsCache struct {
	client     *redis.Client
	ownsClient bool
	config     settings.CacheConfig
	logger     *zap.Logger
}

// RedisSettingsCacheOption is a functional option for configuring the cache
type RedisSettingsCacheOption func(*RedisSettingsCache)

// WithRedisCacheConfig sets the cache configuration
func WithRedisCacheConfig(config settings.CacheConfig) RedisSettingsCacheOption {
	return func(c *RedisSettingsCache) {
		c.config = config
	}
}

// WithRedisCacheLogger sets the logger for the cache
func WithRedisCacheLogger(logger *zap.Logger) RedisSettingsCacheOption {
	return func(c *RedisSettingsCache) {
		c.logger = logger
	}
}

// NewRedisSettingsCache creates a Redis-backed settings cache
func NewRedisSettingsCache(cfg RedisConfig, opts ...RedisSettingsCacheOption) (*RedisSettingsCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c := &RedisSettingsCache{
		client:     client,
		ownsClient: true,
		config:     settings.DefaultCacheConfig(),
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// NewRedisSettingsCacheWithClient creates a cache using an existing client.
// The caller retains ownership of the client.
func NewRedisSettingsCacheWithClient(client *redis.Client, opts ...RedisSettingsCacheOption) *RedisSettingsCache {
	c := &RedisSettingsCache{
		client:     client,
		ownsClient: false,
		config:     settings.DefaultCacheConfig(),
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func settingsCacheKey(pharmacyID uuid.UUID) string {
	return "pharmacy_settings:" + pharmacyID.String()
}

// Get retrieves cached settings for a pharmacy, nil on miss
func (c *RedisSettingsCache) Get(ctx context.Context, pharmacyID uuid.UUID) (*settings.PharmacySettings, error) {
	data, err := c.client.Get(ctx, settingsCacheKey(pharmacyID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var s settings.PharmacySettings
	if err := json.Unmarshal(data, &s); err != nil {
		// Corrupt entry: drop it and report a miss
		c.logger.Warn("Dropping corrupt settings cache entry",
			zap.String("pharmacy_id", pharmacyID.String()),
			zap.Error(err),
		)
		c.client.Del(ctx, settingsCacheKey(pharmacyID))
		return nil, nil
	}
	return &s, nil
}

// Set stores settings for a pharmacy
func (c *RedisSettingsCache) Set(ctx context.Context, s *settings.PharmacySettings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, settingsCacheKey(s.PharmacyID), data, c.config.TTL).Err()
}

// Invalidate drops the cached settings for a pharmacy
func (c *RedisSettingsCache) Invalidate(ctx context.Context, pharmacyID uuid.UUID) error {
	return c.client.Del(ctx, settingsCacheKey(pharmacyID)).Err()
}

// Close closes the Redis client if this cache owns it
func (c *RedisSettingsCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}
