// Package cache memoizes analytics responses in Redis, keyed by a fingerprint
// of the request. The analytics packages never see it.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/finance-insights/internal/config"
	"github.com/iwvelando/finance-insights/pkg/constants"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// connectTimeout bounds the startup ping.
const connectTimeout = 5 * time.Second

var fingerprintNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("finance-insights/request"))

// Cache stores response bodies with a fixed TTL.
type Cache struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// New connects to Redis and verifies the connection.
func New(logger *zap.Logger, cfg config.CacheConfig) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return NewWithClient(logger, client, time.Duration(cfg.TTLSeconds)*time.Second, cfg.Prefix), nil
}

// NewWithClient wraps an existing client. Zero ttl and empty prefix select
// the defaults.
// If logger is nil, it will use a no-op logger to prevent panics.
func NewWithClient(logger *zap.Logger, client redis.UniversalClient, ttl time.Duration, prefix string) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = constants.DefaultCacheTTLSeconds * time.Second
	}
	if prefix == "" {
		prefix = constants.DefaultCachePrefix
	}
	return &Cache{client: client, ttl: ttl, prefix: prefix, logger: logger}
}

// Key derives the cache key of a request from its route and canonical body.
func (c *Cache) Key(route string, body []byte) string {
	name := make([]byte, 0, len(route)+1+len(body))
	name = append(name, route...)
	name = append(name, '\n')
	name = append(name, body...)
	return c.prefix + route + ":" + uuid.NewSHA1(fingerprintNamespace, name).String()
}

// Get returns the cached value. The second result is false on a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key with the cache TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	c.logger.Debug("response cached",
		zap.String("op", "cache.Set"),
		zap.String("key", key),
		zap.Duration("ttl", c.ttl),
	)
	return nil
}

// TTL returns the expiry applied to new entries.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Close closes the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}
