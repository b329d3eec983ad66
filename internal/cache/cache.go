// Package cache is the Redis backed read cache. Entries are keyed by the API
// path they serve so a mutation can drop every cached variant of a path.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "codemate:path:"

// Cache stores JSON documents in Redis with a fixed TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// New connects to redisURL and verifies the connection.
func New(ctx context.Context, redisURL string, ttl time.Duration, log *zap.Logger) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewWithClient(client, ttl, log), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, ttl time.Duration, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{client: client, ttl: ttl, log: log}
}

// Client exposes the underlying client for the rate limiter store.
func (c *Cache) Client() *redis.Client {
	return c.client
}

func (c *Cache) HealthCheck(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// Key builds the cache key for one variant of a path, for example the
// second page of a filtered listing.
func Key(path string, variant ...string) string {
	return keyPrefix + path + "?" + strings.Join(variant, "&")
}

// GetJSON decodes the entry at key into dst. found is false on a miss.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return true, nil
}

// SetJSON stores v at key for the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Invalidate drops every cached variant of each path.
func (c *Cache) Invalidate(ctx context.Context, paths ...string) error {
	var removed int
	for _, path := range paths {
		pattern := escapePattern(keyPrefix+path+"?") + "*"
		iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("failed to scan cache keys for %s: %w", path, err)
		}
		if len(keys) == 0 {
			continue
		}
		if err := c.client.Unlink(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to drop cache keys for %s: %w", path, err)
		}
		removed += len(keys)
	}
	c.log.Debug("cache_invalidated",
		zap.Strings("paths", paths),
		zap.Int("keys_removed", removed),
	)
	return nil
}

// escapePattern quotes the glob metacharacters Redis MATCH understands.
func escapePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}
