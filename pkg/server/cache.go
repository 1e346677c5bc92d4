package server

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/elonfeng/moodradar/internal/metrics"
)

const cachePrefix = "moodradar:api:"

// Cache is a best-effort Redis cache for analysis responses. Redis errors
// are logged and treated as misses.
type Cache struct {
	rdb goredis.Cmdable
	ttl time.Duration
	log *zap.SugaredLogger
}

// NewCache wraps a Redis client.
func NewCache(rdb goredis.Cmdable, ttl time.Duration, log *zap.SugaredLogger) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{rdb: rdb, ttl: ttl, log: log}
}

// Get decodes the cached value for key into dst and reports whether it was found.
func (c *Cache) Get(ctx context.Context, key string, dst any) bool {
	data, err := c.rdb.Get(ctx, cachePrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.log.Warnw("cache get failed", "key", key, "error", err)
		}
		metrics.CacheRequests.WithLabelValues("miss").Inc()
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.log.Warnw("cache entry undecodable", "key", key, "error", err)
		metrics.CacheRequests.WithLabelValues("miss").Inc()
		return false
	}
	metrics.CacheRequests.WithLabelValues("hit").Inc()
	return true
}

// Set stores v under key for the cache TTL.
func (c *Cache) Set(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cachePrefix+key, data, c.ttl).Err(); err != nil {
		c.log.Warnw("cache set failed", "key", key, "error", err)
	}
}

// Invalidate drops every cached response. It is called after new comments
// are stored.
func (c *Cache) Invalidate(ctx context.Context) {
	var keys []string
	iter := c.rdb.Scan(ctx, 0, cachePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Warnw("cache scan failed", "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Warnw("cache invalidate failed", "keys", len(keys), "error", err)
	}
}
