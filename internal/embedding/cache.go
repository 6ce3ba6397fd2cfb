package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultCacheTTL bounds how long a cached vector is reused.
const DefaultCacheTTL = 24 * time.Hour

// remoteCache is the subset of the redis client used as the L2 tier.
type remoteCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

type cacheEntry struct {
	vector    Vector
	expiresAt time.Time
}

// Cache wraps an Embedder with an in-memory tier and an optional redis tier.
// Keys include the model name so vectors from different spaces never mix.
type Cache struct {
	inner  Embedder
	l1     sync.Map
	l2     remoteCache
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewCache wraps inner. l2 may be nil to keep the cache process-local.
func NewCache(inner Embedder, l2 remoteCache, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{inner: inner, l2: l2, ttl: ttl, logger: logger, now: time.Now}
}

// ConnectRedis returns a pinged redis client for the L2 tier.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return rdb, nil
}

// Key builds the cache key for text under the wrapped model.
func (c *Cache) Key(text string) string {
	hash := sha256.Sum256([]byte(c.inner.Model() + "|" + text))
	return fmt.Sprintf("jobmatch:emb:%x", hash[:16])
}

// Embed returns a cached vector when present, otherwise delegates and
// stores the result in both tiers.
func (c *Cache) Embed(ctx context.Context, text string) (Vector, error) {
	key := c.Key(text)

	if val, ok := c.l1.Load(key); ok {
		entry := val.(*cacheEntry)
		if c.now().Before(entry.expiresAt) {
			return entry.vector, nil
		}
		c.l1.Delete(key)
	}

	if c.l2 != nil {
		data, err := c.l2.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var v Vector
			if json.Unmarshal(data, &v) == nil && len(v) > 0 {
				c.store(key, v)
				return v, nil
			}
		case !errors.Is(err, redis.Nil):
			c.logger.Debug("embedding cache: L2 read failed", zap.Error(err))
		}
	}

	v, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.store(key, v)
	if c.l2 != nil {
		if data, err := json.Marshal(v); err == nil {
			if err := c.l2.Set(ctx, key, data, c.ttl).Err(); err != nil {
				c.logger.Debug("embedding cache: L2 write failed", zap.Error(err))
			}
		}
	}

	return v, nil
}

func (c *Cache) store(key string, v Vector) {
	c.l1.Store(key, &cacheEntry{vector: v, expiresAt: c.now().Add(c.ttl)})
}

func (c *Cache) Model() string {
	return c.inner.Model()
}
