package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/supplement-advisor-server/internal/domain"
)

const resultCacheKeyPrefix = "advisor:cache:result:"

// cachedOutput wraps a pipeline result with its expiry for the memory
// tier; Redis handles expiry natively via TTL.
type cachedOutput struct {
	Output    *domain.RecommendationOutput `json:"output"`
	ExpiresAt time.Time                    `json:"expires_at"`
}

// ResultCache is a two-tier cache for pipeline outputs: an in-memory
// LRU for hot profiles and an optional Redis tier shared across
// instances. Entries are keyed by a digest of the full profile
// snapshot, so any profile change is a natural cache miss.
type ResultCache struct {
	memory  *lru.Cache[string, cachedOutput]
	redis   *redis.Client
	ttl     time.Duration
	enabled bool
	log     *logrus.Logger
}

// NewResultCache creates the cache. redisClient may be nil; the memory
// tier then works alone.
func NewResultCache(cfg domain.CacheConfig, redisClient *redis.Client, logger *logrus.Logger) (*ResultCache, error) {
	size := cfg.MaxMemorySize
	if size <= 0 {
		size = 1024
	}
	ttl := cfg.DefaultTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	memory, err := lru.New[string, cachedOutput](size)
	if err != nil {
		return nil, err
	}

	return &ResultCache{
		memory:  memory,
		redis:   redisClient,
		ttl:     ttl,
		enabled: cfg.Enabled,
		log:     logger,
	}, nil
}

// Key digests the profile snapshot into a stable cache key.
func (c *ResultCache) Key(user *domain.UserProfile) string {
	data, _ := json.Marshal(user)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Get returns a cached output, checking memory before Redis. A Redis
// hit is promoted into the memory tier.
func (c *ResultCache) Get(ctx context.Context, key string) (*domain.RecommendationOutput, bool) {
	if !c.enabled {
		return nil, false
	}

	if cached, ok := c.memory.Get(key); ok {
		if time.Now().Before(cached.ExpiresAt) {
			return cached.Output, true
		}
		c.memory.Remove(key)
	}

	if c.redis == nil {
		return nil, false
	}

	data, err := c.redis.Get(ctx, resultCacheKeyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.WithError(err).Debug("Redis cache read failed")
		}
		return nil, false
	}

	var cached cachedOutput
	if err := json.Unmarshal(data, &cached); err != nil {
		c.log.WithError(err).Warn("Discarding undecodable cache entry")
		return nil, false
	}

	c.memory.Add(key, cached)
	return cached.Output, true
}

// Put stores an output in both tiers.
func (c *ResultCache) Put(ctx context.Context, key string, output *domain.RecommendationOutput) {
	if !c.enabled {
		return
	}

	cached := cachedOutput{
		Output:    output,
		ExpiresAt: time.Now().Add(c.ttl),
	}
	c.memory.Add(key, cached)

	if c.redis == nil {
		return
	}

	data, err := json.Marshal(cached)
	if err != nil {
		c.log.WithError(err).Warn("Could not encode cache entry")
		return
	}
	if err := c.redis.Set(ctx, resultCacheKeyPrefix+key, data, c.ttl).Err(); err != nil {
		c.log.WithError(err).Debug("Redis cache write failed")
	}
}

// Invalidate drops every cached result. Called after a cluster refit
// so stale cluster-sourced recommendations are not served.
func (c *ResultCache) Invalidate(ctx context.Context) {
	c.memory.Purge()

	if c.redis == nil {
		return
	}

	iter := c.redis.Scan(ctx, 0, resultCacheKeyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.WithError(err).Warn("Redis cache scan failed during invalidation")
		return
	}
	if len(keys) > 0 {
		if err := c.redis.Del(ctx, keys...).Err(); err != nil {
			c.log.WithError(err).Warn("Redis cache invalidation failed")
		}
	}
}
