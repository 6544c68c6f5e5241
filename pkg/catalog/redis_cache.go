package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of *redis.Client the cache uses.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedRepository caches successful lookups in Redis. Filter always goes
// to the underlying repository. A Redis failure degrades to a direct
// lookup; it never fails the request.
type CachedRepository struct {
	next   Repository
	rdb    RedisClient
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// NewCachedRepository wraps next. A zero ttl defaults to five minutes.
func NewCachedRepository(next Repository, rdb RedisClient, ttl time.Duration, logger *slog.Logger) *CachedRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedRepository{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		prefix: "bpp:catalog:item:",
		logger: logger.With("component", "catalog_cache"),
	}
}

func (c *CachedRepository) Lookup(ctx context.Context, id string) (Item, error) {
	key := c.prefix + id

	raw, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		var it Item
		if jerr := json.Unmarshal([]byte(raw), &it); jerr == nil {
			return it, nil
		}
		c.logger.WarnContext(ctx, "discarding undecodable cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	}

	it, err := c.next.Lookup(ctx, id)
	if err != nil {
		return Item{}, err
	}
	if doc, jerr := json.Marshal(it); jerr == nil {
		if serr := c.rdb.Set(ctx, key, doc, c.ttl).Err(); serr != nil {
			c.logger.WarnContext(ctx, "cache write failed", "key", key, "error", serr)
		}
	}
	return it, nil
}

func (c *CachedRepository) Filter(ctx context.Context, f Filter) ([]Item, error) {
	return c.next.Filter(ctx, f)
}
