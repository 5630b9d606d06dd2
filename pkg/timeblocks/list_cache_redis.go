package timeblocks

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-redis/cache/v8"
	"github.com/go-redis/redis/v8"
)

// ListCacheRedis caches list query results in Redis with a short TTL.
// Invalidation bumps a generation counter baked into every key, so stale
// entries simply age out of Redis.
type ListCacheRedis struct {
	Cache      *cache.Cache
	generation uint64
}

// NewListCacheRedis initializes a new ListCacheRedis
func NewListCacheRedis(redisClient *redis.Client) (*ListCacheRedis, error) {
	redisCache := cache.New(&cache.Options{
		Redis: redisClient,
	})

	return &ListCacheRedis{
		Cache: redisCache,
	}, nil
}

func (c *ListCacheRedis) versionedKey(key string) string {
	return fmt.Sprintf("%s:gen%d", key, atomic.LoadUint64(&c.generation))
}

// Add adds a list result
func (c *ListCacheRedis) Add(ctx context.Context, key string, blocks []TimeBlock) error {
	err := c.Cache.Set(&cache.Item{
		Ctx:   ctx,
		Key:   c.versionedKey(key),
		Value: blocks,
		TTL:   time.Minute,
	})
	if err != nil {
		return err
	}

	return nil
}

// Get retrieves a list result
func (c *ListCacheRedis) Get(ctx context.Context, key string) ([]TimeBlock, error) {
	result := []TimeBlock{}
	err := c.Cache.Get(ctx, c.versionedKey(key), &result)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Invalidate makes all previously cached list results unreachable
func (c *ListCacheRedis) Invalidate(_ context.Context) error {
	atomic.AddUint64(&c.generation, 1)
	return nil
}
