package timeblocks

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

// ListCacheMemory caches list query results in process memory
type ListCacheMemory struct {
	Cache *lru.Cache
}

// NewListCacheMemory initializes a new ListCacheMemory
func NewListCacheMemory() (*ListCacheMemory, error) {
	cache, err := lru.New(32)
	if err != nil {
		return nil, err
	}

	return &ListCacheMemory{
		Cache: cache,
	}, nil
}

// Add adds a list result to the cache
func (c *ListCacheMemory) Add(_ context.Context, key string, blocks []TimeBlock) error {
	_ = c.Cache.Add(key, blocks)
	return nil
}

// Get retrieves a list result from the cache
func (c *ListCacheMemory) Get(_ context.Context, key string) ([]TimeBlock, error) {
	result, ok := c.Cache.Get(key)
	if !ok {
		return nil, fmt.Errorf("could not find key %s in list cache", key)
	}

	blocks, ok := result.([]TimeBlock)
	if !ok {
		return nil, fmt.Errorf("cache entry was not a list of time blocks")
	}

	return blocks, nil
}

// Invalidate drops all cached list results
func (c *ListCacheMemory) Invalidate(_ context.Context) error {
	c.Cache.Purge()
	return nil
}
