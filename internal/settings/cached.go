package settings

import (
	"context"
	"time"

	"payble/internal/cache"
)

type cachedValue struct {
	value string
	ok    bool
}

// CachedRepository reads through an LRU cache and writes through to the
// underlying repository. Misses are cached too.
type CachedRepository struct {
	next  Repository
	cache *cache.LRUCache[cachedValue]
}

func NewCachedRepository(next Repository, ttl time.Duration) *CachedRepository {
	return &CachedRepository{
		next:  next,
		cache: cache.NewLRUCache[cachedValue](64, ttl),
	}
}

// Cache exposes the underlying cache so it can be registered with a
// cache.Manager.
func (c *CachedRepository) Cache() cache.Cleaner {
	return c.cache
}

func (c *CachedRepository) Get(ctx context.Context, key string) (string, bool, error) {
	if v, ok := c.cache.Get(key); ok {
		return v.value, v.ok, nil
	}
	v, ok, err := c.next.Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	c.cache.Set(key, cachedValue{value: v, ok: ok})
	return v, ok, nil
}

func (c *CachedRepository) Set(ctx context.Context, key, value string) error {
	if err := c.next.Set(ctx, key, value); err != nil {
		c.cache.Delete(key)
		return err
	}
	c.cache.Set(key, cachedValue{value: value, ok: true})
	return nil
}
