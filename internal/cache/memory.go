package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache implements Cache in process. Values are stored as JSON so
// callers never share mutable state with the cache.
type MemoryCache struct {
	items *gocache.Cache
}

// NewMemoryCache creates an in-process cache whose expired entries are
// purged every cleanup interval.
func NewMemoryCache(defaultTTL, cleanup time.Duration) *MemoryCache {
	return &MemoryCache{items: gocache.New(defaultTTL, cleanup)}
}

func (c *MemoryCache) Get(_ context.Context, key string, dst any) (bool, error) {
	v, ok := c.items.Get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(v.([]byte), dst); err != nil {
		return false, fmt.Errorf("unmarshal cached %s: %w", key, err)
	}
	return true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cached %s: %w", key, err)
	}
	c.items.Set(key, data, ttl)
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		c.items.Delete(k)
	}
	return nil
}
