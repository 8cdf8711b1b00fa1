package cache

import (
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultTTL bounds staleness of catalog reads. Catalog data changes
// rarely, so a few minutes of staleness is acceptable.
const DefaultTTL = 5 * time.Minute

type entry struct {
	payload   any
	expiresAt time.Time
}

// Cache is a capacity-bounded key/value store with per-entry expiry.
// It is best-effort and never a source of truth: a full cache evicts,
// an expired entry reads as a miss.
type Cache struct {
	lru *lru.Cache[string, entry]
	now func() time.Time
}

func New(capacity int) (*Cache, error) {
	c, err := lru.New[string, entry](capacity)
	if err != nil {
		return nil, err
	}
	return &Cache{
		lru: c,
		now: time.Now,
	}, nil
}

// Set stores value under key until now+ttl, overwriting any previous entry.
// A ttl <= 0 falls back to DefaultTTL.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c.lru.Add(key, entry{
		payload:   value,
		expiresAt: c.now().Add(ttl),
	})
}

// Get returns the value stored under key, or a miss once the entry has
// expired. Expired entries are evicted on access.
func (c *Cache) Get(key string) (any, bool) {
	e, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		c.lru.Remove(key)
		return nil, false
	}
	return e.payload, true
}

// Invalidate removes a single entry unconditionally.
func (c *Cache) Invalidate(key string) {
	c.lru.Remove(key)
}

// InvalidatePrefix removes every entry whose key starts with prefix.
// Called whenever a write mutates a collection that several cache keys
// may represent ("all products" vs "active products").
func (c *Cache) InvalidatePrefix(prefix string) {
	for _, k := range c.lru.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.lru.Remove(k)
		}
	}
}

func (c *Cache) Len() int {
	return c.lru.Len()
}
