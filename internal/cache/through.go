package cache

import (
	"context"
	"time"
)

// Through is a read-through helper applied explicitly at call sites: on a
// hit it returns the cached value, on a miss it runs fetch and caches the
// result. An entry of the wrong type counts as a miss and is refetched,
// so a corrupt entry can never surface to the caller.
func Through[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, bool, error) {
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, true, nil
		}
		c.Invalidate(key)
	}

	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	c.Set(key, v, ttl)
	return v, false, nil
}
