package rbac

import (
	"context"
	"sync"
)

type requestCacheKey struct{}

type requestCache struct {
	mu      sync.Mutex
	entries map[Principal]*resolution
}

// WithRequestCache attaches a grant cache to ctx. Grants resolved through the
// returned context are reused until the context is dropped. A context that
// already carries a cache is returned unchanged.
func WithRequestCache(ctx context.Context) context.Context {
	if cacheFrom(ctx) != nil {
		return ctx
	}

	return context.WithValue(ctx, requestCacheKey{}, &requestCache{entries: make(map[Principal]*resolution)})
}

func cacheFrom(ctx context.Context) *requestCache {
	c, _ := ctx.Value(requestCacheKey{}).(*requestCache)

	return c
}

func (c *requestCache) get(p Principal) (*resolution, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.entries[p]

	return r, ok
}

func (c *requestCache) put(p Principal, r *resolution) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[p] = r
}

// invalidate drops cached grants so admin changes made through ctx are seen by later checks.
func invalidate(ctx context.Context) {
	c := cacheFrom(ctx)
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.entries)
}
