package client

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// QueryCache holds fetched results by key until they are invalidated.
// Concurrent loads of one key share a single fetch, and a fetch that was
// in flight when its key got invalidated does not repopulate the cache.
// Loads started after such an invalidation run a new fetch alongside the
// superseded one, so one key can have two fetches in flight at once.
type QueryCache struct {
	mu      sync.Mutex
	entries map[string]any
	gens    map[string]uint64
	group   singleflight.Group
}

func NewQueryCache() *QueryCache {
	return &QueryCache{
		entries: make(map[string]any),
		gens:    make(map[string]uint64),
	}
}

// Load returns the cached value for key or runs fetch to produce it. The
// fetch ignores ctx cancellation; ctx only bounds this caller's wait.
func (c *QueryCache) Load(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	c.mu.Lock()
	if v, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return v, nil
	}
	gen, ok := c.gens[key]
	if !ok {
		c.gens[key] = 0
	}
	c.mu.Unlock()

	flight := key + "#" + strconv.FormatUint(gen, 10)
	ch := c.group.DoChan(flight, func() (any, error) {
		v, err := fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.gens[key] == gen {
			c.entries[key] = v
		}
		c.mu.Unlock()
		return v, nil
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate drops the given keys; the next Load fetches again.
func (c *QueryCache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		c.invalidateLocked(key)
	}
}

func (c *QueryCache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.gens {
		if strings.HasPrefix(key, prefix) {
			c.invalidateLocked(key)
		}
	}
}

func (c *QueryCache) invalidateLocked(key string) {
	delete(c.entries, key)
	c.gens[key]++
}

func (c *QueryCache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.entries[key]
	return ok
}

// Len reports the number of cached entries.
func (c *QueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
