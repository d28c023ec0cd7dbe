package finder

import (
	"sync/atomic"

	gocache "github.com/patrickmn/go-cache"
)

// QueryCache memoizes query results for one dataset load. Entries never expire;
// the cache is discarded or cleared when the dataset changes.
type QueryCache struct {
	store  *gocache.Cache
	hits   atomic.Uint64
	misses atomic.Uint64
}

// CacheStats is a point-in-time view of a QueryCache.
type CacheStats struct {
	Entries int
	Hits    uint64
	Misses  uint64
}

// NewQueryCache returns an empty cache.
func NewQueryCache() *QueryCache {
	return &QueryCache{store: gocache.New(gocache.NoExpiration, 0)}
}

func cacheKey(kind QueryKind, query string) string {
	return string(kind) + "\x00" + query
}

// GetOrCompute returns the cached value for (kind, query) or stores the result of fn.
// Concurrent misses on the same key may both run fn; the results are identical.
func (c *QueryCache) GetOrCompute(kind QueryKind, query string, fn func() any) any {
	if c == nil {
		return fn()
	}
	key := cacheKey(kind, query)
	if v, ok := c.store.Get(key); ok {
		c.hits.Add(1)
		return v
	}
	c.misses.Add(1)
	v := fn()
	c.store.Set(key, v, gocache.NoExpiration)
	return v
}

// Clear drops every entry. Counters are kept.
func (c *QueryCache) Clear() {
	if c == nil {
		return
	}
	c.store.Flush()
}

// Len reports the number of cached entries.
func (c *QueryCache) Len() int {
	if c == nil {
		return 0
	}
	return c.store.ItemCount()
}

// Stats returns entry and hit counters.
func (c *QueryCache) Stats() CacheStats {
	if c == nil {
		return CacheStats{}
	}
	return CacheStats{
		Entries: c.store.ItemCount(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}

// cached is the typed form of GetOrCompute.
func cached[T any](c *QueryCache, kind QueryKind, query string, fn func() T) T {
	v := c.GetOrCompute(kind, query, func() any { return fn() })
	out, _ := v.(T)
	return out
}
