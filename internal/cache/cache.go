// Package cache holds loaded snapshots for a bounded time so repeated reads
// do not hit the remote store. It uses patrickmn/go-cache for TTL expiry.
package cache

import (
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultTTL is how long a loaded snapshot is served before reloading.
const DefaultTTL = 5 * time.Minute

// Cache wraps go-cache with hit accounting and load-through reads.
type Cache struct {
	store *gocache.Cache
	ttl   time.Duration

	// loadMu serialises loaders so concurrent misses cause one store read.
	loadMu sync.Mutex

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a cache whose entries live for ttl. A non-positive ttl
// disables caching: every Get misses.
func New(ttl time.Duration) *Cache {
	cleanup := 2 * ttl
	if ttl <= 0 {
		cleanup = 0
	}
	return &Cache{
		store: gocache.New(ttl, cleanup),
		ttl:   ttl,
	}
}

// TTL returns the configured entry lifetime.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get retrieves a value from the cache.
func (c *Cache) Get(key string) (any, bool) {
	if c.ttl <= 0 {
		c.misses.Add(1)
		return nil, false
	}
	v, ok := c.store.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Set stores a value with the default TTL.
func (c *Cache) Set(key string, value any) {
	if c.ttl <= 0 {
		return
	}
	c.store.Set(key, value, gocache.DefaultExpiration)
}

// GetOrLoad returns the cached value for key, calling load on a miss and
// caching its result. Errors are not cached. hit reports whether the value
// came from the cache.
func (c *Cache) GetOrLoad(key string, load func() (any, error)) (v any, hit bool, err error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	// Another caller may have loaded it while we waited.
	if c.ttl > 0 {
		if v, ok := c.store.Get(key); ok {
			return v, true, nil
		}
	}
	v, err = load()
	if err != nil {
		return nil, false, err
	}
	c.Set(key, v)
	return v, false, nil
}

// Delete removes a value from the cache.
func (c *Cache) Delete(key string) {
	c.store.Delete(key)
}

// Clear removes all items from the cache.
func (c *Cache) Clear() {
	c.store.Flush()
}

// Stats are cache counters.
type Stats struct {
	ItemCount int   `json:"item_count"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
}

// GetStats returns current cache statistics.
func (c *Cache) GetStats() Stats {
	return Stats{
		ItemCount: c.store.ItemCount(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
	}
}
