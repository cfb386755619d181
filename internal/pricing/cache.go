package pricing

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"bid-advisor/internal/engine"

	"golang.org/x/sync/singleflight"
)

// mileageBucket groups odometer readings so nearby vehicles share a cache entry.
const mileageBucket = 10000

// cacheKey identifies one pricing lookup.
type cacheKey struct {
	Year    int
	Make    string
	Model   string
	Trim    string
	Mileage int // bucket start, -1 when unknown
}

func keyFor(v engine.DecodedVehicle) cacheKey {
	k := cacheKey{
		Year:    v.Year,
		Make:    strings.ToLower(strings.TrimSpace(v.Make)),
		Model:   strings.ToLower(strings.TrimSpace(v.Model)),
		Trim:    strings.ToLower(strings.TrimSpace(v.Trim)),
		Mileage: -1,
	}
	if v.Mileage != nil && *v.Mileage >= 0 {
		k.Mileage = *v.Mileage / mileageBucket * mileageBucket
	}
	return k
}

func (k cacheKey) String() string {
	return fmt.Sprintf("%d:%s:%s:%s:%d", k.Year, k.Make, k.Model, k.Trim, k.Mileage)
}

// cacheEntry holds an estimate, or the fact that there was none.
type cacheEntry struct {
	estimate engine.MarketPriceEstimate
	ok       bool
	expires  time.Time
}

// Cache is a thread-safe TTL cache of pricing results. A singleflight.Group
// prevents duplicate in-flight lookups for the same key.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[cacheKey]*cacheEntry
	group   singleflight.Group
}

// NewCache creates an empty cache. A non-positive ttl disables caching but
// keeps request coalescing.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[cacheKey]*cacheEntry),
	}
}

// Get returns a cached result if present and not expired.
// Returns (estimate, ok, hit).
func (c *Cache) Get(k cacheKey) (engine.MarketPriceEstimate, bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, found := c.entries[k]
	if !found || c.now().After(e.expires) {
		return engine.MarketPriceEstimate{}, false, false
	}
	return e.estimate, e.ok, true
}

// Put stores a result until the TTL elapses.
func (c *Cache) Put(k cacheKey, est engine.MarketPriceEstimate, ok bool) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[k] = &cacheEntry{estimate: est, ok: ok, expires: c.now().Add(c.ttl)}
}

// Prune drops expired entries and returns how many were removed.
func (c *Cache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of cached entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops every entry and returns how many were removed.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[cacheKey]*cacheEntry)
	return n
}
