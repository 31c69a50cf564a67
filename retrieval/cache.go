package retrieval

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/DMIE-inteligencia/iara/core"
)

// DefaultCacheTTL is the freshness window for cached query results.
const DefaultCacheTTL = 300 * time.Second

type cacheEntry struct {
	results  []core.RetrievalResult
	storedAt time.Time
}

// QueryCache memoizes retrieval results per (query, filters, k) tuple for a
// short freshness window. Invalidation is deliberately coarse: removing any
// document clears the whole cache. A cache hit returns the result slice that
// was stored, so repeated reads within the window observe byte-identical
// results even if the index changed in between.
type QueryCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewQueryCache constructs a cache with the given freshness window; ttl <= 0
// selects DefaultCacheTTL.
func NewQueryCache(ttl time.Duration) *QueryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &QueryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// CacheKey canonicalizes a query tuple. Document id filters are sorted so
// logically equal filter sets share one entry.
func CacheKey(query string, filters Filters, k int) string {
	ids := append([]string(nil), filters.DocumentIDs...)
	sort.Strings(ids)
	return fmt.Sprintf("%s_%s_%d", query, strings.Join(ids, ","), k)
}

// Get returns the cached results for the key if the entry is younger than
// the freshness window.
func (c *QueryCache) Get(key string) ([]core.RetrievalResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.results, true
}

// Put stores results under the key, stamping the current time.
func (c *QueryCache) Put(key string, results []core.RetrievalResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{results: results, storedAt: c.now()}
}

// Invalidate removes every entry whose key contains the pattern as a
// substring and returns the number removed.
func (c *QueryCache) Invalidate(pattern string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key := range c.entries {
		if strings.Contains(key, pattern) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Clear drops every entry and returns how many existed.
func (c *QueryCache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]cacheEntry)
	return n
}

// Len reports the current number of entries.
func (c *QueryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// SetClock overrides the cache's time source. Tests use this to age entries
// past the freshness window without sleeping.
func (c *QueryCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
