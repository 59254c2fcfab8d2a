package people

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// DefaultCacheSize bounds the number of cached search outcomes.
	DefaultCacheSize = 1000
	// DefaultCacheTTL is how long a cached outcome stays valid.
	DefaultCacheTTL = 5 * time.Minute
)

// SearchCache memoizes resolution outcomes per normalized search term. Entries
// expire after the TTL and the least recently used entry is evicted once the
// size bound is hit. Safe for concurrent use; overlapping writers for the same
// term are allowed and the last write wins.
type SearchCache struct {
	lru *expirable.LRU[string, Outcome]
}

// NewSearchCache builds a cache with the given bounds. Non-positive size or
// ttl fall back to the defaults.
func NewSearchCache(size int, ttl time.Duration) *SearchCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &SearchCache{lru: expirable.NewLRU[string, Outcome](size, nil, ttl)}
}

// Get returns the cached outcome for the term, if present and not expired.
func (c *SearchCache) Get(term string) (Outcome, bool) {
	return c.lru.Get(normalizeTerm(term))
}

// Set stores the outcome for the term.
func (c *SearchCache) Set(term string, out Outcome) {
	c.lru.Add(normalizeTerm(term), out)
}

// Len returns the number of live entries.
func (c *SearchCache) Len() int {
	return c.lru.Len()
}

// normalizeTerm makes cache keys case- and surrounding-whitespace-insensitive.
func normalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}
