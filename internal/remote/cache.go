package remote

import (
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/rshade/mapgrid/internal/grid"
)

// PageCache keeps recently fetched grid pages keyed by request URL.
type PageCache struct {
	lru    *expirable.LRU[uint64, grid.PageResult]
	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits   int64
	Misses int64
	Len    int
}

// NewPageCache creates a cache holding up to size pages for ttl each.
func NewPageCache(size int, ttl time.Duration) *PageCache {
	if size <= 0 {
		size = 128
	}
	return &PageCache{lru: expirable.NewLRU[uint64, grid.PageResult](size, nil, ttl)}
}

// Key hashes a request URL.
func Key(requestURL string) uint64 {
	return xxhash.Sum64String(requestURL)
}

// Get returns the cached page for requestURL.
func (c *PageCache) Get(requestURL string) (grid.PageResult, bool) {
	if c == nil {
		return grid.PageResult{}, false
	}
	res, ok := c.lru.Get(Key(requestURL))
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return res, ok
}

// Add stores res for requestURL.
func (c *PageCache) Add(requestURL string, res grid.PageResult) {
	if c == nil {
		return
	}
	c.lru.Add(Key(requestURL), res)
}

// Stats returns hit and miss counters.
func (c *PageCache) Stats() CacheStats {
	if c == nil {
		return CacheStats{}
	}
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load(), Len: c.lru.Len()}
}
