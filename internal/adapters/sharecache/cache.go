// Package sharecache keeps recently issued and opened share results in a
// bounded LRU keyed by canonical token.
package sharecache

import (
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/okian/assess/internal/domain/classify"
	"github.com/okian/assess/internal/domain/share"
	"github.com/okian/assess/pkg/metrics"
)

// DefaultSize is the entry bound used when none is configured.
const DefaultSize = 4096

// ErrInvalidSize is returned for a non-positive cache size.
var ErrInvalidSize = errors.New("share cache size must be positive")

// Entry is a cached share.
type Entry struct {
	Payload share.Payload
	Result  classify.Result
}

// Cache is safe for concurrent use.
type Cache struct {
	entries *lru.Cache[string, Entry]
	metrics *metrics.Manager
}

// Option configures a Cache.
type Option func(*Cache)

// WithMetrics records lookups on m instead of the global manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(c *Cache) {
		if m != nil {
			c.metrics = m
		}
	}
}

// New returns a cache holding at most size entries.
func New(size int, opts ...Option) (*Cache, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	entries, err := lru.New[string, Entry](size)
	if err != nil {
		return nil, fmt.Errorf("create share cache: %w", err)
	}
	c := &Cache{entries: entries, metrics: metrics.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get returns the entry for token.
func (c *Cache) Get(token string) (Entry, bool) {
	e, ok := c.entries.Get(token)
	if ok {
		c.metrics.RecordShareCache(metrics.CacheHit)
	} else {
		c.metrics.RecordShareCache(metrics.CacheMiss)
	}
	return e, ok
}

// Add stores e under token, evicting the least recently used entry when full.
func (c *Cache) Add(token string, e Entry) {
	c.entries.Add(token, e)
	c.metrics.UpdateShareCacheEntries(c.entries.Len())
}

// Len returns the number of cached entries.
func (c *Cache) Len() int { return c.entries.Len() }

// Purge drops every entry.
func (c *Cache) Purge() {
	c.entries.Purge()
	c.metrics.UpdateShareCacheEntries(0)
}
