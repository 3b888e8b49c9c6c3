package analytics

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultCacheKey is the single key under which the default (unfiltered)
// analytics payload is memoized. The cache is not parameterized by anything
// else; filtered views always recompute.
const DefaultCacheKey = "analytics:default"

// DefaultCacheTTL bounds the staleness of the default view. A new
// interaction is not guaranteed to be reflected in the default analytics
// view for up to this window; that trade-off is deliberate, there is no
// invalidation on insert.
const DefaultCacheTTL = 300 * time.Second

// Cache memoizes assembled analytics payloads. It is advisory: concurrent
// requests may race to recompute on expiry, which merely wastes work since
// aggregation is idempotent and side-effect-free. Implementations must be
// safe for concurrent use.
type Cache interface {
	// Get returns the cached payload for key, if present and unexpired.
	Get(key string) (Payload, bool)
	// Add stores the payload under key, replacing any previous entry.
	Add(key string, p Payload)
}

// TTLCache is a process-wide Cache with a fixed time-to-live, backed by an
// expirable LRU. Capacity is one entry: the engine only ever caches the
// default view.
type TTLCache struct {
	lru *expirable.LRU[string, Payload]
}

// NewTTLCache returns a TTLCache whose entries expire after ttl.
// Non-positive ttl falls back to DefaultCacheTTL.
func NewTTLCache(ttl time.Duration) *TTLCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &TTLCache{lru: expirable.NewLRU[string, Payload](1, nil, ttl)}
}

// Get implements Cache.
func (c *TTLCache) Get(key string) (Payload, bool) { return c.lru.Get(key) }

// Add implements Cache.
func (c *TTLCache) Add(key string, p Payload) { c.lru.Add(key, p) }

// NopCache never stores anything. It disables caching for tests and for
// deployments that prefer always-fresh analytics.
type NopCache struct{}

// Get implements Cache; it always misses.
func (NopCache) Get(string) (Payload, bool) { return Payload{}, false }

// Add implements Cache; it discards the payload.
func (NopCache) Add(string, Payload) {}
