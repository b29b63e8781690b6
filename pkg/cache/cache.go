// Package cache implements the TTL cache for on-demand API reads.
//
// Keys are namespaced by a prefix before the first colon (for example
// "metrics:project-app1/api-x1"), and each prefix can carry its own TTL.
// Expiry is lazy: entries are checked on access and swept opportunistically,
// there is no background eviction goroutine.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// entry holds a cached value with its expiration time.
type entry struct {
	value     interface{}
	expiresAt time.Time
}

// Cache is a TTL cache with per-prefix lifetimes and stampede suppression.
// Thread-safe for concurrent access.
type Cache struct {
	mu           sync.RWMutex
	entries      map[string]*entry
	defaultTTL   time.Duration
	prefixTTL    map[string]time.Duration
	group        singleflight.Group
	now          func() time.Time
	hits, misses uint64
}

// Config configures a Cache.
type Config struct {
	// DefaultTTL is the lifetime of entries whose prefix has no override.
	DefaultTTL time.Duration

	// PrefixTTL maps key prefixes (the part before the first colon) to
	// lifetime overrides.
	PrefixTTL map[string]time.Duration
}

// New creates a cache.
func New(cfg Config) *Cache {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 30 * time.Second
	}

	return &Cache{
		entries:    make(map[string]*entry),
		defaultTTL: cfg.DefaultTTL,
		prefixTTL:  cfg.PrefixTTL,
		now:        time.Now,
	}
}

// GetOrCompute returns the cached value for key, computing and storing it on
// a miss. Concurrent callers for the same key share a single compute call;
// a failed compute is not cached.
func (c *Cache) GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}

	value, err, _ := c.group.Do(key, func() (interface{}, error) {
		// A concurrent winner may have stored the value between the miss
		// and entering the flight group.
		if value, ok := c.Get(key); ok {
			return value, nil
		}

		value, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, value)
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Get returns the cached value for key if present and not expired.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().After(e.expiresAt) {
		c.mu.Lock()
		// Only sweep the entry we saw; a concurrent Set may have replaced it.
		if ok && c.entries[key] == e {
			delete(c.entries, key)
		}
		c.misses++
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	return e.value, true
}

// Set stores a value under key with the TTL of the key's prefix.
func (c *Cache) Set(key string, value interface{}) {
	expiresAt := c.now().Add(c.ttlFor(key))

	c.mu.Lock()
	c.entries[key] = &entry{value: value, expiresAt: expiresAt}
	c.mu.Unlock()
}

// Invalidate removes a single key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidatePrefix removes every key sharing the given prefix.
func (c *Cache) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// InvalidateAll empties the cache.
func (c *Cache) InvalidateAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := len(c.entries)
	c.entries = make(map[string]*entry)
	return removed
}

// Len returns the number of entries, including any not yet swept expired ones.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns cumulative hit and miss counts.
func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// ttlFor resolves the TTL for a key from its prefix.
func (c *Cache) ttlFor(key string) time.Duration {
	prefix := key
	if idx := strings.Index(key, ":"); idx >= 0 {
		prefix = key[:idx]
	}
	if ttl, ok := c.prefixTTL[prefix]; ok {
		return ttl
	}
	return c.defaultTTL
}
