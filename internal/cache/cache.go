package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

// Cache wraps a ristretto cache with feature toggle awareness.
// A disabled cache misses on every Get and drops every Set.
type Cache struct {
	enabled bool
	ttl     time.Duration
	store   *ristretto.Cache
}

// Config captures cache construction parameters.
type Config struct {
	Enabled     bool
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	TTL         time.Duration
}

// New creates a Cache instance according to the configuration.
func New(cfg Config) (*Cache, error) {
	if !cfg.Enabled {
		return &Cache{enabled: false}, nil
	}

	rc, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: int64OrDefault(cfg.NumCounters, 1e4),
		MaxCost:     int64OrDefault(cfg.MaxCost, 1<<20),
		BufferItems: int64OrDefault(cfg.BufferItems, 64),
	})
	if err != nil {
		return nil, err
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}

	return &Cache{enabled: true, ttl: ttl, store: rc}, nil
}

// Get returns the cached text for key, if available.
func (c *Cache) Get(key string) (string, bool) {
	if !c.enabled {
		return "", false
	}
	if v, ok := c.store.Get(key); ok {
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	return "", false
}

// Set stores val under key with the configured TTL. Admission is
// asynchronous; use Wait when a following Get must observe the value.
func (c *Cache) Set(key, val string) {
	if !c.enabled {
		return
	}
	c.store.SetWithTTL(key, val, int64(len(val)), c.ttl)
}

// Wait blocks until pending writes are applied.
func (c *Cache) Wait() {
	if c.enabled {
		c.store.Wait()
	}
}

// Close stops the cache's background goroutines.
func (c *Cache) Close() {
	if c.enabled {
		c.store.Close()
	}
}

func int64OrDefault(v, def int64) int64 {
	if v <= 0 {
		return def
	}
	return v
}
