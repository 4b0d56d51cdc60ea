package providers

import (
	"fmt"
	"sync"
	"time"

	"github.com/paulmach/orb"

	"github.com/urbanflow/traffic-sim/internal/simulation/entities"
)

// roadCache is the only process-wide mutable state the core depends
// on. Lifetime is explicit: InitCache, lookup/store, ClearCache.
var roadCache = &networkCache{entries: make(map[string]cacheEntry)}

type cacheEntry struct {
	data    *entities.NetworkData
	expires time.Time
}

type networkCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

// InitCache sets the road-network cache TTL. A zero TTL disables
// caching.
func InitCache(ttl time.Duration) {
	roadCache.mu.Lock()
	defer roadCache.mu.Unlock()
	roadCache.ttl = ttl
	roadCache.entries = make(map[string]cacheEntry)
}

// ClearCache drops every cached network.
func ClearCache() {
	roadCache.mu.Lock()
	defer roadCache.mu.Unlock()
	roadCache.entries = make(map[string]cacheEntry)
}

func cacheKey(center orb.Point, radiusKm float64) string {
	return fmt.Sprintf("%.4f,%.4f,%g", center[1], center[0], radiusKm)
}

func (c *networkCache) lookup(key string) *entities.NetworkData {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expires) {
		delete(c.entries, key)
		return nil
	}
	return entry.data
}

func (c *networkCache) store(key string, data *entities.NetworkData) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{data: data, expires: time.Now().Add(c.ttl)}
}
