package session

import (
	"sync"
	"time"
)

// Cache is a lightweight in-memory TTL cache.
// It is safe for concurrent use and supports periodic cleanup.
type Cache[K comparable, V any] struct {
	mu  sync.RWMutex
	ttl time.Duration
	now func() time.Time

	items map[K]cachedItem[V]

	// janitor
	janitorStop chan struct{}
}

// cachedItem wraps a cached value with an expiration time.
type cachedItem[V any] struct {
	value     V
	expiresAt time.Time
}

// DefaultTTL is used when a Cache is created with a TTL <= 0
const DefaultTTL = 3 * time.Hour

// NewCache creates a new Cache whose entries live for ttl.
// If ttl <= 0, DefaultTTL is used.
func NewCache[K comparable, V any](ttl time.Duration) *Cache[K, V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[K, V]{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[K]cachedItem[V]),
	}
}

// Set caches a value, replacing any previous entry and restarting its TTL.
func (c *Cache[K, V]) Set(key K, value V) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.items[key] = cachedItem[V]{value: value, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Get returns a cached value, if present and not expired.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}

	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}

	if c.now().After(item.expiresAt) {
		// Expired - evict eagerly
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return zero, false
	}

	return item.value, true
}

// Take returns a cached value and removes it, so only one caller can consume an entry.
func (c *Cache[K, V]) Take(key K) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[key]
	if !ok {
		return zero, false
	}
	delete(c.items, key)
	if c.now().After(item.expiresAt) {
		return zero, false
	}
	return item.value, true
}

// Delete removes an entry.
func (c *Cache[K, V]) Delete(key K) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// PurgeExpired removes expired entries.
// This can be called manually or via the janitor.
func (c *Cache[K, V]) PurgeExpired() int {
	if c == nil {
		return 0
	}
	now := c.now()

	removed := 0
	c.mu.Lock()
	for k, v := range c.items {
		if now.After(v.expiresAt) {
			delete(c.items, k)
			removed++
		}
	}
	c.mu.Unlock()
	return removed
}

// StartJanitor starts a background goroutine that periodically purges expired entries.
// It returns a function that can be called to stop the janitor.
// If interval <= 0, a default of 5 minutes is used.
func (c *Cache[K, V]) StartJanitor(interval time.Duration) func() {
	if c == nil {
		return func() {}
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	c.mu.Lock()
	// If already running, stop the previous one
	if c.janitorStop != nil {
		close(c.janitorStop)
	}
	stop := make(chan struct{})
	c.janitorStop = stop
	c.mu.Unlock()

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.PurgeExpired()
			case <-stop:
				return
			}
		}
	}()

	return func() {
		c.mu.Lock()
		if c.janitorStop == stop {
			close(c.janitorStop)
			c.janitorStop = nil
		}
		c.mu.Unlock()
	}
}

// Len returns the current number of non-expired entries.
// This performs an eager purge before counting to ensure accuracy.
func (c *Cache[K, V]) Len() int {
	if c == nil {
		return 0
	}
	c.PurgeExpired()

	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
