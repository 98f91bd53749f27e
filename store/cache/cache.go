// Package cache provides a small in-process TTL cache.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Config controls cache behavior.
type Config struct {
	// DefaultTTL is applied to entries set without an explicit TTL.
	// Zero means entries never expire.
	DefaultTTL time.Duration
	// CleanupInterval is how often expired entries are swept.
	CleanupInterval time.Duration
	// MaxItems bounds the cache size; the least recently used entry is
	// evicted when the bound is exceeded. Zero means unbounded.
	MaxItems int
	// OnEviction, if set, is called after an entry is evicted or expired.
	OnEviction func(key string, value any)
}

type item struct {
	key       string
	value     any
	expiresAt time.Time // zero means no expiry
}

// Cache is a thread-safe TTL cache with LRU eviction.
type Cache struct {
	mu      sync.Mutex
	config  Config
	items   map[string]*list.Element
	order   *list.List // front = most recently used
	closed  chan struct{}
	closeMu sync.Once
}

// New creates a cache and starts its cleanup goroutine.
func New(config Config) *Cache {
	c := &Cache{
		config: config,
		items:  make(map[string]*list.Element),
		order:  list.New(),
		closed: make(chan struct{}),
	}
	if config.CleanupInterval > 0 {
		go c.janitor()
	}
	return c
}

// Get returns the value for key, or false if absent or expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	it := el.Value.(*item)
	if !it.expiresAt.IsZero() && time.Now().After(it.expiresAt) {
		c.removeLocked(el, true)
		return nil, false
	}
	c.order.MoveToFront(el)
	return it.value, true
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.config.DefaultTTL)
}

// SetWithTTL stores value under key with an explicit TTL.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	if el, ok := c.items[key]; ok {
		it := el.Value.(*item)
		it.value = value
		it.expiresAt = expiresAt
		c.order.MoveToFront(el)
		return
	}

	el := c.order.PushFront(&item{key: key, value: value, expiresAt: expiresAt})
	c.items[key] = el

	if c.config.MaxItems > 0 && c.order.Len() > c.config.MaxItems {
		if oldest := c.order.Back(); oldest != nil {
			c.removeLocked(oldest, true)
		}
	}
}

// Delete removes key from the cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.removeLocked(el, false)
	}
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Close stops the cleanup goroutine.
func (c *Cache) Close() {
	c.closeMu.Do(func() {
		close(c.closed)
	})
}

func (c *Cache) removeLocked(el *list.Element, evicted bool) {
	it := el.Value.(*item)
	c.order.Remove(el)
	delete(c.items, it.key)
	if evicted && c.config.OnEviction != nil {
		// Callback runs under the lock; keep eviction hooks cheap.
		c.config.OnEviction(it.key, it.value)
	}
}

func (c *Cache) janitor() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.closed:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *Cache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		it := el.Value.(*item)
		if !it.expiresAt.IsZero() && now.After(it.expiresAt) {
			c.removeLocked(el, true)
		}
		el = prev
	}
}
