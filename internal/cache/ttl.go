package cache

import (
	"sync"
	"time"
)

// TTLCache is a small expiring map used to absorb repeated metadata
// searches. Entries expire lazily on read.
type TTLCache[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]entry[V]
	ttl  time.Duration
}

type entry[V any] struct {
	v         V
	expiresAt time.Time
}

func NewTTL[K comparable, V any](ttl time.Duration) *TTLCache[K, V] {
	return &TTLCache[K, V]{data: make(map[K]entry[V]), ttl: ttl}
}

func (c *TTLCache[K, V]) Get(k K) (V, bool) {
	c.mu.RLock()
	e, ok := c.data[k]
	c.mu.RUnlock()
	if ok && time.Now().Before(e.expiresAt) {
		return e.v, true
	}
	if ok {
		c.mu.Lock()
		delete(c.data, k)
		c.mu.Unlock()
	}
	var zero V
	return zero, false
}

func (c *TTLCache[K, V]) Set(k K, v V) {
	c.mu.Lock()
	c.data[k] = entry[V]{v: v, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *TTLCache[K, V]) Delete(k K) {
	c.mu.Lock()
	delete(c.data, k)
	c.mu.Unlock()
}

// Len counts live entries, skipping any that have expired but not yet
// been purged.
func (c *TTLCache[K, V]) Len() int {
	now := time.Now()
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, e := range c.data {
		if now.Before(e.expiresAt) {
			n++
		}
	}
	return n
}
