// Package cache keeps backend metadata, such as table columns and server
// versions, so repeated rendering does not query the catalog every time.
package cache

import (
	"strings"
	"sync"
	"time"
)

// Stats reports cache activity.
type Stats struct {
	Hits      int64
	Misses    int64
	Size      int
	MaxSize   int
	Evictions int64
	HitRate   float64
}

// Key builds a cache key from its parts, for example
// Key("columns", "jos_users").
func Key(parts ...string) string { return strings.Join(parts, ":") }

// LRU is a size bounded cache with optional expiry. It evicts the least
// recently used entry when full. The zero TTL means entries never expire.
type LRU[V any] struct {
	mu         sync.Mutex
	data       map[string]*node[V]
	maxSize    int
	defaultTTL time.Duration
	head, tail *node[V]
	stats      Stats
	now        func() time.Time
}

type node[V any] struct {
	key       string
	value     V
	expiresAt time.Time
	prev      *node[V]
	next      *node[V]
}

// New creates an LRU holding at most maxSize entries. A maxSize below one
// is treated as one.
func New[V any](maxSize int, defaultTTL time.Duration) *LRU[V] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &LRU[V]{
		data:       make(map[string]*node[V]),
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
		stats:      Stats{MaxSize: maxSize},
		now:        time.Now,
	}
}

func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.data[key]
	if ok && !n.expiresAt.IsZero() && c.now().After(n.expiresAt) {
		c.remove(n)
		ok = false
	}
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}
	c.moveToFront(n)
	c.stats.Hits++
	return n.value, true
}

// Set stores value under key. ttl of zero uses the cache default; a
// negative ttl stores the entry without expiry.
func (c *LRU[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl == 0 {
		ttl = c.defaultTTL
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}

	if n, ok := c.data[key]; ok {
		n.value = value
		n.expiresAt = expiresAt
		c.moveToFront(n)
		return
	}

	if len(c.data) >= c.maxSize && c.tail != nil {
		c.remove(c.tail)
		c.stats.Evictions++
	}
	n := &node[V]{key: key, value: value, expiresAt: expiresAt}
	c.pushFront(n)
	c.data[key] = n
}

// GetOrLoad returns the cached value for key, calling load on a miss. Errors
// from load are returned and not cached.
func (c *LRU[V]) GetOrLoad(key string, load func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	c.Set(key, v, 0)
	return v, nil
}

func (c *LRU[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.data[key]; ok {
		c.remove(n)
	}
}

// InvalidatePattern removes every key matching pattern. Patterns are split
// on ":" and "*" matches one whole part, so "columns:*" drops all column
// lists and "*" drops everything.
func (c *LRU[V]) InvalidatePattern(pattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, n := range c.data {
		if matchesPattern(key, pattern) {
			c.remove(n)
		}
	}
}

func (c *LRU[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*node[V])
	c.head, c.tail = nil, nil
	c.stats = Stats{MaxSize: c.maxSize}
}

func (c *LRU[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = len(c.data)
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total) * 100
	}
	return s
}

func (c *LRU[V]) pushFront(n *node[V]) {
	n.prev = nil
	n.next = c.head
	if c.head != nil {
		c.head.prev = n
	}
	c.head = n
	if c.tail == nil {
		c.tail = n
	}
}

func (c *LRU[V]) unlink(n *node[V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

func (c *LRU[V]) moveToFront(n *node[V]) {
	if n == c.head {
		return
	}
	c.unlink(n)
	c.pushFront(n)
}

func (c *LRU[V]) remove(n *node[V]) {
	c.unlink(n)
	delete(c.data, n.key)
}

func matchesPattern(key, pattern string) bool {
	if pattern == "*" {
		return true
	}
	parts := strings.Split(pattern, ":")
	keyParts := strings.Split(key, ":")
	if len(parts) != len(keyParts) {
		return false
	}
	for i, p := range parts {
		if p != "*" && p != keyParts[i] {
			return false
		}
	}
	return true
}
