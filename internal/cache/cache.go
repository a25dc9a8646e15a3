// Package cache provides a thread-safe LRU cache with per-entry expiration.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Stats contains cache statistics.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	MaxSize   int
}

type entry[K comparable, V any] struct {
	key    K
	value  V
	stored time.Time
}

// TTLCache is a thread-safe cache whose entries expire ttl after they were
// stored. When maxEntries is positive the least recently used entry is
// evicted to make room. A ttl of zero or less disables the cache: Get always
// misses and Set stores nothing.
type TTLCache[K comparable, V any] struct {
	mu         sync.Mutex
	entries    map[K]*list.Element
	evictList  *list.List
	ttl        time.Duration
	maxEntries int
	stats      Stats
	now        func() time.Time
}

// New creates an empty TTLCache. maxEntries of zero means unbounded.
func New[K comparable, V any](ttl time.Duration, maxEntries int) *TTLCache[K, V] {
	if maxEntries < 0 {
		maxEntries = 0
	}
	return &TTLCache[K, V]{
		entries:    make(map[K]*list.Element),
		evictList:  list.New(),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Enabled reports whether the cache stores anything.
func (c *TTLCache[K, V]) Enabled() bool {
	return c != nil && c.ttl > 0
}

// Get returns the value for key if present and not expired.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	var zero V
	if !c.Enabled() {
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return zero, false
	}
	e := el.Value.(*entry[K, V])
	if c.expired(e) {
		c.removeElement(el)
		c.stats.Misses++
		return zero, false
	}

	c.evictList.MoveToFront(el)
	c.stats.Hits++
	return e.value, true
}

// Set stores value under key, restarting its expiry.
func (c *TTLCache[K, V]) Set(key K, value V) {
	if !c.Enabled() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.evictList.MoveToFront(el)
		e := el.Value.(*entry[K, V])
		e.value = value
		e.stored = c.now()
		return
	}

	c.entries[key] = c.evictList.PushFront(&entry[K, V]{key: key, value: value, stored: c.now()})
	if c.maxEntries > 0 && c.evictList.Len() > c.maxEntries {
		c.removeElement(c.evictList.Back())
		c.stats.Evictions++
	}
}

// Prune removes expired entries and returns how many were dropped.
func (c *TTLCache[K, V]) Prune() int {
	if !c.Enabled() {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for el := c.evictList.Back(); el != nil; {
		prev := el.Prev()
		if c.expired(el.Value.(*entry[K, V])) {
			c.removeElement(el)
			dropped++
		}
		el = prev
	}
	return dropped
}

// Invalidate clears all cached data.
func (c *TTLCache[K, V]) Invalidate() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]*list.Element)
	c.evictList.Init()
}

// Len returns the number of stored entries, expired or not.
func (c *TTLCache[K, V]) Len() int {
	if c == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

// Stats returns a snapshot of the cache statistics.
func (c *TTLCache[K, V]) Stats() Stats {
	if c == nil {
		return Stats{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = c.evictList.Len()
	s.MaxSize = c.maxEntries
	return s
}

func (c *TTLCache[K, V]) expired(e *entry[K, V]) bool {
	return c.now().Sub(e.stored) >= c.ttl
}

func (c *TTLCache[K, V]) removeElement(el *list.Element) {
	c.evictList.Remove(el)
	delete(c.entries, el.Value.(*entry[K, V]).key)
}
