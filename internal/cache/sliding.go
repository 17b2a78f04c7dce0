package cache

import (
	"sync"
	"time"

	"DevHabit/internal/logger"
)

const defaultSweepEvery = time.Minute

type slidingEntry[V any] struct {
	value     V
	lastUsed  time.Time
	createdAt time.Time
}

// Sliding is an in-process cache whose entries expire ttl after their last read.
// Expired entries are swept lazily; when maxEntries is reached the least recently
// used entry is evicted.
type Sliding[V any] struct {
	mu         sync.Mutex
	items      map[string]*slidingEntry[V]
	ttl        time.Duration
	maxEntries int
	sweepEvery time.Duration
	lastSweep  time.Time
	now        func() time.Time
}

func NewSliding[V any](ttl time.Duration, maxEntries int) *Sliding[V] {
	return &Sliding[V]{
		items:      make(map[string]*slidingEntry[V]),
		ttl:        ttl,
		maxEntries: maxEntries,
		sweepEvery: defaultSweepEvery,
		now:        time.Now,
	}
}

func (c *Sliding[V]) Get(key string) (V, bool) {
	var zero V
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.maybeSweepLocked(now)
	entry, ok := c.items[key]
	if !ok {
		return zero, false
	}
	if now.Sub(entry.lastUsed) > c.ttl {
		delete(c.items, key)
		return zero, false
	}
	entry.lastUsed = now
	return entry.value, true
}

func (c *Sliding[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.maybeSweepLocked(now)

	if existing, ok := c.items[key]; ok {
		existing.value = value
		existing.lastUsed = now
		return
	}
	if c.maxEntries > 0 && len(c.items) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.items[key] = &slidingEntry[V]{value: value, lastUsed: now, createdAt: now}
}

func (c *Sliding[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

func (c *Sliding[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Sliding[V]) maybeSweepLocked(now time.Time) {
	if !c.lastSweep.IsZero() && now.Sub(c.lastSweep) < c.sweepEvery {
		return
	}
	for key, entry := range c.items {
		if now.Sub(entry.lastUsed) > c.ttl {
			delete(c.items, key)
		}
	}
	c.lastSweep = now
}

func (c *Sliding[V]) evictOldestLocked() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for key, entry := range c.items {
		if oldestKey == "" || entry.lastUsed.Before(oldest) {
			oldestKey, oldest = key, entry.lastUsed
		}
	}
	if oldestKey != "" {
		delete(c.items, oldestKey)
		logger.Debug("cache_evicted", map[string]any{
			"key":         oldestKey,
			"max_entries": c.maxEntries,
		})
	}
}
