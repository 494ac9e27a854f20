package imerg

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bahalana/floodcast/internal/domain"
	"github.com/bahalana/floodcast/internal/observability"
)

// CachedChecker wraps a SatelliteChecker with an in-memory LRU cache.
// Coverage for a past (point, day) pair never changes, so both positive and
// negative answers are cacheable.
type CachedChecker struct {
	inner   domain.SatelliteChecker
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedChecker creates a cache decorator around a checker.
func NewCachedChecker(inner domain.SatelliteChecker, maxEntries int, metrics *observability.Metrics) *CachedChecker {
	return &CachedChecker{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedChecker) Coverage(ctx context.Context, point domain.GeoPoint, date time.Time) (bool, error) {
	key := fmt.Sprintf("%.4f,%.4f|%s", point.Latitude, point.Longitude, date.UTC().Format(domain.DateLayout))
	if covered, ok := c.cache.get(key); ok {
		c.metrics.SatelliteCache.WithLabelValues("hit").Inc()
		return covered, nil
	}
	c.metrics.SatelliteCache.WithLabelValues("miss").Inc()

	covered, err := c.inner.Coverage(ctx, point, date)
	if err != nil {
		return false, err
	}
	c.cache.put(key, covered)
	return covered, nil
}

// lruCache is a simple thread-safe LRU cache for coverage answers.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	head       *cacheEntry // most recently used
	tail       *cacheEntry // least recently used
}

type cacheEntry struct {
	key   string
	value bool
	prev  *cacheEntry
	next  *cacheEntry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*cacheEntry),
	}
}

func (c *lruCache) get(key string) (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &cacheEntry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *cacheEntry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *cacheEntry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *cacheEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
