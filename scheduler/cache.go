package scheduler

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// DefaultCacheCapacity is the default bounded capacity of a Cache.
const DefaultCacheCapacity = 150

// Cache is a bounded ChunkFingerprint → ChunkResult map with strict LRU
// eviction. It is safe for concurrent use: workers and the coordinator
// may share one Cache under a lock, with reads (LRU touch) and writes
// (insert+evict) atomic with respect to each other.
type Cache struct {
	mu sync.Mutex
	capacity int
	entries map[Fingerprint]*list.Element
	order *list.List // front = most recently used

	hits atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	key Fingerprint
	result ChunkResult
}

// NewCache returns a Cache with the given bounded capacity.
func NewCache(capacity int) *Cache {
	if capacity < 1 {
		capacity = DefaultCacheCapacity
	}
	return &Cache{
		capacity: capacity,
		entries: make(map[Fingerprint]*list.Element, capacity),
		order: list.New(),
	}
}

// Get returns the cached result for fp, updating its access time (moving
// it to the front of the LRU order) on a hit.
func (c *Cache) Get(fp Fingerprint) (ChunkResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[fp]
	if !ok {
		c.misses.Add(1)
		return ChunkResult{}, false
	}
	c.order.MoveToFront(el)
	c.hits.Add(1)
	return el.Value.(*cacheEntry).result, true
}

// Has reports whether fp is cached, without affecting LRU order.
func (c *Cache) Has(fp Fingerprint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[fp]
	return ok
}

// Set inserts or updates the entry for fp, evicting the least-recently-
// used entry first if the cache is at capacity.
func (c *Cache) Set(fp Fingerprint, result ChunkResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[fp]; ok {
		el.Value.(*cacheEntry).result = result
		c.order.MoveToFront(el)
		return
	}
	if len(c.entries) >= c.capacity {
		back := c.order.Back()
		if back != nil {
			c.order.Remove(back)
			delete(c.entries, back.Value.(*cacheEntry).key)
		}
	}
	el := c.order.PushFront(&cacheEntry{key: fp, result: result})
	c.entries[fp] = el
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Fingerprint]*list.Element, c.capacity)
	c.order = list.New()
}

// InvalidateRegion removes all cached chunks whose bounds overlap the
// given pixel rectangle.
func (c *Cache) InvalidateRegion(region RenderChunk) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var toRemove []*list.Element
	for el := c.order.Front(); el != nil; el = el.Next() {
		key := el.Value.(*cacheEntry).key
		if rectsOverlap(key.StartX, key.StartY, key.Width, key.Height,
			region.StartX, region.StartY, region.Width, region.Height) {
			toRemove = append(toRemove, el)
		}
	}
	for _, el := range toRemove {
		c.order.Remove(el)
		delete(c.entries, el.Value.(*cacheEntry).key)
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns the cumulative hit/miss counters.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func rectsOverlap(ax, ay, aw, ah, bx, by, bw, bh int) bool {
	if aw <= 0 || ah <= 0 || bw <= 0 || bh <= 0 {
		return false
	}
	return ax < bx+bw && bx < ax+aw && ay < by+bh && by < ay+ah
}
