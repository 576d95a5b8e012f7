package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/colormatch/resource"
)

// LRU is a least-recently-used cache holding at most capacity entries.
type LRU[K comparable, V any] struct {
	mu         sync.Mutex
	capacity   int
	entryBytes int64
	items      map[K]*list.Element
	evictList  *list.List
	rc         *resource.Controller

	hits   atomic.Int64
	misses atomic.Int64
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// NewLRU creates a cache holding at most capacity entries (minimum 1).
// If rc is provided, entryBytes are reserved from it per cached entry and a
// value that cannot be reserved is not cached.
func NewLRU[K comparable, V any](capacity int, entryBytes int64, rc *resource.Controller) *LRU[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &LRU[K, V]{
		capacity:   capacity,
		entryBytes: entryBytes,
		items:      make(map[K]*list.Element, capacity),
		evictList:  list.New(),
		rc:         rc,
	}
}

// Get returns a cached value and counts a hit or a miss.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(ent)
		return ent.Value.(*entry[K, V]).value, true
	}
	c.misses.Add(1)
	var zero V
	return zero, false
}

// Set caches a value, evicting the least recently used entry when full.
func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)
		ent.Value.(*entry[K, V]).value = value
		return
	}

	// Evict first so the released memory can be reacquired.
	for c.evictList.Len() >= c.capacity {
		c.removeElement(c.evictList.Back())
	}

	if c.rc != nil && !c.rc.TryAcquireMemory(c.entryBytes) {
		return
	}

	c.items[key] = c.evictList.PushFront(&entry[K, V]{key: key, value: value})
}

// Purge removes every entry and releases its memory.
func (c *LRU[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.evictList.Len() > 0 {
		c.removeElement(c.evictList.Back())
	}
}

// Len returns the number of cached entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

// Stats returns cache statistics.
func (c *LRU[K, V]) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *LRU[K, V]) removeElement(e *list.Element) {
	c.evictList.Remove(e)
	kv := e.Value.(*entry[K, V])
	delete(c.items, kv.key)
	if c.rc != nil {
		c.rc.ReleaseMemory(c.entryBytes)
	}
}
