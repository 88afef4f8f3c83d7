package cache

import "github.com/kclaka/colander/internal/util"

// LRUCache is the classic promote-on-access eviction policy, included
// deliberately as SIEVE's scalability foil: because Get must move the hit
// node to the head of the list, it always needs exclusive access — it
// cannot be served under ShardedCache's shared-lock fast path the way
// SIEVE's Get can.
type LRUCache struct {
	arena    *arena
	index    map[string]uint32
	capacity int

	hits      util.PaddedAtomicUint64
	misses    util.PaddedAtomicUint64
	evictions util.PaddedAtomicUint64
}

// NewLRU constructs an LRU policy with room for capacity entries.
// Panics if capacity <= 0.
func NewLRU(capacity int) *LRUCache {
	if capacity <= 0 {
		panic("cache: capacity must be > 0")
	}
	return &LRUCache{
		arena:    newArena(capacity),
		index:    make(map[string]uint32, capacity),
		capacity: capacity,
	}
}

// NewLRUFactory adapts NewLRU to a Factory for ShardedCache.
func NewLRUFactory() Factory {
	return func(perShardCapacity int) Policy { return NewLRU(perShardCapacity) }
}

func (c *LRUCache) Name() string  { return "LRU" }
func (c *LRUCache) Capacity() int { return c.capacity }
func (c *LRUCache) Len() int      { return c.arena.len() }
func (c *LRUCache) IsEmpty() bool { return c.arena.isEmpty() }

// Get promotes a fresh hit to the head of the list before returning it.
func (c *LRUCache) Get(key string) (*CachedValue, bool) {
	idx, ok := c.index[key]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	n := c.arena.get(idx)
	if n == nil {
		c.misses.Add(1)
		return nil, false
	}
	if n.value.IsExpired() {
		c.removeSlot(idx)
		c.evictions.Add(1)
		c.misses.Add(1)
		return nil, false
	}
	c.arena.moveToHead(idx)
	c.hits.Add(1)
	return n.value, true
}

// Insert adds or replaces key's value, popping the tail while at
// capacity, then pushing the new value at the head.
func (c *LRUCache) Insert(key string, value *CachedValue) {
	if idx, ok := c.index[key]; ok {
		c.removeSlot(idx)
	}
	for c.arena.len() >= c.capacity {
		_, evicted, ok := c.arena.popTail()
		if !ok {
			break
		}
		delete(c.index, evicted.key)
		c.evictions.Add(1)
	}
	idx, ok := c.arena.pushHead(key, value)
	if !ok {
		return
	}
	c.index[key] = idx
}

// Remove deletes key if present.
func (c *LRUCache) Remove(key string) bool {
	idx, ok := c.index[key]
	if !ok {
		return false
	}
	c.removeSlot(idx)
	return true
}

func (c *LRUCache) Stats() Stats {
	return Stats{
		Name:      c.Name(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Size:      c.arena.len(),
		Capacity:  c.capacity,
	}
}

func (c *LRUCache) removeSlot(idx uint32) {
	n := c.arena.get(idx)
	if n == nil {
		return
	}
	key := n.key
	c.arena.remove(idx)
	delete(c.index, key)
}

var _ Policy = (*LRUCache)(nil)
