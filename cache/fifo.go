package cache

import "github.com/kclaka/colander/internal/util"

// FIFOCache evicts in pure insertion order: Get never reorders the list,
// so a repeatedly-read entry is evicted at the same time it would be if
// it had never been read. Re-inserting an existing key removes and
// re-adds it, which does move it to the head (a fresh insertion always
// starts newest-first).
type FIFOCache struct {
	arena    *arena
	index    map[string]uint32
	capacity int

	hits      util.PaddedAtomicUint64
	misses    util.PaddedAtomicUint64
	evictions util.PaddedAtomicUint64
}

// NewFIFO constructs a FIFO policy with room for capacity entries.
// Panics if capacity <= 0.
func NewFIFO(capacity int) *FIFOCache {
	if capacity <= 0 {
		panic("cache: capacity must be > 0")
	}
	return &FIFOCache{
		arena:    newArena(capacity),
		index:    make(map[string]uint32, capacity),
		capacity: capacity,
	}
}

// NewFIFOFactory adapts NewFIFO to a Factory for ShardedCache.
func NewFIFOFactory() Factory {
	return func(perShardCapacity int) Policy { return NewFIFO(perShardCapacity) }
}

func (c *FIFOCache) Name() string  { return "FIFO" }
func (c *FIFOCache) Capacity() int { return c.capacity }
func (c *FIFOCache) Len() int      { return c.arena.len() }
func (c *FIFOCache) IsEmpty() bool { return c.arena.isEmpty() }

// Get returns the value for key without reordering the list.
func (c *FIFOCache) Get(key string) (*CachedValue, bool) {
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
	c.hits.Add(1)
	return n.value, true
}

// Insert adds or replaces key's value, popping the tail while at
// capacity, then pushing the new value at the head.
func (c *FIFOCache) Insert(key string, value *CachedValue) {
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
func (c *FIFOCache) Remove(key string) bool {
	idx, ok := c.index[key]
	if !ok {
		return false
	}
	c.removeSlot(idx)
	return true
}

func (c *FIFOCache) Stats() Stats {
	return Stats{
		Name:      c.Name(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Size:      c.arena.len(),
		Capacity:  c.capacity,
	}
}

func (c *FIFOCache) removeSlot(idx uint32) {
	n := c.arena.get(idx)
	if n == nil {
		return
	}
	key := n.key
	c.arena.remove(idx)
	delete(c.index, key)
}

var _ Policy = (*FIFOCache)(nil)
