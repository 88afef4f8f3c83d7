package cache

import (
	"sync/atomic"

	"github.com/kclaka/colander/internal/util"
)

// SieveCache implements the SIEVE eviction algorithm (NSDI '24): a single
// roving "hand" sweeps from tail toward head, retaining visited entries
// in place and evicting the first unvisited (or expired) one it finds. A
// hit never mutates the list — it only sets an atomic per-slot visited
// bit — which is what lets ShardedCache serve hits under a shared lock
// (see sharded.go's sharedGetter use).
//
// Not safe for concurrent use on its own; callers must serialize mutating
// operations externally (ShardedCache does this per shard).
type SieveCache struct {
	arena   *arena
	index   map[string]uint32
	visited []atomic.Bool
	hand     uint32
	capacity int

	hits      util.PaddedAtomicUint64
	misses    util.PaddedAtomicUint64
	evictions util.PaddedAtomicUint64
}

// NewSieve constructs a SIEVE policy with room for capacity entries.
// Panics if capacity <= 0.
func NewSieve(capacity int) *SieveCache {
	if capacity <= 0 {
		panic("cache: capacity must be > 0")
	}
	return &SieveCache{
		arena:    newArena(capacity),
		index:    make(map[string]uint32, capacity),
		visited:  make([]atomic.Bool, capacity),
		hand:     nilIndex,
		capacity: capacity,
	}
}

// NewSieveFactory adapts NewSieve to a Factory for ShardedCache.
func NewSieveFactory() Factory {
	return func(perShardCapacity int) Policy { return NewSieve(perShardCapacity) }
}

func (s *SieveCache) Name() string    { return "SIEVE" }
func (s *SieveCache) Capacity() int   { return s.capacity }
func (s *SieveCache) Len() int        { return s.arena.len() }
func (s *SieveCache) IsEmpty() bool   { return s.arena.isEmpty() }

// Get returns the value for key. A fresh hit sets the visited bit without
// moving the node. An expired hit advances the hand off the dying slot
// before removing it, exactly as a plain Remove would.
func (s *SieveCache) Get(key string) (*CachedValue, bool) {
	idx, ok := s.index[key]
	if !ok {
		s.misses.Add(1)
		return nil, false
	}
	n := s.arena.get(idx)
	if n == nil {
		s.misses.Add(1)
		return nil, false
	}
	if n.value.IsExpired() {
		s.evictSlot(idx)
		s.misses.Add(1)
		return nil, false
	}
	s.visited[idx].Store(true)
	s.hits.Add(1)
	return n.value, true
}

// PeekHit implements sharedGetter: a read-lock-safe fresh-hit check. It
// does not touch counters for misses/expiry — the exclusive Get path
// reconciles those.
func (s *SieveCache) PeekHit(key string) (*CachedValue, bool, bool) {
	idx, ok := s.index[key]
	if !ok {
		return nil, false, false
	}
	n := s.arena.get(idx)
	if n == nil {
		return nil, false, false
	}
	if n.value.IsExpired() {
		return nil, false, true
	}
	s.visited[idx].Store(true)
	s.hits.Add(1)
	return n.value, true, false
}

// Insert adds or replaces key's value, evicting via the hand sweep while
// the arena is at capacity.
func (s *SieveCache) Insert(key string, value *CachedValue) {
	if idx, ok := s.index[key]; ok {
		s.unlinkAliasingHand(idx)
		s.arena.remove(idx)
		delete(s.index, key)
	}

	for s.arena.len() >= s.capacity {
		if !s.evictOne() {
			break
		}
	}

	idx, ok := s.arena.pushHead(key, value)
	if !ok {
		// Capacity exhausted and eviction made no progress: arena is
		// full with zero resident entries, which cannot happen by
		// invariant (capacity > 0). Defensive no-op.
		return
	}
	s.visited[idx].Store(false)
	s.index[key] = idx
}

// Remove deletes key if present, fixing the hand if it aliases the
// removed slot.
func (s *SieveCache) Remove(key string) bool {
	idx, ok := s.index[key]
	if !ok {
		return false
	}
	s.unlinkAliasingHand(idx)
	s.arena.remove(idx)
	delete(s.index, key)
	return true
}

func (s *SieveCache) Stats() Stats {
	return Stats{
		Name:      s.Name(),
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Evictions: s.evictions.Load(),
		Size:      s.arena.len(),
		Capacity:  s.capacity,
	}
}

// evictSlot removes an expired slot found during Get. TTL-triggered
// removals count as evictions, same as hand-driven ones.
func (s *SieveCache) evictSlot(idx uint32) {
	n := s.arena.get(idx)
	if n == nil {
		return
	}
	key := n.key
	s.unlinkAliasingHand(idx)
	s.arena.remove(idx)
	delete(s.index, key)
	s.evictions.Add(1)
}

// evictOne advances the hand, clearing visited bits until it finds an
// unvisited (or expired) slot to evict. Returns false only when the arena
// is empty (nothing to evict).
func (s *SieveCache) evictOne() bool {
	if s.hand == nilIndex {
		s.hand = s.arena.tail
	}
	if s.hand == nilIndex {
		return false
	}

	for {
		idx := s.hand
		n := s.arena.get(idx)
		if n == nil {
			// Should not happen: hand always names an occupied slot.
			s.hand = nilIndex
			return false
		}

		if n.value.IsExpired() {
			key := n.key
			s.hand = n.prev
			s.arena.remove(idx)
			delete(s.index, key)
			s.evictions.Add(1)
			return true
		}

		if s.visited[idx].Load() {
			s.visited[idx].Store(false)
			s.hand = n.prev
			if s.hand == nilIndex {
				s.hand = s.arena.tail
			}
			continue
		}

		key := n.key
		s.hand = n.prev
		s.arena.remove(idx)
		delete(s.index, key)
		s.evictions.Add(1)
		return true
	}
}

// unlinkAliasingHand rewrites the hand to the predecessor slot before a
// caller unlinks idx: the hand must never be left pointing at a slot about
// to be freed.
func (s *SieveCache) unlinkAliasingHand(idx uint32) {
	if s.hand != idx {
		return
	}
	if n := s.arena.get(idx); n != nil {
		s.hand = n.prev
	} else {
		s.hand = nilIndex
	}
}

var (
	_ Policy       = (*SieveCache)(nil)
	_ sharedGetter = (*SieveCache)(nil)
)
