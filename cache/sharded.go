package cache

import (
	"sync"

	"github.com/kclaka/colander/internal/shardhash"
)

// ShardCount is the fixed number of shards a ShardedCache partitions keys
// across. It is a power of two so shard selection can mask instead of
// taking a modulo.
const ShardCount = 64

const shardMask = ShardCount - 1

// ShardedCache partitions keys across ShardCount independently locked
// Policy instances. Each shard serializes its own operations with an
// RWMutex; a caller never holds more than one shard's lock at a time, so
// the wrapper is deadlock-free by construction.
type ShardedCache struct {
	shards   [ShardCount]*shardSlot
	name     string
	capacity int
}

type shardSlot struct {
	mu     sync.RWMutex
	policy Policy
}

// NewSharded builds a ShardedCache with totalCapacity entries split
// evenly (floored to at least 1 per shard) across ShardCount shards, each
// built by factory.
func NewSharded(totalCapacity int, factory Factory) *ShardedCache {
	perShard := totalCapacity / ShardCount
	if perShard < 1 {
		perShard = 1
	}
	sc := &ShardedCache{capacity: perShard * ShardCount}
	for i := range sc.shards {
		p := factory(perShard)
		sc.shards[i] = &shardSlot{policy: p}
		if i == 0 {
			sc.name = p.Name()
		}
	}
	return sc
}

func (sc *ShardedCache) shardFor(key string) *shardSlot {
	h := shardhash.Of(key)
	return sc.shards[h&shardMask]
}

// Get resolves key's shard and looks it up. When the shard's policy
// implements sharedGetter (only SieveCache does), a fresh hit is served
// under the shard's read lock; misses and expired entries fall through
// to the exclusive path so the policy can mutate its list/map.
func (sc *ShardedCache) Get(key string) (*CachedValue, bool) {
	s := sc.shardFor(key)

	if sg, ok := s.policy.(sharedGetter); ok {
		s.mu.RLock()
		v, hit, expired := sg.PeekHit(key)
		s.mu.RUnlock()
		if hit {
			return v, true
		}
		_ = expired // miss or expiry: fall through to the exclusive path below
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policy.Get(key)
}

// Insert adds or replaces key's value.
func (sc *ShardedCache) Insert(key string, value *CachedValue) {
	s := sc.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy.Insert(key, value)
}

// Remove deletes key if present.
func (sc *ShardedCache) Remove(key string) bool {
	s := sc.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policy.Remove(key)
}

// Len fans out across shards under read locks, one at a time, and sums
// resident entry counts.
func (sc *ShardedCache) Len() int {
	total := 0
	for _, s := range sc.shards {
		s.mu.RLock()
		total += s.policy.Len()
		s.mu.RUnlock()
	}
	return total
}

// IsEmpty reports Len() == 0.
func (sc *ShardedCache) IsEmpty() bool { return sc.Len() == 0 }

// Capacity returns the total capacity across all shards (perShard*ShardCount).
func (sc *ShardedCache) Capacity() int { return sc.capacity }

// Name returns the policy name, which is invariant across shards (the
// first shard's name is canonical).
func (sc *ShardedCache) Name() string { return sc.name }

// Stats sums per-shard counters and sizes into one aggregate snapshot.
func (sc *ShardedCache) Stats() Stats {
	agg := Stats{Name: sc.name}
	for _, s := range sc.shards {
		s.mu.RLock()
		st := s.policy.Stats()
		s.mu.RUnlock()

		agg.Hits += st.Hits
		agg.Misses += st.Misses
		agg.Evictions += st.Evictions
		agg.Size += st.Size
		agg.Capacity += st.Capacity
	}
	return agg
}
