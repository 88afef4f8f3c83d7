// Package cache implements an arena-allocated, sharded, in-memory HTTP
// response cache with three pluggable eviction policies.
//
// Design
//
//   - Storage: each policy (SieveCache, LRUCache, FIFOCache) owns a fixed-
//     capacity arena (arena.go): a slab of slots addressed by uint32
//     index instead of pointer, with an intrusive doubly linked list
//     threaded through the slots and a LIFO free list for slot reuse.
//     Indices give the SIEVE hand a stable identity across mutations that
//     don't touch its slot, and halve memory versus 64-bit pointers.
//
//   - Policies: SIEVE (sieve.go) is the primary policy — a roving hand
//     sweeps from tail to head, demoting visited entries in place rather
//     than moving them, so hits only need to set an atomic bit. LRU
//     (lru.go) and FIFO (fifo.go) are simpler baselines sharing the same
//     arena; LRU is included specifically as the scalability foil, since
//     its Get always needs exclusive access to move the hit node.
//
//   - Concurrency: ShardedCache (sharded.go) partitions keys across 64
//     independently locked shards (shardMask replaces modulo). SieveCache
//     is the only policy that implements the optional sharedGetter
//     capability, so only SIEVE hits can be served under a shard's read
//     lock; LRU and FIFO always take the write lock.
//
//   - TTL: CachedValue (value.go) stamps insertedAt from a monotonic
//     Clock at construction. Expiration is lazy — checked only when a
//     policy's Get or eviction scan visits the entry.
//
//   - Facade: CacheLayer (facade.go) is what the HTTP proxy and the RESP
//     adapter actually hold. It wraps a primary ShardedCache and an
//     optional comparison ShardedCache for demo-mode side-by-side
//     hit-rate measurement, with an atomic demo/bench mode toggle.
//     LayerPointer gives configuration hot-reload a single atomic swap
//     point so readers never observe a half-built cache.
//
// Basic usage
//
//	layer := cache.NewCacheLayer(
//	    cache.NewSharded(100_000, cache.NewSieveFactory()),
//	    nil,
//	    cache.ModeBench,
//	)
//	v := layer.BuildValue(200, nil, []byte("hello"), 30*time.Second)
//	layer.Insert("GET:/hello", v)
//	if got := layer.Get("GET:/hello"); got.Hit {
//	    _ = got.Value.Body
//	}
package cache
