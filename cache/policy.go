package cache

// Policy is the contract shared by the three eviction strategies (SIEVE,
// LRU, FIFO). A Policy instance is not safe for concurrent use on its
// own — ShardedCache (sharded.go) supplies the locking.
type Policy interface {
	// Get returns the cached value for key, or (nil, false) on a miss
	// (absent or expired). A hit increments Hits, a miss increments
	// Misses exactly once per call.
	Get(key string) (*CachedValue, bool)

	// Insert adds or replaces key's value. If the policy is at capacity,
	// it evicts according to its own rule before inserting.
	Insert(key string, value *CachedValue)

	// Remove deletes key if present and reports whether it existed.
	Remove(key string) bool

	// Len reports the number of resident (possibly expired but not yet
	// reaped) entries.
	Len() int

	// Capacity reports the maximum number of resident entries.
	Capacity() int

	// IsEmpty reports Len() == 0.
	IsEmpty() bool

	// Name identifies the policy: "SIEVE", "LRU", or "FIFO".
	Name() string

	// Stats returns a snapshot of the policy's counters.
	Stats() Stats
}

// Factory builds a Policy instance sized for perShardCapacity entries.
// ShardedCache calls Factory once per shard.
type Factory func(perShardCapacity int) Policy

// sharedGetter is an optional capability a Policy may implement to allow
// ShardedCache to serve Get under a shared (read) lock instead of an
// exclusive one. Only SieveCache implements it: a SIEVE hit only needs to
// set an atomic visited bit, which does not require exclusive access.
type sharedGetter interface {
	// PeekHit looks up key without taking the policy's exclusive lock
	// semantics into account (the caller is expected to hold at most a
	// read lock). It reports a hit only for a fresh (non-expired) entry;
	// expired or absent entries are left for the exclusive path to
	// reconcile (remove/count-miss). PeekHit never mutates the list; on a
	// fresh hit it sets the atomic visited bit and increments the atomic
	// hit counter, and it leaves the miss counter untouched.
	PeekHit(key string) (value *CachedValue, ok bool, expired bool)
}
