package cache

import "time"

// Header is a single HTTP-style header name/value pair. Headers are kept
// as an ordered slice (not a map) because HTTP permits repeated header
// names and callers may care about order when replaying a cached response.
type Header struct {
	Name  string
	Value string
}

// CachedValue is an immutable record once inserted into a policy: the
// status/headers/body of a cached HTTP response plus the bookkeeping
// needed to decide expiry. Construct with NewCachedValue; do not mutate
// a CachedValue's fields after sharing it with a policy — callers that
// need a new value should insert a new CachedValue rather than edit one
// in place, since a shared pointer may be held by a caller concurrently.
type CachedValue struct {
	Status     int
	Headers    []Header
	Body       []byte
	insertedAt time.Time
	ttl        time.Duration
	clock      Clock
}

// NewCachedValue builds a CachedValue stamped with the current time from
// clock (or the real monotonic clock if clock is nil). A non-positive ttl
// means the entry never expires on its own (it can still be evicted).
func NewCachedValue(status int, headers []Header, body []byte, ttl time.Duration, clock Clock) *CachedValue {
	if clock == nil {
		clock = realClock{}
	}
	return &CachedValue{
		Status:     status,
		Headers:    headers,
		Body:       body,
		insertedAt: clock.Now(),
		ttl:        ttl,
		clock:      clock,
	}
}

// IsExpired reports whether now - insertedAt > ttl, using the monotonic
// clock the value was stamped with. A non-positive ttl never expires.
func (v *CachedValue) IsExpired() bool {
	if v.ttl <= 0 {
		return false
	}
	return v.clock.Now().Sub(v.insertedAt) > v.ttl
}

// TTLRemaining returns the duration left before expiry, or false if the
// entry has no TTL or has already expired.
func (v *CachedValue) TTLRemaining() (time.Duration, bool) {
	if v.ttl <= 0 {
		return 0, false
	}
	remaining := v.ttl - v.clock.Now().Sub(v.insertedAt)
	if remaining <= 0 {
		return 0, false
	}
	return remaining, true
}

// InsertedAt returns the monotonic instant the value was stamped at.
func (v *CachedValue) InsertedAt() time.Time { return v.insertedAt }

// TTL returns the value's configured time-to-live.
func (v *CachedValue) TTL() time.Duration { return v.ttl }

// Stats is a point-in-time snapshot of a policy's (or sharded cache's)
// counters. Counters are monotonically non-decreasing for the lifetime of
// the policy/cache they were read from.
type Stats struct {
	Name       string
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Size       int
	Capacity   int
}

// Clock abstracts the passage of monotonic time so tests can advance time
// deterministically instead of sleeping real wall-clock durations.
type Clock interface {
	Now() time.Time
}

// realClock is the default Clock, backed by time.Now (which on every
// supported platform returns a value with a monotonic reading attached).
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// RealClock returns the default, real-time Clock implementation.
func RealClock() Clock { return realClock{} }
