package cache

import (
	"sync/atomic"
	"time"
)

// Mode selects whether CacheLayer exercises one or two caches per request.
type Mode int

const (
	// ModeBench exercises only the primary cache — the shape used when
	// measuring one policy's throughput/hit-rate in isolation.
	ModeBench Mode = iota
	// ModeDemo updates and queries both the primary and comparison
	// caches on every call (the comparison result is discarded; only its
	// counters are consumed) so side-by-side hit-rate comparisons see
	// identical access streams.
	ModeDemo
)

func (m Mode) String() string {
	if m == ModeDemo {
		return "demo"
	}
	return "bench"
}

// Lookup is the result of CacheLayer.Get: the primary value (if any) plus
// whether the comparison cache (when present and in demo mode) also hit.
type Lookup struct {
	Value          *CachedValue
	Hit            bool
	ComparisonHit  bool
	ComparisonSeen bool
}

// CacheLayer is the facade external collaborators (the HTTP proxy, the
// RESP adapter, the metrics broadcaster) consume. It wraps a primary
// ShardedCache and an optional comparison ShardedCache for demo-mode
// side-by-side hit-rate benchmarking, plus a demo/bench mode toggle.
type CacheLayer struct {
	primary    *ShardedCache
	comparison *ShardedCache // nil if no comparison policy configured
	mode       atomic.Int32
}

// NewCacheLayer builds a facade around primary and an optional comparison
// cache. comparison may be nil, in which case demo mode behaves exactly
// like bench mode (there is nothing to compare against).
func NewCacheLayer(primary, comparison *ShardedCache, mode Mode) *CacheLayer {
	l := &CacheLayer{primary: primary, comparison: comparison}
	l.SetMode(mode)
	return l
}

// Mode reports the facade's current mode.
func (l *CacheLayer) Mode() Mode { return Mode(l.mode.Load()) }

// IsDemoMode reports whether the facade is currently in demo mode.
func (l *CacheLayer) IsDemoMode() bool { return l.Mode() == ModeDemo }

// SetMode flips the facade's mode atomically; no reconstruction.
func (l *CacheLayer) SetMode(m Mode) { l.mode.Store(int32(m)) }

// BuildValue stamps a new CachedValue using the layer's default clock.
func (l *CacheLayer) BuildValue(status int, headers []Header, body []byte, ttl time.Duration) *CachedValue {
	return NewCachedValue(status, headers, body, ttl, RealClock())
}

// Get looks up key in the primary cache. In demo mode it also queries the
// comparison cache (for its counters only) so both caches see the same
// read traffic; the comparison cache's value is never returned to the
// caller.
func (l *CacheLayer) Get(key string) Lookup {
	v, ok := l.primary.Get(key)
	out := Lookup{Value: v, Hit: ok}
	if l.IsDemoMode() && l.comparison != nil {
		_, cok := l.comparison.Get(key)
		out.ComparisonSeen = true
		out.ComparisonHit = cok
	}
	return out
}

// Insert writes key/value into the primary cache, and into the
// comparison cache too when in demo mode, keeping both caches' access
// streams identical.
func (l *CacheLayer) Insert(key string, value *CachedValue) {
	l.primary.Insert(key, value)
	if l.IsDemoMode() && l.comparison != nil {
		l.comparison.Insert(key, value)
	}
}

// Remove deletes key from the primary cache (and the comparison cache in
// demo mode).
func (l *CacheLayer) Remove(key string) bool {
	ok := l.primary.Remove(key)
	if l.IsDemoMode() && l.comparison != nil {
		l.comparison.Remove(key)
	}
	return ok
}

// TTLRemaining reports the remaining TTL for key in the primary cache, for
// the RESP adapter's TTL command.
func (l *CacheLayer) TTLRemaining(key string) (time.Duration, bool) {
	v, ok := l.primary.Get(key)
	if !ok {
		return 0, false
	}
	return v.TTLRemaining()
}

// PrimaryStats returns the primary cache's aggregated statistics.
func (l *CacheLayer) PrimaryStats() Stats { return l.primary.Stats() }

// ComparisonStats returns the comparison cache's aggregated statistics,
// or the zero value and false if no comparison cache is configured.
func (l *CacheLayer) ComparisonStats() (Stats, bool) {
	if l.comparison == nil {
		return Stats{}, false
	}
	return l.comparison.Stats(), true
}

// PrimaryName returns the primary cache's policy name.
func (l *CacheLayer) PrimaryName() string { return l.primary.Name() }

// ComparisonName returns the comparison cache's policy name, or "" if
// none is configured.
func (l *CacheLayer) ComparisonName() string {
	if l.comparison == nil {
		return ""
	}
	return l.comparison.Name()
}

// Len returns the primary cache's total resident entry count.
func (l *CacheLayer) Len() int { return l.primary.Len() }

// Capacity returns the primary cache's total capacity.
func (l *CacheLayer) Capacity() int { return l.primary.Capacity() }

// LayerPointer is an atomically swappable pointer to a CacheLayer, used
// by configuration hot-reload to replace capacity/TTL/policy without
// readers ever observing a partially-constructed cache. Capacity is not
// resized in place; hot-reload builds a new CacheLayer and swaps it in,
// discarding the old instance's resident entries.
type LayerPointer struct {
	p atomic.Pointer[CacheLayer]
}

// NewLayerPointer wraps an initial CacheLayer.
func NewLayerPointer(initial *CacheLayer) *LayerPointer {
	lp := &LayerPointer{}
	lp.p.Store(initial)
	return lp
}

// Load returns the currently active CacheLayer.
func (lp *LayerPointer) Load() *CacheLayer { return lp.p.Load() }

// Swap atomically replaces the active CacheLayer and returns the previous
// one.
func (lp *LayerPointer) Swap(next *CacheLayer) *CacheLayer { return lp.p.Swap(next) }
