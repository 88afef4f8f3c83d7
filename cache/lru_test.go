package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestLRU_GetPromotesToMRU(t *testing.T) {
	t.Parallel()

	c := NewLRU(2)
	clk := newFakeClock()
	c.Insert("a", NewCachedValue(200, nil, nil, 0, clk))
	c.Insert("b", NewCachedValue(200, nil, nil, 0, clk))
	c.Get("a") // promotes a to MRU; b becomes LRU
	c.Insert("c", NewCachedValue(200, nil, nil, 0, clk))

	if _, ok := c.Get("a"); !ok {
		t.Fatal("a must survive (promoted)")
	}
	if _, ok := c.Get("b"); ok {
		t.Fatal("b must be evicted (was LRU)")
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatal("c must be present (just inserted)")
	}
}

func TestLRU_TTLExpiry(t *testing.T) {
	t.Parallel()

	c := NewLRU(4)
	clk := newFakeClock()
	c.Insert("x", NewCachedValue(200, nil, nil, 100*time.Millisecond, clk))
	if _, ok := c.Get("x"); !ok {
		t.Fatal("fresh hit expected")
	}
	clk.advance(200 * time.Millisecond)
	if _, ok := c.Get("x"); ok {
		t.Fatal("expired entry must miss")
	}
}

func TestLRU_ReinsertPreservesLen(t *testing.T) {
	t.Parallel()

	c := NewLRU(4)
	clk := newFakeClock()
	c.Insert("a", NewCachedValue(200, nil, nil, 0, clk))
	c.Insert("a", NewCachedValue(200, nil, []byte("new"), 0, clk))

	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 after re-insert", c.Len())
	}
	v, ok := c.Get("a")
	if !ok || string(v.Body) != "new" {
		t.Fatalf("Get(a) = %v, %v, want updated value", v, ok)
	}
}

func TestLRU_RemoveThenGetMisses(t *testing.T) {
	t.Parallel()

	c := NewLRU(2)
	clk := newFakeClock()
	c.Insert("a", NewCachedValue(200, nil, nil, 0, clk))
	if !c.Remove("a") {
		t.Fatal("Remove(a) must report true")
	}
	if c.Remove("a") {
		t.Fatal("second Remove(a) must report false")
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal("a must be absent after Remove")
	}
	if c.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", c.Len())
	}
}

func TestLRU_LenNeverExceedsCapacity(t *testing.T) {
	t.Parallel()

	c := NewLRU(3)
	clk := newFakeClock()
	for i := 0; i < 50; i++ {
		c.Insert(fmt.Sprintf("k%d", i), NewCachedValue(200, nil, nil, 0, clk))
		if c.Len() > c.Capacity() {
			t.Fatalf("Len() = %d exceeded Capacity() = %d", c.Len(), c.Capacity())
		}
	}
}
