package cache

import "testing"

func TestFIFO_GetDoesNotPromote(t *testing.T) {
	t.Parallel()

	c := NewFIFO(2)
	clk := newFakeClock()
	c.Insert("a", NewCachedValue(200, nil, nil, 0, clk))
	c.Insert("b", NewCachedValue(200, nil, nil, 0, clk))
	c.Get("a") // must NOT promote a in FIFO
	c.Insert("c", NewCachedValue(200, nil, nil, 0, clk))

	if _, ok := c.Get("a"); ok {
		t.Fatal("a must be evicted: FIFO ignores the read and evicts oldest insertion order")
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatal("b must still be present")
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatal("c must be present (just inserted)")
	}
}

func TestFIFO_ReinsertMovesToHead(t *testing.T) {
	t.Parallel()

	c := NewFIFO(2)
	clk := newFakeClock()
	c.Insert("a", NewCachedValue(200, nil, nil, 0, clk))
	c.Insert("b", NewCachedValue(200, nil, nil, 0, clk))
	c.Insert("a", NewCachedValue(200, nil, []byte("v2"), 0, clk)) // re-insert moves a to head
	c.Insert("c", NewCachedValue(200, nil, nil, 0, clk))          // must evict b (now oldest), not a

	if _, ok := c.Get("b"); ok {
		t.Fatal("b must be evicted (oldest after a's re-insert)")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a must survive (re-inserted, now newest)")
	}
}

func TestFIFO_CapacityPanic(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Fatal("NewFIFO(0) must panic")
		}
	}()
	NewFIFO(0)
}
