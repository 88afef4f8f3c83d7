package cache

import "testing"

func TestArena_PushHeadAndGet(t *testing.T) {
	t.Parallel()

	a := newArena(3)
	v := &CachedValue{}
	idx, ok := a.pushHead("a", v)
	if !ok {
		t.Fatal("pushHead must succeed under capacity")
	}
	if a.head != idx || a.tail != idx {
		t.Fatalf("single element must be both head and tail, got head=%d tail=%d idx=%d", a.head, a.tail, idx)
	}
	n := a.get(idx)
	if n == nil || n.key != "a" {
		t.Fatalf("get(idx) = %v, want key=a", n)
	}
}

func TestArena_CapacityExhaustion(t *testing.T) {
	t.Parallel()

	a := newArena(2)
	if _, ok := a.pushHead("a", &CachedValue{}); !ok {
		t.Fatal("first push must succeed")
	}
	if _, ok := a.pushHead("b", &CachedValue{}); !ok {
		t.Fatal("second push must succeed")
	}
	if _, ok := a.pushHead("c", &CachedValue{}); ok {
		t.Fatal("pushHead beyond capacity must return false")
	}
}

func TestArena_RemoveMiddleRelinksNeighbors(t *testing.T) {
	t.Parallel()

	a := newArena(3)
	ia, _ := a.pushHead("a", &CachedValue{}) // head
	ib, _ := a.pushHead("b", &CachedValue{}) // head: b -> a (tail)
	ic, _ := a.pushHead("c", &CachedValue{}) // head: c -> b -> a (tail)

	if a.head != ic || a.tail != ia {
		t.Fatalf("expected head=c tail=a, got head=%d(c=%d) tail=%d(a=%d)", a.head, ic, a.tail, ia)
	}

	// Remove middle (b).
	removed, ok := a.remove(ib)
	if !ok || removed.key != "b" {
		t.Fatalf("remove(b) = %v, %v", removed, ok)
	}
	if a.len() != 2 {
		t.Fatalf("len = %d, want 2", a.len())
	}
	// c and a should now be directly linked.
	cNode := a.get(ic)
	if cNode.next != ia {
		t.Fatalf("c.next = %d, want a(%d)", cNode.next, ia)
	}
	aNode := a.get(ia)
	if aNode.prev != ic {
		t.Fatalf("a.prev = %d, want c(%d)", aNode.prev, ic)
	}
}

func TestArena_RemoveLastElementClearsHeadTail(t *testing.T) {
	t.Parallel()

	a := newArena(1)
	idx, _ := a.pushHead("only", &CachedValue{})
	if _, ok := a.remove(idx); !ok {
		t.Fatal("remove must succeed")
	}
	if a.head != nilIndex || a.tail != nilIndex {
		t.Fatalf("head/tail must be nilIndex after removing last element, got head=%d tail=%d", a.head, a.tail)
	}
	if a.len() != 0 {
		t.Fatalf("len = %d, want 0", a.len())
	}
}

func TestArena_MoveToHeadTolerantOfTail(t *testing.T) {
	t.Parallel()

	a := newArena(3)
	ia, _ := a.pushHead("a", &CachedValue{})
	ib, _ := a.pushHead("b", &CachedValue{})
	_, _ = a.pushHead("c", &CachedValue{}) // head=c, tail=a

	a.moveToHead(ia) // a was tail; now promote it to head
	if a.head != ia {
		t.Fatalf("head = %d, want a(%d)", a.head, ia)
	}
	if a.tail != ib {
		t.Fatalf("tail = %d, want b(%d) after promoting old tail", a.tail, ib)
	}
}

func TestArena_OccupiedPlusFreeEqualsCapacity(t *testing.T) {
	t.Parallel()

	a := newArena(4)
	a.pushHead("a", &CachedValue{})
	a.pushHead("b", &CachedValue{})
	idxC, _ := a.pushHead("c", &CachedValue{})
	a.remove(idxC)

	if a.occupiedSlotsCount()+len(a.freeList) != a.cap() {
		t.Fatalf("occupied(%d) + free(%d) != capacity(%d)", a.occupiedSlotsCount(), len(a.freeList), a.cap())
	}
}
