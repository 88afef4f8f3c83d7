package cache

import "testing"

func TestCacheLayer_BenchModeSkipsComparison(t *testing.T) {
	t.Parallel()

	primary := NewSharded(640, NewSieveFactory())
	comparison := NewSharded(640, NewLRUFactory())
	layer := NewCacheLayer(primary, comparison, ModeBench)

	layer.Insert("a", layer.BuildValue(200, nil, []byte("v"), 0))
	res := layer.Get("a")
	if !res.Hit {
		t.Fatal("primary must hit")
	}
	if res.ComparisonSeen {
		t.Fatal("bench mode must not touch the comparison cache")
	}
	if _, ok := comparison.Get("a"); ok {
		t.Fatal("comparison cache must never receive bench-mode traffic")
	}
}

func TestCacheLayer_DemoModeMirrorsTraffic(t *testing.T) {
	t.Parallel()

	primary := NewSharded(640, NewSieveFactory())
	comparison := NewSharded(640, NewLRUFactory())
	layer := NewCacheLayer(primary, comparison, ModeDemo)

	layer.Insert("a", layer.BuildValue(200, nil, []byte("v"), 0))
	res := layer.Get("a")
	if !res.Hit || !res.ComparisonSeen || !res.ComparisonHit {
		t.Fatalf("demo mode must mirror hits onto the comparison cache, got %+v", res)
	}
}

func TestCacheLayer_ModeTogglesAtomically(t *testing.T) {
	t.Parallel()

	layer := NewCacheLayer(NewSharded(640, NewSieveFactory()), nil, ModeBench)
	if layer.IsDemoMode() {
		t.Fatal("must start in bench mode")
	}
	layer.SetMode(ModeDemo)
	if !layer.IsDemoMode() {
		t.Fatal("SetMode(ModeDemo) must flip the mode")
	}
}

func TestLayerPointer_SwapIsAtomicAndVisible(t *testing.T) {
	t.Parallel()

	first := NewCacheLayer(NewSharded(640, NewSieveFactory()), nil, ModeBench)
	lp := NewLayerPointer(first)
	first.Insert("a", first.BuildValue(200, nil, []byte("v"), 0))

	second := NewCacheLayer(NewSharded(640, NewLRUFactory()), nil, ModeBench)
	old := lp.Swap(second)
	if old != first {
		t.Fatal("Swap must return the previous layer")
	}
	if lp.Load() != second {
		t.Fatal("Load must observe the swapped-in layer")
	}
	if lp.Load().Get("a").Hit {
		t.Fatal("the new layer must not see entries inserted into the old, discarded layer")
	}
}
