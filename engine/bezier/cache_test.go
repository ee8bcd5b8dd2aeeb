package bezier

import "testing"

func TestCacheIdentity(t *testing.T) {
	cache := NewCache()
	c0, c1 := Point{0.25, 0.1}, Point{0.75, 0.9}

	a := cache.GetOrNew(c0, c1, 50)
	b := cache.GetOrNew(c0, c1, 50)

	if a != b {
		t.Errorf("GetOrNew with identical (c0,c1) returned distinct instances")
	}
}

func TestCacheRebuildsOnWiderInterval(t *testing.T) {
	cache := NewCache()
	c0, c1 := Point{0.25, 0.1}, Point{0.75, 0.9}

	a := cache.GetOrNew(c0, c1, 10)
	b := cache.GetOrNew(c0, c1, 100)

	if a == b {
		t.Errorf("expected cache to rebuild for a wider interval request")
	}
	if b.Interval() != 100 {
		t.Errorf("Interval() = %d, want 100", b.Interval())
	}
}

func TestCloneIsEmpty(t *testing.T) {
	cache := NewCache()
	c0, c1 := Point{0.25, 0.1}, Point{0.75, 0.9}
	cache.GetOrNew(c0, c1, 50)

	clone := cache.Clone()
	if len(clone.entries) != 0 {
		t.Errorf("Clone() entries = %d, want 0", len(clone.entries))
	}
}
