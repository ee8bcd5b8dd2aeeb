package bezier

import (
	"math"
	"testing"
)

func approxEq(a, b, eps float32) bool {
	return math.Abs(float64(a-b)) <= float64(eps)
}

func TestLinearCurve(t *testing.T) {
	c := New(Point{0.25, 0.25}, Point{0.75, 0.75}, 100)

	if got := c.Value(0.0); !approxEq(got, 0.0, 1e-4) {
		t.Errorf("value(0.0) = %v, want ~0", got)
	}
	if got := c.Value(0.5); !approxEq(got, 0.5, 0.05) {
		t.Errorf("value(0.5) = %v, want ~0.5 (+-0.05)", got)
	}
	if got := c.Value(1.0); !approxEq(got, 1.0, 1e-4) {
		t.Errorf("value(1.0) = %v, want ~1.0", got)
	}
}

func TestEaseInCurve(t *testing.T) {
	c := New(Point{0.42, 0.0}, Point{1.0, 1.0}, 100)
	if got := c.Value(0.25); got >= 0.25 {
		t.Errorf("value(0.25) = %v, want < 0.25", got)
	}
}

func TestMonotoneForMonotoneControlPoints(t *testing.T) {
	c := New(Point{0.3, 0.1}, Point{0.7, 0.9}, 50)
	prev := float32(-1)
	for i := 0; i <= 20; i++ {
		x := float32(i) / 20
		y := c.Value(x)
		if y < prev {
			t.Fatalf("sequence not monotone at x=%v: %v < %v", x, y, prev)
		}
		prev = y
	}
}

func TestDegeneratePairReturnsLowerY(t *testing.T) {
	c := &Curve{samples: []Point{{0, 0}, {0.5, 0.2}, {0.5, 0.8}, {1, 1}}}
	if got := c.Value(0.5); got != 0.2 {
		t.Errorf("degenerate pair value = %v, want 0.2 (lower y)", got)
	}
}
