// Package bezier implements the cubic Bézier curve evaluator used to
// interpolate bone and morph keyframes. Control points are always in
// [0,1]^2 with fixed endpoints at (0,0) and (1,1), matching the MMD
// VMD interpolation convention.
package bezier

import "sort"

// Point is a single precomputed sample of the curve.
type Point struct {
	X, Y float32
}

// Curve is a precomputed, monotonically-x-sorted sampling of a cubic
// Bézier curve with control points c0, c1 and fixed endpoints (0,0)/(1,1).
type Curve struct {
	c0, c1   Point
	interval int
	samples  []Point
}

// New precomputes interval+1 samples of the curve for t uniformly spaced
// in [0,1], then sorts them by X so Value can binary/linear scan for the
// bracketing pair. interval is clamped to at least 1.
func New(c0, c1 Point, interval int) *Curve {
	if interval < 1 {
		interval = 1
	}
	samples := make([]Point, interval+1)
	for i := 0; i <= interval; i++ {
		t := float32(i) / float32(interval)
		samples[i] = cubicBezier(t, c0, c1)
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].X < samples[j].X })
	return &Curve{c0: c0, c1: c1, interval: interval, samples: samples}
}

// cubicBezier evaluates B(t) for the curve with endpoints P0=(0,0), P1=(1,1)
// and control points c0, c1.
func cubicBezier(t float32, c0, c1 Point) Point {
	u := 1 - t
	// B(t) = (1-t)^3*P0 + 3(1-t)^2*t*c0 + 3(1-t)*t^2*c1 + t^3*P1
	// P0 = (0,0), so the (1-t)^3*P0 term is always zero and omitted below.
	b := 3 * u * u * t
	c := 3 * u * t * t
	d := t * t * t
	return Point{
		X: b*c0.X + c*c1.X + d,
		Y: b*c0.Y + c*c1.Y + d,
	}
}

// Interval reports the interval this curve was built with; the curve
// holds Interval()+1 samples.
func (c *Curve) Interval() int { return c.interval }

// Value returns y = value(x) by scanning the sorted sample sequence
// forward for the bracketing pair and linearly interpolating on y.
// A degenerate pair (equal x) returns the lower sample's y.
func (c *Curve) Value(x float32) float32 {
	if len(c.samples) == 0 {
		return x
	}
	if x <= c.samples[0].X {
		return c.samples[0].Y
	}
	last := c.samples[len(c.samples)-1]
	if x >= last.X {
		return last.Y
	}
	for i := 0; i < len(c.samples)-1; i++ {
		p0, p1 := c.samples[i], c.samples[i+1]
		if x >= p0.X && x <= p1.X {
			if p1.X == p0.X {
				return p0.Y
			}
			t := (x - p0.X) / (p1.X - p0.X)
			return p0.Y + t*(p1.Y-p0.Y)
		}
	}
	return last.Y
}
