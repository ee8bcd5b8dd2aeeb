package skeleton

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestDecomposeEulerXYZRoundTrip(t *testing.T) {
	cases := []mgl32.Vec3{
		{0.3, -0.2, 0.5},
		{-1.0, 0.7, 0.1},
		{0, 0, 0},
		{0.01, -1.2, 2.0},
	}
	for _, want := range cases {
		q := eulerToQuatXYZ(want)
		got := DecomposeEulerXYZ(q.Mat4().Mat3(), want)
		for axis := 0; axis < 3; axis++ {
			if diff := math.Abs(float64(got[axis] - want[axis])); diff > 1e-4 {
				t.Errorf("round trip %v: axis %d got %v", want, axis, got[axis])
			}
		}
	}
}

func TestDecomposeEulerGimbalLockStaysNearPrev(t *testing.T) {
	prev := mgl32.Vec3{0.4, 1.5, -0.1}
	q := eulerToQuatXYZ(mgl32.Vec3{0.4, float32(math.Pi / 2), -0.1})
	got := DecomposeEulerXYZ(q.Mat4().Mat3(), prev)

	rebuilt := eulerToQuatXYZ(got)
	if dot := math.Abs(float64(rebuilt.Dot(q))); dot < 0.9999 {
		t.Errorf("gimbal-lock branch changed the rotation: dot=%v (angles %v)", dot, got)
	}
}

func TestFindClosestEulerPrefersContinuity(t *testing.T) {
	prev := mgl32.Vec3{float32(2 * math.Pi), 0, 0}
	got := FindClosestEuler(mgl32.Vec3{0, 0, 0}, prev)
	if diff := math.Abs(float64(got.X() - prev.X())); diff > 1e-5 {
		t.Errorf("expected 2*pi-shifted candidate, got %v", got)
	}
}
