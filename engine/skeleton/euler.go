package skeleton

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const twoPi = 2 * math.Pi

// DecomposeEulerXYZ returns Euler angles (rx, ry, rz) such that
// M = Rx * Ry * Rz, then passes the result through FindClosestEuler for
// temporal continuity. At the gimbal-lock singularity (|sy| ~ 1) it
// holds rz at prev.z and solves rx from the coupled angle; it does not
// choose between zero/pi branches from prev.x.
func DecomposeEulerXYZ(m mgl32.Mat3, prev mgl32.Vec3) mgl32.Vec3 {
	// Column-major Mat3: m[col*3+row]. For M = Rx*Ry*Rz acting on
	// column vectors, M[0][2] = m[6] = sin(ry).
	sy := m[6]

	var rx, ry, rz float32

	if 1-float32(math.Abs(float64(sy))) < 1e-6 {
		ry = float32(math.Asin(float64(clamp(sy, -1, 1))))
		// Gimbal lock: rx and rz become coupled (only their sum/difference
		// is determined). Resolve by keeping prev.z fixed and solving rx.
		rz = prev.Z()
		if sy > 0 {
			rx = float32(math.Atan2(float64(m[1]), float64(m[4]))) - rz
		} else {
			rx = float32(math.Atan2(float64(-m[1]), float64(m[4]))) + rz
		}
	} else {
		ry = float32(math.Asin(float64(sy)))
		rx = float32(math.Atan2(float64(-m[7]), float64(m[8])))
		rz = float32(math.Atan2(float64(-m[3]), float64(m[0])))
	}

	return FindClosestEuler(mgl32.Vec3{rx, ry, rz}, prev)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// FindClosestEuler picks, among the candidate's two equivalent Euler
// representations (the value itself, and the flipped representation
// (rx+pi, pi-ry, rz+pi) with each component additionally reduced to its
// nearest 2*pi-shifted copy of prev), whichever minimizes the summed
// absolute per-axis difference to prev. This guarantees temporal
// continuity across frames for both the normal and gimbal-lock branches.
func FindClosestEuler(candidate, prev mgl32.Vec3) mgl32.Vec3 {
	normal := nearestShift(candidate, prev)

	flipped := mgl32.Vec3{
		candidate.X() + math.Pi,
		math.Pi - candidate.Y(),
		candidate.Z() + math.Pi,
	}
	flipped = nearestShift(flipped, prev)

	if periodicDiffSum(flipped, prev) < periodicDiffSum(normal, prev) {
		return flipped
	}
	return normal
}

// nearestShift shifts each component of v by a multiple of 2*pi to land
// as close as possible to the corresponding component of prev.
func nearestShift(v, prev mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{
		shiftNear(v.X(), prev.X()),
		shiftNear(v.Y(), prev.Y()),
		shiftNear(v.Z(), prev.Z()),
	}
}

func shiftNear(a, target float32) float32 {
	diff := a - target
	k := math.Round(float64(diff) / twoPi)
	return a - float32(k)*twoPi
}

func periodicDiffSum(v, prev mgl32.Vec3) float32 {
	return absf(v.X()-prev.X()) + absf(v.Y()-prev.Y()) + absf(v.Z()-prev.Z())
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
