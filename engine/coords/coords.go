// Package coords implements the single Z-negation boundary conversion
// used at every PMX/VMD ingress point and at the physics-bridge
// boundary: all externally visible MMD data is left-hand Z-forward,
// the engine interior is right-hand Z-backward, and the physics
// engine's own interior is left-hand again (hence a second flip there).
package coords

import "github.com/go-gl/mathgl/mgl32"

// InvZVec3 negates the Z component.
func InvZVec3(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{v.X(), v.Y(), -v.Z()}
}

// InvZQuat negates the z and w components and renormalizes, matching
// the VMD ingress conversion.
func InvZQuat(q mgl32.Quat) mgl32.Quat {
	out := mgl32.Quat{W: -q.W, V: mgl32.Vec3{q.V[0], q.V[1], -q.V[2]}}
	return out.Normalize()
}

// InvZMat4 negates the matrix's Z row and column, converting a
// transform between the two handedness conventions while preserving
// its translation/rotation structure.
func InvZMat4(m mgl32.Mat4) mgl32.Mat4 {
	out := m
	// Negate row 2 (z-producing row) and column 2 (z input column).
	for col := 0; col < 4; col++ {
		out[col*4+2] = -out[col*4+2]
	}
	for row := 0; row < 4; row++ {
		out[2*4+row] = -out[2*4+row]
	}
	// The (2,2) element was negated twice above and so already has its
	// original sign; the assignment states that explicitly.
	out[2*4+2] = m[2*4+2]
	return out
}
