package physics

import "github.com/go-gl/mathgl/mgl32"

// ShapeKind identifies a PMX rigid-body collision shape.
type ShapeKind int

const (
	ShapeSphere ShapeKind = iota
	ShapeBox
	ShapeCapsule
)

// Mode identifies a PMX rigid-body's kinematic/dynamic behavior.
type Mode int

const (
	ModeFollowBone Mode = iota
	ModePhysics
	ModePhysicsWithBone
)

// RigidBodyDef is the build-time, PMX-sourced description of one rigid
// body.
type RigidBodyDef struct {
	Name              string
	BoneIndex         int
	Group             uint8 // 0..15
	GroupMask         uint16
	Shape             ShapeKind
	Size              mgl32.Vec3
	Position          mgl32.Vec3 // left-hand, MMD space
	Rotation          mgl32.Vec3 // left-hand Euler radians
	Mass              float32
	MoveAttenuation   float32
	RotationAttenuation float32
	Repulsion         float32
	Friction          float32
	Mode              Mode
}

// rigidBody is the built runtime record: opaque handles plus the
// geometry needed to convert between bone space and body space each
// frame.
type rigidBody struct {
	def RigidBodyDef

	shape Shape
	body  Body // nil if construction failed; skipped thereafter

	// initialTransform is the body's left-hand bind transform, built at
	// build time from the record's own Position/Rotation (MMD model
	// space); the bound bone's inv_z world matrix enters only restOffset.
	initialTransform mgl32.Mat4
	// restOffset is initialTransform relative to the bone's bind pose,
	// used to reconstruct bone-space transforms from body-space ones and
	// vice versa every frame.
	restOffset mgl32.Mat4
}

// computeBodyMatrix derives the body-space transform from a bone's
// current left-hand world matrix using the rigid body's rest offset.
func (rb *rigidBody) computeBodyMatrix(boneLeft mgl32.Mat4) mgl32.Mat4 {
	return boneLeft.Mul4(rb.restOffset)
}

// computeBoneMatrix derives the bone-space transform from the body's
// current left-hand world matrix (Physics mode: full pose contribution).
func (rb *rigidBody) computeBoneMatrix(bodyMatrix mgl32.Mat4) mgl32.Mat4 {
	return bodyMatrix.Mul4(rb.restOffset.Inv())
}

// computeBoneMatrixRotationOnly derives the bone-space transform from
// the body's rotation only, keeping posLeft as the translation
// (PhysicsWithBone mode).
func computeBoneMatrixRotationOnly(bodyMatrix mgl32.Mat4, posLeft mgl32.Vec3) mgl32.Mat4 {
	rot := bodyMatrix
	rot[12], rot[13], rot[14] = 0, 0, 0
	out := rot
	out[12], out[13], out[14] = posLeft.X(), posLeft.Y(), posLeft.Z()
	return out
}
