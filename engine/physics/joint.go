package physics

import "github.com/go-gl/mathgl/mgl32"

// JointType enumerates PMX joint variants. Only the 6-DOF spring form
// is exercised by the bridge; the others are accepted for format
// completeness and constructed through the same SpringConfig entry
// point, since the underlying engine is responsible for 6-DOF spring
// behavior regardless of the declared PMX sub-type.
type JointType int

const (
	JointSpring6DOF JointType = iota
	JointSixDof
	JointP2P
	JointConeTwist
	JointSlider
	JointHinge
)

// JointDef is the build-time, PMX-sourced description of one joint.
type JointDef struct {
	Name           string
	Type           JointType
	RigidBodyAIdx  int
	RigidBodyBIdx  int
	Position       mgl32.Vec3
	Rotation       mgl32.Vec3
	PositionMin    mgl32.Vec3
	PositionMax    mgl32.Vec3
	RotationMin    mgl32.Vec3
	RotationMax    mgl32.Vec3
	PositionSpring mgl32.Vec3
	RotationSpring mgl32.Vec3
}

// joint is the built runtime record.
type joint struct {
	def        JointDef
	constraint Constraint // nil if construction failed or skipped
}
