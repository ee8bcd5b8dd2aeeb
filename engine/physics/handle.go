// Package physics defines the narrow opaque-handle contract the bridge
// uses to drive an external rigid-body engine, plus the bridge itself
// (rigid body / joint construction from PMX records, the per-frame
// sync-step-sync cycle, and inertia injection).
//
// No concrete third-party rigid-body engine binding is wired: none
// exists in the reference corpus this module was grounded on. See
// refworld for a minimal reference implementation used to exercise and
// test the bridge.
package physics

import "github.com/go-gl/mathgl/mgl32"

// Shape is an opaque collision shape handle.
type Shape interface{}

// Constraint is an opaque joint/constraint handle.
type Constraint interface{}

// Body is an opaque rigid-body handle.
type Body interface {
	SetTransform(m mgl32.Mat4)
	GetTransform() mgl32.Mat4
	SetLinearVelocity(v mgl32.Vec3)
	GetLinearVelocity() mgl32.Vec3
	SetAngularVelocity(v mgl32.Vec3)
	GetAngularVelocity() mgl32.Vec3
	ApplyCentralForce(f mgl32.Vec3)
	ClearForces()
	GetMass() float32
}

// World is an opaque rigid-body world handle.
type World interface {
	AddRigidBody(body Body, group int32, mask uint16)
	AddConstraint(c Constraint, disableCollisionsBetweenLinked bool)
	Step(dt float32, maxSubsteps int, fixedDt float32)
	RemoveRigidBody(body Body)
	RemoveConstraint(c Constraint)
	SetGravity(g mgl32.Vec3)
}

// SpringConfig carries 6-DOF spring constraint parameters; the bound
// physics engine is responsible for the actual spring behavior.
type SpringConfig struct {
	PositionMin, PositionMax mgl32.Vec3
	RotationMin, RotationMax mgl32.Vec3
	PositionSpring           mgl32.Vec3
	RotationSpring           mgl32.Vec3
}

// Factory constructs worlds, shapes, bodies, and constraints. A
// concrete binding implements Factory against its native engine; see
// refworld for a minimal pure-Go reference.
type Factory interface {
	NewWorld(gravity mgl32.Vec3) World
	NewSphereShape(radius float32) Shape
	NewBoxShape(halfExtents mgl32.Vec3) Shape
	NewCapsuleShape(radius, height float32) Shape
	NewBody(shape Shape, mass float32, transform mgl32.Mat4, linearDamping, angularDamping, friction, restitution float32) (Body, error)
	NewSpring6DofConstraint(bodyA, bodyB Body, frameA, frameB mgl32.Mat4, spring SpringConfig) (Constraint, error)
}
