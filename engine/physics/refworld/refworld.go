// Package refworld is a minimal pure-Go reference implementation of the
// physics.Factory/World/Body/Shape/Constraint contract. It exists to
// exercise and test the bridge in this module: no real third-party
// rigid-body engine binding exists anywhere in the reference corpus
// this module was grounded on. It integrates with semi-implicit Euler
// and a very small 6-DOF spring constraint; it does no broad or
// narrow-phase collision detection between bodies.
package refworld

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hoshizora/mmd-engine/engine/physics"
)

// SphereShape is a reference collision shape.
type SphereShape struct{ Radius float32 }

// BoxShape is a reference collision shape.
type BoxShape struct{ HalfExtents mgl32.Vec3 }

// CapsuleShape is a reference collision shape.
type CapsuleShape struct {
	Radius, Height float32
}

// Body is a reference rigid body: position/orientation plus linear and
// angular velocity, integrated with semi-implicit Euler.
type Body struct {
	shape  interface{}
	mass   float32
	invMass float32

	linearDamping, angularDamping float32
	friction, restitution         float32

	pos mgl32.Vec3
	rot mgl32.Quat

	linearVel  mgl32.Vec3
	angularVel mgl32.Vec3

	force mgl32.Vec3
}

func (b *Body) SetTransform(m mgl32.Mat4) {
	b.pos = mgl32.Vec3{m[12], m[13], m[14]}
	b.rot = mgl32.Mat4ToQuat(m)
}

func (b *Body) GetTransform() mgl32.Mat4 {
	m := b.rot.Normalize().Mat4()
	m[12], m[13], m[14] = b.pos.X(), b.pos.Y(), b.pos.Z()
	return m
}

func (b *Body) SetLinearVelocity(v mgl32.Vec3)  { b.linearVel = v }
func (b *Body) GetLinearVelocity() mgl32.Vec3   { return b.linearVel }
func (b *Body) SetAngularVelocity(v mgl32.Vec3) { b.angularVel = v }
func (b *Body) GetAngularVelocity() mgl32.Vec3  { return b.angularVel }

func (b *Body) ApplyCentralForce(f mgl32.Vec3) { b.force = b.force.Add(f) }
func (b *Body) ClearForces()                   { b.force = mgl32.Vec3{} }
func (b *Body) GetMass() float32               { return b.mass }

// Spring6Dof is a minimal two-body spring constraint: when body B's
// frame offset from body A leaves [min,max] on an axis, it applies a
// force of (clamped - offset) scaled by the spring constant, pushing the
// offset back into the range; inside the range it applies no force.
type Spring6Dof struct {
	a, b         *Body
	frameA       mgl32.Mat4
	frameB       mgl32.Mat4
	spring       physics.SpringConfig
}

// World is the reference simulation: a flat list of bodies and
// constraints, stepped with a fixed accumulator of up to maxSubsteps
// sub-steps of fixedDt each.
type World struct {
	gravity     mgl32.Vec3
	bodies      []*Body
	constraints []*Spring6Dof
}

// Factory constructs refworld primitives; it implements physics.Factory.
type Factory struct{}

func (Factory) NewWorld(gravity mgl32.Vec3) physics.World {
	return &World{gravity: gravity}
}

func (Factory) NewSphereShape(radius float32) physics.Shape {
	return &SphereShape{Radius: radius}
}

func (Factory) NewBoxShape(halfExtents mgl32.Vec3) physics.Shape {
	return &BoxShape{HalfExtents: halfExtents}
}

func (Factory) NewCapsuleShape(radius, height float32) physics.Shape {
	return &CapsuleShape{Radius: radius, Height: height}
}

func (Factory) NewBody(shape physics.Shape, mass float32, transform mgl32.Mat4, linearDamping, angularDamping, friction, restitution float32) (physics.Body, error) {
	if mass < 0 {
		return nil, fmt.Errorf("refworld: negative mass %v", mass)
	}
	b := &Body{
		shape:          shape,
		mass:           mass,
		linearDamping:  linearDamping,
		angularDamping: angularDamping,
		friction:       friction,
		restitution:    restitution,
	}
	if mass > 0 {
		b.invMass = 1 / mass
	}
	b.SetTransform(transform)
	return b, nil
}

func (Factory) NewSpring6DofConstraint(bodyA, bodyB physics.Body, frameA, frameB mgl32.Mat4, spring physics.SpringConfig) (physics.Constraint, error) {
	a, ok1 := bodyA.(*Body)
	b, ok2 := bodyB.(*Body)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("refworld: bodies were not constructed by this factory")
	}
	return &Spring6Dof{a: a, b: b, frameA: frameA, frameB: frameB, spring: spring}, nil
}

func (w *World) AddRigidBody(body physics.Body, group int32, mask uint16) {
	if b, ok := body.(*Body); ok {
		w.bodies = append(w.bodies, b)
	}
}

func (w *World) AddConstraint(c physics.Constraint, disableCollisionsBetweenLinked bool) {
	if s, ok := c.(*Spring6Dof); ok {
		w.constraints = append(w.constraints, s)
	}
}

func (w *World) RemoveRigidBody(body physics.Body) {
	b, ok := body.(*Body)
	if !ok {
		return
	}
	for i, existing := range w.bodies {
		if existing == b {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			return
		}
	}
}

func (w *World) RemoveConstraint(c physics.Constraint) {
	s, ok := c.(*Spring6Dof)
	if !ok {
		return
	}
	for i, existing := range w.constraints {
		if existing == s {
			w.constraints = append(w.constraints[:i], w.constraints[i+1:]...)
			return
		}
	}
}

func (w *World) SetGravity(g mgl32.Vec3) { w.gravity = g }

// Bodies returns the world's current body list, for tests.
func (w *World) Bodies() []*Body { return w.bodies }

// Step advances the simulation by dt using up to maxSubsteps fixed
// sub-steps of fixedDt seconds each, clamping to dt if it divides
// unevenly.
func (w *World) Step(dt float32, maxSubsteps int, fixedDt float32) {
	if fixedDt <= 0 {
		fixedDt = dt
	}
	remaining := dt
	for step := 0; step < maxSubsteps && remaining > 0; step++ {
		h := fixedDt
		if h > remaining {
			h = remaining
		}
		w.substep(h)
		remaining -= h
	}
}

func (w *World) substep(h float32) {
	for _, s := range w.constraints {
		s.apply()
	}
	for _, b := range w.bodies {
		if b.invMass == 0 {
			continue
		}
		accel := w.gravity.Add(b.force.Mul(b.invMass))
		b.linearVel = b.linearVel.Add(accel.Mul(h))
		b.linearVel = b.linearVel.Mul(1 / (1 + b.linearDamping*h))
		b.angularVel = b.angularVel.Mul(1 / (1 + b.angularDamping*h))

		b.pos = b.pos.Add(b.linearVel.Mul(h))

		omega := b.angularVel
		dq := mgl32.Quat{W: 1, V: omega.Mul(h * 0.5)}
		b.rot = dq.Mul(b.rot).Normalize()

		b.force = mgl32.Vec3{}
	}
}

// apply pushes body b's offset from body a back into [min,max] along
// each translational axis; an offset already inside the range gets no
// force.
func (s *Spring6Dof) apply() {
	if s.a.invMass == 0 && s.b.invMass == 0 {
		return
	}
	worldA := s.a.GetTransform().Mul4(s.frameA)
	worldB := s.b.GetTransform().Mul4(s.frameB)
	offset := mgl32.Vec3{worldB[12], worldB[13], worldB[14]}.Sub(mgl32.Vec3{worldA[12], worldA[13], worldA[14]})

	clamped := mgl32.Vec3{
		clampAxis(offset.X(), s.spring.PositionMin.X(), s.spring.PositionMax.X()),
		clampAxis(offset.Y(), s.spring.PositionMin.Y(), s.spring.PositionMax.Y()),
		clampAxis(offset.Z(), s.spring.PositionMin.Z(), s.spring.PositionMax.Z()),
	}
	correction := clamped.Sub(offset)
	if correction.Len() < 1e-6 {
		return
	}
	force := mgl32.Vec3{
		correction.X() * s.spring.PositionSpring.X(),
		correction.Y() * s.spring.PositionSpring.Y(),
		correction.Z() * s.spring.PositionSpring.Z(),
	}
	if s.b.invMass > 0 {
		s.b.force = s.b.force.Add(force)
	}
	if s.a.invMass > 0 {
		s.a.force = s.a.force.Sub(force)
	}
}

func clampAxis(v, lo, hi float32) float32 {
	if lo > hi {
		return v
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
