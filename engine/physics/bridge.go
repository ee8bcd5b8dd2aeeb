package physics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hoshizora/mmd-engine/engine/coords"
)

// Warning is a non-fatal, load-time condition: an out-of-range index,
// an unconstructible shape or body. The affected record is skipped and
// the caller decides whether to surface the warning.
type Warning struct {
	Message string
}

// Bridge builds rigid bodies and joints from PMX records, runs the
// per-frame sync->step->sync cycle against an opaque physics World, and
// injects model-motion inertia.
type Bridge struct {
	factory Factory
	world   World
	fps     float32
	maxSub  int

	bodies []rigidBody
	joints []joint

	dynamicBoneIndices map[int]bool
	dynamicBoneBuf     []int

	// disabledBones holds bone indices whose keyframes have switched
	// physics off: their bodies follow the bone kinematically and
	// SyncBones leaves the animated pose alone until re-enabled.
	disabledBones map[int]bool

	prevModelPosition *mgl32.Vec3
}

// Build constructs a Bridge from PMX rigid body / joint definitions and
// the skeleton's current (bind pose) bone world transforms, indexed by
// bone index. Every rigid body is constructed into owned storage first
// and then all successfully built bodies are registered with the world;
// joints are constructed after that registration, and are registered
// only once every joint construction has been attempted.
func Build(factory Factory, gravity mgl32.Vec3, fps float32, maxSubstepCount int,
	bodyDefs []RigidBodyDef, jointDefs []JointDef, boneWorldTransforms []mgl32.Mat4) (*Bridge, []Warning, error) {

	world := factory.NewWorld(gravity)
	br := &Bridge{
		factory:            factory,
		world:              world,
		fps:                fps,
		maxSub:             maxSubstepCount,
		dynamicBoneIndices: make(map[int]bool),
		disabledBones:      make(map[int]bool),
	}

	var warnings []Warning

	// Phase 1: construct every rigid body, without registering it.
	br.bodies = make([]rigidBody, len(bodyDefs))
	for i, def := range bodyDefs {
		rb, warning := constructBody(factory, def, boneWorldTransforms)
		br.bodies[i] = rb
		if warning != nil {
			warnings = append(warnings, *warning)
		}
	}

	registerAndBuildJoints(br, jointDefs, &warnings)

	return br, warnings, nil
}

// registerAndBuildJoints is phase 2: it registers every successfully
// constructed body with the world, then runs the same two-phase
// construct-then-register pattern for joints. Shared by Build and
// BuildParallel, which differ only in how phase 1 populates br.bodies.
func registerAndBuildJoints(br *Bridge, jointDefs []JointDef, warnings *[]Warning) {
	for i := range br.bodies {
		rb := &br.bodies[i]
		if rb.body == nil {
			continue
		}
		group := int32(1) << min(int(rb.def.Group), 15)
		br.world.AddRigidBody(rb.body, group, rb.def.GroupMask)
	}

	br.joints = make([]joint, 0, len(jointDefs))
	for _, def := range jointDefs {
		if def.RigidBodyAIdx < 0 || def.RigidBodyAIdx >= len(br.bodies) ||
			def.RigidBodyBIdx < 0 || def.RigidBodyBIdx >= len(br.bodies) ||
			def.RigidBodyAIdx == def.RigidBodyBIdx {
			*warnings = append(*warnings, Warning{fmt.Sprintf("joint %q: invalid or self-referential body indices", def.Name)})
			continue
		}
		a, b := &br.bodies[def.RigidBodyAIdx], &br.bodies[def.RigidBodyBIdx]
		if a.body == nil || b.body == nil {
			*warnings = append(*warnings, Warning{fmt.Sprintf("joint %q: referenced rigid body failed to construct", def.Name)})
			continue
		}

		frameA := mgl32.Translate3D(def.Position.X(), def.Position.Y(), def.Position.Z()).Mul4(eulerXYZToMat4(def.Rotation))
		frameB := frameA

		spring := SpringConfig{
			PositionMin: def.PositionMin, PositionMax: def.PositionMax,
			RotationMin: def.RotationMin, RotationMax: def.RotationMax,
			PositionSpring: def.PositionSpring, RotationSpring: def.RotationSpring,
		}

		constraint, err := br.factory.NewSpring6DofConstraint(a.body, b.body, frameA, frameB, spring)
		if err != nil {
			*warnings = append(*warnings, Warning{fmt.Sprintf("joint %q: constraint construction failed: %v", def.Name, err)})
			continue
		}
		br.joints = append(br.joints, joint{def: def, constraint: constraint})
	}
	for _, j := range br.joints {
		if j.constraint != nil {
			br.world.AddConstraint(j.constraint, true)
		}
	}

	for i := range br.bodies {
		if br.bodies[i].body != nil && br.bodies[i].def.Mode != ModeFollowBone && br.bodies[i].def.BoneIndex >= 0 {
			br.dynamicBoneIndices[br.bodies[i].def.BoneIndex] = true
		}
	}
}

// constructBody builds one rigid body's shape, body handle, and rest
// offset without registering it with any world. Shared by the
// sequential and worker-pool-parallel build paths.
func constructBody(factory Factory, def RigidBodyDef, boneWorldTransforms []mgl32.Mat4) (rigidBody, *Warning) {
	rb := rigidBody{def: def}

	if def.BoneIndex < 0 || def.BoneIndex >= len(boneWorldTransforms) {
		return rb, &Warning{fmt.Sprintf("rigid body %q: bone index %d out of range", def.Name, def.BoneIndex)}
	}

	shape, err := newShape(factory, def)
	if err != nil {
		return rb, &Warning{fmt.Sprintf("rigid body %q: shape construction failed: %v", def.Name, err)}
	}
	rb.shape = shape

	boneLeftBind := coords.InvZMat4(boneWorldTransforms[def.BoneIndex])
	localTransform := mgl32.Translate3D(def.Position.X(), def.Position.Y(), def.Position.Z()).
		Mul4(eulerXYZToMat4(def.Rotation))
	rb.initialTransform = localTransform
	rb.restOffset = boneLeftBind.Inv().Mul4(localTransform)

	body, err := factory.NewBody(shape, def.Mass, localTransform, def.MoveAttenuation, def.RotationAttenuation, def.Friction, def.Repulsion)
	if err != nil {
		return rb, &Warning{fmt.Sprintf("rigid body %q: body construction failed: %v", def.Name, err)}
	}
	rb.body = body
	return rb, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func newShape(factory Factory, def RigidBodyDef) (Shape, error) {
	switch def.Shape {
	case ShapeSphere:
		return factory.NewSphereShape(def.Size.X()), nil
	case ShapeBox:
		return factory.NewBoxShape(def.Size), nil
	case ShapeCapsule:
		return factory.NewCapsuleShape(def.Size.X(), def.Size.Y()), nil
	default:
		return nil, fmt.Errorf("unknown shape kind %d", def.Shape)
	}
}

func eulerXYZToMat4(e mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Rotate3DX(e.X()).Mul3(mgl32.Rotate3DY(e.Y())).Mul3(mgl32.Rotate3DZ(e.Z())).Mat4()
}

// DynamicBoneIndices returns the set of bone indices touched by
// non-FollowBone bodies, precomputed once at build time.
func (br *Bridge) DynamicBoneIndices() []int {
	br.dynamicBoneBuf = br.dynamicBoneBuf[:0]
	for idx := range br.dynamicBoneIndices {
		br.dynamicBoneBuf = append(br.dynamicBoneBuf, idx)
	}
	return br.dynamicBoneBuf
}

// SetBonePhysicsEnabled implements animation.PhysicsToggleSink: a bone
// whose keyframes disable physics has its bodies follow the animated
// pose kinematically until the keyframes enable it again.
func (br *Bridge) SetBonePhysicsEnabled(boneIndex int, enabled bool) {
	if enabled {
		delete(br.disabledBones, boneIndex)
	} else {
		br.disabledBones[boneIndex] = true
	}
}

// boneDriven reports whether the body should be driven from the
// skeleton this frame: FollowBone always is, and a dynamic body is
// while its bone's keyframes have physics switched off.
func (br *Bridge) boneDriven(rb *rigidBody) bool {
	return rb.def.Mode == ModeFollowBone || br.disabledBones[rb.def.BoneIndex]
}

// SyncBodies updates every bone-driven body's transform from the
// skeleton's current bone world transforms.
func (br *Bridge) SyncBodies(boneWorldTransforms []mgl32.Mat4) {
	for i := range br.bodies {
		rb := &br.bodies[i]
		if rb.body == nil || !br.boneDriven(rb) {
			continue
		}
		if rb.def.BoneIndex < 0 || rb.def.BoneIndex >= len(boneWorldTransforms) {
			continue
		}
		boneLeft := coords.InvZMat4(boneWorldTransforms[rb.def.BoneIndex])
		rb.body.SetTransform(rb.computeBodyMatrix(boneLeft))
	}
}

// SyncBodiesWithModelVelocity runs SyncBodies and additionally injects
// inertia derived from the model root's motion since the previous
// frame.
func (br *Bridge) SyncBodiesWithModelVelocity(boneWorldTransforms []mgl32.Mat4, deltaTime float32, modelWorldTransform mgl32.Mat4, inertiaStrength, maxLinearVelocity float32) {
	br.SyncBodies(boneWorldTransforms)

	currPos := mgl32.Vec3{modelWorldTransform[12], modelWorldTransform[13], modelWorldTransform[14]}
	var velocity mgl32.Vec3
	if br.prevModelPosition != nil {
		dt := deltaTime
		if dt < 0.001 {
			dt = 0.001
		}
		velocity = currPos.Sub(*br.prevModelPosition).Mul(1 / dt)
	}
	pos := currPos
	br.prevModelPosition = &pos

	if inertiaStrength <= 0 || velocity.Len() < 1e-6 {
		return
	}
	if velocity.Len() > 20 {
		velocity = velocity.Normalize().Mul(20)
	}

	rotInv := modelWorldTransform.Mat3().Transpose()
	localVel := rotInv.Mul3x1(velocity)
	inertiaVel := mgl32.Vec3{-localVel.X(), -localVel.Y(), localVel.Z()}.Mul(inertiaStrength)

	maxAccel := maxLinearVelocity * br.fps

	for i := range br.bodies {
		rb := &br.bodies[i]
		if rb.body == nil || br.boneDriven(rb) {
			continue
		}
		mass := rb.body.GetMass()
		if mass <= 0 {
			continue
		}
		dt := deltaTime
		if dt < 0.001 {
			dt = 0.001
		}
		force := inertiaVel.Mul(mass / dt)
		maxForce := maxAccel * mass
		if force.Len() > maxForce {
			force = force.Normalize().Mul(maxForce)
		}
		rb.body.ApplyCentralForce(force)
	}
}

// Step advances the world by deltaTime, then clamps every non-FollowBone
// body's linear/angular velocity to the configured maximums.
func (br *Bridge) Step(deltaTime, maxLinearVelocity, maxAngularVelocity float32) {
	br.world.Step(deltaTime, br.maxSub, 1/br.fps)

	for i := range br.bodies {
		rb := &br.bodies[i]
		if rb.body == nil || rb.def.Mode == ModeFollowBone {
			continue
		}
		clampVelocity(rb.body, maxLinearVelocity, maxAngularVelocity)
	}
}

func clampVelocity(body Body, maxLinear, maxAngular float32) {
	lin := body.GetLinearVelocity()
	if lin.Len() > maxLinear {
		body.SetLinearVelocity(lin.Normalize().Mul(maxLinear))
	}
	ang := body.GetAngularVelocity()
	if ang.Len() > maxAngular {
		body.SetAngularVelocity(ang.Normalize().Mul(maxAngular))
	}
}

// SyncBones writes dynamic body poses back into boneWorldTransforms
// (engine/right-hand space) for every non-FollowBone body with a valid
// bone index, skipping bones whose keyframes have physics switched off.
func (br *Bridge) SyncBones(boneWorldTransforms []mgl32.Mat4) {
	for i := range br.bodies {
		rb := &br.bodies[i]
		if rb.body == nil || br.boneDriven(rb) {
			continue
		}
		if rb.def.BoneIndex < 0 || rb.def.BoneIndex >= len(boneWorldTransforms) {
			continue
		}

		bodyMatrix := rb.body.GetTransform()

		var newBoneLeft mgl32.Mat4
		switch rb.def.Mode {
		case ModePhysics:
			newBoneLeft = rb.computeBoneMatrix(bodyMatrix)
		case ModePhysicsWithBone:
			boneRight := boneWorldTransforms[rb.def.BoneIndex]
			posLeft := mgl32.Vec3{boneRight[12], boneRight[13], -boneRight[14]}
			newBoneLeft = computeBoneMatrixRotationOnly(bodyMatrix, posLeft)
		default:
			continue
		}

		boneWorldTransforms[rb.def.BoneIndex] = coords.InvZMat4(newBoneLeft)
	}
}

// Initialize sets every body's transform from the given bind-pose bone
// world transforms and zeroes velocities.
func (br *Bridge) Initialize(boneWorldTransforms []mgl32.Mat4) {
	for i := range br.bodies {
		rb := &br.bodies[i]
		if rb.body == nil || rb.def.BoneIndex < 0 || rb.def.BoneIndex >= len(boneWorldTransforms) {
			continue
		}
		boneLeft := coords.InvZMat4(boneWorldTransforms[rb.def.BoneIndex])
		rb.body.SetTransform(rb.computeBodyMatrix(boneLeft))
		rb.body.SetLinearVelocity(mgl32.Vec3{0, 0, 0})
		rb.body.SetAngularVelocity(mgl32.Vec3{0, 0, 0})
		rb.body.ClearForces()
	}
}

// Reset clears inertia state, re-enables physics on every bone, and
// restores every body to its initial (bind-pose) transform with zeroed
// velocities and forces.
func (br *Bridge) Reset() {
	br.prevModelPosition = nil
	br.disabledBones = make(map[int]bool)
	for i := range br.bodies {
		rb := &br.bodies[i]
		if rb.body == nil {
			continue
		}
		rb.body.SetTransform(rb.initialTransform)
		rb.body.SetLinearVelocity(mgl32.Vec3{0, 0, 0})
		rb.body.SetAngularVelocity(mgl32.Vec3{0, 0, 0})
		rb.body.ClearForces()
	}
}

// Close tears down the bridge in the strict order the underlying
// engine requires: constraints, then bodies, then the world. Close
// enforces that order unconditionally so no caller can get it wrong.
// Calling Close twice is a programming error and panics rather than
// silently no-opping, since a double teardown against a live world
// would otherwise remove handles the caller no longer owns.
func (br *Bridge) Close() {
	if br.world == nil {
		panic("physics: Bridge.Close called twice")
	}
	for _, j := range br.joints {
		if j.constraint != nil {
			br.world.RemoveConstraint(j.constraint)
		}
	}
	for i := range br.bodies {
		if br.bodies[i].body != nil {
			br.world.RemoveRigidBody(br.bodies[i].body)
		}
	}
	br.world = nil
}
