// Package skeleton implements the hierarchical bone transform pipeline:
// topological bone ordering, append/inherit transforms, fixed axes,
// deform-after-physics ordering, and the CCD IK solver.
package skeleton

import "github.com/go-gl/mathgl/mgl32"

// Flag is a bitfield of per-bone behavior toggles, mirroring PMX bone
// flags.
type Flag uint32

const (
	FlagRotatable Flag = 1 << iota
	FlagMovable
	FlagIK
	FlagAppendRotate
	FlagAppendTranslate
	FlagAppendLocal
	FlagFixedAxis
	FlagLocalAxis
	FlagDeformAfterPhysics
	FlagIKEnabled
)

// Has reports whether f is set in the flag set.
func (flags Flag) Has(f Flag) bool { return flags&f != 0 }

// AppendConfig describes an append/inherit relationship: this bone
// inherits a rate-scaled fraction of the source bone's motion.
type AppendConfig struct {
	SourceBone int
	Rate       float32
}

// IKLink is one rotatable joint along an IK chain, in solve order
// (end-effector neighbor first).
type IKLink struct {
	BoneIndex int
	HasLimits bool
	LimitMin  mgl32.Vec3
	LimitMax  mgl32.Vec3

	// prevAngle carries the last solved Euler angle for temporal
	// continuity across frames.
	prevAngle mgl32.Vec3
	// hingeAngle accumulates the signed hinge angle for plane-mode links.
	hingeAngle float32
}

// IKConfig describes a CCD IK chain terminating at this bone.
type IKConfig struct {
	TargetBone  int
	Iterations  int
	LimitAngle  float32
	Links       []IKLink
}

// BoneDef is the immutable, build-time description of a bone, as
// decoded from a PMX file or constructed programmatically.
type BoneDef struct {
	Name            string
	Parent          int // -1 for root
	TransformLevel  int
	Flags           Flag
	InitialPosition mgl32.Vec3
	Append          *AppendConfig
	FixedAxis       *mgl32.Vec3
	LocalAxisX      *mgl32.Vec3
	LocalAxisZ      *mgl32.Vec3
	IK              *IKConfig
}

// Bone is a single skeleton node: the immutable static definition plus
// its per-frame dynamic state.
type Bone struct {
	BoneDef

	id       int
	parent   int // -1 for root
	bodyShift    mgl32.Vec3
	inverseInit  mgl32.Mat4
	children []int

	// Dynamic state, reset every frame before sampling.
	AnimationTranslate mgl32.Vec3
	AnimationRotate    mgl32.Quat
	IKRotate           mgl32.Quat
	AppendTranslate    mgl32.Vec3
	AppendRotate       mgl32.Quat
	LocalToParent      mgl32.Mat4
	LocalToWorld       mgl32.Mat4
}

// ID returns the bone's index within its BoneSet (source file order).
func (b *Bone) ID() int { return b.id }

// ParentID returns the parent's index, or -1 for a root bone.
func (b *Bone) ParentID() int { return b.parent }

// Reset clears all per-frame dynamic state to identity, ready for a new
// frame's track sampling and morph accumulation.
func (b *Bone) Reset() {
	b.AnimationTranslate = mgl32.Vec3{0, 0, 0}
	b.AnimationRotate = mgl32.QuatIdent()
	b.IKRotate = mgl32.QuatIdent()
	b.AppendTranslate = mgl32.Vec3{0, 0, 0}
	b.AppendRotate = mgl32.QuatIdent()
}
