package pmx

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/hoshizora/mmd-engine/engine/coords"
	"github.com/hoshizora/mmd-engine/engine/morph"
	"github.com/hoshizora/mmd-engine/engine/physics"
	"github.com/hoshizora/mmd-engine/engine/skeleton"
)

// vec3 converts a PMX [3]float32 triple to mgl32.Vec3 with no
// handedness conversion, for quantities that stay in MMD left-hand
// space (rigid body and joint records, which the physics bridge
// consumes left-handed).
func vec3(v [3]float32) mgl32.Vec3 { return mgl32.Vec3{v[0], v[1], v[2]} }

// vec3RH converts a PMX left-hand triple into engine right-hand space
// by negating Z. Bone positions, axes, and morph displacements cross
// into the engine interior here.
func vec3RH(v [3]float32) mgl32.Vec3 { return coords.InvZVec3(mgl32.Vec3{v[0], v[1], v[2]}) }

func vec4(v [4]float32) mgl32.Vec4 { return mgl32.Vec4{v[0], v[1], v[2], v[3]} }

// quatRH builds an engine-space quaternion from a PMX [4]float32
// stored x,y,z,w, negating z and w for the handedness change.
func quatRH(v [4]float32) mgl32.Quat {
	return coords.InvZQuat(mgl32.Quat{W: v[3], V: mgl32.Vec3{v[0], v[1], v[2]}})
}

// ikLimitsRH converts a PMX IK link's angle range into engine space:
// negate every component and swap min/max, so the range stays
// well-ordered after the sign flip.
func ikLimitsRH(min, max [3]float32) (mgl32.Vec3, mgl32.Vec3) {
	engMin := mgl32.Vec3{-max[0], -max[1], -max[2]}
	engMax := mgl32.Vec3{-min[0], -min[1], -min[2]}
	return engMin, engMax
}

// ToBoneDefs converts a decoded model's bone records into
// skeleton.BoneDef values, indexed identically to m.Bones.
// skeleton.Build preserves that indexing, so every bone reference in
// the file (parent/inherit/IK indices here, and the bone indices held
// by rigid bodies and bone morph offsets) stays valid without any
// remapping. Positions, axes, and IK limit ranges cross from MMD
// left-hand space into the engine's right-hand space here.
func (m *Model) ToBoneDefs() []skeleton.BoneDef {
	defs := make([]skeleton.BoneDef, len(m.Bones))
	for i, b := range m.Bones {
		d := skeleton.BoneDef{
			Name:            b.LocalName,
			Parent:          int(b.ParentIndex),
			TransformLevel:  int(b.Layer),
			InitialPosition: vec3RH(b.Position),
		}

		if b.Flags.Has(BoneFlagRotatable) {
			d.Flags |= skeleton.FlagRotatable
		}
		if b.Flags.Has(BoneFlagTranslatable) {
			d.Flags |= skeleton.FlagMovable
		}
		if b.Flags.Has(BoneFlagIK) {
			d.Flags |= skeleton.FlagIK
		}
		if b.Flags.Has(BoneFlagInheritRotation) {
			d.Flags |= skeleton.FlagAppendRotate
		}
		if b.Flags.Has(BoneFlagInheritTranslation) {
			d.Flags |= skeleton.FlagAppendTranslate
		}
		if b.Flags.Has(BoneFlagFixedAxis) {
			d.Flags |= skeleton.FlagFixedAxis
		}
		if b.Flags.Has(BoneFlagLocalAxes) {
			d.Flags |= skeleton.FlagLocalAxis
		}
		if b.Flags.Has(BoneFlagDeformAfterPhysics) {
			d.Flags |= skeleton.FlagDeformAfterPhysics
		}

		if b.Flags.Has(BoneFlagInheritRotation) || b.Flags.Has(BoneFlagInheritTranslation) {
			if b.Flags.Has(BoneFlagInheritLocal) {
				d.Flags |= skeleton.FlagAppendLocal
			}
			d.Append = &skeleton.AppendConfig{
				SourceBone: int(b.InheritParentIndex),
				Rate:       b.InheritWeight,
			}
		}

		if b.Flags.Has(BoneFlagFixedAxis) {
			axis := vec3RH(b.FixedAxis)
			d.FixedAxis = &axis
		}
		if b.Flags.Has(BoneFlagLocalAxes) {
			x := vec3RH(b.LocalXAxis)
			z := vec3RH(b.LocalZAxis)
			d.LocalAxisX = &x
			d.LocalAxisZ = &z
		}

		if b.Flags.Has(BoneFlagIK) {
			links := make([]skeleton.IKLink, len(b.IKLinks))
			for j, l := range b.IKLinks {
				link := skeleton.IKLink{
					BoneIndex: int(l.BoneIndex),
					HasLimits: l.HasLimits,
				}
				if l.HasLimits {
					link.LimitMin, link.LimitMax = ikLimitsRH(l.LimitMin, l.LimitMax)
				}
				links[j] = link
			}
			d.IK = &skeleton.IKConfig{
				TargetBone: int(b.IKTargetIndex),
				Iterations: int(b.IKLoopCount),
				LimitAngle: b.IKLimitRadian,
				Links:      links,
			}
		}

		defs[i] = d
	}
	return defs
}

// morphKind maps a PMX wire-format morph kind to the engine's Kind.
func morphKind(k MorphKind) morph.Kind {
	switch k {
	case MorphGroup:
		return morph.KindGroup
	case MorphVertex:
		return morph.KindVertex
	case MorphBone:
		return morph.KindBone
	case MorphUV:
		return morph.KindUV
	case MorphUVExt1:
		return morph.KindAdditionalUV1
	case MorphUVExt2:
		return morph.KindAdditionalUV2
	case MorphUVExt3:
		return morph.KindAdditionalUV3
	case MorphUVExt4:
		return morph.KindAdditionalUV4
	case MorphMaterial:
		return morph.KindMaterial
	case MorphFlip:
		return morph.KindFlip
	case MorphImpulse:
		return morph.KindImpulse
	default:
		return morph.KindGroup
	}
}

// ToMorphs converts a decoded model's morph records into morph.Morph
// values, preserving index order so that GroupOffsets/FlipOffsets'
// MorphIndex references remain valid. Impulse morphs carry no
// recognized offset kind and accumulate to a no-op, matching the
// reader's parsed-but-inert handling of impulse data (no physical
// impulse application exists in this engine's scope).
func (m *Model) ToMorphs() []morph.Morph {
	out := make([]morph.Morph, len(m.Morphs))
	for i, src := range m.Morphs {
		dst := morph.Morph{
			Name: src.LocalName,
			Kind: morphKind(src.Kind),
		}

		for _, g := range src.GroupOffsets {
			dst.GroupEntries = append(dst.GroupEntries, morph.GroupEntry{
				MorphIndex: int(g.MorphIndex),
				Influence:  g.Weight,
			})
		}
		for _, f := range src.FlipOffsets {
			dst.GroupEntries = append(dst.GroupEntries, morph.GroupEntry{
				MorphIndex: int(f.MorphIndex),
				Influence:  f.Weight,
			})
		}
		for _, v := range src.VertexOffsets {
			dst.VertexOffsets = append(dst.VertexOffsets, morph.VertexOffset{
				VertexIndex: int(v.VertexIndex),
				Offset:      vec3RH(v.Offset),
			})
		}
		for _, b := range src.BoneOffsets {
			dst.BoneOffsets = append(dst.BoneOffsets, morph.BoneOffset{
				BoneIndex:   int(b.BoneIndex),
				Translation: vec3RH(b.Translation),
				Rotation:    quatRH(b.Rotation),
			})
		}
		for _, uv := range src.UVOffsets {
			dst.UVOffsets = append(dst.UVOffsets, morph.UVOffset{
				VertexIndex: int(uv.VertexIndex),
				Offset:      vec4(uv.Offset),
			})
		}
		for _, mo := range src.MaterialOffsets {
			op := morph.MaterialOpMultiply
			if mo.Method == MaterialOffsetAdditive {
				op = morph.MaterialOpAdditive
			}
			dst.MaterialOffsets = append(dst.MaterialOffsets, morph.MaterialMorphOffset{
				MaterialIndex:    int(mo.MaterialIndex),
				Operation:        op,
				Diffuse:          vec4(mo.Diffuse),
				Specular:         vec3(mo.Specular),
				SpecularStrength: mo.Specularity,
				Ambient:          vec3(mo.Ambient),
				Edge:             vec4(mo.EdgeColor),
				EdgeSize:         mo.EdgeSize,
				TextureTint:      vec4(mo.TextureTint),
				EnvironmentTint:  vec4(mo.EnvironmentTint),
				ToonTint:         vec4(mo.ToonTint),
			})
		}

		out[i] = dst
	}
	return out
}

// ToRigidBodyDefs converts a decoded model's rigid body records into
// physics.RigidBodyDef values, ready for engine/physics.Build or
// BuildParallel. The per-body collision group mask (which of the 16
// groups this body collides with) is derived by inverting
// CollisionGroupMask's "non-collide" bit semantics: PMX stores the
// groups a body does NOT collide with, the bridge wants the groups it
// DOES.
func (m *Model) ToRigidBodyDefs() []physics.RigidBodyDef {
	defs := make([]physics.RigidBodyDef, len(m.RigidBodies))
	for i, rb := range m.RigidBodies {
		shape := physics.ShapeSphere
		switch rb.Shape {
		case ShapeBox:
			shape = physics.ShapeBox
		case ShapeCapsule:
			shape = physics.ShapeCapsule
		}

		mode := physics.ModeFollowBone
		switch rb.Mode {
		case ModeDynamic:
			mode = physics.ModePhysics
		case ModeDynamicWithBonePosition:
			mode = physics.ModePhysicsWithBone
		}

		defs[i] = physics.RigidBodyDef{
			Name:                rb.LocalName,
			BoneIndex:           int(rb.BoneIndex),
			Group:               rb.Group,
			GroupMask:           ^rb.CollisionGroupMask,
			Shape:               shape,
			Size:                vec3(rb.Size),
			Position:            vec3(rb.Position),
			Rotation:            vec3(rb.Rotation),
			Mass:                rb.Mass,
			MoveAttenuation:     rb.MoveAttenuation,
			RotationAttenuation: rb.RotationAttenuation,
			Repulsion:           rb.Repulsion,
			Friction:            rb.Friction,
			Mode:                mode,
		}
	}
	return defs
}

// ToJointDefs converts a decoded model's joint records into
// physics.JointDef values.
func (m *Model) ToJointDefs() []physics.JointDef {
	defs := make([]physics.JointDef, len(m.Joints))
	for i, j := range m.Joints {
		defs[i] = physics.JointDef{
			Name:           j.LocalName,
			Type:           physics.JointType(j.Type),
			RigidBodyAIdx:  int(j.RigidBodyAIndex),
			RigidBodyBIdx:  int(j.RigidBodyBIndex),
			Position:       vec3(j.Position),
			Rotation:       vec3(j.Rotation),
			PositionMin:    vec3(j.PositionMin),
			PositionMax:    vec3(j.PositionMax),
			RotationMin:    vec3(j.RotationMin),
			RotationMax:    vec3(j.RotationMax),
			PositionSpring: vec3(j.PositionSpring),
			RotationSpring: vec3(j.RotationSpring),
		}
	}
	return defs
}
