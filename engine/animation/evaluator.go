package animation

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/hoshizora/mmd-engine/engine/bezier"
)

// BoneTarget is the minimal skeleton surface the evaluator writes
// sampled bone poses into. A concrete skeleton.BoneSet satisfies this.
type BoneTarget interface {
	FindBoneIndexByName(name string) (int, bool)
	BoneAnimationTranslate(i int) mgl32.Vec3
	BoneAnimationRotate(i int) mgl32.Quat
	SetBoneAnimation(i int, translate mgl32.Vec3, rotate mgl32.Quat)
}

// MorphTarget is the minimal morph-weight surface the evaluator writes
// sampled morph weights into. A concrete morph.Accumulator satisfies this.
type MorphTarget interface {
	FindMorphIndexByName(name string) (int, bool)
	MorphWeight(i int) float32
	SetMorphWeight(i int, w float32)
}

// PhysicsToggleSink receives the per-bone physics on/off state carried
// by bone keyframes, so the physics bridge can stop driving a bone
// whose motion has taken manual control (and resume when the keyframes
// re-enable it). A concrete physics.Bridge satisfies this.
type PhysicsToggleSink interface {
	SetBonePhysicsEnabled(boneIndex int, enabled bool)
}

// Layer pairs a Motion with the blend weight it contributes.
type Layer struct {
	Motion *Motion
	Weight float32
}

// Evaluate samples frame (integer part f, fractional part alpha) from
// every layer in order and blends each bone/morph track's sample into
// the target using the three-way weight rule: weight==1 overwrites,
// 0<weight<1 lerps/slerps against the current value, weight==0 is a
// no-op. A single unweighted motion is the len(layers)==1, Weight==1 case.
//
// physics may be nil for a character with no rigid bodies; when set it
// receives each sampled bone's keyframed physics on/off state, and the
// handoff cross-fade (BoneFrameTransform.MixedTranslation/
// MixedOrientation) blends the disabling bone from its current pose to
// the user-authored one over the handoff span.
func Evaluate(bones BoneTarget, morphs MorphTarget, physics PhysicsToggleSink, layers []Layer, frame float32, cache *bezier.Cache) {
	f := uint32(frame)
	alpha := frame - float32(f)

	for _, layer := range layers {
		if layer.Motion == nil || layer.Weight <= 0 {
			continue
		}
		evaluateBones(bones, physics, layer.Motion, f, alpha, layer.Weight, cache)
		evaluateMorphs(morphs, layer.Motion, f, alpha, layer.Weight)
	}
}

func evaluateBones(bones BoneTarget, physics PhysicsToggleSink, motion *Motion, f uint32, alpha, weight float32, cache *bezier.Cache) {
	for name, track := range motion.BoneTracks {
		idx, ok := bones.FindBoneIndexByName(name)
		if !ok {
			continue
		}
		sample := track.SeekPrecisely(f, alpha, cache)

		if physics != nil {
			physics.SetBonePhysicsEnabled(idx, sample.EnablePhysics && !sample.DisablePhysics)
		}

		translation := sample.MixedTranslation(bones.BoneAnimationTranslate(idx))
		orientation := sample.MixedOrientation(bones.BoneAnimationRotate(idx))

		switch {
		case weight >= 1:
			bones.SetBoneAnimation(idx, translation, orientation)
		case weight > 0:
			cur := bones.BoneAnimationTranslate(idx)
			curRot := bones.BoneAnimationRotate(idx)
			t := cur.Add(translation.Sub(cur).Mul(weight))
			r := mgl32.QuatSlerp(curRot, orientation, weight)
			bones.SetBoneAnimation(idx, t, r)
		}
	}
}

func evaluateMorphs(morphs MorphTarget, motion *Motion, f uint32, alpha, weight float32) {
	for name, track := range motion.MorphTracks {
		idx, ok := morphs.FindMorphIndexByName(name)
		if !ok {
			continue
		}
		sample := track.SeekPrecisely(f, alpha)

		switch {
		case weight >= 1:
			morphs.SetMorphWeight(idx, sample)
		case weight > 0:
			cur := morphs.MorphWeight(idx)
			morphs.SetMorphWeight(idx, cur+(sample-cur)*weight)
		}
	}
}
