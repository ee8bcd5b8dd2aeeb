package skeleton

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// twoLinkChain builds root -> link1 -> link2 -> target plus a static
// "effector" bone, with an IK config attached to "effector" whose links
// link2/link1 move the chain tip "target" toward it.
func twoLinkChain() (*BoneSet, int) {
	defs := []BoneDef{
		{Name: "root", Parent: -1, InitialPosition: mgl32.Vec3{0, 0, 0}},
		{Name: "link1", Parent: 0, InitialPosition: mgl32.Vec3{0, 1, 0}, Flags: FlagRotatable},
		{Name: "link2", Parent: 1, InitialPosition: mgl32.Vec3{0, 2, 0}, Flags: FlagRotatable},
		{Name: "target", Parent: 2, InitialPosition: mgl32.Vec3{0, 3, 0}},
		{Name: "effector", Parent: -1, InitialPosition: mgl32.Vec3{1, 2, 0}},
	}
	ikBoneDefIdx := 4
	defs[ikBoneDefIdx].Flags |= FlagIK
	defs[ikBoneDefIdx].IK = &IKConfig{
		TargetBone: 3,
		Iterations: 20,
		LimitAngle: 1.0,
		Links: []IKLink{
			{BoneIndex: 2},
			{BoneIndex: 1},
		},
	}
	bs := Build(defs)
	ikIdx, _ := bs.FindBoneIndexByName("effector")
	return bs, ikIdx
}

func TestIKConvergesForReachableTarget(t *testing.T) {
	bs, ikIdx := twoLinkChain()
	bs.ResetAll()
	bs.EvaluatePrePhysics()

	targetIdx, _ := bs.FindBoneIndexByName("target")
	dist := bs.Bone(targetIdx).WorldPosition().Sub(bs.Bone(ikIdx).WorldPosition()).Len()

	chainLength := float32(2.0) // link1 + link2 segment lengths
	if dist >= 1e-3*chainLength {
		t.Errorf("distance after solve = %v, want < %v", dist, 1e-3*chainLength)
	}
}

func TestIKPlaneModeNeverExceedsLimit(t *testing.T) {
	defs := []BoneDef{
		{Name: "root", Parent: -1, InitialPosition: mgl32.Vec3{0, 0, 0}},
		{Name: "hinge", Parent: 0, InitialPosition: mgl32.Vec3{0, 1, 0}},
		{Name: "effector", Parent: 1, InitialPosition: mgl32.Vec3{0, 2, 0}},
		{Name: "target", Parent: -1, InitialPosition: mgl32.Vec3{0, 2, 1}},
	}
	defs[2].Flags |= FlagIK
	defs[2].IK = &IKConfig{
		TargetBone: 3,
		Iterations: 10,
		LimitAngle: 0.5,
		Links: []IKLink{
			{BoneIndex: 1, HasLimits: true, LimitMin: mgl32.Vec3{-3.14159, 0, 0}, LimitMax: mgl32.Vec3{0, 0, 0}},
		},
	}
	bs := Build(defs)
	bs.ResetAll()
	bs.EvaluatePrePhysics()

	effectorIdx, _ := bs.FindBoneIndexByName("effector")
	link := bs.Bone(effectorIdx).IK.Links[0]
	if link.hingeAngle > 1e-4 {
		t.Errorf("hinge angle = %v, want <= 0", link.hingeAngle)
	}
}
