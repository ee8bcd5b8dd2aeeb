package skeleton

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func simpleChain() *BoneSet {
	defs := []BoneDef{
		{Name: "root", Parent: -1, InitialPosition: mgl32.Vec3{0, 0, 0}},
		{Name: "mid", Parent: 0, InitialPosition: mgl32.Vec3{0, 1, 0}},
		{Name: "tip", Parent: 1, InitialPosition: mgl32.Vec3{0, 2, 0}},
	}
	return Build(defs)
}

func TestTopologicalOrder(t *testing.T) {
	bs := simpleChain()
	for i := 0; i < bs.Len(); i++ {
		b := bs.Bone(i)
		if b.ParentID() >= 0 && b.ParentID() >= b.ID() {
			t.Errorf("bone %d parent %d violates topological order", b.ID(), b.ParentID())
		}
	}
}

func TestForwardParentReferenceStillEvaluatesParentFirst(t *testing.T) {
	// Child listed before its parent: storage keeps source order (so
	// externally held bone indices stay valid), but evaluation must
	// still run the parent first.
	defs := []BoneDef{
		{Name: "child", Parent: 1, InitialPosition: mgl32.Vec3{0, 2, 0}},
		{Name: "parent", Parent: -1, InitialPosition: mgl32.Vec3{0, 1, 0}},
	}
	bs := Build(defs)
	bs.ResetAll()

	parentIdx, _ := bs.FindBoneIndexByName("parent")
	if parentIdx != 1 {
		t.Fatalf("expected storage to keep source order, parent at 1, got %d", parentIdx)
	}
	bs.Bone(parentIdx).AnimationTranslate = mgl32.Vec3{3, 0, 0}

	bs.EvaluatePrePhysics()

	childIdx, _ := bs.FindBoneIndexByName("child")
	if got := bs.Bone(childIdx).WorldPosition(); got != (mgl32.Vec3{3, 2, 0}) {
		t.Errorf("expected child to inherit parent translation, got %v", got)
	}
}

func TestBindPoseIdentity(t *testing.T) {
	bs := simpleChain()
	bs.ResetAll()
	bs.EvaluatePrePhysics()
	bs.EvaluatePostPhysics()

	skins := bs.SkinMatrices()
	for i, skin := range skins {
		for j := 0; j < 16; j++ {
			want := mgl32.Ident4()[j]
			if diff := skin[j] - want; diff > 1e-3 || diff < -1e-3 {
				t.Errorf("bone %d skin matrix not identity at %d: got %v want %v", i, j, skin[j], want)
				break
			}
		}
	}
}

func TestAppendLocalInheritsSourceAppendChain(t *testing.T) {
	defs := []BoneDef{
		{Name: "base", Parent: -1, InitialPosition: mgl32.Vec3{0, 0, 0}},
		{Name: "source", Parent: -1, InitialPosition: mgl32.Vec3{1, 0, 0},
			Flags:  FlagAppendRotate,
			Append: &AppendConfig{SourceBone: 0, Rate: 1}},
		{Name: "dependent", Parent: -1, InitialPosition: mgl32.Vec3{2, 0, 0},
			Flags:  FlagAppendRotate | FlagAppendLocal,
			Append: &AppendConfig{SourceBone: 1, Rate: 1}},
	}
	bs := Build(defs)
	bs.ResetAll()

	baseIdx, _ := bs.FindBoneIndexByName("base")
	rot := mgl32.QuatRotate(0.5, mgl32.Vec3{0, 1, 0})
	bs.Bone(baseIdx).AnimationRotate = rot

	bs.EvaluatePrePhysics()

	depIdx, _ := bs.FindBoneIndexByName("dependent")
	got := bs.Bone(depIdx).AppendRotate
	if dot := got.Dot(rot); dot < 0.9999 {
		t.Errorf("expected local append to carry the source's own append chain, got %v (dot %v)", got, dot)
	}
}

func TestAppendIdempotenceWhenRateZero(t *testing.T) {
	defs := []BoneDef{
		{Name: "source", Parent: -1, InitialPosition: mgl32.Vec3{0, 0, 0}},
		{Name: "dependent", Parent: -1, InitialPosition: mgl32.Vec3{1, 0, 0},
			Flags:  FlagAppendTranslate,
			Append: &AppendConfig{SourceBone: 0, Rate: 0}},
	}
	bs := Build(defs)
	bs.ResetAll()

	srcIdx, _ := bs.FindBoneIndexByName("source")
	bs.Bone(srcIdx).AnimationTranslate = mgl32.Vec3{5, 5, 5}

	bs.EvaluatePrePhysics()

	depIdx, _ := bs.FindBoneIndexByName("dependent")
	if bs.Bone(depIdx).AppendTranslate != (mgl32.Vec3{0, 0, 0}) {
		t.Errorf("expected zero-rate append to be invariant to source motion, got %v",
			bs.Bone(depIdx).AppendTranslate)
	}
}
