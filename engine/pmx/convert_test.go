package pmx

import (
	"testing"

	"github.com/hoshizora/mmd-engine/engine/physics"
	"github.com/hoshizora/mmd-engine/engine/skeleton"
)

func sampleModel() *Model {
	return &Model{
		Bones: []Bone{
			{LocalName: "root", ParentIndex: -1, Position: [3]float32{0, 0, 0}, Flags: BoneFlagRotatable | BoneFlagTranslatable},
			{
				LocalName:   "child",
				ParentIndex: 0,
				Position:    [3]float32{0, 1, 0},
				Flags:       BoneFlagRotatable | BoneFlagIK,
				IKTargetIndex: 0,
				IKLoopCount:   4,
				IKLimitRadian: 0.5,
				IKLinks: []IKLink{
					{BoneIndex: 0, HasLimits: true, LimitMin: [3]float32{-1, 0, 0}, LimitMax: [3]float32{1, 0, 0}},
				},
			},
		},
		Morphs: []Morph{
			{
				LocalName: "smile",
				Kind:      MorphVertex,
				VertexOffsets: []VertexOffset{
					{VertexIndex: 3, Offset: [3]float32{0, 0.1, 0}},
				},
			},
		},
		RigidBodies: []RigidBody{
			{LocalName: "body0", BoneIndex: 1, Group: 2, CollisionGroupMask: 0xFFFD, Shape: ShapeCapsule, Mode: ModeDynamic, Mass: 1.5},
		},
		Joints: []Joint{
			{LocalName: "joint0", Type: JointSpring6DOF, RigidBodyAIndex: 0, RigidBodyBIndex: 1},
		},
	}
}

func TestToBoneDefsPreservesHierarchyAndIK(t *testing.T) {
	defs := sampleModel().ToBoneDefs()
	if len(defs) != 2 {
		t.Fatalf("expected 2 bone defs, got %d", len(defs))
	}
	if defs[1].Parent != 0 {
		t.Fatalf("expected child's Parent=0, got %d", defs[1].Parent)
	}
	if defs[1].IK == nil {
		t.Fatalf("expected IK config on child bone")
	}
	if defs[1].IK.Iterations != 4 || len(defs[1].IK.Links) != 1 {
		t.Fatalf("unexpected IK config: %+v", defs[1].IK)
	}
	if !defs[1].Flags.Has(skeleton.FlagIK) {
		t.Fatalf("expected FlagIK set on child bone")
	}
}

func TestToBoneDefsConvertsHandedness(t *testing.T) {
	m := &Model{
		Bones: []Bone{
			{
				LocalName:   "leg",
				ParentIndex: -1,
				Position:    [3]float32{1, 2, 3},
				Flags:       BoneFlagIK,
				IKLinks: []IKLink{
					{BoneIndex: 0, HasLimits: true, LimitMin: [3]float32{0, 0, 0}, LimitMax: [3]float32{2, 0, 0}},
				},
			},
		},
	}
	defs := m.ToBoneDefs()

	if got := defs[0].InitialPosition.Z(); got != -3 {
		t.Errorf("expected Z negated to -3, got %v", got)
	}
	link := defs[0].IK.Links[0]
	if link.LimitMin.X() != -2 || link.LimitMax.X() != 0 {
		t.Errorf("expected limits negated and swapped to [-2, 0], got [%v, %v]",
			link.LimitMin.X(), link.LimitMax.X())
	}
}

func TestToMorphsConvertsVertexOffsets(t *testing.T) {
	morphs := sampleModel().ToMorphs()
	if len(morphs) != 1 {
		t.Fatalf("expected 1 morph, got %d", len(morphs))
	}
	if len(morphs[0].VertexOffsets) != 1 || morphs[0].VertexOffsets[0].VertexIndex != 3 {
		t.Fatalf("unexpected vertex offsets: %+v", morphs[0].VertexOffsets)
	}
}

func TestToRigidBodyDefsInvertsCollisionMask(t *testing.T) {
	defs := sampleModel().ToRigidBodyDefs()
	if len(defs) != 1 {
		t.Fatalf("expected 1 rigid body def, got %d", len(defs))
	}
	d := defs[0]
	if d.Shape != physics.ShapeCapsule || d.Mode != physics.ModePhysics {
		t.Fatalf("unexpected shape/mode: %+v", d)
	}
	if d.GroupMask != 0x0002 {
		t.Fatalf("expected inverted mask 0x0002, got 0x%04x", d.GroupMask)
	}
}

func TestToJointDefsPreservesBodyIndices(t *testing.T) {
	defs := sampleModel().ToJointDefs()
	if len(defs) != 1 {
		t.Fatalf("expected 1 joint def, got %d", len(defs))
	}
	if defs[0].RigidBodyAIdx != 0 || defs[0].RigidBodyBIdx != 1 {
		t.Fatalf("unexpected body indices: %+v", defs[0])
	}
	if defs[0].Type != physics.JointSpring6DOF {
		t.Fatalf("expected JointSpring6DOF, got %v", defs[0].Type)
	}
}
