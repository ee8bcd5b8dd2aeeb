package physics_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hoshizora/mmd-engine/engine/physics"
	"github.com/hoshizora/mmd-engine/engine/physics/refworld"
)

func identityBones(n int) []mgl32.Mat4 {
	bones := make([]mgl32.Mat4, n)
	for i := range bones {
		bones[i] = mgl32.Ident4()
	}
	return bones
}

func TestBuildSkipsOutOfRangeBoneIndex(t *testing.T) {
	defs := []physics.RigidBodyDef{
		{Name: "bad", BoneIndex: 5, Shape: physics.ShapeSphere, Size: mgl32.Vec3{1, 0, 0}, Mass: 1},
	}
	br, warnings, err := physics.Build(refworld.Factory{}, mgl32.Vec3{0, -9.8, 0}, 30, 4, defs, nil, identityBones(1))
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d: %v", len(warnings), warnings)
	}
	if br.TestBodyAt(0) != nil {
		t.Fatalf("expected body to be skipped")
	}
}

func TestFollowBoneTracksBoneTransform(t *testing.T) {
	defs := []physics.RigidBodyDef{
		{Name: "head", BoneIndex: 0, Shape: physics.ShapeSphere, Size: mgl32.Vec3{1, 0, 0}, Mass: 1, Mode: physics.ModeFollowBone},
	}
	bones := identityBones(1)
	br, warnings, err := physics.Build(refworld.Factory{}, mgl32.Vec3{0, -9.8, 0}, 30, 4, defs, nil, bones)
	if err != nil || len(warnings) != 0 {
		t.Fatalf("unexpected Build result: err=%v warnings=%v", err, warnings)
	}

	bones[0] = mgl32.Translate3D(0, 2, 0)
	br.SyncBodies(bones)

	got := br.TestBodyAt(0).GetTransform()
	if got[13] != 2 {
		t.Fatalf("expected body y translation 2, got %v", got[13])
	}
}

func TestResetRestoresInitialTransform(t *testing.T) {
	defs := []physics.RigidBodyDef{
		{Name: "free", BoneIndex: 0, Shape: physics.ShapeSphere, Size: mgl32.Vec3{1, 0, 0}, Mass: 1, Mode: physics.ModePhysics},
	}
	bones := identityBones(1)
	br, _, err := physics.Build(refworld.Factory{}, mgl32.Vec3{0, -9.8, 0}, 30, 4, defs, nil, bones)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	br.Initialize(bones)
	for i := 0; i < 30; i++ {
		br.Step(1.0/30, 50, 50)
	}
	br.SyncBones(bones)
	if bones[0][13] == 0 {
		t.Fatalf("expected body to have fallen under gravity")
	}

	br.Reset()
	got := br.TestBodyAt(0).GetTransform()
	if got[13] != 0 {
		t.Fatalf("expected reset to restore y=0, got %v", got[13])
	}
}

func TestVelocityClampIsIdempotent(t *testing.T) {
	defs := []physics.RigidBodyDef{
		{Name: "free", BoneIndex: 0, Shape: physics.ShapeSphere, Size: mgl32.Vec3{1, 0, 0}, Mass: 1, Mode: physics.ModePhysics},
	}
	bones := identityBones(1)
	br, _, _ := physics.Build(refworld.Factory{}, mgl32.Vec3{0, 0, 0}, 30, 4, defs, nil, bones)
	br.TestBodyAt(0).SetLinearVelocity(mgl32.Vec3{100, 0, 0})

	br.Step(0, 10, 10)
	once := br.TestBodyAt(0).GetLinearVelocity()
	br.Step(0, 10, 10)
	twice := br.TestBodyAt(0).GetLinearVelocity()

	if once != twice {
		t.Fatalf("expected clamp to be idempotent, got %v then %v", once, twice)
	}
	if once.Len() > 10.0001 {
		t.Fatalf("expected clamped velocity <= 10, got %v", once.Len())
	}
}

func TestDisabledBonePhysicsFollowsBoneInstead(t *testing.T) {
	defs := []physics.RigidBodyDef{
		{Name: "skirt", BoneIndex: 0, Shape: physics.ShapeSphere, Size: mgl32.Vec3{1, 0, 0}, Mass: 1, Mode: physics.ModePhysics},
	}
	bones := identityBones(1)
	br, _, err := physics.Build(refworld.Factory{}, mgl32.Vec3{0, -9.8, 0}, 30, 4, defs, nil, bones)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	br.Initialize(bones)

	br.SetBonePhysicsEnabled(0, false)
	bones[0] = mgl32.Translate3D(0, 5, 0)

	br.SyncBodies(bones)
	if got := br.TestBodyAt(0).GetTransform(); got[13] != 5 {
		t.Fatalf("expected disabled-bone body to follow the bone to y=5, got %v", got[13])
	}

	br.Step(1.0/30, 50, 50)
	br.SyncBones(bones)
	if bones[0][13] != 5 {
		t.Fatalf("expected SyncBones to leave the disabled bone alone, got y=%v", bones[0][13])
	}

	br.SetBonePhysicsEnabled(0, true)
	br.SyncBones(bones)
	if bones[0][13] == 5 {
		t.Fatalf("expected re-enabled bone to take the simulated pose again")
	}
}

func TestCloseRemovesAllBodies(t *testing.T) {
	defs := []physics.RigidBodyDef{
		{Name: "a", BoneIndex: 0, Shape: physics.ShapeSphere, Size: mgl32.Vec3{1, 0, 0}, Mass: 1, Mode: physics.ModePhysics},
		{Name: "b", BoneIndex: 1, Shape: physics.ShapeSphere, Size: mgl32.Vec3{1, 0, 0}, Mass: 1, Mode: physics.ModePhysics},
	}
	joints := []physics.JointDef{
		{Name: "j", RigidBodyAIdx: 0, RigidBodyBIdx: 1},
	}
	bones := identityBones(2)
	br, warnings, err := physics.Build(refworld.Factory{}, mgl32.Vec3{}, 30, 4, defs, joints, bones)
	if err != nil || len(warnings) != 0 {
		t.Fatalf("unexpected Build result: err=%v warnings=%v", err, warnings)
	}
	w := br.TestWorld().(*refworld.World)
	br.Close()
	if len(w.Bodies()) != 0 {
		t.Fatalf("expected all bodies removed, got %d", len(w.Bodies()))
	}
}
