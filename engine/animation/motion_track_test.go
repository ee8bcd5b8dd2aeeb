package animation

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hoshizora/mmd-engine/engine/bezier"
)

func approxEq(a, b, eps float32) bool {
	return math.Abs(float64(a-b)) <= float64(eps)
}

func TestBoneKeyframeInterpolation(t *testing.T) {
	track := NewBoneMotionTrack()
	linear := [4]byte{20, 20, 107, 107}

	track.Add(BoneKeyframe{
		FrameIndex:  0,
		Translation: mgl32.Vec3{0, 0, 0},
		Orientation: mgl32.QuatIdent(),
		InterpX:     linear, InterpY: linear, InterpZ: linear, InterpR: linear,
		PhysicsEnabled: true,
	})
	track.Add(BoneKeyframe{
		FrameIndex:  10,
		Translation: mgl32.Vec3{10, 0, 0},
		Orientation: mgl32.QuatIdent(),
		InterpX:     linear, InterpY: linear, InterpZ: linear, InterpR: linear,
		PhysicsEnabled: true,
	})

	cache := bezier.NewCache()
	sample := track.Seek(5, cache)
	if sample.Translation.X() < 4.9 || sample.Translation.X() > 5.1 {
		t.Errorf("seek(5).translation.x = %v, want in [4.9, 5.1]", sample.Translation.X())
	}
}

func TestPhysicsFlagHandoff(t *testing.T) {
	track := NewBoneMotionTrack()
	linear := [4]byte{20, 20, 107, 107}

	track.Add(BoneKeyframe{FrameIndex: 0, PhysicsEnabled: true, Orientation: mgl32.QuatIdent(),
		InterpX: linear, InterpY: linear, InterpZ: linear, InterpR: linear})
	track.Add(BoneKeyframe{FrameIndex: 10, PhysicsEnabled: false, Orientation: mgl32.QuatIdent(),
		Translation: mgl32.Vec3{1, 2, 3},
		InterpX:     linear, InterpY: linear, InterpZ: linear, InterpR: linear})

	cache := bezier.NewCache()
	sample := track.Seek(5, cache)

	if !sample.DisablePhysics || sample.EnablePhysics {
		t.Fatalf("expected disable_physics=true, enable_physics=false, got %+v", sample)
	}
	if sample.LocalTransformMix == nil {
		t.Fatalf("expected LocalTransformMix to be set")
	}
	if sample.Translation != (mgl32.Vec3{1, 2, 3}) {
		t.Errorf("expected next keyframe's pose, got %v", sample.Translation)
	}
}

func TestEmptyTrackReturnsIdentity(t *testing.T) {
	track := NewBoneMotionTrack()
	cache := bezier.NewCache()
	sample := track.Seek(5, cache)

	if sample.EnablePhysics {
		t.Errorf("expected enable_physics=false on empty track")
	}
	if sample.Translation != (mgl32.Vec3{0, 0, 0}) {
		t.Errorf("expected zero translation on empty track")
	}
	if sample.Orientation != mgl32.QuatIdent() {
		t.Errorf("expected identity orientation on empty track")
	}
}

func TestMorphTrackLinearBlend(t *testing.T) {
	track := NewMorphMotionTrack()
	track.Add(MorphKeyframe{FrameIndex: 0, Weight: 0})
	track.Add(MorphKeyframe{FrameIndex: 10, Weight: 1})

	if got := track.Seek(5); !approxEq(got, 0.5, 1e-4) {
		t.Errorf("seek(5) = %v, want ~0.5", got)
	}
}

func TestSeekPreciselyBlendsIntegerSamples(t *testing.T) {
	track := NewMorphMotionTrack()
	track.Add(MorphKeyframe{FrameIndex: 0, Weight: 0})
	track.Add(MorphKeyframe{FrameIndex: 1, Weight: 1})
	track.Add(MorphKeyframe{FrameIndex: 2, Weight: 2})

	got := track.SeekPrecisely(0, 0.5)
	if !approxEq(got, 0.5, 1e-4) {
		t.Errorf("seek_precisely(0, 0.5) = %v, want ~0.5", got)
	}
}
