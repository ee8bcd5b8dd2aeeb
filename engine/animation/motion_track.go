// Package animation implements motion tracks (ordered keyframe
// containers), the Bézier-driven sampling used to interpolate between
// them, and the evaluator that glues sampled tracks onto bones and
// morphs with a blend weight.
package animation

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hoshizora/mmd-engine/engine/bezier"
)

// BoneFrameTransform is the result of sampling a BoneMotionTrack at a
// given frame: a translation/orientation pair plus the physics-flag
// handoff metadata described on BoneMotionTrack.Seek.
type BoneFrameTransform struct {
	Translation mgl32.Vec3
	Orientation mgl32.Quat

	// LocalTransformMix is set only during the physics-enabled-to-disabled
	// handoff: it carries the coefficient that MixedTranslation and
	// MixedOrientation (applied by Evaluate) use to cross-fade the
	// bone's current pose toward this user-authored pose.
	LocalTransformMix *float32

	EnablePhysics  bool
	DisablePhysics bool
}

// MixedTranslation returns the translation to apply for this sample:
// during the physics-enabled-to-disabled handoff it cross-fades the
// bone's current translation toward the sampled one by the handoff
// coefficient, otherwise it is the sampled translation unchanged.
func (t BoneFrameTransform) MixedTranslation(current mgl32.Vec3) mgl32.Vec3 {
	if t.LocalTransformMix == nil {
		return t.Translation
	}
	return current.Add(t.Translation.Sub(current).Mul(*t.LocalTransformMix))
}

// MixedOrientation is the rotation counterpart of MixedTranslation,
// slerping the bone's current orientation toward the sampled one by
// the handoff coefficient.
func (t BoneFrameTransform) MixedOrientation(current mgl32.Quat) mgl32.Quat {
	if t.LocalTransformMix == nil {
		return t.Orientation
	}
	return mgl32.QuatSlerp(current, t.Orientation, *t.LocalTransformMix)
}

// identityFrame is the all-identity result returned when neither a
// previous nor a next keyframe exists for a bone name.
func identityFrame() BoneFrameTransform {
	return BoneFrameTransform{
		Translation:   mgl32.Vec3{0, 0, 0},
		Orientation:   mgl32.QuatIdent(),
		EnablePhysics: false,
	}
}

// BoneKeyframe is a single sampled bone pose on the timeline.
type BoneKeyframe struct {
	FrameIndex     uint32
	Translation    mgl32.Vec3
	Orientation    mgl32.Quat
	InterpX        [4]byte
	InterpY        [4]byte
	InterpZ        [4]byte
	InterpR        [4]byte
	PhysicsEnabled bool
}

// MorphKeyframe is a single sampled morph weight on the timeline.
type MorphKeyframe struct {
	FrameIndex uint32
	Weight     float32
}

// BoneMotionTrack stores bone keyframes ordered by frame index, unique
// per frame, supporting exact lookup, bracketing search, and
// Bézier-interpolated sampling.
type BoneMotionTrack struct {
	keys []BoneKeyframe // sorted ascending by FrameIndex
}

// NewBoneMotionTrack returns an empty track.
func NewBoneMotionTrack() *BoneMotionTrack {
	return &BoneMotionTrack{}
}

// Add inserts a keyframe, keeping the track sorted. Re-adding the same
// FrameIndex overwrites the existing entry.
func (t *BoneMotionTrack) Add(kf BoneKeyframe) {
	i := sort.Search(len(t.keys), func(i int) bool { return t.keys[i].FrameIndex >= kf.FrameIndex })
	if i < len(t.keys) && t.keys[i].FrameIndex == kf.FrameIndex {
		t.keys[i] = kf
		return
	}
	t.keys = append(t.keys, BoneKeyframe{})
	copy(t.keys[i+1:], t.keys[i:])
	t.keys[i] = kf
}

// Len reports the number of keyframes.
func (t *BoneMotionTrack) Len() int { return len(t.keys) }

// IsEmpty reports whether the track has no keyframes.
func (t *BoneMotionTrack) IsEmpty() bool { return len(t.keys) == 0 }

// MaxFrameIndex returns the highest frame index, or 0 if empty.
func (t *BoneMotionTrack) MaxFrameIndex() uint32 {
	if len(t.keys) == 0 {
		return 0
	}
	return t.keys[len(t.keys)-1].FrameIndex
}

// Find returns the exact keyframe at f, if one exists.
func (t *BoneMotionTrack) Find(f uint32) (BoneKeyframe, bool) {
	i := sort.Search(len(t.keys), func(i int) bool { return t.keys[i].FrameIndex >= f })
	if i < len(t.keys) && t.keys[i].FrameIndex == f {
		return t.keys[i], true
	}
	return BoneKeyframe{}, false
}

// SearchClosest returns (prev, next) such that prev.FrameIndex <= f <
// next.FrameIndex. Either may be absent (ok=false) at the track's ends.
func (t *BoneMotionTrack) SearchClosest(f uint32) (prev BoneKeyframe, prevOK bool, next BoneKeyframe, nextOK bool) {
	i := sort.Search(len(t.keys), func(i int) bool { return t.keys[i].FrameIndex > f })
	if i > 0 {
		prev, prevOK = t.keys[i-1], true
	}
	if i < len(t.keys) {
		next, nextOK = t.keys[i], true
	}
	return
}

// Seek returns an interpolated BoneFrameTransform at frame f.
func (t *BoneMotionTrack) Seek(f uint32, cache *bezier.Cache) BoneFrameTransform {
	prev, prevOK, next, nextOK := t.SearchClosest(f)

	switch {
	case !prevOK && !nextOK:
		return identityFrame()
	case prevOK && !nextOK:
		return BoneFrameTransform{
			Translation:   prev.Translation,
			Orientation:   prev.Orientation,
			EnablePhysics: prev.PhysicsEnabled,
		}
	case !prevOK && nextOK:
		return BoneFrameTransform{
			Translation:   next.Translation,
			Orientation:   next.Orientation,
			EnablePhysics: next.PhysicsEnabled,
		}
	}

	if prev.FrameIndex == next.FrameIndex {
		return BoneFrameTransform{
			Translation:   prev.Translation,
			Orientation:   prev.Orientation,
			EnablePhysics: prev.PhysicsEnabled,
		}
	}

	// Physics-flag handoff: physics was enabled, now disabled at next.
	if prev.PhysicsEnabled && !next.PhysicsEnabled {
		span := float32(next.FrameIndex - prev.FrameIndex)
		coef := float32(f-prev.FrameIndex) / span
		mix := coef
		return BoneFrameTransform{
			Translation:    next.Translation,
			Orientation:    next.Orientation,
			LocalTransformMix: &mix,
			EnablePhysics:  false,
			DisablePhysics: true,
		}
	}

	span := next.FrameIndex - prev.FrameIndex
	t0 := float32(f-prev.FrameIndex) / float32(span)

	amountX := bezierAmount(cache, next.InterpX, span, t0)
	amountY := bezierAmount(cache, next.InterpY, span, t0)
	amountZ := bezierAmount(cache, next.InterpZ, span, t0)
	amountR := bezierAmount(cache, next.InterpR, span, t0)

	translation := mgl32.Vec3{
		lerp(prev.Translation.X(), next.Translation.X(), amountX),
		lerp(prev.Translation.Y(), next.Translation.Y(), amountY),
		lerp(prev.Translation.Z(), next.Translation.Z(), amountZ),
	}
	orientation := mgl32.QuatSlerp(prev.Orientation, next.Orientation, amountR)

	return BoneFrameTransform{
		Translation:   translation,
		Orientation:   orientation,
		EnablePhysics: prev.PhysicsEnabled && next.PhysicsEnabled,
	}
}

// SeekPrecisely samples a fractional frame f+alpha by linearly blending
// Seek(f) and Seek(f+1) (slerp for orientation). The LocalTransformMix
// combination follows the four (prev-set, next-set) cases: if both are
// present they are blended by alpha; if only one is present it carries through
// scaled toward alpha's side; if neither is present the result has none.
func (t *BoneMotionTrack) SeekPrecisely(f uint32, alpha float32, cache *bezier.Cache) BoneFrameTransform {
	if alpha <= 0 {
		return t.Seek(f, cache)
	}
	a := t.Seek(f, cache)
	b := t.Seek(f+1, cache)

	result := BoneFrameTransform{
		Translation:    a.Translation.Mul(1 - alpha).Add(b.Translation.Mul(alpha)),
		Orientation:    mgl32.QuatSlerp(a.Orientation, b.Orientation, alpha),
		EnablePhysics:  a.EnablePhysics && b.EnablePhysics,
		DisablePhysics: a.DisablePhysics || b.DisablePhysics,
	}

	switch {
	case a.LocalTransformMix != nil && b.LocalTransformMix != nil:
		mix := lerp(*a.LocalTransformMix, *b.LocalTransformMix, alpha)
		result.LocalTransformMix = &mix
	case a.LocalTransformMix != nil:
		mix := *a.LocalTransformMix * (1 - alpha)
		result.LocalTransformMix = &mix
	case b.LocalTransformMix != nil:
		mix := *b.LocalTransformMix * alpha
		result.LocalTransformMix = &mix
	}

	return result
}

func bezierAmount(cache *bezier.Cache, interp [4]byte, span uint32, t float32) float32 {
	c0 := bezier.Point{X: float32(interp[0]) / 127, Y: float32(interp[1]) / 127}
	c1 := bezier.Point{X: float32(interp[2]) / 127, Y: float32(interp[3]) / 127}
	curve := cache.GetOrNew(c0, c1, int(span))
	return curve.Value(t)
}

func lerp(a, b, t float32) float32 { return a + (b-a)*t }

// MorphMotionTrack stores morph weight keyframes ordered by frame
// index, unique per frame.
type MorphMotionTrack struct {
	keys []MorphKeyframe
}

// NewMorphMotionTrack returns an empty track.
func NewMorphMotionTrack() *MorphMotionTrack {
	return &MorphMotionTrack{}
}

// Add inserts a keyframe, keeping the track sorted; re-adding the same
// FrameIndex overwrites.
func (t *MorphMotionTrack) Add(kf MorphKeyframe) {
	i := sort.Search(len(t.keys), func(i int) bool { return t.keys[i].FrameIndex >= kf.FrameIndex })
	if i < len(t.keys) && t.keys[i].FrameIndex == kf.FrameIndex {
		t.keys[i] = kf
		return
	}
	t.keys = append(t.keys, MorphKeyframe{})
	copy(t.keys[i+1:], t.keys[i:])
	t.keys[i] = kf
}

func (t *MorphMotionTrack) Len() int      { return len(t.keys) }
func (t *MorphMotionTrack) IsEmpty() bool { return len(t.keys) == 0 }

func (t *MorphMotionTrack) MaxFrameIndex() uint32 {
	if len(t.keys) == 0 {
		return 0
	}
	return t.keys[len(t.keys)-1].FrameIndex
}

func (t *MorphMotionTrack) Find(f uint32) (MorphKeyframe, bool) {
	i := sort.Search(len(t.keys), func(i int) bool { return t.keys[i].FrameIndex >= f })
	if i < len(t.keys) && t.keys[i].FrameIndex == f {
		return t.keys[i], true
	}
	return MorphKeyframe{}, false
}

func (t *MorphMotionTrack) SearchClosest(f uint32) (prev MorphKeyframe, prevOK bool, next MorphKeyframe, nextOK bool) {
	i := sort.Search(len(t.keys), func(i int) bool { return t.keys[i].FrameIndex > f })
	if i > 0 {
		prev, prevOK = t.keys[i-1], true
	}
	if i < len(t.keys) {
		next, nextOK = t.keys[i], true
	}
	return
}

// Seek returns the linearly blended weight at frame f.
func (t *MorphMotionTrack) Seek(f uint32) float32 {
	prev, prevOK, next, nextOK := t.SearchClosest(f)
	switch {
	case !prevOK && !nextOK:
		return 0
	case prevOK && !nextOK:
		return prev.Weight
	case !prevOK && nextOK:
		return next.Weight
	case prev.FrameIndex == next.FrameIndex:
		return prev.Weight
	}
	t0 := float32(f-prev.FrameIndex) / float32(next.FrameIndex-prev.FrameIndex)
	return lerp(prev.Weight, next.Weight, t0)
}

// SeekPrecisely linearly blends Seek(f) and Seek(f+1) by alpha.
func (t *MorphMotionTrack) SeekPrecisely(f uint32, alpha float32) float32 {
	if alpha <= 0 {
		return t.Seek(f)
	}
	return lerp(t.Seek(f), t.Seek(f+1), alpha)
}
