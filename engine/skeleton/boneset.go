package skeleton

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// BoneSet is a built skeleton: bones stored in source (PMX) order so
// that bone indices held by other subsystems (rigid bodies, bone
// morph offsets, IK configs) stay valid without remapping, plus a
// name index, a children cache, and the topologically ordered
// pre-physics/post-physics evaluation lists.
type BoneSet struct {
	bones       []Bone
	nameToIndex map[string]int
	prePhysics  []int // evaluation order, DeformAfterPhysics unset
	postPhysics []int // evaluation order, DeformAfterPhysics set
}

// Build constructs a BoneSet from raw bone definitions, keeping them
// indexed exactly as they appeared in the source file (e.g. PMX bone
// order) and precomputing body_shift, inverse bind matrices, and the
// children cache. PMX files list every parent before its children, so
// storage order is already topological; the *evaluation* order is
// still derived independently with a BFS from root bones
// (Parent == -1), mirroring the breadth-first traversal used to order
// glTF skin joints, so that a malformed file with forward parent
// references still evaluates parents first. Bones unreachable from any
// root (a cyclic parent chain) are appended in their original relative
// order at the end, so Build never panics or drops a bone.
func Build(defs []BoneDef) *BoneSet {
	n := len(defs)
	children := make([][]int, n)
	for i, d := range defs {
		if d.Parent >= 0 && d.Parent < n {
			children[d.Parent] = append(children[d.Parent], i)
		}
	}

	bones := make([]Bone, n)
	nameToIndex := make(map[string]int, n)
	for i, d := range defs {
		b := Bone{BoneDef: d, id: i}
		if d.Parent >= 0 && d.Parent < n {
			b.parent = d.Parent
		} else {
			b.parent = -1
		}
		if d.IK != nil {
			ik := *d.IK
			ik.TargetBone = clampIndex(d.IK.TargetBone, n)
			links := make([]IKLink, len(d.IK.Links))
			for j, l := range d.IK.Links {
				l.BoneIndex = clampIndex(l.BoneIndex, n)
				links[j] = l
			}
			ik.Links = links
			b.IK = &ik
		}
		if d.Append != nil {
			ap := *d.Append
			ap.SourceBone = clampIndex(d.Append.SourceBone, n)
			b.Append = &ap
		}
		b.AnimationRotate = mgl32.QuatIdent()
		b.IKRotate = mgl32.QuatIdent()
		b.AppendRotate = mgl32.QuatIdent()
		b.LocalToParent = mgl32.Ident4()
		b.LocalToWorld = mgl32.Ident4()
		b.children = children[i]
		bones[i] = b
		nameToIndex[d.Name] = i
	}

	for i := range bones {
		if bones[i].parent >= 0 {
			bones[i].bodyShift = bones[i].InitialPosition.Sub(bones[bones[i].parent].InitialPosition)
		} else {
			bones[i].bodyShift = bones[i].InitialPosition
		}
		bind := mgl32.Translate3D(bones[i].InitialPosition.X(), bones[i].InitialPosition.Y(), bones[i].InitialPosition.Z())
		bones[i].inverseInit = bind.Inv()
	}

	order := make([]int, 0, n)
	visited := make([]bool, n)
	queue := make([]int, 0, n)
	for i := range bones {
		if bones[i].parent < 0 {
			visited[i] = true
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		order = append(order, cur)
		for _, c := range children[cur] {
			if !visited[c] {
				visited[c] = true
				queue = append(queue, c)
			}
		}
	}
	for i := range bones {
		if !visited[i] {
			order = append(order, i)
		}
	}

	var pre, post []int
	for _, i := range order {
		if bones[i].Flags.Has(FlagDeformAfterPhysics) {
			post = append(post, i)
		} else {
			pre = append(pre, i)
		}
	}
	// Within each pass, higher transform levels evaluate later. The
	// stable sort keeps the topological order inside a level, so a
	// parent still precedes its children unless the file's levels say
	// otherwise.
	byLevel := func(idxs []int) {
		sort.SliceStable(idxs, func(a, b int) bool {
			return bones[idxs[a]].TransformLevel < bones[idxs[b]].TransformLevel
		})
	}
	byLevel(pre)
	byLevel(post)

	return &BoneSet{bones: bones, nameToIndex: nameToIndex, prePhysics: pre, postPhysics: post}
}

func clampIndex(idx, n int) int {
	if idx < 0 || idx >= n {
		return -1
	}
	return idx
}

// Len returns the number of bones.
func (s *BoneSet) Len() int { return len(s.bones) }

// Bone returns a pointer to bone i's mutable state.
func (s *BoneSet) Bone(i int) *Bone { return &s.bones[i] }

// FindBoneIndexByName implements animation.BoneTarget.
func (s *BoneSet) FindBoneIndexByName(name string) (int, bool) {
	idx, ok := s.nameToIndex[name]
	return idx, ok
}

// BoneAnimationTranslate implements animation.BoneTarget.
func (s *BoneSet) BoneAnimationTranslate(i int) mgl32.Vec3 { return s.bones[i].AnimationTranslate }

// BoneAnimationRotate implements animation.BoneTarget.
func (s *BoneSet) BoneAnimationRotate(i int) mgl32.Quat { return s.bones[i].AnimationRotate }

// SetBoneAnimation implements animation.BoneTarget.
func (s *BoneSet) SetBoneAnimation(i int, translate mgl32.Vec3, rotate mgl32.Quat) {
	s.bones[i].AnimationTranslate = translate
	s.bones[i].AnimationRotate = rotate
}

// ApplyBoneMorph implements morph.BoneSink.
func (s *BoneSet) ApplyBoneMorph(boneIndex int, translation mgl32.Vec3, rotation mgl32.Quat) {
	if boneIndex < 0 || boneIndex >= len(s.bones) {
		return
	}
	b := &s.bones[boneIndex]
	b.AnimationTranslate = b.AnimationTranslate.Add(translation)
	b.AnimationRotate = b.AnimationRotate.Mul(rotation)
}

// ResetAll clears every bone's per-frame dynamic state.
func (s *BoneSet) ResetAll() {
	for i := range s.bones {
		s.bones[i].Reset()
	}
}

func parentLocalToWorld(s *BoneSet, parent int) mgl32.Mat4 {
	if parent < 0 {
		return mgl32.Ident4()
	}
	return s.bones[parent].LocalToWorld
}

func computeLocalToParent(b *Bone) mgl32.Mat4 {
	translateVec := b.bodyShift.Add(localTranslation(b))
	t := mgl32.Translate3D(translateVec.X(), translateVec.Y(), translateVec.Z())
	r := localRotation(b).Normalize().Mat4()
	return t.Mul4(r)
}

// localTranslation is the bone's composed local translation this frame,
// excluding bodyShift: sampled animation plus the append contribution.
func localTranslation(b *Bone) mgl32.Vec3 {
	out := b.AnimationTranslate
	if b.Flags.Has(FlagAppendTranslate) {
		out = out.Add(b.AppendTranslate)
	}
	return out
}

// localRotation is the bone's composed local rotation this frame:
// ik_rotate * animation_rotate * append_rotate, with the fixed-axis
// projection applied to the animation term first.
func localRotation(b *Bone) mgl32.Quat {
	rot := b.AnimationRotate
	if b.Flags.Has(FlagFixedAxis) && b.FixedAxis != nil {
		rot = projectOntoAxis(rot, *b.FixedAxis)
	}
	if b.Flags.Has(FlagAppendRotate) {
		rot = rot.Mul(b.AppendRotate)
	}
	if b.Flags.Has(FlagIKEnabled) {
		rot = b.IKRotate.Mul(rot)
	}
	return rot
}

// projectOntoAxis projects the rotation's axis onto the fixed axis,
// discarding orthogonal components, then re-normalizes.
func projectOntoAxis(q mgl32.Quat, axis mgl32.Vec3) mgl32.Quat {
	axis = axis.Normalize()
	proj := axis.Mul(q.V.Dot(axis))
	out := mgl32.Quat{W: q.W, V: proj}
	return out.Normalize()
}

// EvaluatePrePhysics runs pass 1: every bone not flagged
// DeformAfterPhysics, in topological order, including append-transform
// resolution (which relies on the source bone already having its
// LocalToParent computed this frame) and the IK pass.
func (s *BoneSet) EvaluatePrePhysics() {
	for _, i := range s.prePhysics {
		s.resolveAppend(i)
		b := &s.bones[i]
		b.LocalToParent = computeLocalToParent(b)
		b.LocalToWorld = parentLocalToWorld(s, b.parent).Mul4(b.LocalToParent)
	}
	for _, i := range s.prePhysics {
		b := &s.bones[i]
		if b.Flags.Has(FlagIK) && b.IK != nil {
			Solve(s, i)
		}
	}
}

// resolveAppend computes AppendTranslate/AppendRotate for bone i from
// its configured source bone, if any. With FlagAppendLocal the source's
// composed local frame feeds the append instead of its raw sampled
// animation value, which is why resolution runs after the source's
// LocalToParent is already known this frame.
func (s *BoneSet) resolveAppend(i int) {
	b := &s.bones[i]
	if b.Append == nil || b.Append.SourceBone < 0 {
		return
	}
	source := &s.bones[b.Append.SourceBone]
	rate := b.Append.Rate

	if b.Flags.Has(FlagAppendTranslate) {
		srcT := source.AnimationTranslate
		if b.Flags.Has(FlagAppendLocal) {
			srcT = localTranslation(source)
		}
		b.AppendTranslate = srcT.Mul(rate)
	}
	if b.Flags.Has(FlagAppendRotate) {
		srcR := source.AnimationRotate
		if b.Flags.Has(FlagAppendLocal) {
			srcR = localRotation(source)
		}
		b.AppendRotate = mgl32.QuatSlerp(mgl32.QuatIdent(), srcR, rate)
	}
}

// EvaluatePostPhysics runs pass 2: bones flagged
// DeformAfterPhysics, in topological order. Must be called after the
// physics bridge has written dynamic bone poses back.
func (s *BoneSet) EvaluatePostPhysics() {
	for _, i := range s.postPhysics {
		b := &s.bones[i]
		b.LocalToParent = computeLocalToParent(b)
		b.LocalToWorld = parentLocalToWorld(s, b.parent).Mul4(b.LocalToParent)
	}
}

// propagateSubtree recomputes LocalToParent/LocalToWorld for bone i and
// every descendant, in topological order, used by the IK solver after
// mutating a link's IKRotate.
func (s *BoneSet) propagateSubtree(i int) {
	b := &s.bones[i]
	b.LocalToParent = computeLocalToParent(b)
	b.LocalToWorld = parentLocalToWorld(s, b.parent).Mul4(b.LocalToParent)
	for _, c := range b.children {
		s.propagateSubtree(c)
	}
}

// SkinMatrices returns skin[i] = local_to_world[i] * inverse_init[i]
// for every bone, suitable for direct GPU upload via
// common.SliceToBytes on the returned flattened buffer (left to the
// caller, since layout conventions vary by renderer).
func (s *BoneSet) SkinMatrices() []mgl32.Mat4 {
	out := make([]mgl32.Mat4, len(s.bones))
	for i := range s.bones {
		out[i] = s.bones[i].LocalToWorld.Mul4(s.bones[i].inverseInit)
	}
	return out
}

// WorldPosition returns the bone's current world-space translation
// (the fourth column of LocalToWorld).
func (b *Bone) WorldPosition() mgl32.Vec3 {
	return mgl32.Vec3{b.LocalToWorld[12], b.LocalToWorld[13], b.LocalToWorld[14]}
}
