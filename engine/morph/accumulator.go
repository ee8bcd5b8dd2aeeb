package morph

import "github.com/go-gl/mathgl/mgl32"

const maxRecursionDepth = 16
const weightEpsilon = 1e-3

// BoneSink receives the effect of a Bone-kind morph. Implementations
// are expected to perform:
//
//	bone.animation_translate += translation
//	bone.animation_rotate     = bone.animation_rotate.Mul(rotation)
//
// i.e. rotation is pre-scaled by the morph weight using the MMD
// quaternion convention (see BoneOffsetRotation), not slerped.
type BoneSink interface {
	ApplyBoneMorph(boneIndex int, translation mgl32.Vec3, rotation mgl32.Quat)
}

// Accumulator holds the full morph table for one model and the
// per-frame mutable results (material overrides, UV deltas) derived
// from it.
type Accumulator struct {
	morphs      []Morph
	nameToIndex map[string]int

	materialResults []MaterialMorphResult
	uvDeltas        []mgl32.Vec2
	vertexCount     int

	gpuUVMorphOffsets     []float32
	gpuUVMorphWeights     []float32
	uvMorphIndices        []int
	gpuUVMorphInitialized bool
}

// NewAccumulator builds an accumulator over morphs for a mesh with
// vertexCount vertices and materialCount materials.
func NewAccumulator(morphs []Morph, vertexCount, materialCount int) *Accumulator {
	nameToIndex := make(map[string]int, len(morphs))
	for i, m := range morphs {
		nameToIndex[m.Name] = i
	}

	results := make([]MaterialMorphResult, materialCount)
	for i := range results {
		results[i].Reset()
	}

	return &Accumulator{
		morphs:          morphs,
		nameToIndex:     nameToIndex,
		materialResults: results,
		uvDeltas:        make([]mgl32.Vec2, vertexCount),
		vertexCount:     vertexCount,
	}
}

// FindMorphIndexByName implements animation.MorphTarget.
func (a *Accumulator) FindMorphIndexByName(name string) (int, bool) {
	idx, ok := a.nameToIndex[name]
	return idx, ok
}

// MorphWeight implements animation.MorphTarget.
func (a *Accumulator) MorphWeight(i int) float32 { return a.morphs[i].Weight }

// SetMorphWeight implements animation.MorphTarget.
func (a *Accumulator) SetMorphWeight(i int, w float32) { a.morphs[i].Weight = w }

// MaterialResults returns the per-material accumulated results from
// the most recent ApplyMorphs call.
func (a *Accumulator) MaterialResults() []MaterialMorphResult { return a.materialResults }

// UVDeltas returns the per-vertex accumulated UV (and AdditionalUV1)
// deltas from the most recent ApplyMorphs call.
func (a *Accumulator) UVDeltas() []mgl32.Vec2 { return a.uvDeltas }

// InitGPUUVMorphData builds the dense (morphCount x vertexCount x 2)
// UV-morph offset buffer once, at model build time. Subsequent frames
// only update the parallel weight vector via SyncGPUUVMorphWeights.
func (a *Accumulator) InitGPUUVMorphData() {
	a.uvMorphIndices = a.uvMorphIndices[:0]
	for i, m := range a.morphs {
		if m.Kind == KindUV || m.Kind == KindAdditionalUV1 {
			a.uvMorphIndices = append(a.uvMorphIndices, i)
		}
	}

	morphCount := len(a.uvMorphIndices)
	a.gpuUVMorphOffsets = make([]float32, morphCount*a.vertexCount*2)
	a.gpuUVMorphWeights = make([]float32, morphCount)

	for slot, morphIdx := range a.uvMorphIndices {
		for _, off := range a.morphs[morphIdx].UVOffsets {
			if off.VertexIndex < 0 || off.VertexIndex >= a.vertexCount {
				continue
			}
			base := (slot*a.vertexCount + off.VertexIndex) * 2
			a.gpuUVMorphOffsets[base] = off.Offset.X()
			a.gpuUVMorphOffsets[base+1] = off.Offset.Y()
		}
	}

	a.gpuUVMorphInitialized = true
}

// SyncGPUUVMorphWeights refreshes the dense weight vector from current
// morph weights. Call once per frame after ApplyMorphs.
func (a *Accumulator) SyncGPUUVMorphWeights() {
	for slot, morphIdx := range a.uvMorphIndices {
		a.gpuUVMorphWeights[slot] = a.morphs[morphIdx].Weight
	}
}

// GPUUVMorphOffsets returns the dense (morphCount x vertexCount x 2)
// offset buffer built by InitGPUUVMorphData.
func (a *Accumulator) GPUUVMorphOffsets() []float32 { return a.gpuUVMorphOffsets }

// GPUUVMorphWeights returns the per-morph weight vector kept in sync
// with SyncGPUUVMorphWeights.
func (a *Accumulator) GPUUVMorphWeights() []float32 { return a.gpuUVMorphWeights }

// ApplyMorphs resets material results and UV deltas, then dispatches
// every morph whose |weight| exceeds the activation threshold. bones
// receives Bone-morph effects; positions (vertexCount-long, bind-pose
// or otherwise pre-reset by the caller) receives Vertex-morph offsets
// in place.
func (a *Accumulator) ApplyMorphs(bones BoneSink, positions []mgl32.Vec3) {
	for i := range a.materialResults {
		a.materialResults[i].Reset()
	}
	for i := range a.uvDeltas {
		a.uvDeltas[i] = mgl32.Vec2{0, 0}
	}

	for i, m := range a.morphs {
		if abs32(m.Weight) > weightEpsilon {
			a.applySingleMorph(i, m.Weight, bones, positions, 0)
		}
	}
}

func (a *Accumulator) applySingleMorph(morphIdx int, weight float32, bones BoneSink, positions []mgl32.Vec3, depth int) {
	if depth > maxRecursionDepth {
		return
	}
	if abs32(weight) < weightEpsilon {
		return
	}
	m := a.morphs[morphIdx]

	switch m.Kind {
	case KindVertex:
		a.applyVertexMorph(m, weight, positions)
	case KindBone:
		a.applyBoneMorph(m, weight, bones)
	case KindUV, KindAdditionalUV1:
		a.applyUVMorph(m, weight)
	case KindMaterial:
		a.applyMaterialMorph(m, weight)
	case KindGroup, KindFlip:
		for _, entry := range m.GroupEntries {
			if entry.MorphIndex == morphIdx {
				continue
			}
			if entry.MorphIndex < 0 || entry.MorphIndex >= len(a.morphs) {
				continue
			}
			a.applySingleMorph(entry.MorphIndex, weight*entry.Influence, bones, positions, depth+1)
		}
	case KindAdditionalUV2, KindAdditionalUV3, KindAdditionalUV4, KindImpulse:
		// Accepted but intentionally inert.
	}
}

func (a *Accumulator) applyVertexMorph(m Morph, weight float32, positions []mgl32.Vec3) {
	for _, off := range m.VertexOffsets {
		if off.VertexIndex < 0 || off.VertexIndex >= len(positions) {
			continue
		}
		positions[off.VertexIndex] = positions[off.VertexIndex].Add(off.Offset.Mul(weight))
	}
}

// BoneOffsetRotation computes the MMD-convention scaled quaternion for
// a bone morph: linear scaling of the imaginary parts and a
// one-minus-lerp of the real part, re-normalized. This is distinct from
// slerp.
func BoneOffsetRotation(offset mgl32.Quat, weight float32) mgl32.Quat {
	q := mgl32.Quat{
		W: 1 - (1-offset.W)*weight,
		V: mgl32.Vec3{offset.V[0] * weight, offset.V[1] * weight, offset.V[2] * weight},
	}
	return q.Normalize()
}

func (a *Accumulator) applyBoneMorph(m Morph, weight float32, bones BoneSink) {
	if bones == nil {
		return
	}
	for _, off := range m.BoneOffsets {
		rotation := BoneOffsetRotation(off.Rotation, weight)
		bones.ApplyBoneMorph(off.BoneIndex, off.Translation.Mul(weight), rotation)
	}
}

func (a *Accumulator) applyUVMorph(m Morph, weight float32) {
	for _, off := range m.UVOffsets {
		if off.VertexIndex < 0 || off.VertexIndex >= len(a.uvDeltas) {
			continue
		}
		delta := a.uvDeltas[off.VertexIndex]
		a.uvDeltas[off.VertexIndex] = mgl32.Vec2{
			delta.X() + off.Offset.X()*weight,
			delta.Y() + off.Offset.Y()*weight,
		}
	}
}

func (a *Accumulator) applyMaterialMorph(m Morph, weight float32) {
	for _, off := range m.MaterialOffsets {
		if off.MaterialIndex < 0 {
			for i := range a.materialResults {
				applyMaterialOp(&a.materialResults[i], off, weight)
			}
			continue
		}
		if off.MaterialIndex >= len(a.materialResults) {
			continue
		}
		applyMaterialOp(&a.materialResults[off.MaterialIndex], off, weight)
	}
}

func applyMaterialOp(result *MaterialMorphResult, off MaterialMorphOffset, weight float32) {
	if off.Operation == MaterialOpAdditive {
		result.ApplyAdditive(off, weight)
		return
	}
	result.ApplyMultiply(off, weight)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
