// Package morph implements the per-frame morph accumulator: vertex,
// bone, UV, material (multiplicative/additive), group, and flip
// morphs, dispatched through bounded recursion.
package morph

import "github.com/go-gl/mathgl/mgl32"

// Kind identifies a morph's payload type.
type Kind int

const (
	KindVertex Kind = iota
	KindBone
	KindUV
	KindAdditionalUV1
	KindAdditionalUV2
	KindAdditionalUV3
	KindAdditionalUV4
	KindMaterial
	KindGroup
	KindFlip
	KindImpulse
)

// VertexOffset displaces a single mesh vertex.
type VertexOffset struct {
	VertexIndex int
	Offset      mgl32.Vec3
}

// BoneOffset displaces and rotates a single bone.
type BoneOffset struct {
	BoneIndex   int
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
}

// UVOffset displaces a single vertex's UV (and extended UV) channel.
// The offset is 4-wide (xyzw) even though only xy is consumed by the
// primary UV channel; AdditionalUV1 reuses the same shape.
type UVOffset struct {
	VertexIndex int
	Offset      mgl32.Vec4
}

// Material operation codes.
const (
	MaterialOpMultiply = 0
	MaterialOpAdditive = 1
)

// MaterialMorphOffset carries per-property overrides applied to one
// material (or every material, when MaterialIndex < 0).
type MaterialMorphOffset struct {
	MaterialIndex    int
	Operation        int
	Diffuse          mgl32.Vec4
	Specular         mgl32.Vec3
	SpecularStrength float32
	Ambient          mgl32.Vec3
	Edge             mgl32.Vec4
	EdgeSize         float32
	TextureTint      mgl32.Vec4
	EnvironmentTint  mgl32.Vec4
	ToonTint         mgl32.Vec4
}

// GroupEntry references a sub-morph inside a Group or Flip morph.
type GroupEntry struct {
	MorphIndex int
	Influence  float32
}

// Morph is a single named, weighted, typed deformation.
type Morph struct {
	Name   string
	Kind   Kind
	Weight float32

	VertexOffsets   []VertexOffset
	BoneOffsets     []BoneOffset
	UVOffsets       []UVOffset
	MaterialOffsets []MaterialMorphOffset
	GroupEntries    []GroupEntry
}

// MaterialMorphResult accumulates the morphed material properties for
// one material slot, starting from the neutral identity each frame.
type MaterialMorphResult struct {
	Diffuse          mgl32.Vec4
	Specular         mgl32.Vec3
	SpecularStrength float32
	Ambient          mgl32.Vec3
	Edge             mgl32.Vec4
	EdgeSize         float32
	TextureTint      mgl32.Vec4
	EnvironmentTint  mgl32.Vec4
	ToonTint         mgl32.Vec4
}

// NewMaterialMorphResult returns a result initialized to the neutral
// identity (diffuse/specular/ambient/tints at 1, edge color black with
// size 1).
func NewMaterialMorphResult() MaterialMorphResult {
	var r MaterialMorphResult
	r.Reset()
	return r
}

// Reset restores the neutral identity.
func (r *MaterialMorphResult) Reset() {
	r.Diffuse = mgl32.Vec4{1, 1, 1, 1}
	r.Specular = mgl32.Vec3{1, 1, 1}
	r.SpecularStrength = 1
	r.Ambient = mgl32.Vec3{1, 1, 1}
	r.Edge = mgl32.Vec4{0, 0, 0, 1}
	r.EdgeSize = 1
	r.TextureTint = mgl32.Vec4{1, 1, 1, 1}
	r.EnvironmentTint = mgl32.Vec4{1, 1, 1, 1}
	r.ToonTint = mgl32.Vec4{1, 1, 1, 1}
}

func lerpVec4(base, target mgl32.Vec4, w float32) mgl32.Vec4 {
	return base.Add(target.Sub(base).Mul(w))
}

func lerpVec3(base, target mgl32.Vec3, w float32) mgl32.Vec3 {
	return base.Add(target.Sub(base).Mul(w))
}

func mulVec4(base, factor mgl32.Vec4) mgl32.Vec4 {
	return mgl32.Vec4{base[0] * factor[0], base[1] * factor[1], base[2] * factor[2], base[3] * factor[3]}
}

func mulVec3(base, factor mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{base[0] * factor[0], base[1] * factor[1], base[2] * factor[2]}
}

// ApplyMultiply blends offset into r using base*(1+(target-1)*w) per
// property.
func (r *MaterialMorphResult) ApplyMultiply(offset MaterialMorphOffset, w float32) {
	diffuseFactor := lerpVec4(mgl32.Vec4{1, 1, 1, 1}, offset.Diffuse, w)
	r.Diffuse = mulVec4(r.Diffuse, diffuseFactor)

	specularFactor := lerpVec3(mgl32.Vec3{1, 1, 1}, offset.Specular, w)
	r.Specular = mulVec3(r.Specular, specularFactor)
	r.SpecularStrength *= 1 + (offset.SpecularStrength-1)*w

	ambientFactor := lerpVec3(mgl32.Vec3{1, 1, 1}, offset.Ambient, w)
	r.Ambient = mulVec3(r.Ambient, ambientFactor)

	edgeFactor := lerpVec4(mgl32.Vec4{1, 1, 1, 1}, offset.Edge, w)
	r.Edge = mulVec4(r.Edge, edgeFactor)
	r.EdgeSize *= 1 + (offset.EdgeSize-1)*w

	r.TextureTint = mulVec4(r.TextureTint, lerpVec4(mgl32.Vec4{1, 1, 1, 1}, offset.TextureTint, w))
	r.EnvironmentTint = mulVec4(r.EnvironmentTint, lerpVec4(mgl32.Vec4{1, 1, 1, 1}, offset.EnvironmentTint, w))
	r.ToonTint = mulVec4(r.ToonTint, lerpVec4(mgl32.Vec4{1, 1, 1, 1}, offset.ToonTint, w))
}

// ApplyAdditive blends offset into r using base+target*w per property.
func (r *MaterialMorphResult) ApplyAdditive(offset MaterialMorphOffset, w float32) {
	r.Diffuse = r.Diffuse.Add(offset.Diffuse.Mul(w))
	r.Specular = r.Specular.Add(offset.Specular.Mul(w))
	r.SpecularStrength += offset.SpecularStrength * w
	r.Ambient = r.Ambient.Add(offset.Ambient.Mul(w))
	r.Edge = r.Edge.Add(offset.Edge.Mul(w))
	r.EdgeSize += offset.EdgeSize * w
	r.TextureTint = r.TextureTint.Add(offset.TextureTint.Mul(w))
	r.EnvironmentTint = r.EnvironmentTint.Add(offset.EnvironmentTint.Mul(w))
	r.ToonTint = r.ToonTint.Add(offset.ToonTint.Mul(w))
}

// ToFlatFloats flattens the result to 28 floats in a fixed order, ready
// for GPU upload: diffuse(4), specular(3), specular_strength(1),
// ambient(3), edge(4), edge_size(1), texture_tint(4),
// environment_tint(4), toon_tint(4).
func (r *MaterialMorphResult) ToFlatFloats() [28]float32 {
	var out [28]float32
	copy(out[0:4], r.Diffuse[:])
	copy(out[4:7], r.Specular[:])
	out[7] = r.SpecularStrength
	copy(out[8:11], r.Ambient[:])
	copy(out[11:15], r.Edge[:])
	out[15] = r.EdgeSize
	copy(out[16:20], r.TextureTint[:])
	copy(out[20:24], r.EnvironmentTint[:])
	copy(out[24:28], r.ToonTint[:])
	return out
}
