// Package pmx reads the PMX 2.0 model binary format: bones, morphs,
// rigid bodies, and joints, the data the skeleton/morph/physics
// packages consume. Vertex, face, and texture records are decoded and
// kept in Model; material render data is read far enough to stay
// byte-aligned with the rest of the file and only material names are
// kept.
package pmx

import "fmt"

// IndexSize enumerates the byte width PMX uses for a given index kind,
// chosen per-file in the header's globals block.
type IndexSize int

const (
	IndexSize1 IndexSize = 1
	IndexSize2 IndexSize = 2
	IndexSize4 IndexSize = 4
)

// TextEncoding enumerates the header's string encoding.
type TextEncoding int

const (
	EncodingUTF16LE TextEncoding = 0
	EncodingUTF8    TextEncoding = 1
)

// Settings captures the header's globals block: the index widths and
// text encoding every subsequent record is read with. PMX is the only
// format in this module whose record layout depends on a file-local
// configuration value, so it is threaded explicitly rather than
// assumed constant.
type Settings struct {
	TextEncoding     TextEncoding
	AdditionalUVs    uint8
	VertexIndexSize  IndexSize
	TextureIndexSize IndexSize
	MaterialIndexSize IndexSize
	BoneIndexSize    IndexSize
	MorphIndexSize   IndexSize
	RigidBodyIndexSize IndexSize
}

// ModelInfo holds the header's descriptive text fields.
type ModelInfo struct {
	LocalName      string
	UniversalName  string
	LocalComment   string
	UniversalComment string
}

// WeightDeform enumerates a vertex's skinning deform kind.
type WeightDeform int

const (
	DeformBDEF1 WeightDeform = iota
	DeformBDEF2
	DeformBDEF4
	DeformSDEF
	DeformQDEF
)

// Vertex is a PMX vertex record, read in full to stay byte-aligned.
type Vertex struct {
	Position     [3]float32
	Normal       [3]float32
	UV           [2]float32
	AdditionalUV [][4]float32
	Deform       WeightDeform
	BoneIndexes  [4]int32
	Weights      [4]float32
	SDEFC        [3]float32
	SDEFR0       [3]float32
	SDEFR1       [3]float32
	EdgeScale    float32
}

// Material is a PMX material record; only the fields the morph
// accumulator needs (name, for diagnostics) are retained beyond what's
// required to skip the record.
type Material struct {
	LocalName     string
	UniversalName string
}

// BoneFlag holds the PMX wire bit positions, which differ from
// skeleton.Flag's; ToBoneDefs translates it to skeleton.Flag at load
// time rather than sharing the values directly.
type BoneFlag uint16

const (
	BoneFlagIndexedTail BoneFlag = 1 << 0
	BoneFlagRotatable   BoneFlag = 1 << 1
	BoneFlagTranslatable BoneFlag = 1 << 2
	BoneFlagVisible     BoneFlag = 1 << 3
	BoneFlagEnabled     BoneFlag = 1 << 4
	BoneFlagIK          BoneFlag = 1 << 5
	BoneFlagInheritLocal BoneFlag = 1 << 7
	BoneFlagInheritRotation BoneFlag = 1 << 8
	BoneFlagInheritTranslation BoneFlag = 1 << 9
	BoneFlagFixedAxis   BoneFlag = 1 << 10
	BoneFlagLocalAxes   BoneFlag = 1 << 11
	BoneFlagDeformAfterPhysics BoneFlag = 1 << 12
	BoneFlagExternalParent BoneFlag = 1 << 13
)

func (f BoneFlag) Has(bit BoneFlag) bool { return f&bit != 0 }

// IKLink is a single CCD chain link as read from the PMX bone record.
type IKLink struct {
	BoneIndex int32
	HasLimits bool
	LimitMin  [3]float32
	LimitMax  [3]float32
}

// Bone is a PMX bone record.
type Bone struct {
	LocalName     string
	UniversalName string
	Position      [3]float32
	ParentIndex   int32
	Layer         int32
	Flags         BoneFlag

	TailPosition [3]float32
	TailIndex    int32

	InheritParentIndex int32
	InheritWeight      float32

	FixedAxis [3]float32

	LocalXAxis [3]float32
	LocalZAxis [3]float32

	ExternalParentKey int32

	IKTargetIndex int32
	IKLoopCount   int32
	IKLimitRadian float32
	IKLinks       []IKLink
}

// MorphPanel enumerates the PMX morph category, used only for editor
// grouping; carried through for completeness.
type MorphPanel uint8

// MorphKind enumerates a PMX morph's offset record type.
type MorphKind uint8

const (
	MorphGroup MorphKind = iota
	MorphVertex
	MorphBone
	MorphUV
	MorphUVExt1
	MorphUVExt2
	MorphUVExt3
	MorphUVExt4
	MorphMaterial
	MorphFlip
	MorphImpulse
)

// GroupOffset references another morph by index with a scale weight.
type GroupOffset struct {
	MorphIndex int32
	Weight     float32
}

// VertexOffset is a single vertex displacement.
type VertexOffset struct {
	VertexIndex int32
	Offset      [3]float32
}

// BoneOffset is a single bone translation/rotation offset.
type BoneOffset struct {
	BoneIndex   int32
	Translation [3]float32
	Rotation    [4]float32 // x,y,z,w
}

// UVOffset is a single UV displacement, used for the base UV channel
// and every additional UV channel alike.
type UVOffset struct {
	VertexIndex int32
	Offset      [4]float32
}

// MaterialOffsetMethod enumerates the PMX material morph blend method.
type MaterialOffsetMethod uint8

const (
	MaterialOffsetMultiply MaterialOffsetMethod = 0
	MaterialOffsetAdditive MaterialOffsetMethod = 1
)

// MaterialOffset is a single material morph record. MaterialIndex -1
// targets every material.
type MaterialOffset struct {
	MaterialIndex     int32
	Method            MaterialOffsetMethod
	Diffuse           [4]float32
	Specular          [3]float32
	Specularity       float32
	Ambient           [3]float32
	EdgeColor         [4]float32
	EdgeSize          float32
	TextureTint       [4]float32
	EnvironmentTint   [4]float32
	ToonTint          [4]float32
}

// FlipOffset references another morph with a flip target weight,
// identical in shape to GroupOffset; like a group entry, it is scaled
// by the parent morph's own weight when applied.
type FlipOffset struct {
	MorphIndex int32
	Weight     float32
}

// Morph is a PMX morph record: a name, a panel, a kind, and the
// offsets of that kind.
type Morph struct {
	LocalName     string
	UniversalName string
	Panel         MorphPanel
	Kind          MorphKind

	GroupOffsets    []GroupOffset
	VertexOffsets   []VertexOffset
	BoneOffsets     []BoneOffset
	UVOffsets       []UVOffset
	MaterialOffsets []MaterialOffset
	FlipOffsets     []FlipOffset
}

// RigidBodyShape mirrors the PMX wire enum for rigid body collision
// shape.
type RigidBodyShape uint8

const (
	ShapeSphere  RigidBodyShape = 0
	ShapeBox     RigidBodyShape = 1
	ShapeCapsule RigidBodyShape = 2
)

// RigidBodyMode mirrors the PMX wire enum for rigid body simulation
// mode.
type RigidBodyMode uint8

const (
	ModeStatic                  RigidBodyMode = 0
	ModeDynamic                 RigidBodyMode = 1
	ModeDynamicWithBonePosition RigidBodyMode = 2
)

// RigidBody is a PMX rigid body record.
type RigidBody struct {
	LocalName           string
	UniversalName        string
	BoneIndex            int32
	Group                uint8
	CollisionGroupMask   uint16
	Shape                RigidBodyShape
	Size                 [3]float32
	Position             [3]float32
	Rotation             [3]float32
	Mass                 float32
	MoveAttenuation      float32
	RotationAttenuation  float32
	Repulsion            float32
	Friction             float32
	Mode                 RigidBodyMode
}

// JointType mirrors the PMX wire enum for joint variant. No variant is
// distinguished at runtime: engine/physics builds every joint as a
// 6-DOF spring. The values are retained for format completeness.
type JointType uint8

const (
	JointSpring6DOF JointType = 0
	JointSixDof     JointType = 1
	JointP2P        JointType = 2
	JointConeTwist  JointType = 3
	JointSlider     JointType = 4
	JointHinge      JointType = 5
)

// Joint is a PMX joint record.
type Joint struct {
	LocalName      string
	UniversalName  string
	Type           JointType
	RigidBodyAIndex int32
	RigidBodyBIndex int32
	Position       [3]float32
	Rotation       [3]float32
	PositionMin    [3]float32
	PositionMax    [3]float32
	RotationMin    [3]float32
	RotationMax    [3]float32
	PositionSpring [3]float32
	RotationSpring [3]float32
}

// Model is the full decoded document.
type Model struct {
	Settings  Settings
	Info      ModelInfo
	Vertices  []Vertex
	Faces     [][3]int32
	Textures  []string
	Materials []Material
	Bones     []Bone
	Morphs    []Morph
	RigidBodies []RigidBody
	Joints    []Joint
}

func (s RigidBodyShape) String() string {
	switch s {
	case ShapeSphere:
		return "sphere"
	case ShapeBox:
		return "box"
	case ShapeCapsule:
		return "capsule"
	default:
		return fmt.Sprintf("RigidBodyShape(%d)", s)
	}
}
