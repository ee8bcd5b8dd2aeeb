package pmx

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrBadMagic is returned when the header's magic bytes don't match
// "PMX ".
var ErrBadMagic = errors.New("pmx: bad magic")

// ErrUnsupportedVersion is returned for any header version other than
// 2.0, the only version this reader understands.
var ErrUnsupportedVersion = errors.New("pmx: unsupported version")

// ErrTruncated is returned when the stream ends before a record
// finishes decoding.
var ErrTruncated = errors.New("pmx: truncated stream")

// Warning is a non-fatal condition encountered while loading: an
// out-of-range bone or rigid-body index referenced by a record that
// otherwise decoded cleanly. Load continues past these; the caller
// decides whether to surface them.
type Warning struct {
	Message string
}

// Load decodes a full PMX document from r, then checks each bone's
// parent index and each rigid body's bone index against the bone count,
// and each joint's body indices against the rigid-body count, collecting
// any index at or above that count as a Warning rather than aborting the
// load. Only the upper bound is checked; morph, material, IK and
// inherit indices are not checked.
func Load(r io.Reader) (*Model, []Warning, error) {
	pr := NewReader(r)
	m, err := pr.ReadModel()
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("%w: %v", ErrTruncated, err)
		}
		return nil, nil, err
	}

	var warnings []Warning
	boneCount := len(m.Bones)
	for i, b := range m.Bones {
		if b.ParentIndex >= int32(boneCount) {
			warnings = append(warnings, Warning{fmt.Sprintf("bone %d (%s): parent index %d out of range", i, b.LocalName, b.ParentIndex)})
		}
	}
	for i, rb := range m.RigidBodies {
		if rb.BoneIndex >= int32(boneCount) {
			warnings = append(warnings, Warning{fmt.Sprintf("rigid body %d (%s): bone index %d out of range", i, rb.LocalName, rb.BoneIndex)})
		}
	}
	for i, j := range m.Joints {
		n := int32(len(m.RigidBodies))
		if j.RigidBodyAIndex >= n || j.RigidBodyBIndex >= n {
			warnings = append(warnings, Warning{fmt.Sprintf("joint %d (%s): rigid body index out of range", i, j.LocalName)})
		}
	}
	return m, warnings, nil
}

// Reader decodes one PMX document from an underlying stream. Once any
// read fails the Reader is poisoned: every subsequent call returns the
// same error immediately rather than attempting to resynchronize,
// since a single misread invalidates every offset that follows it.
type Reader struct {
	r      *bufio.Reader
	poison error
}

// NewReader wraps r for PMX decoding.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// ReadModel decodes the entire document.
func (pr *Reader) ReadModel() (*Model, error) {
	m := &Model{}

	if err := pr.readHeader(m); err != nil {
		return nil, pr.fail(err)
	}
	if err := pr.readInfo(m); err != nil {
		return nil, pr.fail(err)
	}
	if err := pr.readVertices(m); err != nil {
		return nil, pr.fail(err)
	}
	if err := pr.readFaces(m); err != nil {
		return nil, pr.fail(err)
	}
	if err := pr.readTextures(m); err != nil {
		return nil, pr.fail(err)
	}
	if err := pr.readMaterials(m); err != nil {
		return nil, pr.fail(err)
	}
	if err := pr.readBones(m); err != nil {
		return nil, pr.fail(err)
	}
	if err := pr.readMorphs(m); err != nil {
		return nil, pr.fail(err)
	}
	// Display frames are skipped but must still be consumed to keep the
	// stream aligned for rigid bodies and joints.
	if err := pr.skipDisplayFrames(m); err != nil {
		return nil, pr.fail(err)
	}
	if err := pr.readRigidBodies(m); err != nil {
		return nil, pr.fail(err)
	}
	if err := pr.readJoints(m); err != nil {
		return nil, pr.fail(err)
	}

	return m, nil
}

func (pr *Reader) fail(err error) error {
	if pr.poison == nil {
		pr.poison = err
	}
	return pr.poison
}

func (pr *Reader) readHeader(m *Model) error {
	if pr.poison != nil {
		return pr.poison
	}

	var magic [4]byte
	if _, err := io.ReadFull(pr.r, magic[:]); err != nil {
		return fmt.Errorf("pmx: read magic: %w", err)
	}
	if magic != [4]byte{'P', 'M', 'X', ' '} {
		return ErrBadMagic
	}

	var version float32
	if err := binary.Read(pr.r, binary.LittleEndian, &version); err != nil {
		return fmt.Errorf("pmx: read version: %w", err)
	}
	if version != 2.0 {
		return ErrUnsupportedVersion
	}

	globalsCount, err := pr.readU8()
	if err != nil {
		return err
	}
	globals := make([]byte, globalsCount)
	if _, err := io.ReadFull(pr.r, globals); err != nil {
		return fmt.Errorf("pmx: read globals: %w", err)
	}
	if len(globals) < 8 {
		return fmt.Errorf("pmx: globals block too short (%d bytes)", len(globals))
	}

	m.Settings = Settings{
		TextEncoding:       TextEncoding(globals[0]),
		AdditionalUVs:      globals[1],
		VertexIndexSize:    IndexSize(globals[2]),
		TextureIndexSize:   IndexSize(globals[3]),
		MaterialIndexSize:  IndexSize(globals[4]),
		BoneIndexSize:      IndexSize(globals[5]),
		MorphIndexSize:     IndexSize(globals[6]),
		RigidBodyIndexSize: IndexSize(globals[7]),
	}
	return nil
}

func (pr *Reader) readInfo(m *Model) error {
	var err error
	if m.Info.LocalName, err = pr.readText(m.Settings.TextEncoding); err != nil {
		return err
	}
	if m.Info.UniversalName, err = pr.readText(m.Settings.TextEncoding); err != nil {
		return err
	}
	if m.Info.LocalComment, err = pr.readText(m.Settings.TextEncoding); err != nil {
		return err
	}
	if m.Info.UniversalComment, err = pr.readText(m.Settings.TextEncoding); err != nil {
		return err
	}
	return nil
}

func (pr *Reader) readVertices(m *Model) error {
	count, err := pr.readI32()
	if err != nil {
		return err
	}
	m.Vertices = make([]Vertex, count)
	for i := range m.Vertices {
		v := &m.Vertices[i]
		if err := pr.readF32s(v.Position[:]); err != nil {
			return err
		}
		if err := pr.readF32s(v.Normal[:]); err != nil {
			return err
		}
		if err := pr.readF32s(v.UV[:]); err != nil {
			return err
		}
		v.AdditionalUV = make([][4]float32, m.Settings.AdditionalUVs)
		for j := range v.AdditionalUV {
			if err := pr.readF32s(v.AdditionalUV[j][:]); err != nil {
				return err
			}
		}

		deformKind, err := pr.readU8()
		if err != nil {
			return err
		}
		v.Deform = WeightDeform(deformKind)
		switch v.Deform {
		case DeformBDEF1:
			idx, err := pr.readIndex(m.Settings.BoneIndexSize)
			if err != nil {
				return err
			}
			v.BoneIndexes[0] = idx
			v.Weights[0] = 1
		case DeformBDEF2:
			for k := 0; k < 2; k++ {
				idx, err := pr.readIndex(m.Settings.BoneIndexSize)
				if err != nil {
					return err
				}
				v.BoneIndexes[k] = idx
			}
			w, err := pr.readF32()
			if err != nil {
				return err
			}
			v.Weights[0] = w
			v.Weights[1] = 1 - w
		case DeformBDEF4, DeformQDEF:
			for k := 0; k < 4; k++ {
				idx, err := pr.readIndex(m.Settings.BoneIndexSize)
				if err != nil {
					return err
				}
				v.BoneIndexes[k] = idx
			}
			if err := pr.readF32s(v.Weights[:]); err != nil {
				return err
			}
		case DeformSDEF:
			for k := 0; k < 2; k++ {
				idx, err := pr.readIndex(m.Settings.BoneIndexSize)
				if err != nil {
					return err
				}
				v.BoneIndexes[k] = idx
			}
			w, err := pr.readF32()
			if err != nil {
				return err
			}
			v.Weights[0] = w
			v.Weights[1] = 1 - w
			if err := pr.readF32s(v.SDEFC[:]); err != nil {
				return err
			}
			if err := pr.readF32s(v.SDEFR0[:]); err != nil {
				return err
			}
			if err := pr.readF32s(v.SDEFR1[:]); err != nil {
				return err
			}
		default:
			return fmt.Errorf("pmx: invalid vertex deform kind %d", deformKind)
		}

		if v.EdgeScale, err = pr.readF32(); err != nil {
			return err
		}
	}
	return nil
}

func (pr *Reader) readFaces(m *Model) error {
	count, err := pr.readI32()
	if err != nil {
		return err
	}
	if count%3 != 0 {
		return fmt.Errorf("pmx: face index count %d not a multiple of 3", count)
	}
	m.Faces = make([][3]int32, count/3)
	for i := range m.Faces {
		for k := 0; k < 3; k++ {
			idx, err := pr.readVertexIndex(m.Settings.VertexIndexSize)
			if err != nil {
				return err
			}
			m.Faces[i][k] = idx
		}
	}
	return nil
}

func (pr *Reader) readTextures(m *Model) error {
	count, err := pr.readI32()
	if err != nil {
		return err
	}
	m.Textures = make([]string, count)
	for i := range m.Textures {
		if m.Textures[i], err = pr.readText(m.Settings.TextEncoding); err != nil {
			return err
		}
	}
	return nil
}

func (pr *Reader) readMaterials(m *Model) error {
	count, err := pr.readI32()
	if err != nil {
		return err
	}
	m.Materials = make([]Material, count)
	for i := range m.Materials {
		mat := &m.Materials[i]
		if mat.LocalName, err = pr.readText(m.Settings.TextEncoding); err != nil {
			return err
		}
		if mat.UniversalName, err = pr.readText(m.Settings.TextEncoding); err != nil {
			return err
		}
		// Diffuse, specular, specularity, ambient, flags, edge color,
		// edge size, texture/environment/toon indexes, sphere mode,
		// toon reference, free text, face index count: read and
		// discarded, this engine does not render.
		if err := pr.discard(4*4 + 3*4 + 4 + 3*4 + 1 + 4*4 + 4); err != nil {
			return err
		}
		texIdx, err := pr.readIndex(m.Settings.TextureIndexSize)
		if err != nil {
			return err
		}
		_ = texIdx
		envIdx, err := pr.readIndex(m.Settings.TextureIndexSize)
		if err != nil {
			return err
		}
		_ = envIdx
		if err := pr.discard(1); err != nil {
			return err
		}
		toonRef, err := pr.readU8()
		if err != nil {
			return err
		}
		if toonRef == 0 {
			if _, err := pr.readIndex(m.Settings.TextureIndexSize); err != nil {
				return err
			}
		} else {
			if err := pr.discard(1); err != nil {
				return err
			}
		}
		if _, err := pr.readText(m.Settings.TextEncoding); err != nil {
			return err
		}
		if _, err := pr.readI32(); err != nil {
			return err
		}
	}
	return nil
}

func (pr *Reader) readBones(m *Model) error {
	count, err := pr.readI32()
	if err != nil {
		return err
	}
	m.Bones = make([]Bone, count)
	for i := range m.Bones {
		b := &m.Bones[i]
		if b.LocalName, err = pr.readText(m.Settings.TextEncoding); err != nil {
			return err
		}
		if b.UniversalName, err = pr.readText(m.Settings.TextEncoding); err != nil {
			return err
		}
		if err := pr.readF32s(b.Position[:]); err != nil {
			return err
		}
		if b.ParentIndex, err = pr.readIndex(m.Settings.BoneIndexSize); err != nil {
			return err
		}
		if b.Layer, err = pr.readI32(); err != nil {
			return err
		}
		flags, err := pr.readU16()
		if err != nil {
			return err
		}
		b.Flags = BoneFlag(flags)

		if b.Flags.Has(BoneFlagIndexedTail) {
			if b.TailIndex, err = pr.readIndex(m.Settings.BoneIndexSize); err != nil {
				return err
			}
		} else {
			if err := pr.readF32s(b.TailPosition[:]); err != nil {
				return err
			}
		}

		if b.Flags.Has(BoneFlagInheritRotation) || b.Flags.Has(BoneFlagInheritTranslation) {
			if b.InheritParentIndex, err = pr.readIndex(m.Settings.BoneIndexSize); err != nil {
				return err
			}
			if b.InheritWeight, err = pr.readF32(); err != nil {
				return err
			}
		}

		if b.Flags.Has(BoneFlagFixedAxis) {
			if err := pr.readF32s(b.FixedAxis[:]); err != nil {
				return err
			}
		}

		if b.Flags.Has(BoneFlagLocalAxes) {
			if err := pr.readF32s(b.LocalXAxis[:]); err != nil {
				return err
			}
			if err := pr.readF32s(b.LocalZAxis[:]); err != nil {
				return err
			}
		}

		if b.Flags.Has(BoneFlagExternalParent) {
			if b.ExternalParentKey, err = pr.readI32(); err != nil {
				return err
			}
		}

		if b.Flags.Has(BoneFlagIK) {
			if b.IKTargetIndex, err = pr.readIndex(m.Settings.BoneIndexSize); err != nil {
				return err
			}
			if b.IKLoopCount, err = pr.readI32(); err != nil {
				return err
			}
			if b.IKLimitRadian, err = pr.readF32(); err != nil {
				return err
			}
			linkCount, err := pr.readI32()
			if err != nil {
				return err
			}
			b.IKLinks = make([]IKLink, linkCount)
			for j := range b.IKLinks {
				link := &b.IKLinks[j]
				if link.BoneIndex, err = pr.readIndex(m.Settings.BoneIndexSize); err != nil {
					return err
				}
				hasLimits, err := pr.readU8()
				if err != nil {
					return err
				}
				link.HasLimits = hasLimits != 0
				if link.HasLimits {
					if err := pr.readF32s(link.LimitMin[:]); err != nil {
						return err
					}
					if err := pr.readF32s(link.LimitMax[:]); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

func (pr *Reader) readMorphs(m *Model) error {
	count, err := pr.readI32()
	if err != nil {
		return err
	}
	m.Morphs = make([]Morph, count)
	for i := range m.Morphs {
		mo := &m.Morphs[i]
		if mo.LocalName, err = pr.readText(m.Settings.TextEncoding); err != nil {
			return err
		}
		if mo.UniversalName, err = pr.readText(m.Settings.TextEncoding); err != nil {
			return err
		}
		panel, err := pr.readU8()
		if err != nil {
			return err
		}
		mo.Panel = MorphPanel(panel)
		kind, err := pr.readU8()
		if err != nil {
			return err
		}
		mo.Kind = MorphKind(kind)

		offsetCount, err := pr.readI32()
		if err != nil {
			return err
		}

		switch mo.Kind {
		case MorphGroup:
			mo.GroupOffsets = make([]GroupOffset, offsetCount)
			for j := range mo.GroupOffsets {
				if mo.GroupOffsets[j].MorphIndex, err = pr.readIndex(m.Settings.MorphIndexSize); err != nil {
					return err
				}
				if mo.GroupOffsets[j].Weight, err = pr.readF32(); err != nil {
					return err
				}
			}
		case MorphFlip:
			mo.FlipOffsets = make([]FlipOffset, offsetCount)
			for j := range mo.FlipOffsets {
				if mo.FlipOffsets[j].MorphIndex, err = pr.readIndex(m.Settings.MorphIndexSize); err != nil {
					return err
				}
				if mo.FlipOffsets[j].Weight, err = pr.readF32(); err != nil {
					return err
				}
			}
		case MorphVertex:
			mo.VertexOffsets = make([]VertexOffset, offsetCount)
			for j := range mo.VertexOffsets {
				if mo.VertexOffsets[j].VertexIndex, err = pr.readVertexIndex(m.Settings.VertexIndexSize); err != nil {
					return err
				}
				if err := pr.readF32s(mo.VertexOffsets[j].Offset[:]); err != nil {
					return err
				}
			}
		case MorphBone:
			mo.BoneOffsets = make([]BoneOffset, offsetCount)
			for j := range mo.BoneOffsets {
				if mo.BoneOffsets[j].BoneIndex, err = pr.readIndex(m.Settings.BoneIndexSize); err != nil {
					return err
				}
				if err := pr.readF32s(mo.BoneOffsets[j].Translation[:]); err != nil {
					return err
				}
				if err := pr.readF32s(mo.BoneOffsets[j].Rotation[:]); err != nil {
					return err
				}
			}
		case MorphUV, MorphUVExt1, MorphUVExt2, MorphUVExt3, MorphUVExt4:
			mo.UVOffsets = make([]UVOffset, offsetCount)
			for j := range mo.UVOffsets {
				if mo.UVOffsets[j].VertexIndex, err = pr.readVertexIndex(m.Settings.VertexIndexSize); err != nil {
					return err
				}
				if err := pr.readF32s(mo.UVOffsets[j].Offset[:]); err != nil {
					return err
				}
			}
		case MorphMaterial:
			mo.MaterialOffsets = make([]MaterialOffset, offsetCount)
			for j := range mo.MaterialOffsets {
				mof := &mo.MaterialOffsets[j]
				if mof.MaterialIndex, err = pr.readIndex(m.Settings.MaterialIndexSize); err != nil {
					return err
				}
				method, err := pr.readU8()
				if err != nil {
					return err
				}
				mof.Method = MaterialOffsetMethod(method)
				if err := pr.readF32s(mof.Diffuse[:]); err != nil {
					return err
				}
				if err := pr.readF32s(mof.Specular[:]); err != nil {
					return err
				}
				if mof.Specularity, err = pr.readF32(); err != nil {
					return err
				}
				if err := pr.readF32s(mof.Ambient[:]); err != nil {
					return err
				}
				if err := pr.readF32s(mof.EdgeColor[:]); err != nil {
					return err
				}
				if mof.EdgeSize, err = pr.readF32(); err != nil {
					return err
				}
				if err := pr.readF32s(mof.TextureTint[:]); err != nil {
					return err
				}
				if err := pr.readF32s(mof.EnvironmentTint[:]); err != nil {
					return err
				}
				if err := pr.readF32s(mof.ToonTint[:]); err != nil {
					return err
				}
			}
		case MorphImpulse:
			// Rigid-body impulse morphs are accepted but unused: this
			// engine drives physics from bone/joint state, not morphs.
			if err := pr.discard(int(offsetCount) * (int(m.Settings.RigidBodyIndexSize) + 1 + 3*4 + 3*4)); err != nil {
				return err
			}
		default:
			return fmt.Errorf("pmx: invalid morph kind %d", mo.Kind)
		}
	}
	return nil
}

func (pr *Reader) skipDisplayFrames(m *Model) error {
	count, err := pr.readI32()
	if err != nil {
		return err
	}
	for i := int32(0); i < count; i++ {
		if _, err := pr.readText(m.Settings.TextEncoding); err != nil {
			return err
		}
		if _, err := pr.readText(m.Settings.TextEncoding); err != nil {
			return err
		}
		if err := pr.discard(1); err != nil {
			return err
		}
		elemCount, err := pr.readI32()
		if err != nil {
			return err
		}
		for j := int32(0); j < elemCount; j++ {
			target, err := pr.readU8()
			if err != nil {
				return err
			}
			if target == 0 {
				if _, err := pr.readIndex(m.Settings.BoneIndexSize); err != nil {
					return err
				}
			} else {
				if _, err := pr.readIndex(m.Settings.MorphIndexSize); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (pr *Reader) readRigidBodies(m *Model) error {
	count, err := pr.readI32()
	if err != nil {
		return err
	}
	m.RigidBodies = make([]RigidBody, count)
	for i := range m.RigidBodies {
		rb := &m.RigidBodies[i]
		if rb.LocalName, err = pr.readText(m.Settings.TextEncoding); err != nil {
			return err
		}
		if rb.UniversalName, err = pr.readText(m.Settings.TextEncoding); err != nil {
			return err
		}
		if rb.BoneIndex, err = pr.readIndex(m.Settings.BoneIndexSize); err != nil {
			return err
		}
		if rb.Group, err = pr.readU8(); err != nil {
			return err
		}
		if rb.CollisionGroupMask, err = pr.readU16(); err != nil {
			return err
		}
		shape, err := pr.readU8()
		if err != nil {
			return err
		}
		switch RigidBodyShape(shape) {
		case ShapeSphere, ShapeBox, ShapeCapsule:
			rb.Shape = RigidBodyShape(shape)
		default:
			return fmt.Errorf("pmx: invalid rigid body shape %d", shape)
		}
		if err := pr.readF32s(rb.Size[:]); err != nil {
			return err
		}
		if err := pr.readF32s(rb.Position[:]); err != nil {
			return err
		}
		if err := pr.readF32s(rb.Rotation[:]); err != nil {
			return err
		}
		if rb.Mass, err = pr.readF32(); err != nil {
			return err
		}
		if rb.MoveAttenuation, err = pr.readF32(); err != nil {
			return err
		}
		if rb.RotationAttenuation, err = pr.readF32(); err != nil {
			return err
		}
		if rb.Repulsion, err = pr.readF32(); err != nil {
			return err
		}
		if rb.Friction, err = pr.readF32(); err != nil {
			return err
		}
		mode, err := pr.readU8()
		if err != nil {
			return err
		}
		switch RigidBodyMode(mode) {
		case ModeStatic, ModeDynamic, ModeDynamicWithBonePosition:
			rb.Mode = RigidBodyMode(mode)
		default:
			return fmt.Errorf("pmx: invalid rigid body mode %d", mode)
		}
	}
	return nil
}

func (pr *Reader) readJoints(m *Model) error {
	count, err := pr.readI32()
	if err != nil {
		return err
	}
	m.Joints = make([]Joint, count)
	for i := range m.Joints {
		j := &m.Joints[i]
		if j.LocalName, err = pr.readText(m.Settings.TextEncoding); err != nil {
			return err
		}
		if j.UniversalName, err = pr.readText(m.Settings.TextEncoding); err != nil {
			return err
		}
		kind, err := pr.readU8()
		if err != nil {
			return err
		}
		j.Type = JointType(kind)
		if j.RigidBodyAIndex, err = pr.readIndex(m.Settings.RigidBodyIndexSize); err != nil {
			return err
		}
		if j.RigidBodyBIndex, err = pr.readIndex(m.Settings.RigidBodyIndexSize); err != nil {
			return err
		}
		if err := pr.readF32s(j.Position[:]); err != nil {
			return err
		}
		if err := pr.readF32s(j.Rotation[:]); err != nil {
			return err
		}
		if err := pr.readF32s(j.PositionMin[:]); err != nil {
			return err
		}
		if err := pr.readF32s(j.PositionMax[:]); err != nil {
			return err
		}
		if err := pr.readF32s(j.RotationMin[:]); err != nil {
			return err
		}
		if err := pr.readF32s(j.RotationMax[:]); err != nil {
			return err
		}
		if err := pr.readF32s(j.PositionSpring[:]); err != nil {
			return err
		}
		if err := pr.readF32s(j.RotationSpring[:]); err != nil {
			return err
		}
	}
	return nil
}

// --- primitive readers ---

func (pr *Reader) readU8() (uint8, error) {
	var v uint8
	err := binary.Read(pr.r, binary.LittleEndian, &v)
	return v, err
}

func (pr *Reader) readU16() (uint16, error) {
	var v uint16
	err := binary.Read(pr.r, binary.LittleEndian, &v)
	return v, err
}

func (pr *Reader) readI32() (int32, error) {
	var v int32
	err := binary.Read(pr.r, binary.LittleEndian, &v)
	return v, err
}

func (pr *Reader) readF32() (float32, error) {
	var v float32
	err := binary.Read(pr.r, binary.LittleEndian, &v)
	return v, err
}

func (pr *Reader) readF32s(dst []float32) error {
	return binary.Read(pr.r, binary.LittleEndian, dst)
}

func (pr *Reader) discard(n int) error {
	_, err := io.CopyN(io.Discard, pr.r, int64(n))
	return err
}

// readIndex reads a signed index of the given byte width, sign
// extending 1- and 2-byte forms. -1 (all bits set) is PMX's "no
// reference" sentinel at every width.
func (pr *Reader) readIndex(size IndexSize) (int32, error) {
	switch size {
	case IndexSize1:
		var v int8
		if err := binary.Read(pr.r, binary.LittleEndian, &v); err != nil {
			return 0, err
		}
		return int32(v), nil
	case IndexSize2:
		var v int16
		if err := binary.Read(pr.r, binary.LittleEndian, &v); err != nil {
			return 0, err
		}
		return int32(v), nil
	case IndexSize4:
		return pr.readI32()
	default:
		return 0, fmt.Errorf("pmx: invalid index size %d", size)
	}
}

// readVertexIndex reads a vertex index, which PMX encodes as unsigned
// at widths 1 and 2 (there is no per-vertex "no reference" case).
func (pr *Reader) readVertexIndex(size IndexSize) (int32, error) {
	switch size {
	case IndexSize1:
		v, err := pr.readU8()
		return int32(v), err
	case IndexSize2:
		v, err := pr.readU16()
		return int32(v), err
	case IndexSize4:
		return pr.readI32()
	default:
		return 0, fmt.Errorf("pmx: invalid vertex index size %d", size)
	}
}

// readText reads a PMX length-prefixed string in the file's configured
// encoding (UTF-16LE or UTF-8).
func (pr *Reader) readText(enc TextEncoding) (string, error) {
	n, err := pr.readI32()
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", fmt.Errorf("pmx: negative text length %d", n)
	}
	raw := make([]byte, n)
	if _, err := io.ReadFull(pr.r, raw); err != nil {
		return "", err
	}
	if enc == EncodingUTF8 {
		return string(raw), nil
	}
	out, _, err := transform.Bytes(unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder(), raw)
	if err != nil {
		return "", fmt.Errorf("pmx: decode UTF-16LE text: %w", err)
	}
	return string(out), nil
}
