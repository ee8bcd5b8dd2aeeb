// Package vmd reads the VMD motion binary format into the animation
// package's bone and morph keyframe tracks. Camera, lighting, and
// other non-character sections are left unparsed: this engine only
// drives characters.
package vmd

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/hoshizora/mmd-engine/engine/animation"
	"github.com/hoshizora/mmd-engine/engine/coords"
)

// ErrBadMagic is returned when the 25-byte file signature matches
// neither the VMD 1.0 nor 2.0 header text.
var ErrBadMagic = errors.New("vmd: bad magic")

// ErrTruncated is returned when the stream ends before a record
// finishes decoding.
var ErrTruncated = errors.New("vmd: truncated stream")

var headerV1 = []byte("Vocaloid Motion Data file")[:25]
var headerV2 = []byte("Vocaloid Motion Data 0002")

// Document is a decoded VMD file.
type Document struct {
	ModelName string
	Motion    *animation.Motion
}

// Load decodes a full VMD document from r.
func Load(r io.Reader) (*Document, error) {
	br := bufio.NewReader(r)

	var header [30]byte
	if _, err := io.ReadFull(br, header[:]); err != nil {
		return nil, wrapTruncated(err, "header")
	}
	if !bytes.Equal(header[:25], headerV1) && !bytes.Equal(header[:25], headerV2) {
		return nil, ErrBadMagic
	}

	var modelNameBytes [20]byte
	if _, err := io.ReadFull(br, modelNameBytes[:]); err != nil {
		return nil, wrapTruncated(err, "model name")
	}
	modelName, err := decodeShiftJIS(modelNameBytes[:])
	if err != nil {
		return nil, fmt.Errorf("vmd: decode model name: %w", err)
	}

	motion := animation.NewMotion()

	boneCount, err := readU32(br)
	if err != nil {
		return nil, wrapTruncated(err, "bone keyframe count")
	}
	for i := uint32(0); i < boneCount; i++ {
		name, kf, err := readBoneKeyframe(br)
		if err != nil {
			return nil, wrapTruncated(err, "bone keyframe")
		}
		motion.BoneTrack(name).Add(kf)
	}

	morphCount, err := readU32(br)
	if err != nil {
		return nil, wrapTruncated(err, "morph keyframe count")
	}
	for i := uint32(0); i < morphCount; i++ {
		name, kf, err := readMorphKeyframe(br)
		if err != nil {
			return nil, wrapTruncated(err, "morph keyframe")
		}
		motion.MorphTrack(name).Add(kf)
	}

	// Camera, lighting, self-shadow, and IK-visibility sections may
	// follow; this engine never reads them.

	return &Document{ModelName: modelName, Motion: motion}, nil
}

func wrapTruncated(err error, what string) error {
	return fmt.Errorf("%w: %s: %v", ErrTruncated, what, err)
}

func readU32(r io.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readF32(r io.Reader) (float32, error) {
	var v float32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readBoneKeyframe(r io.Reader) (string, animation.BoneKeyframe, error) {
	var nameBytes [15]byte
	if _, err := io.ReadFull(r, nameBytes[:]); err != nil {
		return "", animation.BoneKeyframe{}, err
	}
	name, err := decodeShiftJIS(nameBytes[:])
	if err != nil {
		return "", animation.BoneKeyframe{}, fmt.Errorf("decode bone name: %w", err)
	}

	frameIndex, err := readU32(r)
	if err != nil {
		return "", animation.BoneKeyframe{}, err
	}

	var t [3]float32
	for i := range t {
		if t[i], err = readF32(r); err != nil {
			return "", animation.BoneKeyframe{}, err
		}
	}
	var q [4]float32 // x,y,z,w
	for i := range q {
		if q[i], err = readF32(r); err != nil {
			return "", animation.BoneKeyframe{}, err
		}
	}

	var interp [64]byte
	if _, err := io.ReadFull(r, interp[:]); err != nil {
		return "", animation.BoneKeyframe{}, err
	}

	translation := coords.InvZVec3(mgl32.Vec3{t[0], t[1], t[2]})
	orientation := coords.InvZQuat(mgl32.Quat{W: q[3], V: mgl32.Vec3{q[0], q[1], q[2]}})

	kf := animation.BoneKeyframe{
		FrameIndex:     frameIndex,
		Translation:    translation,
		Orientation:    orientation,
		InterpX:        [4]byte{interp[0], interp[4], interp[8], interp[12]},
		InterpY:        [4]byte{interp[1], interp[5], interp[9], interp[13]},
		InterpZ:        [4]byte{interp[2], interp[6], interp[10], interp[14]},
		InterpR:        [4]byte{interp[3], interp[7], interp[11], interp[15]},
		PhysicsEnabled: true,
	}
	return name, kf, nil
}

func readMorphKeyframe(r io.Reader) (string, animation.MorphKeyframe, error) {
	var nameBytes [15]byte
	if _, err := io.ReadFull(r, nameBytes[:]); err != nil {
		return "", animation.MorphKeyframe{}, err
	}
	name, err := decodeShiftJIS(nameBytes[:])
	if err != nil {
		return "", animation.MorphKeyframe{}, fmt.Errorf("decode morph name: %w", err)
	}

	frameIndex, err := readU32(r)
	if err != nil {
		return "", animation.MorphKeyframe{}, err
	}
	weight, err := readF32(r)
	if err != nil {
		return "", animation.MorphKeyframe{}, err
	}

	return name, animation.MorphKeyframe{FrameIndex: frameIndex, Weight: weight}, nil
}

// decodeShiftJIS decodes a NUL-terminated Shift-JIS byte field.
func decodeShiftJIS(raw []byte) (string, error) {
	end := bytes.IndexByte(raw, 0)
	if end < 0 {
		end = len(raw)
	}
	out, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), raw[:end])
	if err != nil {
		return "", err
	}
	return string(out), nil
}
