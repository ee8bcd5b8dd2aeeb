package vmd

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func buildMinimal(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	header := make([]byte, 30)
	copy(header, "Vocaloid Motion Data file")
	buf.Write(header)
	buf.Write(make([]byte, 20)) // model name

	binary.Write(&buf, binary.LittleEndian, uint32(1)) // bone keyframe count
	name := make([]byte, 15)
	copy(name, "center")
	buf.Write(name)
	binary.Write(&buf, binary.LittleEndian, uint32(10)) // frame index
	binary.Write(&buf, binary.LittleEndian, float32(1)) // tx
	binary.Write(&buf, binary.LittleEndian, float32(2)) // ty
	binary.Write(&buf, binary.LittleEndian, float32(3)) // tz
	binary.Write(&buf, binary.LittleEndian, float32(0)) // rx
	binary.Write(&buf, binary.LittleEndian, float32(0)) // ry
	binary.Write(&buf, binary.LittleEndian, float32(0)) // rz
	binary.Write(&buf, binary.LittleEndian, float32(1)) // rw
	buf.Write(make([]byte, 64))                         // interpolation

	binary.Write(&buf, binary.LittleEndian, uint32(1)) // morph keyframe count
	mname := make([]byte, 15)
	copy(mname, "smile")
	buf.Write(mname)
	binary.Write(&buf, binary.LittleEndian, uint32(5))
	binary.Write(&buf, binary.LittleEndian, float32(0.5))

	return buf.Bytes()
}

func TestLoadMinimalDocument(t *testing.T) {
	doc, err := Load(bytes.NewReader(buildMinimal(t)))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	track := doc.Motion.BoneTrack("center")
	if track.Len() != 1 {
		t.Fatalf("expected 1 bone keyframe, got %d", track.Len())
	}
	kf, ok := track.Find(10)
	if !ok {
		t.Fatalf("expected keyframe at frame 10")
	}
	if kf.Translation.Z() != -3 {
		t.Fatalf("expected z to be negated to -3, got %v", kf.Translation.Z())
	}

	morphTrack := doc.Motion.MorphTrack("smile")
	if morphTrack.Len() != 1 {
		t.Fatalf("expected 1 morph keyframe, got %d", morphTrack.Len())
	}
}

func TestLoadEmptyV2Document(t *testing.T) {
	var buf bytes.Buffer
	header := make([]byte, 30)
	copy(header, "Vocaloid Motion Data 0002")
	buf.Write(header)
	buf.Write(make([]byte, 20))                        // model name
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // bone keyframes
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // morph keyframes

	doc, err := Load(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(doc.Motion.BoneTracks) != 0 || len(doc.Motion.MorphTracks) != 0 {
		t.Fatalf("expected empty tracks")
	}
	if doc.Motion.MaxFrame() != 0 {
		t.Fatalf("expected max frame 0, got %d", doc.Motion.MaxFrame())
	}
}

func TestBadMagicRejected(t *testing.T) {
	data := buildMinimal(t)
	data[0] = 'X'
	_, err := Load(bytes.NewReader(data))
	if !errors.Is(err, ErrBadMagic) {
		t.Fatalf("expected ErrBadMagic, got %v", err)
	}
}

func TestTruncatedStreamReported(t *testing.T) {
	data := buildMinimal(t)
	_, err := Load(bytes.NewReader(data[:40]))
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}
