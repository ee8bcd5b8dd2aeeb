package pmx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// buildMinimal writes the smallest valid PMX 2.0 stream: a header, a
// model-info block, and zero of every subsequent record, all using
// 4-byte indexes and UTF-8 text.
func buildMinimal(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("PMX ")
	binary.Write(&buf, binary.LittleEndian, float32(2.0))
	buf.WriteByte(8) // globals count
	buf.Write([]byte{byte(EncodingUTF8), 0, byte(IndexSize4), byte(IndexSize4), byte(IndexSize4), byte(IndexSize4), byte(IndexSize4), byte(IndexSize4)})

	writeText := func(s string) {
		binary.Write(&buf, binary.LittleEndian, int32(len(s)))
		buf.WriteString(s)
	}
	writeText("model")
	writeText("model-en")
	writeText("")
	writeText("")

	writeCount := func(n int32) { binary.Write(&buf, binary.LittleEndian, n) }
	writeCount(0) // vertices
	writeCount(0) // faces
	writeCount(0) // textures
	writeCount(0) // materials
	writeCount(0) // bones
	writeCount(0) // morphs
	writeCount(0) // display frames
	writeCount(0) // rigid bodies
	writeCount(0) // joints

	return buf.Bytes()
}

func TestReadModelMinimal(t *testing.T) {
	data := buildMinimal(t)
	m, warnings, err := Load(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if m.Info.LocalName != "model" {
		t.Fatalf("expected LocalName=model, got %q", m.Info.LocalName)
	}
}

func TestBadMagicRejected(t *testing.T) {
	data := buildMinimal(t)
	data[0] = 'X'
	_, _, err := Load(bytes.NewReader(data))
	if !errors.Is(err, ErrBadMagic) {
		t.Fatalf("expected ErrBadMagic, got %v", err)
	}
}

func TestReaderPoisonsAfterFirstError(t *testing.T) {
	pr := NewReader(bytes.NewReader([]byte{'X'}))
	_, err1 := pr.ReadModel()
	if err1 == nil {
		t.Fatalf("expected an error on truncated header")
	}
	_, err2 := pr.ReadModel()
	if !errors.Is(err2, err1) {
		t.Fatalf("expected repeated call to return the same poisoned error")
	}
}

