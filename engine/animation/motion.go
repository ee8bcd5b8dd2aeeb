package animation

// Motion is a named collection of bone and morph tracks, as decoded
// from a single VMD file.
type Motion struct {
	BoneTracks  map[string]*BoneMotionTrack
	MorphTracks map[string]*MorphMotionTrack
}

// NewMotion returns an empty motion.
func NewMotion() *Motion {
	return &Motion{
		BoneTracks:  make(map[string]*BoneMotionTrack),
		MorphTracks: make(map[string]*MorphMotionTrack),
	}
}

// BoneTrack returns the track for name, creating it on first use.
func (m *Motion) BoneTrack(name string) *BoneMotionTrack {
	t, ok := m.BoneTracks[name]
	if !ok {
		t = NewBoneMotionTrack()
		m.BoneTracks[name] = t
	}
	return t
}

// MorphTrack returns the track for name, creating it on first use.
func (m *Motion) MorphTrack(name string) *MorphMotionTrack {
	t, ok := m.MorphTracks[name]
	if !ok {
		t = NewMorphMotionTrack()
		m.MorphTracks[name] = t
	}
	return t
}

// MaxFrame returns the highest frame index across every track in the
// motion, or 0 if the motion is empty.
func (m *Motion) MaxFrame() uint32 {
	var max uint32
	for _, t := range m.BoneTracks {
		if f := t.MaxFrameIndex(); f > max {
			max = f
		}
	}
	for _, t := range m.MorphTracks {
		if f := t.MaxFrameIndex(); f > max {
			max = f
		}
	}
	return max
}
