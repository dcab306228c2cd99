package frame

import "time"

// Frame is a decoded pixel buffer in row-major, interleaved-channel layout
// (BGR for three channels). A Frame must not be modified once it has been
// published to a Slot; readers share Pix by reference.
type Frame struct {
	Pix        []byte
	Width      int
	Height     int
	Channels   int
	Seq        uint64
	CapturedAt time.Time
}

// Empty reports whether the frame carries no pixels.
func (f *Frame) Empty() bool {
	return f == nil || len(f.Pix) == 0 || f.Width <= 0 || f.Height <= 0
}

// WithSeq returns a shallow copy of f stamped with seq. Pix is shared.
func (f *Frame) WithSeq(seq uint64) *Frame {
	c := *f
	c.Seq = seq
	return &c
}
