// Package jpegframe reassembles JPEG images that arrive split across
// datagrams.
package jpegframe

import (
	"bytes"
	"errors"
)

var (
	soi = []byte{0xFF, 0xD8}
	eoi = []byte{0xFF, 0xD9}
)

// ErrOversized is returned when a sender's pending frame grew past the size
// limit without an end marker. The pending bytes are discarded.
var ErrOversized = errors.New("frame exceeds size limit")

// Assembler buffers datagrams per sender. A datagram starting with the JPEG
// SOI marker begins a new frame, one ending with EOI completes it. It is not
// safe for concurrent use.
type Assembler struct {
	maxSize int
	buffers map[string]*bytes.Buffer
}

func NewAssembler(maxSize int) *Assembler {
	return &Assembler{maxSize: maxSize, buffers: make(map[string]*bytes.Buffer)}
}

// Add appends packet to sender's pending frame. It returns the complete JPEG
// when packet finishes one, nil while the frame is still incomplete.
func (a *Assembler) Add(sender string, packet []byte) ([]byte, error) {
	buf, ok := a.buffers[sender]
	if !ok {
		buf = new(bytes.Buffer)
		a.buffers[sender] = buf
	}

	if bytes.HasPrefix(packet, soi) {
		buf.Reset()
	}
	buf.Write(packet)

	if buf.Len() > a.maxSize {
		buf.Reset()
		return nil, ErrOversized
	}

	if !bytes.HasSuffix(packet, eoi) {
		return nil, nil
	}

	full := make([]byte, buf.Len())
	copy(full, buf.Bytes())
	buf.Reset()
	return full, nil
}

// Pending returns how many bytes are buffered for sender.
func (a *Assembler) Pending(sender string) int {
	if buf, ok := a.buffers[sender]; ok {
		return buf.Len()
	}
	return 0
}
