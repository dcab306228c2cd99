package stream

import (
	"sync/atomic"

	"github.com/Wisaacj/Supervisor/internal/frame"
	"github.com/Wisaacj/Supervisor/internal/logger"
)

const (
	// Boundary separates parts of the multipart stream.
	Boundary = "frame"
	// ContentType is the response type of the stream endpoint.
	ContentType = "multipart/x-mixed-replace; boundary=" + Boundary
)

var (
	partHeader  = []byte("--" + Boundary + "\r\nContent-Type: image/jpeg\r\n\r\n")
	partTrailer = []byte("\r\n")
)

// JPEGEncoder turns a frame into JPEG bytes.
type JPEGEncoder interface {
	Encode(f *frame.Frame) ([]byte, error)
}

// encoded caches the JPEG of one frame. jpeg is nil when encoding failed.
type encoded struct {
	frame *frame.Frame
	jpeg  []byte
}

// Encoder turns the current contents of a Slot into multipart chunks.
// It is safe for concurrent use by any number of connections.
type Encoder struct {
	slot   *frame.Slot
	jpeg   JPEGEncoder
	logger *logger.Logger

	last     atomic.Pointer[encoded]
	encodes  atomic.Uint64
	failures atomic.Uint64
}

func NewEncoder(slot *frame.Slot, jpeg JPEGEncoder, logger *logger.Logger) *Encoder {
	return &Encoder{slot: slot, jpeg: jpeg, logger: logger}
}

// NextChunk returns one multipart part holding the latest frame, or a part
// with an empty body when no frame is available.
func (e *Encoder) NextChunk() []byte {
	return Chunk(e.Current())
}

// Current returns the JPEG bytes of the latest frame. It returns nil when
// the slot is empty or the frame could not be encoded. The last encoded
// frame is cached and shared by all connections.
func (e *Encoder) Current() []byte {
	f, ok := e.slot.Snapshot()
	if !ok {
		return nil
	}

	if c := e.last.Load(); c != nil && c.frame == f {
		return c.jpeg
	}

	jpg, err := e.jpeg.Encode(f)
	e.encodes.Add(1)
	if err != nil || len(jpg) == 0 {
		e.failures.Add(1)
		e.logger.Warning("Failed to encode frame %d, sending placeholder: %v", f.Seq, err)
		jpg = nil
	}

	e.last.Store(&encoded{frame: f, jpeg: jpg})
	return jpg
}

// Encodes reports how many frames were encoded and how many of those failed.
func (e *Encoder) Encodes() (total, failed uint64) {
	return e.encodes.Load(), e.failures.Load()
}

// Chunk frames body as a single multipart part. A nil body yields the
// placeholder part.
func Chunk(body []byte) []byte {
	chunk := make([]byte, 0, len(partHeader)+len(body)+len(partTrailer))
	chunk = append(chunk, partHeader...)
	chunk = append(chunk, body...)
	return append(chunk, partTrailer...)
}

// Placeholder is the part sent while no frame is available.
func Placeholder() []byte {
	return Chunk(nil)
}
