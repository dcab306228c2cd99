package capture

import (
	"errors"

	"github.com/Wisaacj/Supervisor/internal/dto"
	"github.com/Wisaacj/Supervisor/internal/frame"
)

var (
	// ErrSourceUnavailable means the stream could not be opened.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrReadFailure means a frame read failed mid-stream.
	ErrReadFailure = errors.New("frame read failed")
)

// Source is an open video stream. It is owned by exactly one Loop.
type Source interface {
	// Read blocks until the next frame is available.
	Read() (*frame.Frame, error)
	Close() error
}

// Opener opens a stream by URL.
type Opener interface {
	Open(url string) (Source, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(url string) (Source, error)

func (f OpenerFunc) Open(url string) (Source, error) {
	return f(url)
}

// Result is the outcome of running one frame through the detection pipeline.
type Result struct {
	Frame      *frame.Frame
	Stats      dto.InferenceStats
	Detections []dto.DetectionResult
}

// Detector runs detection and tracking on a raw frame and returns the
// annotated frame. Implementations must not modify the input frame.
type Detector interface {
	Detect(f *frame.Frame) (*Result, error)
}

// Reporter receives per-frame inference statistics.
type Reporter interface {
	Report(seq uint64, stats dto.InferenceStats)
}

// Observer receives every published result. Observers run on the capture
// goroutine and must return quickly.
type Observer interface {
	Observe(sessionID string, result *Result)
}
