package dto

import (
	"time"

	"github.com/Wisaacj/Supervisor/internal/frame"
)

// BufferedSnapshot holds a frame and its detections until it is encoded and
// flushed to disk.
type BufferedSnapshot struct {
	Timestamp  time.Time
	SessionID  string
	Frame      *frame.Frame
	Detections []DetectionResult
}
