package dto

import "time"

// DetectionEvent is published for every frame that carries detections.
type DetectionEvent struct {
	SessionID  string            `json:"session_id"`
	Seq        uint64            `json:"seq"`
	Timestamp  time.Time         `json:"timestamp"`
	Detections []DetectionResult `json:"detections"`
}
