package dto

import (
	"fmt"
	"strings"
)

// DetectionResult is one tracked object found in a frame.
type DetectionResult struct {
	Label      string  `json:"label"`
	ClassID    int     `json:"class_id"`
	TrackerID  int     `json:"tracker_id"`
	Confidence float64 `json:"confidence"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

// Caption is the text drawn next to the detection box.
func (d DetectionResult) Caption() string {
	return fmt.Sprintf("Object #%d; P(%s) = %.2f%%", d.TrackerID, strings.ToUpper(d.Label), d.Confidence*100)
}
