package dto

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Detection pipeline stages.
const (
	StagePreprocess  = "preprocess"
	StageInference   = "inference"
	StagePostprocess = "postprocess"
)

var stageOrder = map[string]int{
	StagePreprocess:  0,
	StageInference:   1,
	StagePostprocess: 2,
}

// InferenceStats maps a pipeline stage to the time it took for one frame.
type InferenceStats map[string]time.Duration

// Stages returns the stage names in pipeline order, unknown stages last and
// sorted by name.
func (s InferenceStats) Stages() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		oi, iKnown := stageOrder[names[i]]
		oj, jKnown := stageOrder[names[j]]
		switch {
		case iKnown && jKnown:
			return oi < oj
		case iKnown != jKnown:
			return iKnown
		default:
			return names[i] < names[j]
		}
	})
	return names
}

// Total is the sum of all stage durations.
func (s InferenceStats) Total() time.Duration {
	var total time.Duration
	for _, d := range s {
		total += d
	}
	return total
}

// String renders the stats as "Preprocess: 1.20ms; Inference: 30.05ms; ...".
func (s InferenceStats) String() string {
	parts := make([]string, 0, len(s))
	for _, name := range s.Stages() {
		parts = append(parts, fmt.Sprintf("%s: %.2fms;", capitalize(name), Milliseconds(s[name])))
	}
	return strings.Join(parts, " ")
}

// MarshalJSON encodes durations as fractional milliseconds.
func (s InferenceStats) MarshalJSON() ([]byte, error) {
	out := make(map[string]float64, len(s))
	for name, d := range s {
		out[name] = Milliseconds(d)
	}
	return json.Marshal(out)
}

// Milliseconds converts d to fractional milliseconds.
func Milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// StatusUpdate is one per-frame report sent to live stats viewers.
type StatusUpdate struct {
	Seq       uint64         `json:"seq"`
	Timestamp time.Time      `json:"timestamp"`
	Stats     InferenceStats `json:"stats"`
	TotalMs   float64        `json:"total_ms"`
}
