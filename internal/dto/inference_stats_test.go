package dto

import (
	"encoding/json"
	"testing"
	"time"
)

func TestInferenceStats_String(t *testing.T) {
	stats := InferenceStats{
		StagePostprocess: 2500 * time.Microsecond,
		StagePreprocess:  1200 * time.Microsecond,
		StageInference:   30 * time.Millisecond,
	}

	expected := "Preprocess: 1.20ms; Inference: 30.00ms; Postprocess: 2.50ms;"
	if got := stats.String(); got != expected {
		t.Errorf("String() = %q, expected %q", got, expected)
	}
}

func TestInferenceStats_StagesUnknownLast(t *testing.T) {
	stats := InferenceStats{
		"tracking":     time.Millisecond,
		StageInference: time.Millisecond,
		"annotate":     time.Millisecond,
	}

	stages := stats.Stages()
	expected := []string{StageInference, "annotate", "tracking"}
	if len(stages) != len(expected) {
		t.Fatalf("Expected %d stages, got %v", len(expected), stages)
	}
	for i := range expected {
		if stages[i] != expected[i] {
			t.Errorf("Stage %d = %q, expected %q", i, stages[i], expected[i])
		}
	}
}

func TestInferenceStats_TotalAndJSON(t *testing.T) {
	stats := InferenceStats{
		StagePreprocess: time.Millisecond,
		StageInference:  1500 * time.Microsecond,
	}

	if stats.Total() != 2500*time.Microsecond {
		t.Errorf("Unexpected total %v", stats.Total())
	}

	data, err := json.Marshal(stats)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var decoded map[string]float64
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded[StageInference] != 1.5 {
		t.Errorf("Expected inference 1.5ms, got %v", decoded[StageInference])
	}
}

func TestInferenceStats_EmptyString(t *testing.T) {
	if got := (InferenceStats{}).String(); got != "" {
		t.Errorf("Expected empty string, got %q", got)
	}
}

func TestDetectionResult_Caption(t *testing.T) {
	d := DetectionResult{Label: "person", TrackerID: 4, Confidence: 0.8734}

	expected := "Object #4; P(PERSON) = 87.34%"
	if got := d.Caption(); got != expected {
		t.Errorf("Caption() = %q, expected %q", got, expected)
	}
}
