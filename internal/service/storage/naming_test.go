package storage

import (
	"reflect"
	"testing"
	"time"
)

func TestSnapshotName(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 589000000, time.Local)

	tests := []struct {
		name   string
		labels []string
		want   string
	}{
		{"no labels", nil, "2025-03-14_09-26-53.589_abc.jpg"},
		{"sorted and unique", []string{"person", "car", "person"}, "2025-03-14_09-26-53.589_abc_car_person.jpg"},
		{"spaces", []string{"traffic light"}, "2025-03-14_09-26-53.589_abc_traffic-light.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SnapshotName(ts, "abc", tt.labels); got != tt.want {
				t.Errorf("SnapshotName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseSnapshotName(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 589000000, time.Local)
	session := "5f1c6a5e-8a8e-4b6b-9f0a-0c2f7a1d9e11"
	name := SnapshotName(ts, session, []string{"traffic light", "dog"})

	gotTS, gotSession, gotLabels, err := ParseSnapshotName("/archive/" + name)
	if err != nil {
		t.Fatalf("ParseSnapshotName failed: %v", err)
	}
	if !gotTS.Equal(ts) {
		t.Errorf("Expected %v, got %v", ts, gotTS)
	}
	if gotSession != session {
		t.Errorf("Expected session %q, got %q", session, gotSession)
	}
	if !reflect.DeepEqual(gotLabels, []string{"dog", "traffic light"}) {
		t.Errorf("Unexpected labels %v", gotLabels)
	}
}

func TestParseSnapshotName_Invalid(t *testing.T) {
	for _, name := range []string{"photo.jpg", "2025-03-14_xx_abc.jpg", "a_b.jpg"} {
		if _, _, _, err := ParseSnapshotName(name); err == nil {
			t.Errorf("Expected error for %q", name)
		}
	}
}
