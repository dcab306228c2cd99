package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Wisaacj/Supervisor/internal/config"
	"github.com/Wisaacj/Supervisor/internal/dto"
	"github.com/Wisaacj/Supervisor/internal/frame"
	"github.com/Wisaacj/Supervisor/internal/logger"
	"github.com/Wisaacj/Supervisor/internal/model"
	"github.com/Wisaacj/Supervisor/internal/repository/sqlite"
	"github.com/Wisaacj/Supervisor/internal/service/capture"
	"github.com/Wisaacj/Supervisor/internal/shutdown"
)

// ========================================
// Fakes
// ========================================

type staticFrames struct {
	jpg []byte
}

func (s staticFrames) Current() []byte { return s.jpg }

type fakeStatus struct {
	state capture.State
	seq   uint64
	err   error
}

func (s fakeStatus) State() capture.State { return s.state }
func (s fakeStatus) Seq() uint64          { return s.seq }
func (s fakeStatus) SessionID() string    { return "session-1" }
func (s fakeStatus) Err() error           { return s.err }

type fixedCount int

func (c fixedCount) GetClientCount() int { return int(c) }

// ========================================
// Snapshot Tests
// ========================================

func TestSnapshotHandler_NoFrame(t *testing.T) {
	w := httptest.NewRecorder()
	SnapshotHandler(staticFrames{})(w, httptest.NewRequest(http.MethodGet, "/snapshot.jpg", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", w.Code)
	}
}

func TestSnapshotHandler_ServesJPEG(t *testing.T) {
	jpg := []byte{0xFF, 0xD8, 0x01, 0xFF, 0xD9}
	w := httptest.NewRecorder()
	SnapshotHandler(staticFrames{jpg: jpg})(w, httptest.NewRequest(http.MethodGet, "/snapshot.jpg", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Expected image/jpeg, got %q", ct)
	}
	if w.Body.String() != string(jpg) {
		t.Errorf("Unexpected body %v", w.Body.Bytes())
	}
}

// ========================================
// Health Tests
// ========================================

func TestHealthHandler(t *testing.T) {
	log := logger.New(io.Discard)
	streams := NewStreamHandler(staticChunks{}, shutdown.NewFlag(), 0, 0, log)

	tests := []struct {
		name       string
		status     fakeStatus
		publish    bool
		wantCode   int
		wantStatus string
	}{
		{"running", fakeStatus{state: capture.StateRunning, seq: 42}, true, http.StatusOK, "ok"},
		{"starting", fakeStatus{state: capture.StateStarting}, false, http.StatusServiceUnavailable, "error"},
		{"failed", fakeStatus{state: capture.StateStopped, err: errors.New("source unavailable")}, false, http.StatusServiceUnavailable, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot := frame.NewSlot()
			if tt.publish {
				slot.Publish(&frame.Frame{Pix: []byte{1}, Width: 1, Height: 1, Channels: 1})
			}

			w := httptest.NewRecorder()
			HealthHandler(tt.status, slot, streams, fixedCount(3), log)(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			if w.Code != tt.wantCode {
				t.Errorf("Expected %d, got %d", tt.wantCode, w.Code)
			}

			var got dto.HealthStatus
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
				t.Fatalf("Invalid JSON: %v", err)
			}
			if got.Status != tt.wantStatus || got.Capture != tt.status.state.String() {
				t.Errorf("Unexpected health %+v", got)
			}
			if got.FramePresent != tt.publish || got.LastSeq != tt.status.seq || got.StatsViewers != 3 {
				t.Errorf("Unexpected health %+v", got)
			}
			if tt.status.err != nil && got.Error != tt.status.err.Error() {
				t.Errorf("Expected error %q, got %q", tt.status.err, got.Error)
			}
		})
	}
}

type staticChunks struct{}

func (staticChunks) NextChunk() []byte { return nil }

// ========================================
// Archive Tests
// ========================================

func setupArchive(t *testing.T) (*sqlite.SnapshotRepository, *sqlite.DetectionRepository) {
	t.Helper()

	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return sqlite.NewSnapshotRepository(db), sqlite.NewDetectionRepository(db)
}

func TestGetSnapshotsHandler_Paging(t *testing.T) {
	snapshots, detections := setupArchive(t)
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 5; i++ {
		id, err := snapshots.Insert(&model.Snapshot{
			Filename:  "snap_" + string(rune('a'+i)) + ".jpg",
			SessionID: "s1",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			FilePath:  "/x",
			FileSize:  10,
		})
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		if err := detections.InsertBatch([]model.Detection{{SnapshotID: id, ObjectName: "person"}}); err != nil {
			t.Fatalf("InsertBatch failed: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/snapshots?page=2&limit=2&object=person", nil)
	GetSnapshotsHandler(logger.New(io.Discard), snapshots, detections)(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var got struct {
		Snapshots []struct {
			Name    string   `json:"name"`
			Date    string   `json:"date"`
			Objects []string `json:"objects"`
		} `json:"snapshots"`
		Length      int `json:"length"`
		TotalPages  int `json:"totalPages"`
		CurrentPage int `json:"currentPage"`
	}
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}

	if got.Length != 5 || got.TotalPages != 3 || got.CurrentPage != 2 {
		t.Errorf("Unexpected paging %+v", got)
	}
	if len(got.Snapshots) != 2 || got.Snapshots[0].Name != "snap_c.jpg" {
		t.Fatalf("Unexpected page %+v", got.Snapshots)
	}
	if len(got.Snapshots[0].Objects) != 1 || got.Snapshots[0].Objects[0] != "person" {
		t.Errorf("Unexpected objects %v", got.Snapshots[0].Objects)
	}
	if _, err := time.Parse("02-01-2006 15:04:05", got.Snapshots[0].Date); err != nil {
		t.Errorf("Unexpected date format %q", got.Snapshots[0].Date)
	}
}

func TestGetSnapshotsHandler_EmptyArchive(t *testing.T) {
	snapshots, detections := setupArchive(t)

	w := httptest.NewRecorder()
	GetSnapshotsHandler(logger.New(io.Discard), snapshots, detections)(w, httptest.NewRequest(http.MethodGet, "/api/snapshots", nil))

	var got dto.SnapshotsData
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if got.Length != 0 || got.Snapshots == nil || got.Limit != defaultPageSize {
		t.Errorf("Unexpected response %+v", got)
	}
}

func TestGetSnapshotsHandler_HugePage(t *testing.T) {
	snapshots, detections := setupArchive(t)
	if _, err := snapshots.Insert(&model.Snapshot{Filename: "a.jpg", SessionID: "s1", Timestamp: time.Now(), FilePath: "/x"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/snapshots?page=9223372036854775807&limit=200", nil)
	GetSnapshotsHandler(logger.New(io.Discard), snapshots, detections)(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var got dto.SnapshotsData
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(got.Snapshots) != 0 || got.Length != 1 {
		t.Errorf("Expected an empty page past the end, got %+v", got)
	}
	if got.CurrentPage <= 0 {
		t.Errorf("Expected a positive page number, got %d", got.CurrentPage)
	}
}

func TestViewSnapshotHandler(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("jpeg"), 0644); err != nil {
		t.Fatal(err)
	}
	h := ViewSnapshotHandler(&config.Config{ArchiveDirectory: dir})

	tests := []struct {
		query string
		want  int
	}{
		{"name=a.jpg", http.StatusOK},
		{"", http.StatusBadRequest},
		{"name=../secret", http.StatusBadRequest},
		{"name=missing.jpg", http.StatusNotFound},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/api/snapshots/view?"+tt.query, nil))
		if w.Code != tt.want {
			t.Errorf("%q: expected %d, got %d", tt.query, tt.want, w.Code)
		}
	}
}

// ========================================
// Log Tests
// ========================================

func TestLogsHandlers(t *testing.T) {
	dir := t.TempDir()
	log, err := logger.NewLogger(&config.Config{LogDirectory: dir})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	t.Cleanup(func() { log.Close() })

	log.Info("hello from the test")

	w := httptest.NewRecorder()
	ShowLogsHandler(log, logger.InfoFile)(w, httptest.NewRequest(http.MethodGet, "/logs/info", nil))
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("Expected log content, got %d %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	ClearLogsHandler(log, logger.WarningFile)(w, httptest.NewRequest(http.MethodPost, "/logs/warning/clear", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", w.Code)
	}
}

func TestLogsHandlers_ConsoleLogger(t *testing.T) {
	log := logger.New(io.Discard)

	w := httptest.NewRecorder()
	ShowLogsHandler(log, logger.InfoFile)(w, httptest.NewRequest(http.MethodGet, "/logs/info", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	ClearLogsHandler(log, logger.InfoFile)(w, httptest.NewRequest(http.MethodPost, "/logs/info/clear", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", w.Code)
	}
}

// ========================================
// Helper Function Tests
// ========================================

func TestAtoiDefault(t *testing.T) {
	tests := []struct {
		input    string
		def      int
		expected int
	}{
		{"10", 5, 10},
		{"1", 0, 1},
		{"", 5, 5},
		{"abc", 10, 10},
		{"-1", 5, 5},
		{"0", 5, 5},
		{"12.5", 5, 5},
	}

	for _, tt := range tests {
		if result := atoiDefault(tt.input, tt.def); result != tt.expected {
			t.Errorf("atoiDefault(%q, %d) = %d, expected %d", tt.input, tt.def, result, tt.expected)
		}
	}
}
