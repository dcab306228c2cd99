package storage

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Wisaacj/Supervisor/internal/config"
	"github.com/Wisaacj/Supervisor/internal/dto"
	"github.com/Wisaacj/Supervisor/internal/frame"
	"github.com/Wisaacj/Supervisor/internal/logger"
	"github.com/Wisaacj/Supervisor/internal/model"
	"github.com/Wisaacj/Supervisor/internal/repository"
	"github.com/Wisaacj/Supervisor/internal/service/capture"
)

// Encoder turns a frame into the bytes written to disk.
type Encoder interface {
	Encode(f *frame.Frame) ([]byte, error)
}

// BufferService keeps frames with detections in memory and periodically
// writes them to the archive directory and the database.
type BufferService struct {
	snapshotsDir  string
	limit         int
	minInterval   time.Duration
	flushInterval time.Duration
	encoder       Encoder

	mu           sync.Mutex
	snapshots    []dto.BufferedSnapshot
	lastAccepted time.Time
	flushMu      sync.Mutex

	logger        *logger.Logger
	snapshotRepo  repository.SnapshotRepository
	detectionRepo repository.DetectionRepository
	now           func() time.Time
}

// NewBufferService creates a BufferService. The repositories may be nil, in
// which case snapshots are only written to disk.
func NewBufferService(config *config.Config, encoder Encoder, logger *logger.Logger,
	snapshotRepo repository.SnapshotRepository, detectionRepo repository.DetectionRepository) *BufferService {
	return &BufferService{
		snapshotsDir:  config.ArchiveDirectory,
		limit:         config.ArchiveBufferLimit,
		minInterval:   time.Duration(config.ArchiveMinIntervalS) * time.Second,
		flushInterval: time.Duration(config.ArchiveFlushIntervalS) * time.Second,
		encoder:       encoder,
		snapshots:     make([]dto.BufferedSnapshot, 0, config.ArchiveBufferLimit),
		logger:        logger,
		snapshotRepo:  snapshotRepo,
		detectionRepo: detectionRepo,
		now:           time.Now,
	}
}

// Run flushes the buffer every flush interval until done is closed. The
// final flush is left to the caller.
func (s *BufferService) Run(done <-chan struct{}) {
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.FlushSnapshots()
		}
	}
}

// Observe implements capture.Observer. It keeps at most one frame per
// minimum interval and at most limit frames per flush window.
func (s *BufferService) Observe(sessionID string, result *capture.Result) {
	if len(result.Detections) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if len(s.snapshots) >= s.limit {
		return
	}
	if !s.lastAccepted.IsZero() && now.Sub(s.lastAccepted) < s.minInterval {
		return
	}

	s.snapshots = append(s.snapshots, dto.BufferedSnapshot{
		Timestamp:  now,
		SessionID:  sessionID,
		Frame:      result.Frame,
		Detections: result.Detections,
	})
	s.lastAccepted = now
	s.logger.Debug("Snapshot buffer: %d/%d", len(s.snapshots), s.limit)
}

// Pending returns the number of buffered snapshots.
func (s *BufferService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.snapshots)
}

// FlushSnapshots encodes buffered frames, writes them to disk, indexes them
// and resets the buffer. It returns how many snapshots were saved.
func (s *BufferService) FlushSnapshots() int {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	pending := s.snapshots
	s.snapshots = make([]dto.BufferedSnapshot, 0, s.limit)
	s.mu.Unlock()

	if len(pending) == 0 {
		return 0
	}

	if err := os.MkdirAll(s.snapshotsDir, 0755); err != nil {
		s.logger.Error("Error creating directory: %v", err)
		return 0
	}

	savedCount := 0
	for _, snapshot := range pending {
		if s.save(snapshot) {
			savedCount++
		}
	}

	s.logger.Info("Flushed %d snapshots to disk", savedCount)
	return savedCount
}

func (s *BufferService) save(snapshot dto.BufferedSnapshot) bool {
	data, err := s.encoder.Encode(snapshot.Frame)
	if err != nil {
		s.logger.Error("Error encoding snapshot %d: %v", snapshot.Frame.Seq, err)
		return false
	}

	labels := make([]string, 0, len(snapshot.Detections))
	for _, det := range snapshot.Detections {
		labels = append(labels, det.Label)
	}
	filename := SnapshotName(snapshot.Timestamp, snapshot.SessionID, labels)
	fullpath := filepath.Join(s.snapshotsDir, filename)

	if err := os.WriteFile(fullpath, data, 0644); err != nil {
		s.logger.Error("Error saving snapshot %s: %v", filename, err)
		return false
	}

	if s.snapshotRepo == nil {
		return true
	}

	snapshotID, err := s.snapshotRepo.Insert(&model.Snapshot{
		Filename:  filename,
		SessionID: snapshot.SessionID,
		Seq:       snapshot.Frame.Seq,
		Timestamp: snapshot.Timestamp,
		FilePath:  fullpath,
		FileSize:  int64(len(data)),
	})
	if err != nil {
		s.logger.Error("Error saving snapshot to database %s: %v", filename, err)
		return true
	}

	if s.detectionRepo != nil {
		dbDetections := make([]model.Detection, 0, len(snapshot.Detections))
		for _, det := range snapshot.Detections {
			dbDetections = append(dbDetections, model.Detection{
				SnapshotID: snapshotID,
				ObjectName: det.Label,
				TrackerID:  det.TrackerID,
				X:          det.X,
				Y:          det.Y,
				Width:      det.Width,
				Height:     det.Height,
				Confidence: det.Confidence,
			})
		}
		if err := s.detectionRepo.InsertBatch(dbDetections); err != nil {
			s.logger.Error("Error saving detections to database: %v", err)
		}
	}

	return true
}
