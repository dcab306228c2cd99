package repository

import (
	"github.com/Wisaacj/Supervisor/internal/dto"
	"github.com/Wisaacj/Supervisor/internal/model"
)

// SnapshotRepository defines the interface for archived snapshot records.
type SnapshotRepository interface {
	Insert(s *model.Snapshot) (int64, error)

	GetByFilename(filename string) (*model.Snapshot, error)
	GetAll(filter *dto.SnapshotFilters) ([]model.Snapshot, error)
	GetTotalCount(filter *dto.SnapshotFilters) (int, error)
	Exists(filename string) (bool, error)
}

// DetectionRepository defines the interface for detections of archived snapshots.
type DetectionRepository interface {
	InsertBatch(detections []model.Detection) error

	GetBySnapshotID(snapshotID int64) ([]model.Detection, error)
	GetObjectNamesBySnapshotID(snapshotID int64) ([]string, error)
}
