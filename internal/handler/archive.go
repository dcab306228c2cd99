package handler

import (
	"encoding/json"
	"math"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/Wisaacj/Supervisor/internal/config"
	"github.com/Wisaacj/Supervisor/internal/dto"
	"github.com/Wisaacj/Supervisor/internal/logger"
	"github.com/Wisaacj/Supervisor/internal/repository"
)

const (
	defaultPageSize = 24
	maxPageSize     = 200
)

// GetSnapshotsHandler returns a filtered page of archived snapshots.
func GetSnapshotsHandler(logger *logger.Logger, snapshotRepo repository.SnapshotRepository,
	detectionRepo repository.DetectionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := min(atoiDefault(q.Get("limit"), defaultPageSize), maxPageSize)
		// Keep (page-1)*limit inside int.
		page = min(page, math.MaxInt/limit)

		filter := &dto.SnapshotFilters{
			Object:    q.Get("object"),
			SessionID: q.Get("session"),
			Limit:     limit,
			Offset:    (page - 1) * limit,
		}

		snapshots, err := snapshotRepo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying snapshots from database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		totalCount, err := snapshotRepo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting snapshots: %v", err)
			totalCount = len(snapshots)
		}

		infos := make([]dto.SnapshotInfo, 0, len(snapshots))
		for _, s := range snapshots {
			objects := []string{}
			if detectionRepo != nil {
				names, err := detectionRepo.GetObjectNamesBySnapshotID(s.ID)
				if err != nil {
					logger.Error("Error getting objects for snapshot %d: %v", s.ID, err)
				} else if names != nil {
					objects = names
				}
			}

			infos = append(infos, dto.SnapshotInfo{
				Name:      s.Filename,
				Date:      s.Timestamp,
				SessionID: s.SessionID,
				Objects:   objects,
				Size:      s.FileSize,
			})
		}

		data := dto.SnapshotsData{
			Snapshots:   infos,
			Length:      totalCount,
			TotalPages:  (totalCount + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logger.Error("Error encoding JSON response: %v", err)
		}
	}
}

// ViewSnapshotHandler serves one archived file named by the "name" query
// parameter.
func ViewSnapshotHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if name == "" {
			http.Error(w, "Name parameter is required", http.StatusBadRequest)
			return
		}
		if name != filepath.Base(name) || name == "." || name == ".." {
			http.Error(w, "Invalid name", http.StatusBadRequest)
			return
		}
		http.ServeFile(w, r, filepath.Join(cfg.ArchiveDirectory, name))
	}
}

// atoiDefault converts s to int or returns def when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}
