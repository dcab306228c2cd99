package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Wisaacj/Supervisor/internal/dto"
	"github.com/Wisaacj/Supervisor/internal/model"
)

// SnapshotRepository implements repository.SnapshotRepository for SQLite.
type SnapshotRepository struct {
	db *DB
}

func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Insert adds a snapshot record and returns its ID.
func (r *SnapshotRepository) Insert(s *model.Snapshot) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO snapshots (filename, session_id, seq, timestamp, filepath, filesize)
		VALUES (?, ?, ?, ?, ?, ?)
	`, s.Filename, s.SessionID, int64(s.Seq), s.Timestamp, s.FilePath, s.FileSize)
	if err != nil {
		return 0, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return result.LastInsertId()
}

// GetByFilename returns the snapshot with the given filename, or nil if none.
func (r *SnapshotRepository) GetByFilename(filename string) (*model.Snapshot, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var s model.Snapshot
	var seq int64
	err := r.db.Conn().QueryRow(`
		SELECT id, filename, session_id, seq, timestamp, filepath, filesize
		FROM snapshots WHERE filename = ?
	`, filename).Scan(&s.ID, &s.Filename, &s.SessionID, &seq, &s.Timestamp, &s.FilePath, &s.FileSize)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	s.Seq = uint64(seq)
	return &s, nil
}

// GetAll returns snapshots matching the filter, newest first.
func (r *SnapshotRepository) GetAll(filter *dto.SnapshotFilters) ([]model.Snapshot, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := buildWhere(filter)
	query := `
		SELECT DISTINCT s.id, s.filename, s.session_id, s.seq, s.timestamp, s.filepath, s.filesize
		FROM snapshots s
		LEFT JOIN detections d ON s.id = d.snapshot_id
	` + where + " ORDER BY s.timestamp DESC, s.id DESC"

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []model.Snapshot
	for rows.Next() {
		var s model.Snapshot
		var seq int64
		if err := rows.Scan(&s.ID, &s.Filename, &s.SessionID, &seq, &s.Timestamp, &s.FilePath, &s.FileSize); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		s.Seq = uint64(seq)
		snapshots = append(snapshots, s)
	}

	return snapshots, rows.Err()
}

// GetTotalCount returns the number of snapshots matching the filter, ignoring paging.
func (r *SnapshotRepository) GetTotalCount(filter *dto.SnapshotFilters) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := buildWhere(filter)
	query := `
		SELECT COUNT(DISTINCT s.id)
		FROM snapshots s
		LEFT JOIN detections d ON s.id = d.snapshot_id
	` + where

	var count int
	if err := r.db.Conn().QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return count, nil
}

// Exists checks if a snapshot with the given filename is indexed.
func (r *SnapshotRepository) Exists(filename string) (bool, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM snapshots WHERE filename = ?`, filename).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check snapshot existence: %w", err)
	}
	return count > 0, nil
}

func buildWhere(filter *dto.SnapshotFilters) (string, []interface{}) {
	where := " WHERE 1=1"
	args := []interface{}{}
	if filter == nil {
		return where, args
	}

	if filter.Object != "" {
		where += " AND d.object_name = ?"
		args = append(args, filter.Object)
	}
	if filter.SessionID != "" {
		where += " AND s.session_id = ?"
		args = append(args, filter.SessionID)
	}
	return where, args
}
