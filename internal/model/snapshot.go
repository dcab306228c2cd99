package model

import "time"

// Snapshot represents an archived frame record.
type Snapshot struct {
	ID        int64     `json:"id"`
	Filename  string    `json:"filename"`
	SessionID string    `json:"session_id"`
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	FilePath  string    `json:"filepath"`
	FileSize  int64     `json:"filesize"`
}
