package dto

import (
	"encoding/json"
	"time"
)

// SnapshotInfo describes one archived snapshot in API responses.
type SnapshotInfo struct {
	Name      string    `json:"name"`
	Date      time.Time `json:"date"`
	SessionID string    `json:"session"`
	Objects   []string  `json:"objects"`
	Size      int64     `json:"size"`
}

// MarshalJSON formats the date as "02-01-2006 15:04:05".
func (s SnapshotInfo) MarshalJSON() ([]byte, error) {
	type Alias SnapshotInfo
	return json.Marshal(&struct {
		Date string `json:"date"`
		Alias
	}{
		Date:  s.Date.Format("02-01-2006 15:04:05"),
		Alias: (Alias)(s),
	})
}
