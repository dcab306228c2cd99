package storage

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// TimestampLayout is the timestamp prefix of snapshot filenames.
const TimestampLayout = "2006-01-02_15-04-05.000"

// SnapshotName builds "<timestamp>_<session>_<label>_<label>.jpg". Labels are
// de-duplicated and sorted; spaces become dashes.
func SnapshotName(ts time.Time, sessionID string, labels []string) string {
	seen := make(map[string]bool, len(labels))
	unique := make([]string, 0, len(labels))
	for _, label := range labels {
		label = strings.ReplaceAll(strings.TrimSpace(label), " ", "-")
		label = strings.ReplaceAll(label, "_", "-")
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		unique = append(unique, label)
	}
	sort.Strings(unique)

	name := ts.Format(TimestampLayout) + "_" + sessionID
	if len(unique) > 0 {
		name += "_" + strings.Join(unique, "_")
	}
	return name + ".jpg"
}

// ParseSnapshotName reverses SnapshotName.
func ParseSnapshotName(filename string) (ts time.Time, sessionID string, labels []string, err error) {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	parts := strings.Split(base, "_")
	if len(parts) < 3 {
		return time.Time{}, "", nil, fmt.Errorf("invalid snapshot name %q", filename)
	}

	ts, err = time.ParseInLocation(TimestampLayout, parts[0]+"_"+parts[1], time.Local)
	if err != nil {
		return time.Time{}, "", nil, fmt.Errorf("invalid snapshot timestamp in %q: %w", filename, err)
	}

	sessionID = parts[2]
	for _, label := range parts[3:] {
		if label != "" {
			labels = append(labels, strings.ReplaceAll(label, "-", " "))
		}
	}
	return ts, sessionID, labels, nil
}
