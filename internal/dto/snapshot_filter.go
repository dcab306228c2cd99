// SnapshotFilters narrow the archive listing.
package dto

type SnapshotFilters struct {
	Object    string
	SessionID string
	Limit     int
	Offset    int
}
