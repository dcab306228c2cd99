package dto

// HealthStatus is the body of the health endpoint.
type HealthStatus struct {
	Status        string `json:"status"`
	Capture       string `json:"capture"`
	SessionID     string `json:"session_id"`
	FramePresent  bool   `json:"frame_present"`
	LastSeq       uint64 `json:"last_seq"`
	Error         string `json:"error,omitempty"`
	StreamClients int    `json:"stream_clients"`
	StatsViewers  int    `json:"stats_viewers"`
}
