package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Wisaacj/Supervisor/internal/dto"
	"github.com/Wisaacj/Supervisor/internal/frame"
	"github.com/Wisaacj/Supervisor/internal/logger"
	"github.com/Wisaacj/Supervisor/internal/service/capture"
)

// CaptureStatus exposes the state of the capture loop.
type CaptureStatus interface {
	State() capture.State
	Seq() uint64
	SessionID() string
	Err() error
}

// ClientCounter reports connected clients of a service.
type ClientCounter interface {
	GetClientCount() int
}

// HealthHandler reports the capture state as JSON. It answers 200 while the
// capture loop is running and 503 otherwise. viewers may be nil.
func HealthHandler(status CaptureStatus, slot *frame.Slot, streams *StreamHandler, viewers ClientCounter, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, present := slot.Snapshot()
		state := status.State()

		health := dto.HealthStatus{
			Status:        "ok",
			Capture:       state.String(),
			SessionID:     status.SessionID(),
			FramePresent:  present,
			LastSeq:       status.Seq(),
			StreamClients: streams.Clients(),
		}
		if viewers != nil {
			health.StatsViewers = viewers.GetClientCount()
		}
		if err := status.Err(); err != nil {
			health.Error = err.Error()
		}

		code := http.StatusOK
		if state != capture.StateRunning {
			health.Status = "error"
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(health); err != nil {
			logger.Error("Error encoding JSON response: %v", err)
		}
	}
}
