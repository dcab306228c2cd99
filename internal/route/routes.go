package route

import (
	"net/http"

	"github.com/Wisaacj/Supervisor/internal/config"
	"github.com/Wisaacj/Supervisor/internal/frame"
	"github.com/Wisaacj/Supervisor/internal/handler"
	"github.com/Wisaacj/Supervisor/internal/logger"
	"github.com/Wisaacj/Supervisor/internal/middleware"
	"github.com/Wisaacj/Supervisor/internal/repository"
	"github.com/Wisaacj/Supervisor/internal/service/websocket"
)

// Dependencies collects what the HTTP surface reads from. Hub and the
// repositories are optional.
type Dependencies struct {
	Config        *config.Config
	Logger        *logger.Logger
	Stream        *handler.StreamHandler
	Frames        handler.FrameSource
	Capture       handler.CaptureStatus
	Slot          *frame.Slot
	Hub           *websocket.HubService
	SnapshotRepo  repository.SnapshotRepository
	DetectionRepo repository.DetectionRepository
}

// SetupRoutes registers the stream, the JSON and websocket endpoints and the
// log endpoints, and wraps the mux with CORS and access logging.
func SetupRoutes(deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	// The stream handler answers 405 for other methods itself.
	mux.Handle("/{$}", deps.Stream)

	mux.HandleFunc("GET /snapshot.jpg", handler.SnapshotHandler(deps.Frames))

	var viewers handler.ClientCounter
	if deps.Hub != nil {
		viewers = deps.Hub
		mux.HandleFunc("GET /ws/stats", handler.StatsWebsocketHandler(deps.Hub, deps.Logger))
	}
	mux.HandleFunc("GET /health", handler.HealthHandler(deps.Capture, deps.Slot, deps.Stream, viewers, deps.Logger))

	// Archive endpoints
	if deps.SnapshotRepo != nil {
		mux.HandleFunc("GET /api/snapshots", handler.GetSnapshotsHandler(deps.Logger, deps.SnapshotRepo, deps.DetectionRepo))
		mux.HandleFunc("GET /api/snapshots/view", handler.ViewSnapshotHandler(deps.Config))
	}

	// Log endpoints. Clearing requires the admin token and is not mounted
	// without one.
	requireAdmin := middleware.RequireToken(deps.Config.AdminToken)
	for level, file := range map[string]string{
		"info":    logger.InfoFile,
		"warning": logger.WarningFile,
		"error":   logger.ErrorFile,
	} {
		mux.HandleFunc("GET /logs/"+level, handler.ShowLogsHandler(deps.Logger, file))
		if deps.Config.AdminToken != "" {
			mux.Handle("POST /logs/"+level+"/clear", requireAdmin(handler.ClearLogsHandler(deps.Logger, file)))
		}
	}

	return middleware.Logging(deps.Logger)(middleware.CORS(mux))
}
