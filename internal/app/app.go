package app

import (
	"fmt"
	"net/http"
	"os"

	"github.com/Wisaacj/Supervisor/internal/config"
	"github.com/Wisaacj/Supervisor/internal/frame"
	"github.com/Wisaacj/Supervisor/internal/handler"
	"github.com/Wisaacj/Supervisor/internal/logger"
	"github.com/Wisaacj/Supervisor/internal/repository/sqlite"
	"github.com/Wisaacj/Supervisor/internal/route"
	"github.com/Wisaacj/Supervisor/internal/service/ai"
	"github.com/Wisaacj/Supervisor/internal/service/capture"
	"github.com/Wisaacj/Supervisor/internal/service/mqtt"
	"github.com/Wisaacj/Supervisor/internal/service/source"
	"github.com/Wisaacj/Supervisor/internal/service/status"
	"github.com/Wisaacj/Supervisor/internal/service/storage"
	"github.com/Wisaacj/Supervisor/internal/service/stream"
	"github.com/Wisaacj/Supervisor/internal/service/vision"
	"github.com/Wisaacj/Supervisor/internal/service/websocket"
	"github.com/Wisaacj/Supervisor/internal/shutdown"
	"github.com/Wisaacj/Supervisor/internal/supervisor"
)

type App struct {
	config   *config.Config
	logger   *logger.Logger
	flag     *shutdown.Flag
	detector *ai.DetectorService
	hub      *websocket.HubService
	reporter *status.Reporter
	buffer   *storage.BufferService
	db       *sqlite.DB
	emitter  *mqtt.Emitter
	loop     *capture.Loop
	server   *http.Server
}

func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{config: cfg, logger: log, flag: shutdown.NewFlag()}
	if err := a.wire(); err != nil {
		a.close()
		log.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire() error {
	cfg, log := a.config, a.logger

	opener, err := source.NewOpener(cfg, log)
	if err != nil {
		return err
	}

	slot := frame.NewSlot()
	jpeg := vision.NewJPEGEncoder(cfg.JPEGQuality)

	a.detector = ai.NewDetectorService(cfg, log)
	a.hub = websocket.NewHubService(log)
	a.reporter = status.NewReporter(os.Stdout, cfg.StatusLine, log, a.hub)

	var observers []capture.Observer
	deps := route.Dependencies{Config: cfg, Logger: log, Slot: slot, Hub: a.hub}

	if cfg.ArchiveEnabled {
		a.db, err = sqlite.New(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to open archive database: %w", err)
		}
		snapshots := sqlite.NewSnapshotRepository(a.db)
		detections := sqlite.NewDetectionRepository(a.db)

		a.buffer = storage.NewBufferService(cfg, jpeg, log, snapshots, detections)
		observers = append(observers, a.buffer)
		deps.SnapshotRepo = snapshots
		deps.DetectionRepo = detections
	}

	if cfg.MQTTBroker != "" {
		emitter := mqtt.NewEmitter(cfg, log)
		if err := emitter.Connect(); err != nil {
			log.Warning("Detection events disabled: %v", err)
		} else {
			a.emitter = emitter
			observers = append(observers, emitter)
		}
	}

	a.loop = capture.NewLoop(cfg.StreamURL, opener, a.detector, slot, a.flag, a.reporter, log, observers...)

	encoder := stream.NewEncoder(slot, jpeg, log)
	deps.Stream = handler.NewStreamHandler(encoder, a.flag, cfg.StreamInterval(), cfg.StreamWriteTimeout(), log)
	deps.Frames = encoder
	deps.Capture = a.loop

	a.server = &http.Server{
		Addr:    cfg.Addr(),
		Handler: route.SetupRoutes(deps),
	}
	return nil
}

// Run starts the background services and supervises the capture loop and
// the HTTP server until the process should exit. It returns the exit code.
func (a *App) Run(signals <-chan os.Signal) int {
	done := a.flag.Done()
	go a.hub.Run(done)
	if a.buffer != nil {
		go a.buffer.Run(done)
	}
	if a.emitter != nil {
		go a.emitter.Run(done)
	}

	a.logger.Info("Supervisor streaming %s on http://%s/", a.config.StreamURL, a.server.Addr)

	sup := supervisor.New(a.loop, a.server, a.flag, a.config.ShutdownTimeout(), a.config.ExitOnSourceFailure,
		a.logger, a.reporter.Finish, a.flush, a.close)
	code := sup.Run(signals)

	a.logger.Close()
	return code
}

func (a *App) flush() {
	if a.buffer != nil {
		a.buffer.FlushSnapshots()
	}
}

// close releases the archive database, the broker connection and the network.
func (a *App) close() {
	if a.emitter != nil {
		a.emitter.Disconnect()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warning("Error closing database: %v", err)
		}
	}
	if a.detector != nil {
		a.detector.Close()
	}
}
