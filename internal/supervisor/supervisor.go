// Package supervisor runs the capture loop and the HTTP server side by side
// and decides how the process ends.
package supervisor

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/Wisaacj/Supervisor/internal/logger"
	"github.com/Wisaacj/Supervisor/internal/shutdown"
)

// Runner is the foreground unit the process waits on.
type Runner interface {
	Run() error
}

// Server is the background HTTP unit. *http.Server satisfies it.
type Server interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
	Close() error
}

// Supervisor owns the shutdown flag on behalf of the process: interrupt
// signals set it, and it is set before the server is torn down.
type Supervisor struct {
	loop                Runner
	server              Server
	flag                *shutdown.Flag
	shutdownTimeout     time.Duration
	exitOnSourceFailure bool
	teardown            []func()
	logger              *logger.Logger
}

// New creates a Supervisor. teardown functions run in order once the loop has
// stopped and the server is down.
func New(loop Runner, server Server, flag *shutdown.Flag, shutdownTimeout time.Duration,
	exitOnSourceFailure bool, logger *logger.Logger, teardown ...func()) *Supervisor {
	return &Supervisor{
		loop:                loop,
		server:              server,
		flag:                flag,
		shutdownTimeout:     shutdownTimeout,
		exitOnSourceFailure: exitOnSourceFailure,
		teardown:            teardown,
		logger:              logger,
	}
}

// Run starts both units and blocks until the process should exit. It returns
// the exit code: 0 when the capture loop ended, 1 when the server could not
// serve.
func (s *Supervisor) Run(signals <-chan os.Signal) int {
	stop := make(chan struct{})
	defer close(stop)
	go s.watchSignals(signals, stop)

	serverErr := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	loopDone := make(chan error, 1)
	go func() {
		loopDone <- s.loop.Run()
	}()

	code := 0
	select {
	case err := <-loopDone:
		if err != nil && !s.exitOnSourceFailure {
			s.logger.Warning("Capture stopped (%v); serving placeholders until interrupted", err)
			select {
			case <-s.flag.Done():
			case err := <-serverErr:
				s.logger.Error("HTTP server failed: %v", err)
				code = 1
			}
		}
	case err := <-serverErr:
		s.logger.Error("HTTP server failed: %v", err)
		s.flag.Set()
		<-loopDone
		code = 1
	}

	s.flag.Set()
	s.stopServer()

	for _, fn := range s.teardown {
		fn()
	}

	s.logger.Info("Exiting with status %d", code)
	return code
}

// watchSignals only sets the flag; all blocking work happens in Run.
func (s *Supervisor) watchSignals(signals <-chan os.Signal, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case sig := <-signals:
			if s.flag.Set() {
				s.logger.Info("Received %v, shutting down", sig)
			}
		}
	}
}

func (s *Supervisor) stopServer() {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warning("Graceful HTTP shutdown failed: %v", err)
		if err := s.server.Close(); err != nil {
			s.logger.Warning("Error closing HTTP server: %v", err)
		}
		return
	}
	s.logger.Info("HTTP server stopped")
}
