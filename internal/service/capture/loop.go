package capture

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Wisaacj/Supervisor/internal/dto"
	"github.com/Wisaacj/Supervisor/internal/frame"
	"github.com/Wisaacj/Supervisor/internal/logger"
	"github.com/Wisaacj/Supervisor/internal/shutdown"
	"github.com/google/uuid"
)

// Loop owns a video source and the detection pipeline. It reads frames, runs
// them through the detector and publishes the annotated result to a Slot
// until the shutdown flag is raised or the source fails.
//
// A Loop runs once: Starting -> Running -> (Stopping | Failed) -> Stopped.
type Loop struct {
	url       string
	opener    Opener
	detector  Detector
	slot      *frame.Slot
	flag      *shutdown.Flag
	reporter  Reporter
	observers []Observer
	logger    *logger.Logger

	started   atomic.Bool
	state     atomic.Int32
	seq       atomic.Uint64
	sessionID string

	mu      sync.Mutex
	lastErr error
}

// NewLoop wires a capture loop. reporter may be nil.
func NewLoop(url string, opener Opener, detector Detector, slot *frame.Slot, flag *shutdown.Flag,
	reporter Reporter, logger *logger.Logger, observers ...Observer) *Loop {
	if reporter == nil {
		reporter = nopReporter{}
	}
	return &Loop{
		url:       url,
		opener:    opener,
		detector:  detector,
		slot:      slot,
		flag:      flag,
		reporter:  reporter,
		observers: observers,
		logger:    logger,
		sessionID: uuid.NewString(),
	}
}

// Run executes the loop on the calling goroutine and returns once it reaches
// Stopped. It returns nil after a requested stop, or an error wrapping
// ErrSourceUnavailable or ErrReadFailure. A panic in the pipeline is
// returned as an error after the source has been released.
func (l *Loop) Run() (err error) {
	if !l.started.CompareAndSwap(false, true) {
		return errors.New("capture loop already started")
	}

	l.setState(StateStarting)
	l.logger.Info("Opening stream %s (session %s)", l.url, l.sessionID)

	src, err := l.opener.Open(l.url)
	if err != nil {
		err = fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, l.url, err)
		l.logger.Error("Couldn't open video stream: %v", err)
		l.setErr(err)
		l.setState(StateFailed)
		l.setState(StateStopped)
		return err
	}

	l.logger.Info("Stream opened successfully")
	l.setState(StateRunning)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("capture pipeline panicked: %v", r)
			l.fail(err)
		}

		l.logger.Info("Releasing video capture...")
		if cerr := src.Close(); cerr != nil {
			l.logger.Warning("Error releasing video capture: %v", cerr)
		}
		l.setState(StateStopped)
	}()

	if err = l.run(src); err != nil {
		l.fail(err)
		return err
	}

	l.logger.Info("Shutdown requested, stopping capture loop after %d frame(s)", l.seq.Load())
	l.setState(StateStopping)
	return nil
}

func (l *Loop) fail(err error) {
	l.logger.Error("Capture loop failed: %v", err)
	l.setErr(err)
	l.setState(StateFailed)
}

// run is the Running state body. The source is released by the caller.
func (l *Loop) run(src Source) error {
	for {
		if l.flag.IsSet() {
			return nil
		}

		raw, err := src.Read()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrReadFailure, err)
		}
		if raw.Empty() {
			return fmt.Errorf("%w: empty frame", ErrReadFailure)
		}

		// The flag may have been raised while Read was blocked.
		if l.flag.IsSet() {
			return nil
		}

		result, err := l.detector.Detect(raw)
		if err != nil {
			l.logger.Warning("Detection failed, dropping frame: %v", err)
			continue
		}
		if result == nil {
			result = &Result{}
		}
		if result.Frame == nil {
			result.Frame = raw
		}

		seq := l.seq.Add(1)
		result.Frame = result.Frame.WithSeq(seq)
		l.slot.Publish(result.Frame)

		l.reporter.Report(seq, result.Stats)
		for _, o := range l.observers {
			o.Observe(l.sessionID, result)
		}
	}
}

func (l *Loop) setState(s State) {
	l.state.Store(int32(s))
}

func (l *Loop) setErr(err error) {
	l.mu.Lock()
	l.lastErr = err
	l.mu.Unlock()
}

// State returns the current lifecycle state.
func (l *Loop) State() State {
	return State(l.state.Load())
}

// Seq returns the sequence number of the last published frame.
func (l *Loop) Seq() uint64 {
	return l.seq.Load()
}

// SessionID identifies this run in logs and archived snapshots.
func (l *Loop) SessionID() string {
	return l.sessionID
}

// Err returns the error that ended the loop, if any.
func (l *Loop) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

type nopReporter struct{}

func (nopReporter) Report(uint64, dto.InferenceStats) {}
