package status

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Wisaacj/Supervisor/internal/dto"
	"github.com/Wisaacj/Supervisor/internal/logger"
)

// LineWidth is the width the status line is padded or cut to, so a shorter
// line fully overwrites a longer one.
const LineWidth = 100

// Sink receives every status update as JSON. Broadcast must not block.
type Sink interface {
	Broadcast(message []byte)
}

// Reporter renders per-frame inference stats as a single line rewritten in
// place on a terminal and forwards them to sinks.
type Reporter struct {
	out    io.Writer
	line   bool
	sinks  []Sink
	logger *logger.Logger

	mu      sync.Mutex
	last    dto.StatusUpdate
	printed bool
}

// NewReporter creates a Reporter. When line is false nothing is written to out.
func NewReporter(out io.Writer, line bool, logger *logger.Logger, sinks ...Sink) *Reporter {
	return &Reporter{out: out, line: line, sinks: sinks, logger: logger}
}

// Report implements capture.Reporter.
func (r *Reporter) Report(seq uint64, stats dto.InferenceStats) {
	update := dto.StatusUpdate{
		Seq:       seq,
		Timestamp: time.Now(),
		Stats:     stats,
		TotalMs:   dto.Milliseconds(stats.Total()),
	}

	r.mu.Lock()
	r.last = update
	if r.line {
		fmt.Fprintf(r.out, "\r%-*.*s", LineWidth, LineWidth, stats.String())
		r.printed = true
	}
	r.mu.Unlock()

	if len(r.sinks) == 0 {
		return
	}
	message, err := json.Marshal(update)
	if err != nil {
		r.logger.Error("Failed to marshal status update: %v", err)
		return
	}
	for _, sink := range r.sinks {
		sink.Broadcast(message)
	}
}

// Last returns the most recent update.
func (r *Reporter) Last() (dto.StatusUpdate, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.last.Seq > 0
}

// Finish ends the status line so later output starts on a fresh line.
func (r *Reporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.printed {
		fmt.Fprintln(r.out)
		r.printed = false
	}
}
