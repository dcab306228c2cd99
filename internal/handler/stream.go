package handler

import (
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/Wisaacj/Supervisor/internal/logger"
	"github.com/Wisaacj/Supervisor/internal/service/stream"
	"github.com/Wisaacj/Supervisor/internal/shutdown"
)

// ChunkSource produces the next multipart chunk of the stream.
type ChunkSource interface {
	NextChunk() []byte
}

// StreamHandler serves the multipart/x-mixed-replace MJPEG stream. Every
// connection gets its own unbounded sequence of chunks, read from the shared
// encoder, until the client goes away or shutdown is requested.
type StreamHandler struct {
	chunks       ChunkSource
	flag         *shutdown.Flag
	interval     time.Duration
	writeTimeout time.Duration
	logger       *logger.Logger
	clients      atomic.Int64
}

// NewStreamHandler creates a StreamHandler. interval is the pause between
// chunks on one connection, writeTimeout bounds the write of a single chunk;
// zero disables either.
func NewStreamHandler(chunks ChunkSource, flag *shutdown.Flag, interval, writeTimeout time.Duration, logger *logger.Logger) *StreamHandler {
	return &StreamHandler{
		chunks:       chunks,
		flag:         flag,
		interval:     interval,
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// Clients returns the number of open stream connections.
func (h *StreamHandler) Clients() int {
	return int(h.clients.Load())
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", stream.ContentType)
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Connection", "close")

	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}

	total := h.clients.Add(1)
	defer h.clients.Add(-1)
	h.logger.Info("Stream client %s connected. Total: %d", r.RemoteAddr, total)

	sent, reason := h.serve(w, r)
	h.logger.Info("Stream client %s finished after %d chunks: %s", r.RemoteAddr, sent, reason)
}

// serve writes chunks until the connection ends and reports why it ended.
func (h *StreamHandler) serve(w http.ResponseWriter, r *http.Request) (int, string) {
	rc := http.NewResponseController(w)
	ctx := r.Context()

	var pause *time.Timer
	if h.interval > 0 {
		pause = time.NewTimer(h.interval)
		defer pause.Stop()
	}

	sent := 0
	for {
		if h.flag.IsSet() {
			return sent, "shutting down"
		}
		if ctx.Err() != nil {
			return sent, "client disconnected"
		}

		if h.writeTimeout > 0 {
			err := rc.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err != nil && !errors.Is(err, http.ErrNotSupported) {
				return sent, "write deadline: " + err.Error()
			}
		}

		if _, err := w.Write(h.chunks.NextChunk()); err != nil {
			return sent, "write failed: " + err.Error()
		}
		if err := rc.Flush(); err != nil {
			return sent, "flush failed: " + err.Error()
		}
		sent++

		if pause == nil {
			continue
		}
		pause.Reset(h.interval)
		select {
		case <-ctx.Done():
			return sent, "client disconnected"
		case <-h.flag.Done():
			return sent, "shutting down"
		case <-pause.C:
		}
	}
}
