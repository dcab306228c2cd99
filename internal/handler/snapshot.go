package handler

import (
	"net/http"
	"strconv"
)

// FrameSource returns the JPEG bytes of the latest frame, nil when absent.
type FrameSource interface {
	Current() []byte
}

// SnapshotHandler serves the latest frame as a single JPEG.
func SnapshotHandler(frames FrameSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jpg := frames.Current()
		if jpg == nil {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "No frame available", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Content-Length", strconv.Itoa(len(jpg)))
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Write(jpg)
	}
}
