package frame

import "sync/atomic"

// Slot holds the most recently published frame. It is a single-slot mailbox:
// Publish overwrites whatever is there, Snapshot returns the current frame
// without consuming it. Neither call blocks.
//
// Publish is meant to be called from one producer goroutine at a time.
// Snapshot is safe for any number of concurrent readers.
type Slot struct {
	current atomic.Pointer[Frame]
}

// NewSlot returns an empty slot.
func NewSlot() *Slot {
	return &Slot{}
}

// Publish replaces the slot contents with f. A nil frame is ignored; once a
// frame has been published the slot never goes back to absent.
func (s *Slot) Publish(f *Frame) {
	if f == nil {
		return
	}
	s.current.Store(f)
}

// Snapshot returns the current frame and whether one is present.
func (s *Slot) Snapshot() (*Frame, bool) {
	f := s.current.Load()
	return f, f != nil
}
