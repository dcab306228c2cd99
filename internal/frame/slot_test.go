package frame

import (
	"bytes"
	"sync"
	"testing"
)

func solidFrame(value byte, size int) *Frame {
	return &Frame{
		Pix:      bytes.Repeat([]byte{value}, size*size*3),
		Width:    size,
		Height:   size,
		Channels: 3,
	}
}

func TestSlot_EmptyByDefault(t *testing.T) {
	slot := NewSlot()

	f, ok := slot.Snapshot()
	if ok {
		t.Fatal("Expected empty slot")
	}
	if f != nil {
		t.Errorf("Expected nil frame, got %+v", f)
	}
}

func TestSlot_LatestWins(t *testing.T) {
	slot := NewSlot()
	a := solidFrame(1, 4)
	b := solidFrame(2, 4)

	slot.Publish(a)
	slot.Publish(b)

	for i := 0; i < 3; i++ {
		f, ok := slot.Snapshot()
		if !ok {
			t.Fatal("Expected frame to be present")
		}
		if f != b {
			t.Fatalf("Snapshot %d returned stale frame", i)
		}
	}
}

func TestSlot_NilPublishIgnored(t *testing.T) {
	slot := NewSlot()
	a := solidFrame(7, 2)

	slot.Publish(a)
	slot.Publish(nil)

	f, ok := slot.Snapshot()
	if !ok || f != a {
		t.Error("Expected nil publish to leave previous frame in place")
	}
}

// Every snapshot taken while a producer publishes must be a whole frame that
// was passed to Publish, never a blend of two.
func TestSlot_ConcurrentSnapshotsSeeWholeFrames(t *testing.T) {
	slot := NewSlot()
	const frames = 200
	const readers = 8

	published := make(map[*Frame]bool, frames)
	pool := make([]*Frame, frames)
	for i := range pool {
		pool[i] = solidFrame(byte(i), 8)
		published[pool[i]] = true
	}

	var wg sync.WaitGroup
	errs := make(chan string, readers)

	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < frames*5; i++ {
				f, ok := slot.Snapshot()
				if !ok {
					continue
				}
				if !published[f] {
					errs <- "snapshot returned a frame that was never published"
					return
				}
				first := f.Pix[0]
				for _, p := range f.Pix {
					if p != first {
						errs <- "snapshot returned a torn frame"
						return
					}
				}
			}
		}()
	}

	for _, f := range pool {
		slot.Publish(f)
	}

	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}

func TestFrame_Empty(t *testing.T) {
	tests := []struct {
		name  string
		frame *Frame
		want  bool
	}{
		{"nil", nil, true},
		{"no pixels", &Frame{Width: 2, Height: 2}, true},
		{"zero width", &Frame{Pix: []byte{1}, Height: 1}, true},
		{"valid", solidFrame(1, 2), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.frame.Empty(); got != tt.want {
				t.Errorf("Empty() = %v, expected %v", got, tt.want)
			}
		})
	}
}

func TestFrame_WithSeqSharesPixels(t *testing.T) {
	f := solidFrame(3, 2)
	g := f.WithSeq(42)

	if g.Seq != 42 || f.Seq != 0 {
		t.Errorf("Expected only the copy to carry seq 42, got original=%d copy=%d", f.Seq, g.Seq)
	}
	if &g.Pix[0] != &f.Pix[0] {
		t.Error("Expected pixel buffer to be shared")
	}
}
