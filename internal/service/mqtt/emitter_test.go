package mqtt

import (
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/Wisaacj/Supervisor/internal/dto"
	"github.com/Wisaacj/Supervisor/internal/frame"
	"github.com/Wisaacj/Supervisor/internal/logger"
	"github.com/Wisaacj/Supervisor/internal/service/capture"
	paho "github.com/eclipse/paho.mqtt.golang"
)

// fakeToken is an already-completed token.
type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type message struct {
	topic   string
	qos     byte
	payload []byte
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []message
	err      error
}

func (p *fakePublisher) Publish(topic string, qos byte, _ bool, payload interface{}) paho.Token {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, message{topic: topic, qos: qos, payload: payload.([]byte)})
	return &fakeToken{err: p.err}
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}

func result(seq uint64, detections ...dto.DetectionResult) *capture.Result {
	return &capture.Result{
		Frame:      &frame.Frame{Pix: []byte{1}, Width: 1, Height: 1, Channels: 1, Seq: seq, CapturedAt: time.Unix(1700000000, 0)},
		Detections: detections,
	}
}

func runEmitter(t *testing.T, e *Emitter) {
	t.Helper()
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		e.Run(done)
		close(stopped)
	}()
	t.Cleanup(func() {
		close(done)
		<-stopped
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestEmitter_PublishesDetections(t *testing.T) {
	pub := &fakePublisher{}
	e := newEmitter(pub, "supervisor/detections", logger.New(io.Discard))
	runEmitter(t, e)

	e.Observe("session-1", result(4, dto.DetectionResult{Label: "person", TrackerID: 2, Confidence: 0.87}))
	waitFor(t, func() bool { published, _, _ := e.Stats(); return published == 1 })

	pub.mu.Lock()
	msg := pub.messages[0]
	pub.mu.Unlock()
	if msg.topic != "supervisor/detections" || msg.qos != 0 {
		t.Errorf("Unexpected topic/qos %s/%d", msg.topic, msg.qos)
	}

	var event dto.DetectionEvent
	if err := json.Unmarshal(msg.payload, &event); err != nil {
		t.Fatalf("Invalid payload: %v", err)
	}
	if event.SessionID != "session-1" || event.Seq != 4 || len(event.Detections) != 1 || event.Detections[0].Label != "person" {
		t.Errorf("Unexpected event %+v", event)
	}
}

func TestEmitter_SkipsEmptyResults(t *testing.T) {
	pub := &fakePublisher{}
	e := newEmitter(pub, "t", logger.New(io.Discard))

	e.Observe("s", result(1))

	if len(e.queue) != 0 {
		t.Errorf("Expected nothing queued, got %d", len(e.queue))
	}
}

func TestEmitter_DropsWhenQueueFull(t *testing.T) {
	e := newEmitter(&fakePublisher{}, "t", logger.New(io.Discard))

	for i := 0; i < queueSize+3; i++ {
		e.Observe("s", result(uint64(i), dto.DetectionResult{Label: "cat"}))
	}
	if _, dropped, _ := e.Stats(); dropped != 3 {
		t.Errorf("Expected 3 dropped events, got %d", dropped)
	}
}

func TestEmitter_CountsFailures(t *testing.T) {
	pub := &fakePublisher{err: errors.New("not connected")}
	e := newEmitter(pub, "t", logger.New(io.Discard))
	runEmitter(t, e)

	e.Observe("s", result(1, dto.DetectionResult{Label: "dog"}))
	waitFor(t, func() bool { _, _, failed := e.Stats(); return failed == 1 })

	if pub.count() != 1 {
		t.Errorf("Expected one publish attempt, got %d", pub.count())
	}
}

func TestEmitter_ConnectWithoutClient(t *testing.T) {
	e := newEmitter(&fakePublisher{}, "t", logger.New(io.Discard))

	if err := e.Connect(); err == nil {
		t.Error("Expected error without a configured client")
	}
	e.Disconnect()
}
