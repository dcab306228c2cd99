package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Wisaacj/Supervisor/internal/config"
	"github.com/Wisaacj/Supervisor/internal/dto"
	"github.com/Wisaacj/Supervisor/internal/logger"
	"github.com/Wisaacj/Supervisor/internal/service/capture"
	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	queueSize      = 32
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
	disconnectWait = 250
)

// publisher is the part of paho.Client the emitter publishes through.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// Emitter publishes detection events to an MQTT topic. Observe never blocks
// the capture loop; events are queued and published from Run.
type Emitter struct {
	client    paho.Client
	pub       publisher
	topic     string
	queue     chan []byte
	published atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
	logger    *logger.Logger
}

// NewEmitter configures an auto-reconnecting client for cfg.MQTTBroker.
// Connect must be called before events are delivered.
func NewEmitter(cfg *config.Config, logger *logger.Logger) *Emitter {
	broker := cfg.MQTTBroker
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.OnConnect = func(paho.Client) {
		logger.Info("MQTT connection established (%s)", broker)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		logger.Warning("MQTT connection lost, will auto-reconnect: %v", err)
	}

	client := paho.NewClient(opts)
	e := newEmitter(client, cfg.MQTTTopic, logger)
	e.client = client
	return e
}

func newEmitter(pub publisher, topic string, logger *logger.Logger) *Emitter {
	return &Emitter{
		pub:    pub,
		topic:  topic,
		queue:  make(chan []byte, queueSize),
		logger: logger,
	}
}

// Connect dials the broker once.
func (e *Emitter) Connect() error {
	if e.client == nil {
		return errors.New("mqtt client not configured")
	}

	token := e.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return errors.New("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}
	return nil
}

// Observe implements capture.Observer. Frames without detections are skipped.
func (e *Emitter) Observe(sessionID string, result *capture.Result) {
	if len(result.Detections) == 0 {
		return
	}

	payload, err := json.Marshal(dto.DetectionEvent{
		SessionID:  sessionID,
		Seq:        result.Frame.Seq,
		Timestamp:  result.Frame.CapturedAt,
		Detections: result.Detections,
	})
	if err != nil {
		e.logger.Error("Failed to marshal detection event: %v", err)
		return
	}

	select {
	case e.queue <- payload:
	default:
		e.dropped.Add(1)
	}
}

// Run publishes queued events until done is closed.
func (e *Emitter) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case payload := <-e.queue:
			token := e.pub.Publish(e.topic, 0, false, payload)
			if !token.WaitTimeout(publishTimeout) {
				e.failed.Add(1)
				e.logger.Warning("MQTT publish timeout on %s", e.topic)
				continue
			}
			if err := token.Error(); err != nil {
				e.failed.Add(1)
				e.logger.Warning("MQTT publish failed: %v", err)
				continue
			}
			e.published.Add(1)
		}
	}
}

// Stats returns published, dropped and failed event counts.
func (e *Emitter) Stats() (published, dropped, failed uint64) {
	return e.published.Load(), e.dropped.Load(), e.failed.Load()
}

// Disconnect closes the broker connection.
func (e *Emitter) Disconnect() {
	if e.client != nil && e.client.IsConnected() {
		e.client.Disconnect(disconnectWait)
		e.logger.Info("MQTT disconnected")
	}
}
