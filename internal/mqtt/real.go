package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sweeney/parking-sensor/internal/config"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second

	// deferredCapacity bounds how many undelivered fault reports are held
	// for replay after a reconnect.
	deferredCapacity = 32
)

// RealPublisher publishes to an actual MQTT broker.
// Fault reports that cannot be delivered are buffered and replayed when the
// connection comes back.
type RealPublisher struct {
	client paho.Client
	log    *zap.SugaredLogger

	topicStatus    string
	topicHeartbeat string
	topicError     string
	topicConfig    string

	attempts int
	backoff  time.Duration

	mu       sync.Mutex
	deferred *ringBuffer
}

// NewRealPublisher connects to the broker described by cfg. The client ID is
// the configured prefix plus the sensor ID and a random fragment, so two
// sensors sharing a prefix never evict each other's session.
func NewRealPublisher(cfg config.MQTT, sensorID string, logger *zap.SugaredLogger) (*RealPublisher, error) {
	p := &RealPublisher{
		log:            logger,
		topicStatus:    Topic(cfg.TopicStatus, sensorID),
		topicHeartbeat: Topic(cfg.TopicHeartbeat, sensorID),
		topicError:     Topic(cfg.TopicError, sensorID),
		topicConfig:    Topic(cfg.TopicConfig, sensorID),
		attempts:       cfg.PublishAttempts,
		backoff:        cfg.PublishBackoff,
		deferred:       newRingBuffer(deferredCapacity),
	}

	clientID := fmt.Sprintf("%s%s-%s", cfg.ClientIDPrefix, sensorID, uuid.NewString()[:8])
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(p.onConnect)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

// onConnect runs on every (re)connect: re-subscribes to the inbound config
// topic and flushes fault reports that accumulated while offline.
func (p *RealPublisher) onConnect(c paho.Client) {
	token := c.Subscribe(p.topicConfig, 1, p.handleConfig)
	if !token.WaitTimeout(publishTimeout) || token.Error() != nil {
		p.log.Warnw("config topic subscribe failed", "topic", p.topicConfig, "error", token.Error())
	}

	p.flushDeferred(func(msg bufferedMsg) error {
		token := c.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
		if !token.WaitTimeout(publishTimeout) {
			return fmt.Errorf("publish timeout")
		}
		return token.Error()
	})
}

// flushDeferred replays queued fault reports oldest-first. On the first
// redelivery failure the whole unflushed tail is requeued in its original
// order; a flaky reconnect must never lose or reorder reports.
func (p *RealPublisher) flushDeferred(send func(bufferedMsg) error) {
	p.mu.Lock()
	pending := p.deferred.drainAll()
	p.mu.Unlock()

	for i, msg := range pending {
		if err := send(msg); err != nil {
			p.log.Warnw("deferred reports still undeliverable",
				"topic", msg.topic, "remaining", len(pending)-i, "error", err)
			p.mu.Lock()
			dropped := 0
			for _, m := range pending[i:] {
				if p.deferred.push(m) {
					dropped++
				}
			}
			p.mu.Unlock()
			if dropped > 0 {
				p.log.Warnw("deferred buffer full, dropped oldest reports", "dropped", dropped)
			}
			return
		}
	}
	if len(pending) > 0 {
		p.log.Infow("flushed deferred reports", "count", len(pending))
	}
}

// handleConfig receives inbound configuration messages. Runtime
// reconfiguration is not interpreted by this firmware generation; the
// message is logged and acknowledged so a malformed payload can never take
// the sensor down.
func (p *RealPublisher) handleConfig(_ paho.Client, msg paho.Message) {
	p.log.Infow("config message received (ignored)", "topic", msg.Topic(), "bytes", len(msg.Payload()))
}

// PublishStatus sends a status report at QoS 1, retained so late subscribers
// see the spot's latest state.
func (p *RealPublisher) PublishStatus(payload StatusPayload) error {
	data, err := FormatStatus(payload)
	if err != nil {
		return fmt.Errorf("format status: %w", err)
	}
	if err := p.publishRetry(p.topicStatus, 1, true, data); err != nil {
		return fmt.Errorf("publish status: %w", err)
	}
	return nil
}

// PublishHeartbeat sends a liveness report at QoS 0; a lost heartbeat is
// superseded by the next one.
func (p *RealPublisher) PublishHeartbeat(payload HeartbeatPayload) error {
	data, err := FormatHeartbeat(payload)
	if err != nil {
		return fmt.Errorf("format heartbeat: %w", err)
	}
	if err := p.publishRetry(p.topicHeartbeat, 0, false, data); err != nil {
		return fmt.Errorf("publish heartbeat: %w", err)
	}
	return nil
}

// PublishError sends a fault report at QoS 1. If delivery fails even after
// retries the report is queued and replayed on reconnect.
func (p *RealPublisher) PublishError(payload ErrorPayload) error {
	data, err := FormatError(payload)
	if err != nil {
		return fmt.Errorf("format error report: %w", err)
	}
	if err := p.publishRetry(p.topicError, 1, false, data); err != nil {
		p.bufferDeferred(bufferedMsg{topic: p.topicError, payload: data, qos: 1})
		return fmt.Errorf("publish error report: %w", err)
	}
	return nil
}

// publishRetry attempts delivery with capped attempts and exponential
// backoff. With the default 3 attempts, 5 s per-attempt timeout and 500 ms
// base backoff the worst case stays well inside one measurement interval.
func (p *RealPublisher) publishRetry(topic string, qos byte, retained bool, payload []byte) error {
	backoff := p.backoff
	var lastErr error

	for attempt := 1; attempt <= p.attempts; attempt++ {
		token := p.client.Publish(topic, qos, retained, payload)
		if !token.WaitTimeout(publishTimeout) {
			lastErr = fmt.Errorf("publish timeout")
		} else if err := token.Error(); err != nil {
			lastErr = err
		} else {
			return nil
		}

		if attempt < p.attempts {
			p.log.Warnw("publish failed, backing off",
				"topic", topic, "attempt", attempt, "backoff", backoff, "error", lastErr)
			time.Sleep(backoff)
			backoff *= 2
		}
	}

	return fmt.Errorf("%d attempts: %w", p.attempts, lastErr)
}

func (p *RealPublisher) bufferDeferred(msg bufferedMsg) {
	p.mu.Lock()
	dropped := p.deferred.push(msg)
	n := p.deferred.len()
	p.mu.Unlock()
	if dropped {
		p.log.Warnw("deferred buffer full, dropped oldest report", "capacity", deferredCapacity)
	}
	p.log.Debugw("report deferred until reconnect", "queued", n)
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
