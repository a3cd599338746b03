package feed

import (
	"bytes"
	"encoding/json"
	"sync"
	"time"

	"github.com/foyerlabs/foyer-core/internal/infrastructure/mqtt"
	"github.com/foyerlabs/foyer-core/internal/state"
)

// Status is the feed's lifecycle state.
type Status string

// Feed lifecycle states. Stopped is terminal.
const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusSubscribed   Status = "subscribed"
	StatusStopped      Status = "stopped"
)

// Delta is one resolved, coerced attribute change.
//
// OriginalTimestamp is the event's own declared time when the payload
// carried one, otherwise the receipt time. Retained replays keep the
// hub's original timestamp so subscribers never mistake stale state
// for fresh.
type Delta struct {
	DeviceKey         string
	Attribute         string
	Value             state.Value
	Topic             string
	Retained          bool
	OriginalTimestamp time.Time
	ReceivedAt        time.Time
}

// DeltaHandler receives every successfully applied delta.
// Handlers run on the transport's delivery goroutine and must not block.
type DeltaHandler func(Delta)

// Transport is the subset of the MQTT client the feed depends on.
type Transport interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	SetOnConnect(callback func())
	SetOnDisconnect(callback func(err error))
	IsConnected() bool
}

// Logger is the narrow logging interface the feed uses.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger discards all log output. Used when no logger is provided.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Feed consumes the hub's attribute topics and maintains the live
// state cache.
//
// Every inbound message is resolved to (deviceKey, attribute), coerced
// to a typed value, applied to the Store as one atomic delta, and then
// handed to the registered delta handlers (WebSocket broadcast,
// telemetry). Malformed topics are logged at debug and dropped; they
// are never fatal to the connection.
//
// The transport owns reconnection; the feed tracks the resulting
// lifecycle so health checks can report it.
type Feed struct {
	transport Transport
	store     *state.Store
	logger    Logger

	prefix string
	qos    byte

	mu       sync.RWMutex
	status   Status
	handlers []DeltaHandler
}

// New creates a Feed over the given transport and store.
//
// Parameters:
//   - transport: Connected MQTT client wrapper
//   - store: Live state cache the feed writes to
//   - prefix: Hub topic prefix; the feed subscribes to "<prefix>/#"
//   - qos: Subscription QoS level
//   - logger: Optional logger (nil for silent operation)
func New(transport Transport, store *state.Store, prefix string, qos byte, logger Logger) *Feed {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Feed{
		transport: transport,
		store:     store,
		logger:    logger,
		prefix:    prefix,
		qos:       qos,
		status:    StatusDisconnected,
	}
}

// OnDelta registers a handler invoked for every applied delta.
// Must be called before Start; not safe to call concurrently with it.
func (f *Feed) OnDelta(handler DeltaHandler) {
	f.mu.Lock()
	f.handlers = append(f.handlers, handler)
	f.mu.Unlock()
}

// Start subscribes to the hub namespace and begins applying deltas.
//
// Reconnection is handled by the transport: on every reconnect the
// subscription is restored and the feed transitions back to subscribed.
//
// Returns:
//   - error: If the initial subscription fails
func (f *Feed) Start() error {
	f.transport.SetOnConnect(func() {
		f.setStatus(StatusSubscribed)
		f.logger.Info("feed subscribed", "prefix", f.prefix)
	})
	f.transport.SetOnDisconnect(func(err error) {
		if f.Status() == StatusStopped {
			return
		}
		f.setStatus(StatusConnecting)
		f.logger.Warn("feed transport lost, reconnecting", "error", err)
	})

	f.setStatus(StatusConnecting)

	topic := mqtt.Topics{}.DeviceAttributes(f.prefix)
	if err := f.transport.Subscribe(topic, f.qos, f.handleMessage); err != nil {
		f.setStatus(StatusDisconnected)
		return err
	}

	f.setStatus(StatusSubscribed)
	f.logger.Info("feed started", "topic", topic)
	return nil
}

// Stop terminates the feed. No further deltas are applied and the
// status becomes Stopped permanently. Idempotent.
func (f *Feed) Stop() {
	if f.Status() == StatusStopped {
		return
	}
	f.setStatus(StatusStopped)

	topic := mqtt.Topics{}.DeviceAttributes(f.prefix)
	if err := f.transport.Unsubscribe(topic); err != nil {
		// Best effort: the transport may already be down.
		f.logger.Debug("feed unsubscribe failed", "error", err)
	}
	f.logger.Info("feed stopped")
}

// Status returns the current lifecycle state.
func (f *Feed) Status() Status {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.status
}

// Healthy reports whether the feed is subscribed and the transport
// connected.
func (f *Feed) Healthy() bool {
	return f.Status() == StatusSubscribed && f.transport.IsConnected()
}

func (f *Feed) setStatus(s Status) {
	f.mu.Lock()
	// Stopped is terminal; transport callbacks arriving late must not
	// resurrect the feed.
	if f.status != StatusStopped {
		f.status = s
	}
	f.mu.Unlock()
}

// handleMessage processes one inbound transport message.
func (f *Feed) handleMessage(msg mqtt.Message) error {
	if f.Status() == StatusStopped {
		return nil
	}

	deviceKey, attribute, ok := Resolve(msg.Topic)
	if !ok {
		f.logger.Debug("dropping unresolvable topic", "topic", msg.Topic)
		return nil
	}

	raw, originalTs := extractPayload(msg.Payload, msg.ReceivedAt)
	value := ParseValue(raw)

	f.store.ApplyDelta(deviceKey, attribute, value)

	delta := Delta{
		DeviceKey:         deviceKey,
		Attribute:         attribute,
		Value:             value,
		Topic:             msg.Topic,
		Retained:          msg.Retained,
		OriginalTimestamp: originalTs,
		ReceivedAt:        msg.ReceivedAt,
	}

	f.mu.RLock()
	handlers := f.handlers
	f.mu.RUnlock()

	for _, h := range handlers {
		h(delta)
	}
	return nil
}

// envelopePayload is the optional structured payload shape. Most hub
// bridges publish bare scalars; some wrap the value with its original
// event time.
type envelopePayload struct {
	Value     json.RawMessage `json:"value"`
	Timestamp time.Time       `json:"timestamp"`
}

// extractPayload returns the scalar text to coerce and the event's
// original timestamp.
//
// A JSON object payload with a "value" field yields that value and, when
// present, its declared "timestamp". Everything else is treated as a
// bare scalar stamped with the receipt time.
func extractPayload(payload []byte, receivedAt time.Time) (raw string, originalTs time.Time) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env envelopePayload
		if err := json.Unmarshal(trimmed, &env); err == nil && env.Value != nil {
			raw := string(bytes.Trim(bytes.TrimSpace(env.Value), `"`))
			if !env.Timestamp.IsZero() {
				return raw, env.Timestamp
			}
			return raw, receivedAt
		}
	}
	return string(trimmed), receivedAt
}
