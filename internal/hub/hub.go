package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/foyerlabs/foyer-core/internal/infrastructure/config"
	"github.com/foyerlabs/foyer-core/internal/state"
)

// Message types sent to subscribers.
const (
	MsgTypeState        = "state"
	MsgTypeInitialState = "initial_state"
	MsgTypePong         = "pong"

	// sendBufferSize is the per-client outbound message buffer size.
	sendBufferSize = 256
)

// Message is the wire envelope for every outbound WebSocket message.
type Message struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload,omitempty"`
	Timestamp string `json:"timestamp"`
}

// StateUpdate is the payload of a "state" message: one attribute change.
type StateUpdate struct {
	DeviceKey string      `json:"device"`
	Attribute string      `json:"attribute"`
	Value     state.Value `json:"value"`
	Topic     string      `json:"topic"`
}

// Envelope is a retained state update kept for replay to new
// subscribers.
//
// OriginalTimestamp is when the hub reported the value;
// ReceiptTimestamp is when this process received it. Replay always uses
// OriginalTimestamp so a subscriber never mistakes stale state for
// fresh.
type Envelope struct {
	Update            StateUpdate
	OriginalTimestamp time.Time
	ReceiptTimestamp  time.Time
}

// Logger is the narrow logging interface the hub uses.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger discards all log output. Used when no logger is provided.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// SnapshotFunc returns the full current state for initial_state
// messages. Injected so the hub has no direct dependency on where the
// snapshot comes from.
type SnapshotFunc func() map[string]map[string]state.Value

// Hub manages live WebSocket subscribers.
//
// It broadcasts state deltas to every connected client, replays
// retained envelopes (with their original timestamps) to newly joined
// clients, and removes broken clients during the same broadcast pass
// that detects them.
//
// Concurrency: the client set is guarded by one mutex shared by
// register/unregister/broadcast. The retained cache has its own RWMutex
// because it is written from the ingestion goroutines and read during
// client registration.
type Hub struct {
	cfg      config.WebSocketConfig
	logger   Logger
	snapshot SnapshotFunc

	mu      sync.Mutex
	clients map[*Client]struct{}

	retainedMu sync.RWMutex
	retained   map[string]Envelope
}

// New creates a Hub.
//
// Parameters:
//   - cfg: WebSocket keepalive and sizing settings
//   - snapshot: Provider for the initial_state payload
//   - logger: Optional logger (nil for silent operation)
func New(cfg config.WebSocketConfig, snapshot SnapshotFunc, logger Logger) *Hub {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Hub{
		cfg:      cfg,
		logger:   logger,
		snapshot: snapshot,
		clients:  make(map[*Client]struct{}),
		retained: make(map[string]Envelope),
	}
}

// Register accepts a WebSocket connection as a new subscriber.
//
// As part of connecting — not as a separate step — the new subscriber
// receives one initial_state message with the full current snapshot,
// followed by every retained envelope stamped with its original
// timestamp. The read and write pumps are then started.
//
// Returns the Client handle; callers normally don't need it because the
// client unregisters itself when its connection drops.
func (h *Hub) Register(conn *websocket.Conn) *Client {
	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	// Queue initial state and retained replays before the pumps start
	// draining, so the client sees them first.
	client.trySend(marshalMessage(Message{
		Type:      MsgTypeInitialState,
		Payload:   h.snapshot(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}))

	h.retainedMu.RLock()
	envelopes := make([]Envelope, 0, len(h.retained))
	for _, env := range h.retained {
		envelopes = append(envelopes, env)
	}
	h.retainedMu.RUnlock()

	for _, env := range envelopes {
		client.trySend(marshalMessage(Message{
			Type:      MsgTypeState,
			Payload:   env.Update,
			Timestamp: env.OriginalTimestamp.UTC().Format(time.RFC3339),
		}))
	}

	go client.writePump(h.cfg)
	go client.readPump(h.cfg)

	h.logger.Debug("subscriber connected", "clients", h.ClientCount())
	return client
}

// Unregister removes a client from the hub. Idempotent.
//
// Only the goroutine that successfully removes the client from the map
// closes the send channel, preventing double-close panics during
// shutdown.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	_, existed := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if existed {
		close(client.send)
	}
	h.logger.Debug("subscriber disconnected", "clients", h.ClientCount())
}

// BroadcastState sends one state update to every active subscriber.
//
// timestamp is the event time carried on the wire (receipt time for
// live deltas, original time for retained replays). A subscriber whose
// send fails is removed from the active set in this same pass —
// broadcast never fails because of an individual recipient.
func (h *Hub) BroadcastState(update StateUpdate, timestamp time.Time) {
	data := marshalMessage(Message{
		Type:      MsgTypeState,
		Payload:   update,
		Timestamp: timestamp.UTC().Format(time.RFC3339),
	})
	if data == nil {
		return
	}

	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	var broken []*Client
	for _, client := range clients {
		if !client.trySend(data) {
			broken = append(broken, client)
		}
	}
	for _, client := range broken {
		h.logger.Debug("removing broken subscriber")
		h.Unregister(client)
		client.conn.Close()
	}
}

// RecordRetained stores the replay envelope for a topic.
// Exactly one envelope is kept per topic; last write wins.
func (h *Hub) RecordRetained(topic string, env Envelope) {
	h.retainedMu.Lock()
	h.retained[topic] = env
	h.retainedMu.Unlock()
}

// RetainedCount returns the number of cached replay envelopes.
func (h *Hub) RetainedCount() int {
	h.retainedMu.RLock()
	defer h.retainedMu.RUnlock()
	return len(h.retained)
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Stop disconnects every subscriber and closes their send channels so
// the write pumps exit cleanly.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		if client.conn != nil {
			client.conn.Close()
		}
		delete(h.clients, client)
	}
}

// marshalMessage encodes a Message, returning nil on failure.
func marshalMessage(msg Message) []byte {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil
	}
	return data
}
