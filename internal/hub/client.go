package hub

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/foyerlabs/foyer-core/internal/infrastructure/config"
)

// writeWait is how long a single write may take before the connection
// is considered dead.
const writeWait = 10 * time.Second

// Client is one connected WebSocket subscriber.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// inboundMessage is the only client-to-server shape the hub accepts.
type inboundMessage struct {
	Type string `json:"type"`
}

// readPump consumes inbound frames until the connection drops, then
// unregisters the client. One goroutine per client.
//
// The only application-level inbound message is {"type":"ping"}, which
// gets a pong envelope back. Everything else is ignored; any received
// frame still resets the read deadline.
func (c *Client) readPump(cfg config.WebSocketConfig) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	pongWait := time.Duration(cfg.PongTimeout) * time.Second
	c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("subscriber read error", "error", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg inboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			c.trySend(marshalMessage(Message{
				Type:      MsgTypePong,
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			}))
		}
	}
}

// writePump drains the send channel onto the wire and keeps the
// connection alive with protocol-level pings. One goroutine per client.
// Exits when the send channel closes (unregistration) or a write fails.
func (c *Client) writePump(cfg config.WebSocketConfig) {
	ticker := time.NewTicker(time.Duration(cfg.PingInterval) * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// trySend queues data for delivery without blocking.
//
// Returns false when the client cannot accept the message: the send
// buffer is full (slow consumer) or the channel is already closed. The
// recover handles a racing close during shutdown.
func (c *Client) trySend(data []byte) (ok bool) {
	if data == nil {
		return true
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}
