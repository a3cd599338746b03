package api

import (
	"net/http"

	"github.com/gorilla/websocket"
)

// wsBufferSize is the read/write buffer size for upgraded connections.
const wsBufferSize = 1024

// handleWebSocket upgrades the connection and registers it with the
// subscriber hub. Browsers cannot set an Authorization header on a
// WebSocket dial, so the token travels as a query parameter instead.
//
// GET /ws?token=
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	subject, err := s.verifyToken(r.URL.Query().Get("token"))
	if err != nil {
		s.logger.Warn("rejected websocket token", "error", err)
		writeUnauthorized(w, "invalid token")
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  wsBufferSize,
		WriteBufferSize: wsBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.isAllowedOrigin(origin)
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	s.logger.Info("websocket subscriber connected",
		"subject", subject, "remote", r.RemoteAddr)
	s.hub.Register(conn)
}
