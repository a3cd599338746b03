package api

import "net/http"

// handleStateSnapshot returns the full live-state snapshot: every
// device key the feed has reported, with all its attributes.
//
// GET /api/v1/state
func (s *Server) handleStateSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]any{
		"devices": s.states.Snapshot(),
	})
}
