package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/foyerlabs/foyer-core/internal/mode"
)

// handleListModes returns all modes, optionally restricted to enabled ones.
//
// GET /api/v1/modes?enabled_only=true
func (s *Server) handleListModes(w http.ResponseWriter, r *http.Request) {
	enabledOnly := r.URL.Query().Get("enabled_only") == "true"

	modes, err := s.modes.List(r.Context(), enabledOnly)
	if err != nil {
		s.logger.Error("failed to list modes", "error", err)
		writeInternalError(w, "failed to list modes")
		return
	}
	writeSuccess(w, http.StatusOK, modes)
}

// handleCreateMode creates a new mode.
//
// POST /api/v1/modes
func (s *Server) handleCreateMode(w http.ResponseWriter, r *http.Request) {
	var m mode.Mode
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.modes.Create(r.Context(), &m); err != nil {
		switch {
		case errors.Is(err, mode.ErrModeExists):
			writeConflict(w, "a mode with that name already exists")
		case errors.Is(err, mode.ErrInvalidMode), errors.Is(err, mode.ErrInvalidAction):
			writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
		default:
			s.logger.Error("failed to create mode", "error", err)
			writeInternalError(w, "failed to create mode")
		}
		return
	}
	writeSuccess(w, http.StatusCreated, m)
}

// handleActiveMode returns the currently active mode, or null.
//
// GET /api/v1/modes/active
func (s *Server) handleActiveMode(w http.ResponseWriter, r *http.Request) {
	active, err := s.modes.Active(r.Context())
	if err != nil {
		s.logger.Error("failed to read active mode", "error", err)
		writeInternalError(w, "failed to read active mode")
		return
	}
	writeSuccess(w, http.StatusOK, active)
}

// handleGetMode returns one mode by ID.
//
// GET /api/v1/modes/{id}
func (s *Server) handleGetMode(w http.ResponseWriter, r *http.Request) {
	m, err := s.modes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, mode.ErrModeNotFound) {
			writeNotFound(w, "mode not found")
			return
		}
		s.logger.Error("failed to get mode", "error", err)
		writeInternalError(w, "failed to get mode")
		return
	}
	writeSuccess(w, http.StatusOK, m)
}

// modePatch holds the updatable subset of a mode. Pointer fields
// distinguish "absent" from "set to zero value".
type modePatch struct {
	Label        *string        `json:"label"`
	Description  *string        `json:"description"`
	Icon         *string        `json:"icon"`
	Color        *string        `json:"color"`
	Actions      *[]mode.Action `json:"actions"`
	Enabled      *bool          `json:"enabled"`
	DisplayOrder *int           `json:"display_order"`
}

// handleUpdateMode applies a partial update to a mode.
//
// PATCH /api/v1/modes/{id}
func (s *Server) handleUpdateMode(w http.ResponseWriter, r *http.Request) {
	var patch modePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	m, err := s.modes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, mode.ErrModeNotFound) {
			writeNotFound(w, "mode not found")
			return
		}
		s.logger.Error("failed to get mode", "error", err)
		writeInternalError(w, "failed to get mode")
		return
	}

	if patch.Label != nil {
		m.Label = *patch.Label
	}
	if patch.Description != nil {
		m.Description = *patch.Description
	}
	if patch.Icon != nil {
		m.Icon = *patch.Icon
	}
	if patch.Color != nil {
		m.Color = *patch.Color
	}
	if patch.Actions != nil {
		m.Actions = *patch.Actions
	}
	if patch.Enabled != nil {
		m.Enabled = *patch.Enabled
	}
	if patch.DisplayOrder != nil {
		m.DisplayOrder = *patch.DisplayOrder
	}

	if err := s.modes.Update(r.Context(), m); err != nil {
		switch {
		case errors.Is(err, mode.ErrInvalidMode), errors.Is(err, mode.ErrInvalidAction):
			writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
		case errors.Is(err, mode.ErrModeNotFound):
			writeNotFound(w, "mode not found")
		default:
			s.logger.Error("failed to update mode", "error", err)
			writeInternalError(w, "failed to update mode")
		}
		return
	}
	writeSuccess(w, http.StatusOK, m)
}

// handleDeleteMode removes a mode.
//
// DELETE /api/v1/modes/{id}
func (s *Server) handleDeleteMode(w http.ResponseWriter, r *http.Request) {
	if err := s.modes.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, mode.ErrModeNotFound) {
			writeNotFound(w, "mode not found")
			return
		}
		s.logger.Error("failed to delete mode", "error", err)
		writeInternalError(w, "failed to delete mode")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleActivateMode runs one mode activation and returns its
// execution summary.
//
// POST /api/v1/modes/{id}/activate?triggered_by=&use_brain=
func (s *Server) handleActivateMode(w http.ResponseWriter, r *http.Request) {
	opts := mode.ActivateOptions{
		TriggeredBy: r.URL.Query().Get("triggered_by"),
		UseBrain:    r.URL.Query().Get("use_brain") == "true",
	}
	if opts.TriggeredBy == "" {
		opts.TriggeredBy = "api"
	}

	exec, err := s.engine.Activate(r.Context(), chi.URLParam(r, "id"), opts)
	if err != nil {
		switch {
		case errors.Is(err, mode.ErrModeNotFound):
			writeNotFound(w, "mode not found")
		case errors.Is(err, mode.ErrModeDisabled):
			writeConflict(w, "mode is disabled")
		default:
			s.logger.Error("mode activation failed", "error", err)
			writeInternalError(w, "mode activation failed")
		}
		return
	}
	writeSuccess(w, http.StatusOK, exec)
}

// handleDeactivateModes clears the active flag on every mode.
//
// POST /api/v1/modes/deactivate
func (s *Server) handleDeactivateModes(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeactivateAll(r.Context()); err != nil {
		s.logger.Error("failed to deactivate modes", "error", err)
		writeInternalError(w, "failed to deactivate modes")
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

// handleListModeExecutions returns activation history for one mode.
//
// GET /api/v1/modes/{id}/executions?limit=
func (s *Server) handleListModeExecutions(w http.ResponseWriter, r *http.Request) {
	s.writeExecutions(w, r, chi.URLParam(r, "id"))
}

// handleListExecutions returns activation history across all modes.
//
// GET /api/v1/executions?limit=
func (s *Server) handleListExecutions(w http.ResponseWriter, r *http.Request) {
	s.writeExecutions(w, r, "")
}

func (s *Server) writeExecutions(w http.ResponseWriter, r *http.Request, modeID string) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	execs, err := s.modes.Executions(r.Context(), modeID, limit)
	if err != nil {
		s.logger.Error("failed to list executions", "error", err)
		writeInternalError(w, "failed to list executions")
		return
	}
	writeSuccess(w, http.StatusOK, execs)
}
