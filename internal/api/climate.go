package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foyerlabs/foyer-core/internal/climate"
)

// handleListThermostats returns every registered thermostat joined
// with its live state.
//
// GET /api/v1/climate/thermostats
func (s *Server) handleListThermostats(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, s.climate.Thermostats(r.Context()))
}

// handleListShortcuts returns the shortcut definitions.
//
// GET /api/v1/climate/shortcuts
func (s *Server) handleListShortcuts(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, climate.Shortcuts())
}

// setpointRequest is an absolute setpoint change.
type setpointRequest struct {
	Setpoint float64 `json:"setpoint"`
	Mode     string  `json:"mode,omitempty"`
}

// handleSetSetpoint sets an absolute heating setpoint.
//
// POST /api/v1/climate/{id}/setpoint
func (s *Server) handleSetSetpoint(w http.ResponseWriter, r *http.Request) {
	var req setpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	err := s.climate.SetSetpoint(r.Context(), chi.URLParam(r, "id"), req.Setpoint, req.Mode)
	if err != nil {
		s.writeClimateError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"setpoint": req.Setpoint})
}

// adjustRequest is a relative setpoint change.
type adjustRequest struct {
	Delta float64 `json:"delta"`
}

// handleAdjustSetpoint shifts the live setpoint by a delta.
//
// POST /api/v1/climate/{id}/adjust
func (s *Server) handleAdjustSetpoint(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	adj, err := s.climate.Adjust(r.Context(), chi.URLParam(r, "id"), req.Delta)
	if err != nil {
		s.writeClimateError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, adj)
}

// handleApplyShortcut applies a named shortcut to one thermostat.
//
// POST /api/v1/climate/{id}/shortcut/{name}
func (s *Server) handleApplyShortcut(w http.ResponseWriter, r *http.Request) {
	adj, err := s.climate.ApplyShortcut(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "name"))
	if err != nil {
		s.writeClimateError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, adj)
}

// writeClimateError maps climate service errors to HTTP responses.
func (s *Server) writeClimateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, climate.ErrThermostatNotFound):
		writeNotFound(w, "thermostat not found")
	case errors.Is(err, climate.ErrShortcutNotFound):
		writeNotFound(w, "shortcut not found")
	case errors.Is(err, climate.ErrNotThermostat):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "device is not a thermostat")
	case errors.Is(err, climate.ErrSetpointOutOfRange):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, climate.ErrNoSetpoint):
		writeConflict(w, "no live setpoint reported for this thermostat yet")
	default:
		s.logger.Warn("climate command failed", "error", err)
		writeBadGateway(w, "climate command failed")
	}
}
