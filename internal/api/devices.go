package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/foyerlabs/foyer-core/internal/device"
)

// handleListDevices returns registry devices, optionally filtered by
// room and type. Unfiltered listing includes disabled devices;
// filtered listing matches only enabled ones.
//
// GET /api/v1/devices?room=&type=
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	room := r.URL.Query().Get("room")
	typeFilter := r.URL.Query().Get("type")

	if room != "" || typeFilter != "" {
		writeSuccess(w, http.StatusOK, s.devices.Filter(room, typeFilter))
		return
	}

	devices, err := s.devices.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list devices", "error", err)
		writeInternalError(w, "failed to list devices")
		return
	}
	writeSuccess(w, http.StatusOK, devices)
}

// handleCreateDevice registers a new device.
//
// POST /api/v1/devices
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var d device.Device
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.devices.Create(r.Context(), &d); err != nil {
		switch {
		case errors.Is(err, device.ErrDeviceExists):
			writeConflict(w, "a device with that ID or gateway ID already exists")
		case errors.Is(err, device.ErrInvalidName),
			errors.Is(err, device.ErrInvalidGatewayID),
			errors.Is(err, device.ErrInvalidType):
			writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
		default:
			s.logger.Error("failed to create device", "error", err)
			writeInternalError(w, "failed to create device")
		}
		return
	}
	writeSuccess(w, http.StatusCreated, d)
}

// handleGetDevice returns one device by registry ID.
//
// GET /api/v1/devices/{id}
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	d, err := s.devices.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		s.logger.Error("failed to get device", "error", err)
		writeInternalError(w, "failed to get device")
		return
	}
	writeSuccess(w, http.StatusOK, d)
}

// devicePatch holds the updatable subset of a device.
type devicePatch struct {
	Name         *string   `json:"name"`
	Label        *string   `json:"label"`
	Type         *string   `json:"type"`
	Room         *string   `json:"room"`
	Capabilities *[]string `json:"capabilities"`
	Enabled      *bool     `json:"enabled"`
}

// handleUpdateDevice applies a partial update to a device.
//
// PATCH /api/v1/devices/{id}
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	var patch devicePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	d, err := s.devices.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		s.logger.Error("failed to get device", "error", err)
		writeInternalError(w, "failed to get device")
		return
	}

	if patch.Name != nil {
		d.Name = *patch.Name
	}
	if patch.Label != nil {
		d.Label = *patch.Label
	}
	if patch.Type != nil {
		d.Type = *patch.Type
	}
	if patch.Room != nil {
		d.Room = *patch.Room
	}
	if patch.Capabilities != nil {
		d.Capabilities = *patch.Capabilities
	}
	if patch.Enabled != nil {
		d.Enabled = *patch.Enabled
	}

	if err := s.devices.Update(r.Context(), d); err != nil {
		switch {
		case errors.Is(err, device.ErrInvalidName),
			errors.Is(err, device.ErrInvalidGatewayID),
			errors.Is(err, device.ErrInvalidType):
			writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
		case errors.Is(err, device.ErrDeviceNotFound):
			writeNotFound(w, "device not found")
		default:
			s.logger.Error("failed to update device", "error", err)
			writeInternalError(w, "failed to update device")
		}
		return
	}
	writeSuccess(w, http.StatusOK, d)
}

// handleDeleteDevice removes a device from the registry.
//
// DELETE /api/v1/devices/{id}
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	if err := s.devices.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		s.logger.Error("failed to delete device", "error", err)
		writeInternalError(w, "failed to delete device")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetDeviceState returns the live attributes the feed has
// reported for one device. A registered device with no reported
// attributes yields an empty map.
//
// GET /api/v1/devices/{id}/state
func (s *Server) handleGetDeviceState(w http.ResponseWriter, r *http.Request) {
	d, err := s.devices.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		s.logger.Error("failed to get device", "error", err)
		writeInternalError(w, "failed to get device")
		return
	}

	attributes, _ := s.states.Get(d.GatewayID)
	writeSuccess(w, http.StatusOK, map[string]any{
		"device_id":  d.ID,
		"gateway_id": d.GatewayID,
		"attributes": attributes,
	})
}

// deviceCommandRequest is one ad-hoc command to a device. Value may be
// a JSON number or string.
type deviceCommandRequest struct {
	Command string `json:"command"`
	Value   any    `json:"value"`
}

// handleDeviceCommand sends one command through the gateway.
// Gateway failures surface as 502; the hub reflects the resulting
// state change through the normal feed path.
//
// POST /api/v1/devices/{id}/command
func (s *Server) handleDeviceCommand(w http.ResponseWriter, r *http.Request) {
	var req deviceCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Command == "" {
		writeBadRequest(w, "command is required")
		return
	}

	d, err := s.devices.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		s.logger.Error("failed to get device", "error", err)
		writeInternalError(w, "failed to get device")
		return
	}

	args, err := commandArgs(req.Value)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.gateway.Send(r.Context(), d.GatewayID, req.Command, args...); err != nil {
		s.logger.Warn("device command failed",
			"device", d.DisplayName(), "command", req.Command, "error", err)
		writeBadGateway(w, "gateway command failed")
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

// commandArgs converts an optional JSON command value into gateway
// argument form.
func commandArgs(value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case float64:
		return []string{strconv.FormatFloat(v, 'f', -1, 64)}, nil
	default:
		return nil, fmt.Errorf("value must be a string or number")
	}
}
