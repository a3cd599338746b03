package mode

import (
	"time"

	"github.com/google/uuid"
)

// Mode is a named whole-home preset: an ordered list of actions applied
// when the mode is activated.
//
// At most one mode is active system-wide; the registry enforces that
// invariant during activation.
type Mode struct {
	// Identity
	ID   string `json:"id"`
	Name string `json:"name"`

	// UI metadata
	Label       string `json:"label,omitempty"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Color       string `json:"color,omitempty"`

	// Actions to execute, in order.
	Actions []Action `json:"actions"`

	Enabled      bool `json:"enabled"`
	Active       bool `json:"active"`
	DisplayOrder int  `json:"display_order"`

	LastActivated *time.Time `json:"last_activated,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ActionType discriminates the action union.
type ActionType string

// Action types.
const (
	ActionDevice  ActionType = "device"
	ActionClimate ActionType = "climate"
	ActionDelay   ActionType = "delay"
)

// Action is one step of a mode, persisted as JSON with a type
// discriminator.
//
//   - device: a command to one explicit device (DeviceID) or to every
//     device matching DeviceType and Rooms filters
//   - climate: a command applied to every thermostat
//   - delay: suspends this activation for Seconds
//
// Actions carry no dependency on each other; they execute in list
// order and failures never halt the remaining actions.
type Action struct {
	Type ActionType `json:"type"`

	// device fields
	DeviceID   string   `json:"device_id,omitempty"`
	DeviceType string   `json:"device_type,omitempty"`
	Rooms      []string `json:"rooms,omitempty"`

	// device and climate fields
	Command string   `json:"command,omitempty"`
	Value   *float64 `json:"value,omitempty"`

	// delay field
	Seconds int `json:"seconds,omitempty"`
}

// Execution is the immutable record of one activation attempt.
// Created once per attempt, never mutated afterwards.
type Execution struct {
	ID          string `json:"id"`
	ModeID      string `json:"mode_id"`
	ModeName    string `json:"mode_name"`
	TriggeredBy string `json:"triggered_by,omitempty"`

	SucceededCount int `json:"succeeded_count"`
	FailedCount    int `json:"failed_count"`
	TotalCount     int `json:"total_count"`

	// PerActionErrors holds one message per failed action.
	PerActionErrors []string `json:"per_action_errors,omitempty"`

	StartedAt time.Time `json:"started_at"`
}

// DeepCopy creates an independent copy of the Mode. The actions slice
// (including each action's rooms and value) is cloned so modifications
// to the copy do not affect the original. This is essential for cache
// isolation.
func (m *Mode) DeepCopy() *Mode {
	if m == nil {
		return nil
	}

	cpy := *m

	if m.Actions != nil {
		cpy.Actions = make([]Action, len(m.Actions))
		for i, a := range m.Actions {
			cpy.Actions[i] = a
			if a.Rooms != nil {
				cpy.Actions[i].Rooms = make([]string, len(a.Rooms))
				copy(cpy.Actions[i].Rooms, a.Rooms)
			}
			if a.Value != nil {
				v := *a.Value
				cpy.Actions[i].Value = &v
			}
		}
	}

	if m.LastActivated != nil {
		t := *m.LastActivated
		cpy.LastActivated = &t
	}

	return &cpy
}

// GenerateID produces a new unique identifier for modes and executions.
func GenerateID() string {
	return uuid.New().String()
}

// Validate checks a mode before persistence.
func Validate(m *Mode) error {
	if m.Name == "" {
		return ErrInvalidMode
	}
	for i := range m.Actions {
		if err := validateAction(&m.Actions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateAction(a *Action) error {
	switch a.Type {
	case ActionDevice:
		if a.Command == "" {
			return ErrInvalidAction
		}
		if a.DeviceID == "" && a.DeviceType == "" && len(a.Rooms) == 0 {
			return ErrInvalidAction
		}
	case ActionClimate:
		if a.Command == "" {
			return ErrInvalidAction
		}
	case ActionDelay:
		if a.Seconds <= 0 {
			return ErrInvalidAction
		}
	default:
		return ErrInvalidAction
	}
	return nil
}

// floatPtr is a small helper for building action values.
func floatPtr(v float64) *float64 {
	return &v
}
