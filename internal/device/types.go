package device

import (
	"time"

	"github.com/google/uuid"
)

// Device is one entry in the registry: a controllable or monitorable
// endpoint behind the hub.
//
// GatewayID is the identifier the command gateway addresses. It is also
// the usual key the feed reports state under, so it is the join point
// between the registry and the live state cache.
type Device struct {
	ID           string   `json:"id"`
	GatewayID    string   `json:"gateway_id"`
	Name         string   `json:"name"`
	Label        string   `json:"label,omitempty"`
	Type         string   `json:"type"`
	Room         string   `json:"room,omitempty"`
	Capabilities []string `json:"capabilities"`
	Enabled      bool     `json:"enabled"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeepCopy creates an independent copy of the Device. The capabilities
// slice is cloned so modifications to the copy do not affect the
// original. This is essential for cache isolation.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}

	cpy := *d
	if d.Capabilities != nil {
		cpy.Capabilities = make([]string, len(d.Capabilities))
		copy(cpy.Capabilities, d.Capabilities)
	}
	return &cpy
}

// DisplayName returns the label when set, falling back to the name.
func (d *Device) DisplayName() string {
	if d.Label != "" {
		return d.Label
	}
	return d.Name
}

// GenerateID produces a new unique device ID.
func GenerateID() string {
	return uuid.New().String()
}

// Validate checks the fields required for persistence.
func Validate(d *Device) error {
	if d.Name == "" {
		return ErrInvalidName
	}
	if d.GatewayID == "" {
		return ErrInvalidGatewayID
	}
	if d.Type == "" {
		return ErrInvalidType
	}
	return nil
}
