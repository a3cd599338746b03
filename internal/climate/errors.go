package climate

import "errors"

var (
	// ErrThermostatNotFound is returned when no registered device
	// matches the requested identifier.
	ErrThermostatNotFound = errors.New("climate: thermostat not found")

	// ErrNotThermostat is returned when the addressed device exists but
	// is not classified as a thermostat.
	ErrNotThermostat = errors.New("climate: device is not a thermostat")

	// ErrNoSetpoint is returned by relative adjustment when the feed
	// has not reported a heating setpoint for the device yet.
	ErrNoSetpoint = errors.New("climate: no live setpoint reported")

	// ErrSetpointOutOfRange is returned when an absolute setpoint falls
	// outside the allowed range.
	ErrSetpointOutOfRange = errors.New("climate: setpoint out of range")

	// ErrShortcutNotFound is returned for an unknown shortcut name.
	ErrShortcutNotFound = errors.New("climate: shortcut not found")
)
