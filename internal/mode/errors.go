package mode

import "errors"

// Domain errors for the mode package.
//
// ErrModeNotFound and ErrModeDisabled are the only hard activation
// failures; everything downstream of them degrades to per-action
// errors.
var (
	// ErrModeNotFound is returned when a mode ID does not exist.
	ErrModeNotFound = errors.New("mode: not found")

	// ErrModeDisabled is returned when activating a disabled mode.
	ErrModeDisabled = errors.New("mode: disabled")

	// ErrModeExists is returned when creating a mode whose ID or name
	// already exists.
	ErrModeExists = errors.New("mode: already exists")

	// ErrInvalidMode is returned when mode validation fails.
	ErrInvalidMode = errors.New("mode: invalid")

	// ErrInvalidAction is returned when an action fails validation.
	ErrInvalidAction = errors.New("mode: invalid action")
)
