package gateway

import "errors"

// Domain errors for the gateway package.
//
// All three are treated as action failures by the mode engine; none of
// them aborts an activation.
var (
	// ErrCommandFailed is returned when the gateway answers with a
	// non-2xx status.
	ErrCommandFailed = errors.New("gateway: command failed")

	// ErrUnavailable is returned when the gateway cannot be reached.
	ErrUnavailable = errors.New("gateway: unavailable")

	// ErrTimeout is returned when the command deadline expires.
	ErrTimeout = errors.New("gateway: timeout")
)
