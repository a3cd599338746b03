// Package gateway is the outbound command path: one HTTP GET per
// device command against a Maker-API-style hub endpoint.
//
// Every failure is a typed error (ErrCommandFailed, ErrUnavailable,
// ErrTimeout) so the mode engine can record it as an action failure
// without aborting the activation. Command results are observed
// indirectly, when the device reports its new state back through the
// attribute feed.
package gateway
