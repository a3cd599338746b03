// Package brain reaches the optional delegated automation engine over
// SSH. When a mode activation requests delegation, the whole action
// sequence runs remotely and only a JSON summary comes back; any
// failure here makes the caller fall back to the direct gateway path.
package brain
