// Package hub fans live state changes out to WebSocket subscribers.
//
// A new subscriber receives, as part of connecting, one initial_state
// message with the full current snapshot plus a replay of every
// retained envelope — each stamped with the envelope's original
// timestamp, never the replay time. After that it receives every state
// delta as it happens.
//
// Broadcast is best-effort per recipient: a subscriber whose send fails
// is removed in the same pass, and the remaining subscribers are
// unaffected.
package hub
