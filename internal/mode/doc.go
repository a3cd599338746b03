// Package mode holds whole-home presets and the engine that applies
// them.
//
// A Mode is an ordered list of typed actions (device command, climate
// command, delay). Activation follows a fixed protocol: clear the
// active flag on every mode, run the actions best-effort, mark the
// target active, persist one immutable Execution record. Action
// failures accumulate; only a missing or disabled mode rejects the
// request.
//
// The Registry owns the single-active-mode invariant: the
// clear/mark steps are serialized behind one mutex and each is a
// single SQL statement, so concurrent activations can interleave
// everywhere else without ever leaving two modes active.
package mode
