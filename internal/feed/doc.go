// Package feed ingests device attribute changes from the hub's MQTT
// namespace into the live state cache.
//
// The package has two halves:
//
//   - Pure resolution: Resolve maps a topic to (deviceKey, attribute)
//     and ParseValue coerces raw payload text into a typed value. Both
//     are deterministic and total.
//   - The Feed lifecycle: subscribe to "<prefix>/#", apply each message
//     to the state.Store as one atomic delta, and fan the delta out to
//     registered handlers (broadcast, telemetry). The transport owns
//     reconnection; the feed only tracks the resulting status.
//
// Parse failures never kill the connection: unresolvable topics are
// logged at debug level and dropped.
package feed
