// Package state holds the live device-state cache for Foyer Core.
//
// The Store is written exclusively by the attribute feed and read by
// the API, the WebSocket hub's initial-state message, and the climate
// service. Values are a typed union over the four shapes the feed can
// deliver (boolean, integer, float, string) and marshal to their native
// JSON types.
package state
