// Package climate is the thermostat surface of the hub: a read side
// that joins registered thermostats with live feed state, and a write
// side for absolute and relative setpoint changes, including the named
// household shortcuts.
package climate
