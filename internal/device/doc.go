// Package device holds the device registry: the persisted inventory of
// endpoints behind the hub, cached in memory for the hot paths.
//
// Mode actions and the climate service resolve their targets here via
// the filter predicates (MatchesType, IsThermostat, InRoom). The
// gateway_id column is the identifier the command gateway addresses and
// the usual key live state is reported under.
package device
