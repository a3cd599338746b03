package device

import "strings"

// Type filter predicates used by mode actions and the API's device
// listing. Matching is case-insensitive on both sides.

// MatchesType reports whether the device satisfies a named type filter.
//
// Recognized filters:
//   - "light": type contains switch, dimmer or light, or the device
//     has the Switch or SwitchLevel capability
//   - "dimmer": type contains dimmer, or has SwitchLevel
//   - "lock": type or capabilities contain lock
//
// Any other filter falls back to a substring match against the type.
func MatchesType(d *Device, filter string) bool {
	f := strings.ToLower(filter)
	t := strings.ToLower(d.Type)

	switch f {
	case "light":
		return strings.Contains(t, "switch") ||
			strings.Contains(t, "dimmer") ||
			strings.Contains(t, "light") ||
			hasCapability(d, "switch") ||
			hasCapability(d, "switchlevel")
	case "dimmer":
		return strings.Contains(t, "dimmer") || hasCapability(d, "switchlevel")
	case "lock":
		return strings.Contains(t, "lock") || capabilityContains(d, "lock")
	default:
		return strings.Contains(t, f)
	}
}

// IsThermostat reports whether the device is classified as a
// thermostat: its type or any capability contains "thermostat".
func IsThermostat(d *Device) bool {
	if strings.Contains(strings.ToLower(d.Type), "thermostat") {
		return true
	}
	return capabilityContains(d, "thermostat")
}

// InRoom reports whether the device is in the given room.
// Exact match, case-insensitive.
func InRoom(d *Device, room string) bool {
	return strings.EqualFold(d.Room, room)
}

// hasCapability checks for an exact capability, case-insensitive.
func hasCapability(d *Device, cap string) bool {
	for _, c := range d.Capabilities {
		if strings.EqualFold(c, cap) {
			return true
		}
	}
	return false
}

// capabilityContains checks whether any capability contains the
// substring, case-insensitive.
func capabilityContains(d *Device, sub string) bool {
	for _, c := range d.Capabilities {
		if strings.Contains(strings.ToLower(c), sub) {
			return true
		}
	}
	return false
}
