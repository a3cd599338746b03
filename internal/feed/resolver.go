package feed

import (
	"strconv"
	"strings"

	"github.com/foyerlabs/foyer-core/internal/state"
)

// Resolve maps a feed topic to its device key and attribute name.
//
// Topics follow the hub bridge layout:
//
//	<namespace>/<hub>/<device-slug>/<attribute>
//
// ok is false when the topic has fewer than four segments; callers drop
// such events silently.
//
// The device key is the trailing numeric suffix of the device slug when
// one exists ("plancher-cuisine-13" -> "13"); otherwise the whole slug
// is used verbatim. Cache identity depends on this extraction, so it
// must not change.
func Resolve(topic string) (deviceKey, attribute string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) < 4 {
		return "", "", false
	}

	slug := parts[2]
	attribute = parts[3]

	if idx := strings.LastIndex(slug, "-"); idx >= 0 && idx < len(slug)-1 {
		suffix := slug[idx+1:]
		if _, err := strconv.Atoi(suffix); err == nil {
			return suffix, attribute, true
		}
	}

	return slug, attribute, true
}

// Boolean tokens recognised by ParseValue, lowercased.
var (
	trueTokens  = map[string]bool{"true": true, "on": true, "active": true}
	falseTokens = map[string]bool{"false": true, "off": true, "inactive": true}
)

// ParseValue coerces a raw feed payload into a typed value.
//
// Coercion order: case-insensitive boolean token, integer, float,
// string. The function is total — every input yields exactly one
// variant and never an error.
func ParseValue(raw string) state.Value {
	trimmed := strings.TrimSpace(raw)
	lowered := strings.ToLower(trimmed)

	if trueTokens[lowered] {
		return state.BoolValue(true)
	}
	if falseTokens[lowered] {
		return state.BoolValue(false)
	}

	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return state.IntValue(i)
	}

	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return state.FloatValue(f)
	}

	return state.StringValue(trimmed)
}
