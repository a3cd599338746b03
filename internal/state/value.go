package state

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind identifies which variant a Value holds.
type Kind int

// Value variants, in coercion priority order.
const (
	KindBoolean Kind = iota
	KindInteger
	KindFloat
	KindString
)

// String returns the kind name for logging.
func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Value is a typed device attribute value.
//
// It is a tagged union over the four types the feed can deliver:
// boolean, integer, float, and string. Values are immutable; copying
// the struct copies the value.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
}

// BoolValue returns a boolean Value.
func BoolValue(b bool) Value {
	return Value{kind: KindBoolean, b: b}
}

// IntValue returns an integer Value.
func IntValue(i int64) Value {
	return Value{kind: KindInteger, i: i}
}

// FloatValue returns a float Value.
func FloatValue(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

// StringValue returns a string Value.
func StringValue(s string) Value {
	return Value{kind: KindString, s: s}
}

// Kind returns which variant this Value holds.
func (v Value) Kind() Kind {
	return v.kind
}

// AsBool returns the boolean variant. ok is false for other kinds.
func (v Value) AsBool() (value, ok bool) {
	return v.b, v.kind == KindBoolean
}

// AsInt returns the integer variant. ok is false for other kinds.
func (v Value) AsInt() (int64, bool) {
	return v.i, v.kind == KindInteger
}

// AsFloat returns the float variant. ok is false for other kinds.
func (v Value) AsFloat() (float64, bool) {
	return v.f, v.kind == KindFloat
}

// AsString returns the string variant. ok is false for other kinds.
func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// Numeric returns the value as a float64 when it is an integer or
// a float. ok is false for booleans and strings.
//
// Telemetry and setpoint reads use this so that a hub reporting "21"
// and one reporting "21.0" behave identically.
func (v Value) Numeric() (float64, bool) {
	switch v.kind {
	case KindInteger:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// Interface returns the underlying value as an any, suitable for
// JSON encoding or logging.
func (v Value) Interface() any {
	switch v.kind {
	case KindBoolean:
		return v.b
	case KindInteger:
		return v.i
	case KindFloat:
		return v.f
	default:
		return v.s
	}
}

// Text returns a human-readable rendering of the value.
func (v Value) Text() string {
	switch v.kind {
	case KindBoolean:
		return fmt.Sprintf("%t", v.b)
	case KindInteger:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	default:
		return v.s
	}
}

// MarshalJSON encodes the value as its native JSON type
// (true, 42, 21.5, or "heat").
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON decodes a native JSON value into the matching variant.
// Whole-number JSON floats decode as integers to survive round-trips.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	switch t := raw.(type) {
	case bool:
		*v = BoolValue(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			*v = IntValue(i)
			return nil
		}
		f, err := t.Float64()
		if err != nil {
			return fmt.Errorf("state: invalid number %q", t.String())
		}
		*v = FloatValue(f)
	case string:
		*v = StringValue(t)
	default:
		return fmt.Errorf("state: unsupported JSON value %s", data)
	}
	return nil
}
