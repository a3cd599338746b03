package feed

import (
	"testing"

	"github.com/foyerlabs/foyer-core/internal/state"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name          string
		topic         string
		wantKey       string
		wantAttribute string
		wantOK        bool
	}{
		{
			name:          "numeric suffix extracted",
			topic:         "hubitat/genius-hub-000d/plancher-cuisine-13/temperature",
			wantKey:       "13",
			wantAttribute: "temperature",
			wantOK:        true,
		},
		{
			name:          "no numeric suffix uses whole slug",
			topic:         "hubitat/genius-hub-000d/salon/temperature",
			wantKey:       "salon",
			wantAttribute: "temperature",
			wantOK:        true,
		},
		{
			name:          "non-numeric suffix uses whole slug",
			topic:         "hubitat/genius-hub-000d/porte-entree/contact",
			wantKey:       "porte-entree",
			wantAttribute: "contact",
			wantOK:        true,
		},
		{
			name:          "multi-digit suffix",
			topic:         "hubitat/genius-hub-000d/thermostat-salon-142/heatingSetpoint",
			wantKey:       "142",
			wantAttribute: "heatingSetpoint",
			wantOK:        true,
		},
		{
			name:   "three segments rejected",
			topic:  "hubitat/genius-hub-000d/orphan",
			wantOK: false,
		},
		{
			name:   "two segments rejected",
			topic:  "hubitat/genius-hub-000d",
			wantOK: false,
		},
		{
			name:   "empty topic rejected",
			topic:  "",
			wantOK: false,
		},
		{
			name:          "extra segments keep fourth as attribute",
			topic:         "hubitat/genius-hub-000d/lumiere-7/switch/extra",
			wantKey:       "7",
			wantAttribute: "switch",
			wantOK:        true,
		},
		{
			name:          "slug ending in dash uses whole slug",
			topic:         "hubitat/genius-hub-000d/weird-/switch",
			wantKey:       "weird-",
			wantAttribute: "switch",
			wantOK:        true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, attribute, ok := Resolve(tt.topic)
			if ok != tt.wantOK {
				t.Fatalf("Resolve(%q) ok = %v, want %v", tt.topic, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if key != tt.wantKey {
				t.Errorf("Resolve(%q) key = %q, want %q", tt.topic, key, tt.wantKey)
			}
			if attribute != tt.wantAttribute {
				t.Errorf("Resolve(%q) attribute = %q, want %q", tt.topic, attribute, tt.wantAttribute)
			}
		})
	}
}

func TestResolve_Deterministic(t *testing.T) {
	topic := "hubitat/genius-hub-000d/plancher-cuisine-13/temperature"
	k1, a1, _ := Resolve(topic)
	k2, a2, _ := Resolve(topic)
	if k1 != k2 || a1 != a2 {
		t.Errorf("Resolve not deterministic: (%q,%q) vs (%q,%q)", k1, a1, k2, a2)
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want state.Value
	}{
		{"on is true", "on", state.BoolValue(true)},
		{"ON is true", "ON", state.BoolValue(true)},
		{"true is true", "true", state.BoolValue(true)},
		{"active is true", "active", state.BoolValue(true)},
		{"off is false", "off", state.BoolValue(false)},
		{"false is false", "false", state.BoolValue(false)},
		{"inactive is false", "inactive", state.BoolValue(false)},
		{"Inactive mixed case", "Inactive", state.BoolValue(false)},
		{"integer", "42", state.IntValue(42)},
		{"negative integer", "-7", state.IntValue(-7)},
		{"zero", "0", state.IntValue(0)},
		{"float", "21.5", state.FloatValue(21.5)},
		{"negative float", "-3.25", state.FloatValue(-3.25)},
		{"plain string", "hello", state.StringValue("hello")},
		{"mode string", "heat", state.StringValue("heat")},
		{"empty string", "", state.StringValue("")},
		{"whitespace trimmed", "  21.5  ", state.FloatValue(21.5)},
		{"not quite boolean", "onn", state.StringValue("onn")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseValue(tt.raw)
			if got != tt.want {
				t.Errorf("ParseValue(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

// ParseValue must be total: arbitrary input always yields a variant.
func TestParseValue_NeverFails(t *testing.T) {
	inputs := []string{"", " ", "NaN", "1e309", "\x00", "{\"a\":1}", "[]", "0x1F"}
	for _, in := range inputs {
		got := ParseValue(in)
		switch got.Kind() {
		case state.KindBoolean, state.KindInteger, state.KindFloat, state.KindString:
		default:
			t.Errorf("ParseValue(%q) produced invalid kind %v", in, got.Kind())
		}
	}
}
