package climate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/foyerlabs/foyer-core/internal/device"
	"github.com/foyerlabs/foyer-core/internal/state"
)

// ─────────────────────────────────────────────────────────────────────
// Mock Dependencies
// ─────────────────────────────────────────────────────────────────────

type sentCommand struct {
	deviceID string
	command  string
	args     []string
}

type mockGateway struct {
	mu      sync.Mutex
	sent    []sentCommand
	failErr error
}

func (g *mockGateway) Send(_ context.Context, deviceID, command string, args ...string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failErr != nil {
		return g.failErr
	}
	g.sent = append(g.sent, sentCommand{deviceID: deviceID, command: command, args: args})
	return nil
}

func (g *mockGateway) commands() []sentCommand {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]sentCommand, len(g.sent))
	copy(out, g.sent)
	return out
}

// mockDevices is a fixed device inventory.
type mockDevices struct {
	devices []device.Device
}

func (m *mockDevices) Get(_ context.Context, id string) (*device.Device, error) {
	for _, d := range m.devices {
		if d.ID == id {
			return d.DeepCopy(), nil
		}
	}
	return nil, device.ErrDeviceNotFound
}

func (m *mockDevices) GetByGatewayID(_ context.Context, gatewayID string) (*device.Device, error) {
	for _, d := range m.devices {
		if d.GatewayID == gatewayID {
			return d.DeepCopy(), nil
		}
	}
	return nil, device.ErrDeviceNotFound
}

func (m *mockDevices) Thermostats() []device.Device {
	var out []device.Device
	for _, d := range m.devices {
		if device.IsThermostat(&d) && d.Enabled {
			out = append(out, d)
		}
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────
// Test Setup
// ─────────────────────────────────────────────────────────────────────

func testThermostat(id, gatewayID, label string) device.Device {
	return device.Device{
		ID:           id,
		GatewayID:    gatewayID,
		Name:         "thermostat " + gatewayID,
		Label:        label,
		Type:         "Thermostat",
		Room:         "salon",
		Capabilities: []string{"Thermostat", "TemperatureMeasurement"},
		Enabled:      true,
	}
}

// newTestService wires a service over a live state store and mocks.
func newTestService(devices ...device.Device) (*Service, *state.Store, *mockGateway) {
	store := state.NewStore()
	gw := &mockGateway{}
	svc := NewService(&mockDevices{devices: devices}, store, gw, nil)
	return svc, store, gw
}

// ─────────────────────────────────────────────────────────────────────
// Read Side
// ─────────────────────────────────────────────────────────────────────

func TestService_ThermostatsJoinsLiveState(t *testing.T) {
	svc, store, _ := newTestService(
		testThermostat("t-1", "20", "Plancher cuisine"),
		testThermostat("t-2", "21", ""),
	)

	store.ApplyDelta("20", "temperature", state.FloatValue(20.5))
	store.ApplyDelta("20", "heatingSetpoint", state.FloatValue(21))
	store.ApplyDelta("20", "thermostatMode", state.StringValue("heat"))
	store.ApplyDelta("20", "thermostatOperatingState", state.StringValue("heating"))
	store.ApplyDelta("20", "humidity", state.IntValue(44))

	thermostats := svc.Thermostats(context.Background())
	if len(thermostats) != 2 {
		t.Fatalf("Thermostats() = %d entries, want 2", len(thermostats))
	}

	var reported, silent *Thermostat
	for i := range thermostats {
		switch thermostats[i].Device.GatewayID {
		case "20":
			reported = &thermostats[i]
		case "21":
			silent = &thermostats[i]
		}
	}
	if reported == nil || silent == nil {
		t.Fatal("expected thermostats 20 and 21 in the view")
	}

	if reported.Temperature == nil || *reported.Temperature != 20.5 {
		t.Errorf("Temperature = %v, want 20.5", reported.Temperature)
	}
	if reported.HeatingSetpoint == nil || *reported.HeatingSetpoint != 21 {
		t.Errorf("HeatingSetpoint = %v, want 21", reported.HeatingSetpoint)
	}
	if reported.Mode == nil || *reported.Mode != "heat" {
		t.Errorf("Mode = %v, want heat", reported.Mode)
	}
	if reported.OperatingState == nil || *reported.OperatingState != "heating" {
		t.Errorf("OperatingState = %v, want heating", reported.OperatingState)
	}
	if reported.Humidity == nil || *reported.Humidity != 44 {
		t.Errorf("Humidity = %v, want 44", reported.Humidity)
	}

	// The feed has said nothing about thermostat 21.
	if silent.Temperature != nil || silent.HeatingSetpoint != nil || silent.Mode != nil {
		t.Errorf("unreported thermostat has non-nil state: %+v", silent)
	}
}

// ─────────────────────────────────────────────────────────────────────
// Absolute Setpoint
// ─────────────────────────────────────────────────────────────────────

func TestService_SetSetpoint(t *testing.T) {
	svc, _, gw := newTestService(testThermostat("t-1", "20", ""))
	ctx := context.Background()

	if err := svc.SetSetpoint(ctx, "t-1", 21.5, ""); err != nil {
		t.Fatalf("SetSetpoint() error = %v", err)
	}

	cmds := gw.commands()
	if len(cmds) != 1 {
		t.Fatalf("sent %d commands, want 1", len(cmds))
	}
	if cmds[0].deviceID != "20" || cmds[0].command != "setHeatingSetpoint" || cmds[0].args[0] != "21.5" {
		t.Errorf("command = %+v, want setHeatingSetpoint 21.5 to device 20", cmds[0])
	}
}

func TestService_SetSetpointWithMode(t *testing.T) {
	svc, _, gw := newTestService(testThermostat("t-1", "20", ""))

	if err := svc.SetSetpoint(context.Background(), "t-1", 18, "heat"); err != nil {
		t.Fatalf("SetSetpoint() error = %v", err)
	}

	cmds := gw.commands()
	if len(cmds) != 2 {
		t.Fatalf("sent %d commands, want 2", len(cmds))
	}
	if cmds[0].command != "setThermostatMode" || cmds[0].args[0] != "heat" {
		t.Errorf("first command = %+v, want setThermostatMode heat", cmds[0])
	}
	if cmds[1].command != "setHeatingSetpoint" || cmds[1].args[0] != "18.0" {
		t.Errorf("second command = %+v, want setHeatingSetpoint 18.0", cmds[1])
	}
}

func TestService_SetSetpointValidation(t *testing.T) {
	svc, _, gw := newTestService(testThermostat("t-1", "20", ""))
	ctx := context.Background()

	for _, setpoint := range []float64{14.9, 30.1, 0, 100} {
		if err := svc.SetSetpoint(ctx, "t-1", setpoint, ""); !errors.Is(err, ErrSetpointOutOfRange) {
			t.Errorf("SetSetpoint(%v) error = %v, want ErrSetpointOutOfRange", setpoint, err)
		}
	}
	if len(gw.commands()) != 0 {
		t.Errorf("rejected setpoints still sent %d commands", len(gw.commands()))
	}
}

func TestService_SetSetpointWrongDevice(t *testing.T) {
	light := device.Device{
		ID: "d-1", GatewayID: "7", Name: "lamp", Type: "Generic Dimmer",
		Capabilities: []string{"Switch"}, Enabled: true,
	}
	svc, _, _ := newTestService(light)
	ctx := context.Background()

	if err := svc.SetSetpoint(ctx, "nope", 20, ""); !errors.Is(err, ErrThermostatNotFound) {
		t.Errorf("SetSetpoint(missing) error = %v, want ErrThermostatNotFound", err)
	}
	if err := svc.SetSetpoint(ctx, "d-1", 20, ""); !errors.Is(err, ErrNotThermostat) {
		t.Errorf("SetSetpoint(light) error = %v, want ErrNotThermostat", err)
	}
}

func TestService_ResolvesGatewayID(t *testing.T) {
	svc, _, gw := newTestService(testThermostat("t-1", "20", ""))

	// Callers may address the thermostat by its gateway ID directly.
	if err := svc.SetSetpoint(context.Background(), "20", 21, ""); err != nil {
		t.Fatalf("SetSetpoint(by gateway ID) error = %v", err)
	}
	if len(gw.commands()) != 1 {
		t.Errorf("sent %d commands, want 1", len(gw.commands()))
	}
}

// ─────────────────────────────────────────────────────────────────────
// Relative Adjustment
// ─────────────────────────────────────────────────────────────────────

func TestService_Adjust(t *testing.T) {
	svc, store, gw := newTestService(testThermostat("t-1", "20", ""))
	store.ApplyDelta("20", "heatingSetpoint", state.FloatValue(21))

	adj, err := svc.Adjust(context.Background(), "t-1", -1.5)
	if err != nil {
		t.Fatalf("Adjust() error = %v", err)
	}
	if adj.Previous != 21 || adj.New != 19.5 {
		t.Errorf("Adjustment = %+v, want 21 -> 19.5", adj)
	}

	cmds := gw.commands()
	if len(cmds) != 1 || cmds[0].args[0] != "19.5" {
		t.Errorf("commands = %v, want setHeatingSetpoint 19.5", cmds)
	}
}

func TestService_AdjustClamps(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		delta   float64
		want    float64
	}{
		{"clamps low", 15.5, -2.0, 15.0},
		{"clamps high", 29.0, 2.0, 30.0},
		{"no clamp needed", 20.0, 1.5, 21.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newTestService(testThermostat("t-1", "20", ""))
			store.ApplyDelta("20", "heatingSetpoint", state.FloatValue(tt.current))

			adj, err := svc.Adjust(context.Background(), "t-1", tt.delta)
			if err != nil {
				t.Fatalf("Adjust() error = %v", err)
			}
			if adj.New != tt.want {
				t.Errorf("Adjust(%v%+v) = %v, want %v", tt.current, tt.delta, adj.New, tt.want)
			}
		})
	}
}

func TestService_AdjustWithoutLiveSetpoint(t *testing.T) {
	svc, _, _ := newTestService(testThermostat("t-1", "20", ""))

	if _, err := svc.Adjust(context.Background(), "t-1", 1.0); !errors.Is(err, ErrNoSetpoint) {
		t.Errorf("Adjust() error = %v, want ErrNoSetpoint", err)
	}
}

// ─────────────────────────────────────────────────────────────────────
// Shortcuts
// ─────────────────────────────────────────────────────────────────────

func TestService_ApplyShortcut(t *testing.T) {
	svc, store, _ := newTestService(testThermostat("t-1", "20", ""))
	store.ApplyDelta("20", "heatingSetpoint", state.FloatValue(20))

	adj, err := svc.ApplyShortcut(context.Background(), "t-1", "j_ai_frette")
	if err != nil {
		t.Fatalf("ApplyShortcut() error = %v", err)
	}
	if adj.New != 21.5 {
		t.Errorf("j_ai_frette: new setpoint = %v, want 21.5", adj.New)
	}

	if _, err := svc.ApplyShortcut(context.Background(), "t-1", "j_ai_faim"); !errors.Is(err, ErrShortcutNotFound) {
		t.Errorf("ApplyShortcut(unknown) error = %v, want ErrShortcutNotFound", err)
	}
}

func TestShortcutTable(t *testing.T) {
	want := map[string]float64{
		"j_ai_frette":   1.5,
		"j_ai_chaud":    -1.5,
		"mode_economie": -2.0,
		"mode_confort":  1.0,
	}

	all := Shortcuts()
	if len(all) != len(want) {
		t.Fatalf("Shortcuts() = %d entries, want %d", len(all), len(want))
	}
	for _, s := range all {
		delta, ok := want[s.Name]
		if !ok {
			t.Errorf("unexpected shortcut %q", s.Name)
			continue
		}
		if s.Delta != delta {
			t.Errorf("shortcut %q delta = %v, want %v", s.Name, s.Delta, delta)
		}
	}

	// The temporary ones carry an advisory duration.
	for _, name := range []string{"j_ai_frette", "j_ai_chaud"} {
		s, _ := lookupShortcut(name)
		if s.DurationMinutes != 120 {
			t.Errorf("shortcut %q duration = %d, want 120", name, s.DurationMinutes)
		}
	}
}

// ─────────────────────────────────────────────────────────────────────
// Whole-Home Adjustment
// ─────────────────────────────────────────────────────────────────────

func TestService_AdjustAll(t *testing.T) {
	svc, store, gw := newTestService(
		testThermostat("t-1", "20", ""),
		testThermostat("t-2", "21", ""),
	)
	store.ApplyDelta("20", "heatingSetpoint", state.FloatValue(20))
	store.ApplyDelta("21", "heatingSetpoint", state.FloatValue(22))

	if err := svc.AdjustAll(context.Background(), -1.0); err != nil {
		t.Fatalf("AdjustAll() error = %v", err)
	}
	if len(gw.commands()) != 2 {
		t.Errorf("sent %d commands, want 2", len(gw.commands()))
	}
}

func TestService_AdjustAllBestEffort(t *testing.T) {
	svc, store, gw := newTestService(
		testThermostat("t-1", "20", "Salon"),
		testThermostat("t-2", "21", ""),
	)
	// Only thermostat 21 has a live setpoint; 20 must fail without
	// stopping the sweep.
	store.ApplyDelta("21", "heatingSetpoint", state.FloatValue(22))

	err := svc.AdjustAll(context.Background(), 1.0)
	if err == nil {
		t.Fatal("AdjustAll() error = nil, want aggregated failure")
	}
	if !strings.Contains(err.Error(), "Salon") {
		t.Errorf("error %q does not name the failed thermostat", err)
	}
	if len(gw.commands()) != 1 {
		t.Errorf("sent %d commands, want 1 to the healthy thermostat", len(gw.commands()))
	}
}
