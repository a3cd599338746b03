package climate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/foyerlabs/foyer-core/internal/device"
	"github.com/foyerlabs/foyer-core/internal/gateway"
	"github.com/foyerlabs/foyer-core/internal/state"
)

// Setpoint bounds in degrees Celsius. Absolute sets outside the range
// are rejected; relative adjustments clamp into it.
const (
	minSetpoint = 15.0
	maxSetpoint = 30.0
)

// DeviceSource is the slice of the device registry the service needs.
type DeviceSource interface {
	Get(ctx context.Context, id string) (*device.Device, error)
	GetByGatewayID(ctx context.Context, gatewayID string) (*device.Device, error)
	Thermostats() []device.Device
}

// StateReader reads live attribute values. Satisfied by *state.Store.
type StateReader interface {
	Attribute(deviceKey, attribute string) (state.Value, bool)
}

// Logger is the narrow logging interface the service uses.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Thermostat is a registered thermostat joined with its live state.
// Attribute pointers are nil until the feed reports the attribute.
type Thermostat struct {
	Device          device.Device `json:"device"`
	Temperature     *float64      `json:"temperature"`
	HeatingSetpoint *float64      `json:"heating_setpoint"`
	CoolingSetpoint *float64      `json:"cooling_setpoint"`
	Mode            *string       `json:"thermostat_mode"`
	OperatingState  *string       `json:"operating_state"`
	Humidity        *float64      `json:"humidity"`
}

// Adjustment reports the outcome of one relative setpoint change.
type Adjustment struct {
	Previous float64 `json:"previous"`
	New      float64 `json:"new"`
}

// Service is the thermostat read/write surface.
//
// Reads join the device registry with the live state store; writes go
// through the command gateway. Live state is looked up by the device's
// gateway ID, which is also its key on the attribute feed.
type Service struct {
	devices DeviceSource
	states  StateReader
	gateway gateway.Commander
	logger  Logger
}

// NewService creates a climate service.
func NewService(devices DeviceSource, states StateReader, gw gateway.Commander, logger Logger) *Service {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Service{devices: devices, states: states, gateway: gw, logger: logger}
}

// Thermostats returns every registered thermostat joined with whatever
// live state the feed has reported so far.
func (s *Service) Thermostats(_ context.Context) []Thermostat {
	registered := s.devices.Thermostats()
	out := make([]Thermostat, 0, len(registered))
	for _, d := range registered {
		out = append(out, s.join(d))
	}
	return out
}

// join builds the live view for one thermostat.
func (s *Service) join(d device.Device) Thermostat {
	t := Thermostat{Device: d}
	key := d.GatewayID

	t.Temperature = s.liveFloat(key, "temperature")
	t.HeatingSetpoint = s.liveFloat(key, "heatingSetpoint")
	t.CoolingSetpoint = s.liveFloat(key, "coolingSetpoint")
	t.Humidity = s.liveFloat(key, "humidity")
	t.Mode = s.liveString(key, "thermostatMode")
	t.OperatingState = s.liveString(key, "thermostatOperatingState")
	return t
}

func (s *Service) liveFloat(key, attribute string) *float64 {
	v, ok := s.states.Attribute(key, attribute)
	if !ok {
		return nil
	}
	f, ok := v.Numeric()
	if !ok {
		return nil
	}
	return &f
}

func (s *Service) liveString(key, attribute string) *string {
	v, ok := s.states.Attribute(key, attribute)
	if !ok {
		return nil
	}
	text := v.Text()
	return &text
}

// SetSetpoint sets an absolute heating setpoint on one thermostat,
// optionally switching the thermostat mode first. The setpoint must be
// within [15.0, 30.0].
func (s *Service) SetSetpoint(ctx context.Context, deviceID string, setpoint float64, mode string) error {
	if setpoint < minSetpoint || setpoint > maxSetpoint {
		return fmt.Errorf("%w: %.1f not in [%.1f, %.1f]",
			ErrSetpointOutOfRange, setpoint, minSetpoint, maxSetpoint)
	}

	d, err := s.thermostat(ctx, deviceID)
	if err != nil {
		return err
	}

	if mode != "" {
		if err := s.gateway.Send(ctx, d.GatewayID, "setThermostatMode", mode); err != nil {
			return fmt.Errorf("setting thermostat mode: %w", err)
		}
	}

	if err := s.gateway.Send(ctx, d.GatewayID, "setHeatingSetpoint", formatSetpoint(setpoint)); err != nil {
		return fmt.Errorf("setting setpoint: %w", err)
	}

	s.logger.Info("setpoint set",
		"device", d.DisplayName(), "setpoint", setpoint, "mode", mode)
	return nil
}

// Adjust shifts one thermostat's heating setpoint by delta, relative
// to the live value the feed last reported. The result clamps into
// [15.0, 30.0]. Returns the previous and new setpoints.
func (s *Service) Adjust(ctx context.Context, deviceID string, delta float64) (*Adjustment, error) {
	d, err := s.thermostat(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	current := s.liveFloat(d.GatewayID, "heatingSetpoint")
	if current == nil {
		return nil, ErrNoSetpoint
	}

	target := *current + delta
	if target < minSetpoint {
		target = minSetpoint
	}
	if target > maxSetpoint {
		target = maxSetpoint
	}

	if err := s.gateway.Send(ctx, d.GatewayID, "setHeatingSetpoint", formatSetpoint(target)); err != nil {
		return nil, fmt.Errorf("adjusting setpoint: %w", err)
	}

	s.logger.Info("setpoint adjusted",
		"device", d.DisplayName(), "previous", *current, "new", target)
	return &Adjustment{Previous: *current, New: target}, nil
}

// ApplyShortcut applies a named shortcut to one thermostat.
func (s *Service) ApplyShortcut(ctx context.Context, deviceID, name string) (*Adjustment, error) {
	shortcut, ok := lookupShortcut(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrShortcutNotFound, name)
	}
	return s.Adjust(ctx, deviceID, shortcut.Delta)
}

// AdjustAll applies one relative adjustment to every registered
// thermostat, best-effort. Per-device failures accumulate into a
// single error; thermostats without a reported setpoint count as
// failures too.
func (s *Service) AdjustAll(ctx context.Context, delta float64) error {
	var failures []string
	for _, d := range s.devices.Thermostats() {
		if _, err := s.Adjust(ctx, d.ID, delta); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", d.DisplayName(), err))
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("climate: adjust all: %s", strings.Join(failures, "; "))
	}
	return nil
}

// thermostat resolves an identifier to a registered thermostat. The
// registry ID is tried first, then the gateway ID.
func (s *Service) thermostat(ctx context.Context, id string) (*device.Device, error) {
	d, err := s.devices.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, device.ErrDeviceNotFound) {
			return nil, err
		}
		d, err = s.devices.GetByGatewayID(ctx, id)
		if err != nil {
			if errors.Is(err, device.ErrDeviceNotFound) {
				return nil, ErrThermostatNotFound
			}
			return nil, err
		}
	}

	if !device.IsThermostat(d) {
		return nil, ErrNotThermostat
	}
	return d, nil
}

// formatSetpoint renders a setpoint with one decimal, matching the
// gateway's command convention.
func formatSetpoint(v float64) string {
	return fmt.Sprintf("%.1f", v)
}
