package mode

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/foyerlabs/foyer-core/internal/brain"
	"github.com/foyerlabs/foyer-core/internal/device"
	"github.com/foyerlabs/foyer-core/internal/gateway"
)

// DeviceResolver is the interface the engine needs from the device
// registry: filter resolution for device actions and thermostat
// classification for climate actions.
type DeviceResolver interface {
	Filter(room, typeFilter string) []device.Device
	Thermostats() []device.Device
}

// BrainExecutor is the optional delegated automation path.
// Satisfied by *brain.Executor.
type BrainExecutor interface {
	Execute(ctx context.Context, modeName string) (*brain.Result, error)
}

// ActivateOptions tunes one activation.
type ActivateOptions struct {
	// TriggeredBy records who or what asked for the activation.
	TriggeredBy string

	// UseBrain delegates the whole sequence to the brain executor when
	// one is configured. If delegation errors, the direct per-action
	// path runs as a fallback.
	UseBrain bool
}

// defaultActionTimeout bounds a single gateway command when no timeout
// is configured.
const defaultActionTimeout = 30 * time.Second

// Engine interprets mode definitions against the command gateway.
//
// Activation is best-effort: every action runs in list order, failures
// are collected into the execution record, and only a missing or
// disabled mode aborts the attempt. A Delay action suspends only its
// own activation; concurrent activations and ingestion are unaffected.
//
// Thread Safety: Activate is safe for concurrent use. The only
// serialization point is the registry's activation mutex.
type Engine struct {
	registry *Registry
	devices  DeviceResolver
	gateway  gateway.Commander
	brain    BrainExecutor // may be nil
	logger   Logger

	actionTimeout time.Duration

	// onExecution, when set, observes every completed activation
	// attempt (telemetry, MQTT announcements).
	onExecution func(exec *Execution, duration time.Duration)
}

// NewEngine creates a mode engine.
//
// Parameters:
//   - registry: Mode registry (definitions and the active invariant)
//   - devices: Device registry for filter resolution
//   - gw: Command gateway
//   - brainExec: Optional delegated executor (nil to disable)
//   - actionTimeout: Per-action command timeout (0 for the default)
//   - logger: Logger instance (nil for silent operation)
func NewEngine(registry *Registry, devices DeviceResolver, gw gateway.Commander, brainExec BrainExecutor, actionTimeout time.Duration, logger Logger) *Engine {
	if logger == nil {
		logger = noopLogger{}
	}
	if actionTimeout <= 0 {
		actionTimeout = defaultActionTimeout
	}
	return &Engine{
		registry:      registry,
		devices:       devices,
		gateway:       gw,
		brain:         brainExec,
		logger:        logger,
		actionTimeout: actionTimeout,
	}
}

// SetOnExecution registers a callback invoked after every activation
// attempt, successful or not, with the execution record and the wall
// time it took. Must be set before the engine is shared between
// goroutines. The callback runs on the activating goroutine.
func (e *Engine) SetOnExecution(fn func(exec *Execution, duration time.Duration)) {
	e.onExecution = fn
}

// Activate runs one mode activation.
//
// The protocol:
//  1. Look up the mode (ErrModeNotFound / ErrModeDisabled are the only
//     hard failures).
//  2. Clear active on every mode. The last concurrent activation to
//     complete this step wins.
//  3. Execute each action in order, best-effort; failures accumulate
//     in the execution record and never halt the remaining actions.
//  4. Mark the target mode active and stamp last_activated.
//  5. Persist and return the execution record.
//
// The returned execution is a success even when some actions failed;
// only FailedCount reflects that.
func (e *Engine) Activate(ctx context.Context, modeID string, opts ActivateOptions) (*Execution, error) {
	m, err := e.registry.Get(ctx, modeID)
	if err != nil {
		return nil, err
	}
	if !m.Enabled {
		return nil, ErrModeDisabled
	}

	started := time.Now().UTC()
	e.logger.Info("mode activation started",
		"mode_id", m.ID,
		"mode_name", m.Name,
		"triggered_by", opts.TriggeredBy,
		"actions", len(m.Actions),
		"use_brain", opts.UseBrain,
	)

	if err := e.registry.ClearActive(ctx); err != nil {
		e.logger.Error("failed to clear active modes", "error", err)
		// The activation itself still proceeds; MarkActive clears again.
	}

	exec := &Execution{
		ID:          GenerateID(),
		ModeID:      m.ID,
		ModeName:    m.Name,
		TriggeredBy: opts.TriggeredBy,
		TotalCount:  len(m.Actions),
		StartedAt:   started,
	}

	delegated := false
	if opts.UseBrain && e.brain != nil {
		if res, brainErr := e.brain.Execute(ctx, m.Name); brainErr == nil {
			delegated = true
			exec.SucceededCount = len(m.Actions)
			if res != nil && res.Total > 0 {
				exec.TotalCount = res.Total
				exec.SucceededCount = res.Succeeded
				exec.FailedCount = res.Failed
			}
			e.logger.Info("mode delegated to brain", "mode_name", m.Name)
		} else {
			e.logger.Warn("brain delegation failed, running direct path", "error", brainErr)
		}
	}

	if !delegated {
		for i, action := range m.Actions {
			if actErr := e.executeAction(ctx, &action); actErr != nil {
				exec.FailedCount++
				exec.PerActionErrors = append(exec.PerActionErrors,
					fmt.Sprintf("action %d (%s): %v", i, action.Type, actErr))
				e.logger.Warn("mode action failed",
					"mode_name", m.Name, "action", i, "type", action.Type, "error", actErr)
				continue
			}
			exec.SucceededCount++
		}
	}

	if err := e.registry.MarkActive(ctx, m.ID, time.Now().UTC()); err != nil {
		e.logger.Error("failed to mark mode active", "mode_id", m.ID, "error", err)
	}

	if err := e.registry.repo.CreateExecution(ctx, exec); err != nil {
		// The activation already happened; losing the record is not
		// worth failing the request over.
		e.logger.Error("failed to persist execution record", "error", err)
	}

	e.logger.Info("mode activation complete",
		"mode_name", m.Name,
		"succeeded", exec.SucceededCount,
		"failed", exec.FailedCount,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	if e.onExecution != nil {
		e.onExecution(exec, time.Since(started))
	}
	return exec, nil
}

// DeactivateAll clears the active flag on every mode. Idempotent.
func (e *Engine) DeactivateAll(ctx context.Context) error {
	return e.registry.ClearActive(ctx)
}

// executeAction runs one action. Delay waits against the activation
// context; device and climate resolve their targets and send commands.
func (e *Engine) executeAction(ctx context.Context, a *Action) error {
	switch a.Type {
	case ActionDelay:
		select {
		case <-time.After(time.Duration(a.Seconds) * time.Second):
			return nil
		case <-ctx.Done():
			return fmt.Errorf("delay interrupted: %w", ctx.Err())
		}

	case ActionDevice:
		targets := e.resolveTargets(a)
		if len(targets) == 0 {
			// A filter matching no registered devices is vacuously done,
			// not a failure; modes are shared across homes with
			// different device inventories.
			e.logger.Debug("device action matched no devices",
				"type", a.DeviceType, "rooms", a.Rooms, "command", a.Command)
			return nil
		}
		return e.sendToAll(ctx, targets, a.Command, a.Value)

	case ActionClimate:
		thermostats := e.devices.Thermostats()
		if len(thermostats) == 0 {
			return fmt.Errorf("no thermostats registered")
		}
		targets := make([]string, 0, len(thermostats))
		for _, t := range thermostats {
			targets = append(targets, t.GatewayID)
		}
		return e.sendToAll(ctx, targets, a.Command, a.Value)

	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAction, a.Type)
	}
}

// resolveTargets returns the gateway IDs a device action addresses.
// An explicit DeviceID wins; otherwise the registry filters by type
// and rooms (an empty rooms list means any room).
func (e *Engine) resolveTargets(a *Action) []string {
	if a.DeviceID != "" {
		return []string{a.DeviceID}
	}

	rooms := a.Rooms
	if len(rooms) == 0 {
		rooms = []string{""}
	}

	seen := make(map[string]struct{})
	var targets []string
	for _, room := range rooms {
		for _, d := range e.devices.Filter(room, a.DeviceType) {
			if _, dup := seen[d.GatewayID]; dup {
				continue
			}
			seen[d.GatewayID] = struct{}{}
			targets = append(targets, d.GatewayID)
		}
	}
	return targets
}

// sendToAll sends one command to every target, accumulating per-device
// failures into a single action error.
func (e *Engine) sendToAll(ctx context.Context, targets []string, command string, value *float64) error {
	var failures []string
	for _, id := range targets {
		if err := e.sendCommand(ctx, id, command, value); err != nil {
			failures = append(failures, fmt.Sprintf("device %s: %v", id, err))
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("%s", strings.Join(failures, "; "))
	}
	return nil
}

// sendCommand issues one bounded gateway call, formatting the value
// per command convention: setLevel clamps to 0-100, setpoints carry
// one decimal.
func (e *Engine) sendCommand(ctx context.Context, deviceID, command string, value *float64) error {
	ctx, cancel := context.WithTimeout(ctx, e.actionTimeout)
	defer cancel()

	switch {
	case value == nil:
		return e.gateway.Send(ctx, deviceID, command)

	case command == "setLevel":
		level := int(*value)
		if level < 0 {
			level = 0
		}
		if level > 100 {
			level = 100
		}
		return e.gateway.Send(ctx, deviceID, command, strconv.Itoa(level))

	case command == "setHeatingSetpoint" || command == "setCoolingSetpoint":
		return e.gateway.Send(ctx, deviceID, command, strconv.FormatFloat(*value, 'f', 1, 64))

	default:
		return e.gateway.Send(ctx, deviceID, command, strconv.FormatFloat(*value, 'f', -1, 64))
	}
}
