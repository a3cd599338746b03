package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/foyerlabs/foyer-core/internal/infrastructure/config"
)

// defaultHTTPTimeout bounds a single request when the caller's context
// carries no deadline of its own.
const defaultHTTPTimeout = 35 * time.Second

// Commander is the interface consumed by the mode engine and climate
// service. Satisfied by *Client and by test mocks.
type Commander interface {
	Send(ctx context.Context, deviceID, command string, args ...string) error
}

// Logger is the narrow logging interface the client uses.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger discards all log output. Used when no logger is provided.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Client sends device commands to a Maker-API-style hub endpoint.
//
// Commands are plain GETs of the form
// {base}/devices/{id}/{command}[/{value}]?access_token={token}. The
// caller bounds each call with its context; the engine applies its
// per-action timeout before calling Send.
//
// Thread safety: the client is stateless apart from the shared
// http.Client and safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     Logger
}

// New creates a gateway client from configuration.
//
// Parameters:
//   - cfg: Gateway settings (base URL, access token)
//   - logger: Optional logger (nil for silent operation)
func New(cfg config.GatewayConfig, logger Logger) *Client {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
		logger: logger,
	}
}

// Send issues one command to one device.
//
// Extra args become additional path segments (command values). Errors
// are typed: ErrCommandFailed for non-2xx responses, ErrTimeout when
// the deadline expires, ErrUnavailable for transport failures.
func (c *Client) Send(ctx context.Context, deviceID, command string, args ...string) error {
	segments := []string{c.baseURL, "devices", url.PathEscape(deviceID), url.PathEscape(command)}
	for _, arg := range args {
		segments = append(segments, url.PathEscape(arg))
	}
	endpoint := strings.Join(segments, "/") + "?access_token=" + url.QueryEscape(c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: building request: %w", ErrUnavailable, err)
	}

	c.logger.Debug("sending device command", "device", deviceID, "command", command, "args", args)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s %s", ErrTimeout, deviceID, command)
		}
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	// Drain body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("device command rejected", "device", deviceID, "command", command, "status", resp.StatusCode)
		return fmt.Errorf("%w: HTTP %d for %s %s", ErrCommandFailed, resp.StatusCode, deviceID, command)
	}
	return nil
}

// ─── Convenience Commands ───────────────────────────────────────────────────

// On switches a device on.
func (c *Client) On(ctx context.Context, deviceID string) error {
	return c.Send(ctx, deviceID, "on")
}

// Off switches a device off.
func (c *Client) Off(ctx context.Context, deviceID string) error {
	return c.Send(ctx, deviceID, "off")
}

// SetLevel sets a dimmer level, clamped to 0-100.
func (c *Client) SetLevel(ctx context.Context, deviceID string, level int) error {
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	return c.Send(ctx, deviceID, "setLevel", strconv.Itoa(level))
}

// Lock locks a lock.
func (c *Client) Lock(ctx context.Context, deviceID string) error {
	return c.Send(ctx, deviceID, "lock")
}

// Unlock unlocks a lock.
func (c *Client) Unlock(ctx context.Context, deviceID string) error {
	return c.Send(ctx, deviceID, "unlock")
}

// SetHeatingSetpoint sets a thermostat's heating setpoint.
// Values are formatted with one decimal, the hub's expected precision.
func (c *Client) SetHeatingSetpoint(ctx context.Context, deviceID string, setpoint float64) error {
	return c.Send(ctx, deviceID, "setHeatingSetpoint", formatSetpoint(setpoint))
}

// SetCoolingSetpoint sets a thermostat's cooling setpoint.
func (c *Client) SetCoolingSetpoint(ctx context.Context, deviceID string, setpoint float64) error {
	return c.Send(ctx, deviceID, "setCoolingSetpoint", formatSetpoint(setpoint))
}

// SetThermostatMode sets a thermostat's operating mode (heat, cool,
// auto, off).
func (c *Client) SetThermostatMode(ctx context.Context, deviceID, mode string) error {
	return c.Send(ctx, deviceID, "setThermostatMode", mode)
}

func formatSetpoint(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
