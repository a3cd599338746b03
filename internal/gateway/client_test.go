package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/foyerlabs/foyer-core/internal/infrastructure/config"
)

// recordingServer captures the paths and tokens of received commands.
type recordingServer struct {
	mu     sync.Mutex
	paths  []string
	tokens []string
	status int
	delay  time.Duration
	server *httptest.Server
}

func newRecordingServer(t *testing.T) *recordingServer {
	t.Helper()
	rs := &recordingServer{status: http.StatusOK}
	rs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.mu.Lock()
		rs.paths = append(rs.paths, r.URL.Path)
		rs.tokens = append(rs.tokens, r.URL.Query().Get("access_token"))
		status := rs.status
		delay := rs.delay
		rs.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(rs.server.Close)
	return rs
}

func (rs *recordingServer) lastPath(t *testing.T) string {
	t.Helper()
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if len(rs.paths) == 0 {
		t.Fatal("no commands received")
	}
	return rs.paths[len(rs.paths)-1]
}

func newTestClient(rs *recordingServer) *Client {
	return New(config.GatewayConfig{
		BaseURL: rs.server.URL,
		Token:   "secret-token",
	}, nil)
}

func TestClient_Send(t *testing.T) {
	rs := newRecordingServer(t)
	c := newTestClient(rs)

	if err := c.Send(context.Background(), "7", "on"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if got := rs.lastPath(t); got != "/devices/7/on" {
		t.Errorf("path = %q, want /devices/7/on", got)
	}
	rs.mu.Lock()
	token := rs.tokens[0]
	rs.mu.Unlock()
	if token != "secret-token" {
		t.Errorf("access_token = %q, want secret-token", token)
	}
}

func TestClient_SendWithValue(t *testing.T) {
	rs := newRecordingServer(t)
	c := newTestClient(rs)

	if err := c.Send(context.Background(), "7", "setLevel", "80"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got := rs.lastPath(t); got != "/devices/7/setLevel/80" {
		t.Errorf("path = %q, want /devices/7/setLevel/80", got)
	}
}

func TestClient_CommandFailed(t *testing.T) {
	rs := newRecordingServer(t)
	rs.status = http.StatusInternalServerError
	c := newTestClient(rs)

	err := c.Send(context.Background(), "7", "on")
	if !errors.Is(err, ErrCommandFailed) {
		t.Errorf("Send() error = %v, want ErrCommandFailed", err)
	}
}

func TestClient_Unavailable(t *testing.T) {
	rs := newRecordingServer(t)
	c := newTestClient(rs)
	rs.server.Close()

	err := c.Send(context.Background(), "7", "on")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Send() error = %v, want ErrUnavailable", err)
	}
}

func TestClient_Timeout(t *testing.T) {
	rs := newRecordingServer(t)
	rs.delay = 200 * time.Millisecond
	c := newTestClient(rs)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.Send(ctx, "7", "on")
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Send() error = %v, want ErrTimeout", err)
	}
}

func TestClient_SetLevelClamps(t *testing.T) {
	tests := []struct {
		name  string
		level int
		want  string
	}{
		{"in range", 80, "/devices/7/setLevel/80"},
		{"above range", 150, "/devices/7/setLevel/100"},
		{"below range", -10, "/devices/7/setLevel/0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := newRecordingServer(t)
			c := newTestClient(rs)

			if err := c.SetLevel(context.Background(), "7", tt.level); err != nil {
				t.Fatalf("SetLevel() error = %v", err)
			}
			if got := rs.lastPath(t); got != tt.want {
				t.Errorf("path = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClient_Helpers(t *testing.T) {
	rs := newRecordingServer(t)
	c := newTestClient(rs)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		want string
	}{
		{"On", func() error { return c.On(ctx, "7") }, "/devices/7/on"},
		{"Off", func() error { return c.Off(ctx, "7") }, "/devices/7/off"},
		{"Lock", func() error { return c.Lock(ctx, "21") }, "/devices/21/lock"},
		{"Unlock", func() error { return c.Unlock(ctx, "21") }, "/devices/21/unlock"},
		{"SetHeatingSetpoint", func() error { return c.SetHeatingSetpoint(ctx, "142", 20.5) }, "/devices/142/setHeatingSetpoint/20.5"},
		{"SetHeatingSetpoint whole number", func() error { return c.SetHeatingSetpoint(ctx, "142", 21) }, "/devices/142/setHeatingSetpoint/21.0"},
		{"SetCoolingSetpoint", func() error { return c.SetCoolingSetpoint(ctx, "142", 24.0) }, "/devices/142/setCoolingSetpoint/24.0"},
		{"SetThermostatMode", func() error { return c.SetThermostatMode(ctx, "142", "heat") }, "/devices/142/setThermostatMode/heat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); err != nil {
				t.Fatalf("%s error = %v", tt.name, err)
			}
			if got := rs.lastPath(t); got != tt.want {
				t.Errorf("path = %q, want %q", got, tt.want)
			}
		})
	}
}
