// Package api provides the HTTP REST API and WebSocket server for Foyer Core.
//
// It exposes mode, device, climate, and live-state operations to user
// interfaces (wall panels, mobile apps) over chi, and upgrades /ws
// connections into the subscriber hub for real-time state fan-out.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/foyerlabs/foyer-core/internal/climate"
	"github.com/foyerlabs/foyer-core/internal/device"
	"github.com/foyerlabs/foyer-core/internal/gateway"
	"github.com/foyerlabs/foyer-core/internal/hub"
	"github.com/foyerlabs/foyer-core/internal/infrastructure/config"
	"github.com/foyerlabs/foyer-core/internal/infrastructure/logging"
	"github.com/foyerlabs/foyer-core/internal/mode"
	"github.com/foyerlabs/foyer-core/internal/state"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// HealthChecker reports one component's health. Satisfied by the MQTT,
// database, and InfluxDB clients.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.ServerConfig
	Auth    config.AuthConfig
	Logger  *logging.Logger
	Devices *device.Registry
	Modes   *mode.Registry
	Engine  *mode.Engine
	Climate *climate.Service
	Gateway gateway.Commander
	States  *state.Store
	Hub     *hub.Hub

	// Health sources; nil entries report as disabled rather than down.
	Feed   HealthChecker
	DB     HealthChecker
	Influx HealthChecker

	Version string
}

// Server is the HTTP API server for Foyer Core.
//
// It manages the HTTP listener, routes, middleware, and the WebSocket
// upgrade path. The server is created with New() and started with Start().
type Server struct {
	cfg     config.ServerConfig
	auth    config.AuthConfig
	logger  *logging.Logger
	devices *device.Registry
	modes   *mode.Registry
	engine  *mode.Engine
	climate *climate.Service
	gateway gateway.Commander
	states  *state.Store
	hub     *hub.Hub

	feedHealth   HealthChecker
	dbHealth     HealthChecker
	influxHealth HealthChecker

	version string
	server  *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Devices == nil {
		return nil, fmt.Errorf("device registry is required")
	}
	if deps.Modes == nil || deps.Engine == nil {
		return nil, fmt.Errorf("mode registry and engine are required")
	}
	if deps.States == nil {
		return nil, fmt.Errorf("state store is required")
	}
	if deps.Hub == nil {
		return nil, fmt.Errorf("subscriber hub is required")
	}

	return &Server{
		cfg:          deps.Config,
		auth:         deps.Auth,
		logger:       deps.Logger,
		devices:      deps.Devices,
		modes:        deps.Modes,
		engine:       deps.Engine,
		climate:      deps.Climate,
		gateway:      deps.Gateway,
		states:       deps.States,
		hub:          deps.Hub,
		feedHealth:   deps.Feed,
		dbHealth:     deps.DB,
		influxHealth: deps.Influx,
		version:      deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It builds the router and launches the HTTP listener in a background
// goroutine. The server is stopped with Close().
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
