package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// defaultRequestTimeout bounds one request when no timeout is configured.
const defaultRequestTimeout = 60 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	requestTimeout := time.Duration(s.cfg.Timeouts.Request) * time.Second
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Health check and WebSocket sit outside the bearer gate; the
	// WebSocket handler checks its token itself (query parameter).
	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		// Mode endpoints
		r.Route("/modes", func(r chi.Router) {
			r.Get("/", s.handleListModes)
			r.Post("/", s.handleCreateMode)
			r.Get("/active", s.handleActiveMode)
			r.Post("/deactivate", s.handleDeactivateModes)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetMode)
				r.Patch("/", s.handleUpdateMode)
				r.Delete("/", s.handleDeleteMode)
				r.Post("/activate", s.handleActivateMode)
				r.Get("/executions", s.handleListModeExecutions)
			})
		})

		// Execution history across all modes
		r.Get("/executions", s.handleListExecutions)

		// Device endpoints
		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Post("/", s.handleCreateDevice)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDevice)
				r.Patch("/", s.handleUpdateDevice)
				r.Delete("/", s.handleDeleteDevice)
				r.Get("/state", s.handleGetDeviceState)
				r.Post("/command", s.handleDeviceCommand)
			})
		})

		// Full live-state snapshot
		r.Get("/state", s.handleStateSnapshot)

		// Climate endpoints
		r.Route("/climate", func(r chi.Router) {
			r.Get("/thermostats", s.handleListThermostats)
			r.Get("/shortcuts", s.handleListShortcuts)

			r.Route("/{id}", func(r chi.Router) {
				r.Post("/setpoint", s.handleSetSetpoint)
				r.Post("/adjust", s.handleAdjustSetpoint)
				r.Post("/shortcut/{name}", s.handleApplyShortcut)
			})
		})
	})

	return r
}
