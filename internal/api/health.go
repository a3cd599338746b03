package api

import (
	"context"
	"net/http"
	"time"
)

// healthCheckTimeout bounds each component probe.
const healthCheckTimeout = 3 * time.Second

// handleHealth reports per-component health. The endpoint itself is
// unauthenticated so supervisors and load balancers can poll it.
//
// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	components := map[string]string{
		"feed":     componentStatus(ctx, s.feedHealth),
		"database": componentStatus(ctx, s.dbHealth),
		"influxdb": componentStatus(ctx, s.influxHealth),
	}

	status := "ok"
	// Telemetry being down degrades the hub; the feed or database being
	// down means it cannot do its job.
	if components["feed"] == "down" || components["database"] == "down" {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":      status,
		"version":     s.version,
		"components":  components,
		"subscribers": s.hub.ClientCount(),
	})
}

// componentStatus probes one component. A nil checker means the
// component is not configured.
func componentStatus(ctx context.Context, c HealthChecker) string {
	if c == nil {
		return "disabled"
	}
	if err := c.HealthCheck(ctx); err != nil {
		return "down"
	}
	return "ok"
}
