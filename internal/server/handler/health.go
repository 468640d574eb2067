package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// MonitorCounter reports how many monitors are currently live. Declared
// locally so the handler package does not depend on the concrete service
// implementation.
type MonitorCounter interface {
	Count() int
}

// Pinger checks connectivity to a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	monitors  MonitorCounter
	redis     Pinger // nil when Redis is disabled
	version   string
	startedAt time.Time
	logger    *slog.Logger
}

// HealthConfig carries the static metadata reported by the health endpoint.
type HealthConfig struct {
	Version   string
	StartedAt time.Time
}

// NewHealthHandler creates a HealthHandler. redis may be nil when no Redis
// backend is configured.
func NewHealthHandler(monitors MonitorCounter, redis Pinger, cfg HealthConfig, logger *slog.Logger) *HealthHandler {
	startedAt := cfg.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}
	return &HealthHandler{
		monitors:  monitors,
		redis:     redis,
		version:   cfg.Version,
		startedAt: startedAt,
		logger:    logger,
	}
}

// HealthCheck reports process liveness, uptime, and backend reachability.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "ok"

	redisState := "disabled"
	if h.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.redis.Ping(ctx); err != nil {
			h.logger.WarnContext(r.Context(), "handler: redis ping failed",
				slog.String("error", err.Error()),
			)
			redisState = "unavailable"
			status = "degraded"
		} else {
			redisState = "ok"
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":          status,
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
		"version":         h.version,
		"uptime_seconds":  int64(time.Since(h.startedAt).Seconds()),
		"active_monitors": h.monitors.Count(),
		"redis":           redisState,
	})
}
