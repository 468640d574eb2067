package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/gomarketbot/internal/server/handler"
	"github.com/alanyoungcy/gomarketbot/internal/server/middleware"
	"github.com/alanyoungcy/gomarketbot/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host         string
	Port         int
	CORSOrigins  []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
// Alerts may be nil when no Redis alert bus is configured; the replay route
// is then not registered.
type Handlers struct {
	Health   *handler.HealthHandler
	Market   *handler.MarketHandler
	Monitors *handler.MonitorHandler
	Alerts   *handler.AlertsHandler
}

// Server is the HTTP + WebSocket API server for the arbitrage monitor.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up the logging and CORS middleware and attaches the WebSocket hub
// when one is provided.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// --- Register routes ---

	// Health check.
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Market data endpoints.
	mux.HandleFunc("GET /api/symbols/{exchange}/{market_type}", handlers.Market.ListSymbols)
	mux.HandleFunc("GET /api/cbbo/{symbol}", handlers.Market.GetCBBO)

	// Monitor lifecycle endpoints.
	mux.HandleFunc("POST /api/monitors", handlers.Monitors.StartMonitor)
	mux.HandleFunc("GET /api/monitors", handlers.Monitors.ListMonitors)
	mux.HandleFunc("GET /api/monitors/{id}/stats", handlers.Monitors.MonitorStats)
	mux.HandleFunc("DELETE /api/monitors/{id}", handlers.Monitors.StopMonitor)
	mux.HandleFunc("DELETE /api/monitors", handlers.Monitors.StopAllMonitors)

	// Alert replay, available only with a Redis-backed bus.
	if handlers.Alerts != nil {
		mux.HandleFunc("GET /api/alerts", handlers.Alerts.ListAlerts)
	}

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain.
	var h http.Handler = mux
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 15 * time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      h,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
