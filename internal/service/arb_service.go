// Package service composes the domain layers into the operations the HTTP
// handlers and run modes call.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/gomarketbot/internal/domain"
	"github.com/alanyoungcy/gomarketbot/internal/monitor"
)

// ArbConfig holds the monitor parameters shared across all started pairs.
type ArbConfig struct {
	// DefaultThresholdPct fills in for requests that omit a threshold.
	DefaultThresholdPct float64
}

// ArbService manages the lifecycle of arbitrage monitors: request
// validation, defaulting, and delegation to the registry that owns the
// running tasks.
type ArbService struct {
	registry *monitor.Registry
	cfg      ArbConfig
	logger   *slog.Logger
}

// NewArbService creates an ArbService on top of the given registry.
func NewArbService(registry *monitor.Registry, cfg ArbConfig, logger *slog.Logger) *ArbService {
	return &ArbService{
		registry: registry,
		cfg:      cfg,
		logger:   logger,
	}
}

// StartMonitor validates and normalizes spec, applies the default threshold
// when none is given, and spawns the monitor. The returned spec carries the
// canonical identifiers and the effective monitor ID.
func (s *ArbService) StartMonitor(ctx context.Context, spec domain.MonitorSpec) (domain.MonitorSpec, error) {
	if spec.ThresholdPct == 0 {
		spec.ThresholdPct = s.cfg.DefaultThresholdPct
	}

	spec, err := domain.NormalizeMonitorSpec(spec)
	if err != nil {
		return domain.MonitorSpec{}, fmt.Errorf("arb_service: %w", err)
	}

	if _, err := s.registry.Start(spec); err != nil {
		return domain.MonitorSpec{}, fmt.Errorf("arb_service: start monitor: %w", err)
	}

	s.logger.InfoContext(ctx, "arb_service: monitor started",
		slog.String("monitor_id", spec.ID),
		slog.String("leg_a", spec.LegA.String()),
		slog.String("leg_b", spec.LegB.String()),
		slog.Float64("threshold_pct", spec.ThresholdPct),
	)
	return spec, nil
}

// StopMonitor cancels one monitor by ID.
func (s *ArbService) StopMonitor(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("arb_service: empty monitor id: %w", domain.ErrInvalidInput)
	}
	if err := s.registry.Stop(id); err != nil {
		return fmt.Errorf("arb_service: stop monitor: %w", err)
	}
	s.logger.InfoContext(ctx, "arb_service: monitor stopped", slog.String("monitor_id", id))
	return nil
}

// StopAll cancels every live monitor and returns how many were stopped.
func (s *ArbService) StopAll(ctx context.Context) int {
	stopped := s.registry.StopAll()
	if stopped > 0 {
		s.logger.InfoContext(ctx, "arb_service: all monitors stopped", slog.Int("count", stopped))
	}
	return stopped
}

// Stats returns the event statistics for one live monitor.
func (s *ArbService) Stats(id string) (domain.ArbStats, error) {
	stats, err := s.registry.Stats(strings.TrimSpace(id))
	if err != nil {
		return domain.ArbStats{}, fmt.Errorf("arb_service: stats: %w", err)
	}
	return stats, nil
}

// Status returns the point-in-time status for one live monitor.
func (s *ArbService) Status(id string) (domain.MonitorStatus, error) {
	status, err := s.registry.Status(strings.TrimSpace(id))
	if err != nil {
		return domain.MonitorStatus{}, fmt.Errorf("arb_service: status: %w", err)
	}
	return status, nil
}

// Events returns the retained events for one live monitor, oldest first.
func (s *ArbService) Events(id string) ([]domain.ArbitrageEvent, error) {
	events, err := s.registry.Events(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("arb_service: events: %w", err)
	}
	return events, nil
}

// List returns the status of every live monitor, sorted by ID.
func (s *ArbService) List() []domain.MonitorStatus {
	return s.registry.List()
}

// Count returns the number of live monitors.
func (s *ArbService) Count() int {
	return s.registry.Count()
}
