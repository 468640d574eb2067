package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/alanyoungcy/gomarketbot/internal/domain"
	"github.com/alanyoungcy/gomarketbot/internal/history"
)

// RegistryConfig carries the shared dependencies every spawned monitor uses.
type RegistryConfig struct {
	Interval    time.Duration
	ResetFactor float64
	Source      domain.TickerSource
	History     *history.Store[domain.ArbitrageEvent]
	Alerts      chan<- domain.Alert
	Logger      *slog.Logger
}

// handle pairs a running monitor with its cancellation.
type handle struct {
	mon    *Monitor
	cancel context.CancelFunc
	done   chan struct{}
}

// Registry owns every live monitor task, keyed by monitor ID. It is the
// single authority for starting and cancelling monitors; the map is the only
// structure mutated from multiple call sites and is mutex-guarded. The
// registry never reaches into a monitor's internals beyond its exported
// read-locked accessors.
type Registry struct {
	baseCtx context.Context
	cfg     RegistryConfig
	logger  *slog.Logger

	mu       sync.RWMutex
	monitors map[string]*handle
}

// NewRegistry creates an empty registry. ctx bounds the lifetime of every
// monitor the registry starts: monitors are spawned under it rather than
// under the caller's (possibly request-scoped) context, and cancelling it
// stops them all.
func NewRegistry(ctx context.Context, cfg RegistryConfig) *Registry {
	return &Registry{
		baseCtx:  ctx,
		cfg:      cfg,
		logger:   cfg.Logger.With(slog.String("component", "monitor_registry")),
		monitors: make(map[string]*handle),
	}
}

// Start spawns a monitor for spec. The spec must be normalized. Starting an
// ID that is already live fails with ErrAlreadyExists and leaves the existing
// monitor untouched.
func (r *Registry) Start(spec domain.MonitorSpec) (string, error) {
	r.mu.Lock()
	if _, live := r.monitors[spec.ID]; live {
		r.mu.Unlock()
		return "", fmt.Errorf("registry: monitor %q: %w", spec.ID, domain.ErrAlreadyExists)
	}

	runCtx, cancel := context.WithCancel(r.baseCtx)
	h := &handle{
		mon: New(Config{
			Spec:        spec,
			Interval:    r.cfg.Interval,
			ResetFactor: r.cfg.ResetFactor,
			Source:      r.cfg.Source,
			History:     r.cfg.History,
			Alerts:      r.cfg.Alerts,
			Logger:      r.cfg.Logger,
		}),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	r.monitors[spec.ID] = h
	r.mu.Unlock()

	go func() {
		defer close(h.done)
		_ = h.mon.Run(runCtx)

		// Self-remove on natural exit (e.g. process shutdown) so a dead
		// monitor never answers status queries. Guarded so a restarted
		// monitor under the same ID is left alone.
		r.mu.Lock()
		if cur, ok := r.monitors[spec.ID]; ok && cur == h {
			delete(r.monitors, spec.ID)
		}
		r.mu.Unlock()
	}()

	r.logger.Info("monitor registered", slog.String("monitor_id", spec.ID))
	return spec.ID, nil
}

// Stop cancels the monitor with the given ID and waits for its task to exit.
// Cancellation is cooperative: the task exits at its next suspension point
// and no further history or alert mutation happens after that. The wait is
// short because cancelling also aborts any in-flight fetch. Unknown IDs
// report ErrNotFound.
func (r *Registry) Stop(id string) error {
	r.mu.Lock()
	h, ok := r.monitors[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("registry: monitor %q: %w", id, domain.ErrNotFound)
	}
	delete(r.monitors, id)
	r.mu.Unlock()

	h.cancel()
	<-h.done
	r.logger.Info("monitor stopped", slog.String("monitor_id", id))
	return nil
}

// StopAll cancels every live monitor, waits for their tasks to exit, and
// returns how many were stopped. After it returns no monitor goroutine is
// left that could touch history or the alert queue. Idempotent: with nothing
// running it returns 0.
func (r *Registry) StopAll() int {
	r.mu.Lock()
	stopped := make([]*handle, 0, len(r.monitors))
	for id, h := range r.monitors {
		stopped = append(stopped, h)
		delete(r.monitors, id)
	}
	r.mu.Unlock()

	for _, h := range stopped {
		h.cancel()
	}
	for _, h := range stopped {
		<-h.done
	}
	if len(stopped) > 0 {
		r.logger.Info("all monitors stopped", slog.Int("count", len(stopped)))
	}
	return len(stopped)
}

// Stats returns the event statistics for one live monitor.
func (r *Registry) Stats(id string) (domain.ArbStats, error) {
	r.mu.RLock()
	h, ok := r.monitors[id]
	r.mu.RUnlock()
	if !ok {
		return domain.ArbStats{}, fmt.Errorf("registry: monitor %q: %w", id, domain.ErrNotFound)
	}
	return h.mon.Stats(), nil
}

// Status returns the point-in-time status for one live monitor.
func (r *Registry) Status(id string) (domain.MonitorStatus, error) {
	r.mu.RLock()
	h, ok := r.monitors[id]
	r.mu.RUnlock()
	if !ok {
		return domain.MonitorStatus{}, fmt.Errorf("registry: monitor %q: %w", id, domain.ErrNotFound)
	}
	return h.mon.Status(), nil
}

// Events returns the retained events for one live monitor, oldest first.
func (r *Registry) Events(id string) ([]domain.ArbitrageEvent, error) {
	r.mu.RLock()
	h, ok := r.monitors[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("registry: monitor %q: %w", id, domain.ErrNotFound)
	}
	return h.mon.Events(), nil
}

// List returns the status of every live monitor, sorted by ID.
func (r *Registry) List() []domain.MonitorStatus {
	r.mu.RLock()
	handles := make([]*handle, 0, len(r.monitors))
	for _, h := range r.monitors {
		handles = append(handles, h)
	}
	r.mu.RUnlock()

	out := make([]domain.MonitorStatus, 0, len(handles))
	for _, h := range handles {
		out = append(out, h.mon.Status())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Spec.ID < out[j].Spec.ID })
	return out
}

// Count returns the number of live monitors.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.monitors)
}
