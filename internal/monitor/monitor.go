// Package monitor implements the per-pair arbitrage tick loop and the
// registry that owns every running monitor task.
package monitor

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/alanyoungcy/gomarketbot/internal/domain"
	"github.com/alanyoungcy/gomarketbot/internal/history"
	"github.com/google/uuid"
)

// Config bundles everything one monitor needs. Interval and ResetFactor are
// policy supplied by the caller; the monitor applies them without defaults.
type Config struct {
	Spec        domain.MonitorSpec
	Interval    time.Duration
	ResetFactor float64
	Source      domain.TickerSource
	History     *history.Store[domain.ArbitrageEvent]
	Alerts      chan<- domain.Alert
	Logger      *slog.Logger
}

// Monitor polls both legs of one pair on a fixed period, computes the spread
// and emits an alert on each armed transition. All mutable state is owned by
// the tick loop; Status/Stats take a read lock so HTTP handlers can observe
// a running monitor without racing it.
type Monitor struct {
	spec        domain.MonitorSpec
	interval    time.Duration
	resetFactor float64
	src         domain.TickerSource
	hist        *history.Store[domain.ArbitrageEvent]
	alerts      chan<- domain.Alert
	logger      *slog.Logger

	mu          sync.RWMutex
	armed       bool
	lastSpread  float64
	ticks       int
	fetchErrors int
	stats       domain.ArbStats
	lastSeenA   time.Time
	lastSeenB   time.Time
}

// New creates a monitor for the given spec. The spec must already be
// normalized and the alert channel is never closed by the monitor.
func New(cfg Config) *Monitor {
	return &Monitor{
		spec:        cfg.Spec,
		interval:    cfg.Interval,
		resetFactor: cfg.ResetFactor,
		src:         cfg.Source,
		hist:        cfg.History,
		alerts:      cfg.Alerts,
		logger: cfg.Logger.With(
			slog.String("component", "arb_monitor"),
			slog.String("monitor_id", cfg.Spec.ID),
		),
	}
}

// Run executes the tick loop until ctx is cancelled. The first evaluation
// happens immediately; afterwards one per interval. History entries owned by
// this monitor are destroyed on exit.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("monitor started",
		slog.String("leg_a", m.spec.LegA.String()),
		slog.String("leg_b", m.spec.LegB.String()),
		slog.Float64("threshold_pct", m.spec.ThresholdPct),
	)
	defer m.logger.Info("monitor stopped")
	defer m.hist.Clear(m.spec.ID)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

// tick performs one poll of both legs. A fetch failure on either leg skips
// the whole tick: no spread update, no arming, no alert.
func (m *Monitor) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	a, okA := m.fetchLeg(ctx, m.spec.LegA, &m.lastSeenA)
	b, okB := m.fetchLeg(ctx, m.spec.LegB, &m.lastSeenB)
	if !okA || !okB {
		return
	}

	sp := ComputeSpread(a, b)

	m.mu.Lock()
	m.ticks++
	m.lastSpread = sp.Pct

	abs := math.Abs(sp.Pct)
	var fired *domain.ArbitrageEvent
	switch {
	case !m.armed && abs >= m.spec.ThresholdPct:
		m.armed = true
		ev := domain.ArbitrageEvent{
			ID:        uuid.New().String(),
			Timestamp: time.Now().UTC(),
			SpreadPct: sp.Pct,
			Direction: sp.Direction,
			LegAPrice: sp.LegAPrice,
			LegBPrice: sp.LegBPrice,
		}
		m.stats = m.stats.Observe(sp.Pct)
		fired = &ev
	case m.armed && abs < m.spec.ThresholdPct*m.resetFactor:
		m.armed = false
	}
	m.mu.Unlock()

	if fired == nil {
		return
	}

	m.hist.Append(m.spec.ID, *fired)
	m.logger.Info("arbitrage threshold crossed",
		slog.Float64("spread_pct", fired.SpreadPct),
		slog.String("direction", string(fired.Direction)),
		slog.Float64("leg_a_price", fired.LegAPrice),
		slog.Float64("leg_b_price", fired.LegBPrice),
	)

	select {
	case m.alerts <- domain.Alert{MonitorID: m.spec.ID, Spec: m.spec, Event: *fired}:
	default:
		// Never stall the tick loop on a slow consumer.
		m.logger.Warn("alert queue full, dropping alert",
			slog.Float64("spread_pct", fired.SpreadPct),
		)
	}
}

// fetchLeg fetches and normalizes one leg. Quotes whose timestamp regresses
// behind the last accepted one for the leg are discarded.
func (m *Monitor) fetchLeg(ctx context.Context, leg domain.Leg, lastSeen *time.Time) (domain.Ticker, bool) {
	t, err := m.src.FetchTicker(ctx, leg.Exchange, leg.Symbol, leg.MarketType)
	if err == nil {
		t, err = domain.NormalizeTicker(t)
	}
	if err != nil {
		m.mu.Lock()
		m.fetchErrors++
		m.mu.Unlock()
		m.logger.Warn("leg fetch failed, skipping tick",
			slog.String("leg", leg.String()),
			slog.String("error", err.Error()),
		)
		return domain.Ticker{}, false
	}

	if !lastSeen.IsZero() && t.ObservedAt.Before(*lastSeen) {
		m.logger.Debug("stale quote discarded",
			slog.String("leg", leg.String()),
			slog.Time("observed_at", t.ObservedAt),
		)
		return domain.Ticker{}, false
	}
	*lastSeen = t.ObservedAt
	return t, true
}

// ID returns the monitor's identifier.
func (m *Monitor) ID() string { return m.spec.ID }

// Spec returns the immutable spec this monitor was started with.
func (m *Monitor) Spec() domain.MonitorSpec { return m.spec }

// Stats returns the running event statistics.
func (m *Monitor) Stats() domain.ArbStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

// Status returns a point-in-time snapshot for status queries.
func (m *Monitor) Status() domain.MonitorStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return domain.MonitorStatus{
		Spec:          m.spec,
		Armed:         m.armed,
		LastSpreadPct: m.lastSpread,
		Ticks:         m.ticks,
		FetchErrors:   m.fetchErrors,
		Stats:         m.stats,
	}
}

// Events returns the monitor's retained events, oldest first.
func (m *Monitor) Events() []domain.ArbitrageEvent {
	return m.hist.List(m.spec.ID)
}
