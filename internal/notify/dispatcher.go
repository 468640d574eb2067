package notify

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/alanyoungcy/gomarketbot/internal/domain"
)

const alertTitle = "Arbitrage opportunity"

// Dispatcher drains the alert queue fed by running monitors and fans each
// alert out to the configured delivery paths: operator senders via the
// Notifier and, when Redis is enabled, the alert bus that feeds the
// websocket hub and external consumers.
type Dispatcher struct {
	alerts   <-chan domain.Alert
	notifier *Notifier
	bus      domain.AlertBus
	logger   *slog.Logger
}

// DispatcherConfig wires a Dispatcher. Notifier and Bus are both optional;
// a Dispatcher with neither still logs every alert.
type DispatcherConfig struct {
	Alerts   <-chan domain.Alert
	Notifier *Notifier       // nil when operator notifications are disabled
	Bus      domain.AlertBus // nil when Redis is disabled
	Logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher for the given alert queue.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	return &Dispatcher{
		alerts:   cfg.Alerts,
		notifier: cfg.Notifier,
		bus:      cfg.Bus,
		logger:   cfg.Logger.With(slog.String("component", "dispatcher")),
	}
}

// Run consumes alerts until ctx is cancelled or the queue is closed. Alerts
// still queued at cancellation are dropped and counted.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			if pending := len(d.alerts); pending > 0 {
				d.logger.Warn("alerts dropped at shutdown", slog.Int("count", pending))
			}
			return ctx.Err()
		case alert, ok := <-d.alerts:
			if !ok {
				return nil
			}
			d.deliver(ctx, alert)
		}
	}
}

// deliver pushes one alert to every configured path. Delivery failures are
// logged, never propagated: a dead webhook must not stall the queue.
func (d *Dispatcher) deliver(ctx context.Context, alert domain.Alert) {
	d.logger.InfoContext(ctx, "arbitrage alert",
		slog.String("monitor_id", alert.MonitorID),
		slog.Float64("spread_pct", alert.Event.SpreadPct),
		slog.String("direction", string(alert.Event.Direction)),
	)

	if d.bus != nil {
		if err := d.bus.PublishAlert(ctx, alert); err != nil {
			d.logger.WarnContext(ctx, "alert bus publish failed",
				slog.String("monitor_id", alert.MonitorID),
				slog.String("error", err.Error()),
			)
		}
	}

	if d.notifier != nil {
		if err := d.notifier.Notify(ctx, alertTitle, FormatAlert(alert)); err != nil {
			d.logger.WarnContext(ctx, "operator notification failed",
				slog.String("monitor_id", alert.MonitorID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// FormatAlert renders the operator-facing message body for a fired alert.
// The buy and sell venues are oriented from the event direction: the rich
// leg is sold, the cheap leg is bought.
func FormatAlert(alert domain.Alert) string {
	buyLeg, sellLeg := alert.Spec.LegA, alert.Spec.LegB
	buyPrice, sellPrice := alert.Event.LegAPrice, alert.Event.LegBPrice
	if alert.Event.Direction == domain.DirectionAOverB {
		buyLeg, sellLeg = alert.Spec.LegB, alert.Spec.LegA
		buyPrice, sellPrice = alert.Event.LegBPrice, alert.Event.LegAPrice
	}

	return fmt.Sprintf(
		"Pair: %s vs %s\nBuy on: %s @ %.8f\nSell on: %s @ %.8f\nSpread: %.2f%% (threshold %.2f%%)\nTime: %s",
		alert.Spec.LegA, alert.Spec.LegB,
		buyLeg.Exchange, buyPrice,
		sellLeg.Exchange, sellPrice,
		math.Abs(alert.Event.SpreadPct), alert.Spec.ThresholdPct,
		alert.Event.Timestamp.UTC().Format(time.RFC3339),
	)
}
