package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/gomarketbot/internal/cache/redis"
	"github.com/alanyoungcy/gomarketbot/internal/domain"
	"github.com/alanyoungcy/gomarketbot/internal/notify"
	"github.com/alanyoungcy/gomarketbot/internal/server"
	"github.com/alanyoungcy/gomarketbot/internal/server/handler"
	"github.com/alanyoungcy/gomarketbot/internal/server/ws"
)

// shutdownTimeout bounds the graceful HTTP drain on shutdown.
const shutdownTimeout = 5 * time.Second

// ServerMode starts the alert dispatcher, the pair monitors from the
// configuration, the websocket hub when Redis is enabled, and the HTTP API
// server. It blocks until the context is cancelled, then drains in-flight
// requests and queued alerts before returning.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	started := time.Now().UTC()

	a.startDispatcher(ctx, g, deps)
	a.startConfiguredPairs(ctx, deps)

	// Websocket hub, fed by the Redis alert bus.
	var hub *ws.Hub
	if deps.Bus != nil {
		hub = ws.NewHub(deps.Bus, ws.Config{
			Channel:   redis.AlertsChannel,
			StartedAt: started,
		}, a.logger)
		g.Go(func() error {
			return hub.Run(ctx)
		})
	}

	var pinger handler.Pinger
	if deps.Redis != nil {
		pinger = deps.Redis
	}
	handlers := server.Handlers{
		Health: handler.NewHealthHandler(deps.ArbSvc, pinger, handler.HealthConfig{
			Version:   a.version,
			StartedAt: started,
		}, a.logger),
		Market:   handler.NewMarketHandler(deps.MarketSvc, a.logger),
		Monitors: handler.NewMonitorHandler(deps.ArbSvc, a.logger),
	}
	if deps.Bus != nil {
		handlers.Alerts = handler.NewAlertsHandler(deps.Bus, a.logger)
	}

	srv := server.NewServer(server.Config{
		Host:         a.cfg.Server.Host,
		Port:         a.cfg.Server.Port,
		CORSOrigins:  a.cfg.Server.CORSOrigins,
		ReadTimeout:  a.cfg.Server.ReadTimeout.Duration,
		WriteTimeout: a.cfg.Server.WriteTimeout.Duration,
	}, handlers, hub, a.logger)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutCtx)

		// Shutdown has joined the in-flight handlers, so nothing can start
		// a monitor anymore. Stop the producers, then close the queue so
		// the dispatcher drains it and exits.
		deps.ArbSvc.StopAll(ctx)
		close(deps.Alerts)
		return err
	})

	return g.Wait()
}

// WatchMode runs the configured pair monitors headless: no HTTP API, alerts
// go to the operator notification channels and, when Redis is enabled, the
// alert bus.
func (a *App) WatchMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting watch mode")

	if len(a.cfg.Monitor.Pairs) == 0 {
		return fmt.Errorf("app: watch mode requires at least one monitor.pairs entry")
	}

	g, ctx := errgroup.WithContext(ctx)

	a.startDispatcher(ctx, g, deps)
	a.startConfiguredPairs(ctx, deps)

	g.Go(func() error {
		<-ctx.Done()
		deps.ArbSvc.StopAll(ctx)
		close(deps.Alerts)
		return ctx.Err()
	})

	return g.Wait()
}

// startDispatcher adds the alert dispatcher goroutine to the group. The
// dispatcher ignores group cancellation; it exits when the alert queue is
// closed after every monitor has been joined, so alerts queued at shutdown
// are still delivered.
func (a *App) startDispatcher(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	dispatcher := notify.NewDispatcher(notify.DispatcherConfig{
		Alerts:   deps.Alerts,
		Notifier: deps.Notifier,
		Bus:      deps.Bus,
		Logger:   a.logger,
	})
	runCtx := context.WithoutCancel(ctx)
	g.Go(func() error {
		return dispatcher.Run(runCtx)
	})
}

// startConfiguredPairs starts one monitor per monitor.pairs entry. A pair
// that fails validation is logged and skipped; the remaining pairs still
// start.
func (a *App) startConfiguredPairs(ctx context.Context, deps *Dependencies) {
	for i, p := range a.cfg.Monitor.Pairs {
		spec := domain.MonitorSpec{
			ID:           p.ID,
			LegA:         configLeg(p.SymbolA, p.ExchangeA, p.MarketTypeA),
			LegB:         configLeg(p.SymbolB, p.ExchangeB, p.MarketTypeB),
			ThresholdPct: p.ThresholdPct,
		}
		started, err := deps.ArbSvc.StartMonitor(ctx, spec)
		if err != nil {
			a.logger.WarnContext(ctx, "configured pair not started",
				slog.Int("pair", i),
				slog.String("error", err.Error()),
			)
			continue
		}
		a.logger.InfoContext(ctx, "configured pair started",
			slog.Int("pair", i),
			slog.String("monitor_id", started.ID),
		)
	}
}

// configLeg builds a leg from config fields. An empty market type means spot;
// anything else is validated downstream during spec normalization.
func configLeg(symbol, exchange, marketType string) domain.Leg {
	mt := domain.MarketTypeSpot
	if s := strings.TrimSpace(marketType); s != "" {
		mt = domain.MarketType(s)
	}
	return domain.Leg{Symbol: symbol, Exchange: exchange, MarketType: mt}
}
