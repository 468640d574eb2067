package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/gomarketbot/internal/cache/redis"
	"github.com/alanyoungcy/gomarketbot/internal/cbbo"
	"github.com/alanyoungcy/gomarketbot/internal/config"
	"github.com/alanyoungcy/gomarketbot/internal/domain"
	"github.com/alanyoungcy/gomarketbot/internal/history"
	"github.com/alanyoungcy/gomarketbot/internal/monitor"
	"github.com/alanyoungcy/gomarketbot/internal/notify"
	"github.com/alanyoungcy/gomarketbot/internal/platform/gomarket"
	"github.com/alanyoungcy/gomarketbot/internal/service"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// Market data
	Market *gomarket.Client

	// Redis-backed components, nil when redis.enabled is false
	Redis *redis.Client
	Cache domain.TickerCache
	Bus   domain.AlertBus

	// Monitoring pipeline
	Alerts   chan domain.Alert
	History  *history.Store[domain.ArbitrageEvent]
	Registry *monitor.Registry

	// Services
	MarketSvc *service.MarketService
	ArbSvc    *service.ArbService

	// Notifications, nil when notify.enabled is false
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources. ctx bounds the lifetime
// of every monitor the registry will run.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- GoMarket market data ---
	deps.Market = gomarket.NewClient(gomarket.ClientConfig{
		BaseURL:      cfg.GoMarket.BaseURL,
		Timeout:      cfg.GoMarket.Timeout.Duration,
		MockFallback: cfg.GoMarket.MockFallback,
		MockOnly:     cfg.GoMarket.MockOnly,
	}, logger)

	// --- Redis (ticker cache + alert bus, optional) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Redis = redisClient
		deps.Cache = redis.NewTickerCache(redisClient, cfg.Redis.TickerTTL.Duration)
		deps.Bus = redis.NewAlertBus(redisClient, cfg.Redis.StreamMaxLen)
	}

	// --- Services ---
	deps.MarketSvc = service.NewMarketService(
		deps.Market,
		deps.Cache,
		cfg.Monitor.Exchanges,
		cbbo.Config{FetchTimeout: cfg.CBBO.FetchTimeout.Duration},
		logger,
	)

	// --- Monitoring pipeline ---
	// Monitors read tickers through the market service so they share the
	// ticker cache with CBBO queries.
	deps.Alerts = make(chan domain.Alert, cfg.Monitor.AlertQueueSize)
	deps.History = history.NewStore[domain.ArbitrageEvent](cfg.Monitor.HistoryLimit)
	deps.Registry = monitor.NewRegistry(ctx, monitor.RegistryConfig{
		Interval:    cfg.Monitor.UpdateInterval.Duration,
		ResetFactor: cfg.Monitor.ResetFactor,
		Source:      deps.MarketSvc,
		History:     deps.History,
		Alerts:      deps.Alerts,
		Logger:      logger,
	})
	deps.ArbSvc = service.NewArbService(deps.Registry, service.ArbConfig{
		DefaultThresholdPct: cfg.Monitor.DefaultThresholdPct,
	}, logger)

	// --- Notifications ---
	if cfg.Notify.Enabled {
		var senders []notify.Sender
		if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
			senders = append(senders, notify.NewTelegramSender(
				cfg.Notify.TelegramToken,
				cfg.Notify.TelegramChatID,
			))
		}
		if cfg.Notify.DiscordWebhookURL != "" {
			senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
		}
		deps.Notifier = notify.NewNotifier(senders, logger)
	}

	return deps, cleanup, nil
}
