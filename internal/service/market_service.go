package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/gomarketbot/internal/cbbo"
	"github.com/alanyoungcy/gomarketbot/internal/domain"
)

// MarketService fronts the upstream market-data provider with input
// validation, an optional short-TTL ticker cache, and the consolidated best
// bid/offer view.
type MarketService struct {
	source    domain.MarketData
	cache     domain.TickerCache // nil disables caching
	agg       *cbbo.Aggregator
	exchanges []string
	logger    *slog.Logger
}

// NewMarketService creates a MarketService. cache may be nil. The
// defaultExchanges set answers CBBO queries that do not name their own
// venues.
func NewMarketService(
	source domain.MarketData,
	cache domain.TickerCache,
	defaultExchanges []string,
	cbboCfg cbbo.Config,
	logger *slog.Logger,
) *MarketService {
	s := &MarketService{
		source:    source,
		cache:     cache,
		exchanges: append([]string(nil), defaultExchanges...),
		logger:    logger,
	}
	// The aggregator reads through the service itself so that concurrent
	// CBBO fetches share the ticker cache.
	s.agg = cbbo.NewAggregator(s, cbboCfg, logger)
	return s
}

// ListSymbols returns the instruments a venue serves for one market type.
func (s *MarketService) ListSymbols(ctx context.Context, exchange string, marketType domain.MarketType) ([]string, error) {
	exchange = strings.ToLower(strings.TrimSpace(exchange))
	if exchange == "" {
		return nil, fmt.Errorf("market_service: empty exchange: %w", domain.ErrInvalidInput)
	}
	mt, err := domain.ParseMarketType(string(marketType))
	if err != nil {
		return nil, fmt.Errorf("market_service: %w", err)
	}

	symbols, err := s.source.ListSymbols(ctx, exchange, mt)
	if err != nil {
		return nil, fmt.Errorf("market_service: list symbols %s/%s: %w", exchange, mt, err)
	}
	return symbols, nil
}

// FetchTicker returns a normalized ticker for one instrument on one venue,
// checking the cache first and falling back to the upstream provider on a
// miss.
func (s *MarketService) FetchTicker(ctx context.Context, exchange, symbol string, marketType domain.MarketType) (domain.Ticker, error) {
	exchange = strings.ToLower(strings.TrimSpace(exchange))
	symbol = strings.ToLower(strings.TrimSpace(symbol))
	if exchange == "" || symbol == "" {
		return domain.Ticker{}, fmt.Errorf("market_service: empty exchange or symbol: %w", domain.ErrInvalidInput)
	}
	mt, err := domain.ParseMarketType(string(marketType))
	if err != nil {
		return domain.Ticker{}, fmt.Errorf("market_service: %w", err)
	}

	// Try the cache first.
	if s.cache != nil {
		if t, err := s.cache.Get(ctx, exchange, symbol, mt); err == nil {
			return t, nil
		}
		// Cache miss or error -- fall through to the upstream fetch.
	}

	t, err := s.source.FetchTicker(ctx, exchange, symbol, mt)
	if err != nil {
		return domain.Ticker{}, fmt.Errorf("market_service: fetch ticker %s@%s: %w", symbol, exchange, err)
	}
	t, err = domain.NormalizeTicker(t)
	if err != nil {
		return domain.Ticker{}, fmt.Errorf("market_service: fetch ticker %s@%s: %w", symbol, exchange, err)
	}

	// Back-fill cache; log but do not fail on cache write errors.
	if s.cache != nil {
		if cacheErr := s.cache.Set(ctx, t); cacheErr != nil {
			s.logger.WarnContext(ctx, "market_service: cache set failed",
				slog.String("exchange", exchange),
				slog.String("symbol", symbol),
				slog.String("error", cacheErr.Error()),
			)
		}
	}

	return t, nil
}

// GetCBBO computes the consolidated best bid/offer for symbol across the
// given exchanges, falling back to the configured default venue set when
// exchanges is empty.
func (s *MarketService) GetCBBO(ctx context.Context, symbol string, marketType domain.MarketType, exchanges []string) (domain.CBBOSnapshot, error) {
	if len(exchanges) == 0 {
		exchanges = s.exchanges
	}
	snap, err := s.agg.Compute(ctx, symbol, marketType, exchanges)
	if err != nil {
		return domain.CBBOSnapshot{}, fmt.Errorf("market_service: cbbo %s: %w", symbol, err)
	}
	return snap, nil
}

// Compile-time interface check: the service is itself a market-data source,
// which is what lets the CBBO aggregator read through the cache.
var _ domain.MarketData = (*MarketService)(nil)
