// Package cbbo computes consolidated best bid/offer snapshots across a
// caller-supplied set of exchange venues.
package cbbo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/alanyoungcy/gomarketbot/internal/domain"
)

// Config configures the aggregator.
type Config struct {
	// FetchTimeout bounds each per-exchange fetch individually.
	FetchTimeout time.Duration
}

// Aggregator fans out one ticker fetch per requested exchange and folds the
// successes into a CBBOSnapshot. Unreachable exchanges are reported, never
// fatal; the request fails only when no exchange answers at all.
type Aggregator struct {
	src     domain.TickerSource
	timeout time.Duration
	logger  *slog.Logger
}

// NewAggregator creates an aggregator reading quotes from src.
func NewAggregator(src domain.TickerSource, cfg Config, logger *slog.Logger) *Aggregator {
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Aggregator{
		src:     src,
		timeout: timeout,
		logger:  logger.With(slog.String("component", "cbbo")),
	}
}

type fetchResult struct {
	ticker domain.Ticker
	err    error
}

// Compute fetches symbol concurrently from every exchange in the set, each
// fetch under its own timeout, and returns the consolidated view. Exchanges
// that fail or time out land in FailedExchanges. With zero successes the
// call fails with ErrNoData.
func (a *Aggregator) Compute(ctx context.Context, symbol string, marketType domain.MarketType, exchanges []string) (domain.CBBOSnapshot, error) {
	symbol = strings.ToLower(strings.TrimSpace(symbol))
	if symbol == "" {
		return domain.CBBOSnapshot{}, fmt.Errorf("cbbo: empty symbol: %w", domain.ErrInvalidInput)
	}
	exchanges = dedupe(exchanges)
	if len(exchanges) == 0 {
		return domain.CBBOSnapshot{}, fmt.Errorf("cbbo: empty exchange set: %w", domain.ErrInvalidInput)
	}

	results := make([]fetchResult, len(exchanges))
	var wg sync.WaitGroup
	for i, ex := range exchanges {
		wg.Add(1)
		go func(i int, ex string) {
			defer wg.Done()
			fctx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			t, err := a.src.FetchTicker(fctx, ex, symbol, marketType)
			if err == nil {
				t, err = domain.NormalizeTicker(t)
			}
			results[i] = fetchResult{ticker: t, err: err}
		}(i, ex)
	}
	wg.Wait()

	snap := domain.CBBOSnapshot{
		Symbol:     symbol,
		MarketType: marketType,
		Timestamp:  time.Now().UTC(),
	}
	for i, res := range results {
		ex := exchanges[i]
		if res.err != nil {
			snap.FailedExchanges = append(snap.FailedExchanges, ex)
			a.logger.Warn("exchange excluded from cbbo",
				slog.String("exchange", ex),
				slog.String("symbol", symbol),
				slog.String("error", res.err.Error()),
			)
			continue
		}
		snap.ConsideredExchanges = append(snap.ConsideredExchanges, ex)

		t := res.ticker
		if t.BidPrice > 0 {
			cand := domain.VenueQuote{Exchange: ex, Price: t.BidPrice, Size: t.BidSize}
			if betterBid(cand, snap.BestBid) {
				snap.BestBid = cand
			}
		}
		if t.AskPrice > 0 {
			cand := domain.VenueQuote{Exchange: ex, Price: t.AskPrice, Size: t.AskSize}
			if betterAsk(cand, snap.BestAsk) {
				snap.BestAsk = cand
			}
		}
	}

	if len(snap.ConsideredExchanges) == 0 {
		return domain.CBBOSnapshot{}, fmt.Errorf("cbbo: %s unreachable on all %d exchanges: %w",
			symbol, len(exchanges), domain.ErrNoData)
	}

	// A negative spread means the consolidated book is crossed; report it.
	if snap.BestBid.Price > 0 && snap.BestAsk.Price > 0 {
		snap.ConsolidatedSpread = snap.BestAsk.Price - snap.BestBid.Price
	}
	return snap, nil
}

// betterBid reports whether cand beats cur for the bid side: higher price,
// then larger size, then lexicographically smaller exchange.
func betterBid(cand, cur domain.VenueQuote) bool {
	if cur.Exchange == "" {
		return true
	}
	if cand.Price != cur.Price {
		return cand.Price > cur.Price
	}
	if cand.Size != cur.Size {
		return cand.Size > cur.Size
	}
	return cand.Exchange < cur.Exchange
}

// betterAsk mirrors betterBid with a lower price winning.
func betterAsk(cand, cur domain.VenueQuote) bool {
	if cur.Exchange == "" {
		return true
	}
	if cand.Price != cur.Price {
		return cand.Price < cur.Price
	}
	if cand.Size != cur.Size {
		return cand.Size > cur.Size
	}
	return cand.Exchange < cur.Exchange
}

// dedupe lowercases, trims, and deduplicates the exchange set, preserving
// first-seen order.
func dedupe(exchanges []string) []string {
	seen := make(map[string]bool, len(exchanges))
	out := make([]string, 0, len(exchanges))
	for _, ex := range exchanges {
		ex = strings.ToLower(strings.TrimSpace(ex))
		if ex == "" || seen[ex] {
			continue
		}
		seen[ex] = true
		out = append(out, ex)
	}
	return out
}
