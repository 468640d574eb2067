package cbbo

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/alanyoungcy/gomarketbot/internal/domain"
)

// stubSource serves a fixed quote (or error) per exchange. Exchanges with a
// positive delay sleep first so timeout behavior can be exercised.
type stubSource struct {
	quotes map[string]domain.Ticker
	errs   map[string]error
	delays map[string]time.Duration
}

func (s *stubSource) FetchTicker(ctx context.Context, exchange, symbol string, mt domain.MarketType) (domain.Ticker, error) {
	if d := s.delays[exchange]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return domain.Ticker{}, domain.ErrTimeout
		}
	}
	if err := s.errs[exchange]; err != nil {
		return domain.Ticker{}, err
	}
	t, ok := s.quotes[exchange]
	if !ok {
		return domain.Ticker{}, domain.ErrNotFound
	}
	t.Exchange = exchange
	t.Symbol = symbol
	t.MarketType = mt
	return t, nil
}

func stubQuote(bid, bidSize, ask, askSize float64) domain.Ticker {
	return domain.Ticker{
		BidPrice:   bid,
		BidSize:    bidSize,
		AskPrice:   ask,
		AskSize:    askSize,
		ObservedAt: time.Now().UTC(),
	}
}

func newTestAggregator(src domain.TickerSource) *Aggregator {
	return NewAggregator(src, Config{FetchTimeout: 200 * time.Millisecond}, slog.New(slog.DiscardHandler))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Exchange Y has both the best bid and best ask; Z fails and must be
// excluded without failing the request.
func TestComputePartialFailure(t *testing.T) {
	src := &stubSource{
		quotes: map[string]domain.Ticker{
			"x": stubQuote(100, 1, 101, 1),
			"y": stubQuote(100.5, 1, 100.9, 1),
		},
		errs: map[string]error{"z": domain.ErrNetwork},
	}

	snap, err := newTestAggregator(src).Compute(context.Background(), "btc-usdt", domain.MarketTypeSpot, []string{"x", "y", "z"})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	if snap.BestBid.Exchange != "y" || snap.BestBid.Price != 100.5 {
		t.Errorf("best bid = %s@%v, want y@100.5", snap.BestBid.Exchange, snap.BestBid.Price)
	}
	if snap.BestAsk.Exchange != "y" || snap.BestAsk.Price != 100.9 {
		t.Errorf("best ask = %s@%v, want y@100.9", snap.BestAsk.Exchange, snap.BestAsk.Price)
	}
	if !contains(snap.FailedExchanges, "z") || len(snap.FailedExchanges) != 1 {
		t.Errorf("failed = %v, want [z]", snap.FailedExchanges)
	}
	if len(snap.ConsideredExchanges) != 2 {
		t.Errorf("considered = %v, want x and y", snap.ConsideredExchanges)
	}
	if snap.ConsolidatedSpread != 100.9-100.5 {
		t.Errorf("spread = %v, want 0.4", snap.ConsolidatedSpread)
	}
}

func TestComputeTieBreaks(t *testing.T) {
	tests := []struct {
		name    string
		quotes  map[string]domain.Ticker
		wantBid string
		wantAsk string
	}{
		{
			name: "equal price, larger size wins",
			quotes: map[string]domain.Ticker{
				"aaa": stubQuote(100, 1, 101, 5),
				"bbb": stubQuote(100, 3, 101, 2),
			},
			wantBid: "bbb",
			wantAsk: "aaa",
		},
		{
			name: "equal price and size, lexicographically smaller wins",
			quotes: map[string]domain.Ticker{
				"okx":     stubQuote(100, 2, 101, 2),
				"binance": stubQuote(100, 2, 101, 2),
			},
			wantBid: "binance",
			wantAsk: "binance",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &stubSource{quotes: tt.quotes}
			exchanges := make([]string, 0, len(tt.quotes))
			for ex := range tt.quotes {
				exchanges = append(exchanges, ex)
			}
			snap, err := newTestAggregator(src).Compute(context.Background(), "btc-usdt", domain.MarketTypeSpot, exchanges)
			if err != nil {
				t.Fatalf("compute: %v", err)
			}
			if snap.BestBid.Exchange != tt.wantBid {
				t.Errorf("best bid venue = %s, want %s", snap.BestBid.Exchange, tt.wantBid)
			}
			if snap.BestAsk.Exchange != tt.wantAsk {
				t.Errorf("best ask venue = %s, want %s", snap.BestAsk.Exchange, tt.wantAsk)
			}
		})
	}
}

func TestComputeNoData(t *testing.T) {
	src := &stubSource{
		errs: map[string]error{
			"x": domain.ErrNetwork,
			"y": domain.ErrTimeout,
		},
	}
	_, err := newTestAggregator(src).Compute(context.Background(), "btc-usdt", domain.MarketTypeSpot, []string{"x", "y"})
	if !errors.Is(err, domain.ErrNoData) {
		t.Fatalf("got %v, want ErrNoData", err)
	}
}

func TestComputeCrossedConsolidatedBook(t *testing.T) {
	// Venue x bids above venue y's ask: consolidated spread is negative and
	// must be reported, not suppressed.
	src := &stubSource{
		quotes: map[string]domain.Ticker{
			"x": stubQuote(101, 1, 101.5, 1),
			"y": stubQuote(100, 1, 100.5, 1),
		},
	}
	snap, err := newTestAggregator(src).Compute(context.Background(), "btc-usdt", domain.MarketTypeSpot, []string{"x", "y"})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if snap.ConsolidatedSpread >= 0 {
		t.Errorf("spread = %v, want negative (crossed)", snap.ConsolidatedSpread)
	}
	if snap.BestBid.Exchange != "x" || snap.BestAsk.Exchange != "y" {
		t.Errorf("best venues = %s/%s, want x/y", snap.BestBid.Exchange, snap.BestAsk.Exchange)
	}
}

func TestComputeSlowExchangeTimesOut(t *testing.T) {
	src := &stubSource{
		quotes: map[string]domain.Ticker{
			"fast": stubQuote(100, 1, 100.5, 1),
			"slow": stubQuote(999, 1, 999.5, 1),
		},
		delays: map[string]time.Duration{"slow": 2 * time.Second},
	}
	snap, err := newTestAggregator(src).Compute(context.Background(), "btc-usdt", domain.MarketTypeSpot, []string{"fast", "slow"})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !contains(snap.FailedExchanges, "slow") {
		t.Errorf("slow exchange not excluded: failed = %v", snap.FailedExchanges)
	}
	if snap.BestBid.Exchange != "fast" {
		t.Errorf("best bid venue = %s, want fast", snap.BestBid.Exchange)
	}
}

func TestComputeInputValidation(t *testing.T) {
	src := &stubSource{}
	agg := newTestAggregator(src)

	if _, err := agg.Compute(context.Background(), " ", domain.MarketTypeSpot, []string{"x"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("empty symbol: got %v, want ErrInvalidInput", err)
	}
	if _, err := agg.Compute(context.Background(), "btc-usdt", domain.MarketTypeSpot, nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("empty exchange set: got %v, want ErrInvalidInput", err)
	}
	if _, err := agg.Compute(context.Background(), "btc-usdt", domain.MarketTypeSpot, []string{" ", ""}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("blank exchanges: got %v, want ErrInvalidInput", err)
	}
}

func TestComputeDuplicateExchangesCollapsed(t *testing.T) {
	src := &stubSource{
		quotes: map[string]domain.Ticker{"x": stubQuote(100, 1, 100.5, 1)},
	}
	snap, err := newTestAggregator(src).Compute(context.Background(), "btc-usdt", domain.MarketTypeSpot, []string{"x", "X", " x "})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(snap.ConsideredExchanges) != 1 {
		t.Errorf("considered = %v, want single x", snap.ConsideredExchanges)
	}
}
