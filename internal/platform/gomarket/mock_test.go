package gomarket

import (
	"context"
	"testing"

	"github.com/alanyoungcy/gomarketbot/internal/domain"
)

func TestMockSourceDeterministicPerKey(t *testing.T) {
	ctx := context.Background()
	a := NewMockSource()
	b := NewMockSource()

	for i := 0; i < 5; i++ {
		ta, err := a.FetchTicker(ctx, "okx", "btc-usdt", domain.MarketTypeSpot)
		if err != nil {
			t.Fatalf("fetch a: %v", err)
		}
		tb, err := b.FetchTicker(ctx, "okx", "btc-usdt", domain.MarketTypeSpot)
		if err != nil {
			t.Fatalf("fetch b: %v", err)
		}
		if ta.BidPrice != tb.BidPrice || ta.AskPrice != tb.AskPrice {
			t.Fatalf("call %d: sources diverged: %v/%v vs %v/%v",
				i, ta.BidPrice, ta.AskPrice, tb.BidPrice, tb.AskPrice)
		}
	}
}

func TestMockSourceStreamsIndependentPerKey(t *testing.T) {
	ctx := context.Background()
	src := NewMockSource()

	// Interleaving another key's calls must not disturb a key's sequence.
	solo := NewMockSource()
	want1, _ := solo.FetchTicker(ctx, "binance", "btc-usdt", domain.MarketTypeSpot)
	want2, _ := solo.FetchTicker(ctx, "binance", "btc-usdt", domain.MarketTypeSpot)

	got1, _ := src.FetchTicker(ctx, "binance", "btc-usdt", domain.MarketTypeSpot)
	_, _ = src.FetchTicker(ctx, "okx", "eth-usdt", domain.MarketTypeSpot)
	got2, _ := src.FetchTicker(ctx, "binance", "btc-usdt", domain.MarketTypeSpot)

	if got1.BidPrice != want1.BidPrice || got2.BidPrice != want2.BidPrice {
		t.Errorf("interleaved calls disturbed the stream")
	}
}

func TestMockSourcePriceBands(t *testing.T) {
	ctx := context.Background()
	src := NewMockSource()

	tests := []struct {
		symbol string
		lo, hi float64
	}{
		{"btc-usdt", 59000, 61000},
		{"eth-usdt", 2900, 3100},
		{"sol-usdt", 140, 160},
		{"xrp-usdt", 0.4, 0.6},
		{"doge-usdt", 0.1, 0.2},
		{"ada-usdt", 0.3, 0.5},
		{"dot-usdt", 5.0, 6.0},
		{"unknown-pair", 9.9, 100.2},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			for _, ex := range []string{"binance", "okx", "bybit", "deribit", "kraken"} {
				tick, err := src.FetchTicker(ctx, ex, tt.symbol, domain.MarketTypeSpot)
				if err != nil {
					t.Fatalf("fetch: %v", err)
				}
				if tick.BidPrice < tt.lo || tick.AskPrice > tt.hi {
					t.Errorf("%s on %s: %v/%v outside band [%v, %v]",
						tt.symbol, ex, tick.BidPrice, tick.AskPrice, tt.lo, tt.hi)
				}
				if tick.BidPrice >= tick.AskPrice {
					t.Errorf("%s on %s: bid %v not below ask %v",
						tt.symbol, ex, tick.BidPrice, tick.AskPrice)
				}
				if tick.BidSize <= 0 || tick.AskSize <= 0 {
					t.Errorf("%s on %s: non-positive sizes %v/%v",
						tt.symbol, ex, tick.BidSize, tick.AskSize)
				}
			}
		})
	}
}

func TestMockSourceNormalizes(t *testing.T) {
	src := NewMockSource()
	tick, err := src.FetchTicker(context.Background(), " Binance ", "BTC-USDT", domain.MarketTypeSpot)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if tick.Exchange != "binance" || tick.Symbol != "btc-usdt" {
		t.Errorf("identifiers not canonicalized: %q/%q", tick.Exchange, tick.Symbol)
	}
	if _, err := domain.NormalizeTicker(tick); err != nil {
		t.Errorf("synthetic ticker fails normalization: %v", err)
	}
}

func TestMockSourceListSymbols(t *testing.T) {
	src := NewMockSource()
	symbols, err := src.ListSymbols(context.Background(), "binance", domain.MarketTypeSpot)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(symbols) == 0 {
		t.Fatal("empty synthetic universe")
	}
	found := false
	for _, s := range symbols {
		if s == "btc-usdt" {
			found = true
		}
	}
	if !found {
		t.Errorf("btc-usdt missing from %v", symbols)
	}
}
