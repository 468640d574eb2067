package domain

import (
	"errors"
	"math"
	"testing"
	"time"
)

func validTicker() Ticker {
	return Ticker{
		Exchange:   "binance",
		Symbol:     "btc-usdt",
		MarketType: MarketTypeSpot,
		BidPrice:   60000,
		BidSize:    1.5,
		AskPrice:   60010,
		AskSize:    2,
		ObservedAt: time.Now().UTC(),
	}
}

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Ticker)
		wantErr bool
		check   func(*testing.T, Ticker)
	}{
		{
			name:   "valid passes unchanged",
			mutate: func(t *Ticker) {},
			check: func(t *testing.T, tk Ticker) {
				if tk.Crossed {
					t.Errorf("valid ticker flagged crossed")
				}
			},
		},
		{
			name: "identifiers lowercased and trimmed",
			mutate: func(tk *Ticker) {
				tk.Exchange = "  Binance "
				tk.Symbol = "BTC-USDT"
			},
			check: func(t *testing.T, tk Ticker) {
				if tk.Exchange != "binance" || tk.Symbol != "btc-usdt" {
					t.Errorf("got %q/%q, want lowercased", tk.Exchange, tk.Symbol)
				}
			},
		},
		{
			name:    "empty exchange rejected",
			mutate:  func(tk *Ticker) { tk.Exchange = "  " },
			wantErr: true,
		},
		{
			name:    "empty symbol rejected",
			mutate:  func(tk *Ticker) { tk.Symbol = "" },
			wantErr: true,
		},
		{
			name:    "unknown market type rejected",
			mutate:  func(tk *Ticker) { tk.MarketType = "margin" },
			wantErr: true,
		},
		{
			name:    "negative bid rejected",
			mutate:  func(tk *Ticker) { tk.BidPrice = -1 },
			wantErr: true,
		},
		{
			name:    "NaN ask rejected",
			mutate:  func(tk *Ticker) { tk.AskPrice = math.NaN() },
			wantErr: true,
		},
		{
			name:    "infinite bid rejected",
			mutate:  func(tk *Ticker) { tk.BidPrice = math.Inf(1) },
			wantErr: true,
		},
		{
			name:    "negative size rejected",
			mutate:  func(tk *Ticker) { tk.AskSize = -0.5 },
			wantErr: true,
		},
		{
			name: "crossed book flagged not rejected",
			mutate: func(tk *Ticker) {
				tk.BidPrice = 60020
				tk.AskPrice = 60000
			},
			check: func(t *testing.T, tk Ticker) {
				if !tk.Crossed {
					t.Errorf("crossed book not flagged")
				}
			},
		},
		{
			name:   "zero timestamp defaulted",
			mutate: func(tk *Ticker) { tk.ObservedAt = time.Time{} },
			check: func(t *testing.T, tk Ticker) {
				if tk.ObservedAt.IsZero() {
					t.Errorf("ObservedAt not defaulted")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk := validTicker()
			tt.mutate(&tk)
			got, err := NormalizeTicker(tk)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got none")
				}
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("error %v does not wrap ErrInvalidInput", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, got)
			}
		})
	}
}

func TestParseMarketType(t *testing.T) {
	for _, s := range []string{"spot", "SWAP", " Future ", "option"} {
		if _, err := ParseMarketType(s); err != nil {
			t.Errorf("ParseMarketType(%q): %v", s, err)
		}
	}
	if _, err := ParseMarketType("margin"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("unknown type: got %v, want ErrInvalidInput", err)
	}
}

func TestNormalizeMonitorSpec(t *testing.T) {
	base := MonitorSpec{
		LegA:         Leg{Symbol: "BTC-USDT", Exchange: "Binance", MarketType: MarketTypeSpot},
		LegB:         Leg{Symbol: "btc-usdt", Exchange: "okx", MarketType: MarketTypeSpot},
		ThresholdPct: 0.5,
	}

	spec, err := NormalizeMonitorSpec(base)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if spec.LegA.Exchange != "binance" {
		t.Errorf("leg A exchange not lowercased: %q", spec.LegA.Exchange)
	}
	if want := "btc-usdt_binance_btc-usdt_okx_0.5"; spec.ID != want {
		t.Errorf("derived ID = %q, want %q", spec.ID, want)
	}

	withID := base
	withID.ID = "my-monitor"
	spec, err = NormalizeMonitorSpec(withID)
	if err != nil {
		t.Fatalf("normalize with ID: %v", err)
	}
	if spec.ID != "my-monitor" {
		t.Errorf("explicit ID overwritten: %q", spec.ID)
	}

	bad := base
	bad.ThresholdPct = 0
	if _, err := NormalizeMonitorSpec(bad); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero threshold: got %v, want ErrInvalidInput", err)
	}

	same := base
	same.LegB = same.LegA
	if _, err := NormalizeMonitorSpec(same); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("identical legs: got %v, want ErrInvalidInput", err)
	}
}

func TestArbStatsObserve(t *testing.T) {
	var s ArbStats
	for _, v := range []float64{0.6, -0.8, 0.2} {
		s = s.Observe(v)
	}
	if s.Count != 3 {
		t.Errorf("Count = %d, want 3", s.Count)
	}
	if s.MinSpread != -0.8 || s.MaxSpread != 0.6 {
		t.Errorf("min/max = %v/%v, want -0.8/0.6", s.MinSpread, s.MaxSpread)
	}
	if got := s.Mean(); math.Abs(got-0.0) > 1e-9 {
		t.Errorf("Mean = %v, want 0", got)
	}
	if (ArbStats{}).Mean() != 0 {
		t.Errorf("empty mean not zero")
	}
}
