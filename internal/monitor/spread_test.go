package monitor

import (
	"math"
	"testing"

	"github.com/alanyoungcy/gomarketbot/internal/domain"
)

func quote(bid, ask float64) domain.Ticker {
	return domain.Ticker{
		Exchange:   "x",
		Symbol:     "btc-usdt",
		MarketType: domain.MarketTypeSpot,
		BidPrice:   bid,
		AskPrice:   ask,
		BidSize:    1,
		AskSize:    1,
	}
}

func TestComputeSpread(t *testing.T) {
	tests := []struct {
		name           string
		a, b           domain.Ticker
		wantPct        float64
		wantDirection  domain.Direction
		wantExecutable bool
	}{
		{
			name:           "B bid clears A ask",
			a:              quote(99.9, 100),
			b:              quote(100.6, 100.7),
			wantPct:        0.6,
			wantDirection:  domain.DirectionBOverA,
			wantExecutable: true,
		},
		{
			name:           "A bid clears B ask",
			a:              quote(100.6, 100.7),
			b:              quote(99.9, 100),
			wantPct:        (100 - 100.6) / 100.6 * 100,
			wantDirection:  domain.DirectionAOverB,
			wantExecutable: true,
		},
		{
			name:          "no cross, B mid above A mid",
			a:             quote(99.9, 100.1),
			b:             quote(100.0, 100.6),
			wantPct:       0.3,
			wantDirection: domain.DirectionBOverA,
		},
		{
			name:          "no cross, A mid above B mid",
			a:             quote(100.0, 100.6),
			b:             quote(99.9, 100.1),
			wantPct:       (100 - 100.3) / 100.3 * 100,
			wantDirection: domain.DirectionAOverB,
		},
		{
			name:          "identical mids",
			a:             quote(100, 100),
			b:             quote(100, 100),
			wantPct:       0,
			wantDirection: domain.DirectionBOverA,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeSpread(tt.a, tt.b)
			if math.Abs(got.Pct-tt.wantPct) > 1e-9 {
				t.Errorf("Pct = %v, want %v", got.Pct, tt.wantPct)
			}
			if got.Direction != tt.wantDirection {
				t.Errorf("Direction = %s, want %s", got.Direction, tt.wantDirection)
			}
			if got.Executable != tt.wantExecutable {
				t.Errorf("Executable = %v, want %v", got.Executable, tt.wantExecutable)
			}
		})
	}
}

func TestComputeSpreadSignMatchesDirection(t *testing.T) {
	cases := [][2]domain.Ticker{
		{quote(99.9, 100), quote(100.6, 100.7)},
		{quote(100.6, 100.7), quote(99.9, 100)},
		{quote(99.9, 100.1), quote(100.0, 100.6)},
		{quote(100.0, 100.6), quote(99.9, 100.1)},
	}
	for _, c := range cases {
		got := ComputeSpread(c[0], c[1])
		if got.Pct < 0 && got.Direction != domain.DirectionAOverB {
			t.Errorf("negative spread %v with direction %s", got.Pct, got.Direction)
		}
		if got.Pct > 0 && got.Direction != domain.DirectionBOverA {
			t.Errorf("positive spread %v with direction %s", got.Pct, got.Direction)
		}
	}
}
