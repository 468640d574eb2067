package gomarket

import (
	"context"
	"hash/fnv"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/alanyoungcy/gomarketbot/internal/domain"
)

// basePrices maps a recognizable asset substring to its synthetic price band
// (base ± jitter). Order matters: the first substring match wins.
var basePrices = []struct {
	asset  string
	base   float64
	jitter float64
}{
	{"btc", 60000, 500},
	{"eth", 3000, 30},
	{"sol", 150, 5},
	{"xrp", 0.50, 0.01},
	{"doge", 0.15, 0.005},
	{"ada", 0.40, 0.01},
	{"dot", 5.5, 0.1},
}

// exchangeFactors skews the synthetic price per venue so cross-exchange
// spreads are small but nonzero. The jitter term is drawn per call.
var exchangeFactors = map[string]struct {
	base   float64
	jitter float64
}{
	"binance": {1.0, 0},
	"okx":     {1.0001, 0.0005},
	"bybit":   {0.9999, 0.0005},
	"deribit": {1.0002, 0.0005},
}

var mockSymbols = []string{
	"btc-usdt", "eth-usdt", "sol-usdt", "xrp-usdt", "doge-usdt", "ada-usdt", "dot-usdt",
}

// MockSource generates synthetic tickers, seeded deterministically per
// (exchange, symbol): two MockSources serve identical quote sequences for
// the same key, so tests and offline runs are reproducible. It satisfies
// both TickerSource and SymbolLister.
type MockSource struct {
	mu      sync.Mutex
	streams map[string]*rand.Rand
	now     func() time.Time
}

// NewMockSource creates a mock source with fresh per-key streams.
func NewMockSource() *MockSource {
	return &MockSource{
		streams: make(map[string]*rand.Rand),
		now:     time.Now,
	}
}

var _ domain.TickerSource = (*MockSource)(nil)
var _ domain.SymbolLister = (*MockSource)(nil)

// FetchTicker returns the next synthetic quote in the (exchange, symbol)
// stream. It never fails.
func (m *MockSource) FetchTicker(_ context.Context, exchange, symbol string, marketType domain.MarketType) (domain.Ticker, error) {
	exchange = strings.ToLower(strings.TrimSpace(exchange))
	symbol = strings.ToLower(strings.TrimSpace(symbol))

	m.mu.Lock()
	defer m.mu.Unlock()
	rng := m.stream(exchange + "|" + symbol)

	base := basePrice(symbol, rng)
	adjusted := base * venueFactor(exchange, rng)

	// Half-spread between 0.005% and 0.05% of the adjusted mid.
	halfSpread := adjusted * uniform(rng, 0.01, 0.1) / 100 / 2

	return domain.Ticker{
		Exchange:   exchange,
		Symbol:     symbol,
		MarketType: marketType,
		BidPrice:   adjusted - halfSpread,
		BidSize:    uniform(rng, 0.5, 5),
		AskPrice:   adjusted + halfSpread,
		AskSize:    uniform(rng, 0.5, 5),
		ObservedAt: m.now().UTC(),
	}, nil
}

// ListSymbols returns the fixed synthetic universe.
func (m *MockSource) ListSymbols(_ context.Context, _ string, _ domain.MarketType) ([]string, error) {
	out := make([]string, len(mockSymbols))
	copy(out, mockSymbols)
	return out, nil
}

// stream returns the deterministic RNG for key, creating it from an FNV-1a
// seed on first use.
func (m *MockSource) stream(key string) *rand.Rand {
	if rng, ok := m.streams[key]; ok {
		return rng
	}
	h := fnv.New64a()
	h.Write([]byte(key))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	m.streams[key] = rng
	return rng
}

func basePrice(symbol string, rng *rand.Rand) float64 {
	for _, bp := range basePrices {
		if strings.Contains(symbol, bp.asset) {
			return bp.base + uniform(rng, -bp.jitter, bp.jitter)
		}
	}
	return uniform(rng, 10, 100)
}

func venueFactor(exchange string, rng *rand.Rand) float64 {
	if f, ok := exchangeFactors[exchange]; ok {
		if f.jitter == 0 {
			return f.base
		}
		return f.base + uniform(rng, -f.jitter, f.jitter)
	}
	return 1.0 + uniform(rng, -0.001, 0.001)
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
