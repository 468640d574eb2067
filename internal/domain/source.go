package domain

import "context"

// TickerSource supplies best bid/offer quotes from an upstream market-data
// provider. Implementations may degrade to deterministic synthetic data;
// consumers must behave identically either way.
//
// FetchTicker fails with ErrNotFound for unknown instruments, ErrTimeout
// when the per-call deadline expires, and ErrNetwork for transport errors.
type TickerSource interface {
	FetchTicker(ctx context.Context, exchange, symbol string, marketType MarketType) (Ticker, error)
}

// SymbolLister enumerates the symbols a venue serves for one market type.
type SymbolLister interface {
	ListSymbols(ctx context.Context, exchange string, marketType MarketType) ([]string, error)
}

// MarketData is the full upstream surface: quotes plus symbol discovery.
type MarketData interface {
	TickerSource
	SymbolLister
}
