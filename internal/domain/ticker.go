package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// MarketType identifies the instrument class a ticker belongs to.
type MarketType string

const (
	MarketTypeSpot   MarketType = "spot"
	MarketTypeSwap   MarketType = "swap"
	MarketTypeFuture MarketType = "future"
	MarketTypeOption MarketType = "option"
)

var validMarketTypes = map[MarketType]bool{
	MarketTypeSpot:   true,
	MarketTypeSwap:   true,
	MarketTypeFuture: true,
	MarketTypeOption: true,
}

// ParseMarketType canonicalizes a market type string. Unknown values are
// rejected with ErrInvalidInput.
func ParseMarketType(s string) (MarketType, error) {
	mt := MarketType(strings.ToLower(strings.TrimSpace(s)))
	if !validMarketTypes[mt] {
		return "", fmt.Errorf("market type %q: %w", s, ErrInvalidInput)
	}
	return mt, nil
}

// Ticker is a single best bid/offer observation for one symbol on one venue.
type Ticker struct {
	Exchange   string
	Symbol     string
	MarketType MarketType
	BidPrice   float64
	BidSize    float64
	AskPrice   float64
	AskSize    float64
	ObservedAt time.Time
	// Crossed marks a momentarily inverted book (bid above ask). Such
	// tickers are valid inputs and must be tolerated downstream.
	Crossed bool
}

// Mid returns the mid price, falling back to whichever side is present when
// the other is zero.
func (t Ticker) Mid() float64 {
	switch {
	case t.BidPrice > 0 && t.AskPrice > 0:
		return (t.BidPrice + t.AskPrice) / 2
	case t.BidPrice > 0:
		return t.BidPrice
	default:
		return t.AskPrice
	}
}

// Leg is one (symbol, exchange, market type) side of a monitored pair.
type Leg struct {
	Symbol     string
	Exchange   string
	MarketType MarketType
}

func (l Leg) String() string {
	return l.Symbol + "@" + l.Exchange
}

// NormalizeLeg canonicalizes and validates a leg.
func NormalizeLeg(l Leg) (Leg, error) {
	l.Symbol = strings.ToLower(strings.TrimSpace(l.Symbol))
	l.Exchange = strings.ToLower(strings.TrimSpace(l.Exchange))
	if l.Symbol == "" {
		return Leg{}, fmt.Errorf("empty symbol: %w", ErrInvalidInput)
	}
	if l.Exchange == "" {
		return Leg{}, fmt.Errorf("empty exchange: %w", ErrInvalidInput)
	}
	mt, err := ParseMarketType(string(l.MarketType))
	if err != nil {
		return Leg{}, err
	}
	l.MarketType = mt
	return l, nil
}

// NormalizeTicker canonicalizes identifiers and validates numeric fields.
// A crossed book (bid above ask) is flagged, not rejected. The function is
// pure: it returns a corrected copy and never mutates shared state.
func NormalizeTicker(t Ticker) (Ticker, error) {
	t.Exchange = strings.ToLower(strings.TrimSpace(t.Exchange))
	t.Symbol = strings.ToLower(strings.TrimSpace(t.Symbol))
	if t.Exchange == "" {
		return Ticker{}, fmt.Errorf("normalize: empty exchange: %w", ErrInvalidInput)
	}
	if t.Symbol == "" {
		return Ticker{}, fmt.Errorf("normalize: empty symbol: %w", ErrInvalidInput)
	}

	mt, err := ParseMarketType(string(t.MarketType))
	if err != nil {
		return Ticker{}, fmt.Errorf("normalize: %w", err)
	}
	t.MarketType = mt

	for name, v := range map[string]float64{
		"bid_price": t.BidPrice,
		"ask_price": t.AskPrice,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return Ticker{}, fmt.Errorf("normalize: %s %v: %w", name, v, ErrInvalidInput)
		}
	}
	if t.BidSize < 0 || t.AskSize < 0 || math.IsNaN(t.BidSize) || math.IsNaN(t.AskSize) {
		return Ticker{}, fmt.Errorf("normalize: negative size: %w", ErrInvalidInput)
	}

	t.Crossed = t.BidPrice > 0 && t.AskPrice > 0 && t.BidPrice > t.AskPrice

	if t.ObservedAt.IsZero() {
		t.ObservedAt = time.Now().UTC()
	}
	return t, nil
}
