package domain

import "time"

// VenueQuote is one side of the consolidated book attributed to the venue
// that provided it.
type VenueQuote struct {
	Exchange string
	Price    float64
	Size     float64
}

// CBBOSnapshot is the consolidated best bid and offer for one symbol across
// a caller-supplied exchange set. Recomputed per request, never persisted.
// ConsolidatedSpread may be negative when the consolidated book is crossed;
// that is a valid state and is reported as-is.
type CBBOSnapshot struct {
	Symbol              string
	MarketType          MarketType
	BestBid             VenueQuote
	BestAsk             VenueQuote
	ConsolidatedSpread  float64
	ConsideredExchanges []string
	FailedExchanges     []string
	Timestamp           time.Time
}
