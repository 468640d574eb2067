package monitor

import "github.com/alanyoungcy/gomarketbot/internal/domain"

// Spread is the outcome of comparing two legs on one tick.
//
// Sign convention: Pct is positive when leg B is rich (sell B, buy A) and
// negative when leg A is rich. Direction mirrors the sign so consumers never
// have to re-derive it.
type Spread struct {
	Pct       float64
	Direction domain.Direction
	LegAPrice float64
	LegBPrice float64
	// Executable is true when one leg's bid clears the other leg's ask,
	// i.e. the spread could be captured with two marketable orders.
	Executable bool
}

// ComputeSpread compares two normalized tickers. When either book crosses
// the other, the executable edge is used: sell the rich leg's bid against
// the cheap leg's ask. Otherwise the spread is the signed mid-price
// difference relative to leg A.
func ComputeSpread(a, b domain.Ticker) Spread {
	switch {
	case b.BidPrice > 0 && a.AskPrice > 0 && b.BidPrice > a.AskPrice:
		// Buy on A's ask, sell on B's bid.
		return Spread{
			Pct:        (b.BidPrice - a.AskPrice) / a.AskPrice * 100,
			Direction:  domain.DirectionBOverA,
			LegAPrice:  a.AskPrice,
			LegBPrice:  b.BidPrice,
			Executable: true,
		}
	case a.BidPrice > 0 && b.AskPrice > 0 && a.BidPrice > b.AskPrice:
		// Buy on B's ask, sell on A's bid.
		return Spread{
			Pct:        (b.AskPrice - a.BidPrice) / a.BidPrice * 100,
			Direction:  domain.DirectionAOverB,
			LegAPrice:  a.BidPrice,
			LegBPrice:  b.AskPrice,
			Executable: true,
		}
	}

	midA, midB := a.Mid(), b.Mid()
	s := Spread{
		LegAPrice: midA,
		LegBPrice: midB,
	}
	if midA > 0 {
		s.Pct = (midB - midA) / midA * 100
	}
	if s.Pct < 0 {
		s.Direction = domain.DirectionAOverB
	} else {
		s.Direction = domain.DirectionBOverA
	}
	return s
}
