package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alanyoungcy/gomarketbot/internal/domain"
)

// MarketService defines the methods that the market handler requires from the
// service layer. It is declared locally so the handler package does not depend
// on the concrete service implementation.
type MarketService interface {
	ListSymbols(ctx context.Context, exchange string, marketType domain.MarketType) ([]string, error)
	GetCBBO(ctx context.Context, symbol string, marketType domain.MarketType, exchanges []string) (domain.CBBOSnapshot, error)
}

// MarketHandler serves market-data HTTP endpoints.
type MarketHandler struct {
	market MarketService
	logger *slog.Logger
}

// NewMarketHandler creates a MarketHandler with the given service and logger.
func NewMarketHandler(market MarketService, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{
		market: market,
		logger: logger,
	}
}

// listSymbolsResponse wraps the symbol listing with its request context.
type listSymbolsResponse struct {
	Exchange   string   `json:"exchange"`
	MarketType string   `json:"market_type"`
	Symbols    []string `json:"symbols"`
	Count      int      `json:"count"`
}

// ListSymbols returns the tradable symbols for one exchange and market type.
// GET /api/symbols/{exchange}/{market_type}
func (h *MarketHandler) ListSymbols(w http.ResponseWriter, r *http.Request) {
	exchange := pathParam(r, "exchange")
	marketType := pathParam(r, "market_type")

	symbols, err := h.market.ListSymbols(r.Context(), exchange, domain.MarketType(marketType))
	if err != nil {
		writeServiceError(w, r, h.logger, err, "list symbols")
		return
	}
	if symbols == nil {
		symbols = []string{}
	}

	writeJSON(w, http.StatusOK, listSymbolsResponse{
		Exchange:   strings.ToLower(strings.TrimSpace(exchange)),
		MarketType: strings.ToLower(strings.TrimSpace(marketType)),
		Symbols:    symbols,
		Count:      len(symbols),
	})
}

// venueQuote is one attributed side of the consolidated book.
type venueQuote struct {
	Exchange string  `json:"exchange"`
	Price    float64 `json:"price"`
	Size     float64 `json:"size"`
}

// cbboResponse is the wire form of a consolidated best bid/offer snapshot.
type cbboResponse struct {
	Symbol              string     `json:"symbol"`
	MarketType          string     `json:"market_type"`
	BestBid             venueQuote `json:"best_bid"`
	BestAsk             venueQuote `json:"best_ask"`
	ConsolidatedSpread  float64    `json:"consolidated_spread"`
	ConsideredExchanges []string   `json:"considered_exchanges"`
	FailedExchanges     []string   `json:"failed_exchanges"`
	Timestamp           string     `json:"timestamp"`
}

// GetCBBO computes the consolidated best bid/offer for a symbol across a set
// of exchanges. With no exchanges parameter the configured default venue set
// is used; market_type defaults to spot.
// GET /api/cbbo/{symbol}?exchanges=binance,okx&market_type=spot
func (h *MarketHandler) GetCBBO(w http.ResponseWriter, r *http.Request) {
	symbol := pathParam(r, "symbol")
	q := r.URL.Query()

	marketType := q.Get("market_type")
	if marketType == "" {
		marketType = string(domain.MarketTypeSpot)
	}

	var exchanges []string
	if raw := q.Get("exchanges"); raw != "" {
		for _, e := range strings.Split(raw, ",") {
			if e = strings.TrimSpace(e); e != "" {
				exchanges = append(exchanges, e)
			}
		}
	}

	snap, err := h.market.GetCBBO(r.Context(), symbol, domain.MarketType(marketType), exchanges)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "compute cbbo")
		return
	}

	writeJSON(w, http.StatusOK, cbboResponse{
		Symbol:              snap.Symbol,
		MarketType:          string(snap.MarketType),
		BestBid:             venueQuote(snap.BestBid),
		BestAsk:             venueQuote(snap.BestAsk),
		ConsolidatedSpread:  snap.ConsolidatedSpread,
		ConsideredExchanges: snap.ConsideredExchanges,
		FailedExchanges:     emptyIfNil(snap.FailedExchanges),
		Timestamp:           snap.Timestamp.UTC().Format(time.RFC3339Nano),
	})
}

// emptyIfNil keeps JSON arrays as [] instead of null.
func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
