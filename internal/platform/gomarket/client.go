// Package gomarket is the REST client for the GoMarket market-data API,
// with an optional deterministic synthetic fallback for unreachable
// deployments.
package gomarket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/alanyoungcy/gomarketbot/internal/domain"
)

// DefaultBaseURL is the public GoMarket API root.
const DefaultBaseURL = "https://gomarket-api.goquant.io/api"

// ClientConfig configures the GoMarket client.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	// MockFallback degrades ticker fetches to synthetic data on any
	// upstream failure instead of surfacing the error.
	MockFallback bool
	// MockOnly skips the network entirely and serves synthetic data.
	MockOnly bool
}

// Client fetches symbols and tickers from the GoMarket API. It satisfies
// TickerSource and SymbolLister.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	mock         *MockSource
	mockFallback bool
	mockOnly     bool
	logger       *slog.Logger
}

// NewClient creates a GoMarket client.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: timeout},
		mockFallback: cfg.MockFallback,
		mockOnly:     cfg.MockOnly,
		logger:       logger.With(slog.String("component", "gomarket")),
	}
	if cfg.MockFallback || cfg.MockOnly {
		c.mock = NewMockSource()
	}
	return c
}

var _ domain.TickerSource = (*Client)(nil)
var _ domain.SymbolLister = (*Client)(nil)

// ListSymbols returns the symbols a venue serves for one market type.
// Unlike ticker fetches there is no synthetic fallback here; an unreachable
// upstream surfaces its error (mock-only mode excepted).
func (c *Client) ListSymbols(ctx context.Context, exchange string, marketType domain.MarketType) ([]string, error) {
	if c.mockOnly {
		return c.mock.ListSymbols(ctx, exchange, marketType)
	}

	path := fmt.Sprintf("/symbols/%s/%s", url.PathEscape(exchange), url.PathEscape(string(marketType)))
	body, err := c.doRequest(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("gomarket: list symbols %s/%s: %w", exchange, marketType, err)
	}

	var resp symbolsResponse
	if err := json.Unmarshal(body, &resp); err == nil && len(resp.Symbols) > 0 {
		out := make([]string, 0, len(resp.Symbols))
		for _, s := range resp.Symbols {
			switch {
			case s.Name != "":
				out = append(out, s.Name)
			case s.Base != "" && s.Quote != "":
				out = append(out, s.Base+"/"+s.Quote)
			}
		}
		return out, nil
	}

	// Bare-array form.
	var names []string
	if err := json.Unmarshal(body, &names); err != nil {
		return nil, fmt.Errorf("gomarket: decode symbols: %v: %w", err, domain.ErrNetwork)
	}
	return names, nil
}

// FetchTicker returns the current best bid/offer for one symbol. With
// MockFallback enabled any upstream failure degrades to a deterministic
// synthetic quote, matching how the API behaves when venues are dark.
func (c *Client) FetchTicker(ctx context.Context, exchange, symbol string, marketType domain.MarketType) (domain.Ticker, error) {
	if c.mockOnly {
		return c.mock.FetchTicker(ctx, exchange, symbol, marketType)
	}

	t, err := c.fetchTickerHTTP(ctx, exchange, symbol, marketType)
	if err == nil {
		return t, nil
	}
	if c.mockFallback {
		c.logger.Warn("upstream ticker fetch failed, serving synthetic data",
			slog.String("exchange", exchange),
			slog.String("symbol", symbol),
			slog.String("error", err.Error()),
		)
		return c.mock.FetchTicker(ctx, exchange, symbol, marketType)
	}
	return domain.Ticker{}, err
}

func (c *Client) fetchTickerHTTP(ctx context.Context, exchange, symbol string, marketType domain.MarketType) (domain.Ticker, error) {
	path := fmt.Sprintf("/ticker/%s/%s/%s",
		url.PathEscape(exchange), url.PathEscape(string(marketType)), url.PathEscape(symbol))
	body, err := c.doRequest(ctx, path)
	if err != nil {
		return domain.Ticker{}, fmt.Errorf("gomarket: fetch ticker %s %s: %w", exchange, symbol, err)
	}

	var resp tickerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Ticker{}, fmt.Errorf("gomarket: decode ticker: %v: %w", err, domain.ErrNetwork)
	}

	observed := time.Now().UTC()
	if resp.Timestamp > 0 {
		observed = time.UnixMilli(resp.Timestamp).UTC()
	}
	return domain.Ticker{
		Exchange:   exchange,
		Symbol:     symbol,
		MarketType: marketType,
		BidPrice:   resp.Bid,
		BidSize:    resp.BidSize,
		AskPrice:   resp.Ask,
		AskSize:    resp.AskSize,
		ObservedAt: observed,
	}, nil
}

// doRequest performs a GET against the API and returns the response body.
func (c *Client) doRequest(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %v: %w", err, domain.ErrNetwork)
	}
	if err := checkStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

// classifyTransportError folds transport failures into the error taxonomy:
// deadline problems become ErrTimeout, everything else ErrNetwork.
func classifyTransportError(err error) error {
	var uerr *url.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &uerr) && uerr.Timeout()) {
		return fmt.Errorf("%v: %w", err, domain.ErrTimeout)
	}
	return fmt.Errorf("%v: %w", err, domain.ErrNetwork)
}

// checkStatus maps non-2xx statuses onto the error taxonomy.
func checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var apiErr errorResponse
	_ = json.Unmarshal(body, &apiErr)

	switch {
	case statusCode == http.StatusNotFound:
		return fmt.Errorf("HTTP 404: %s: %w", apiErr.text(), domain.ErrNotFound)
	case statusCode == http.StatusRequestTimeout:
		return fmt.Errorf("HTTP 408: %s: %w", apiErr.text(), domain.ErrTimeout)
	default:
		return fmt.Errorf("HTTP %d: %s: %w", statusCode, apiErr.text(), domain.ErrNetwork)
	}
}
