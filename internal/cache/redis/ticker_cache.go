package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alanyoungcy/gomarketbot/internal/domain"
	"github.com/redis/go-redis/v9"
)

const defaultTickerTTL = 2 * time.Second

// TickerCache implements domain.TickerCache using JSON-serialized tickers
// under short-TTL string keys.
//
// Key schema:
//
//	ticker:{exchange}:{market_type}:{symbol} - JSON-encoded domain.Ticker
type TickerCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTickerCache creates a TickerCache backed by the given Client. A ttl of
// zero or less falls back to the default.
func NewTickerCache(c *Client, ttl time.Duration) *TickerCache {
	if ttl <= 0 {
		ttl = defaultTickerTTL
	}
	return &TickerCache{rdb: c.Underlying(), ttl: ttl}
}

func tickerKey(exchange, symbol string, marketType domain.MarketType) string {
	return "ticker:" + exchange + ":" + string(marketType) + ":" + symbol
}

// Set stores a ticker under its exchange/market-type/symbol key. The entry
// expires after the configured TTL so stale quotes age out on their own.
func (tc *TickerCache) Set(ctx context.Context, t domain.Ticker) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("redis: marshal ticker %s@%s: %w", t.Symbol, t.Exchange, err)
	}

	key := tickerKey(t.Exchange, t.Symbol, t.MarketType)
	if err := tc.rdb.Set(ctx, key, data, tc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set ticker %s: %w", key, err)
	}
	return nil
}

// Get retrieves a cached ticker. It returns domain.ErrNotFound when the key
// does not exist or has expired.
func (tc *TickerCache) Get(ctx context.Context, exchange, symbol string, marketType domain.MarketType) (domain.Ticker, error) {
	key := tickerKey(exchange, symbol, marketType)

	data, err := tc.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Ticker{}, domain.ErrNotFound
		}
		return domain.Ticker{}, fmt.Errorf("redis: get ticker %s: %w", key, err)
	}

	var t domain.Ticker
	if err := json.Unmarshal(data, &t); err != nil {
		return domain.Ticker{}, fmt.Errorf("redis: unmarshal ticker %s: %w", key, err)
	}
	return t, nil
}

var _ domain.TickerCache = (*TickerCache)(nil)
