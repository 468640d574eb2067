package domain

import "context"

// TickerCache provides short-lived storage for recently fetched tickers so
// bursty CBBO requests do not hammer the upstream provider.
type TickerCache interface {
	Set(ctx context.Context, t Ticker) error
	Get(ctx context.Context, exchange, symbol string, marketType MarketType) (Ticker, error)
}

// StreamMessage is a single entry read back from the alert stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// AlertBus publishes fired alerts for out-of-process consumers and feeds
// the websocket hub. Delivery is best-effort; publish failures must never
// propagate back into a monitor's tick loop.
type AlertBus interface {
	PublishAlert(ctx context.Context, alert Alert) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	StreamRead(ctx context.Context, lastID string, count int) ([]StreamMessage, error)
}
