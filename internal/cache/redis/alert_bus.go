package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/gomarketbot/internal/domain"
	"github.com/redis/go-redis/v9"
)

// AlertsChannel is the Pub/Sub channel fired alerts are published on.
const AlertsChannel = "ch:alerts"

// alertsStream is the Redis stream that retains recent alerts for replay.
const alertsStream = "alerts:events"

// defaultStreamMaxLen is the approximate maximum stream length, enforced via
// XADD MAXLEN ~.
const defaultStreamMaxLen int64 = 10000

// AlertBus implements domain.AlertBus using Redis Pub/Sub for live fan-out
// and a Redis Stream for durable, ordered alert retention.
type AlertBus struct {
	rdb    *redis.Client
	maxLen int64
}

// NewAlertBus creates an AlertBus backed by the given Client. A maxLen of
// zero or less falls back to the default stream cap.
func NewAlertBus(c *Client, maxLen int64) *AlertBus {
	if maxLen <= 0 {
		maxLen = defaultStreamMaxLen
	}
	return &AlertBus{rdb: c.Underlying(), maxLen: maxLen}
}

// PublishAlert appends the alert to the retention stream and then publishes
// it on the live channel. The stream is trimmed approximately at the
// configured cap.
func (ab *AlertBus) PublishAlert(ctx context.Context, alert domain.Alert) error {
	payload, err := json.Marshal(map[string]any{
		"event":         "arbitrage_alert",
		"id":            alert.Event.ID,
		"monitor_id":    alert.MonitorID,
		"leg_a":         alert.Spec.LegA.String(),
		"leg_b":         alert.Spec.LegB.String(),
		"direction":     string(alert.Event.Direction),
		"spread_pct":    alert.Event.SpreadPct,
		"threshold_pct": alert.Spec.ThresholdPct,
		"leg_a_price":   alert.Event.LegAPrice,
		"leg_b_price":   alert.Event.LegBPrice,
		"ts":            alert.Event.Timestamp.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("redis: marshal alert %s: %w", alert.MonitorID, err)
	}

	args := &redis.XAddArgs{
		Stream: alertsStream,
		MaxLen: ab.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"payload": payload,
		},
	}
	if err := ab.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redis: stream append %s: %w", alertsStream, err)
	}

	if err := ab.rdb.Publish(ctx, AlertsChannel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", AlertsChannel, err)
	}
	return nil
}

// Subscribe creates a Redis Pub/Sub subscription and returns a read-only
// channel that emits raw byte payloads. The subscription is automatically
// closed when the context is cancelled; the returned channel is closed at
// that point as well.
func (ab *AlertBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	var pubsub *redis.PubSub
	if hasPattern(channel) {
		pubsub = ab.rdb.PSubscribe(ctx, channel)
	} else {
		pubsub = ab.rdb.Subscribe(ctx, channel)
	}

	// Verify the subscription is established by receiving the confirmation.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", channel, err)
	}

	out := make(chan []byte, 128)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// hasPattern returns true when the Redis channel includes glob-style
// wildcards, in which case PSubscribe must be used instead of Subscribe.
func hasPattern(channel string) bool {
	return strings.ContainsAny(channel, "*?[")
}

// StreamRead reads up to count alerts from the retention stream starting
// after lastID. Use "0" or "0-0" as lastID to read from the beginning, or
// "$" to read only new entries. It returns an empty slice (not an error)
// when nothing is available.
func (ab *AlertBus) StreamRead(ctx context.Context, lastID string, count int) ([]domain.StreamMessage, error) {
	// A negative Block makes XRead return immediately; the zero value would
	// block until an entry arrives.
	args := &redis.XReadArgs{
		Streams: []string{alertsStream, lastID},
		Count:   int64(count),
		Block:   -1,
	}

	results, err := ab.rdb.XRead(ctx, args).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis: stream read %s: %w", alertsStream, err)
	}

	var messages []domain.StreamMessage
	for _, s := range results {
		for _, msg := range s.Messages {
			payload, ok := msg.Values["payload"]
			if !ok {
				continue
			}

			var data []byte
			switch v := payload.(type) {
			case string:
				data = []byte(v)
			case []byte:
				data = v
			default:
				continue
			}

			messages = append(messages, domain.StreamMessage{
				ID:      msg.ID,
				Payload: data,
			})
		}
	}

	return messages, nil
}

// Compile-time interface check.
var _ domain.AlertBus = (*AlertBus)(nil)
