package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alanyoungcy/gomarketbot/internal/domain"
)

type recordingSender struct {
	name   string
	err    error
	titles []string
	bodies []string
}

func (r *recordingSender) Send(_ context.Context, title, message string) error {
	if r.err != nil {
		return r.err
	}
	r.titles = append(r.titles, title)
	r.bodies = append(r.bodies, message)
	return nil
}

func (r *recordingSender) Name() string { return r.name }

type recordingBus struct {
	alerts []domain.Alert
	err    error
}

func (b *recordingBus) PublishAlert(_ context.Context, alert domain.Alert) error {
	if b.err != nil {
		return b.err
	}
	b.alerts = append(b.alerts, alert)
	return nil
}

func (b *recordingBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, nil
}

func (b *recordingBus) StreamRead(context.Context, string, int) ([]domain.StreamMessage, error) {
	return nil, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testAlert(direction domain.Direction, spread float64) domain.Alert {
	return domain.Alert{
		MonitorID: "m1",
		Spec: domain.MonitorSpec{
			ID:           "m1",
			LegA:         domain.Leg{Symbol: "btc-usdt", Exchange: "binance", MarketType: domain.MarketTypeSpot},
			LegB:         domain.Leg{Symbol: "btc-usdt", Exchange: "okx", MarketType: domain.MarketTypeSpot},
			ThresholdPct: 0.5,
		},
		Event: domain.ArbitrageEvent{
			ID:        "evt-1",
			Timestamp: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
			SpreadPct: spread,
			Direction: direction,
			LegAPrice: 60000,
			LegBPrice: 60360,
		},
	}
}

func TestFormatAlertBuySellOrientation(t *testing.T) {
	got := FormatAlert(testAlert(domain.DirectionBOverA, 0.6))
	want := "Pair: btc-usdt@binance vs btc-usdt@okx\n" +
		"Buy on: binance @ 60000.00000000\n" +
		"Sell on: okx @ 60360.00000000\n" +
		"Spread: 0.60% (threshold 0.50%)\n" +
		"Time: 2025-06-10T12:00:00Z"
	if got != want {
		t.Errorf("FormatAlert b_over_a:\ngot  %q\nwant %q", got, want)
	}

	// Reversed direction swaps the venues and shows the spread magnitude.
	rev := FormatAlert(testAlert(domain.DirectionAOverB, -0.6))
	if !strings.Contains(rev, "Buy on: okx @ 60360.00000000") {
		t.Errorf("a_over_b alert should buy the cheap leg B, got:\n%s", rev)
	}
	if !strings.Contains(rev, "Sell on: binance @ 60000.00000000") {
		t.Errorf("a_over_b alert should sell the rich leg A, got:\n%s", rev)
	}
	if !strings.Contains(rev, "Spread: 0.60%") {
		t.Errorf("spread should be displayed as magnitude, got:\n%s", rev)
	}
}

func TestNotifierPartialFailure(t *testing.T) {
	bad := &recordingSender{name: "bad", err: errors.New("boom")}
	good := &recordingSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, testLogger())

	err := n.Notify(context.Background(), "title", "body")
	if err == nil {
		t.Fatal("expected combined error when a sender fails")
	}
	if !strings.Contains(err.Error(), "bad: boom") {
		t.Errorf("error should name the failing sender, got %v", err)
	}
	if len(good.titles) != 1 {
		t.Errorf("healthy sender should still deliver, got %d sends", len(good.titles))
	}
}

func TestNotifierNoSenders(t *testing.T) {
	n := NewNotifier(nil, testLogger())
	if err := n.Notify(context.Background(), "title", "body"); err != nil {
		t.Errorf("Notify with no senders: %v", err)
	}
}

func TestDispatcherDeliversAndStopsOnClose(t *testing.T) {
	sender := &recordingSender{name: "rec"}
	bus := &recordingBus{}
	alerts := make(chan domain.Alert, 2)
	alerts <- testAlert(domain.DirectionBOverA, 0.7)
	close(alerts)

	d := NewDispatcher(DispatcherConfig{
		Alerts:   alerts,
		Notifier: NewNotifier([]Sender{sender}, testLogger()),
		Bus:      bus,
		Logger:   testLogger(),
	})

	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(bus.alerts) != 1 {
		t.Errorf("bus publishes = %d, want 1", len(bus.alerts))
	}
	if len(sender.titles) != 1 || sender.titles[0] != "Arbitrage opportunity" {
		t.Errorf("sender titles = %v, want one %q", sender.titles, "Arbitrage opportunity")
	}
}

func TestDispatcherDeliveryFailuresDoNotStall(t *testing.T) {
	sender := &recordingSender{name: "dead", err: errors.New("webhook down")}
	bus := &recordingBus{err: errors.New("redis down")}
	alerts := make(chan domain.Alert, 2)
	alerts <- testAlert(domain.DirectionBOverA, 0.7)
	alerts <- testAlert(domain.DirectionAOverB, -0.9)
	close(alerts)

	d := NewDispatcher(DispatcherConfig{
		Alerts:   alerts,
		Notifier: NewNotifier([]Sender{sender}, testLogger()),
		Bus:      bus,
		Logger:   testLogger(),
	})

	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run should swallow delivery errors, got %v", err)
	}
}

func TestDispatcherStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDispatcher(DispatcherConfig{
		Alerts: make(chan domain.Alert),
		Logger: testLogger(),
	})

	if err := d.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run on cancelled ctx = %v, want context.Canceled", err)
	}
}

func TestDiscordSenderPostsWebhook(t *testing.T) {
	var gotBody map[string]string
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := NewDiscordSender(srv.URL)
	if err := s.Send(context.Background(), "Arbitrage opportunity", "details"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q", gotContentType)
	}
	if want := "**Arbitrage opportunity**\ndetails"; gotBody["content"] != want {
		t.Errorf("content = %q, want %q", gotBody["content"], want)
	}
}

func TestDiscordSenderRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := NewDiscordSender(srv.URL)
	err := s.Send(context.Background(), "t", "m")
	if err == nil || !strings.Contains(err.Error(), "unexpected status 429") {
		t.Errorf("Send = %v, want unexpected status 429", err)
	}
}
