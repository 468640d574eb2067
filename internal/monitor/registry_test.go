package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alanyoungcy/gomarketbot/internal/domain"
	"github.com/alanyoungcy/gomarketbot/internal/history"
)

func newTestRegistry() (*Registry, chan domain.Alert) {
	src := newScriptedSource()
	src.script("exa", price(100))
	src.script("exb", price(100))
	src.script("exc", price(100))

	alerts := make(chan domain.Alert, 32)
	r := NewRegistry(context.Background(), RegistryConfig{
		Interval:    time.Hour,
		ResetFactor: 0.8,
		Source:      src,
		History:     history.NewStore[domain.ArbitrageEvent](100),
		Alerts:      alerts,
		Logger:      testLogger(),
	})
	return r, alerts
}

func specWithID(id, exB string) domain.MonitorSpec {
	return domain.MonitorSpec{
		ID:           id,
		LegA:         domain.Leg{Symbol: "btc-usdt", Exchange: "exa", MarketType: domain.MarketTypeSpot},
		LegB:         domain.Leg{Symbol: "btc-usdt", Exchange: exB, MarketType: domain.MarketTypeSpot},
		ThresholdPct: 0.5,
	}
}

func TestRegistryDuplicateID(t *testing.T) {
	r, _ := newTestRegistry()
	defer r.StopAll()

	id, err := r.Start(specWithID("m1", "exb"))
	if err != nil {
		t.Fatalf("first start: %v", err)
	}
	if id != "m1" {
		t.Fatalf("id = %q, want m1", id)
	}

	if _, err := r.Start(specWithID("m1", "exc")); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("duplicate start: got %v, want ErrAlreadyExists", err)
	}

	// The original monitor is untouched.
	if st, err := r.Status("m1"); err != nil || st.Spec.LegB.Exchange != "exb" {
		t.Errorf("original monitor disturbed: status %+v, err %v", st, err)
	}
}

func TestRegistryRestartAfterStop(t *testing.T) {
	r, _ := newTestRegistry()
	defer r.StopAll()

	if _, err := r.Start(specWithID("m1", "exb")); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := r.Stop("m1"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if _, err := r.Start(specWithID("m1", "exb")); err != nil {
		t.Fatalf("restart after stop: %v", err)
	}
}

func TestRegistryStopUnknown(t *testing.T) {
	r, _ := newTestRegistry()
	if err := r.Stop("nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestRegistryStopAll(t *testing.T) {
	r, _ := newTestRegistry()

	for _, id := range []string{"m1", "m2", "m3"} {
		if _, err := r.Start(specWithID(id, "exb")); err != nil {
			t.Fatalf("start %s: %v", id, err)
		}
	}

	if got := r.StopAll(); got != 3 {
		t.Fatalf("StopAll = %d, want 3", got)
	}
	if got := r.StopAll(); got != 0 {
		t.Fatalf("second StopAll = %d, want 0 (idempotent)", got)
	}

	for _, id := range []string{"m1", "m2", "m3"} {
		if _, err := r.Stats(id); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("stats %s after StopAll: got %v, want ErrNotFound", id, err)
		}
	}
	if r.Count() != 0 {
		t.Errorf("Count = %d, want 0", r.Count())
	}
}

func TestRegistryList(t *testing.T) {
	r, _ := newTestRegistry()
	defer r.StopAll()

	for _, id := range []string{"m2", "m1", "m3"} {
		if _, err := r.Start(specWithID(id, "exb")); err != nil {
			t.Fatalf("start %s: %v", id, err)
		}
	}

	list := r.List()
	if len(list) != 3 {
		t.Fatalf("List len = %d, want 3", len(list))
	}
	for i, want := range []string{"m1", "m2", "m3"} {
		if list[i].Spec.ID != want {
			t.Errorf("List[%d] = %q, want %q (sorted)", i, list[i].Spec.ID, want)
		}
	}
}

func TestRegistryStoppedMonitorStopsTicking(t *testing.T) {
	src := newScriptedSource()
	src.script("exa", price(100))
	src.script("exb", price(100))

	alerts := make(chan domain.Alert, 8)
	r := NewRegistry(context.Background(), RegistryConfig{
		Interval:    5 * time.Millisecond,
		ResetFactor: 0.8,
		Source:      src,
		History:     history.NewStore[domain.ArbitrageEvent](100),
		Alerts:      alerts,
		Logger:      testLogger(),
	})

	if _, err := r.Start(specWithID("m1", "exb")); err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(25 * time.Millisecond)
	if err := r.Stop("m1"); err != nil {
		t.Fatalf("stop: %v", err)
	}

	// Stop joins the monitor goroutine, so the call count is final by the
	// time it returns.
	src.mu.Lock()
	before := src.calls["exa"]
	src.mu.Unlock()

	time.Sleep(50 * time.Millisecond)
	src.mu.Lock()
	after := src.calls["exa"]
	src.mu.Unlock()

	if after != before {
		t.Errorf("stopped monitor still fetching: %d -> %d calls", before, after)
	}
}
