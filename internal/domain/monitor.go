package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// MonitorSpec describes one tracked arbitrage pair. Immutable after creation;
// at most one live monitor may exist per ID.
type MonitorSpec struct {
	ID           string
	LegA         Leg
	LegB         Leg
	ThresholdPct float64
}

// NormalizeMonitorSpec validates a spec and canonicalizes its legs. An empty
// ID is filled with the canonical derived form.
func NormalizeMonitorSpec(spec MonitorSpec) (MonitorSpec, error) {
	var err error
	if spec.LegA, err = NormalizeLeg(spec.LegA); err != nil {
		return MonitorSpec{}, fmt.Errorf("leg A: %w", err)
	}
	if spec.LegB, err = NormalizeLeg(spec.LegB); err != nil {
		return MonitorSpec{}, fmt.Errorf("leg B: %w", err)
	}
	if spec.ThresholdPct <= 0 {
		return MonitorSpec{}, fmt.Errorf("threshold %v must be positive: %w", spec.ThresholdPct, ErrInvalidInput)
	}
	if spec.LegA == spec.LegB {
		return MonitorSpec{}, fmt.Errorf("legs are identical: %w", ErrInvalidInput)
	}
	spec.ID = strings.TrimSpace(spec.ID)
	if spec.ID == "" {
		spec.ID = DeriveMonitorID(spec)
	}
	return spec, nil
}

// DeriveMonitorID builds the canonical identifier for a pair and threshold,
// e.g. "btc-usdt_binance_btc-usdt_okx_0.5".
func DeriveMonitorID(spec MonitorSpec) string {
	thr := strconv.FormatFloat(spec.ThresholdPct, 'f', -1, 64)
	return strings.Join([]string{
		spec.LegA.Symbol, spec.LegA.Exchange,
		spec.LegB.Symbol, spec.LegB.Exchange,
		thr,
	}, "_")
}

// ArbStats summarizes the events a monitor has emitted.
type ArbStats struct {
	Count     int
	MinSpread float64
	MaxSpread float64
	SumSpread float64
}

// Mean returns the average event spread, or 0 when no events have fired.
func (s ArbStats) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.SumSpread / float64(s.Count)
}

// Observe folds one event spread into the running statistics.
func (s ArbStats) Observe(spreadPct float64) ArbStats {
	if s.Count == 0 || spreadPct < s.MinSpread {
		s.MinSpread = spreadPct
	}
	if s.Count == 0 || spreadPct > s.MaxSpread {
		s.MaxSpread = spreadPct
	}
	s.Count++
	s.SumSpread += spreadPct
	return s
}

// MonitorStatus is a point-in-time view of one live monitor for status
// queries. It carries copies only; the monitor's own state stays private.
type MonitorStatus struct {
	Spec          MonitorSpec
	Armed         bool
	LastSpreadPct float64
	Ticks         int
	FetchErrors   int
	Stats         ArbStats
}
