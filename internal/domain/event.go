package domain

import "time"

// Direction indicates which leg of a pair is rich when an event fires.
type Direction string

const (
	// DirectionBOverA: leg B priced above leg A (sell B, buy A).
	DirectionBOverA Direction = "b_over_a"
	// DirectionAOverB: leg A priced above leg B (sell A, buy B).
	DirectionAOverB Direction = "a_over_b"
)

// ArbitrageEvent records one armed transition of a monitor. Immutable once
// appended to history.
type ArbitrageEvent struct {
	ID        string // UUID
	Timestamp time.Time
	SpreadPct float64
	Direction Direction
	LegAPrice float64
	LegBPrice float64
}

// Alert is the payload handed to the delivery boundary, at most once per
// armed transition.
type Alert struct {
	MonitorID string
	Spec      MonitorSpec
	Event     ArbitrageEvent
}
