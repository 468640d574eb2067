package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/gomarketbot/internal/domain"
)

// MonitorService defines the methods that the monitor handler requires from
// the service layer.
type MonitorService interface {
	StartMonitor(ctx context.Context, spec domain.MonitorSpec) (domain.MonitorSpec, error)
	StopMonitor(ctx context.Context, id string) error
	StopAll(ctx context.Context) int
	Status(id string) (domain.MonitorStatus, error)
	Events(id string) ([]domain.ArbitrageEvent, error)
	List() []domain.MonitorStatus
}

// MonitorHandler serves arbitrage-monitor HTTP endpoints.
type MonitorHandler struct {
	monitors MonitorService
	logger   *slog.Logger
}

// NewMonitorHandler creates a MonitorHandler with the given service and logger.
func NewMonitorHandler(monitors MonitorService, logger *slog.Logger) *MonitorHandler {
	return &MonitorHandler{
		monitors: monitors,
		logger:   logger,
	}
}

// legPayload is the wire form of one monitored leg. An empty market_type
// defaults to spot.
type legPayload struct {
	Symbol     string `json:"symbol"`
	Exchange   string `json:"exchange"`
	MarketType string `json:"market_type"`
}

func (p legPayload) toLeg() domain.Leg {
	mt := p.MarketType
	if mt == "" {
		mt = string(domain.MarketTypeSpot)
	}
	return domain.Leg{
		Symbol:     p.Symbol,
		Exchange:   p.Exchange,
		MarketType: domain.MarketType(mt),
	}
}

func fromLeg(l domain.Leg) legPayload {
	return legPayload{
		Symbol:     l.Symbol,
		Exchange:   l.Exchange,
		MarketType: string(l.MarketType),
	}
}

// startMonitorRequest is the POST /api/monitors body. ID and threshold_pct
// are optional; the service derives an ID and applies the configured default
// threshold when they are absent.
type startMonitorRequest struct {
	ID           string     `json:"id"`
	LegA         legPayload `json:"leg_a"`
	LegB         legPayload `json:"leg_b"`
	ThresholdPct float64    `json:"threshold_pct"`
}

// monitorResponse is the canonical spec echoed back after a start.
type monitorResponse struct {
	ID           string     `json:"id"`
	LegA         legPayload `json:"leg_a"`
	LegB         legPayload `json:"leg_b"`
	ThresholdPct float64    `json:"threshold_pct"`
}

// StartMonitor launches a new arbitrage monitor from a JSON spec.
// POST /api/monitors
func (h *MonitorHandler) StartMonitor(w http.ResponseWriter, r *http.Request) {
	var req startMonitorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if req.LegA.Symbol == "" || req.LegB.Symbol == "" {
		writeError(w, http.StatusBadRequest, "leg_a and leg_b symbols are required")
		return
	}

	spec, err := h.monitors.StartMonitor(r.Context(), domain.MonitorSpec{
		ID:           req.ID,
		LegA:         req.LegA.toLeg(),
		LegB:         req.LegB.toLeg(),
		ThresholdPct: req.ThresholdPct,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err, "start monitor")
		return
	}

	writeJSON(w, http.StatusCreated, monitorResponse{
		ID:           spec.ID,
		LegA:         fromLeg(spec.LegA),
		LegB:         fromLeg(spec.LegB),
		ThresholdPct: spec.ThresholdPct,
	})
}

// monitorStatusResponse is the per-monitor entry in the list endpoint.
type monitorStatusResponse struct {
	ID            string     `json:"id"`
	LegA          legPayload `json:"leg_a"`
	LegB          legPayload `json:"leg_b"`
	ThresholdPct  float64    `json:"threshold_pct"`
	Armed         bool       `json:"armed"`
	LastSpreadPct float64    `json:"last_spread_pct"`
	Ticks         int        `json:"ticks"`
	FetchErrors   int        `json:"fetch_errors"`
	EventCount    int        `json:"event_count"`
}

func toStatusResponse(st domain.MonitorStatus) monitorStatusResponse {
	return monitorStatusResponse{
		ID:            st.Spec.ID,
		LegA:          fromLeg(st.Spec.LegA),
		LegB:          fromLeg(st.Spec.LegB),
		ThresholdPct:  st.Spec.ThresholdPct,
		Armed:         st.Armed,
		LastSpreadPct: st.LastSpreadPct,
		Ticks:         st.Ticks,
		FetchErrors:   st.FetchErrors,
		EventCount:    st.Stats.Count,
	}
}

// listMonitorsResponse wraps the monitor listing.
type listMonitorsResponse struct {
	Monitors []monitorStatusResponse `json:"monitors"`
	Count    int                     `json:"count"`
}

// ListMonitors enumerates every live monitor, sorted by ID.
// GET /api/monitors
func (h *MonitorHandler) ListMonitors(w http.ResponseWriter, r *http.Request) {
	statuses := h.monitors.List()

	out := make([]monitorStatusResponse, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, toStatusResponse(st))
	}

	writeJSON(w, http.StatusOK, listMonitorsResponse{
		Monitors: out,
		Count:    len(out),
	})
}

// eventPayload is the wire form of one retained arbitrage event.
type eventPayload struct {
	ID        string  `json:"id"`
	Timestamp string  `json:"timestamp"`
	SpreadPct float64 `json:"spread_pct"`
	Direction string  `json:"direction"`
	LegAPrice float64 `json:"leg_a_price"`
	LegBPrice float64 `json:"leg_b_price"`
}

// monitorStatsResponse combines running statistics with the retained events.
type monitorStatsResponse struct {
	ID            string         `json:"id"`
	LegA          legPayload     `json:"leg_a"`
	LegB          legPayload     `json:"leg_b"`
	ThresholdPct  float64        `json:"threshold_pct"`
	Armed         bool           `json:"armed"`
	LastSpreadPct float64        `json:"last_spread_pct"`
	Ticks         int            `json:"ticks"`
	FetchErrors   int            `json:"fetch_errors"`
	EventCount    int            `json:"event_count"`
	MinSpreadPct  float64        `json:"min_spread_pct"`
	MaxSpreadPct  float64        `json:"max_spread_pct"`
	MeanSpreadPct float64        `json:"mean_spread_pct"`
	RecentEvents  []eventPayload `json:"recent_events"`
}

// MonitorStats returns statistics and retained events for one live monitor.
// GET /api/monitors/{id}/stats
func (h *MonitorHandler) MonitorStats(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing monitor id")
		return
	}

	status, err := h.monitors.Status(id)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "get monitor stats")
		return
	}

	// The monitor may stop between the two reads; an empty event list is the
	// correct answer then.
	events, err := h.monitors.Events(id)
	if err != nil {
		events = nil
	}

	recent := make([]eventPayload, 0, len(events))
	for _, ev := range events {
		recent = append(recent, eventPayload{
			ID:        ev.ID,
			Timestamp: ev.Timestamp.UTC().Format(time.RFC3339Nano),
			SpreadPct: ev.SpreadPct,
			Direction: string(ev.Direction),
			LegAPrice: ev.LegAPrice,
			LegBPrice: ev.LegBPrice,
		})
	}

	writeJSON(w, http.StatusOK, monitorStatsResponse{
		ID:            status.Spec.ID,
		LegA:          fromLeg(status.Spec.LegA),
		LegB:          fromLeg(status.Spec.LegB),
		ThresholdPct:  status.Spec.ThresholdPct,
		Armed:         status.Armed,
		LastSpreadPct: status.LastSpreadPct,
		Ticks:         status.Ticks,
		FetchErrors:   status.FetchErrors,
		EventCount:    status.Stats.Count,
		MinSpreadPct:  status.Stats.MinSpread,
		MaxSpreadPct:  status.Stats.MaxSpread,
		MeanSpreadPct: status.Stats.Mean(),
		RecentEvents:  recent,
	})
}

// StopMonitor stops one monitor by ID.
// DELETE /api/monitors/{id}
func (h *MonitorHandler) StopMonitor(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing monitor id")
		return
	}

	if err := h.monitors.StopMonitor(r.Context(), id); err != nil {
		writeServiceError(w, r, h.logger, err, "stop monitor")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "stopped",
		"monitor_id": id,
	})
}

// StopAllMonitors stops every live monitor and reports how many were running.
// DELETE /api/monitors
func (h *MonitorHandler) StopAllMonitors(w http.ResponseWriter, r *http.Request) {
	stopped := h.monitors.StopAll(r.Context())

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "stopped",
		"stopped": stopped,
	})
}
