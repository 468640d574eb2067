package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/gomarketbot/internal/domain"
)

// AlertStream reads back retained alerts from the bus.
type AlertStream interface {
	StreamRead(ctx context.Context, lastID string, count int) ([]domain.StreamMessage, error)
}

// AlertsHandler serves the alert replay endpoint. It is only registered when
// a Redis-backed alert bus is configured.
type AlertsHandler struct {
	stream AlertStream
	logger *slog.Logger
}

// NewAlertsHandler creates an AlertsHandler with the given stream and logger.
func NewAlertsHandler(stream AlertStream, logger *slog.Logger) *AlertsHandler {
	return &AlertsHandler{
		stream: stream,
		logger: logger,
	}
}

// alertEntry pairs a stream ID with the alert payload as published.
type alertEntry struct {
	StreamID string          `json:"stream_id"`
	Alert    json.RawMessage `json:"alert"`
}

// listAlertsResponse wraps the alert replay output.
type listAlertsResponse struct {
	Alerts []alertEntry `json:"alerts"`
	Count  int          `json:"count"`
}

// ListAlerts replays retained alerts from the stream, oldest first. The
// since parameter is a stream ID cursor; entries strictly after it are
// returned. Pass the last stream_id received to page forward.
// GET /api/alerts?since=<stream-id>&limit=50
func (h *AlertsHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	since := r.URL.Query().Get("since")
	if since == "" {
		since = "0"
	}
	limit := parseLimit(r, 50, 500)

	msgs, err := h.stream.StreamRead(r.Context(), since, limit)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "read alerts")
		return
	}

	alerts := make([]alertEntry, 0, len(msgs))
	for _, m := range msgs {
		if !json.Valid(m.Payload) {
			h.logger.WarnContext(r.Context(), "handler: skipping malformed alert payload",
				slog.String("stream_id", m.ID),
			)
			continue
		}
		alerts = append(alerts, alertEntry{
			StreamID: m.ID,
			Alert:    json.RawMessage(m.Payload),
		})
	}

	writeJSON(w, http.StatusOK, listAlertsResponse{
		Alerts: alerts,
		Count:  len(alerts),
	})
}
