package analytics

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type Handler struct {
	aggregator *Aggregator
	logger     *slog.Logger
}

func NewHandler(aggregator *Aggregator) *Handler {
	return &Handler{
		aggregator: aggregator,
		logger:     slog.Default().With("component", "analytics-handler"),
	}
}

// Stats serves GET /api/v1/analytics. With ?corpus=<name> only that
// corpus's counters are returned, 404 when no event for it has been seen.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := h.aggregator.Stats()
	var body any = stats
	status := http.StatusOK
	if name := r.URL.Query().Get("corpus"); name != "" {
		cs, ok := stats.Corpora[name]
		if ok {
			body = map[string]any{"corpus": name, "stats": cs}
		} else {
			status = http.StatusNotFound
			body = map[string]string{"error": "no analytics for corpus " + name}
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to write analytics response", "error", err)
	}
}
