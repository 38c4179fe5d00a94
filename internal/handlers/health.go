package handlers

import (
	"net/http"
	"time"

	"github.com/mini-rodalies-3d/metroled/internal/metrics"
)

// HealthResponse is the JSON response for GET /health
type HealthResponse struct {
	Status    string          `json:"status"`
	Feed      string          `json:"feed"`
	LastFetch *time.Time      `json:"lastFetch,omitempty"`
	Skipped   int             `json:"skipped"`
	Schemes   []string        `json:"schemes"`
	Refreshes metrics.Summary `json:"refreshes"`
	Timestamp time.Time       `json:"timestamp"`
}

// GetHealth handles GET /health. It never triggers a refresh.
func (h *LEDHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	st := h.svc.Status()

	resp := HealthResponse{
		Status:    "ok",
		Feed:      "never fetched",
		Skipped:   st.Stats.Skipped(),
		Schemes:   st.Schemes,
		Refreshes: st.Refreshes,
		Timestamp: time.Now().UTC(),
	}
	if !st.LastFetch.IsZero() {
		last := st.LastFetch.UTC()
		resp.LastFetch = &last
		resp.Feed = "stale"
		if st.Fresh {
			resp.Feed = "fresh"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
