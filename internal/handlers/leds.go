package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mini-rodalies-3d/metroled/internal/render"
	"github.com/mini-rodalies-3d/metroled/internal/service"
)

// LEDService is the query side of service.Service
type LEDService interface {
	Query(ctx context.Context, scheme string) (*service.Result, error)
	Schemes() []string
	Status() service.Status
}

// ErrorResponse is the JSON body of every error reply
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// LEDHandler serves LED frames to display drivers
type LEDHandler struct {
	svc LEDService
}

// NewLEDHandler creates a new handler with the given service
func NewLEDHandler(svc LEDService) *LEDHandler {
	return &LEDHandler{svc: svc}
}

// LEDResponse is the JSON response for GET /api/leds/{scheme}
type LEDResponse struct {
	Scheme         string       `json:"scheme"`
	LastFetch      int64        `json:"lastFetch"`
	LastFetchHuman string       `json:"lastFetchHuman"`
	RefreshID      string       `json:"refreshId,omitempty"`
	Count          int          `json:"count"`
	LEDs           render.Frame `json:"leds"`
}

// SchemesResponse is the JSON response for GET /api/schemes
type SchemesResponse struct {
	Schemes []string `json:"schemes"`
}

// GetLEDs handles GET /api/leds/{scheme}
// Query params: filter (optional, reserved and currently ignored)
func (h *LEDHandler) GetLEDs(w http.ResponseWriter, r *http.Request) {
	scheme := chi.URLParam(r, "scheme")
	_ = r.URL.Query().Get("filter")

	res, err := h.svc.Query(r.Context(), scheme)
	switch {
	case errors.Is(err, service.ErrUnknownScheme):
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error: "Unknown LED scheme",
			Details: map[string]interface{}{
				"scheme":  scheme,
				"schemes": h.svc.Schemes(),
			},
		})
		return
	case errors.Is(err, service.ErrFetchFailed):
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error: "Failed to refresh departures",
			Details: map[string]interface{}{
				"internal": err.Error(),
			},
		})
		return
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to resolve LEDs",
			Details: map[string]interface{}{
				"internal": err.Error(),
			},
		})
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, LEDResponse{
		Scheme:         res.Scheme,
		LastFetch:      res.FetchedAt.Unix(),
		LastFetchHuman: res.FetchedAt.Local().Format(time.RFC1123),
		RefreshID:      res.RefreshID,
		Count:          res.LEDs.Len(),
		LEDs:           res.LEDs,
	})
}

// GetSchemes handles GET /api/schemes
func (h *LEDHandler) GetSchemes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SchemesResponse{Schemes: h.svc.Schemes()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// Register mounts the LED and health routes on r
func (h *LEDHandler) Register(r chi.Router) {
	r.Get("/health", h.GetHealth)
	r.Get("/api/schemes", h.GetSchemes)
	r.Get("/api/leds/{scheme}", h.GetLEDs)
}
