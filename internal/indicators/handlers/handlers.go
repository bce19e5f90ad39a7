// Package handlers provides HTTP handlers for technical indicator reports.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/quantfolio/quantfolio/internal/indicators"
	"github.com/quantfolio/quantfolio/internal/marketdata"
)

// Handler handles indicator HTTP requests.
type Handler struct {
	service *indicators.Service
	log     zerolog.Logger
}

func NewHandler(service *indicators.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "indicators").Logger(),
	}
}

// RegisterRoutes registers the indicator routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stocks/{ticker}/indicators", func(w http.ResponseWriter, r *http.Request) {
		h.HandleGetIndicators(w, r, chi.URLParam(r, "ticker"))
	})
}

// HandleGetIndicators handles GET /api/stocks/{ticker}/indicators
func (h *Handler) HandleGetIndicators(w http.ResponseWriter, r *http.Request, ticker string) {
	report, err := h.service.Report(r.Context(), ticker)
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to build indicator report")
		var fetchErr *marketdata.FetchError
		if errors.As(err, &fetchErr) {
			http.Error(w, "Upstream data unavailable", http.StatusBadGateway)
			return
		}
		http.Error(w, "Failed to compute indicators", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": report,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
