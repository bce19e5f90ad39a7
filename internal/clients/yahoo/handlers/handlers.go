// Package handlers provides HTTP handlers for raw stock data: quotes and
// price history.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantfolio/quantfolio/internal/clients/yahoo"
	"github.com/quantfolio/quantfolio/internal/marketdata"
)

var validRanges = map[string]bool{
	"1mo": true, "3mo": true, "6mo": true, "1y": true, "2y": true, "5y": true, "max": true,
}

// Handler handles stock data HTTP requests.
type Handler struct {
	client *yahoo.Client
	log    zerolog.Logger
}

func NewHandler(client *yahoo.Client, log zerolog.Logger) *Handler {
	return &Handler{
		client: client,
		log:    log.With().Str("handler", "stocks").Logger(),
	}
}

// HandleGetQuote handles GET /api/stocks/{ticker}/quote
func (h *Handler) HandleGetQuote(w http.ResponseWriter, r *http.Request, ticker string) {
	info, err := h.client.Info(r.Context(), ticker)
	if err != nil {
		h.writeFetchError(w, ticker, err)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope(info))
}

// HandleGetHistory handles GET /api/stocks/{ticker}/history?range=1y
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request, ticker string) {
	rng := r.URL.Query().Get("range")
	if rng == "" {
		rng = "1y"
	}
	if !validRanges[rng] {
		http.Error(w, "Invalid range", http.StatusBadRequest)
		return
	}

	history, err := h.client.History(r.Context(), ticker, rng)
	if err != nil {
		h.writeFetchError(w, ticker, err)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope(map[string]interface{}{
		"ticker": ticker,
		"range":  rng,
		"points": history,
	}))
}

// writeFetchError maps upstream failures to 502 so callers can tell them
// apart from our own errors.
func (h *Handler) writeFetchError(w http.ResponseWriter, ticker string, err error) {
	h.log.Error().Err(err).Str("ticker", ticker).Msg("Upstream fetch failed")

	var fetchErr *marketdata.FetchError
	if errors.As(err, &fetchErr) {
		http.Error(w, "Upstream data unavailable", http.StatusBadGateway)
		return
	}
	http.Error(w, "Failed to fetch data", http.StatusInternalServerError)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func envelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
}
