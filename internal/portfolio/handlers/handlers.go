// Package handlers provides HTTP handlers for portfolio management.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantfolio/quantfolio/internal/portfolio"
)

// Handler handles portfolio HTTP requests.
type Handler struct {
	service *portfolio.Service
	log     zerolog.Logger
}

func NewHandler(service *portfolio.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

type createPortfolioRequest struct {
	Name string `json:"name"`
}

type addHoldingRequest struct {
	Ticker    string  `json:"ticker"`
	Shares    float64 `json:"shares"`
	CostBasis float64 `json:"cost_basis"`
}

// HandleCreatePortfolio handles POST /api/portfolios
func (h *Handler) HandleCreatePortfolio(w http.ResponseWriter, r *http.Request) {
	var req createPortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "Invalid request body: name is required", http.StatusBadRequest)
		return
	}

	created, err := h.service.Repository().CreatePortfolio(req.Name)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create portfolio")
		http.Error(w, "Failed to create portfolio", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusCreated, envelope(created))
}

// HandleListPortfolios handles GET /api/portfolios
func (h *Handler) HandleListPortfolios(w http.ResponseWriter, r *http.Request) {
	portfolios, err := h.service.Repository().ListPortfolios()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list portfolios")
		http.Error(w, "Failed to list portfolios", http.StatusInternalServerError)
		return
	}
	if portfolios == nil {
		portfolios = []portfolio.Portfolio{}
	}
	h.writeJSON(w, http.StatusOK, envelope(portfolios))
}

// HandleGetPortfolio handles GET /api/portfolios/{id} — the portfolio valued
// at current quotes.
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request, id string) {
	valuation, err := h.service.Value(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope(valuation))
}

// HandleDeletePortfolio handles DELETE /api/portfolios/{id}
func (h *Handler) HandleDeletePortfolio(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.service.Repository().DeletePortfolio(id); err != nil {
		h.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAddHolding handles POST /api/portfolios/{id}/holdings
func (h *Handler) HandleAddHolding(w http.ResponseWriter, r *http.Request, id string) {
	var req addHoldingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Ticker == "" || req.Shares <= 0 {
		http.Error(w, "Invalid request body: ticker and positive shares are required", http.StatusBadRequest)
		return
	}

	holding, err := h.service.Repository().AddHolding(id, req.Ticker, req.Shares, req.CostBasis)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, envelope(holding))
}

// HandleDeleteHolding handles DELETE /api/portfolios/{id}/holdings/{holdingID}
func (h *Handler) HandleDeleteHolding(w http.ResponseWriter, r *http.Request, id, holdingID string) {
	parsed, err := strconv.ParseInt(holdingID, 10, 64)
	if err != nil {
		http.Error(w, "Invalid holding id", http.StatusBadRequest)
		return
	}
	if err := h.service.Repository().DeleteHolding(id, parsed); err != nil {
		h.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, portfolio.ErrNotFound) {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	h.log.Error().Err(err).Msg("Portfolio store operation failed")
	http.Error(w, "Internal error", http.StatusInternalServerError)
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
