// Package handlers provides HTTP handlers for portfolio analytics:
// metrics, correlation, benchmark comparison and sector allocation.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantfolio/quantfolio/internal/analytics"
	"github.com/quantfolio/quantfolio/internal/portfolio"
)

// Handler handles analytics HTTP requests.
type Handler struct {
	service *analytics.Service
	repo    *portfolio.Repository
	log     zerolog.Logger
}

func NewHandler(service *analytics.Service, repo *portfolio.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		repo:    repo,
		log:     log.With().Str("handler", "analytics").Logger(),
	}
}

// HandleGetMetrics handles GET /api/portfolios/{id}/analytics
func (h *Handler) HandleGetMetrics(w http.ResponseWriter, r *http.Request, portfolioID string) {
	holdings, ok := h.holdingsFor(w, portfolioID)
	if !ok {
		return
	}

	result, err := h.service.PortfolioMetrics(r.Context(), holdings)
	if err != nil {
		h.writeAnalyticsError(w, portfolioID, err)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope(result))
}

// HandleGetCorrelation handles GET /api/portfolios/{id}/correlation
func (h *Handler) HandleGetCorrelation(w http.ResponseWriter, r *http.Request, portfolioID string) {
	holdings, ok := h.holdingsFor(w, portfolioID)
	if !ok {
		return
	}

	tickers := make([]string, 0, len(holdings))
	seen := make(map[string]bool, len(holdings))
	for _, holding := range holdings {
		if !seen[holding.Ticker] {
			seen[holding.Ticker] = true
			tickers = append(tickers, holding.Ticker)
		}
	}

	matrix, err := h.service.CorrelationMatrix(r.Context(), tickers)
	if err != nil {
		h.writeAnalyticsError(w, portfolioID, err)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope(matrix))
}

// HandleGetBenchmark handles GET /api/portfolios/{id}/benchmark
func (h *Handler) HandleGetBenchmark(w http.ResponseWriter, r *http.Request, portfolioID string) {
	holdings, ok := h.holdingsFor(w, portfolioID)
	if !ok {
		return
	}

	comparison, err := h.service.Benchmark(r.Context(), holdings)
	if err != nil {
		h.writeAnalyticsError(w, portfolioID, err)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope(comparison))
}

// HandleGetSectors handles GET /api/portfolios/{id}/sectors
func (h *Handler) HandleGetSectors(w http.ResponseWriter, r *http.Request, portfolioID string) {
	holdings, ok := h.holdingsFor(w, portfolioID)
	if !ok {
		return
	}

	allocation, err := h.service.SectorAllocation(r.Context(), holdings)
	if err != nil {
		h.writeAnalyticsError(w, portfolioID, err)
		return
	}
	h.writeJSON(w, http.StatusOK, envelope(allocation))
}

// holdingsFor loads a portfolio's holdings and converts them for the
// analytics service. It writes the error response itself on failure.
func (h *Handler) holdingsFor(w http.ResponseWriter, portfolioID string) ([]analytics.Holding, bool) {
	if _, err := h.repo.GetPortfolio(portfolioID); err != nil {
		if errors.Is(err, portfolio.ErrNotFound) {
			http.Error(w, "Portfolio not found", http.StatusNotFound)
		} else {
			h.log.Error().Err(err).Msg("Failed to get portfolio")
			http.Error(w, "Failed to get portfolio", http.StatusInternalServerError)
		}
		return nil, false
	}

	stored, err := h.repo.ListHoldings(portfolioID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list holdings")
		http.Error(w, "Failed to list holdings", http.StatusInternalServerError)
		return nil, false
	}

	holdings := make([]analytics.Holding, len(stored))
	for i, s := range stored {
		holdings[i] = analytics.Holding{Ticker: s.Ticker, Shares: s.Shares}
	}
	return holdings, true
}

func (h *Handler) writeAnalyticsError(w http.ResponseWriter, portfolioID string, err error) {
	switch {
	case errors.Is(err, analytics.ErrZeroWeights):
		http.Error(w, "Portfolio has no valued holdings", http.StatusBadRequest)
	case errors.Is(err, analytics.ErrInsufficientData):
		http.Error(w, "Not enough data for this calculation", http.StatusBadRequest)
	default:
		h.log.Error().Err(err).Str("portfolio_id", portfolioID).Msg("Analytics calculation failed")
		http.Error(w, "Analytics calculation failed", http.StatusInternalServerError)
	}
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
