package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the portfolio CRUD routes. Registrations are flat
// so the analytics module can add its own /portfolios/{id}/... endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/portfolios", h.HandleCreatePortfolio)
	r.Get("/portfolios", h.HandleListPortfolios)
	r.Get("/portfolios/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleGetPortfolio(w, r, chi.URLParam(r, "id"))
	})
	r.Delete("/portfolios/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleDeletePortfolio(w, r, chi.URLParam(r, "id"))
	})
	r.Post("/portfolios/{id}/holdings", func(w http.ResponseWriter, r *http.Request) {
		h.HandleAddHolding(w, r, chi.URLParam(r, "id"))
	})
	r.Delete("/portfolios/{id}/holdings/{holdingID}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleDeleteHolding(w, r, chi.URLParam(r, "id"), chi.URLParam(r, "holdingID"))
	})
}
