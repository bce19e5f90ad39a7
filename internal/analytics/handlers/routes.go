package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the analytics routes. Registrations are flat so
// the portfolio module keeps /portfolios/{id} itself.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/portfolios/{id}/analytics", func(w http.ResponseWriter, r *http.Request) {
		h.HandleGetMetrics(w, r, chi.URLParam(r, "id"))
	})
	r.Get("/portfolios/{id}/correlation", func(w http.ResponseWriter, r *http.Request) {
		h.HandleGetCorrelation(w, r, chi.URLParam(r, "id"))
	})
	r.Get("/portfolios/{id}/benchmark", func(w http.ResponseWriter, r *http.Request) {
		h.HandleGetBenchmark(w, r, chi.URLParam(r, "id"))
	})
	r.Get("/portfolios/{id}/sectors", func(w http.ResponseWriter, r *http.Request) {
		h.HandleGetSectors(w, r, chi.URLParam(r, "id"))
	})
}
