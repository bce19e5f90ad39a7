package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the stock data routes. Registrations are flat so
// other modules can add their own /stocks/{ticker}/... endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stocks/{ticker}/quote", func(w http.ResponseWriter, r *http.Request) {
		h.HandleGetQuote(w, r, chi.URLParam(r, "ticker"))
	})
	r.Get("/stocks/{ticker}/history", func(w http.ResponseWriter, r *http.Request) {
		h.HandleGetHistory(w, r, chi.URLParam(r, "ticker"))
	})
}
