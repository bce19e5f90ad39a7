package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfolio/quantfolio/internal/clients/yahoo"
	"github.com/quantfolio/quantfolio/internal/database"
	"github.com/quantfolio/quantfolio/internal/portfolio"
)

type staticQuoter struct {
	price float64
}

func (q *staticQuoter) Info(_ context.Context, ticker string) (*yahoo.InfoRecord, error) {
	price := q.price
	return &yahoo.InfoRecord{Ticker: ticker, CurrentPrice: &price}, nil
}

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()
	db, err := database.New("file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := portfolio.NewRepository(db.Conn(), zerolog.Nop())
	require.NoError(t, repo.Init())
	svc := portfolio.NewService(repo, &staticQuoter{price: 100}, zerolog.Nop())

	router := chi.NewRouter()
	NewHandler(svc, zerolog.Nop()).RegisterRoutes(router)
	return router
}

func do(router *chi.Mux, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func createPortfolio(t *testing.T, router *chi.Mux, name string) string {
	t.Helper()
	rec := do(router, http.MethodPost, "/portfolios", `{"name":"`+name+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Data portfolio.Portfolio `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Data.ID
}

func TestPortfolioLifecycle(t *testing.T) {
	router := newTestRouter(t)

	id := createPortfolio(t, router, "Main")

	rec := do(router, http.MethodPost, "/portfolios/"+id+"/holdings", `{"ticker":"aapl","shares":10,"cost_basis":50}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(router, http.MethodGet, "/portfolios/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var valued struct {
		Data portfolio.Valuation `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &valued))
	require.Len(t, valued.Data.Holdings, 1)
	assert.Equal(t, "AAPL", valued.Data.Holdings[0].Ticker)
	assert.Equal(t, 1000.0, valued.Data.TotalValue)
	assert.Equal(t, 500.0, valued.Data.GainLoss)

	rec = do(router, http.MethodDelete, "/portfolios/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(router, http.MethodGet, "/portfolios/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPortfoliosEmpty(t *testing.T) {
	router := newTestRouter(t)

	rec := do(router, http.MethodGet, "/portfolios", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestCreatePortfolioValidation(t *testing.T) {
	router := newTestRouter(t)
	rec := do(router, http.MethodPost, "/portfolios", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddHoldingValidation(t *testing.T) {
	router := newTestRouter(t)
	id := createPortfolio(t, router, "Main")

	rec := do(router, http.MethodPost, "/portfolios/"+id+"/holdings", `{"ticker":"AAPL","shares":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodPost, "/portfolios/missing/holdings", `{"ticker":"AAPL","shares":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteHolding(t *testing.T) {
	router := newTestRouter(t)
	id := createPortfolio(t, router, "Main")

	rec := do(router, http.MethodPost, "/portfolios/"+id+"/holdings", `{"ticker":"MSFT","shares":2}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Data portfolio.Holding `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = do(router, http.MethodDelete, "/portfolios/"+id+"/holdings/"+strconv.FormatInt(created.Data.ID, 10), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(router, http.MethodDelete, "/portfolios/"+id+"/holdings/9999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(router, http.MethodDelete, "/portfolios/"+id+"/holdings/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
