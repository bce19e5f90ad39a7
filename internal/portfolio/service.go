package portfolio

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"github.com/quantfolio/quantfolio/internal/clients/yahoo"
)

// Quoter is the slice of the market data client the valuation service needs.
type Quoter interface {
	Info(ctx context.Context, ticker string) (*yahoo.InfoRecord, error)
}

// Service values portfolios against current quotes.
type Service struct {
	repo   *Repository
	quoter Quoter
	log    zerolog.Logger
}

func NewService(repo *Repository, quoter Quoter, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		quoter: quoter,
		log:    log.With().Str("component", "portfolio").Logger(),
	}
}

func (s *Service) Repository() *Repository {
	return s.repo
}

// Value prices every holding at its current quote. Holdings without a quote
// keep a zero price rather than failing the whole valuation.
func (s *Service) Value(ctx context.Context, portfolioID string) (*Valuation, error) {
	p, err := s.repo.GetPortfolio(portfolioID)
	if err != nil {
		return nil, err
	}
	holdings, err := s.repo.ListHoldings(portfolioID)
	if err != nil {
		return nil, err
	}

	valuation := &Valuation{Portfolio: *p, Holdings: make([]HoldingValue, 0, len(holdings))}
	for _, h := range holdings {
		hv := HoldingValue{Holding: h}
		info, err := s.quoter.Info(ctx, h.Ticker)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", h.Ticker).Msg("No quote for holding, valuing at zero")
		} else {
			hv.CurrentPrice = info.Price()
		}

		hv.MarketValue = round2(h.Shares * hv.CurrentPrice)
		cost := h.Shares * h.CostBasis
		hv.GainLoss = round2(hv.MarketValue - cost)
		if cost > 0 {
			hv.GainLossPct = round2(hv.GainLoss / cost * 100)
		}

		valuation.Holdings = append(valuation.Holdings, hv)
		valuation.TotalValue += hv.MarketValue
		valuation.TotalCost += cost
	}

	valuation.TotalValue = round2(valuation.TotalValue)
	valuation.TotalCost = round2(valuation.TotalCost)
	valuation.GainLoss = round2(valuation.TotalValue - valuation.TotalCost)
	if valuation.TotalCost > 0 {
		valuation.GainLossPct = round2(valuation.GainLoss / valuation.TotalCost * 100)
	}
	return valuation, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
