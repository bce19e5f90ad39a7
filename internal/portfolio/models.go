// Package portfolio persists portfolios and holdings and values them against
// current quotes.
package portfolio

import "time"

// Portfolio is a named collection of holdings.
type Portfolio struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Holding is one position inside a portfolio. Tickers are stored uppercase.
type Holding struct {
	ID          int64     `json:"id"`
	PortfolioID string    `json:"portfolio_id"`
	Ticker      string    `json:"ticker"`
	Shares      float64   `json:"shares"`
	CostBasis   float64   `json:"cost_basis"`
	AddedAt     time.Time `json:"added_at"`
}

// HoldingValue is a holding priced at the current quote.
type HoldingValue struct {
	Holding
	CurrentPrice float64 `json:"current_price"`
	MarketValue  float64 `json:"market_value"`
	GainLoss     float64 `json:"gain_loss"`
	GainLossPct  float64 `json:"gain_loss_pct"`
}

// Valuation is a fully priced portfolio.
type Valuation struct {
	Portfolio   Portfolio      `json:"portfolio"`
	Holdings    []HoldingValue `json:"holdings"`
	TotalValue  float64        `json:"total_value"`
	TotalCost   float64        `json:"total_cost"`
	GainLoss    float64        `json:"gain_loss"`
	GainLossPct float64        `json:"gain_loss_pct"`
}
