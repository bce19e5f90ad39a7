package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantfolio/quantfolio/internal/clients/yahoo"
	"github.com/quantfolio/quantfolio/pkg/formulas"
)

var (
	// ErrZeroWeights is returned when holdings carry no market value, so no
	// meaningful weighting exists.
	ErrZeroWeights = errors.New("portfolio weights sum to zero")

	// ErrInsufficientData is returned when fewer than two holdings have
	// usable history for a correlation matrix.
	ErrInsufficientData = errors.New("insufficient data for correlation matrix")
)

// MarketData is the slice of the upstream client the analytics service needs.
type MarketData interface {
	History(ctx context.Context, ticker, rng string) ([]yahoo.PricePoint, error)
	Info(ctx context.Context, ticker string) (*yahoo.InfoRecord, error)
}

// Holding is one portfolio position as the analytics layer sees it.
type Holding struct {
	Ticker string
	Shares float64
}

// MetricsResult holds portfolio metrics. Sharpe and Beta are nil when they
// cannot be computed; the other fields default to zero.
type MetricsResult struct {
	Volatility       float64  `json:"volatility"`
	VolatilityPct    float64  `json:"volatility_pct"`
	Sharpe           *float64 `json:"sharpe_ratio"`
	Beta             *float64 `json:"beta"`
	MaxDrawdown      float64  `json:"max_drawdown"`
	MaxDrawdownPct   float64  `json:"max_drawdown_pct"`
	AverageReturn    float64  `json:"average_return"`
	CumulativeReturn float64  `json:"cumulative_return"`
	AnnualizedReturn float64  `json:"annualized_return"`
	DataPoints       int      `json:"data_points"`
}

// CorrelationMatrix is a symmetric ticker-by-ticker Pearson matrix.
type CorrelationMatrix struct {
	Tickers []string                      `json:"tickers"`
	Matrix  map[string]map[string]float64 `json:"matrix"`
}

// BenchmarkComparison compares annualized portfolio performance against the
// configured benchmark over the common date range.
type BenchmarkComparison struct {
	Benchmark       string  `json:"benchmark"`
	PortfolioReturn float64 `json:"portfolio_return"`
	BenchmarkReturn float64 `json:"benchmark_return"`
	Alpha           float64 `json:"alpha"`
	DataPoints      int     `json:"data_points"`
}

// SectorWeight is one slice of a value-weighted sector breakdown.
type SectorWeight struct {
	Sector    string  `json:"sector"`
	Value     float64 `json:"value"`
	WeightPct float64 `json:"weight_pct"`
}

// Config carries the analytics tunables.
type Config struct {
	RiskFreeRate    float64
	BenchmarkTicker string
	HistoryRange    string
}

// Service computes portfolio analytics over the market data client.
type Service struct {
	market MarketData
	cfg    Config
	log    zerolog.Logger
}

func NewService(market MarketData, cfg Config, log zerolog.Logger) *Service {
	return &Service{
		market: market,
		cfg:    cfg,
		log:    log.With().Str("component", "analytics").Logger(),
	}
}

// PortfolioMetrics computes the full metrics set for the holdings. Holdings
// whose history cannot be fetched are skipped with a warning; when none
// remain the zero-value result is returned.
func (s *Service) PortfolioMetrics(ctx context.Context, holdings []Holding) (*MetricsResult, error) {
	weights, tickers, err := s.marketWeights(ctx, holdings)
	if err != nil {
		return nil, err
	}

	series, seriesWeights := s.collectReturns(ctx, tickers, weights)
	if len(series) == 0 {
		return &MetricsResult{}, nil
	}

	_, aligned, err := Align(series)
	if err != nil {
		return nil, err
	}
	if len(aligned[0]) == 0 {
		return &MetricsResult{}, nil
	}

	portfolioReturns := formulas.WeightedCombine(aligned, normalize(seriesWeights))

	result := &MetricsResult{
		DataPoints:       len(portfolioReturns),
		Volatility:       formulas.AnnualizedVolatility(portfolioReturns),
		Sharpe:           formulas.SharpeRatio(portfolioReturns, s.cfg.RiskFreeRate),
		MaxDrawdown:      formulas.MaxDrawdown(portfolioReturns),
		CumulativeReturn: formulas.CumulativeReturn(portfolioReturns),
	}
	// Mean daily return as a percentage, like volatility_pct.
	result.AverageReturn = round4(formulas.Mean(portfolioReturns) * 100)
	result.VolatilityPct = round2(result.Volatility * 100)
	result.MaxDrawdownPct = round2(result.MaxDrawdown * 100)
	result.AnnualizedReturn = formulas.AnnualizeReturn(result.CumulativeReturn, len(portfolioReturns))

	if market := s.benchmarkReturns(ctx); market != nil {
		result.Beta = formulas.Beta(portfolioReturns, market)
	}

	return result, nil
}

// CorrelationMatrix builds the pairwise Pearson matrix over the holdings'
// daily returns. Pairs with fewer than two common dates correlate at 0.0.
func (s *Service) CorrelationMatrix(ctx context.Context, tickers []string) (*CorrelationMatrix, error) {
	series := make([]ReturnSeries, 0, len(tickers))
	for _, ticker := range tickers {
		rs, err := s.returnsFor(ctx, ticker)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("Skipping ticker without history")
			continue
		}
		series = append(series, rs)
	}
	if len(series) < 2 {
		return nil, ErrInsufficientData
	}

	matrix := &CorrelationMatrix{
		Tickers: make([]string, len(series)),
		Matrix:  make(map[string]map[string]float64, len(series)),
	}
	for i, rs := range series {
		matrix.Tickers[i] = rs.Ticker
		matrix.Matrix[rs.Ticker] = make(map[string]float64, len(series))
		matrix.Matrix[rs.Ticker][rs.Ticker] = 1.0
	}

	for i := 0; i < len(series); i++ {
		for j := i + 1; j < len(series); j++ {
			corr := pairCorrelation(series[i], series[j])
			matrix.Matrix[series[i].Ticker][series[j].Ticker] = corr
			matrix.Matrix[series[j].Ticker][series[i].Ticker] = corr
		}
	}
	return matrix, nil
}

// Benchmark compares the holdings' annualized return against the configured
// benchmark over their common dates.
func (s *Service) Benchmark(ctx context.Context, holdings []Holding) (*BenchmarkComparison, error) {
	weights, tickers, err := s.marketWeights(ctx, holdings)
	if err != nil {
		return nil, err
	}

	benchmark, err := s.returnsFor(ctx, s.cfg.BenchmarkTicker)
	if err != nil {
		return nil, fmt.Errorf("fetching benchmark %s: %w", s.cfg.BenchmarkTicker, err)
	}

	series, seriesWeights := s.collectReturns(ctx, tickers, weights)
	if len(series) == 0 {
		return nil, ErrInsufficientData
	}

	// Align holdings and benchmark together so both sides cover the same
	// dates.
	_, aligned, err := Align(append(series, benchmark))
	if err != nil {
		return nil, err
	}
	days := len(aligned[0])
	if days == 0 {
		return nil, ErrInsufficientData
	}

	portfolioReturns := formulas.WeightedCombine(aligned[:len(series)], normalize(seriesWeights))
	benchmarkReturns := aligned[len(series)]

	comparison := &BenchmarkComparison{
		Benchmark:       benchmark.Ticker,
		PortfolioReturn: formulas.AnnualizeReturn(formulas.CumulativeReturn(portfolioReturns), days),
		BenchmarkReturn: formulas.AnnualizeReturn(formulas.CumulativeReturn(benchmarkReturns), days),
		DataPoints:      days,
	}
	comparison.Alpha = comparison.PortfolioReturn - comparison.BenchmarkReturn
	return comparison, nil
}

// SectorAllocation groups current holding value by the quote's sector.
// Holdings without a sector fall under "Unknown".
func (s *Service) SectorAllocation(ctx context.Context, holdings []Holding) ([]SectorWeight, error) {
	values := make(map[string]float64)
	total := 0.0
	for _, h := range holdings {
		info, err := s.market.Info(ctx, h.Ticker)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", h.Ticker).Msg("Skipping holding without quote")
			continue
		}
		value := h.Shares * info.Price()
		sector := info.Sector
		if sector == "" {
			sector = "Unknown"
		}
		values[sector] += value
		total += value
	}
	if total <= 0 {
		return nil, ErrZeroWeights
	}

	allocation := make([]SectorWeight, 0, len(values))
	for sector, value := range values {
		allocation = append(allocation, SectorWeight{
			Sector:    sector,
			Value:     round2(value),
			WeightPct: round2(value / total * 100),
		})
	}
	sort.Slice(allocation, func(i, j int) bool { return allocation[i].Value > allocation[j].Value })
	return allocation, nil
}

// marketWeights prices every holding and returns market-value weights by
// ticker. Duplicate tickers accumulate, so they double-count intentionally.
func (s *Service) marketWeights(ctx context.Context, holdings []Holding) (map[string]float64, []string, error) {
	weights := make(map[string]float64)
	order := make([]string, 0, len(holdings))
	total := 0.0
	for _, h := range holdings {
		info, err := s.market.Info(ctx, h.Ticker)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", h.Ticker).Msg("Skipping holding without quote")
			continue
		}
		// Zero-value holdings stay in: their series still constrains the
		// aligned date range even though they contribute no weight.
		value := h.Shares * info.Price()
		if _, seen := weights[h.Ticker]; !seen {
			order = append(order, h.Ticker)
		}
		weights[h.Ticker] += value
		total += value
	}
	if total <= 0 {
		return nil, nil, ErrZeroWeights
	}
	for ticker := range weights {
		weights[ticker] /= total
	}
	return weights, order, nil
}

// collectReturns fetches histories for the tickers and pairs each surviving
// series with its weight, preserving order.
func (s *Service) collectReturns(ctx context.Context, tickers []string, weights map[string]float64) ([]ReturnSeries, []float64) {
	series := make([]ReturnSeries, 0, len(tickers))
	seriesWeights := make([]float64, 0, len(tickers))
	for _, ticker := range tickers {
		rs, err := s.returnsFor(ctx, ticker)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("Skipping ticker without history")
			continue
		}
		series = append(series, rs)
		seriesWeights = append(seriesWeights, weights[ticker])
	}
	return series, seriesWeights
}

func (s *Service) returnsFor(ctx context.Context, ticker string) (ReturnSeries, error) {
	history, err := s.market.History(ctx, ticker, s.cfg.HistoryRange)
	if err != nil {
		return ReturnSeries{}, err
	}
	if len(history) < 2 {
		return ReturnSeries{}, fmt.Errorf("not enough history for %s", ticker)
	}

	returns := formulas.DailyReturns(yahoo.Closes(history))
	dates := make([]time.Time, len(returns))
	for i := range returns {
		dates[i] = history[i+1].Date
	}
	return ReturnSeries{Ticker: ticker, Dates: dates, Returns: returns}, nil
}

// benchmarkReturns fetches the benchmark's daily returns, nil on failure —
// beta then stays absent rather than failing the whole metrics call.
func (s *Service) benchmarkReturns(ctx context.Context) []float64 {
	rs, err := s.returnsFor(ctx, s.cfg.BenchmarkTicker)
	if err != nil {
		s.log.Warn().Err(err).Str("ticker", s.cfg.BenchmarkTicker).Msg("Benchmark unavailable, beta omitted")
		return nil
	}
	return rs.Returns
}

func pairCorrelation(a, b ReturnSeries) float64 {
	_, aligned, err := Align([]ReturnSeries{a, b})
	if err != nil || len(aligned[0]) < 2 {
		return 0.0
	}
	return formulas.Correlation(aligned[0], aligned[1])
}

func normalize(weights []float64) []float64 {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		return weights
	}
	out := make([]float64, len(weights))
	for i, w := range weights {
		out[i] = w / total
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
