// Package indicators produces technical indicator reports (SMA, EMA, RSI,
// MACD) from price history. Indicators that need more history than is
// available are reported as absent, never as zero.
package indicators

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quantfolio/quantfolio/internal/clients/yahoo"
	"github.com/quantfolio/quantfolio/pkg/formulas"
)

// MarketData is the slice of the upstream client the indicator engine needs.
type MarketData interface {
	History(ctx context.Context, ticker, rng string) ([]yahoo.PricePoint, error)
}

// Config carries the indicator tunables.
type Config struct {
	SMAPeriods   []int
	RSIPeriod    int
	MACDFast     int
	MACDSlow     int
	MACDSignal   int
	HistoryRange string
}

// MACDReport is the MACD section of a report, absent as a whole when the
// history is shorter than the slow period.
type MACDReport struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
	Trend     string  `json:"trend"`
}

// Report is a full indicator snapshot for one ticker.
type Report struct {
	Ticker     string              `json:"ticker"`
	LastClose  float64             `json:"last_close"`
	DataPoints int                 `json:"data_points"`
	SMA        map[string]*float64 `json:"sma"`
	EMA        map[string]*float64 `json:"ema"`
	RSI        *float64            `json:"rsi"`
	RSISignal  string              `json:"rsi_signal,omitempty"`
	MACD       *MACDReport         `json:"macd"`
}

// Service builds indicator reports from market data.
type Service struct {
	market MarketData
	cfg    Config
	log    zerolog.Logger
}

func NewService(market MarketData, cfg Config, log zerolog.Logger) *Service {
	return &Service{
		market: market,
		cfg:    cfg,
		log:    log.With().Str("component", "indicators").Logger(),
	}
}

// Report computes the indicator set over the ticker's configured history
// range.
func (s *Service) Report(ctx context.Context, ticker string) (*Report, error) {
	history, err := s.market.History(ctx, ticker, s.cfg.HistoryRange)
	if err != nil {
		return nil, err
	}
	return s.Compute(ticker, yahoo.Closes(history)), nil
}

// Compute builds a report from a raw close series. Exposed separately so
// callers holding history already do not refetch.
func (s *Service) Compute(ticker string, closes []float64) *Report {
	report := &Report{
		Ticker:     ticker,
		DataPoints: len(closes),
		SMA:        make(map[string]*float64, len(s.cfg.SMAPeriods)),
		EMA:        make(map[string]*float64, len(s.cfg.SMAPeriods)),
	}
	if len(closes) > 0 {
		report.LastClose = closes[len(closes)-1]
	}

	for _, period := range s.cfg.SMAPeriods {
		report.SMA[fmt.Sprintf("sma_%d", period)] = formulas.CalculateSMA(closes, period)
		report.EMA[fmt.Sprintf("ema_%d", period)] = formulas.CalculateEMA(closes, period)
	}

	report.RSI = formulas.CalculateRSI(closes, s.cfg.RSIPeriod)
	if report.RSI != nil {
		report.RSISignal = formulas.RSISignal(*report.RSI)
	}

	if macd := formulas.CalculateMACD(closes, s.cfg.MACDFast, s.cfg.MACDSlow, s.cfg.MACDSignal); macd != nil {
		report.MACD = &MACDReport{
			MACD:      macd.MACD,
			Signal:    macd.Signal,
			Histogram: macd.Histogram,
			Trend:     macd.Trend,
		}
	}

	return report
}
