package formulas

import (
	"github.com/markcheno/go-talib"
)

// CalculateSMA calculates the Simple Moving Average over the last `period`
// prices. Returns nil if fewer than `period` points exist.
func CalculateSMA(closes []float64, period int) *float64 {
	if period <= 0 || len(closes) < period {
		return nil
	}

	sma := talib.Sma(closes, period)
	if len(sma) > 0 && !isNaN(sma[len(sma)-1]) {
		result := sma[len(sma)-1]
		return &result
	}

	return nil
}

// CalculateEMA calculates the Exponential Moving Average.
//
// The EMA is seeded with the SMA of the first `period` prices and then
// follows the recurrence ema = (price - ema) * (2/(period+1)) + ema over the
// remaining prices in chronological order.
//
// If fewer than `period` points exist the plain mean of all available prices
// is returned instead. That degradation is documented behavior, not an
// error; callers that need a strict EMA should check the series length first.
func CalculateEMA(closes []float64, period int) *float64 {
	if len(closes) == 0 {
		return nil
	}

	if len(closes) < period {
		mean := Mean(closes)
		return &mean
	}

	ema := talib.Ema(closes, period)
	if len(ema) > 0 && !isNaN(ema[len(ema)-1]) {
		result := ema[len(ema)-1]
		return &result
	}

	mean := Mean(closes[len(closes)-period:])
	return &mean
}

// EMASeries returns the full EMA series for `closes`. Positions before the
// seed point (index period-1) are NaN, matching go-talib conventions.
func EMASeries(closes []float64, period int) []float64 {
	if len(closes) < period {
		return nil
	}
	return talib.Ema(closes, period)
}
