// Package formulas provides pure numerical routines for portfolio analytics.
// All functions operate on plain float64 slices and use IEEE-754 double
// precision throughout, so results are reproducible for identical inputs.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization base for daily return series.
const TradingDaysPerYear = 252

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the population standard deviation of a slice of values.
// Population (not sample) variance is the convention for all return-series
// metrics in this package.
func StdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.PopStdDev(data, nil)
}

// Variance calculates the population variance of a slice of values.
func Variance(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.PopVariance(data, nil)
}

// SampleCovariance calculates the sample covariance (n-1 denominator) between
// two equal-length datasets. Beta deliberately mixes sample covariance with
// population variance; see Beta.
func SampleCovariance(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	return stat.Covariance(x, y, nil)
}

// Correlation calculates the Pearson correlation coefficient between two datasets
func Correlation(x, y []float64) float64 {
	if len(x) == 0 || len(y) == 0 || len(x) != len(y) {
		return 0
	}
	return stat.Correlation(x, y, nil)
}

// DailyReturns converts a chronological price series to fractional returns.
// Returns[i] = Price[i+1]/Price[i] - 1; length is len(prices)-1.
func DailyReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = prices[i]/prices[i-1] - 1
		}
	}

	return returns
}

// AnnualizedVolatility calculates annualized volatility from daily returns.
// Formula: population std dev of daily returns x sqrt(252 trading days).
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) == 0 {
		return 0
	}

	return StdDev(dailyReturns) * math.Sqrt(TradingDaysPerYear)
}

// CumulativeReturn compounds a series of fractional returns:
// (1+r1)*(1+r2)*...*(1+rN) - 1.
func CumulativeReturn(returns []float64) float64 {
	cumulative := 1.0
	for _, r := range returns {
		cumulative *= 1 + r
	}
	return cumulative - 1
}

// AnnualizeReturn converts a cumulative return observed over `days` trading
// days to an annual rate: (1+cumulative)^(252/days) - 1.
func AnnualizeReturn(cumulative float64, days int) float64 {
	if days <= 0 {
		return 0
	}
	return math.Pow(1+cumulative, TradingDaysPerYear/float64(days)) - 1
}

// WeightedCombine produces a single return series as the weighted sum of N
// aligned series: combined[t] = sum_i weights[i] * series[i][t].
// All series must share the same length; weights are applied as given
// (callers normalize first).
func WeightedCombine(series [][]float64, weights []float64) []float64 {
	if len(series) == 0 || len(series) != len(weights) {
		return []float64{}
	}

	combined := make([]float64, len(series[0]))
	for i, s := range series {
		for t := range s {
			combined[t] += weights[i] * s[t]
		}
	}
	return combined
}

func isNaN(f float64) bool {
	return f != f
}
