package formulas

import "math"

// SharpeRatio calculates the annualized Sharpe ratio of a daily return series.
//
// The annual risk-free rate is converted to a daily rate via
// (1+rf)^(1/252) - 1, excess returns are taken against it, and the ratio
// mean(excess)/stddev(excess) is annualized by sqrt(252).
//
// Returns nil when the series is empty or has zero variance: the ratio is
// undefined for those inputs, which is distinct from a computed zero.
func SharpeRatio(returns []float64, annualRiskFree float64) *float64 {
	if len(returns) == 0 {
		return nil
	}

	dailyRf := math.Pow(1+annualRiskFree, 1.0/TradingDaysPerYear) - 1

	excess := make([]float64, len(returns))
	for i, r := range returns {
		excess[i] = r - dailyRf
	}

	sd := StdDev(excess)
	if sd == 0 {
		return nil
	}

	sharpe := Mean(excess) / sd * math.Sqrt(TradingDaysPerYear)
	return &sharpe
}

// Beta calculates the sensitivity of a portfolio's returns to the market's.
//
// The two series are first truncated to equal length by keeping the most
// recent min(len(a), len(b)) points of each. This is tail-truncation, not
// date alignment: the series are assumed to cover the same recent window.
// Beta = sample covariance / population variance of the market, matching the
// numpy defaults the platform has always used.
//
// Returns nil when either series is empty or market variance is zero.
func Beta(portfolio, market []float64) *float64 {
	if len(portfolio) == 0 || len(market) == 0 {
		return nil
	}

	n := len(portfolio)
	if len(market) < n {
		n = len(market)
	}
	portfolio = portfolio[len(portfolio)-n:]
	market = market[len(market)-n:]

	marketVar := Variance(market)
	if marketVar == 0 {
		return nil
	}

	beta := SampleCovariance(portfolio, market) / marketVar
	return &beta
}

// MaxDrawdown calculates the largest peak-to-trough decline of a daily return
// series, reported as a positive fraction. Zero for an empty series.
//
// cum[t] is the cumulative product of (1+returns), runMax[t] its running
// maximum, and the drawdown at t is (cum[t]-runMax[t])/runMax[t]; the result
// is the absolute value of the most negative drawdown.
func MaxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	cum := 1.0
	runMax := math.Inf(-1)
	minDrawdown := 0.0

	for _, r := range returns {
		cum *= 1 + r
		if cum > runMax {
			runMax = cum
		}
		dd := (cum - runMax) / runMax
		if dd < minDrawdown {
			minDrawdown = dd
		}
	}

	return math.Abs(minDrawdown)
}
