package formulas

// MACDResult holds the Moving Average Convergence Divergence values at the
// latest price point.
type MACDResult struct {
	MACD      float64
	Signal    float64
	Histogram float64
	Trend     string
}

// CalculateMACD calculates MACD from a chronological price series.
//
// The MACD line is EMA(fast) - EMA(slow). The signal line is the average of
// the trailing `signal` count of MACD values observed at each historical
// point, not a true recursive EMA of the MACD series; when fewer than
// `signal` MACD values exist the MACD line itself is used. The histogram is
// macd - signal, and the trend is "Bullish" when the histogram is positive,
// "Bearish" otherwise.
//
// Returns nil if fewer than `slow` prices exist.
func CalculateMACD(closes []float64, fast, slow, signal int) *MACDResult {
	if len(closes) < slow || fast <= 0 || slow <= fast || signal <= 0 {
		return nil
	}

	fastEMA := EMASeries(closes, fast)
	slowEMA := EMASeries(closes, slow)

	// MACD values exist wherever both EMAs are defined: from index slow-1 on.
	macdValues := make([]float64, 0, len(closes)-slow+1)
	for i := slow - 1; i < len(closes); i++ {
		if isNaN(fastEMA[i]) || isNaN(slowEMA[i]) {
			continue
		}
		macdValues = append(macdValues, fastEMA[i]-slowEMA[i])
	}

	if len(macdValues) == 0 {
		return nil
	}

	macdLine := macdValues[len(macdValues)-1]

	signalLine := macdLine
	if len(macdValues) >= signal {
		signalLine = Mean(macdValues[len(macdValues)-signal:])
	}

	histogram := macdLine - signalLine

	trend := "Bearish"
	if histogram > 0 {
		trend = "Bullish"
	}

	return &MACDResult{
		MACD:      macdLine,
		Signal:    signalLine,
		Histogram: histogram,
		Trend:     trend,
	}
}
