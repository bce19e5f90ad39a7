package formulas

// RSI signal thresholds.
const (
	RSIOverbought = 70.0
	RSIOversold   = 30.0
)

// CalculateRSI calculates the Relative Strength Index over the trailing
// `period` day-over-day deltas.
//
//	RSI = 100 - (100 / (1 + RS))
//	where RS = average gain / average loss over the trailing period
//
// Gains and losses are simple averages of the last `period` deltas, not
// Wilder-smoothed values, so the result tracks recent momentum only. When the
// average loss is exactly zero the RSI is 100 (maximal, not undefined).
//
// Returns nil if fewer than period+1 prices exist.
func CalculateRSI(closes []float64, period int) *float64 {
	if period <= 0 || len(closes) < period+1 {
		return nil
	}

	// Trailing `period` deltas need the last period+1 prices.
	window := closes[len(closes)-period-1:]

	var gains, losses float64
	for i := 1; i < len(window); i++ {
		delta := window[i] - window[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		result := 100.0
		return &result
	}

	rs := avgGain / avgLoss
	result := 100 - 100/(1+rs)
	return &result
}

// RSISignal classifies an RSI value into a trading signal.
func RSISignal(rsi float64) string {
	switch {
	case rsi >= RSIOverbought:
		return "Overbought"
	case rsi <= RSIOversold:
		return "Oversold"
	default:
		return "Neutral"
	}
}
