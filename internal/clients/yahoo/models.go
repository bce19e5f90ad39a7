package yahoo

import "time"

// PricePoint is one daily bar of a ticker's price history. Series are
// ordered strictly ascending by date with no duplicate dates.
type PricePoint struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// InfoRecord holds the current snapshot of a ticker. Optional fields are nil
// when the upstream response omits them; absence is not an error.
type InfoRecord struct {
	Ticker        string   `json:"ticker"`
	CurrentPrice  *float64 `json:"current_price"`
	PreviousClose *float64 `json:"previous_close"`
	Volume        *int64   `json:"volume"`
	MarketCap     *float64 `json:"market_cap"`
	TrailingPE    *float64 `json:"trailing_pe"`
	Sector        string   `json:"sector"`
}

// Price returns the best available current price, zero when unknown.
func (r *InfoRecord) Price() float64 {
	if r.CurrentPrice != nil {
		return *r.CurrentPrice
	}
	return 0
}

// Closes extracts the closing prices of a history series in chronological
// order.
func Closes(history []PricePoint) []float64 {
	closes := make([]float64, len(history))
	for i, p := range history {
		closes[i] = p.Close
	}
	return closes
}
