// Package analytics computes portfolio-level metrics from market data:
// volatility, Sharpe, beta, drawdown, correlation and benchmark comparison.
package analytics

import (
	"errors"
	"sort"
	"time"
)

// ErrNoSeries is returned when alignment is asked for an empty input set.
var ErrNoSeries = errors.New("no return series to align")

// ReturnSeries is a date-indexed daily return series for one ticker.
// Dates and Returns have equal length and dates are strictly ascending.
type ReturnSeries struct {
	Ticker  string
	Dates   []time.Time
	Returns []float64
}

// Align intersects the series onto their common date set, ascending. Each
// output row corresponds to the input series at the same index. An empty
// intersection is a valid zero-length result, not an error.
func Align(series []ReturnSeries) ([]time.Time, [][]float64, error) {
	if len(series) == 0 {
		return nil, nil, ErrNoSeries
	}

	counts := make(map[time.Time]int)
	for _, s := range series {
		seen := make(map[time.Time]bool, len(s.Dates))
		for _, d := range s.Dates {
			d = d.UTC().Truncate(24 * time.Hour)
			if !seen[d] {
				seen[d] = true
				counts[d]++
			}
		}
	}

	common := make([]time.Time, 0, len(counts))
	for d, n := range counts {
		if n == len(series) {
			common = append(common, d)
		}
	}
	sort.Slice(common, func(i, j int) bool { return common[i].Before(common[j]) })

	aligned := make([][]float64, len(series))
	for i, s := range series {
		byDate := make(map[time.Time]float64, len(s.Dates))
		for j, d := range s.Dates {
			byDate[d.UTC().Truncate(24*time.Hour)] = s.Returns[j]
		}
		row := make([]float64, len(common))
		for j, d := range common {
			row[j] = byDate[d]
		}
		aligned[i] = row
	}

	return common, aligned, nil
}
