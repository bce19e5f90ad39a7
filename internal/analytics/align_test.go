package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestAlignIntersectsDates(t *testing.T) {
	a := ReturnSeries{
		Ticker:  "AAA",
		Dates:   []time.Time{day(1), day(2), day(3), day(4)},
		Returns: []float64{0.01, 0.02, 0.03, 0.04},
	}
	b := ReturnSeries{
		Ticker:  "BBB",
		Dates:   []time.Time{day(2), day(3), day(5)},
		Returns: []float64{0.20, 0.30, 0.50},
	}

	dates, aligned, err := Align([]ReturnSeries{a, b})
	require.NoError(t, err)
	require.Len(t, dates, 2)
	assert.True(t, dates[0].Equal(day(2)))
	assert.True(t, dates[1].Equal(day(3)))
	assert.Equal(t, []float64{0.02, 0.03}, aligned[0])
	assert.Equal(t, []float64{0.20, 0.30}, aligned[1])
}

func TestAlignAscendingRegardlessOfInputOrder(t *testing.T) {
	a := ReturnSeries{
		Ticker:  "AAA",
		Dates:   []time.Time{day(3), day(1), day(2)},
		Returns: []float64{0.3, 0.1, 0.2},
	}

	dates, aligned, err := Align([]ReturnSeries{a})
	require.NoError(t, err)
	require.Len(t, dates, 3)
	assert.True(t, dates[0].Before(dates[1]) && dates[1].Before(dates[2]))
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, aligned[0])
}

func TestAlignEmptyIntersection(t *testing.T) {
	a := ReturnSeries{Ticker: "AAA", Dates: []time.Time{day(1)}, Returns: []float64{0.1}}
	b := ReturnSeries{Ticker: "BBB", Dates: []time.Time{day(2)}, Returns: []float64{0.2}}

	dates, aligned, err := Align([]ReturnSeries{a, b})
	require.NoError(t, err)
	assert.Empty(t, dates)
	require.Len(t, aligned, 2)
	assert.Empty(t, aligned[0])
	assert.Empty(t, aligned[1])
}

func TestAlignNoSeries(t *testing.T) {
	_, _, err := Align(nil)
	assert.ErrorIs(t, err, ErrNoSeries)
}

func TestAlignNormalizesIntraDayTimestamps(t *testing.T) {
	a := ReturnSeries{
		Ticker:  "AAA",
		Dates:   []time.Time{day(1).Add(14 * time.Hour)},
		Returns: []float64{0.1},
	}
	b := ReturnSeries{
		Ticker:  "BBB",
		Dates:   []time.Time{day(1)},
		Returns: []float64{0.2},
	}

	dates, _, err := Align([]ReturnSeries{a, b})
	require.NoError(t, err)
	assert.Len(t, dates, 1)
}
