package formulas

import (
	"math"
	"testing"
)

func TestMean(t *testing.T) {
	tests := []struct {
		name     string
		data     []float64
		expected float64
	}{
		{name: "empty", data: []float64{}, expected: 0},
		{name: "single", data: []float64{5}, expected: 5},
		{name: "simple", data: []float64{1, 2, 3}, expected: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Mean(tt.data); math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("Mean() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStdDevIsPopulation(t *testing.T) {
	// Population std dev of [1,2,3] is sqrt(2/3), not the sample value sqrt(1).
	got := StdDev([]float64{1, 2, 3})
	want := math.Sqrt(2.0 / 3.0)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("StdDev() = %v, want population value %v", got, want)
	}
}

func TestDailyReturns(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		want   []float64
	}{
		{name: "empty", prices: []float64{}, want: []float64{}},
		{name: "single price", prices: []float64{100}, want: []float64{}},
		{name: "up then down", prices: []float64{100, 110, 99}, want: []float64{0.10, -0.10}},
		{name: "zero price guarded", prices: []float64{100, 0, 110}, want: []float64{-1.0, 0.0}},
		{name: "flat", prices: []float64{100, 100, 100}, want: []float64{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DailyReturns(tt.prices)
			if len(got) != len(tt.want) {
				t.Fatalf("DailyReturns() length = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-9 {
					t.Errorf("DailyReturns()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestAnnualizedVolatility(t *testing.T) {
	if got := AnnualizedVolatility([]float64{}); got != 0 {
		t.Errorf("AnnualizedVolatility(empty) = %v, want 0", got)
	}

	// Constant returns have zero volatility.
	if got := AnnualizedVolatility([]float64{0.01, 0.01, 0.01}); got != 0 {
		t.Errorf("AnnualizedVolatility(constant) = %v, want 0", got)
	}

	returns := []float64{0.01, -0.01, 0.01, -0.01}
	want := StdDev(returns) * math.Sqrt(252)
	if got := AnnualizedVolatility(returns); math.Abs(got-want) > 1e-12 {
		t.Errorf("AnnualizedVolatility() = %v, want %v", got, want)
	}
}

func TestCumulativeReturn(t *testing.T) {
	got := CumulativeReturn([]float64{0.1, -0.2, 0.05})
	want := 1.1*0.8*1.05 - 1
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("CumulativeReturn() = %v, want %v", got, want)
	}

	if got := CumulativeReturn(nil); got != 0 {
		t.Errorf("CumulativeReturn(nil) = %v, want 0", got)
	}
}

func TestAnnualizeReturn(t *testing.T) {
	// Half a year of 10% cumulative return roughly doubles when annualized.
	got := AnnualizeReturn(0.10, 126)
	want := math.Pow(1.10, 2) - 1
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("AnnualizeReturn() = %v, want %v", got, want)
	}

	if got := AnnualizeReturn(0.5, 0); got != 0 {
		t.Errorf("AnnualizeReturn(days=0) = %v, want 0", got)
	}
}

func TestWeightedCombine(t *testing.T) {
	series := [][]float64{
		{0.01, 0.02},
		{0.03, -0.02},
	}
	weights := []float64{0.25, 0.75}

	got := WeightedCombine(series, weights)
	want := []float64{0.25*0.01 + 0.75*0.03, 0.25*0.02 + 0.75*-0.02}

	if len(got) != len(want) {
		t.Fatalf("WeightedCombine() length = %d, want %d", len(got), len(want))
	}
	for i := range got {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("WeightedCombine()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if got := WeightedCombine(nil, nil); len(got) != 0 {
		t.Errorf("WeightedCombine(nil) = %v, want empty", got)
	}
}

func TestCorrelationSelfIsOne(t *testing.T) {
	x := []float64{0.01, -0.02, 0.03, 0.005}
	if got := Correlation(x, x); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("Correlation(x, x) = %v, want 1.0", got)
	}
}
