// Package formulas holds the shared numerical building blocks of the analytics engine.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// AnnualizedMean scales a mean per-period return to yearly terms.
func AnnualizedMean(periodReturns []float64, periodsPerYear int) float64 {
	return Mean(periodReturns) * float64(periodsPerYear)
}

// SimpleReturn returns p/prev - 1, or false when either price makes the ratio meaningless.
func SimpleReturn(prev, p float64) (float64, bool) {
	if !IsFinite(prev) || !IsFinite(p) || prev <= 0 || p <= 0 {
		return 0, false
	}
	r := p/prev - 1
	if !IsFinite(r) {
		return 0, false
	}
	return r, true
}

// CumulativeReturn returns last/first - 1 over a price series.
func CumulativeReturn(prices []float64) float64 {
	if len(prices) < 2 || prices[0] <= 0 {
		return 0
	}
	return prices[len(prices)-1]/prices[0] - 1
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
