package formulas

import (
	"math"
	"sort"
)

// Percentile returns the p-th percentile (0-100) of sorted data using linear interpolation
// between order statistics: rank = p/100 * (n-1). sorted must be in ascending order.
// Equal neighbours, including equal infinities, yield that value rather than NaN.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 || p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[n-1]
	}

	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := rank - float64(lo)
	a, b := sorted[lo], sorted[hi]
	switch {
	case frac == 0 || a == b:
		return a
	case math.IsInf(a, -1):
		return a
	case math.IsInf(b, 1):
		return b
	}
	return a + frac*(b-a)
}

// Percentiles sorts a copy of data once and evaluates every requested percentile on it.
func Percentiles(data []float64, ps ...float64) []float64 {
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = Percentile(sorted, p)
	}
	return out
}
