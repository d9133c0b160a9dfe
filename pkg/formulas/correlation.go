package formulas

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// CorrelationFromCovariance calculates the correlation matrix from a covariance matrix.
//
// Formula: corr(i,j) = cov(i,j) / sqrt(cov(i,i) * cov(j,j))
//
// Assets with zero (or invalid) variance correlate 0 with everything else and 1 with themselves.
func CorrelationFromCovariance(cov mat.Symmetric) [][]float64 {
	n := cov.SymmetricDim()
	vars := make([]float64, n)
	for i := 0; i < n; i++ {
		vars[i] = cov.At(i, i)
	}

	corr := make([][]float64, n)
	for i := 0; i < n; i++ {
		corr[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		corr[i][i] = 1.0
		for j := i + 1; j < n; j++ {
			val := 0.0
			if vars[i] > 0 && vars[j] > 0 && IsFinite(vars[i]) && IsFinite(vars[j]) {
				val = cov.At(i, j) / math.Sqrt(vars[i]*vars[j])
			}
			if !IsFinite(val) {
				val = 0
			}
			// Clamp to valid range.
			val = math.Max(-1.0, math.Min(1.0, val))
			corr[i][j] = val
			corr[j][i] = val
		}
	}

	return corr
}
