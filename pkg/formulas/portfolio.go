package formulas

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// PortfolioReturn is dot(weights, meanReturns).
func PortfolioReturn(weights, meanReturns []float64) float64 {
	if len(weights) == 0 || len(weights) != len(meanReturns) {
		return math.NaN()
	}
	return mat.Dot(mat.NewVecDense(len(weights), weights), mat.NewVecDense(len(meanReturns), meanReturns))
}

// PortfolioVariance is wᵀ·Σ·w. The covariance must be square with len(weights) rows.
func PortfolioVariance(weights []float64, cov mat.Symmetric) float64 {
	n := len(weights)
	if n == 0 || cov.SymmetricDim() != n {
		return math.NaN()
	}
	w := mat.NewVecDense(n, weights)
	return mat.Inner(w, cov, w)
}

// PortfolioVolatility is sqrt(wᵀ·Σ·w). Tiny negative variances from rounding are treated as 0.
func PortfolioVolatility(weights []float64, cov mat.Symmetric) float64 {
	v := PortfolioVariance(weights, cov)
	if math.IsNaN(v) {
		return v
	}
	return math.Sqrt(math.Max(v, 0))
}

// SharpeRatio is ret/vol with a zero risk-free rate; 0 when vol is 0 or not finite.
func SharpeRatio(ret, vol float64) float64 {
	if vol <= 0 || !IsFinite(vol) || !IsFinite(ret) {
		return 0
	}
	return ret / vol
}

// SymFromRows builds a symmetric matrix from a square [][]float64, mirroring the upper triangle.
// Returns nil when the input is empty or not square.
func SymFromRows(rows [][]float64) *mat.SymDense {
	n := len(rows)
	if n == 0 {
		return nil
	}
	data := make([]float64, n*n)
	for i, row := range rows {
		if len(row) != n {
			return nil
		}
		copy(data[i*n:(i+1)*n], row)
	}
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, data[i*n+j])
		}
	}
	return sym
}

// SymToRows copies a symmetric matrix into a fresh [][]float64.
func SymToRows(sym mat.Symmetric) [][]float64 {
	n := sym.SymmetricDim()
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			rows[i][j] = sym.At(i, j)
		}
	}
	return rows
}
