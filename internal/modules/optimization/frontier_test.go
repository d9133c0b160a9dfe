package optimization

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/pkg/formulas"
)

func seedPtr(s uint64) *uint64 {
	return &s
}

var (
	testMean = []float64{0.04, 0.10, 0.07}
	testCov  = [][]float64{
		{0.0025, 0.0005, 0.0010},
		{0.0005, 0.0400, 0.0060},
		{0.0010, 0.0060, 0.0200},
	}
)

func TestSample_ProducesRequestedCount(t *testing.T) {
	f, err := NewSampler(4, zerolog.Nop()).Sample(testMean, testCov, 500, seedPtr(42))
	require.NoError(t, err)

	require.Len(t, f.Samples, 500)
	for _, s := range f.Samples {
		require.Len(t, s.Weights, 3)
		sum := 0.0
		for _, w := range s.Weights {
			assert.GreaterOrEqual(t, w, 0.0)
			sum += w
		}
		assert.InDelta(t, 1.0, sum, 1e-6)
	}
	assert.Equal(t, uint64(42), f.Seed)
}

func TestSample_MetricsMatchFormulas(t *testing.T) {
	f, err := NewSampler(2, zerolog.Nop()).Sample(testMean, testCov, 50, seedPtr(1))
	require.NoError(t, err)

	cov := formulas.SymFromRows(testCov)
	for _, s := range f.Samples {
		assert.InDelta(t, formulas.PortfolioReturn(s.Weights, testMean), s.Return, 1e-15)
		assert.InDelta(t, formulas.PortfolioVolatility(s.Weights, cov), s.Volatility, 1e-15)
		assert.InDelta(t, s.Return/s.Volatility, s.Sharpe, 1e-12)
	}
}

func TestSample_ExtremesAreFirstOccurrence(t *testing.T) {
	f, err := NewSampler(4, zerolog.Nop()).Sample(testMean, testCov, 1000, seedPtr(7))
	require.NoError(t, err)

	for k, s := range f.Samples {
		if k < f.MaxSharpeIndex {
			assert.Less(t, s.Sharpe, f.MaxSharpe.Sharpe)
		} else {
			assert.LessOrEqual(t, s.Sharpe, f.MaxSharpe.Sharpe)
		}
		if k < f.MinVolatilityIndex {
			assert.Greater(t, s.Volatility, f.MinVolatility.Volatility)
		} else {
			assert.GreaterOrEqual(t, s.Volatility, f.MinVolatility.Volatility)
		}
	}
	assert.Equal(t, f.Samples[f.MaxSharpeIndex], f.MaxSharpe)
	assert.Equal(t, f.Samples[f.MinVolatilityIndex], f.MinVolatility)
}

func TestSample_TiesResolveToFirstSample(t *testing.T) {
	// Riskless assets with equal means give every portfolio a zero Sharpe ratio and zero volatility.
	mean := []float64{0.05, 0.05}
	cov := [][]float64{{0, 0}, {0, 0}}

	f, err := NewSampler(4, zerolog.Nop()).Sample(mean, cov, 100, seedPtr(3))
	require.NoError(t, err)

	for _, s := range f.Samples {
		assert.InDelta(t, 0.05, s.Return, 1e-12)
		assert.Equal(t, 0.0, s.Sharpe)
		assert.Equal(t, 0.0, s.Volatility)
	}
	assert.Equal(t, 0, f.MaxSharpeIndex)
	assert.Equal(t, 0, f.MinVolatilityIndex)
	assert.Equal(t, f.Samples[0], f.MaxSharpe)
	assert.Equal(t, f.Samples[0], f.MinVolatility)
}

func TestSample_ZeroVolatilitySharpeIsZero(t *testing.T) {
	mean := []float64{0.05, 0.03}
	cov := [][]float64{{0, 0}, {0, 0}}

	f, err := NewSampler(1, zerolog.Nop()).Sample(mean, cov, 20, seedPtr(3))
	require.NoError(t, err)

	for _, s := range f.Samples {
		assert.Equal(t, 0.0, s.Volatility)
		assert.Equal(t, 0.0, s.Sharpe)
	}
	assert.Equal(t, 0, f.MaxSharpeIndex)
	assert.Equal(t, 0, f.MinVolatilityIndex)
}

func TestSample_DeterministicAcrossWorkerCounts(t *testing.T) {
	a, err := NewSampler(1, zerolog.Nop()).Sample(testMean, testCov, 300, seedPtr(42))
	require.NoError(t, err)
	b, err := NewSampler(16, zerolog.Nop()).Sample(testMean, testCov, 300, seedPtr(42))
	require.NoError(t, err)
	c, err := NewSampler(5, zerolog.Nop()).Sample(testMean, testCov, 300, seedPtr(42))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, a, c)

	d, err := NewSampler(5, zerolog.Nop()).Sample(testMean, testCov, 300, seedPtr(43))
	require.NoError(t, err)
	assert.NotEqual(t, a.Samples, d.Samples)
}

func TestSample_MaxSharpeBeatsEqualWeights(t *testing.T) {
	f, err := NewSampler(4, zerolog.Nop()).Sample(testMean, testCov, 5000, seedPtr(42))
	require.NoError(t, err)

	equal := []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}
	ret := formulas.PortfolioReturn(equal, testMean)
	vol := formulas.PortfolioVolatility(equal, formulas.SymFromRows(testCov))

	assert.GreaterOrEqual(t, f.MaxSharpe.Sharpe, formulas.SharpeRatio(ret, vol))
	assert.LessOrEqual(t, f.MinVolatility.Volatility, vol)
}

func TestSample_InvalidParameters(t *testing.T) {
	s := NewSampler(2, zerolog.Nop())

	tests := []struct {
		name       string
		mean       []float64
		cov        [][]float64
		numSamples int
	}{
		{"zero samples", testMean, testCov, 0},
		{"negative samples", testMean, testCov, -5},
		{"no assets", nil, nil, 10},
		{"row count mismatch", testMean, testCov[:2], 10},
		{"ragged covariance", []float64{0.1, 0.2}, [][]float64{{1, 0}, {0}}, 10},
		{"nan mean", []float64{math.NaN(), 0.1}, [][]float64{{1, 0}, {0, 1}}, 10},
		{"inf covariance", []float64{0.1, 0.1}, [][]float64{{math.Inf(1), 0}, {0, 1}}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Sample(tt.mean, tt.cov, tt.numSamples, seedPtr(1))
			assert.ErrorIs(t, err, domain.ErrInvalidFrontierParameters)
		})
	}
}

func TestRandomWeights_NormalizesUniformDraws(t *testing.T) {
	f, err := NewSampler(1, zerolog.Nop()).Sample([]float64{0.1}, [][]float64{{0.04}}, 3, seedPtr(9))
	require.NoError(t, err)

	for _, s := range f.Samples {
		assert.Equal(t, []float64{1}, s.Weights)
		assert.InDelta(t, 0.2, s.Volatility, 1e-12)
	}
	// Every sample is identical, so the first one wins both extremes.
	assert.Equal(t, 0, f.MaxSharpeIndex)
	assert.Equal(t, 0, f.MinVolatilityIndex)
}
