// Package optimization approximates the efficient frontier by random sampling of portfolio weights.
package optimization

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/pkg/formulas"
)

// DefaultFrontierSamples matches the number of random portfolios drawn when none is requested.
const DefaultFrontierSamples = 5000

// Sample is one random portfolio and its annualized risk/return.
type Sample struct {
	Weights    []float64 `json:"weights"`
	Volatility float64   `json:"volatility"`
	Return     float64   `json:"return"`
	Sharpe     float64   `json:"sharpe"`
}

// Frontier is the sampled cloud in generation order plus its notable points.
// Ties resolve to the earliest sample.
type Frontier struct {
	Samples            []Sample `json:"samples"`
	MaxSharpe          Sample   `json:"max_sharpe"`
	MaxSharpeIndex     int      `json:"max_sharpe_index"`
	MinVolatility      Sample   `json:"min_volatility"`
	MinVolatilityIndex int      `json:"min_volatility_index"`
	Seed               uint64   `json:"seed"`
}

// Sampler approximates the efficient frontier by sampling the weight simplex.
type Sampler struct {
	workers int
	log     zerolog.Logger
}

// NewSampler creates a sampler. workers <= 0 means 10.
func NewSampler(workers int, log zerolog.Logger) *Sampler {
	if workers <= 0 {
		workers = 10
	}
	return &Sampler{
		workers: workers,
		log:     log.With().Str("component", "frontier_sampler").Logger(),
	}
}

// Sample draws numSamples portfolios. Weights are independent uniforms normalized to sum to 1,
// which is not uniform over the simplex. Sample k uses PCG stream (seed, k).
func (s *Sampler) Sample(mean []float64, cov [][]float64, numSamples int, seed *uint64) (*Frontier, error) {
	if numSamples <= 0 {
		return nil, fmt.Errorf("%w: num_samples must be positive, got %d", domain.ErrInvalidFrontierParameters, numSamples)
	}
	n := len(mean)
	if n == 0 {
		return nil, fmt.Errorf("%w: no assets", domain.ErrInvalidFrontierParameters)
	}
	if len(cov) != n {
		return nil, fmt.Errorf("%w: covariance has %d rows for %d assets", domain.ErrInvalidFrontierParameters, len(cov), n)
	}
	for i, v := range mean {
		if !formulas.IsFinite(v) {
			return nil, fmt.Errorf("%w: mean return %d is not finite", domain.ErrInvalidFrontierParameters, i)
		}
	}
	for i, row := range cov {
		for j, v := range row {
			if !formulas.IsFinite(v) {
				return nil, fmt.Errorf("%w: covariance[%d][%d] is not finite", domain.ErrInvalidFrontierParameters, i, j)
			}
		}
	}
	sym := formulas.SymFromRows(cov)
	if sym == nil {
		return nil, fmt.Errorf("%w: covariance is not square", domain.ErrInvalidFrontierParameters)
	}

	used := rand.Uint64()
	if seed != nil {
		used = *seed
	}

	start := time.Now()
	samples := make([]Sample, numSamples)

	var g errgroup.Group
	g.SetLimit(s.workers)
	for k := 0; k < numSamples; k++ {
		g.Go(func() error {
			samples[k] = evaluate(randomWeights(n, rand.New(rand.NewPCG(used, uint64(k)))), mean, sym)
			return nil
		})
	}
	_ = g.Wait()

	f := &Frontier{Samples: samples, Seed: used}
	for k, smp := range samples {
		if k == 0 || smp.Sharpe > f.MaxSharpe.Sharpe {
			f.MaxSharpe, f.MaxSharpeIndex = smp, k
		}
		if k == 0 || smp.Volatility < f.MinVolatility.Volatility {
			f.MinVolatility, f.MinVolatilityIndex = smp, k
		}
	}

	s.log.Debug().
		Int("samples", numSamples).
		Int("assets", n).
		Uint64("seed", used).
		Float64("max_sharpe", f.MaxSharpe.Sharpe).
		Dur("duration", time.Since(start)).
		Msg("Frontier sampled")

	return f, nil
}

// randomWeights draws one uniform per asset and normalizes. An all-zero draw becomes equal weights.
func randomWeights(n int, rng *rand.Rand) []float64 {
	w := make([]float64, n)
	sum := 0.0
	for i := range w {
		w[i] = rng.Float64()
		sum += w[i]
	}
	if sum <= 0 {
		for i := range w {
			w[i] = 1 / float64(n)
		}
		return w
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}

func evaluate(w, mean []float64, cov mat.Symmetric) Sample {
	ret := formulas.PortfolioReturn(w, mean)
	vol := formulas.PortfolioVolatility(w, cov)
	return Sample{
		Weights:    w,
		Volatility: vol,
		Return:     ret,
		Sharpe:     formulas.SharpeRatio(ret, vol),
	}
}
