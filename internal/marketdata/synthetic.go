package marketdata

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/advisor/internal/domain"
)

// SyntheticParams describes the daily log-return distribution of a generated series.
type SyntheticParams struct {
	Drift      float64
	Volatility float64
}

var (
	bondParams   = SyntheticParams{Drift: 0.0003, Volatility: 0.005}
	equityParams = SyntheticParams{Drift: 0.0004, Volatility: 0.012}
)

// bondTickers get the low-volatility profile.
var bondTickers = map[domain.AssetID]bool{
	"AGG": true,
	"BND": true,
}

// maxDailyMove clips generated log-returns to +-10%.
const maxDailyMove = 0.1

// SyntheticProvider generates plausible demo prices. The same asset always yields the same path.
type SyntheticProvider struct{}

// NewSyntheticProvider creates a synthetic price generator.
func NewSyntheticProvider() *SyntheticProvider {
	return &SyntheticProvider{}
}

// Name identifies the provider in logs.
func (p *SyntheticProvider) Name() string {
	return "synthetic"
}

// PriceSeries generates one price per calendar day in [start, end], starting at 100.
func (p *SyntheticProvider) PriceSeries(ctx context.Context, asset domain.AssetID, start, end time.Time) (domain.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return domain.PriceSeries{}, err
	}

	params := equityParams
	if bondTickers[asset] {
		params = bondParams
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(asset))
	normal := distuv.Normal{
		Mu:    params.Drift,
		Sigma: params.Volatility,
		Src:   rand.NewPCG(h.Sum64(), 0),
	}

	first := start.UTC().Truncate(24 * time.Hour)
	last := end.UTC().Truncate(24 * time.Hour)

	s := domain.PriceSeries{Asset: asset}
	logPrice := 0.0
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		r := math.Max(-maxDailyMove, math.Min(maxDailyMove, normal.Rand()))
		logPrice += r
		s.Points = append(s.Points, domain.PricePoint{Time: d, Price: 100 * math.Exp(logPrice)})
	}
	return s, nil
}
