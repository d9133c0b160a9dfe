package simulation

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/pkg/formulas"
)

// DefaultWorkers is used when the projector is created with a non-positive worker count.
const DefaultWorkers = 10

// Summary describes the distribution of terminal values.
type Summary struct {
	P5   float64 `json:"p5"`
	P50  float64 `json:"p50"`
	P95  float64 `json:"p95"`
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Result holds every simulated path plus the percentile bands derived from them.
// Values is indexed [period][run]; the percentile paths have one entry per period.
type Result struct {
	Values         [][]float64 `json:"-" msgpack:"-"`
	Terminal       []float64   `json:"terminal"`
	P5             []float64   `json:"p5"`
	P50            []float64   `json:"p50"`
	P95            []float64   `json:"p95"`
	Summary        Summary     `json:"summary"`
	Seed           uint64      `json:"seed"`
	Granularity    Granularity `json:"granularity"`
	HorizonPeriods int         `json:"horizon_periods"`
	NumSimulations int         `json:"num_simulations"`
	Drift          float64     `json:"drift"`
	Scale          float64     `json:"scale"`
}

// Projector runs Monte Carlo projections on a bounded number of goroutines.
type Projector struct {
	workers     int
	tradingDays int
	log         zerolog.Logger
}

// NewProjector creates a projector. workers <= 0 means DefaultWorkers and
// tradingDaysPerYear <= 0 means DefaultTradingDaysPerYear. The trading-day count
// must match the one used to annualize the inputs.
func NewProjector(workers, tradingDaysPerYear int, log zerolog.Logger) *Projector {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if tradingDaysPerYear <= 0 {
		tradingDaysPerYear = DefaultTradingDaysPerYear
	}
	return &Projector{
		workers:     workers,
		tradingDays: tradingDaysPerYear,
		log:         log.With().Str("component", "monte_carlo").Logger(),
	}
}

// TradingDaysPerYear returns the number of daily periods in a simulated year.
func (p *Projector) TradingDaysPerYear() int {
	return p.tradingDays
}

// HorizonPeriods converts a horizon in years to a period count, or 0 for an unknown granularity.
func (p *Projector) HorizonPeriods(years int, g Granularity) int {
	return HorizonFromYears(years, g, p.tradingDays)
}

// Simulate runs NumSimulations independent paths of HorizonPeriods steps each.
// Each step applies v = (v + contribution) * (1 + r) with r ~ N(drift, scale).
// Run i draws from its own PCG stream (seed, i), so output does not depend on the worker count.
// A path that leaves the finite range fails the whole projection.
func (p *Projector) Simulate(params Params) (*Result, error) {
	drift, scale, err := params.perPeriod(p.tradingDays)
	if err != nil {
		return nil, err
	}

	seed := rand.Uint64()
	if params.Seed != nil {
		seed = *params.Seed
	}
	granularity := params.Granularity
	if granularity == "" {
		granularity = GranularityDaily
	}

	start := time.Now()
	horizon, runs := params.HorizonPeriods, params.NumSimulations

	values := make([][]float64, horizon)
	for t := range values {
		values[t] = make([]float64, runs)
	}

	var g errgroup.Group
	g.SetLimit(p.workers)
	for run := 0; run < runs; run++ {
		g.Go(func() error {
			return simulatePath(values, run, params.InitialValue, params.PeriodicContribution, drift, scale, seed)
		})
	}
	if err := g.Wait(); err != nil {
		p.log.Warn().
			Err(err).
			Float64("return", params.PortfolioReturn).
			Float64("volatility", params.PortfolioVolatility).
			Uint64("seed", seed).
			Msg("Monte Carlo projection diverged")
		return nil, err
	}

	res := &Result{
		Values:         values,
		Terminal:       append([]float64(nil), values[horizon-1]...),
		P5:             make([]float64, horizon),
		P50:            make([]float64, horizon),
		P95:            make([]float64, horizon),
		Seed:           seed,
		Granularity:    granularity,
		HorizonPeriods: horizon,
		NumSimulations: runs,
		Drift:          drift,
		Scale:          scale,
	}

	for t := 0; t < horizon; t++ {
		ps := formulas.Percentiles(values[t], 5, 50, 95)
		res.P5[t], res.P50[t], res.P95[t] = ps[0], ps[1], ps[2]
	}
	res.Summary = summarize(res.Terminal)

	p.log.Debug().
		Int("runs", runs).
		Int("periods", horizon).
		Uint64("seed", seed).
		Float64("terminal_p50", res.Summary.P50).
		Dur("duration", time.Since(start)).
		Msg("Monte Carlo projection complete")

	return res, nil
}

// simulatePath fills column run of values. Zero scale is deterministic and draws nothing.
func simulatePath(values [][]float64, run int, initial, contribution, drift, scale float64, seed uint64) error {
	normal := distuv.Normal{
		Mu:    drift,
		Sigma: scale,
		Src:   rand.NewPCG(seed, uint64(run)),
	}

	v := initial
	for t := range values {
		r := drift
		if scale > 0 {
			r = normal.Rand()
		}
		v = (v + contribution) * (1 + r)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: run %d overflowed at period %d", domain.ErrInvalidSimulationParameters, run, t)
		}
		values[t][run] = v
	}
	return nil
}

func summarize(terminal []float64) Summary {
	ps := formulas.Percentiles(terminal, 5, 50, 95)
	s := Summary{
		P5:   ps[0],
		P50:  ps[1],
		P95:  ps[2],
		Mean: formulas.Mean(terminal),
		Min:  math.Inf(1),
		Max:  math.Inf(-1),
	}
	for _, v := range terminal {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	return s
}
