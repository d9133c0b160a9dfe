package analytics

import (
	"errors"
	"fmt"
	"time"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/allocation"
	"github.com/aristath/advisor/internal/modules/optimization"
	"github.com/aristath/advisor/internal/modules/simulation"
)

// ErrInvalidRequest wraps request validation failures.
var ErrInvalidRequest = errors.New("invalid analysis request")

// Input bounds for a full analysis.
const (
	MinInvestment    = 100.0
	MaxInvestment    = 1_000_000.0
	MinHorizonYears  = 1
	MaxHorizonYears  = 50
	MaxLookbackYears = 30
	MaxSimulations   = 100_000
	MaxSamples       = 100_000
	// MaxSimulationCells bounds periods x runs held in memory by one projection.
	MaxSimulationCells = 15_000_000
	// Annualized inputs accepted by a standalone projection.
	MaxAnnualReturn     = 5.0
	MaxAnnualVolatility = 5.0
)

// Settings are the defaults applied to fields a request leaves empty.
type Settings struct {
	Investment         float64
	HorizonYears       int
	LookbackYears      int
	NumSimulations     int
	NumFrontierSamples int
	SimulationSeed     *uint64
	FrontierSeed       *uint64
	ResultTTL          time.Duration
}

// DefaultSettings returns the stock defaults.
func DefaultSettings() Settings {
	simSeed, frontierSeed := uint64(42), uint64(42)
	return Settings{
		Investment:         10000,
		HorizonYears:       10,
		LookbackYears:      5,
		NumSimulations:     1000,
		NumFrontierSamples: optimization.DefaultFrontierSamples,
		SimulationSeed:     &simSeed,
		FrontierSeed:       &frontierSeed,
		ResultTTL:          24 * time.Hour,
	}
}

// Portfolio selects either a named profile or explicit assets and weights.
type Portfolio struct {
	Profile string           `json:"profile,omitempty"`
	Assets  []domain.AssetID `json:"assets,omitempty"`
	Weights []float64        `json:"weights,omitempty"`
}

// Resolve turns the selection into a validated profile.
func (p Portfolio) Resolve() (allocation.Profile, error) {
	if p.Profile != "" {
		if len(p.Assets) > 0 {
			return allocation.Profile{}, fmt.Errorf("%w: profile and assets are mutually exclusive", ErrInvalidRequest)
		}
		return allocation.Get(p.Profile)
	}
	if len(p.Assets) != len(p.Weights) {
		return allocation.Profile{}, fmt.Errorf("%w: %d assets but %d weights", domain.ErrWeightMismatch, len(p.Assets), len(p.Weights))
	}
	if len(p.Assets) < 2 {
		return allocation.Profile{}, fmt.Errorf("%w: need at least 2 assets, got %d", domain.ErrInsufficientAssets, len(p.Assets))
	}

	custom := allocation.Profile{Name: "Custom", Targets: make([]allocation.Target, len(p.Assets))}
	for i, a := range p.Assets {
		custom.Targets[i] = allocation.Target{Asset: a, Weight: p.Weights[i]}
	}
	if err := custom.Validate(); err != nil {
		return allocation.Profile{}, err
	}
	return custom, nil
}

// Window is the historical period prices are drawn from.
type Window struct {
	LookbackYears int       `json:"lookback_years,omitempty"`
	AsOf          time.Time `json:"as_of,omitempty"`
}

// Request asks for a full analysis of one portfolio.
type Request struct {
	Portfolio
	Window
	Investment         float64                `json:"investment"`
	HorizonYears       int                    `json:"horizon_years"`
	Contribution       float64                `json:"contribution"`
	Granularity        simulation.Granularity `json:"granularity"`
	NumSimulations     int                    `json:"num_simulations"`
	NumFrontierSamples int                    `json:"num_frontier_samples"`
	SimulationSeed     *uint64                `json:"simulation_seed,omitempty"`
	FrontierSeed       *uint64                `json:"frontier_seed,omitempty"`
}

// withDefaults fills empty fields from s and checks bounds. tradingDays sizes daily horizons.
func (r Request) withDefaults(s Settings, tradingDays int) (Request, error) {
	if r.Investment == 0 {
		r.Investment = s.Investment
	}
	if r.HorizonYears == 0 {
		r.HorizonYears = s.HorizonYears
	}
	if r.LookbackYears == 0 {
		r.LookbackYears = s.LookbackYears
	}
	if r.NumSimulations == 0 {
		r.NumSimulations = s.NumSimulations
	}
	if r.NumFrontierSamples == 0 {
		r.NumFrontierSamples = s.NumFrontierSamples
	}
	if r.SimulationSeed == nil {
		r.SimulationSeed = s.SimulationSeed
	}
	if r.FrontierSeed == nil {
		r.FrontierSeed = s.FrontierSeed
	}
	if r.Granularity == "" {
		r.Granularity = simulation.GranularityDaily
	}

	switch {
	case r.Investment < MinInvestment || r.Investment > MaxInvestment:
		return r, fmt.Errorf("%w: investment must be within [%.0f, %.0f], got %g", ErrInvalidRequest, MinInvestment, MaxInvestment, r.Investment)
	case r.HorizonYears < MinHorizonYears || r.HorizonYears > MaxHorizonYears:
		return r, fmt.Errorf("%w: horizon_years must be within [%d, %d], got %d", ErrInvalidRequest, MinHorizonYears, MaxHorizonYears, r.HorizonYears)
	case r.LookbackYears < 1 || r.LookbackYears > MaxLookbackYears:
		return r, fmt.Errorf("%w: lookback_years must be within [1, %d], got %d", ErrInvalidRequest, MaxLookbackYears, r.LookbackYears)
	case r.Contribution < 0:
		return r, fmt.Errorf("%w: contribution must be non-negative, got %g", ErrInvalidRequest, r.Contribution)
	case r.NumSimulations < 1 || r.NumSimulations > MaxSimulations:
		return r, fmt.Errorf("%w: num_simulations must be within [1, %d], got %d", ErrInvalidRequest, MaxSimulations, r.NumSimulations)
	case r.NumFrontierSamples < 1 || r.NumFrontierSamples > MaxSamples:
		return r, fmt.Errorf("%w: num_frontier_samples must be within [1, %d], got %d", ErrInvalidRequest, MaxSamples, r.NumFrontierSamples)
	}

	periods := simulation.HorizonFromYears(r.HorizonYears, r.Granularity, tradingDays)
	if periods == 0 {
		return r, fmt.Errorf("%w: unknown granularity %q", domain.ErrInvalidSimulationParameters, r.Granularity)
	}
	if periods*r.NumSimulations > MaxSimulationCells {
		return r, fmt.Errorf("%w: %d periods x %d simulations exceeds %d", ErrInvalidRequest, periods, r.NumSimulations, MaxSimulationCells)
	}
	return r, nil
}

// MetricsRequest asks for portfolio statistics only.
type MetricsRequest struct {
	Portfolio
	Window
}

// FrontierRequest asks for a sampled frontier over a set of assets.
type FrontierRequest struct {
	Assets     []domain.AssetID `json:"assets"`
	NumSamples int              `json:"num_samples"`
	Seed       *uint64          `json:"seed,omitempty"`
	Window
}

// SimulationRequest asks for a projection from explicit annualized statistics.
type SimulationRequest struct {
	PortfolioReturn     float64                `json:"portfolio_return"`
	PortfolioVolatility float64                `json:"portfolio_volatility"`
	Investment          float64                `json:"investment"`
	HorizonYears        int                    `json:"horizon_years"`
	Contribution        float64                `json:"contribution"`
	Granularity         simulation.Granularity `json:"granularity"`
	NumSimulations      int                    `json:"num_simulations"`
	Seed                *uint64                `json:"seed,omitempty"`
}
