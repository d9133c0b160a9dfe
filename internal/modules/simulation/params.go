// Package simulation projects portfolio value forward with a Monte Carlo random walk.
package simulation

import (
	"fmt"
	"math"

	"github.com/aristath/advisor/internal/domain"
)

// Granularity is the length of one simulated period.
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityMonthly Granularity = "monthly"
)

// DefaultTradingDaysPerYear is the daily period count used when none is configured.
const DefaultTradingDaysPerYear = 252

// PeriodsPerYear returns how many periods of this granularity make a year.
// tradingDays is the length of a year in daily periods.
func (g Granularity) PeriodsPerYear(tradingDays int) (int, bool) {
	switch g {
	case GranularityDaily, "":
		return tradingDays, tradingDays > 0
	case GranularityMonthly:
		return 12, true
	default:
		return 0, false
	}
}

// Params configures one projection. PortfolioReturn and PortfolioVolatility are annualized.
// A nil Seed makes the projector pick one and report it in the result.
type Params struct {
	PortfolioReturn      float64     `json:"portfolio_return"`
	PortfolioVolatility  float64     `json:"portfolio_volatility"`
	InitialValue         float64     `json:"initial_value"`
	PeriodicContribution float64     `json:"periodic_contribution"`
	HorizonPeriods       int         `json:"horizon_periods"`
	NumSimulations       int         `json:"num_simulations"`
	Granularity          Granularity `json:"granularity"`
	Seed                 *uint64     `json:"seed,omitempty"`
}

// HorizonFromYears converts a horizon in years to a period count for g.
func HorizonFromYears(years int, g Granularity, tradingDays int) int {
	ppy, ok := g.PeriodsPerYear(tradingDays)
	if !ok || years <= 0 {
		return 0
	}
	return years * ppy
}

// perPeriod derives the per-period drift and scale and validates everything else.
func (p Params) perPeriod(tradingDays int) (drift, scale float64, err error) {
	ppy, ok := p.Granularity.PeriodsPerYear(tradingDays)
	if !ok {
		return 0, 0, fmt.Errorf("%w: unknown granularity %q", domain.ErrInvalidSimulationParameters, p.Granularity)
	}
	if p.NumSimulations <= 0 {
		return 0, 0, fmt.Errorf("%w: num_simulations must be positive, got %d", domain.ErrInvalidSimulationParameters, p.NumSimulations)
	}
	if p.HorizonPeriods <= 0 {
		return 0, 0, fmt.Errorf("%w: horizon_periods must be positive, got %d", domain.ErrInvalidSimulationParameters, p.HorizonPeriods)
	}
	if p.PortfolioVolatility < 0 {
		return 0, 0, fmt.Errorf("%w: negative volatility %v", domain.ErrInvalidSimulationParameters, p.PortfolioVolatility)
	}

	drift = p.PortfolioReturn / float64(ppy)
	scale = p.PortfolioVolatility / math.Sqrt(float64(ppy))

	for name, v := range map[string]float64{
		"drift":                 drift,
		"scale":                 scale,
		"initial_value":         p.InitialValue,
		"periodic_contribution": p.PeriodicContribution,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, fmt.Errorf("%w: %s is not finite", domain.ErrInvalidSimulationParameters, name)
		}
	}
	return drift, scale, nil
}
