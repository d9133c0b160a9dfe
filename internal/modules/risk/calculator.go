// Package risk computes annualized risk and return statistics for a weighted portfolio.
package risk

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/returns"
	"github.com/aristath/advisor/pkg/formulas"
)

const (
	DefaultTradingDaysPerYear = 252
	// VolatilityFloor replaces a zero or non-finite portfolio volatility.
	VolatilityFloor = 0.001
)

// PortfolioStatistics is a snapshot of one computation. Slices are never shared with inputs.
type PortfolioStatistics struct {
	Assets              []domain.AssetID `json:"assets"`
	Weights             []float64        `json:"weights"`
	MeanReturns         []float64        `json:"mean_returns"`
	Volatilities        []float64        `json:"volatilities"`
	Covariance          [][]float64      `json:"covariance"`
	Correlation         [][]float64      `json:"correlation"`
	PortfolioReturn     float64          `json:"portfolio_return"`
	PortfolioVolatility float64          `json:"portfolio_volatility"`
	SharpeRatio         float64          `json:"sharpe_ratio"`
	Observations        int              `json:"observations"`
	TradingDaysPerYear  int              `json:"trading_days_per_year"`
}

// Calculator derives PortfolioStatistics from a ReturnMatrix and a weight vector.
type Calculator struct {
	tradingDaysPerYear int
	log                zerolog.Logger
}

// NewCalculator creates a calculator annualizing with DefaultTradingDaysPerYear.
func NewCalculator(log zerolog.Logger) *Calculator {
	return &Calculator{
		tradingDaysPerYear: DefaultTradingDaysPerYear,
		log:                log.With().Str("component", "risk_calculator").Logger(),
	}
}

// SetTradingDaysPerYear overrides the annualization factor. Non-positive values are ignored.
func (c *Calculator) SetTradingDaysPerYear(days int) {
	if days > 0 {
		c.tradingDaysPerYear = days
	}
}

// TradingDaysPerYear returns the annualization factor in use.
func (c *Calculator) TradingDaysPerYear() int {
	return c.tradingDaysPerYear
}

// Compute annualizes per-asset means, volatilities and covariance and combines them with weights.
// assets must list the matrix's assets in the matrix's order; weights follow the same order.
func (c *Calculator) Compute(m *returns.ReturnMatrix, assets []domain.AssetID, weights domain.WeightVector) (*PortfolioStatistics, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil return matrix", domain.ErrDegenerateCovariance)
	}
	if err := checkOrder(m.Assets, assets); err != nil {
		return nil, err
	}
	if err := weights.Validate(m.Cols()); err != nil {
		return nil, err
	}

	n, rows := m.Cols(), m.Rows()
	if n < returns.MinAssets || rows < 2 {
		return nil, fmt.Errorf("%w: %d assets x %d rows", domain.ErrDegenerateCovariance, n, rows)
	}
	for i, s := range m.Returns {
		if len(s) != rows {
			return nil, fmt.Errorf("%w: ragged series for %s", domain.ErrDegenerateCovariance, m.Assets[i])
		}
	}

	t := float64(c.tradingDaysPerYear)

	cov := mat.NewSymDense(n, nil)
	stat.CovarianceMatrix(cov, m.Dense(), nil)
	cov.ScaleSym(t, cov)

	means := make([]float64, n)
	vols := make([]float64, n)
	for i, s := range m.Returns {
		means[i] = formulas.AnnualizedMean(s, c.tradingDaysPerYear)
		// Taken from the covariance diagonal so one-hot weights reproduce it exactly.
		vols[i] = math.Sqrt(math.Max(cov.At(i, i), 0))
	}

	w := []float64(weights)
	portReturn := formulas.PortfolioReturn(w, means)
	portVol := formulas.PortfolioVolatility(w, cov)

	if !formulas.IsFinite(portReturn) {
		c.log.Warn().Float64("portfolio_return", portReturn).Msg("Non-finite portfolio return, using floor")
		portReturn = VolatilityFloor
	}
	if !formulas.IsFinite(portVol) || portVol < VolatilityFloor {
		c.log.Debug().Float64("portfolio_volatility", portVol).Msg("Portfolio volatility below floor")
		portVol = VolatilityFloor
	}

	stats := &PortfolioStatistics{
		Assets:              append([]domain.AssetID(nil), m.Assets...),
		Weights:             append([]float64(nil), w...),
		MeanReturns:         means,
		Volatilities:        vols,
		Covariance:          formulas.SymToRows(cov),
		Correlation:         formulas.CorrelationFromCovariance(cov),
		PortfolioReturn:     portReturn,
		PortfolioVolatility: portVol,
		SharpeRatio:         formulas.SharpeRatio(portReturn, portVol),
		Observations:        rows,
		TradingDaysPerYear:  c.tradingDaysPerYear,
	}

	c.log.Debug().
		Int("assets", n).
		Int("observations", rows).
		Float64("portfolio_return", portReturn).
		Float64("portfolio_volatility", portVol).
		Msg("Computed portfolio statistics")

	return stats, nil
}

func checkOrder(have, want []domain.AssetID) error {
	if len(have) != len(want) {
		return fmt.Errorf("%w: matrix has %d assets, weights cover %d", domain.ErrWeightMismatch, len(have), len(want))
	}
	for i := range have {
		if have[i] != want[i] {
			return fmt.Errorf("%w: position %d is %s in the matrix, %s in the request", domain.ErrWeightMismatch, i, have[i], want[i])
		}
	}
	return nil
}

// AssetVolatility returns the annualized volatility of one asset, or false if it is not present.
func (s *PortfolioStatistics) AssetVolatility(asset domain.AssetID) (float64, bool) {
	for i, a := range s.Assets {
		if a == asset {
			return s.Volatilities[i], true
		}
	}
	return 0, false
}

// AssetMeanReturn returns the annualized mean return of one asset, or false if it is not present.
func (s *PortfolioStatistics) AssetMeanReturn(asset domain.AssetID) (float64, bool) {
	for i, a := range s.Assets {
		if a == asset {
			return s.MeanReturns[i], true
		}
	}
	return 0, false
}
