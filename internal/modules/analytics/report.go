package analytics

import (
	"time"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/modules/optimization"
	"github.com/aristath/advisor/internal/modules/risk"
	"github.com/aristath/advisor/internal/modules/simulation"
)

// RecentVolatilityWindow is the trailing window, in periods, of AssetDetail.RecentVolatility.
const RecentVolatilityWindow = 21

// Outcome is one terminal-value statistic and its change against the investment.
type Outcome struct {
	Label     string  `json:"label"`
	Value     float64 `json:"value"`
	ChangePct float64 `json:"change_pct"`
}

// AssetDetail describes one holding of the analysed portfolio.
type AssetDetail struct {
	Asset            domain.AssetID `json:"asset"`
	Allocation       float64        `json:"allocation"`
	Amount           float64        `json:"amount"`
	AnnualReturn     float64        `json:"annual_return"`
	AnnualVolatility float64        `json:"annual_volatility"`
	LastPrice        float64        `json:"last_price"`
	HistoricalReturn float64        `json:"historical_return"`
	RecentVolatility float64        `json:"recent_volatility"`
}

// Report is the complete result of one analysis.
type Report struct {
	ID           string                    `json:"id"`
	CreatedAt    time.Time                 `json:"created_at"`
	Profile      string                    `json:"profile"`
	Investment   float64                   `json:"investment"`
	HorizonYears int                       `json:"horizon_years"`
	Contribution float64                   `json:"contribution"`
	Start        time.Time                 `json:"start"`
	End          time.Time                 `json:"end"`
	ZeroFilled   int                       `json:"zero_filled"`
	Statistics   *risk.PortfolioStatistics `json:"statistics"`
	Projection   *simulation.Result        `json:"projection"`
	Outcomes     []Outcome                 `json:"outcomes"`
	Frontier     *optimization.Frontier    `json:"frontier"`
	Assets       []AssetDetail             `json:"assets"`
	Cached       bool                      `json:"cached"`
	ArchiveKey   string                    `json:"archive_key,omitempty"`
}

// Outcome returns the outcome with the given label.
func (r *Report) Outcome(label string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Label == label {
			return o, true
		}
	}
	return Outcome{}, false
}

func outcomes(s simulation.Summary, investment float64) []Outcome {
	mk := func(label string, v float64) Outcome {
		return Outcome{Label: label, Value: v, ChangePct: (v/investment - 1) * 100}
	}
	return []Outcome{
		mk("p5", s.P5),
		mk("p50", s.P50),
		mk("p95", s.P95),
		mk("mean", s.Mean),
	}
}
