// Package returns turns price histories into an aligned matrix of simple returns.
package returns

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/aristath/advisor/internal/domain"
)

// Minimums a matrix must meet to be usable for covariance estimation.
const (
	MinAssets = 2
	MinRows   = 10
)

// ReturnMatrix holds per-asset simple returns aligned on a common set of dates.
// Returns[i] is the series of Assets[i]; every series has one value per date.
type ReturnMatrix struct {
	Assets     []domain.AssetID `json:"assets"`
	Dates      []time.Time      `json:"dates,omitempty"`
	Returns    [][]float64      `json:"returns"`
	ZeroFilled int              `json:"zero_filled"`
}

// NewReturnMatrix validates its inputs and returns a matrix that owns copies of them.
// dates may be nil when the caller has no calendar for the rows.
func NewReturnMatrix(assets []domain.AssetID, dates []time.Time, series [][]float64, zeroFilled int) (*ReturnMatrix, error) {
	if len(assets) < MinAssets {
		return nil, fmt.Errorf("%w: %d assets", domain.ErrInsufficientAssets, len(assets))
	}
	if len(series) != len(assets) {
		return nil, fmt.Errorf("%w: %d series for %d assets", domain.ErrDegenerateCovariance, len(series), len(assets))
	}

	rows := len(series[0])
	for i, s := range series {
		if len(s) != rows {
			return nil, fmt.Errorf("%w: ragged series for %s (%d vs %d rows)", domain.ErrDegenerateCovariance, assets[i], len(s), rows)
		}
		for j, v := range s {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: non-finite return for %s at row %d", domain.ErrDegenerateCovariance, assets[i], j)
			}
		}
	}
	if rows < MinRows {
		return nil, fmt.Errorf("%w: %d aligned rows", domain.ErrInsufficientHistory, rows)
	}
	if dates != nil && len(dates) != rows {
		return nil, fmt.Errorf("%w: %d dates for %d rows", domain.ErrDegenerateCovariance, len(dates), rows)
	}

	seen := make(map[domain.AssetID]bool, len(assets))
	for _, a := range assets {
		if seen[a] {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateAsset, a)
		}
		seen[a] = true
	}

	m := &ReturnMatrix{
		Assets:     append([]domain.AssetID(nil), assets...),
		Returns:    make([][]float64, len(series)),
		ZeroFilled: zeroFilled,
	}
	if dates != nil {
		m.Dates = append([]time.Time(nil), dates...)
	}
	for i, s := range series {
		m.Returns[i] = append([]float64(nil), s...)
	}
	return m, nil
}

// Rows returns the number of aligned observations.
func (m *ReturnMatrix) Rows() int {
	if len(m.Returns) == 0 {
		return 0
	}
	return len(m.Returns[0])
}

// Cols returns the number of assets.
func (m *ReturnMatrix) Cols() int {
	return len(m.Assets)
}

// Series returns a copy of one asset's returns.
func (m *ReturnMatrix) Series(asset domain.AssetID) ([]float64, bool) {
	for i, a := range m.Assets {
		if a == asset {
			return append([]float64(nil), m.Returns[i]...), true
		}
	}
	return nil, false
}

// Dense lays the matrix out for gonum: one row per observation, one column per asset.
func (m *ReturnMatrix) Dense() *mat.Dense {
	rows, cols := m.Rows(), m.Cols()
	d := mat.NewDense(rows, cols, nil)
	for j, s := range m.Returns {
		for i, v := range s {
			d.Set(i, j, v)
		}
	}
	return d
}
