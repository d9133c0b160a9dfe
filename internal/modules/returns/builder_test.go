package returns

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/advisor/internal/domain"
)

var baseDay = time.Date(2024, 1, 1, 21, 0, 0, 0, time.UTC)

// series builds a daily price series starting `offset` days after baseDay.
func series(asset string, offset int, prices []float64) domain.PriceSeries {
	s := domain.PriceSeries{Asset: domain.AssetID(asset)}
	for i, p := range prices {
		s.Points = append(s.Points, domain.PricePoint{
			Time:  baseDay.AddDate(0, 0, offset+i),
			Price: p,
		})
	}
	return s
}

// compound returns n prices starting at 100 that follow the given returns cyclically.
func compound(n int, rets ...float64) []float64 {
	prices := make([]float64, n)
	prices[0] = 100
	for i := 1; i < n; i++ {
		prices[i] = prices[i-1] * (1 + rets[(i-1)%len(rets)])
	}
	return prices
}

func TestBuild_SingleAssetFails(t *testing.T) {
	b := NewBuilder(zerolog.Nop())

	_, err := b.Build([]domain.PriceSeries{series("SPY", 0, compound(30, 0.01))})

	assert.ErrorIs(t, err, domain.ErrInsufficientAssets)
}

func TestBuild_AlignedAssets(t *testing.T) {
	b := NewBuilder(zerolog.Nop())

	m, err := b.Build([]domain.PriceSeries{
		series("AGG", 0, compound(21, 0.01, -0.01)),
		series("SPY", 0, compound(21, 0.02)),
	})
	require.NoError(t, err)

	assert.Equal(t, []domain.AssetID{"AGG", "SPY"}, m.Assets)
	assert.Equal(t, 20, m.Rows())
	assert.Equal(t, 2, m.Cols())
	assert.Equal(t, 0, m.ZeroFilled)

	agg, ok := m.Series("AGG")
	require.True(t, ok)
	for i, r := range agg {
		want := 0.01
		if i%2 == 1 {
			want = -0.01
		}
		assert.InDelta(t, want, r, 1e-12)
	}

	spy, _ := m.Series("SPY")
	for _, r := range spy {
		assert.InDelta(t, 0.02, r, 1e-12)
	}

	// Dates are calendar days of the closing observation.
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), m.Dates[0])
}

func TestBuild_PreservesInputOrder(t *testing.T) {
	b := NewBuilder(zerolog.Nop())

	m, err := b.Build([]domain.PriceSeries{
		series("SPY", 0, compound(15, 0.01)),
		series("AGG", 0, compound(15, 0.002)),
	})
	require.NoError(t, err)

	assert.Equal(t, []domain.AssetID{"SPY", "AGG"}, m.Assets)
}

func TestBuild_DropsAssetWithShortHistory(t *testing.T) {
	b := NewBuilder(zerolog.Nop())

	m, err := b.Build([]domain.PriceSeries{
		series("AGG", 0, compound(20, 0.001)),
		series("NEW", 0, compound(10, 0.001)), // 9 returns
		series("SPY", 0, compound(20, 0.002)),
		{Asset: "GONE"},
	})
	require.NoError(t, err)

	assert.Equal(t, []domain.AssetID{"AGG", "SPY"}, m.Assets)
}

func TestBuild_TenReturnsIsEnough(t *testing.T) {
	b := NewBuilder(zerolog.Nop())

	m, err := b.Build([]domain.PriceSeries{
		series("AGG", 0, compound(11, 0.001)),
		series("SPY", 0, compound(11, 0.002)),
	})
	require.NoError(t, err)
	assert.Equal(t, 10, m.Rows())
}

func TestBuild_InnerAlignmentIntersectsDates(t *testing.T) {
	b := NewBuilder(zerolog.Nop())

	// SPY starts five days later, so only the overlapping returns survive.
	m, err := b.Build([]domain.PriceSeries{
		series("AGG", 0, compound(30, 0.001)),
		series("SPY", 5, compound(30, 0.002)),
	})
	require.NoError(t, err)

	assert.Equal(t, 24, m.Rows())
	assert.Equal(t, 0, m.ZeroFilled)
	assert.Equal(t, time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), m.Dates[0])
}

func TestBuild_OuterAlignmentZeroFills(t *testing.T) {
	b := NewBuilder(zerolog.Nop())
	b.SetAlignment(AlignOuterZeroFill)

	m, err := b.Build([]domain.PriceSeries{
		series("AGG", 0, compound(30, 0.001)),
		series("SPY", 5, compound(30, 0.002)),
	})
	require.NoError(t, err)

	// Union of 29 + 29 return dates offset by 5 days.
	assert.Equal(t, 34, m.Rows())
	assert.Equal(t, 10, m.ZeroFilled)

	spy, _ := m.Series("SPY")
	for i := 0; i < 5; i++ {
		assert.Equal(t, 0.0, spy[i])
	}
}

func TestParseAlignment(t *testing.T) {
	for _, a := range []Alignment{AlignInner, AlignOuterZeroFill} {
		got, err := ParseAlignment(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}

	got, err := ParseAlignment("")
	require.NoError(t, err)
	assert.Equal(t, AlignInner, got)

	_, err = ParseAlignment("forward_fill")
	assert.Error(t, err)
}

func TestBuild_GapIsZeroFilledNotDropped(t *testing.T) {
	b := NewBuilder(zerolog.Nop())

	spy := compound(25, 0.002)
	spy[10] = 0 // invalidates the returns closing on day 10 and day 11

	m, err := b.Build([]domain.PriceSeries{
		series("AGG", 0, compound(25, 0.001)),
		series("SPY", 0, spy),
	})
	require.NoError(t, err)

	assert.Equal(t, 24, m.Rows())
	assert.Equal(t, 2, m.ZeroFilled)

	got, _ := m.Series("SPY")
	assert.Equal(t, 0.0, got[9])
	assert.Equal(t, 0.0, got[10])
	for _, r := range got {
		assert.False(t, math.IsNaN(r))
	}
}

func TestBuild_DropsRowsZeroFilledAcrossAllAssets(t *testing.T) {
	b := NewBuilder(zerolog.Nop())

	agg := compound(25, 0.001)
	spy := compound(25, 0.002)
	agg[10] = math.NaN()
	spy[10] = -1

	m, err := b.Build([]domain.PriceSeries{
		series("AGG", 0, agg),
		series("SPY", 0, spy),
	})
	require.NoError(t, err)

	assert.Equal(t, 22, m.Rows())
	assert.Equal(t, 0, m.ZeroFilled)
}

func TestBuild_KeepsGenuinelyFlatRows(t *testing.T) {
	b := NewBuilder(zerolog.Nop())

	m, err := b.Build([]domain.PriceSeries{
		series("AGG", 0, compound(15, 0)),
		series("SPY", 0, compound(15, 0)),
	})
	require.NoError(t, err)
	assert.Equal(t, 14, m.Rows())
}

func TestBuild_InsufficientAlignedHistory(t *testing.T) {
	b := NewBuilder(zerolog.Nop())

	_, err := b.Build([]domain.PriceSeries{
		series("AGG", 0, compound(15, 0.001)),
		series("SPY", 10, compound(15, 0.002)),
	})

	assert.ErrorIs(t, err, domain.ErrInsufficientHistory)
}

func TestBuild_RejectsDuplicateAssets(t *testing.T) {
	b := NewBuilder(zerolog.Nop())

	_, err := b.Build([]domain.PriceSeries{
		series("SPY", 0, compound(15, 0.001)),
		series("SPY", 0, compound(15, 0.002)),
	})

	assert.ErrorIs(t, err, domain.ErrDuplicateAsset)
}

func TestBuild_DropsNonIncreasingSeries(t *testing.T) {
	b := NewBuilder(zerolog.Nop())

	bad := series("BAD", 0, compound(15, 0.001))
	bad.Points[5].Time = bad.Points[4].Time

	_, err := b.Build([]domain.PriceSeries{
		series("SPY", 0, compound(15, 0.001)),
		bad,
	})

	assert.ErrorIs(t, err, domain.ErrInsufficientAssets)
}
