package returns

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/pkg/formulas"
)

// Alignment selects how per-asset return dates are combined.
type Alignment int

const (
	// AlignInner keeps only dates on which every asset has an observation.
	AlignInner Alignment = iota
	// AlignOuterZeroFill keeps the union of dates and fills missing returns with 0.
	AlignOuterZeroFill
)

func (a Alignment) String() string {
	switch a {
	case AlignInner:
		return "inner"
	case AlignOuterZeroFill:
		return "outer_zero_fill"
	default:
		return fmt.Sprintf("alignment(%d)", int(a))
	}
}

// ParseAlignment accepts the String form of an Alignment.
func ParseAlignment(s string) (Alignment, error) {
	switch s {
	case "inner", "":
		return AlignInner, nil
	case "outer_zero_fill":
		return AlignOuterZeroFill, nil
	default:
		return 0, fmt.Errorf("unknown alignment %q (want inner or outer_zero_fill)", s)
	}
}

// MinReturnsPerAsset is the least number of valid returns (11 prices) an asset needs to be kept.
const MinReturnsPerAsset = 10

// Builder converts price series into a ReturnMatrix.
type Builder struct {
	alignment Alignment
	log       zerolog.Logger
}

// NewBuilder creates a builder using inner alignment.
func NewBuilder(log zerolog.Logger) *Builder {
	return &Builder{
		alignment: AlignInner,
		log:       log.With().Str("component", "return_builder").Logger(),
	}
}

// SetAlignment changes the date alignment policy.
func (b *Builder) SetAlignment(a Alignment) {
	b.alignment = a
}

// Alignment returns the date alignment policy in use.
func (b *Builder) Alignment() Alignment {
	return b.alignment
}

// assetReturns is the per-date view of one asset's returns.
// gaps are dates the asset traded on but whose return could not be represented.
type assetReturns struct {
	asset domain.AssetID
	valid map[time.Time]float64
	gaps  map[time.Time]struct{}
}

func (a *assetReturns) observed(d time.Time) bool {
	if _, ok := a.valid[d]; ok {
		return true
	}
	_, ok := a.gaps[d]
	return ok
}

// Build computes simple returns per asset, drops assets without enough history, aligns the
// rest and zero-fills residual gaps. Input order is the output asset order.
func (b *Builder) Build(series []domain.PriceSeries) (*ReturnMatrix, error) {
	seen := make(map[domain.AssetID]bool, len(series))
	usable := make([]*assetReturns, 0, len(series))

	for _, s := range series {
		if seen[s.Asset] {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateAsset, s.Asset)
		}
		seen[s.Asset] = true

		if !s.IsIncreasing() {
			b.log.Warn().Str("asset", string(s.Asset)).Msg("Dropping asset with non-increasing timestamps")
			continue
		}

		ar := toReturns(s)
		if len(ar.valid) < MinReturnsPerAsset {
			b.log.Warn().
				Str("asset", string(s.Asset)).
				Int("valid_returns", len(ar.valid)).
				Int("required", MinReturnsPerAsset).
				Msg("Dropping asset with insufficient history")
			continue
		}
		usable = append(usable, ar)
	}

	if len(usable) < MinAssets {
		return nil, fmt.Errorf("%w: %d usable of %d requested", domain.ErrInsufficientAssets, len(usable), len(series))
	}

	dates := b.alignDates(usable)

	assets := make([]domain.AssetID, len(usable))
	cols := make([][]float64, len(usable))
	for i, ar := range usable {
		assets[i] = ar.asset
		cols[i] = make([]float64, 0, len(dates))
	}

	kept := make([]time.Time, 0, len(dates))
	zeroFilled, droppedRows := 0, 0
	row := make([]float64, len(usable))
	for _, d := range dates {
		filled := 0
		for i, ar := range usable {
			if v, ok := ar.valid[d]; ok {
				row[i] = v
			} else {
				row[i] = 0
				filled++
			}
		}
		if filled == len(usable) {
			droppedRows++
			continue
		}
		zeroFilled += filled
		kept = append(kept, d)
		for i := range usable {
			cols[i] = append(cols[i], row[i])
		}
	}

	if zeroFilled > 0 || droppedRows > 0 {
		b.log.Warn().
			Int("zero_filled", zeroFilled).
			Int("dropped_rows", droppedRows).
			Str("alignment", b.alignment.String()).
			Msg("Zero-filled missing returns")
	}

	if len(kept) < MinRows {
		return nil, fmt.Errorf("%w: %d aligned rows, need %d", domain.ErrInsufficientHistory, len(kept), MinRows)
	}

	b.log.Debug().
		Int("assets", len(assets)).
		Int("rows", len(kept)).
		Msg("Built return matrix")

	return NewReturnMatrix(assets, kept, cols, zeroFilled)
}

func (b *Builder) alignDates(usable []*assetReturns) []time.Time {
	set := make(map[time.Time]struct{})
	first := usable[0]
	candidates := make([]time.Time, 0, len(first.valid)+len(first.gaps))

	if b.alignment == AlignOuterZeroFill {
		for _, ar := range usable {
			for d := range ar.valid {
				set[d] = struct{}{}
			}
			for d := range ar.gaps {
				set[d] = struct{}{}
			}
		}
		for d := range set {
			candidates = append(candidates, d)
		}
	} else {
		for d := range first.valid {
			candidates = append(candidates, d)
		}
		for d := range first.gaps {
			candidates = append(candidates, d)
		}
		n := 0
		for _, d := range candidates {
			all := true
			for _, ar := range usable[1:] {
				if !ar.observed(d) {
					all = false
					break
				}
			}
			if all {
				candidates[n] = d
				n++
			}
		}
		candidates = candidates[:n]
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Before(candidates[j]) })
	return candidates
}

// toReturns keys each return by the calendar day (UTC) of its closing observation.
func toReturns(s domain.PriceSeries) *assetReturns {
	ar := &assetReturns{
		asset: s.Asset,
		valid: make(map[time.Time]float64, len(s.Points)),
		gaps:  make(map[time.Time]struct{}),
	}
	for t := 1; t < len(s.Points); t++ {
		d := calendarDay(s.Points[t].Time)
		r, ok := formulas.SimpleReturn(s.Points[t-1].Price, s.Points[t].Price)
		if !ok {
			delete(ar.valid, d)
			ar.gaps[d] = struct{}{}
			continue
		}
		delete(ar.gaps, d)
		ar.valid[d] = r
	}
	return ar
}

func calendarDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
