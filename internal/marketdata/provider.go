// Package marketdata supplies daily price series to the analytics engine.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aristath/advisor/internal/domain"
)

// ErrUnavailable signals that a provider has no usable data for an asset.
var ErrUnavailable = errors.New("market data unavailable")

// Provider returns the daily price history of one asset over [start, end].
type Provider interface {
	PriceSeries(ctx context.Context, asset domain.AssetID, start, end time.Time) (domain.PriceSeries, error)
	Name() string
}

// FetchAll fetches every asset concurrently and returns the series in asset order.
// Any failure cancels the remaining fetches and fails the whole call.
func FetchAll(ctx context.Context, p Provider, assets []domain.AssetID, start, end time.Time, workers int) ([]domain.PriceSeries, error) {
	out := make([]domain.PriceSeries, len(assets))

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, asset := range assets {
		g.Go(func() error {
			s, err := p.PriceSeries(gctx, asset, start, end)
			if err != nil {
				return err
			}
			if s.Len() == 0 {
				return fmt.Errorf("%w: %s: empty series", ErrUnavailable, asset)
			}
			out[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// LookbackWindow returns [end - years, end] truncated to whole days in UTC.
func LookbackWindow(end time.Time, years int) (time.Time, time.Time) {
	e := end.UTC().Truncate(24 * time.Hour)
	return e.AddDate(-years, 0, 0), e
}
