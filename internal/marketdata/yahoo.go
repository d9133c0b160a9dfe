package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/advisor/internal/clients/yahoo"
	"github.com/aristath/advisor/internal/domain"
)

// HistoricalPriceSource is the part of the Yahoo client the provider needs.
type HistoricalPriceSource interface {
	HistoricalPrices(ctx context.Context, symbol string, start, end time.Time) ([]yahoo.HistoricalPrice, error)
}

// YahooProvider serves adjusted closes from Yahoo Finance.
type YahooProvider struct {
	client HistoricalPriceSource
}

// NewYahooProvider wraps a Yahoo client.
func NewYahooProvider(client HistoricalPriceSource) *YahooProvider {
	return &YahooProvider{client: client}
}

// Name identifies the provider in logs.
func (p *YahooProvider) Name() string {
	return "yahoo"
}

// PriceSeries fetches adjusted closes. Any client failure is reported as ErrUnavailable.
func (p *YahooProvider) PriceSeries(ctx context.Context, asset domain.AssetID, start, end time.Time) (domain.PriceSeries, error) {
	bars, err := p.client.HistoricalPrices(ctx, string(asset), start, end)
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("%w: %s: %w", ErrUnavailable, asset, err)
	}

	s := domain.PriceSeries{Asset: asset, Points: make([]domain.PricePoint, 0, len(bars))}
	for _, b := range bars {
		// Yahoo occasionally repeats the last bar with an intraday timestamp.
		if n := len(s.Points); n > 0 && !b.Date.After(s.Points[n-1].Time) {
			continue
		}
		s.Points = append(s.Points, domain.PricePoint{Time: b.Date, Price: b.AdjClose})
	}
	return s, nil
}
