package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/domain"
)

// FallbackProvider asks the primary provider first and the secondary when the primary
// reports ErrUnavailable. Context cancellation is never masked.
type FallbackProvider struct {
	primary   Provider
	secondary Provider
	log       zerolog.Logger
}

// NewFallbackProvider chains two providers.
func NewFallbackProvider(primary, secondary Provider, log zerolog.Logger) *FallbackProvider {
	return &FallbackProvider{
		primary:   primary,
		secondary: secondary,
		log:       log.With().Str("component", "market_data_fallback").Logger(),
	}
}

// Name identifies the provider in logs.
func (p *FallbackProvider) Name() string {
	return p.primary.Name() + "+" + p.secondary.Name()
}

// PriceSeries implements Provider.
func (p *FallbackProvider) PriceSeries(ctx context.Context, asset domain.AssetID, start, end time.Time) (domain.PriceSeries, error) {
	s, err := p.primary.PriceSeries(ctx, asset, start, end)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrUnavailable) || ctx.Err() != nil {
		return domain.PriceSeries{}, err
	}

	p.log.Warn().
		Err(err).
		Str("asset", string(asset)).
		Str("fallback", p.secondary.Name()).
		Msg("Primary market data unavailable, using fallback")
	return p.secondary.PriceSeries(ctx, asset, start, end)
}
