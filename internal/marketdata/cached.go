package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/clientdata"
	"github.com/aristath/advisor/internal/domain"
)

// Cache is the subset of clientdata.Repository used for price caching.
type Cache interface {
	Store(table, key string, value interface{}, ttl time.Duration) error
	GetIfFresh(table, key string, out interface{}) (bool, error)
	Get(table, key string, out interface{}) (bool, error)
	Delete(table, key string) error
}

// CachedProvider serves fresh cache hits, refreshes misses from the upstream provider and
// falls back to stale entries when the upstream fails.
type CachedProvider struct {
	upstream Provider
	cache    Cache
	ttl      time.Duration
	log      zerolog.Logger
}

// NewCachedProvider wraps upstream with a TTL cache.
func NewCachedProvider(upstream Provider, cache Cache, ttl time.Duration, log zerolog.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = clientdata.TTLPriceSeries
	}
	return &CachedProvider{
		upstream: upstream,
		cache:    cache,
		ttl:      ttl,
		log:      log.With().Str("component", "price_cache").Logger(),
	}
}

// Name identifies the provider in logs.
func (p *CachedProvider) Name() string {
	return "cached(" + p.upstream.Name() + ")"
}

func cacheKey(source string, asset domain.AssetID, start, end time.Time) string {
	return fmt.Sprintf("%s|%s|%s|%s", source, asset, start.UTC().Format("2006-01-02"), end.UTC().Format("2006-01-02"))
}

// PriceSeries implements Provider.
func (p *CachedProvider) PriceSeries(ctx context.Context, asset domain.AssetID, start, end time.Time) (domain.PriceSeries, error) {
	key := cacheKey(p.upstream.Name(), asset, start, end)

	var cached domain.PriceSeries
	found, err := p.cache.GetIfFresh(clientdata.TablePriceSeries, key, &cached)
	if err != nil {
		// Undecodable entries cannot serve as stale fallback either.
		p.log.Warn().Err(err).Str("asset", string(asset)).Msg("Price cache read failed, dropping entry")
		if delErr := p.cache.Delete(clientdata.TablePriceSeries, key); delErr != nil {
			p.log.Warn().Err(delErr).Str("asset", string(asset)).Msg("Price cache delete failed")
		}
	} else if found {
		return cached, nil
	}

	series, err := p.upstream.PriceSeries(ctx, asset, start, end)
	if err != nil {
		var stale domain.PriceSeries
		if ok, staleErr := p.cache.Get(clientdata.TablePriceSeries, key, &stale); staleErr == nil && ok {
			p.log.Warn().Err(err).Str("asset", string(asset)).Msg("Upstream failed, serving stale prices")
			return stale, nil
		}
		return domain.PriceSeries{}, err
	}

	if err := p.cache.Store(clientdata.TablePriceSeries, key, series, p.ttl); err != nil {
		p.log.Warn().Err(err).Str("asset", string(asset)).Msg("Price cache write failed")
	}
	return series, nil
}
