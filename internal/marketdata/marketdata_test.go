package marketdata

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/advisor/internal/clients/yahoo"
	"github.com/aristath/advisor/internal/domain"
)

var (
	testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	testEnd   = time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
)

type stubProvider struct {
	name  string
	err   error
	calls int
	mu    sync.Mutex
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) PriceSeries(ctx context.Context, asset domain.AssetID, start, end time.Time) (domain.PriceSeries, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return domain.PriceSeries{}, s.err
	}
	return domain.PriceSeries{
		Asset:  asset,
		Points: []domain.PricePoint{{Time: start, Price: 1}, {Time: end, Price: 2}},
	}, nil
}

type memCache struct {
	entries map[string][]byte
	stale   map[string]bool
	corrupt map[string]bool
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}, stale: map[string]bool{}, corrupt: map[string]bool{}}
}

func (m *memCache) Delete(table, key string) error {
	delete(m.entries, table+key)
	delete(m.corrupt, table+key)
	return nil
}

func (m *memCache) Store(table, key string, value interface{}, ttl time.Duration) error {
	s := value.(domain.PriceSeries)
	m.entries[table+key] = []byte(string(s.Asset))
	return nil
}

func (m *memCache) GetIfFresh(table, key string, out interface{}) (bool, error) {
	if m.stale[table+key] {
		return false, nil
	}
	return m.Get(table, key, out)
}

func (m *memCache) Get(table, key string, out interface{}) (bool, error) {
	if m.corrupt[table+key] {
		return false, errors.New("msgpack: invalid code")
	}
	v, ok := m.entries[table+key]
	if !ok {
		return false, nil
	}
	*(out.(*domain.PriceSeries)) = domain.PriceSeries{
		Asset:  domain.AssetID(v),
		Points: []domain.PricePoint{{Time: testStart, Price: 7}},
	}
	return true, nil
}

type fakeYahoo struct {
	bars []yahoo.HistoricalPrice
	err  error
}

func (f fakeYahoo) HistoricalPrices(ctx context.Context, symbol string, start, end time.Time) ([]yahoo.HistoricalPrice, error) {
	return f.bars, f.err
}

func TestYahooProvider_UsesAdjustedClose(t *testing.T) {
	day1 := time.Date(2024, 1, 2, 21, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 1, 3, 21, 0, 0, 0, time.UTC)
	p := NewYahooProvider(fakeYahoo{bars: []yahoo.HistoricalPrice{
		{Date: day1, Close: 101, AdjClose: 100},
		{Date: day2, Close: 103, AdjClose: 102},
		{Date: day2, Close: 104, AdjClose: 103},
	}})

	s, err := p.PriceSeries(context.Background(), "SPY", testStart, testEnd)
	require.NoError(t, err)
	assert.Equal(t, domain.AssetID("SPY"), s.Asset)
	assert.Equal(t, []float64{100, 102}, s.Closes())
}

func TestYahooProvider_MapsErrorsToUnavailable(t *testing.T) {
	p := NewYahooProvider(fakeYahoo{err: yahoo.ErrNoData})

	_, err := p.PriceSeries(context.Background(), "NOPE", testStart, testEnd)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.True(t, errors.Is(err, yahoo.ErrNoData))
}

func TestSyntheticProvider_Deterministic(t *testing.T) {
	p := NewSyntheticProvider()

	a, err := p.PriceSeries(context.Background(), "SPY", testStart, testEnd)
	require.NoError(t, err)
	b, err := p.PriceSeries(context.Background(), "SPY", testStart, testEnd)
	require.NoError(t, err)
	c, err := p.PriceSeries(context.Background(), "QQQ", testStart, testEnd)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a.Closes(), c.Closes())
	assert.Equal(t, 91, a.Len())
	assert.True(t, a.IsIncreasing())
	assert.Equal(t, testStart, a.Points[0].Time)
	assert.Equal(t, testEnd, a.Points[a.Len()-1].Time)
}

func TestSyntheticProvider_BondsAreCalmer(t *testing.T) {
	p := NewSyntheticProvider()
	end := testStart.AddDate(3, 0, 0)

	bond, err := p.PriceSeries(context.Background(), "AGG", testStart, end)
	require.NoError(t, err)
	equity, err := p.PriceSeries(context.Background(), "SPY", testStart, end)
	require.NoError(t, err)

	maxMove := func(s domain.PriceSeries) float64 {
		m := 0.0
		closes := s.Closes()
		for i := 1; i < len(closes); i++ {
			r := closes[i]/closes[i-1] - 1
			if r < 0 {
				r = -r
			}
			if r > m {
				m = r
			}
		}
		return m
	}
	assert.Less(t, maxMove(bond), maxMove(equity))
}

func TestSyntheticProvider_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSyntheticProvider().PriceSeries(ctx, "SPY", testStart, testEnd)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFallbackProvider(t *testing.T) {
	tests := []struct {
		name           string
		primaryErr     error
		wantErr        bool
		wantSecondCall int
	}{
		{"primary succeeds", nil, false, 0},
		{"primary unavailable", fmt.Errorf("%w: x", ErrUnavailable), false, 1},
		{"primary hard failure", errors.New("boom"), true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := &stubProvider{name: "p", err: tt.primaryErr}
			secondary := &stubProvider{name: "s"}
			p := NewFallbackProvider(primary, secondary, zerolog.Nop())

			_, err := p.PriceSeries(context.Background(), "SPY", testStart, testEnd)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantSecondCall, secondary.calls)
			assert.Equal(t, "p+s", p.Name())
		})
	}
}

func TestCachedProvider_HitMissAndStale(t *testing.T) {
	upstream := &stubProvider{name: "up"}
	cache := newMemCache()
	p := NewCachedProvider(upstream, cache, time.Hour, zerolog.Nop())

	s, err := p.PriceSeries(context.Background(), "SPY", testStart, testEnd)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 1, upstream.calls)

	// Second call is served from the cache.
	s, err = p.PriceSeries(context.Background(), "SPY", testStart, testEnd)
	require.NoError(t, err)
	assert.Equal(t, []float64{7}, s.Closes())
	assert.Equal(t, 1, upstream.calls)

	// Expired entry plus failing upstream serves stale data.
	for k := range cache.entries {
		cache.stale[k] = true
	}
	upstream.err = ErrUnavailable
	s, err = p.PriceSeries(context.Background(), "SPY", testStart, testEnd)
	require.NoError(t, err)
	assert.Equal(t, []float64{7}, s.Closes())
	assert.Equal(t, 2, upstream.calls)

	// No stale entry: the upstream error surfaces.
	_, err = p.PriceSeries(context.Background(), "QQQ", testStart, testEnd)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCachedProvider_DropsUnreadableEntry(t *testing.T) {
	upstream := &stubProvider{name: "up"}
	cache := newMemCache()
	p := NewCachedProvider(upstream, cache, time.Hour, zerolog.Nop())

	_, err := p.PriceSeries(context.Background(), "SPY", testStart, testEnd)
	require.NoError(t, err)
	for k := range cache.entries {
		cache.corrupt[k] = true
	}

	s, err := p.PriceSeries(context.Background(), "SPY", testStart, testEnd)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 2, upstream.calls)
	assert.Empty(t, cache.corrupt)
	assert.Len(t, cache.entries, 1)
}

func TestFetchAll(t *testing.T) {
	assets := []domain.AssetID{"SPY", "AGG", "QQQ"}

	series, err := FetchAll(context.Background(), &stubProvider{name: "s"}, assets, testStart, testEnd, 2)
	require.NoError(t, err)
	require.Len(t, series, 3)
	for i, a := range assets {
		assert.Equal(t, a, series[i].Asset)
	}

	_, err = FetchAll(context.Background(), &stubProvider{name: "s", err: ErrUnavailable}, assets, testStart, testEnd, 0)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestLookbackWindow(t *testing.T) {
	start, end := LookbackWindow(time.Date(2024, 6, 15, 13, 45, 0, 0, time.UTC), 5)
	assert.Equal(t, time.Date(2019, 6, 15, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), end)
}
