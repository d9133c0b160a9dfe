// Package analytics runs complete portfolio analyses: price history, statistics,
// Monte Carlo projection and frontier sampling.
package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/advisor/internal/clientdata"
	"github.com/aristath/advisor/internal/domain"
	"github.com/aristath/advisor/internal/events"
	"github.com/aristath/advisor/internal/marketdata"
	"github.com/aristath/advisor/internal/modules/allocation"
	"github.com/aristath/advisor/internal/modules/optimization"
	"github.com/aristath/advisor/internal/modules/returns"
	"github.com/aristath/advisor/internal/modules/risk"
	"github.com/aristath/advisor/internal/modules/simulation"
	"github.com/aristath/advisor/pkg/formulas"
)

const module = "analytics"

// ResultCache stores computed statistics and reports.
type ResultCache interface {
	Store(table, key string, value interface{}, ttl time.Duration) error
	GetIfFresh(table, key string, out interface{}) (bool, error)
}

// Archiver persists finished reports outside the cache.
type Archiver interface {
	Archive(ctx context.Context, id string, createdAt time.Time, report interface{}) (string, error)
}

// Service wires the engine components into end-to-end analyses.
type Service struct {
	provider   marketdata.Provider
	builder    *returns.Builder
	calculator *risk.Calculator
	projector  *simulation.Projector
	sampler    *optimization.Sampler
	cache      ResultCache
	archive    Archiver
	events     *events.Manager
	settings   Settings
	workers    int
	now        func() time.Time
	newID      func() string
	log        zerolog.Logger
}

// NewService creates an analytics service. cache and archive may be nil.
func NewService(
	provider marketdata.Provider,
	builder *returns.Builder,
	calculator *risk.Calculator,
	projector *simulation.Projector,
	sampler *optimization.Sampler,
	cache ResultCache,
	archive Archiver,
	eventManager *events.Manager,
	settings Settings,
	workers int,
	log zerolog.Logger,
) *Service {
	if eventManager == nil {
		eventManager = events.NewManager(log)
	}
	if calculator.TradingDaysPerYear() != projector.TradingDaysPerYear() {
		log.Warn().
			Int("calculator_days", calculator.TradingDaysPerYear()).
			Int("projector_days", projector.TradingDaysPerYear()).
			Msg("Calculator and projector disagree on trading days per year")
	}
	return &Service{
		provider:   provider,
		builder:    builder,
		calculator: calculator,
		projector:  projector,
		sampler:    sampler,
		cache:      cache,
		archive:    archive,
		events:     eventManager,
		settings:   settings,
		workers:    workers,
		now:        time.Now,
		newID:      uuid.NewString,
		log:        log.With().Str("service", "analytics").Logger(),
	}
}

// history is the aligned price and return data of one request.
type history struct {
	series []domain.PriceSeries
	matrix *returns.ReturnMatrix
	start  time.Time
	end    time.Time
}

// dataSource names everything upstream of the calculator that changes its input.
func (s *Service) dataSource() string {
	return s.provider.Name() + "/" + s.builder.Alignment().String()
}

func (s *Service) window(w Window) (time.Time, time.Time, error) {
	years := w.LookbackYears
	if years == 0 {
		years = s.settings.LookbackYears
	}
	if years < 1 || years > MaxLookbackYears {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: lookback_years must be within [1, %d], got %d", ErrInvalidRequest, MaxLookbackYears, years)
	}
	asOf := w.AsOf
	if asOf.IsZero() {
		asOf = s.now()
	}
	start, end := marketdata.LookbackWindow(asOf, years)
	return start, end, nil
}

// loadHistory fetches every asset and aligns the returns. No partial results: any
// unavailable or dropped asset fails the call with domain.ErrAssetUnavailable.
func (s *Service) loadHistory(ctx context.Context, assets []domain.AssetID, start, end time.Time) (*history, error) {
	series, err := marketdata.FetchAll(ctx, s.provider, assets, start, end, s.workers)
	if err != nil {
		if errors.Is(err, marketdata.ErrUnavailable) {
			return nil, fmt.Errorf("%w: %w", domain.ErrAssetUnavailable, err)
		}
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}

	m, err := s.builder.Build(series)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientAssets) {
			return nil, fmt.Errorf("%w: %w", domain.ErrAssetUnavailable, err)
		}
		return nil, fmt.Errorf("failed to build return matrix: %w", err)
	}

	if m.Cols() != len(assets) {
		var missing []string
		for _, a := range assets {
			if !slices.Contains(m.Assets, a) {
				missing = append(missing, string(a))
			}
		}
		return nil, fmt.Errorf("%w: insufficient history for %s", domain.ErrAssetUnavailable, strings.Join(missing, ", "))
	}

	if m.ZeroFilled > 0 {
		s.log.Warn().Int("zero_filled", m.ZeroFilled).Msg("Return gaps were zero-filled")
	}
	return &history{series: series, matrix: m, start: start, end: end}, nil
}

// statistics computes or recalls the statistics of profile over h.
func (s *Service) statistics(profile allocation.Profile, h *history) (*risk.PortfolioStatistics, bool, error) {
	assets := profile.Assets()
	key := metricsKey(s.dataSource(), profile, h.start, h.end, s.calculator.TradingDaysPerYear())

	if s.cache != nil {
		var cached risk.PortfolioStatistics
		found, err := s.cache.GetIfFresh(clientdata.TablePortfolioMetrics, key, &cached)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Msg("Metrics cache read failed")
		case found && slices.Equal(cached.Assets, assets):
			return &cached, true, nil
		}
	}

	stats, err := s.calculator.Compute(h.matrix, assets, profile.Weights())
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.Store(clientdata.TablePortfolioMetrics, key, stats, s.settings.ResultTTL); err != nil {
			s.log.Warn().Err(err).Msg("Metrics cache write failed")
		}
	}
	return stats, false, nil
}

// Metrics returns the portfolio statistics of one portfolio.
func (s *Service) Metrics(ctx context.Context, req MetricsRequest) (*risk.PortfolioStatistics, error) {
	profile, err := req.Resolve()
	if err != nil {
		return nil, err
	}
	start, end, err := s.window(req.Window)
	if err != nil {
		return nil, err
	}
	h, err := s.loadHistory(ctx, profile.Assets(), start, end)
	if err != nil {
		return nil, err
	}
	stats, _, err := s.statistics(profile, h)
	return stats, err
}

// Simulate projects a portfolio from explicit annualized statistics.
func (s *Service) Simulate(req SimulationRequest) (*simulation.Result, error) {
	if req.Investment == 0 {
		req.Investment = s.settings.Investment
	}
	if req.HorizonYears == 0 {
		req.HorizonYears = s.settings.HorizonYears
	}
	if req.NumSimulations == 0 {
		req.NumSimulations = s.settings.NumSimulations
	}
	if req.Seed == nil {
		req.Seed = s.settings.SimulationSeed
	}
	if req.HorizonYears < MinHorizonYears || req.HorizonYears > MaxHorizonYears {
		return nil, fmt.Errorf("%w: horizon_years must be within [%d, %d], got %d", ErrInvalidRequest, MinHorizonYears, MaxHorizonYears, req.HorizonYears)
	}
	if req.NumSimulations > MaxSimulations {
		return nil, fmt.Errorf("%w: num_simulations must be at most %d", ErrInvalidRequest, MaxSimulations)
	}
	if !(math.Abs(req.PortfolioReturn) <= MaxAnnualReturn) {
		return nil, fmt.Errorf("%w: portfolio_return must be within [-%g, %g], got %g", ErrInvalidRequest, MaxAnnualReturn, MaxAnnualReturn, req.PortfolioReturn)
	}
	if !(req.PortfolioVolatility <= MaxAnnualVolatility) {
		return nil, fmt.Errorf("%w: portfolio_volatility must be at most %g, got %g", ErrInvalidRequest, MaxAnnualVolatility, req.PortfolioVolatility)
	}

	periods := s.projector.HorizonPeriods(req.HorizonYears, req.Granularity)
	if periods*req.NumSimulations > MaxSimulationCells {
		return nil, fmt.Errorf("%w: %d periods x %d simulations exceeds %d", ErrInvalidRequest, periods, req.NumSimulations, MaxSimulationCells)
	}

	return s.projector.Simulate(simulation.Params{
		PortfolioReturn:      req.PortfolioReturn,
		PortfolioVolatility:  req.PortfolioVolatility,
		InitialValue:         req.Investment,
		PeriodicContribution: req.Contribution,
		HorizonPeriods:       periods,
		NumSimulations:       req.NumSimulations,
		Granularity:          req.Granularity,
		Seed:                 req.Seed,
	})
}

// Frontier samples random portfolios over the given assets.
func (s *Service) Frontier(ctx context.Context, req FrontierRequest) (*optimization.Frontier, error) {
	n := len(req.Assets)
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 assets, got %d", domain.ErrInsufficientAssets, n)
	}
	if req.NumSamples == 0 {
		req.NumSamples = s.settings.NumFrontierSamples
	}
	if req.NumSamples > MaxSamples {
		return nil, fmt.Errorf("%w: num_samples must be at most %d", ErrInvalidRequest, MaxSamples)
	}
	if req.Seed == nil {
		req.Seed = s.settings.FrontierSeed
	}

	equal := make([]float64, n)
	for i := range equal {
		equal[i] = 1 / float64(n)
	}
	profile, err := Portfolio{Assets: req.Assets, Weights: equal}.Resolve()
	if err != nil {
		return nil, err
	}

	start, end, err := s.window(req.Window)
	if err != nil {
		return nil, err
	}
	h, err := s.loadHistory(ctx, req.Assets, start, end)
	if err != nil {
		return nil, err
	}
	stats, _, err := s.statistics(profile, h)
	if err != nil {
		return nil, err
	}
	return s.sampler.Sample(stats.MeanReturns, stats.Covariance, req.NumSamples, req.Seed)
}

// Analyze runs a full analysis. Stage events go to sink, which may be nil and may be called
// from several goroutines. On failure an AnalysisFailed event is emitted and no report is returned.
func (s *Service) Analyze(ctx context.Context, req Request, sink events.Sink) (*Report, error) {
	id := s.newID()
	report, err := s.analyze(ctx, id, req, sink)
	if err != nil {
		s.events.Emit(sink, module, &events.AnalysisFailedData{ReportID: id, Error: err.Error()})
		return nil, err
	}
	return report, nil
}

func (s *Service) analyze(ctx context.Context, id string, req Request, sink events.Sink) (*Report, error) {
	startTime := time.Now()

	req, err := req.withDefaults(s.settings, s.projector.TradingDaysPerYear())
	if err != nil {
		return nil, err
	}
	profile, err := req.Resolve()
	if err != nil {
		return nil, err
	}
	start, end, err := s.window(req.Window)
	if err != nil {
		return nil, err
	}

	assets := profile.Assets()
	names := make([]string, len(assets))
	for i, a := range assets {
		names[i] = string(a)
	}

	// A cache hit replays the stored report under its own ID.
	mKey := metricsKey(s.dataSource(), profile, start, end, s.calculator.TradingDaysPerYear())
	rKey, cacheable := reportKey(mKey, req)
	if cacheable && s.cache != nil {
		var cached Report
		found, err := s.cache.GetIfFresh(clientdata.TableAnalyticsReports, rKey, &cached)
		if err != nil {
			s.log.Warn().Err(err).Msg("Report cache read failed")
		} else if found {
			cached.Cached = true
			s.events.Emit(sink, module, &events.AnalysisStartedData{ReportID: cached.ID, Profile: profile.Name, Assets: names})
			s.complete(sink, &cached, time.Since(startTime))
			return &cached, nil
		}
	}

	s.events.Emit(sink, module, &events.AnalysisStartedData{ReportID: id, Profile: profile.Name, Assets: names})

	h, err := s.loadHistory(ctx, assets, start, end)
	if err != nil {
		return nil, err
	}
	stats, statsCached, err := s.statistics(profile, h)
	if err != nil {
		return nil, err
	}
	s.events.Emit(sink, module, &events.MetricsComputedData{
		ReportID:       id,
		ExpectedReturn: stats.PortfolioReturn,
		Volatility:     stats.PortfolioVolatility,
		Sharpe:         stats.SharpeRatio,
		Observations:   stats.Observations,
		ZeroFilled:     h.matrix.ZeroFilled,
		Cached:         statsCached,
	})

	var (
		projection *simulation.Result
		frontier   *optimization.Frontier
	)
	g := new(errgroup.Group)
	g.Go(func() error {
		res, err := s.projector.Simulate(simulation.Params{
			PortfolioReturn:      stats.PortfolioReturn,
			PortfolioVolatility:  stats.PortfolioVolatility,
			InitialValue:         req.Investment,
			PeriodicContribution: req.Contribution,
			HorizonPeriods:       s.projector.HorizonPeriods(req.HorizonYears, req.Granularity),
			NumSimulations:       req.NumSimulations,
			Granularity:          req.Granularity,
			Seed:                 req.SimulationSeed,
		})
		if err != nil {
			return fmt.Errorf("simulation failed: %w", err)
		}
		projection = res
		s.events.Emit(sink, module, &events.SimulationCompletedData{
			ReportID:       id,
			NumSimulations: res.NumSimulations,
			HorizonPeriods: res.HorizonPeriods,
			TerminalP5:     res.Summary.P5,
			TerminalP50:    res.Summary.P50,
			TerminalP95:    res.Summary.P95,
			Seed:           res.Seed,
		})
		return nil
	})
	g.Go(func() error {
		f, err := s.sampler.Sample(stats.MeanReturns, stats.Covariance, req.NumFrontierSamples, req.FrontierSeed)
		if err != nil {
			return fmt.Errorf("frontier sampling failed: %w", err)
		}
		frontier = f
		s.events.Emit(sink, module, &events.FrontierSampledData{
			ReportID:      id,
			NumSamples:    len(f.Samples),
			MaxSharpe:     f.MaxSharpe.Sharpe,
			MinVolatility: f.MinVolatility.Volatility,
			Seed:          f.Seed,
		})
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// The full path matrix is only needed for the percentile bands.
	projection.Values = nil

	report := &Report{
		ID:           id,
		CreatedAt:    s.now().UTC(),
		Profile:      profile.Name,
		Investment:   req.Investment,
		HorizonYears: req.HorizonYears,
		Contribution: req.Contribution,
		Start:        h.start,
		End:          h.end,
		ZeroFilled:   h.matrix.ZeroFilled,
		Statistics:   stats,
		Projection:   projection,
		Outcomes:     outcomes(projection.Summary, req.Investment),
		Frontier:     frontier,
		Assets:       s.assetDetails(profile, stats, h, req.Investment),
	}

	if s.archive != nil {
		key, err := s.archive.Archive(ctx, report.ID, report.CreatedAt, report)
		if err != nil {
			s.log.Warn().Err(err).Str("report_id", id).Msg("Report archive failed")
		}
		report.ArchiveKey = key
	}

	if cacheable && s.cache != nil {
		if err := s.cache.Store(clientdata.TableAnalyticsReports, rKey, report, s.settings.ResultTTL); err != nil {
			s.log.Warn().Err(err).Msg("Report cache write failed")
		}
	}

	s.complete(sink, report, time.Since(startTime))
	return report, nil
}

func (s *Service) complete(sink events.Sink, report *Report, elapsed time.Duration) {
	s.log.Info().
		Str("report_id", report.ID).
		Str("profile", report.Profile).
		Bool("cached", report.Cached).
		Float64("sharpe", report.Statistics.SharpeRatio).
		Dur("duration", elapsed).
		Msg("Analysis completed")

	data := &events.AnalysisCompletedData{
		ReportID:   report.ID,
		Duration:   elapsed,
		Cached:     report.Cached,
		ArchiveKey: report.ArchiveKey,
	}
	if sink != nil {
		raw, err := json.Marshal(report)
		if err != nil {
			s.log.Warn().Err(err).Msg("Failed to encode report for event")
		} else {
			data.Report = raw
		}
	}
	s.events.Emit(sink, module, data)
}

func (s *Service) assetDetails(profile allocation.Profile, stats *risk.PortfolioStatistics, h *history, investment float64) []AssetDetail {
	details := make([]AssetDetail, len(profile.Targets))
	for i, t := range profile.Targets {
		d := AssetDetail{
			Asset:            t.Asset,
			Allocation:       t.Weight,
			Amount:           investment * t.Weight,
			HistoricalReturn: formulas.CumulativeReturn(h.series[i].Closes()),
		}
		d.AnnualReturn, _ = stats.AssetMeanReturn(t.Asset)
		d.AnnualVolatility, _ = stats.AssetVolatility(t.Asset)
		if last, ok := h.series[i].Last(); ok {
			d.LastPrice = last.Price
		}
		if r, ok := h.matrix.Series(t.Asset); ok {
			d.RecentVolatility = formulas.RollingVolatility(r, RecentVolatilityWindow, stats.TradingDaysPerYear)
		}
		details[i] = d
	}
	return details
}
