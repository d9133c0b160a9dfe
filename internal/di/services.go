package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/aristath/advisor/internal/clients/yahoo"
	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/events"
	"github.com/aristath/advisor/internal/marketdata"
	"github.com/aristath/advisor/internal/modules/analytics"
	"github.com/aristath/advisor/internal/modules/optimization"
	"github.com/aristath/advisor/internal/modules/returns"
	"github.com/aristath/advisor/internal/modules/risk"
	"github.com/aristath/advisor/internal/modules/simulation"
	"github.com/aristath/advisor/internal/reliability"
	"github.com/aristath/advisor/internal/scheduler"
)

// workerCount resolves the configured worker count; 0 means one per logical CPU.
func workerCount(configured int, log zerolog.Logger) int {
	if configured > 0 {
		return configured
	}
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		log.Warn().Err(err).Msg("Failed to count CPUs, using component defaults")
		return 0
	}
	return n
}

// newPriceProvider builds the configured source behind the price cache.
func newPriceProvider(cfg *config.Config, container *Container, log zerolog.Logger) marketdata.Provider {
	var source marketdata.Provider
	switch cfg.MarketData.Source {
	case "synthetic":
		source = marketdata.NewSyntheticProvider()
	default:
		container.YahooClient = yahoo.NewClient(cfg.MarketData.YahooBaseURL, cfg.MarketData.RequestTimeout, log)
		source = marketdata.NewYahooProvider(container.YahooClient)
		if cfg.MarketData.FallbackSynthetic {
			source = marketdata.NewFallbackProvider(source, marketdata.NewSyntheticProvider(), log)
		}
	}

	log.Info().Str("source", source.Name()).Msg("Market data provider configured")
	return marketdata.NewCachedProvider(source, container.CacheRepo, cfg.Cache.PriceTTL, log)
}

// InitializeServices builds the engine components and the analytics service.
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.Workers = workerCount(cfg.Workers, log)
	container.PriceProvider = newPriceProvider(cfg, container, log)
	container.EventManager = events.NewManager(log)

	alignment, err := returns.ParseAlignment(cfg.MarketData.Alignment)
	if err != nil {
		return err
	}
	container.Builder = returns.NewBuilder(log)
	container.Builder.SetAlignment(alignment)
	container.Calculator = risk.NewCalculator(log)
	container.Calculator.SetTradingDaysPerYear(cfg.Analytics.TradingDaysPerYear)
	container.Projector = simulation.NewProjector(container.Workers, cfg.Analytics.TradingDaysPerYear, log)
	container.Sampler = optimization.NewSampler(container.Workers, log)

	archive, err := reliability.NewS3Archive(ctx, cfg.Archive, log)
	if err != nil {
		return fmt.Errorf("failed to initialize report archive: %w", err)
	}
	container.Archive = archive

	settings := analytics.DefaultSettings()
	settings.LookbackYears = cfg.MarketData.LookbackYears
	settings.NumSimulations = cfg.Analytics.NumSimulations
	settings.NumFrontierSamples = cfg.Analytics.NumFrontierSamples
	settings.SimulationSeed = cfg.Analytics.SimulationSeed
	settings.FrontierSeed = cfg.Analytics.FrontierSeed
	settings.ResultTTL = cfg.Cache.ResultTTL

	container.AnalyticsService = analytics.NewService(
		container.PriceProvider,
		container.Builder,
		container.Calculator,
		container.Projector,
		container.Sampler,
		container.CacheRepo,
		container.Archive,
		container.EventManager,
		settings,
		container.Workers,
		log,
	)

	container.Scheduler = scheduler.New(log)

	log.Info().
		Int("workers", container.Workers).
		Bool("archive", archive.Enabled()).
		Msg("Services initialized")
	return nil
}
