package di

import (
	"github.com/aristath/advisor/internal/clientdata"
	"github.com/aristath/advisor/internal/clients/yahoo"
	"github.com/aristath/advisor/internal/database"
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

// Container holds every long-lived dependency of the service.
type Container struct {
	// Storage
	CacheDB   *database.DB
	CacheRepo *clientdata.Repository

	// Market data
	YahooClient   *yahoo.Client // nil when the synthetic source is selected
	PriceProvider marketdata.Provider

	// Engine
	Builder    *returns.Builder
	Calculator *risk.Calculator
	Projector  *simulation.Projector
	Sampler    *optimization.Sampler

	// Services
	EventManager     *events.Manager
	Archive          *reliability.ReportArchive
	AnalyticsService *analytics.Service
	Scheduler        *scheduler.Scheduler

	Workers int
}

// JobInstances holds the registered background jobs.
type JobInstances struct {
	CacheCleanup     *clientdata.CleanupJob
	CacheMaintenance *reliability.CacheMaintenanceJob
}

// Close releases the container's resources.
func (c *Container) Close() error {
	if c.CacheDB == nil {
		return nil
	}
	return c.CacheDB.Close()
}
