package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/clientdata"
	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/reliability"
)

// RegisterJobs registers the cache upkeep jobs with the scheduler.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	jobs := &JobInstances{
		CacheCleanup:     clientdata.NewCleanupJob(container.CacheRepo, log),
		CacheMaintenance: reliability.NewCacheMaintenanceJob(container.CacheDB, log),
	}

	if err := container.Scheduler.AddJob(cfg.Cache.CleanupSchedule, jobs.CacheCleanup); err != nil {
		return nil, fmt.Errorf("failed to register cache cleanup job: %w", err)
	}
	if err := container.Scheduler.AddJob(cfg.Cache.MaintenanceSchedule, jobs.CacheMaintenance); err != nil {
		return nil, fmt.Errorf("failed to register cache maintenance job: %w", err)
	}

	return jobs, nil
}
