package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/database"
)

// CacheMaintenanceJob checks cache database integrity, checkpoints the WAL and vacuums.
type CacheMaintenanceJob struct {
	db  *database.DB
	log zerolog.Logger
}

// NewCacheMaintenanceJob creates a maintenance job for the cache database.
func NewCacheMaintenanceJob(db *database.DB, log zerolog.Logger) *CacheMaintenanceJob {
	return &CacheMaintenanceJob{
		db:  db,
		log: log.With().Str("job", "cache_maintenance").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *CacheMaintenanceJob) Name() string {
	return "cache_maintenance"
}

// Run executes the maintenance steps in order and stops at the first hard failure.
func (j *CacheMaintenanceJob) Run() error {
	j.log.Info().Msg("Starting cache maintenance")
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := j.db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("cache database unhealthy: %w", err)
	}

	// Not every journal mode supports checkpoints; VACUUM still runs.
	if _, err := j.db.Conn().ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		j.log.Warn().Err(err).Msg("WAL checkpoint failed")
	}

	before, err := j.db.SizeBytes(ctx)
	if err != nil {
		return err
	}
	if _, err := j.db.Conn().ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("VACUUM failed: %w", err)
	}
	after, err := j.db.SizeBytes(ctx)
	if err != nil {
		return err
	}

	j.log.Info().
		Float64("size_before_mb", toMB(before)).
		Float64("size_after_mb", toMB(after)).
		Float64("space_reclaimed_mb", toMB(before-after)).
		Dur("duration", time.Since(startTime)).
		Msg("Cache maintenance completed")

	return nil
}

func toMB(b int64) float64 {
	return float64(b) / 1024 / 1024
}
