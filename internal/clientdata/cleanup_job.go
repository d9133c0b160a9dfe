package clientdata

import (
	"fmt"

	"github.com/rs/zerolog"
)

// CleanupJob purges expired price series, metrics and reports.
type CleanupJob struct {
	repo *Repository
	log  zerolog.Logger
}

// NewCleanupJob creates the expiry sweep.
func NewCleanupJob(repo *Repository, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		repo: repo,
		log:  log.With().Str("job", "cache_cleanup").Logger(),
	}
}

// Run sweeps the tables in AllTables order and stops at the first failure.
func (j *CleanupJob) Run() error {
	summary := zerolog.Dict()
	var total int64
	for _, table := range AllTables {
		n, err := j.repo.DeleteExpired(table)
		if err != nil {
			return fmt.Errorf("cache cleanup of %s after %d deletions: %w", table, total, err)
		}
		summary.Int64(table, n)
		total += n
	}

	if total == 0 {
		j.log.Debug().Msg("No expired cache entries")
		return nil
	}
	j.log.Info().
		Dict("deleted", summary).
		Int64("total", total).
		Msg("Expired cache entries purged")
	return nil
}

// Name implements scheduler.Job.
func (j *CleanupJob) Name() string {
	return "cache_cleanup"
}
