package reliability

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/advisor/internal/database"
)

func TestCacheMaintenanceJob_Run(t *testing.T) {
	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	job := NewCacheMaintenanceJob(db, zerolog.Nop())
	assert.Equal(t, "cache_maintenance", job.Name())
	assert.NoError(t, job.Run())
}

func TestCacheMaintenanceJob_ClosedDatabase(t *testing.T) {
	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	require.NoError(t, err)
	job := NewCacheMaintenanceJob(db, zerolog.Nop())
	require.NoError(t, db.Close())

	assert.ErrorContains(t, job.Run(), "cache database unhealthy")
}

func TestToMB(t *testing.T) {
	assert.Equal(t, 1.5, toMB(3*512*1024))
}
