package di

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/aristath/advisor/internal/clientdata"
	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/database"
)

// InitializeDatabases opens the cache database, applies its schema and builds the repository.
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache database: %w", err)
	}

	if err := cacheDB.Migrate(); err != nil {
		cacheDB.Close()
		return nil, fmt.Errorf("failed to migrate cache database: %w", err)
	}

	log.Info().Str("path", cacheDB.Path()).Msg("Cache database ready")

	return &Container{
		CacheDB:   cacheDB,
		CacheRepo: clientdata.NewRepository(cacheDB.Conn()),
	}, nil
}
