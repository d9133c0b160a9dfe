// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir    string // Base directory for the cache database (always absolute)
	LogLevel   string
	Port       int
	DevMode    bool
	Workers    int // 0 = one per logical CPU
	MarketData MarketDataConfig
	Analytics  AnalyticsConfig
	Cache      CacheConfig
	Archive    ArchiveConfig
}

// MarketDataConfig selects and tunes the price source.
type MarketDataConfig struct {
	Source            string // "yahoo" or "synthetic"
	FallbackSynthetic bool   // Use synthetic prices when the primary source fails
	LookbackYears     int
	Alignment         string // "inner" or "outer_zero_fill"
	YahooBaseURL      string
	RequestTimeout    time.Duration
}

// AnalyticsConfig holds defaults applied to requests that leave a field unset.
type AnalyticsConfig struct {
	NumSimulations     int
	NumFrontierSamples int
	SimulationSeed     *uint64 // nil = random per request
	FrontierSeed       *uint64
	TradingDaysPerYear int
}

// CacheConfig controls TTLs and the cleanup schedule.
type CacheConfig struct {
	PriceTTL            time.Duration
	ResultTTL           time.Duration
	CleanupSchedule     string // cron expression with seconds
	MaintenanceSchedule string // integrity check, WAL checkpoint and VACUUM
}

// ArchiveConfig configures the optional S3 report archive. Empty Bucket disables it.
type ArchiveConfig struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string // S3-compatible endpoint (R2, MinIO); empty = AWS
	AccessKeyID     string
	SecretAccessKey string
}

// Enabled reports whether reports should be archived.
func (a ArchiveConfig) Enabled() bool {
	return a.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	absDataDir, err := filepath.Abs(getEnv("ADVISOR_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	simSeed, err := getEnvAsSeed("SIMULATION_SEED", "42")
	if err != nil {
		return nil, err
	}
	frontierSeed, err := getEnvAsSeed("FRONTIER_SEED", "42")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDir:  absDataDir,
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnvAsInt("ADVISOR_PORT", 8001),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		Workers:  getEnvAsInt("WORKERS", 0),
		MarketData: MarketDataConfig{
			Source:            strings.ToLower(getEnv("MARKET_DATA_SOURCE", "yahoo")),
			FallbackSynthetic: getEnvAsBool("MARKET_DATA_FALLBACK_SYNTHETIC", false),
			LookbackYears:     getEnvAsInt("LOOKBACK_YEARS", 5),
			Alignment:         strings.ToLower(getEnv("RETURN_ALIGNMENT", "inner")),
			YahooBaseURL:      getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			RequestTimeout:    getEnvAsDuration("MARKET_DATA_TIMEOUT", 30*time.Second),
		},
		Analytics: AnalyticsConfig{
			NumSimulations:     getEnvAsInt("NUM_SIMULATIONS", 1000),
			NumFrontierSamples: getEnvAsInt("NUM_FRONTIER_SAMPLES", 5000),
			SimulationSeed:     simSeed,
			FrontierSeed:       frontierSeed,
			TradingDaysPerYear: getEnvAsInt("TRADING_DAYS_PER_YEAR", 252),
		},
		Cache: CacheConfig{
			PriceTTL:            getEnvAsDuration("PRICE_CACHE_TTL", time.Hour),
			ResultTTL:           getEnvAsDuration("RESULT_CACHE_TTL", 24*time.Hour),
			CleanupSchedule:     getEnv("CACHE_CLEANUP_SCHEDULE", "0 */30 * * * *"),
			MaintenanceSchedule: getEnv("CACHE_MAINTENANCE_SCHEDULE", "0 0 3 * * 0"),
		},
		Archive: ArchiveConfig{
			Bucket:          getEnv("REPORT_ARCHIVE_BUCKET", ""),
			Prefix:          strings.Trim(getEnv("REPORT_ARCHIVE_PREFIX", "reports"), "/"),
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks ranges and enumerations
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.Workers < 0 {
		return fmt.Errorf("invalid worker count: %d", c.Workers)
	}
	switch c.MarketData.Source {
	case "yahoo", "synthetic":
	default:
		return fmt.Errorf("invalid market data source: %q (want yahoo or synthetic)", c.MarketData.Source)
	}
	switch c.MarketData.Alignment {
	case "inner", "outer_zero_fill":
	default:
		return fmt.Errorf("invalid return alignment: %q (want inner or outer_zero_fill)", c.MarketData.Alignment)
	}
	if c.MarketData.LookbackYears <= 0 {
		return fmt.Errorf("lookback years must be positive, got %d", c.MarketData.LookbackYears)
	}
	if c.Analytics.NumSimulations <= 0 {
		return fmt.Errorf("number of simulations must be positive, got %d", c.Analytics.NumSimulations)
	}
	if c.Analytics.NumFrontierSamples <= 0 {
		return fmt.Errorf("number of frontier samples must be positive, got %d", c.Analytics.NumFrontierSamples)
	}
	if c.Analytics.TradingDaysPerYear <= 0 {
		return fmt.Errorf("trading days per year must be positive, got %d", c.Analytics.TradingDaysPerYear)
	}
	if c.Cache.PriceTTL <= 0 || c.Cache.ResultTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	if (c.Archive.AccessKeyID == "") != (c.Archive.SecretAccessKey == "") {
		return fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set together")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsSeed parses a uint64 seed. "random" disables seeding.
func getEnvAsSeed(key, defaultValue string) (*uint64, error) {
	value := strings.TrimSpace(getEnv(key, defaultValue))
	if strings.EqualFold(value, "random") {
		return nil, nil
	}
	seed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return &seed, nil
}
