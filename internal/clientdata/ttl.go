package clientdata

import "time"

// Default TTLs, overridable through configuration.
const (
	// Daily closes only change once per trading day.
	TTLPriceSeries = time.Hour
	// Metrics and reports are pure functions of their cache key.
	TTLPortfolioMetrics = 24 * time.Hour
	TTLAnalyticsReport  = 24 * time.Hour
)
