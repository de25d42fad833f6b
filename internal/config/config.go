package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath             string
	TaxonomyBaseURL    string
	LogLevel           string
	MaxCacheSize       int
	MinCandidates      int
	MaxRequestsPerSec  float64
	MaxRequestsPerDay  int
	BreakerThreshold   int
	BreakerTimeoutSec  int
	HTTPTimeoutSec     int
	TickIntervalMillis int
	PrefetchWorkers    int
	PrefetchQueueSize  int
	CacheSweepDays     int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		DBPath:             envOr("DB_PATH", "file:florarush.db"),
		TaxonomyBaseURL:    envOr("TAXONOMY_BASE_URL", "https://api.inaturalist.org/v1"),
		LogLevel:           envOr("LOG_LEVEL", "INFO"),
		MaxCacheSize:       envIntOr("MAX_CACHE_SIZE", 500),
		MinCandidates:      envIntOr("MIN_CANDIDATES", 4),
		MaxRequestsPerSec:  envFloatOr("MAX_REQUESTS_PER_SEC", 1.0),
		MaxRequestsPerDay:  envIntOr("MAX_REQUESTS_PER_DAY", 10000),
		BreakerThreshold:   envIntOr("BREAKER_THRESHOLD", 5),
		BreakerTimeoutSec:  envIntOr("BREAKER_TIMEOUT_SEC", 60),
		HTTPTimeoutSec:     envIntOr("HTTP_TIMEOUT_SEC", 15),
		TickIntervalMillis: envIntOr("TICK_INTERVAL_MILLIS", 100),
		PrefetchWorkers:    envIntOr("PREFETCH_WORKERS", 1),
		PrefetchQueueSize:  envIntOr("PREFETCH_QUEUE_SIZE", 16),
		CacheSweepDays:     envIntOr("CACHE_SWEEP_DAYS", 30),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("invalid value for %s=%q, using default %g", key, v, def)
	}
	return def
}
