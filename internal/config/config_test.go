package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tbueno/florarush/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load()

	assert.Equal(t, "file:florarush.db", cfg.DBPath)
	assert.Equal(t, "https://api.inaturalist.org/v1", cfg.TaxonomyBaseURL)
	assert.Equal(t, 500, cfg.MaxCacheSize)
	assert.Equal(t, 4, cfg.MinCandidates)
	assert.InDelta(t, 1.0, cfg.MaxRequestsPerSec, 0.001)
	assert.Equal(t, 10000, cfg.MaxRequestsPerDay)
	assert.Equal(t, 5, cfg.BreakerThreshold)
	assert.Equal(t, 60, cfg.BreakerTimeoutSec)
	assert.Equal(t, 100, cfg.TickIntervalMillis)
	assert.Equal(t, 30, cfg.CacheSweepDays)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_PATH", "file:other.db")
	t.Setenv("MAX_CACHE_SIZE", "250")
	t.Setenv("MAX_REQUESTS_PER_SEC", "0.5")

	cfg := config.Load()

	assert.Equal(t, "file:other.db", cfg.DBPath)
	assert.Equal(t, 250, cfg.MaxCacheSize)
	assert.InDelta(t, 0.5, cfg.MaxRequestsPerSec, 0.001)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("MAX_CACHE_SIZE", "lots")
	t.Setenv("MAX_REQUESTS_PER_SEC", "fast")

	cfg := config.Load()

	assert.Equal(t, 500, cfg.MaxCacheSize)
	assert.InDelta(t, 1.0, cfg.MaxRequestsPerSec, 0.001)
}
