package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/heatwave")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost:5432/heatwave", cfg.DatabaseURL)
	assert.Equal(t, "https://portal.nccs.nasa.gov/datashare/gmao/geos-cf/v1/forecast", cfg.BaseURL)
	assert.Equal(t, "downloads", cfg.DownloadDir)
	assert.Equal(t, 10*time.Second, cfg.ProbeTimeout)
	assert.Equal(t, 5*time.Minute, cfg.DownloadTimeout)
	assert.Equal(t, 3, cfg.FetchAttempts)
	assert.EqualValues(t, 1<<20, cfg.MinFileSize)
	assert.Equal(t, 5, cfg.MaxDaysBack)
	assert.Equal(t, 30, cfg.AutoSearchDays)
	assert.Equal(t, 3, cfg.BulkFetchWorkers)
	assert.Equal(t, 120*time.Hour, cfg.ObservationRetention)
	assert.Equal(t, 7*24*time.Hour, cfg.AlertRetention)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.MetricsAddr)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, "heatwave-alerts", cfg.KafkaAlertTopic)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db:5432/heatwave")
	t.Setenv("FORECAST_BASE_URL", "http://mirror.internal/geos-cf")
	t.Setenv("DOWNLOAD_DIR", "/var/cache/grids")
	t.Setenv("PROBE_TIMEOUT", "3s")
	t.Setenv("FETCH_ATTEMPTS", "5")
	t.Setenv("OBSERVATION_RETENTION", "48h")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092")
	t.Setenv("METRICS_ADDR", ":9102")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://mirror.internal/geos-cf", cfg.BaseURL)
	assert.Equal(t, "/var/cache/grids", cfg.DownloadDir)
	assert.Equal(t, 3*time.Second, cfg.ProbeTimeout)
	assert.Equal(t, 5, cfg.FetchAttempts)
	assert.Equal(t, 48*time.Hour, cfg.ObservationRetention)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, ":9102", cfg.MetricsAddr)
}

func TestLoadValidation(t *testing.T) {
	t.Run("missing database url", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://db:5432/heatwave")
		t.Setenv("DOWNLOAD_TIMEOUT", "soon")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("bad integer", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://db:5432/heatwave")
		t.Setenv("MAX_DAYS_BACK", "several")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("zero fetch attempts", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://db:5432/heatwave")
		t.Setenv("FETCH_ATTEMPTS", "0")
		_, err := Load()
		require.Error(t, err)
	})
}
