package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DatabaseURL string

	// Remote forecast archive.
	BaseURL          string
	DownloadDir      string
	ProbeTimeout     time.Duration
	DownloadTimeout  time.Duration
	FetchAttempts    int
	MinFileSize      int64
	MaxDaysBack      int
	AutoSearchDays   int
	BulkFetchWorkers int

	// Retention windows applied after each detection run.
	ObservationRetention time.Duration
	AlertRetention       time.Duration

	LogLevel    string
	LogFormat   string
	MetricsAddr string

	// Kafka alert publishing (feature-flagged via KAFKA_BROKERS).
	KafkaBrokers    []string
	KafkaAlertTopic string
	KafkaEnabled    bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	probeTimeout, err := durationEnv("PROBE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	downloadTimeout, err := durationEnv("DOWNLOAD_TIMEOUT", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	obsRetention, err := durationEnv("OBSERVATION_RETENTION", 120*time.Hour)
	if err != nil {
		return nil, err
	}
	alertRetention, err := durationEnv("ALERT_RETENTION", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}

	fetchAttempts, err := intEnv("FETCH_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}
	maxDaysBack, err := intEnv("MAX_DAYS_BACK", 5)
	if err != nil {
		return nil, err
	}
	autoSearchDays, err := intEnv("AUTO_SEARCH_DAYS", 30)
	if err != nil {
		return nil, err
	}
	bulkWorkers, err := intEnv("BULK_FETCH_WORKERS", 3)
	if err != nil {
		return nil, err
	}
	minFileSize, err := intEnv("MIN_FILE_SIZE", 1<<20)
	if err != nil {
		return nil, err
	}

	brokers := splitList(os.Getenv("KAFKA_BROKERS"))

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),

		BaseURL:          envOrDefault("FORECAST_BASE_URL", "https://portal.nccs.nasa.gov/datashare/gmao/geos-cf/v1/forecast"),
		DownloadDir:      envOrDefault("DOWNLOAD_DIR", "downloads"),
		ProbeTimeout:     probeTimeout,
		DownloadTimeout:  downloadTimeout,
		FetchAttempts:    fetchAttempts,
		MinFileSize:      int64(minFileSize),
		MaxDaysBack:      maxDaysBack,
		AutoSearchDays:   autoSearchDays,
		BulkFetchWorkers: bulkWorkers,

		ObservationRetention: obsRetention,
		AlertRetention:       alertRetention,

		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		LogFormat:   envOrDefault("LOG_FORMAT", "json"),
		MetricsAddr: os.Getenv("METRICS_ADDR"),

		KafkaBrokers:    brokers,
		KafkaAlertTopic: envOrDefault("KAFKA_ALERT_TOPIC", "heatwave-alerts"),
		KafkaEnabled:    len(brokers) > 0,
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.FetchAttempts < 1 {
		return nil, errors.New("FETCH_ATTEMPTS must be at least 1")
	}
	if cfg.MaxDaysBack < 0 {
		return nil, errors.New("MAX_DAYS_BACK must not be negative")
	}
	if cfg.BulkFetchWorkers < 1 {
		return nil, errors.New("BULK_FETCH_WORKERS must be at least 1")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
