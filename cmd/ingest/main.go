// Command ingest runs one forecast ingest cycle: it discovers the newest
// available forecast run, downloads and samples its hourly grid files,
// stores the observations, classifies each forecast day, and persists the
// resulting heat alerts. It exits 0 on success and 1 on failure.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/heatwave-forecast-service/internal/adapter/geoscf"
	httpadapter "github.com/couchcryptid/heatwave-forecast-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/heatwave-forecast-service/internal/adapter/kafka"
	"github.com/couchcryptid/heatwave-forecast-service/internal/adapter/netcdf"
	"github.com/couchcryptid/heatwave-forecast-service/internal/adapter/postgres"
	"github.com/couchcryptid/heatwave-forecast-service/internal/classify"
	"github.com/couchcryptid/heatwave-forecast-service/internal/config"
	"github.com/couchcryptid/heatwave-forecast-service/internal/extract"
	"github.com/couchcryptid/heatwave-forecast-service/internal/fetch"
	"github.com/couchcryptid/heatwave-forecast-service/internal/locator"
	"github.com/couchcryptid/heatwave-forecast-service/internal/observability"
	"github.com/couchcryptid/heatwave-forecast-service/internal/pipeline"
)

func main() {
	sampleRate := flag.Int("sample-rate", 5, "grid subsampling stride (1 = every cell)")
	targetDateArg := flag.String("target-date", "", "forecast date to ingest as YYYY-MM-DD (default: newest available)")
	prefetch := flag.Bool("prefetch", false, "download files concurrently before the processing loop")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	var targetDate *time.Time
	if *targetDateArg != "" {
		parsed, err := time.ParseInLocation("2006-01-02", *targetDateArg, time.UTC)
		if err != nil {
			logger.Error("invalid --target-date", "value", *targetDateArg, "error", err)
			os.Exit(1)
		}
		targetDate = &parsed
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, metrics, *sampleRate, *prefetch, targetDate); err != nil {
		logger.Error("ingest failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics, sampleRate int, prefetch bool, targetDate *time.Time) error {
	store, err := postgres.NewStore(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect store: %w", err)
	}
	defer store.Close()

	if observations, alerts, err := store.Stats(ctx); err == nil {
		logger.Info("store connected", "observations", observations, "alerts", alerts)
	}

	client := geoscf.NewClient(cfg.BaseURL, cfg.ProbeTimeout, cfg.DownloadTimeout, logger)
	opener := netcdf.Opener{}
	fetcher := fetch.NewFetcher(client, opener, cfg.DownloadDir, cfg.FetchAttempts, cfg.MinFileSize, logger, metrics)
	extractor := extract.NewExtractor(opener, logger)
	loc := locator.NewLocator(client, cfg.MaxDaysBack, cfg.AutoSearchDays, logger, metrics)
	classifier := classify.NewClassifier(store, logger)

	var publisher pipeline.AlertPublisher
	if cfg.KafkaEnabled {
		kp := kafkaadapter.NewPublisher(cfg, logger)
		defer func() {
			if err := kp.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}()
		publisher = kp
		logger.Info("alert publishing enabled", "topic", cfg.KafkaAlertTopic)
	} else {
		logger.Info("alert publishing disabled")
	}

	// Downloads happen inline in the sequential processing loop unless
	// --prefetch is set; prefetching only warms the local file cache.
	var prefetcher pipeline.Prefetcher
	if prefetch {
		prefetcher = fetcher
	}

	p := pipeline.New(loc, fetcher, prefetcher, extractor, store, classifier, publisher, logger, metrics, pipeline.Options{
		SampleRate:           sampleRate,
		PrefetchWorkers:      cfg.BulkFetchWorkers,
		ObservationRetention: cfg.ObservationRetention,
		AlertRetention:       cfg.AlertRetention,
	})

	if cfg.MetricsAddr != "" {
		srv := httpadapter.NewServer(cfg.MetricsAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	summary, err := p.Run(ctx, targetDate)
	if err != nil {
		return err
	}

	logger.Info("ingest complete",
		"init_time", summary.InitTime,
		"files_processed", summary.FilesProcessed,
		"files_failed", summary.FilesFailed,
		"observations_stored", summary.ObservationsStored,
		"alerts_stored", summary.AlertsStored,
		"duration", summary.Duration)
	return nil
}
