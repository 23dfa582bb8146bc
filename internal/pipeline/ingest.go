// Package pipeline orchestrates one ingest run: locate the newest forecast
// cycle, fetch and extract its hourly files, persist observations, classify
// each forecast day, and publish the resulting alerts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/heatwave-forecast-service/internal/domain"
	"github.com/couchcryptid/heatwave-forecast-service/internal/observability"
)

// Locator discovers the newest available forecast cycle.
type Locator interface {
	Locate(ctx context.Context, targetDate *time.Time) (time.Time, []domain.ForecastDescriptor, error)
}

// Fetcher makes one remote grid file available locally.
type Fetcher interface {
	Fetch(ctx context.Context, desc domain.ForecastDescriptor) (string, error)
}

// Prefetcher downloads many files concurrently ahead of the sequential
// processing loop.
type Prefetcher interface {
	Prefetch(ctx context.Context, descriptors []domain.ForecastDescriptor, workers int) int
}

// Extractor reads observations out of a local grid file.
type Extractor interface {
	Extract(path string, stride int) ([]domain.HourlyObservation, error)
}

// Store persists observations and assessments.
type Store interface {
	InsertObservations(ctx context.Context, observations []domain.HourlyObservation) (int64, error)
	InsertAssessments(ctx context.Context, assessments []domain.DailyRiskAssessment) (int64, error)
	Cleanup(ctx context.Context, observationRetention, alertRetention time.Duration) (int64, int64, error)
}

// Classifier assesses one forecast day from stored observations.
type Classifier interface {
	ClassifyDay(ctx context.Context, date, initTime time.Time) ([]domain.DailyRiskAssessment, error)
}

// AlertPublisher fans alerts out to downstream consumers. Optional.
type AlertPublisher interface {
	PublishAlerts(ctx context.Context, alerts []domain.DailyRiskAssessment) error
}

// RunSummary reports what one ingest run accomplished.
type RunSummary struct {
	InitTime           time.Time
	FilesProcessed     int
	FilesFailed        int
	ObservationsStored int64
	DatesCovered       int
	AlertsStored       int64
	Duration           time.Duration
}

// Options tune one Pipeline instance.
type Options struct {
	SampleRate           int
	PrefetchWorkers      int
	ObservationRetention time.Duration
	AlertRetention       time.Duration
}

// Pipeline runs the ingest sequence. One instance serves one run at a time.
type Pipeline struct {
	locator    Locator
	fetcher    Fetcher
	prefetcher Prefetcher
	extractor  Extractor
	store      Store
	classifier Classifier
	publisher  AlertPublisher
	logger     *slog.Logger
	metrics    *observability.Metrics
	opts       Options
	running    atomic.Bool
}

// New creates a Pipeline. prefetcher and publisher may be nil, which
// disables concurrent prefetching and alert publishing respectively.
func New(locator Locator, fetcher Fetcher, prefetcher Prefetcher, extractor Extractor, store Store, classifier Classifier, publisher AlertPublisher, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.SampleRate < 1 {
		opts.SampleRate = 1
	}
	return &Pipeline{
		locator:    locator,
		fetcher:    fetcher,
		prefetcher: prefetcher,
		extractor:  extractor,
		store:      store,
		classifier: classifier,
		publisher:  publisher,
		logger:     logger,
		metrics:    metrics,
		opts:       opts,
	}
}

// Running reports whether an ingest run is in flight. The health endpoint
// uses it.
func (p *Pipeline) Running() bool {
	return p.running.Load()
}

// Run executes one full ingest. It fails outright when no forecast cycle can
// be found or when the run yields no observations; individual file failures
// are logged, counted, and skipped.
func (p *Pipeline) Run(ctx context.Context, targetDate *time.Time) (RunSummary, error) {
	start := time.Now()
	p.running.Store(true)
	p.metrics.PipelineRunning.Set(1)
	defer func() {
		p.running.Store(false)
		p.metrics.PipelineRunning.Set(0)
	}()

	initTime, descriptors, err := p.locator.Locate(ctx, targetDate)
	if err != nil {
		return RunSummary{}, err
	}
	summary := RunSummary{InitTime: initTime}
	p.logger.Info("ingest run started",
		"init_time", initTime, "files", len(descriptors), "sample_rate", p.opts.SampleRate)

	if p.prefetcher != nil && p.opts.PrefetchWorkers > 1 {
		fetched := p.prefetcher.Prefetch(ctx, descriptors, p.opts.PrefetchWorkers)
		p.logger.Info("prefetch complete", "fetched", fetched, "requested", len(descriptors))
	}

	dates := make(map[time.Time]struct{})
	for _, desc := range descriptors {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		stored, err := p.processFile(ctx, desc)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return summary, err
			}
			summary.FilesFailed++
			p.metrics.FilesFailed.Inc()
			p.logger.Error("file failed", "file", desc.Filename, "error", err)
			continue
		}
		summary.FilesProcessed++
		summary.ObservationsStored += stored
		p.metrics.FilesProcessed.Inc()
		dates[day(desc.TargetTime)] = struct{}{}
	}

	if summary.ObservationsStored == 0 && summary.FilesProcessed == 0 {
		return summary, fmt.Errorf("ingest run for cycle %s produced no observations", initTime.Format(time.RFC3339))
	}

	summary.DatesCovered = len(dates)
	summary.AlertsStored = p.detect(ctx, initTime, sortedDays(dates))

	p.cleanup(ctx)

	summary.Duration = time.Since(start)
	p.logger.Info("ingest run finished",
		"files_processed", summary.FilesProcessed,
		"files_failed", summary.FilesFailed,
		"observations_stored", summary.ObservationsStored,
		"dates_covered", summary.DatesCovered,
		"alerts_stored", summary.AlertsStored,
		"duration", summary.Duration)
	return summary, nil
}

// processFile fetches, extracts, and stores one hourly file, then removes
// the local copy.
func (p *Pipeline) processFile(ctx context.Context, desc domain.ForecastDescriptor) (int64, error) {
	path, err := p.fetcher.Fetch(ctx, desc)
	if err != nil {
		return 0, err
	}

	timer := prometheus.NewTimer(p.metrics.ProcessingDuration)
	defer timer.ObserveDuration()

	observations, err := p.extractor.Extract(path, p.opts.SampleRate)
	if err != nil {
		p.removeLocal(path)
		return 0, err
	}

	stored, err := p.store.InsertObservations(ctx, observations)
	if err != nil {
		return 0, err
	}
	p.metrics.ObservationsStored.Add(float64(stored))
	p.removeLocal(path)

	p.logger.Debug("file processed",
		"file", desc.Filename, "extracted", len(observations), "stored", stored)
	return stored, nil
}

// detect classifies each covered forecast day, persists the alerts, and
// publishes them. Per-day failures are logged and skipped so one bad day
// does not lose the rest of the run.
func (p *Pipeline) detect(ctx context.Context, initTime time.Time, dates []time.Time) int64 {
	var total int64
	for _, date := range dates {
		alerts, err := p.classifier.ClassifyDay(ctx, date, initTime)
		if err != nil {
			p.logger.Error("classification failed", "date", date.Format("2006-01-02"), "error", err)
			continue
		}
		if len(alerts) == 0 {
			continue
		}

		stored, err := p.store.InsertAssessments(ctx, alerts)
		if err != nil {
			p.logger.Error("alert persist failed", "date", date.Format("2006-01-02"), "error", err)
			continue
		}
		total += stored
		p.metrics.AlertsStored.Add(float64(stored))

		if p.publisher != nil {
			if err := p.publisher.PublishAlerts(ctx, alerts); err != nil {
				p.logger.Error("alert publish failed", "date", date.Format("2006-01-02"), "error", err)
			}
		}
	}
	return total
}

func (p *Pipeline) cleanup(ctx context.Context) {
	observations, alerts, err := p.store.Cleanup(ctx, p.opts.ObservationRetention, p.opts.AlertRetention)
	if err != nil {
		p.logger.Error("retention cleanup failed", "error", err)
		return
	}
	if observations > 0 || alerts > 0 {
		p.logger.Info("retention cleanup", "observations_deleted", observations, "alerts_deleted", alerts)
	}
}

func (p *Pipeline) removeLocal(path string) {
	if err := os.Remove(path); err != nil {
		p.metrics.CleanupFailures.Inc()
		p.logger.Warn("local file cleanup failed", "path", path, "error", err)
	}
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sortedDays(set map[time.Time]struct{}) []time.Time {
	out := make([]time.Time, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
