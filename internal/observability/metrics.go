package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingest pipeline.
type Metrics struct {
	FilesProcessed     prometheus.Counter
	FilesFailed        prometheus.Counter
	DownloadRetries    prometheus.Counter
	ObservationsStored prometheus.Counter
	AlertsStored       prometheus.Counter
	CleanupFailures    prometheus.Counter
	PipelineRunning    prometheus.Gauge

	// Per-file timings.
	DownloadDuration   prometheus.Histogram
	ProcessingDuration prometheus.Histogram

	// Discovery metrics.
	DiscoveryProbes *prometheus.CounterVec // labels: outcome={hit,miss,error}
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FilesProcessed,
		m.FilesFailed,
		m.DownloadRetries,
		m.ObservationsStored,
		m.AlertsStored,
		m.CleanupFailures,
		m.PipelineRunning,
		m.DownloadDuration,
		m.ProcessingDuration,
		m.DiscoveryProbes,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FilesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heatwave_ingest",
			Name:      "files_processed_total",
			Help:      "Grid files fetched, extracted, and stored successfully.",
		}),
		FilesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heatwave_ingest",
			Name:      "files_failed_total",
			Help:      "Grid files abandoned after download or extraction failure.",
		}),
		DownloadRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heatwave_ingest",
			Name:      "download_retries_total",
			Help:      "Download attempts beyond the first, across all files.",
		}),
		ObservationsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heatwave_ingest",
			Name:      "observations_stored_total",
			Help:      "Hourly observations written to the store (duplicates excluded).",
		}),
		AlertsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heatwave_ingest",
			Name:      "alerts_stored_total",
			Help:      "Daily risk assessments with level above none written to the store.",
		}),
		CleanupFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heatwave_ingest",
			Name:      "cleanup_failures_total",
			Help:      "Best-effort local file deletions that failed.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "heatwave_ingest",
			Name:      "pipeline_running",
			Help:      "1 while an ingest run is active, 0 otherwise.",
		}),
		DownloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "heatwave_ingest",
			Name:      "download_duration_seconds",
			Help:      "Wall time to fetch and validate one grid file.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}),
		ProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "heatwave_ingest",
			Name:      "processing_duration_seconds",
			Help:      "Wall time to extract and store one grid file's samples.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		DiscoveryProbes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heatwave_ingest",
			Name:      "discovery_probes_total",
			Help:      "Remote existence probes by outcome.",
		}, []string{"outcome"}),
	}
}
