// Package fetch downloads forecast grid files to local disk, reusing files
// that already validate and retrying ones that do not.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/heatwave-forecast-service/internal/domain"
	"github.com/couchcryptid/heatwave-forecast-service/internal/observability"
)

// Downloader streams one archive URL into w.
type Downloader interface {
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}

// Validator checks a downloaded file for structural soundness.
type Validator interface {
	Validate(path string) error
}

type Fetcher struct {
	downloader  Downloader
	validator   Validator
	downloadDir string
	attempts    int
	minFileSize int64
	logger      *slog.Logger
	metrics     *observability.Metrics
}

func NewFetcher(downloader Downloader, validator Validator, downloadDir string, attempts int, minFileSize int64, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	return &Fetcher{
		downloader:  downloader,
		validator:   validator,
		downloadDir: downloadDir,
		attempts:    attempts,
		minFileSize: minFileSize,
		logger:      logger,
		metrics:     metrics,
	}
}

// Fetch makes desc available on local disk and returns its path. A file
// already present from a previous run is reused when it passes size and
// validation checks; otherwise it is replaced. Each download attempt that
// yields an undersized or corrupt file deletes it before retrying.
func (f *Fetcher) Fetch(ctx context.Context, desc domain.ForecastDescriptor) (string, error) {
	if err := os.MkdirAll(f.downloadDir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	path := filepath.Join(f.downloadDir, desc.Filename)

	if f.reusable(path) {
		f.logger.Debug("reusing downloaded file", "file", desc.Filename)
		return path, nil
	}

	var lastErr error
	for attempt := 1; attempt <= f.attempts; attempt++ {
		if attempt > 1 {
			f.metrics.DownloadRetries.Inc()
		}
		if lastErr = f.download(ctx, desc.URL, path); lastErr == nil {
			return path, nil
		}
		os.Remove(path)
		f.logger.Warn("download attempt failed",
			"file", desc.Filename, "attempt", attempt, "error", lastErr)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("fetch %s after %d attempts: %w", desc.Filename, f.attempts, lastErr)
}

func (f *Fetcher) reusable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.Size() < f.minFileSize {
		return false
	}
	if err := f.validator.Validate(path); err != nil {
		os.Remove(path)
		return false
	}
	return true
}

func (f *Fetcher) download(ctx context.Context, url, path string) error {
	timer := prometheus.NewTimer(f.metrics.DownloadDuration)
	defer timer.ObserveDuration()

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	written, err := f.downloader.Download(ctx, url, out)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	if written < f.minFileSize {
		return fmt.Errorf("file too small: %d bytes", written)
	}
	if err := f.validator.Validate(path); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}
