// Package locator discovers which forecast cycle is available on the
// upstream archive and enumerates the files it provides.
package locator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/heatwave-forecast-service/internal/domain"
	"github.com/couchcryptid/heatwave-forecast-service/internal/observability"
)

// ErrNoForecast reports that no forecast cycle could be found within the
// search window. Discovery exhaustion is fatal to an ingest run.
var ErrNoForecast = errors.New("no forecast cycle found")

// Cycle init hours published by the archive, probed newest first.
var initHours = []int{12, 0}

const (
	forecastDays     = 5
	maxForecastHours = 120
)

// Prober checks file availability on the archive. *geoscf.Client satisfies
// it.
type Prober interface {
	FileURL(initTime time.Time, filename string) string
	Exists(ctx context.Context, url string) (bool, error)
}

type Locator struct {
	prober         Prober
	maxDaysBack    int
	autoSearchDays int
	logger         *slog.Logger
	metrics        *observability.Metrics
}

func NewLocator(prober Prober, maxDaysBack, autoSearchDays int, logger *slog.Logger, metrics *observability.Metrics) *Locator {
	return &Locator{
		prober:         prober,
		maxDaysBack:    maxDaysBack,
		autoSearchDays: autoSearchDays,
		logger:         logger,
		metrics:        metrics,
	}
}

// Locate finds the newest available forecast cycle covering targetDate and
// returns it with the file descriptors to fetch. A nil targetDate walks
// back from today until a cycle is found.
func (l *Locator) Locate(ctx context.Context, targetDate *time.Time) (time.Time, []domain.ForecastDescriptor, error) {
	if targetDate != nil {
		return l.locateFor(ctx, truncateDay(*targetDate))
	}

	today := truncateDay(domain.Now())
	for d := 0; d <= l.autoSearchDays; d++ {
		date := today.AddDate(0, 0, -d)
		initTime, descriptors, err := l.locateFor(ctx, date)
		if err == nil {
			return initTime, descriptors, nil
		}
		if !errors.Is(err, ErrNoForecast) {
			return time.Time{}, nil, err
		}
	}
	return time.Time{}, nil, fmt.Errorf("%w within %d days", ErrNoForecast, l.autoSearchDays)
}

// locateFor probes init cycles at date, date-1d, ... newest hour first, and
// returns on the first cycle whose first file answers a HEAD probe.
func (l *Locator) locateFor(ctx context.Context, date time.Time) (time.Time, []domain.ForecastDescriptor, error) {
	for daysBack := 0; daysBack <= l.maxDaysBack; daysBack++ {
		initDate := date.AddDate(0, 0, -daysBack)
		for _, hour := range initHours {
			initTime := time.Date(initDate.Year(), initDate.Month(), initDate.Day(), hour, 0, 0, 0, time.UTC)
			descriptors := l.descriptors(initTime, date)
			if len(descriptors) == 0 {
				continue
			}

			ok, err := l.prober.Exists(ctx, descriptors[0].URL)
			switch {
			case err != nil:
				l.metrics.DiscoveryProbes.WithLabelValues("error").Inc()
				l.logger.Warn("availability probe failed",
					"init_time", initTime, "error", err)
			case ok:
				l.metrics.DiscoveryProbes.WithLabelValues("hit").Inc()
				l.logger.Info("forecast cycle found",
					"init_time", initTime, "files", len(descriptors))
				return initTime, descriptors, nil
			default:
				l.metrics.DiscoveryProbes.WithLabelValues("miss").Inc()
			}
		}
	}
	return time.Time{}, nil, fmt.Errorf("%w for %s", ErrNoForecast, date.Format("2006-01-02"))
}

// descriptors enumerates the hourly files for five forecast days starting
// at date, dropping hours outside the cycle's 0..120 hour horizon.
func (l *Locator) descriptors(initTime, date time.Time) []domain.ForecastDescriptor {
	var out []domain.ForecastDescriptor
	for d := 0; d < forecastDays; d++ {
		day := date.AddDate(0, 0, d)
		for h := 0; h < 24; h++ {
			targetTime := time.Date(day.Year(), day.Month(), day.Day(), h, 0, 0, 0, time.UTC)
			offset := int(targetTime.Sub(initTime).Hours())
			if offset < 0 || offset > maxForecastHours {
				continue
			}
			filename := domain.GridFilename(initTime, targetTime)
			out = append(out, domain.ForecastDescriptor{
				InitTime:   initTime,
				TargetTime: targetTime,
				HourOffset: offset,
				URL:        l.prober.FileURL(initTime, filename),
				Filename:   filename,
			})
		}
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
