package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/heatwave-forecast-service/internal/domain"
	"github.com/couchcryptid/heatwave-forecast-service/internal/observability"
	"github.com/couchcryptid/heatwave-forecast-service/internal/pipeline"
)

var testInit = time.Date(2026, 7, 13, 12, 0, 0, 0, time.UTC)

func descriptor(hourOffset int) domain.ForecastDescriptor {
	target := testInit.Add(time.Duration(hourOffset) * time.Hour)
	return domain.ForecastDescriptor{
		InitTime:   testInit,
		TargetTime: target,
		HourOffset: hourOffset,
		Filename:   domain.GridFilename(testInit, target),
	}
}

// --- mocks ---

type mockLocator struct {
	initTime    time.Time
	descriptors []domain.ForecastDescriptor
	err         error
}

func (m *mockLocator) Locate(context.Context, *time.Time) (time.Time, []domain.ForecastDescriptor, error) {
	return m.initTime, m.descriptors, m.err
}

// mockFetcher writes real files so the pipeline's local cleanup works.
type mockFetcher struct {
	dir     string
	fail    map[string]bool
	fetched []string
}

func (m *mockFetcher) Fetch(_ context.Context, desc domain.ForecastDescriptor) (string, error) {
	m.fetched = append(m.fetched, desc.Filename)
	if m.fail[desc.Filename] {
		return "", errors.New("download failed")
	}
	path := filepath.Join(m.dir, desc.Filename)
	if err := os.WriteFile(path, []byte("grid"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

type mockExtractor struct {
	perFile int
	err     error
}

func (m *mockExtractor) Extract(string, int) ([]domain.HourlyObservation, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.HourlyObservation, m.perFile)
	return out, nil
}

type mockStore struct {
	observations  int
	assessments   int
	cleanupCalled bool
	insertErr     error
}

func (m *mockStore) InsertObservations(_ context.Context, observations []domain.HourlyObservation) (int64, error) {
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	m.observations += len(observations)
	return int64(len(observations)), nil
}

func (m *mockStore) InsertAssessments(_ context.Context, assessments []domain.DailyRiskAssessment) (int64, error) {
	m.assessments += len(assessments)
	return int64(len(assessments)), nil
}

func (m *mockStore) Cleanup(context.Context, time.Duration, time.Duration) (int64, int64, error) {
	m.cleanupCalled = true
	return 0, 0, nil
}

type mockClassifier struct {
	perDay []domain.DailyRiskAssessment
	dates  []time.Time
	err    error
}

func (m *mockClassifier) ClassifyDay(_ context.Context, date, _ time.Time) ([]domain.DailyRiskAssessment, error) {
	m.dates = append(m.dates, date)
	return m.perDay, m.err
}

type mockPublisher struct {
	published []domain.DailyRiskAssessment
	err       error
}

func (m *mockPublisher) PublishAlerts(_ context.Context, alerts []domain.DailyRiskAssessment) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, alerts...)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPipeline(t *testing.T, loc *mockLocator, fetcher *mockFetcher, ext *mockExtractor, store *mockStore, cls *mockClassifier, pub pipeline.AlertPublisher) *pipeline.Pipeline {
	t.Helper()
	return pipeline.New(loc, fetcher, nil, ext, store, cls, pub, testLogger(), observability.NewMetricsForTesting(), pipeline.Options{
		SampleRate:           5,
		ObservationRetention: 120 * time.Hour,
		AlertRetention:       7 * 24 * time.Hour,
	})
}

// --- tests ---

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		// Two files on day one, one on day two.
		loc := &mockLocator{
			initTime:    testInit,
			descriptors: []domain.ForecastDescriptor{descriptor(0), descriptor(1), descriptor(24)},
		}
		fetcher := &mockFetcher{dir: t.TempDir()}
		store := &mockStore{}
		alert := domain.DailyRiskAssessment{Level: domain.RiskWatch}
		cls := &mockClassifier{perDay: []domain.DailyRiskAssessment{alert}}
		pub := &mockPublisher{}

		p := newPipeline(t, loc, fetcher, &mockExtractor{perFile: 10}, store, cls, pub)
		summary, err := p.Run(ctx, nil)

		require.NoError(t, err)
		assert.Equal(t, 3, summary.FilesProcessed)
		assert.Zero(t, summary.FilesFailed)
		assert.EqualValues(t, 30, summary.ObservationsStored)
		assert.Equal(t, 2, summary.DatesCovered)
		assert.EqualValues(t, 2, summary.AlertsStored)
		assert.Equal(t, testInit, summary.InitTime)

		assert.Len(t, cls.dates, 2)
		assert.Equal(t, 2, store.assessments)
		assert.Len(t, pub.published, 2)
		assert.True(t, store.cleanupCalled)
		assert.False(t, p.Running())

		// Local files are removed after processing.
		entries, readErr := os.ReadDir(fetcher.dir)
		require.NoError(t, readErr)
		assert.Empty(t, entries)
	})

	t.Run("failed file is skipped", func(t *testing.T) {
		d1, d2 := descriptor(0), descriptor(1)
		loc := &mockLocator{initTime: testInit, descriptors: []domain.ForecastDescriptor{d1, d2}}
		fetcher := &mockFetcher{dir: t.TempDir(), fail: map[string]bool{d1.Filename: true}}
		store := &mockStore{}

		p := newPipeline(t, loc, fetcher, &mockExtractor{perFile: 4}, store, &mockClassifier{}, nil)
		summary, err := p.Run(ctx, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, summary.FilesProcessed)
		assert.Equal(t, 1, summary.FilesFailed)
		assert.EqualValues(t, 4, summary.ObservationsStored)
	})

	t.Run("discovery failure is fatal", func(t *testing.T) {
		cause := errors.New("nothing on the archive")
		p := newPipeline(t, &mockLocator{err: cause}, &mockFetcher{dir: t.TempDir()}, &mockExtractor{}, &mockStore{}, &mockClassifier{}, nil)

		_, err := p.Run(ctx, nil)
		require.ErrorIs(t, err, cause)
	})

	t.Run("no processed files is fatal", func(t *testing.T) {
		d1 := descriptor(0)
		loc := &mockLocator{initTime: testInit, descriptors: []domain.ForecastDescriptor{d1}}
		fetcher := &mockFetcher{dir: t.TempDir(), fail: map[string]bool{d1.Filename: true}}

		p := newPipeline(t, loc, fetcher, &mockExtractor{}, &mockStore{}, &mockClassifier{}, nil)
		_, err := p.Run(ctx, nil)
		require.Error(t, err)
	})

	t.Run("classification failure loses only that day", func(t *testing.T) {
		loc := &mockLocator{initTime: testInit, descriptors: []domain.ForecastDescriptor{descriptor(0)}}
		fetcher := &mockFetcher{dir: t.TempDir()}
		cls := &mockClassifier{err: errors.New("query timeout")}
		store := &mockStore{}

		p := newPipeline(t, loc, fetcher, &mockExtractor{perFile: 2}, store, cls, nil)
		summary, err := p.Run(ctx, nil)

		require.NoError(t, err)
		assert.Zero(t, summary.AlertsStored)
		assert.Zero(t, store.assessments)
	})

	t.Run("publish failure does not fail the run", func(t *testing.T) {
		loc := &mockLocator{initTime: testInit, descriptors: []domain.ForecastDescriptor{descriptor(0)}}
		fetcher := &mockFetcher{dir: t.TempDir()}
		alert := domain.DailyRiskAssessment{Level: domain.RiskWatch}
		cls := &mockClassifier{perDay: []domain.DailyRiskAssessment{alert}}
		pub := &mockPublisher{err: errors.New("broker down")}

		p := newPipeline(t, loc, fetcher, &mockExtractor{perFile: 2}, &mockStore{}, cls, pub)
		summary, err := p.Run(ctx, nil)

		require.NoError(t, err)
		assert.EqualValues(t, 1, summary.AlertsStored)
	})
}
