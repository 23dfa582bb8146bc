// Package postgres persists observations and heat alerts. Inserts are
// batched and deduplicated with conflict-ignore semantics so re-ingesting a
// forecast run is idempotent.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/couchcryptid/heatwave-forecast-service/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS hourly_observations (
	id BIGSERIAL PRIMARY KEY,
	latitude DOUBLE PRECISION NOT NULL,
	longitude DOUBLE PRECISION NOT NULL,
	observed_at TIMESTAMPTZ NOT NULL,
	init_time TIMESTAMPTZ NOT NULL,
	temperature DOUBLE PRECISION NOT NULL,
	humidity DOUBLE PRECISION NOT NULL,
	wind_speed DOUBLE PRECISION NOT NULL,
	pressure DOUBLE PRECISION NOT NULL,
	heat_index DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (latitude, longitude, observed_at, init_time)
);

CREATE TABLE IF NOT EXISTS heat_alerts (
	id BIGSERIAL PRIMARY KEY,
	latitude DOUBLE PRECISION NOT NULL,
	longitude DOUBLE PRECISION NOT NULL,
	alert_date DATE NOT NULL,
	init_time TIMESTAMPTZ NOT NULL,
	max_temperature DOUBLE PRECISION NOT NULL,
	min_temperature DOUBLE PRECISION NOT NULL,
	max_heat_index DOUBLE PRECISION NOT NULL,
	risk_level INTEGER NOT NULL,
	message TEXT NOT NULL,
	consecutive_hot_hours INTEGER NOT NULL,
	nighttime_cooling DOUBLE PRECISION NOT NULL,
	region TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (latitude, longitude, alert_date, init_time)
);

CREATE INDEX IF NOT EXISTS idx_observations_observed_at ON hourly_observations (observed_at);
CREATE INDEX IF NOT EXISTS idx_alerts_alert_date ON heat_alerts (alert_date);
`

const insertObservation = `
INSERT INTO hourly_observations
	(latitude, longitude, observed_at, init_time, temperature, humidity, wind_speed, pressure, heat_index)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (latitude, longitude, observed_at, init_time) DO NOTHING`

const insertAlert = `
INSERT INTO heat_alerts
	(latitude, longitude, alert_date, init_time, max_temperature, min_temperature, max_heat_index,
	 risk_level, message, consecutive_hot_hours, nighttime_cooling, region)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (latitude, longitude, alert_date, init_time) DO NOTHING`

const selectObservationsForDate = `
SELECT latitude, longitude, observed_at, init_time, temperature, humidity, wind_speed, pressure, heat_index
FROM hourly_observations
WHERE observed_at >= $1 AND observed_at < $2 AND init_time = $3`

type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore connects to the database, verifies connectivity, and ensures the
// schema exists.
func NewStore(ctx context.Context, databaseURL string, logger *slog.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{pool: pool, logger: logger}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// InsertObservations writes a batch of observations and returns how many
// rows were actually inserted. Duplicates of already-stored samples are
// silently skipped.
func (s *Store) InsertObservations(ctx context.Context, observations []domain.HourlyObservation) (int64, error) {
	if len(observations) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, o := range observations {
		batch.Queue(insertObservation,
			o.Latitude, o.Longitude, o.ObservedAt, o.InitTime,
			o.Temperature, o.Humidity, o.WindSpeed, o.Pressure, o.HeatIndex)
	}
	return s.sendBatch(ctx, batch, "insert observations")
}

// InsertAssessments writes a batch of daily risk assessments and returns how
// many rows were actually inserted.
func (s *Store) InsertAssessments(ctx context.Context, assessments []domain.DailyRiskAssessment) (int64, error) {
	if len(assessments) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, a := range assessments {
		batch.Queue(insertAlert,
			a.Latitude, a.Longitude, a.Date, a.InitTime,
			a.MaxTemperature, a.MinTemperature, a.MaxHeatIndex,
			int(a.Level), a.Message, a.ConsecutiveHotHours, a.NighttimeCooling, a.Region)
	}
	return s.sendBatch(ctx, batch, "insert assessments")
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch, op string) (int64, error) {
	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	var inserted int64
	for i := 0; i < batch.Len(); i++ {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("%s: %w", op, err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

// ObservationsForDate reads every stored observation whose target hour falls
// on the given UTC calendar day for one forecast run.
func (s *Store) ObservationsForDate(ctx context.Context, date, initTime time.Time) ([]domain.HourlyObservation, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	rows, err := s.pool.Query(ctx, selectObservationsForDate, dayStart, dayStart.Add(24*time.Hour), initTime)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	var observations []domain.HourlyObservation
	for rows.Next() {
		var o domain.HourlyObservation
		if err := rows.Scan(&o.Latitude, &o.Longitude, &o.ObservedAt, &o.InitTime,
			&o.Temperature, &o.Humidity, &o.WindSpeed, &o.Pressure, &o.HeatIndex); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		observations = append(observations, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read observations: %w", err)
	}
	return observations, nil
}

// Cleanup deletes observations and alerts older than their retention
// windows and returns the deleted row counts.
func (s *Store) Cleanup(ctx context.Context, observationRetention, alertRetention time.Duration) (int64, int64, error) {
	now := domain.Now()

	obsTag, err := s.pool.Exec(ctx,
		`DELETE FROM hourly_observations WHERE observed_at < $1`, now.Add(-observationRetention))
	if err != nil {
		return 0, 0, fmt.Errorf("delete stale observations: %w", err)
	}
	alertTag, err := s.pool.Exec(ctx,
		`DELETE FROM heat_alerts WHERE alert_date < $1`, now.Add(-alertRetention))
	if err != nil {
		return obsTag.RowsAffected(), 0, fmt.Errorf("delete stale alerts: %w", err)
	}
	return obsTag.RowsAffected(), alertTag.RowsAffected(), nil
}

// Stats returns the current table sizes. Used at startup to confirm the
// store is reachable and as an operator log line.
func (s *Store) Stats(ctx context.Context) (observations, alerts int64, err error) {
	if err = s.pool.QueryRow(ctx, `SELECT count(*) FROM hourly_observations`).Scan(&observations); err != nil {
		return 0, 0, fmt.Errorf("count observations: %w", err)
	}
	if err = s.pool.QueryRow(ctx, `SELECT count(*) FROM heat_alerts`).Scan(&alerts); err != nil {
		return 0, 0, fmt.Errorf("count alerts: %w", err)
	}
	return observations, alerts, nil
}

// LatestInitTimeForDate returns the newest forecast run that has
// observations stored for the given UTC calendar day. The boolean is false
// when the day has no observations at all.
func (s *Store) LatestInitTimeForDate(ctx context.Context, date time.Time) (time.Time, bool, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	var initTime *time.Time
	err := s.pool.QueryRow(ctx, `
SELECT max(init_time) FROM hourly_observations
WHERE observed_at >= $1 AND observed_at < $2`, dayStart, dayStart.Add(24*time.Hour)).Scan(&initTime)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("latest init time: %w", err)
	}
	if initTime == nil {
		return time.Time{}, false, nil
	}
	return *initTime, true, nil
}

// AlertsForDate reads stored alerts for one UTC calendar day, newest
// forecast run first. Used by the quickscan tool.
func (s *Store) AlertsForDate(ctx context.Context, date time.Time) ([]domain.DailyRiskAssessment, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	rows, err := s.pool.Query(ctx, `
SELECT latitude, longitude, alert_date, init_time, max_temperature, min_temperature, max_heat_index,
       risk_level, message, consecutive_hot_hours, nighttime_cooling, region
FROM heat_alerts
WHERE alert_date = $1
ORDER BY init_time DESC, latitude, longitude`, dayStart)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []domain.DailyRiskAssessment
	for rows.Next() {
		var a domain.DailyRiskAssessment
		var level int
		if err := rows.Scan(&a.Latitude, &a.Longitude, &a.Date, &a.InitTime,
			&a.MaxTemperature, &a.MinTemperature, &a.MaxHeatIndex,
			&level, &a.Message, &a.ConsecutiveHotHours, &a.NighttimeCooling, &a.Region); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.Level = domain.RiskLevel(level)
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read alerts: %w", err)
	}
	return alerts, nil
}
