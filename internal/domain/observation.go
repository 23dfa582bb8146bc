package domain

import (
	"time"
)

// Coverage bounding box: the North-America rectangle all sampling is
// restricted to. Matches the TEMPO satellite footprint used by the rest of
// the system.
const (
	CoverageLatMin = 25.0
	CoverageLatMax = 50.0
	CoverageLonMin = -125.0
	CoverageLonMax = -65.0
)

// InCoverage reports whether a coordinate falls inside the coverage box.
func InCoverage(lat, lon float64) bool {
	return lat >= CoverageLatMin && lat <= CoverageLatMax &&
		lon >= CoverageLonMin && lon <= CoverageLonMax
}

// ForecastDescriptor identifies one remote hourly grid file of a forecast
// run. Descriptors are generated by the locator and consumed once per ingest
// attempt; they are never persisted.
type ForecastDescriptor struct {
	InitTime   time.Time // forecast initialization (model run start)
	TargetTime time.Time // the hour this file covers
	HourOffset int       // hours between InitTime and TargetTime
	URL        string    // remote locator
	Filename   string    // local filename to save as
}

// HourlyObservation is one sampled grid cell of one hourly file. Written
// once, never mutated; the store deduplicates on
// (latitude, longitude, ObservedAt, InitTime).
type HourlyObservation struct {
	Latitude    float64
	Longitude   float64
	ObservedAt  time.Time // forecast target hour
	InitTime    time.Time // forecast initialization
	Temperature float64   // °C
	Humidity    float64   // relative humidity, %
	WindSpeed   float64   // m/s
	Pressure    float64   // surface pressure, Pa
	HeatIndex   float64   // °C, derived
}

// DailyRiskAssessment is the per-location, per-calendar-day classification
// result. Only assessments with Level > RiskNone are persisted ("alerts").
// The store deduplicates on (latitude, longitude, Date, InitTime).
type DailyRiskAssessment struct {
	Latitude  float64
	Longitude float64
	Date      time.Time // calendar date, midnight UTC
	InitTime  time.Time

	MaxTemperature float64 // °C
	MinTemperature float64 // °C
	MaxHeatIndex   float64 // °C

	Level   RiskLevel
	Message string

	// Supporting factors, recomputed on every detection run.
	ConsecutiveHotHours int
	NighttimeCooling    float64 // °C
	Region              string
}
