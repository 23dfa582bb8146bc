// Package classify turns a day of stored observations into per-location
// heat-risk assessments using the regional threshold table.
package classify

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/couchcryptid/heatwave-forecast-service/internal/domain"
)

const (
	// minSamples is the minimum hourly samples a location needs before a
	// day is classified at all.
	minSamples = 6
	// coolingSampleMin is the minimum samples needed to compute nighttime
	// cooling from day/night means rather than the max-min span.
	coolingSampleMin = 12
)

// ObservationSource reads the stored observations for one calendar day of
// one forecast run.
type ObservationSource interface {
	ObservationsForDate(ctx context.Context, date, initTime time.Time) ([]domain.HourlyObservation, error)
}

type Classifier struct {
	source ObservationSource
	logger *slog.Logger
}

func NewClassifier(source ObservationSource, logger *slog.Logger) *Classifier {
	return &Classifier{source: source, logger: logger}
}

type cellKey struct {
	lat, lon float64
}

// ClassifyDay assesses every location with enough samples on date and
// returns the assessments that carry risk. Locations below the sample gate
// or classified as no-risk are omitted.
func (c *Classifier) ClassifyDay(ctx context.Context, date, initTime time.Time) ([]domain.DailyRiskAssessment, error) {
	observations, err := c.source.ObservationsForDate(ctx, date, initTime)
	if err != nil {
		return nil, fmt.Errorf("load observations for %s: %w", date.Format("2006-01-02"), err)
	}

	cells := make(map[cellKey][]domain.HourlyObservation)
	for _, obs := range observations {
		key := cellKey{lat: obs.Latitude, lon: obs.Longitude}
		cells[key] = append(cells[key], obs)
	}

	var assessments []domain.DailyRiskAssessment
	skipped := 0
	for key, hours := range cells {
		if len(hours) < minSamples {
			skipped++
			continue
		}
		assessment := c.assess(key, hours, date, initTime)
		if assessment.Level > domain.RiskNone {
			assessments = append(assessments, assessment)
		}
	}

	sort.Slice(assessments, func(i, j int) bool {
		a, b := assessments[i], assessments[j]
		if a.Latitude != b.Latitude {
			return a.Latitude < b.Latitude
		}
		return a.Longitude < b.Longitude
	})

	c.logger.Info("day classified",
		"date", date.Format("2006-01-02"),
		"locations", len(cells),
		"under_sampled", skipped,
		"alerts", len(assessments))
	return assessments, nil
}

func (c *Classifier) assess(key cellKey, hours []domain.HourlyObservation, date, initTime time.Time) domain.DailyRiskAssessment {
	sort.Slice(hours, func(i, j int) bool {
		return hours[i].ObservedAt.Before(hours[j].ObservedAt)
	})

	region := domain.RegionFor(key.lat, key.lon)

	maxTemp, minTemp := hours[0].Temperature, hours[0].Temperature
	maxHI := hours[0].HeatIndex
	for _, h := range hours[1:] {
		if h.Temperature > maxTemp {
			maxTemp = h.Temperature
		}
		if h.Temperature < minTemp {
			minTemp = h.Temperature
		}
		if h.HeatIndex > maxHI {
			maxHI = h.HeatIndex
		}
	}

	value := maxTemp
	if region.HeatIndexCritical {
		value = maxHI
	}

	cooling := nighttimeCooling(hours, maxTemp, minTemp)

	level := region.BaseLevel(value)
	if level > domain.RiskNone {
		level = region.Escalate(level, cooling)
	}

	return domain.DailyRiskAssessment{
		Latitude:            key.lat,
		Longitude:           key.lon,
		Date:                date,
		InitTime:            initTime,
		MaxTemperature:      maxTemp,
		MinTemperature:      minTemp,
		MaxHeatIndex:        maxHI,
		Level:               level,
		Message:             level.Message(),
		ConsecutiveHotHours: consecutiveHotHours(hours, region),
		NighttimeCooling:    cooling,
		Region:              region.ID,
	}
}

// nighttimeCooling estimates how much a location cools overnight. With a
// reasonably full day of samples it is the daytime mean (06-18 UTC) minus
// the nighttime mean; sparse days fall back to the max-min temperature span.
func nighttimeCooling(hours []domain.HourlyObservation, maxTemp, minTemp float64) float64 {
	if len(hours) < coolingSampleMin {
		return maxTemp - minTemp
	}

	var daySum, nightSum float64
	var dayN, nightN int
	for _, h := range hours {
		hr := h.ObservedAt.UTC().Hour()
		if hr >= 6 && hr <= 18 {
			daySum += h.Temperature
			dayN++
		} else {
			nightSum += h.Temperature
			nightN++
		}
	}
	if dayN == 0 || nightN == 0 {
		return maxTemp - minTemp
	}
	return daySum/float64(dayN) - nightSum/float64(nightN)
}

// consecutiveHotHours is the longest run of back-to-back hourly samples at
// or above the region's moderate cutoff, measured on the region's
// classification variable. Gaps in the hourly record break the run.
func consecutiveHotHours(hours []domain.HourlyObservation, region domain.ClimateRegion) int {
	longest, run := 0, 0
	var prev time.Time
	for _, h := range hours {
		value := h.Temperature
		if region.HeatIndexCritical {
			value = h.HeatIndex
		}
		if value < region.Moderate {
			run = 0
			prev = time.Time{}
			continue
		}
		if !prev.IsZero() && h.ObservedAt.Sub(prev) == time.Hour {
			run++
		} else {
			run = 1
		}
		prev = h.ObservedAt
		if run > longest {
			longest = run
		}
	}
	return longest
}
