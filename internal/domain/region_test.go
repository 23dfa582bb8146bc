package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegionFor(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		want     string
	}{
		{"phoenix", 33.4, -112.1, "desert_southwest"},
		{"dallas", 32.8, -96.8, "great_plains"},
		{"atlanta", 33.7, -84.4, "southeast_humid"},
		{"new york", 40.7, -74.0, "northeast_temperate"},
		{"seattle", 47.6, -122.3, "pacific_northwest"},
		{"outside all zones", 49.5, -67.0, "default"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RegionFor(tt.lat, tt.lon).ID)
		})
	}

	t.Run("overlap resolves by declaration order", func(t *testing.T) {
		// Latitude 42 sits in both the desert southwest and pacific
		// northwest boxes; the earlier entry wins.
		assert.Equal(t, "desert_southwest", RegionFor(42, -115).ID)
	})
}

func TestBaseLevel(t *testing.T) {
	r := ClimateRegion{Moderate: 32, High: 35, Extreme: 38}

	tests := []struct {
		value float64
		want  RiskLevel
	}{
		{31.9, RiskNone},
		{32, RiskWatch},
		{34.9, RiskWatch},
		{35, RiskWarning},
		{37.9, RiskWarning},
		{38, RiskEmergency},
		{50, RiskEmergency},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.BaseLevel(tt.value), "value=%v", tt.value)
	}
}

func TestEscalate(t *testing.T) {
	r := ClimateRegion{CoolingMin: 10}

	t.Run("adequate cooling leaves level alone", func(t *testing.T) {
		assert.Equal(t, RiskWatch, r.Escalate(RiskWatch, 12))
		assert.Equal(t, RiskWatch, r.Escalate(RiskWatch, 10))
	})

	t.Run("poor cooling bumps one level", func(t *testing.T) {
		assert.Equal(t, RiskWarning, r.Escalate(RiskWatch, 5))
		assert.Equal(t, RiskEmergency, r.Escalate(RiskWarning, 5))
	})

	t.Run("capped at emergency", func(t *testing.T) {
		assert.Equal(t, RiskEmergency, r.Escalate(RiskEmergency, 0))
	})
}

func TestFlatClassify(t *testing.T) {
	tests := []struct {
		name             string
		maxHI, maxTemp   float64
		want             RiskLevel
	}{
		{"cool day", 20, 22, RiskNone},
		{"hot but dry, advisory on temperature", 33, 36, RiskWatch},
		{"heat index watch", 41, 33, RiskWatch},
		{"heat index warning", 47, 38, RiskWarning},
		{"heat index emergency", 55, 42, RiskEmergency},
		{"just under emergency", 53.9, 42, RiskWarning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FlatClassify(tt.maxHI, tt.maxTemp))
		})
	}
}

func TestRiskLevelMessages(t *testing.T) {
	assert.Equal(t, "No heat risk", RiskNone.Message())
	assert.Equal(t, "WATCH: Hot conditions - limit outdoor exposure", RiskWatch.Message())
	assert.Equal(t, "WARNING: Dangerous heat conditions - avoid outdoor activities", RiskWarning.Message())
	assert.Equal(t, "EMERGENCY: Extreme heat danger - seek immediate shelter", RiskEmergency.Message())

	assert.Equal(t, "Watch", RiskWatch.Label())
	assert.Equal(t, "Emergency", RiskEmergency.Label())
	assert.Equal(t, "None", RiskLevel(-1).Label())
}
