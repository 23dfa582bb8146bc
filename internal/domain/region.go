package domain

// RiskLevel is the ordinal heat-risk classification for one location and
// calendar day.
type RiskLevel int

const (
	RiskNone RiskLevel = iota
	RiskWatch
	RiskWarning
	RiskEmergency
)

// Label returns the short human-readable name for a level.
func (l RiskLevel) Label() string {
	switch l {
	case RiskWatch:
		return "Watch"
	case RiskWarning:
		return "Warning"
	case RiskEmergency:
		return "Emergency"
	default:
		return "None"
	}
}

// Message returns the fixed alert wording for a level.
func (l RiskLevel) Message() string {
	switch l {
	case RiskWatch:
		return "WATCH: Hot conditions - limit outdoor exposure"
	case RiskWarning:
		return "WARNING: Dangerous heat conditions - avoid outdoor activities"
	case RiskEmergency:
		return "EMERGENCY: Extreme heat danger - seek immediate shelter"
	default:
		return "No heat risk"
	}
}

// ClimateRegion holds the heat-risk cutoffs for one North American climate
// zone. HeatIndexCritical selects the classification variable: humid regions
// classify on heat index, dry regions on raw temperature. CoolingMin is the
// expected nighttime-cooling delta in °C; days that cool less than this get
// escalated one level.
type ClimateRegion struct {
	ID   string
	Name string

	LatMin, LatMax float64
	LonMin, LonMax float64

	Moderate float64 // °C
	High     float64 // °C
	Extreme  float64 // °C

	HeatIndexCritical bool
	CoolingMin        float64 // °C
}

func (r ClimateRegion) contains(lat, lon float64) bool {
	return lat >= r.LatMin && lat <= r.LatMax && lon >= r.LonMin && lon <= r.LonMax
}

// climateRegions are checked in declaration order; the first match wins.
// Bounds and cutoffs follow established North American climate zones within
// the coverage box.
var climateRegions = []ClimateRegion{
	{
		ID: "desert_southwest", Name: "Desert Southwest",
		LatMin: 32, LatMax: 42, LonMin: -125, LonMax: -109,
		Moderate: 40, High: 43, Extreme: 46,
		HeatIndexCritical: false, CoolingMin: 15,
	},
	{
		ID: "great_plains", Name: "Great Plains & Central",
		LatMin: 30, LatMax: 49, LonMin: -104, LonMax: -90,
		Moderate: 35, High: 38, Extreme: 41,
		HeatIndexCritical: true, CoolingMin: 12,
	},
	{
		ID: "southeast_humid", Name: "Southeast Humid",
		LatMin: 25, LatMax: 37, LonMin: -95, LonMax: -75,
		Moderate: 32, High: 35, Extreme: 38,
		HeatIndexCritical: true, CoolingMin: 8,
	},
	{
		ID: "northeast_temperate", Name: "Northeast Temperate",
		LatMin: 37, LatMax: 47, LonMin: -80, LonMax: -65,
		Moderate: 30, High: 33, Extreme: 36,
		HeatIndexCritical: true, CoolingMin: 10,
	},
	{
		ID: "pacific_northwest", Name: "Pacific Northwest",
		LatMin: 42, LatMax: 50, LonMin: -125, LonMax: -110,
		Moderate: 28, High: 32, Extreme: 35,
		HeatIndexCritical: false, CoolingMin: 12,
	},
}

// defaultRegion covers coordinates inside the coverage box that fall outside
// every named zone.
var defaultRegion = ClimateRegion{
	ID: "default", Name: "Default North American",
	LatMin: CoverageLatMin, LatMax: CoverageLatMax,
	LonMin: CoverageLonMin, LonMax: CoverageLonMax,
	Moderate: 32, High: 35, Extreme: 38,
	HeatIndexCritical: true, CoolingMin: 10,
}

// RegionFor returns the climate region governing a coordinate. The lookup is
// total: coordinates matched by no named zone get the default region, so
// callers never see a missing result.
func RegionFor(lat, lon float64) ClimateRegion {
	for _, r := range climateRegions {
		if r.contains(lat, lon) {
			return r
		}
	}
	return defaultRegion
}

// BaseLevel maps the classification variable through the region's cutoff
// ladder. The level is non-decreasing in value.
func (r ClimateRegion) BaseLevel(value float64) RiskLevel {
	switch {
	case value >= r.Extreme:
		return RiskEmergency
	case value >= r.High:
		return RiskWarning
	case value >= r.Moderate:
		return RiskWatch
	default:
		return RiskNone
	}
}

// Escalate bumps a level one step when nighttime cooling falls short of the
// region minimum, capped at emergency.
func (r ClimateRegion) Escalate(level RiskLevel, nighttimeCooling float64) RiskLevel {
	if nighttimeCooling >= r.CoolingMin {
		return level
	}
	if level >= RiskEmergency {
		return RiskEmergency
	}
	return level + 1
}

// FlatClassify is the alternate, region-independent threshold ladder used by
// the quickscan entry point. It classifies on max heat index with a
// max-temperature advisory fallback. The regional table, not this one,
// governs the ingest pipeline.
func FlatClassify(maxHeatIndex, maxTemperature float64) RiskLevel {
	switch {
	case maxHeatIndex >= 54: // 130°F
		return RiskEmergency
	case maxHeatIndex >= 46: // 115°F
		return RiskWarning
	case maxHeatIndex >= 40: // 104°F
		return RiskWatch
	case maxTemperature >= 35: // 95°F
		return RiskWatch
	default:
		return RiskNone
	}
}
