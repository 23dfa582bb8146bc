// Package domain models hourly meteorological forecast samples and daily
// heat-risk assessments.
//
// # Data Source
//
// Hourly grid files come from the NASA GEOS-CF forecast archive. Each model
// run (initialization) publishes one NetCDF-4 file per forecast hour out to
// a 120-hour horizon, under a directory tree keyed by the initialization
// time:
//
//	Y<year>/M<month>/D<day>/H<init-hour>/
//	GEOS-CF.v01.fcst.met_tavg_1hr_g1440x721_x1.<init>_<HH>z+<target>_<HHMM>z.nc4
//
// Two runs are published per day, at 00z and 12z. Target times in filenames
// are always 30 minutes past the hour. The variables consumed here are T2M
// (2-meter temperature, kelvin), RH (relative humidity, %; surface level of
// a [time, lev, lat, lon] field), U2M/V2M (2-meter wind components, m/s),
// and PS (surface pressure, Pa).
//
// # Coverage
//
// All sampling is restricted to the fixed North American bounding box
// latitude 25–50, longitude −125 to −65 (the TEMPO satellite footprint used
// across the wider system). No observation or assessment is ever produced
// outside it.
//
// # Heat Index
//
// Apparent temperature is computed with the NWS Rothfusz regression, which
// is defined only above 80 °F (≈26.7 °C). Below that deadband the heat index
// equals the dry-bulb temperature for any humidity; see [HeatIndex].
//
// # Risk Levels
//
// Classification is ordinal, 0 through 3:
//
//	0 None       not persisted
//	1 Watch      "WATCH: Hot conditions - limit outdoor exposure"
//	2 Warning    "WARNING: Dangerous heat conditions - avoid outdoor activities"
//	3 Emergency  "EMERGENCY: Extreme heat danger - seek immediate shelter"
//
// The pipeline classifies through per-region cutoff ladders ([RegionFor],
// [ClimateRegion.BaseLevel]) with a one-step escalation for insufficient
// nighttime cooling. A flatter region-independent ladder ([FlatClassify])
// exists for the quickscan entry point; the two tables can disagree on the
// same input, and the regional table is the one that governs ingest.
//
// # Deduplication
//
// Observations are unique on (latitude, longitude, target hour,
// initialization time) and assessments on (latitude, longitude, date,
// initialization time). Uniqueness is enforced by the store's
// insert-ignore-on-conflict semantics, not by application logic, which makes
// re-ingesting the same file set idempotent.
package domain
