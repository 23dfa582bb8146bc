package domain

import (
	"fmt"
	"strings"
	"time"
)

// filenameProduct is the fixed product prefix of hourly meteorological grid
// files as published by the data provider.
const filenameProduct = "GEOS-CF.v01.fcst.met_tavg_1hr_g1440x721_x1"

const (
	initTimeLayout   = "20060102_15"   // e.g. "20251001_12" (hour only)
	targetTimeLayout = "20060102_1504" // e.g. "20251002_0330"
)

// GridFilename renders the provider filename for one hourly file:
//
//	<product>.<init-date>_<init-hour>z+<target-date>_<target-time>z.nc4
//
// Target times are always 30 minutes past the hour in the provider's naming.
func GridFilename(initTime, targetTime time.Time) string {
	target := targetTime.Add(30 * time.Minute)
	return fmt.Sprintf("%s.%sz+%sz.nc4",
		filenameProduct,
		initTime.UTC().Format(initTimeLayout),
		target.UTC().Format(targetTimeLayout),
	)
}

// ParseGridFilename extracts the forecast initialization time and the target
// timestamp from a provider filename. Callers treat a failure as degraded
// mode, not fatal: the file is still processed with wall-clock fallback
// timestamps.
func ParseGridFilename(name string) (initTime, targetTime time.Time, err error) {
	parts := strings.Split(name, ".")
	if len(parts) < 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("parse grid filename %q: too few dot segments", name)
	}

	timePart := parts[len(parts)-2] // e.g. "20251001_12z+20251002_0330z"
	initPart, targetPart, ok := strings.Cut(timePart, "+")
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("parse grid filename %q: missing init/target separator", name)
	}

	initTime, err = time.Parse(initTimeLayout, strings.TrimSuffix(initPart, "z"))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse grid filename %q: init time: %w", name, err)
	}
	targetTime, err = time.Parse(targetTimeLayout, strings.TrimSuffix(targetPart, "z"))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse grid filename %q: target time: %w", name, err)
	}
	return initTime, targetTime, nil
}
