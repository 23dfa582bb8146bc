// Package extract turns downloaded forecast grid files into hourly
// observations over the coverage window.
package extract

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"

	"github.com/couchcryptid/heatwave-forecast-service/internal/domain"
)

// ErrVariableMissing reports that a grid file lacks an expected variable or
// axis. Files that trip it count as parse failures, not fetch failures.
var ErrVariableMissing = errors.New("variable missing")

// GridFile is one open forecast grid file.
type GridFile interface {
	// Axis reads a 1-D coordinate variable such as lat or lon.
	Axis(name string) ([]float64, error)
	// Surface reads a [time, lat, lon] field at the first time step.
	Surface(name string) ([][]float64, error)
	// SurfaceAtLevel reads a [time, lev, lat, lon] field at the first
	// time step and the surface level.
	SurfaceAtLevel(name string) ([][]float64, error)
	Close() error
}

// Opener opens grid files by path.
type Opener interface {
	Open(path string) (GridFile, error)
}

// Extractor reads meteorological fields from grid files and produces
// observations for grid cells inside the coverage window.
type Extractor struct {
	opener Opener
	logger *slog.Logger
}

func NewExtractor(opener Opener, logger *slog.Logger) *Extractor {
	return &Extractor{opener: opener, logger: logger}
}

// Extract reads one grid file and returns the observations it contains.
// stride subsamples the grid: a stride of 5 keeps every fifth latitude and
// longitude index. Cells outside the coverage window or holding NaN values
// are dropped.
func (e *Extractor) Extract(path string, stride int) ([]domain.HourlyObservation, error) {
	if stride < 1 {
		stride = 1
	}

	initTime, targetTime, err := domain.ParseGridFilename(filepath.Base(path))
	if err != nil {
		// Timestamps fall back to the current hour so the file still
		// yields data, at the cost of dedup accuracy.
		e.logger.Warn("unparseable grid filename, using current time",
			"file", filepath.Base(path), "error", err)
		now := domain.Now()
		initTime = now
		targetTime = now
	}

	f, err := e.opener.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lats, err := f.Axis("lat")
	if err != nil {
		return nil, err
	}
	lons, err := f.Axis("lon")
	if err != nil {
		return nil, err
	}

	temps, err := f.Surface("T2M")
	if err != nil {
		return nil, err
	}
	humidity, err := f.SurfaceAtLevel("RH")
	if err != nil {
		return nil, err
	}
	windU, err := f.Surface("U2M")
	if err != nil {
		return nil, err
	}
	windV, err := f.Surface("V2M")
	if err != nil {
		return nil, err
	}
	pressure, err := f.Surface("PS")
	if err != nil {
		return nil, err
	}

	var observations []domain.HourlyObservation
	for i := 0; i < len(lats); i += stride {
		lat := lats[i]
		if i >= len(temps) {
			break
		}
		for j := 0; j < len(lons); j += stride {
			lon := lons[j]
			if !domain.InCoverage(lat, lon) {
				continue
			}
			if j >= len(temps[i]) {
				continue
			}

			tempK := temps[i][j]
			rh := at(humidity, i, j)
			u := at(windU, i, j)
			v := at(windV, i, j)
			ps := at(pressure, i, j)
			if math.IsNaN(tempK) || math.IsNaN(rh) || math.IsNaN(u) || math.IsNaN(v) || math.IsNaN(ps) {
				continue
			}

			tempC := tempK - 273.15
			observations = append(observations, domain.HourlyObservation{
				Latitude:    lat,
				Longitude:   lon,
				ObservedAt:  targetTime,
				InitTime:    initTime,
				Temperature: tempC,
				Humidity:    rh,
				WindSpeed:   math.Sqrt(u*u + v*v),
				Pressure:    ps,
				HeatIndex:   domain.HeatIndex(tempC, rh),
			})
		}
	}

	if len(observations) == 0 {
		return nil, fmt.Errorf("grid file %s: no usable cells in coverage window", filepath.Base(path))
	}
	return observations, nil
}

// at reads one cell. Indices past the grid bounds read as NaN so ragged
// grids drop the cell instead of panicking.
func at(grid [][]float64, i, j int) float64 {
	if i >= len(grid) || j >= len(grid[i]) {
		return math.NaN()
	}
	return grid[i][j]
}
