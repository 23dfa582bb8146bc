// Package netcdf reads NetCDF-4 grid files through go-native-netcdf,
// exposing them behind the narrow surface the extractor needs.
package netcdf

import (
	"fmt"

	gonetcdf "github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/couchcryptid/heatwave-forecast-service/internal/extract"
)

// Opener opens grid files from the local filesystem. It implements
// extract.Opener.
type Opener struct{}

// Open opens one grid file.
func (Opener) Open(path string) (extract.GridFile, error) {
	g, err := gonetcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open grid file %s: %w", path, err)
	}
	return &file{group: g, path: path}, nil
}

// Validate reports whether path is a structurally sound grid file: it must
// open and expose both spatial axes. Used by the fetcher after download and
// when deciding whether an already-present local file can be reused.
func (o Opener) Validate(path string) error {
	f, err := o.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, axis := range []string{"lat", "lon"} {
		if _, err := f.Axis(axis); err != nil {
			return err
		}
	}
	return nil
}

type file struct {
	group api.Group
	path  string
}

func (f *file) Close() error {
	f.group.Close()
	return nil
}

// Axis reads a 1-D coordinate variable.
func (f *file) Axis(name string) ([]float64, error) {
	v, err := f.variable(name)
	if err != nil {
		return nil, err
	}
	axis, ok := toFloat1D(v.Values)
	if !ok {
		return nil, fmt.Errorf("grid file %s: axis %s: unexpected shape %T", f.path, name, v.Values)
	}
	return axis, nil
}

// Surface reads a [time, lat, lon] field at time index 0.
func (f *file) Surface(name string) ([][]float64, error) {
	v, err := f.variable(name)
	if err != nil {
		return nil, err
	}
	grid, ok := toFloat3DFront(v.Values)
	if !ok {
		return nil, fmt.Errorf("grid file %s: variable %s: unexpected shape %T", f.path, name, v.Values)
	}
	return grid, nil
}

// SurfaceAtLevel reads a [time, lev, lat, lon] field at time index 0 and the
// surface level (index 0).
func (f *file) SurfaceAtLevel(name string) ([][]float64, error) {
	v, err := f.variable(name)
	if err != nil {
		return nil, err
	}
	grid, ok := toFloat4DFront(v.Values)
	if !ok {
		return nil, fmt.Errorf("grid file %s: variable %s: unexpected shape %T", f.path, name, v.Values)
	}
	return grid, nil
}

func (f *file) variable(name string) (*api.Variable, error) {
	v, err := f.group.GetVariable(name)
	if err != nil {
		return nil, fmt.Errorf("grid file %s: %w: %s", f.path, extract.ErrVariableMissing, name)
	}
	return v, nil
}

// The provider writes coordinate axes and fields as either float or double;
// both are coerced to float64 here.

func toFloat1D(values any) ([]float64, bool) {
	switch vs := values.(type) {
	case []float64:
		return vs, true
	case []float32:
		out := make([]float64, len(vs))
		for i, v := range vs {
			out[i] = float64(v)
		}
		return out, true
	default:
		return nil, false
	}
}

func toFloat2D(values any) ([][]float64, bool) {
	switch vs := values.(type) {
	case [][]float64:
		return vs, true
	case [][]float32:
		out := make([][]float64, len(vs))
		for i, row := range vs {
			out[i] = make([]float64, len(row))
			for j, v := range row {
				out[i][j] = float64(v)
			}
		}
		return out, true
	default:
		return nil, false
	}
}

func toFloat3DFront(values any) ([][]float64, bool) {
	switch vs := values.(type) {
	case [][][]float64:
		if len(vs) == 0 {
			return nil, false
		}
		return vs[0], true
	case [][][]float32:
		if len(vs) == 0 {
			return nil, false
		}
		return toFloat2D(vs[0])
	default:
		return nil, false
	}
}

func toFloat4DFront(values any) ([][]float64, bool) {
	switch vs := values.(type) {
	case [][][][]float64:
		if len(vs) == 0 || len(vs[0]) == 0 {
			return nil, false
		}
		return vs[0][0], true
	case [][][][]float32:
		if len(vs) == 0 || len(vs[0]) == 0 {
			return nil, false
		}
		return toFloat2D(vs[0][0])
	default:
		return nil, false
	}
}
