// Package ncfile reads source samples from, and writes resampled rasters to,
// NetCDF files.
package ncfile

import (
	"fmt"
	"math"
	"strings"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/regrid/internal/adapter/store"
	"go.ngs.io/regrid/internal/converter"
)

// timeDimNames are dimension names treated as the time axis of a sample
// variable.
var timeDimNames = []string{"time", "step", "valid_time", "t"}

// Store reads and writes NetCDF files.
type Store struct{}

// NewStore creates a NetCDF store.
func NewStore() *Store { return &Store{} }

var (
	_ store.SampleReader = (*Store)(nil)
	_ store.RasterWriter = (*Store)(nil)
)

// ReadSamples reads a (points) or (points, time) variable. A (time, points)
// variable is transposed to point-major order. When variable is empty the
// first of "data", "values" and "z" present in the file is used.
//
//nolint:gosec // G304: path comes from the command line or configuration.
func (s *Store) ReadSamples(path, variable string) (*store.Samples, error) {
	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file: %w", err)
	}
	defer func() { _ = nc.Close() }()

	names := []string{"data", "values", "z"}
	if variable != "" {
		names = []string{variable}
	}
	var v netcdf.Var
	var found string
	for _, name := range names {
		if cand, err := nc.Var(name); err == nil {
			v, found = cand, name
			break
		}
	}
	if found == "" {
		return nil, fmt.Errorf("data variable not found (tried: %v)", names)
	}

	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions: %w", err)
	}
	if len(dims) != 1 && len(dims) != 2 {
		return nil, fmt.Errorf("expected 1D or 2D variable %s, got %dD", found, len(dims))
	}
	lengths := make([]int, len(dims))
	dimNames := make([]string, len(dims))
	total := 1
	for i, d := range dims {
		n, err := d.Len()
		if err != nil {
			return nil, fmt.Errorf("failed to get dim%d length: %w", i, err)
		}
		name, err := d.Name()
		if err != nil {
			return nil, fmt.Errorf("failed to get dim%d name: %w", i, err)
		}
		lengths[i], dimNames[i] = int(n), name
		total *= int(n)
	}

	values, err := readFloat64s(v, total)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", found, err)
	}
	applyPacking(v, values)

	samples := &store.Samples{Variable: found}
	switch {
	case len(dims) == 1:
		samples.Field = converter.NewField(values)
	case isTimeDim(dimNames[0]):
		times, points := lengths[0], lengths[1]
		samples.Field = converter.NewTimeField(transpose(values, times, points), points, times)
		samples.Time = readTimeAxis(nc, dimNames[0], times)
	default:
		points, times := lengths[0], lengths[1]
		samples.Field = converter.NewTimeField(values, points, times)
		samples.Time = readTimeAxis(nc, dimNames[1], times)
	}
	return samples, nil
}

func isTimeDim(name string) bool {
	for _, t := range timeDimNames {
		if strings.EqualFold(name, t) {
			return true
		}
	}
	return false
}

// readTimeAxis returns the coordinate variable of the time dimension, or nil
// when the file has none of the expected length.
func readTimeAxis(nc netcdf.Dataset, dim string, n int) []float64 {
	v, err := nc.Var(dim)
	if err != nil {
		return nil
	}
	values, err := readFloat64s(v, n)
	if err != nil {
		return nil
	}
	return values
}

// transpose turns a row-major (rows, cols) array into (cols, rows).
func transpose(data []float64, rows, cols int) []float64 {
	out := make([]float64, len(data))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out[c*rows+r] = data[r*cols+c]
		}
	}
	return out
}

// readFloat64s reads total values of a numeric variable as float64.
func readFloat64s(v netcdf.Var, total int) ([]float64, error) {
	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get var type: %w", err)
	}
	out := make([]float64, total)
	switch t {
	case netcdf.DOUBLE:
		if err := v.ReadFloat64s(out); err != nil {
			return nil, err
		}
	case netcdf.FLOAT:
		tmp := make([]float32, total)
		if err := v.ReadFloat32s(tmp); err != nil {
			return nil, err
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	case netcdf.INT:
		tmp := make([]int32, total)
		if err := v.ReadInt32s(tmp); err != nil {
			return nil, err
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	case netcdf.SHORT:
		tmp := make([]int16, total)
		if err := v.ReadInt16s(tmp); err != nil {
			return nil, err
		}
		for i, val := range tmp {
			out[i] = float64(val)
		}
	default:
		return nil, fmt.Errorf("unsupported var type: %v", t)
	}
	return out, nil
}

// attrFloat64 reads a scalar numeric attribute.
func attrFloat64(v netcdf.Var, name string) (float64, bool) {
	a := v.Attr(name)
	if n, err := a.Len(); err != nil || n == 0 {
		return 0, false
	}
	buf64 := make([]float64, 1)
	if err := a.ReadFloat64s(buf64); err == nil {
		return buf64[0], true
	}
	buf32 := make([]float32, 1)
	if err := a.ReadFloat32s(buf32); err == nil {
		return float64(buf32[0]), true
	}
	bufi := make([]int32, 1)
	if err := a.ReadInt32s(bufi); err == nil {
		return float64(bufi[0]), true
	}
	bufs := make([]int16, 1)
	if err := a.ReadInt16s(bufs); err == nil {
		return float64(bufs[0]), true
	}
	return 0, false
}

// applyPacking replaces fill values with NaN and unpacks scale_factor and
// add_offset in place.
func applyPacking(v netcdf.Var, values []float64) {
	for _, name := range []string{"_FillValue", "missing_value"} {
		fill, ok := attrFloat64(v, name)
		if !ok {
			continue
		}
		for i, val := range values {
			if val == fill {
				values[i] = math.NaN()
			}
		}
	}
	scale, hasScale := attrFloat64(v, "scale_factor")
	offset, hasOffset := attrFloat64(v, "add_offset")
	if (!hasScale || scale == 0) && !hasOffset {
		return
	}
	if !hasScale || scale == 0 {
		scale = 1
	}
	for i := range values {
		values[i] = values[i]*scale + offset
	}
}

// WriteRaster writes the raster with lat and lon coordinate variables, plus a
// time dimension for multi-step rasters. The data variable has shape
// (lat, lon) or (lat, lon, time).
func (s *Store) WriteRaster(path string, out store.Output) error {
	if out.Target == nil || out.Raster == nil {
		return fmt.Errorf("nothing to write: target and raster are required")
	}
	if out.Raster.NY != out.Target.NY || out.Raster.NX != out.Target.NX {
		return fmt.Errorf("raster shape (%d, %d) does not match target (%d, %d)",
			out.Raster.NY, out.Raster.NX, out.Target.NY, out.Target.NX)
	}
	variable := out.Variable
	if variable == "" {
		variable = "data"
	}

	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER|netcdf.NETCDF4)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() { _ = ds.Close() }()

	latDim, err := ds.AddDim("lat", uint64(out.Target.NY))
	if err != nil {
		return err
	}
	lonDim, err := ds.AddDim("lon", uint64(out.Target.NX))
	if err != nil {
		return err
	}
	dataDims := []netcdf.Dim{latDim, lonDim}

	latVar, err := ds.AddVar("lat", netcdf.DOUBLE, []netcdf.Dim{latDim})
	if err != nil {
		return err
	}
	lonVar, err := ds.AddVar("lon", netcdf.DOUBLE, []netcdf.Dim{lonDim})
	if err != nil {
		return err
	}
	if err := latVar.Attr("units").WriteBytes([]byte("degrees_north")); err != nil {
		return err
	}
	if err := lonVar.Attr("units").WriteBytes([]byte("degrees_east")); err != nil {
		return err
	}

	var timeVar netcdf.Var
	hasTime := out.Raster.Times > 0
	if hasTime {
		timeDim, err := ds.AddDim("time", uint64(out.Raster.Times))
		if err != nil {
			return err
		}
		dataDims = append(dataDims, timeDim)
		timeVar, err = ds.AddVar("time", netcdf.DOUBLE, []netcdf.Dim{timeDim})
		if err != nil {
			return err
		}
	}

	dataVar, err := ds.AddVar(variable, netcdf.DOUBLE, dataDims)
	if err != nil {
		return err
	}
	if out.Units != "" {
		if err := dataVar.Attr("units").WriteBytes([]byte(out.Units)); err != nil {
			return err
		}
	}

	if err := ds.EndDef(); err != nil {
		return fmt.Errorf("failed to end define mode: %w", err)
	}

	if err := latVar.WriteFloat64s(out.Target.Lat1D); err != nil {
		return fmt.Errorf("write lat: %w", err)
	}
	if err := lonVar.WriteFloat64s(out.Target.Lon1D); err != nil {
		return fmt.Errorf("write lon: %w", err)
	}
	if hasTime {
		steps := out.Time
		if len(steps) != out.Raster.Times {
			steps = make([]float64, out.Raster.Times)
			for i := range steps {
				steps[i] = float64(i)
			}
		}
		if err := timeVar.WriteFloat64s(steps); err != nil {
			return fmt.Errorf("write time: %w", err)
		}
	}
	if err := dataVar.WriteFloat64s(out.Raster.Values); err != nil {
		return fmt.Errorf("write %s: %w", variable, err)
	}
	return nil
}
