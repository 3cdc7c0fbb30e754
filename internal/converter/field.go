package converter

import (
	"go.ngs.io/regrid/internal/domain"
)

// Field holds source samples in the source grid's point order. Values is
// point-major: shape (Points,) when Times is 0, otherwise (Points, Times).
type Field struct {
	Values []float64
	Points int
	Times  int
}

// NewField wraps a one-dimensional sample array.
func NewField(values []float64) Field {
	return Field{Values: values, Points: len(values)}
}

// NewTimeField wraps a (points, times) sample array.
func NewTimeField(values []float64, points, times int) Field {
	return Field{Values: values, Points: points, Times: times}
}

// steps returns the number of values per point.
func (f Field) steps() int {
	if f.Times <= 0 {
		return 1
	}
	return f.Times
}

// validate checks the field against a source grid of count points.
func (f Field) validate(count int) error {
	if f.Times < 0 {
		return &domain.ShapeMismatchError{What: "field time steps", Expected: 0, Got: f.Times}
	}
	if f.Points != count {
		return &domain.ShapeMismatchError{What: "field points", Expected: count, Got: f.Points}
	}
	if want := f.Points * f.steps(); len(f.Values) != want {
		return &domain.ShapeMismatchError{What: "field values", Expected: want, Got: len(f.Values)}
	}
	return nil
}

// Raster is a resampled field on a target grid. Values is row-major with
// shape (NY, NX) when Times is 0, otherwise (NY, NX, Times).
type Raster struct {
	NY, NX int
	Times  int
	Values []float64
}

func newRaster(target *TargetGrid, times int) *Raster {
	steps := max(times, 1)
	return &Raster{
		NY:     target.NY,
		NX:     target.NX,
		Times:  max(times, 0),
		Values: make([]float64, target.Cells()*steps),
	}
}

// Steps returns the number of values per cell.
func (r *Raster) Steps() int { return max(r.Times, 1) }

// At returns the value at row y, column x and time step t (0 for
// single-step rasters).
func (r *Raster) At(y, x, t int) float64 {
	return r.Values[(y*r.NX+x)*r.Steps()+t]
}

// Rows returns the (NY, NX) view of a single-step raster, or of time step t
// of a multi-step raster. Rows of single-step rasters share Values.
func (r *Raster) Rows(t int) [][]float64 {
	out := make([][]float64, r.NY)
	steps := r.Steps()
	if steps == 1 {
		for y := range out {
			out[y] = r.Values[y*r.NX : (y+1)*r.NX : (y+1)*r.NX]
		}
		return out
	}
	for y := range out {
		row := make([]float64, r.NX)
		for x := range row {
			row[x] = r.Values[(y*r.NX+x)*steps+t]
		}
		out[y] = row
	}
	return out
}
