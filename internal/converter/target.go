package converter

import (
	"fmt"
	"math"

	"go.ngs.io/regrid/internal/domain"
)

// DefaultMaxTargetCells bounds the size of a target grid built by a converter
// that was not given WithMaxTargetCells.
const DefaultMaxTargetCells = 50_000_000

// shapeTolerance absorbs floating noise in span/step so that an exact multiple
// does not gain an extra row or column.
const shapeTolerance = 1e-9

// Resolution is the target grid spacing in degrees.
type Resolution struct {
	DLat float64 `json:"dlat"`
	DLon float64 `json:"dlon"`
}

// Uniform returns a resolution with equal latitude and longitude spacing.
func Uniform(d float64) Resolution { return Resolution{DLat: d, DLon: d} }

// TargetGrid is a regular latitude-longitude grid that samples are written
// onto. It is immutable once built and may be reused across many
// interpolations, including with other converters.
type TargetGrid struct {
	Lat1D  []float64
	Lon1D  []float64
	Lats2D [][]float64
	Lons2D [][]float64
	NY, NX int
}

// Cells returns NY*NX.
func (t *TargetGrid) Cells() int { return t.NY * t.NX }

func (t *TargetGrid) validate() error {
	if t == nil {
		return fmt.Errorf("%w: nil target grid", domain.ErrRange)
	}
	if t.NY <= 0 || t.NX <= 0 {
		return fmt.Errorf("%w: target grid is empty (ny=%d, nx=%d)", domain.ErrRange, t.NY, t.NX)
	}
	if len(t.Lat1D) != t.NY {
		return &domain.ShapeMismatchError{What: "target latitudes", Expected: t.NY, Got: len(t.Lat1D)}
	}
	if len(t.Lon1D) != t.NX {
		return &domain.ShapeMismatchError{What: "target longitudes", Expected: t.NX, Got: len(t.Lon1D)}
	}
	return nil
}

// axisLength returns the number of samples needed to cover r at step d.
func axisLength(name string, r domain.Range, d float64) (int, error) {
	if !(d > 0) || math.IsInf(d, 0) {
		return 0, fmt.Errorf("%w: %s resolution must be positive, got %v", domain.ErrRange, name, d)
	}
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) || math.IsInf(r.Min, 0) || math.IsInf(r.Max, 0) {
		return 0, fmt.Errorf("%w: %s range [%v, %v] is not finite", domain.ErrRange, name, r.Min, r.Max)
	}
	if r.Max < r.Min {
		return 0, fmt.Errorf("%w: %s range [%g, %g] is inverted", domain.ErrRange, name, r.Min, r.Max)
	}
	steps := math.Ceil(r.Span()/d - shapeTolerance)
	if steps < 0 {
		steps = 0
	}
	if steps+1 > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s range [%g, %g] at %g needs too many samples", domain.ErrRange, name, r.Min, r.Max, d)
	}
	return int(steps) + 1, nil
}

// BuildTargetGrid computes the regular grid covering lat and lon at res. The
// last row or column may fall past the range maximum when the span is not a
// whole multiple of the step; values are never clamped.
func BuildTargetGrid(res Resolution, lat, lon domain.Range, maxCells int) (*TargetGrid, error) {
	if lat.Min < -90 || lat.Max > 90 {
		return nil, fmt.Errorf("%w: latitude range [%g, %g] outside [-90, 90]", domain.ErrRange, lat.Min, lat.Max)
	}
	ny, err := axisLength("latitude", lat, res.DLat)
	if err != nil {
		return nil, err
	}
	nx, err := axisLength("longitude", lon, res.DLon)
	if err != nil {
		return nil, err
	}
	if maxCells > 0 && ny*nx > maxCells {
		return nil, fmt.Errorf("%w: target grid %dx%d exceeds %d cells", domain.ErrRange, ny, nx, maxCells)
	}

	t := &TargetGrid{
		Lat1D:  make([]float64, ny),
		Lon1D:  make([]float64, nx),
		Lats2D: make([][]float64, ny),
		Lons2D: make([][]float64, ny),
		NY:     ny,
		NX:     nx,
	}
	for i := range t.Lat1D {
		t.Lat1D[i] = lat.Min + float64(i)*res.DLat
	}
	if last := t.Lat1D[ny-1]; last > 90 {
		// Accumulated rounding at an exact pole multiple snaps back to the pole.
		if last-90 > shapeTolerance {
			return nil, fmt.Errorf("%w: latitude range [%g, %g] at step %g needs ceil(span/step)+1 = %d rows, "+
				"so the last row at %g overshoots the pole; pick a step that divides the range",
				domain.ErrRange, lat.Min, lat.Max, res.DLat, ny, last)
		}
		t.Lat1D[ny-1] = 90
	}
	for i := range t.Lon1D {
		t.Lon1D[i] = lon.Min + float64(i)*res.DLon
	}
	lats := make([]float64, ny*nx)
	lons := make([]float64, ny*nx)
	for y := 0; y < ny; y++ {
		row := lats[y*nx : (y+1)*nx : (y+1)*nx]
		for x := range row {
			row[x] = t.Lat1D[y]
		}
		t.Lats2D[y] = row
		t.Lons2D[y] = lons[y*nx : (y+1)*nx : (y+1)*nx]
		copy(t.Lons2D[y], t.Lon1D)
	}
	return t, nil
}
