package domain

import (
	"fmt"
	"math"
)

// RegularGrid is an evenly spaced latitude-longitude grid. Point index is
// row*NX + col with row 0 at LatMin and column 0 at LonMin.
type RegularGrid struct {
	NX, NY         int
	LatMin, LonMin float64
	Dx, Dy         float64 // Degrees.

	// SearchRadius is preset metadata passed through to external readers that
	// scan neighbouring cells. No operation in this package reads it.
	SearchRadius int
}

// NewRegularGrid validates and returns a regular grid.
func NewRegularGrid(nx, ny int, latMin, lonMin, dx, dy float64) (RegularGrid, error) {
	g := RegularGrid{NX: nx, NY: ny, LatMin: latMin, LonMin: lonMin, Dx: dx, Dy: dy, SearchRadius: 1}
	if err := g.Validate(); err != nil {
		return RegularGrid{}, err
	}
	return g, nil
}

// Validate checks the grid invariants.
func (g RegularGrid) Validate() error {
	if g.NX <= 0 || g.NY <= 0 {
		return fmt.Errorf("%w: regular grid needs nx, ny > 0, got nx=%d ny=%d", ErrConfiguration, g.NX, g.NY)
	}
	if !(g.Dx > 0) || !(g.Dy > 0) || math.IsInf(g.Dx, 0) || math.IsInf(g.Dy, 0) {
		return fmt.Errorf("%w: regular grid needs dx, dy > 0, got dx=%v dy=%v", ErrConfiguration, g.Dx, g.Dy)
	}
	if math.IsNaN(g.LatMin) || math.IsNaN(g.LonMin) || math.IsInf(g.LatMin, 0) || math.IsInf(g.LonMin, 0) {
		return fmt.Errorf("%w: regular grid origin (%v, %v) is not finite", ErrConfiguration, g.LatMin, g.LonMin)
	}
	return nil
}

// Kind implements Grid.
func (g RegularGrid) Kind() Kind { return KindRegular }

// Count implements Grid.
func (g RegularGrid) Count() int { return g.NX * g.NY }

// IsGlobalLon reports whether the grid wraps around the full circle.
func (g RegularGrid) IsGlobalLon() bool { return float64(g.NX)*g.Dx >= 359 }

// IsGlobalLat reports whether the grid spans pole to pole.
func (g RegularGrid) IsGlobalLat() bool { return float64(g.NY)*g.Dy >= 179 }

// FindPointXY returns the (column, row) nearest to (lat, lon).
//
// Longitudes are wrapped into [LonMin, LonMin+360). A point up to half a cell
// past an edge snaps to that edge; global grids also absorb the row or column
// just beyond the last one. Anything farther out is an ErrRange.
func (g RegularGrid) FindPointXY(lat, lon float64) (x, y int, err error) {
	if err := ValidateLatLon(lat, lon); err != nil {
		return 0, 0, err
	}

	lonRel := math.Mod(lon-g.LonMin, 360)
	if lonRel < 0 {
		lonRel += 360
	}
	x = roundHalfDown(lonRel / g.Dx)
	if x >= g.NX {
		// Just west of LonMin, or past the seam of a global grid.
		switch {
		case roundHalfDown((lonRel-360)/g.Dx) == 0:
			x = 0
		case g.IsGlobalLon():
			x = g.NX - 1
		}
	}

	y = roundHalfDown((lat - g.LatMin) / g.Dy)
	if g.IsGlobalLat() {
		y = max(0, min(g.NY-1, y))
	}

	if x < 0 || x >= g.NX || y < 0 || y >= g.NY {
		return 0, 0, fmt.Errorf("%w: (lat=%g, lon=%g) outside regular grid (x=%d, y=%d, nx=%d, ny=%d)",
			ErrRange, lat, lon, x, y, g.NX, g.NY)
	}
	return x, y, nil
}

// FindPoint implements Grid.
func (g RegularGrid) FindPoint(lat, lon float64) (int, error) {
	x, y, err := g.FindPointXY(lat, lon)
	if err != nil {
		return 0, err
	}
	return y*g.NX + x, nil
}

// PointAt returns the coordinates of a point index.
func (g RegularGrid) PointAt(index int) (lat, lon float64, err error) {
	if index < 0 || index >= g.Count() {
		return 0, 0, fmt.Errorf("%w: point index %d outside [0, %d)", ErrRange, index, g.Count())
	}
	row, col := index/g.NX, index%g.NX
	return g.LatMin + float64(row)*g.Dy, g.LonMin + float64(col)*g.Dx, nil
}

// Latitudes returns the NY row latitudes.
func (g RegularGrid) Latitudes() []float64 {
	out := make([]float64, g.NY)
	for i := range out {
		out[i] = g.LatMin + float64(i)*g.Dy
	}
	return out
}

// Longitudes returns the NX column longitudes.
func (g RegularGrid) Longitudes() []float64 {
	out := make([]float64, g.NX)
	for i := range out {
		out[i] = g.LonMin + float64(i)*g.Dx
	}
	return out
}

// Coordinates implements Grid.
func (g RegularGrid) Coordinates() (lats, lons []float64) {
	lat1d, lon1d := g.Latitudes(), g.Longitudes()
	lats = make([]float64, g.Count())
	lons = make([]float64, g.Count())
	for row, lat := range lat1d {
		off := row * g.NX
		for col, lon := range lon1d {
			lats[off+col] = lat
			lons[off+col] = lon
		}
	}
	return lats, lons
}

// Coordinates2D returns (NY, NX) latitude and longitude rasters.
func (g RegularGrid) Coordinates2D() (lats, lons [][]float64) {
	flatLats, flatLons := g.Coordinates()
	lats, _ = g.Reshape(flatLats)
	lons, _ = g.Reshape(flatLons)
	return lats, lons
}

// Bounds implements Grid.
func (g RegularGrid) Bounds() Bounds {
	return Bounds{
		Latitude:  Range{Min: g.LatMin, Max: g.LatMin + float64(g.NY-1)*g.Dy},
		Longitude: Range{Min: g.LonMin, Max: g.LonMin + float64(g.NX-1)*g.Dx},
	}
}

// Reshape views a flat array of length Count as NY rows of NX values. Rows
// share the backing array of flat.
func (g RegularGrid) Reshape(flat []float64) ([][]float64, error) {
	if len(flat) != g.Count() {
		return nil, &ShapeMismatchError{What: "regular grid data", Expected: g.Count(), Got: len(flat)}
	}
	out := make([][]float64, g.NY)
	for row := range out {
		out[row] = flat[row*g.NX : (row+1)*g.NX : (row+1)*g.NX]
	}
	return out, nil
}

// Flatten concatenates the rows of a raster. It is the inverse of Reshape.
func Flatten(raster [][]float64) []float64 {
	n := 0
	for _, row := range raster {
		n += len(row)
	}
	out := make([]float64, 0, n)
	for _, row := range raster {
		out = append(out, row...)
	}
	return out
}
