package domain

import (
	"fmt"
	"math"
)

// Kind names a grid variant.
type Kind string

// Grid variants. The values match the preset table's type names.
const (
	KindRegular    Kind = "RegularGrid"
	KindProjection Kind = "ProjectionGrid"
	KindGaussian   Kind = "GaussianGrid"
)

// Range is a closed interval [Min, Max] in degrees.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Span returns Max - Min.
func (r Range) Span() float64 { return r.Max - r.Min }

// Bounds is the geographic extent of a grid.
type Bounds struct {
	Latitude  Range `json:"latitude"`
	Longitude Range `json:"longitude"`
}

// Grid is the capability set shared by every source grid variant. Point
// indices are dense, zero-based and stable for the lifetime of the grid.
// Implementations are immutable and safe for concurrent use.
type Grid interface {
	Kind() Kind
	// Count returns the number of points.
	Count() int
	// Coordinates returns latitude and longitude arrays of length Count in
	// point index order. Callers must not modify the returned slices.
	Coordinates() (lats, lons []float64)
	// FindPoint returns the index of the point nearest to (lat, lon).
	FindPoint(lat, lon float64) (int, error)
	// Bounds returns the geographic extent covered by the grid.
	Bounds() Bounds
}

// Reshaper is implemented by grids whose flat point arrays map onto a 2-D
// raster. Only RegularGrid implements it.
type Reshaper interface {
	Reshape(flat []float64) ([][]float64, error)
}

// GaussianGrid is a reduced Gaussian source grid.
type GaussianGrid struct {
	Type GaussianGridType
}

// NewGaussianGrid returns the grid for t, failing for unknown variants.
func NewGaussianGrid(t GaussianGridType) (GaussianGrid, error) {
	if _, err := t.layout(); err != nil {
		return GaussianGrid{}, err
	}
	return GaussianGrid{Type: t}, nil
}

// Kind implements Grid.
func (g GaussianGrid) Kind() Kind { return KindGaussian }

// Count implements Grid.
func (g GaussianGrid) Count() int { return g.Type.Count() }

// Coordinates implements Grid.
func (g GaussianGrid) Coordinates() (lats, lons []float64) {
	lats, lons, err := g.Type.Coordinates()
	if err != nil {
		return nil, nil
	}
	return lats, lons
}

// FindPoint implements Grid.
func (g GaussianGrid) FindPoint(lat, lon float64) (int, error) {
	return g.Type.FindPoint(lat, lon)
}

// Bounds implements Grid. Longitudes span the full circle.
func (g GaussianGrid) Bounds() Bounds {
	lats, err := g.Type.Latitudes()
	if err != nil || len(lats) == 0 {
		return Bounds{}
	}
	return Bounds{
		Latitude:  Range{Min: lats[len(lats)-1], Max: lats[0]},
		Longitude: Range{Min: -180, Max: 180},
	}
}

// nearestIndex scans lats/lons for the point nearest to (lat, lon) on the
// unit sphere. Ties resolve to the smaller index.
func nearestIndex(lats, lons []float64, lat, lon float64) (int, error) {
	if len(lats) == 0 {
		return 0, fmt.Errorf("%w: grid has no points", ErrConfiguration)
	}
	qx, qy, qz := UnitVector(lat, lon)
	best, bestDist := 0, math.Inf(1)
	for i := range lats {
		x, y, z := UnitVector(lats[i], lons[i])
		dx, dy, dz := x-qx, y-qy, z-qz
		if d := dx*dx + dy*dy + dz*dz; d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, nil
}
