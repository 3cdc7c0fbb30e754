package domain

import (
	"fmt"
	"math"
	"sync"
)

// cornerTolerance is the largest allowed difference, in degrees, between a
// declared corner and the fitted forward map.
const cornerTolerance = 1e-6

// ProjectionGrid is an NX×NY grid that is regular in a projection plane. Point
// index is j*NX + i where i runs along plane x and j along plane y.
type ProjectionGrid struct {
	NX, NY     int
	Projection Projection

	x0, y0, dx, dy float64

	coordsOnce sync.Once
	lats, lons []float64
	bounds     Bounds
}

// NewProjectionGrid fits the projection plane to the declared corners: the
// south-west corner (lat.Min, lon.Min) becomes index (0, 0) and the north-east
// corner (lat.Max, lon.Max) becomes (NX-1, NY-1).
func NewProjectionGrid(nx, ny int, proj Projection, lat, lon Range) (*ProjectionGrid, error) {
	if proj == nil {
		return nil, fmt.Errorf("%w: projection grid needs a projection", ErrConfiguration)
	}
	if nx < 2 || ny < 2 {
		return nil, fmt.Errorf("%w: projection grid corner fit needs nx, ny >= 2, got nx=%d ny=%d", ErrConfiguration, nx, ny)
	}
	x0, y0, err := proj.Project(lat.Min, lon.Min)
	if err != nil {
		return nil, fmt.Errorf("project south-west corner: %w", err)
	}
	x1, y1, err := proj.Project(lat.Max, lon.Max)
	if err != nil {
		return nil, fmt.Errorf("project north-east corner: %w", err)
	}
	g := &ProjectionGrid{
		NX: nx, NY: ny, Projection: proj,
		x0: x0, y0: y0,
		dx: (x1 - x0) / float64(nx-1),
		dy: (y1 - y0) / float64(ny-1),
	}
	if err := g.validateCorners(); err != nil {
		return nil, err
	}
	for _, c := range []struct {
		name     string
		i, j     int
		lat, lon float64
	}{
		{"south-west", 0, 0, lat.Min, lon.Min},
		{"north-east", nx - 1, ny - 1, lat.Max, lon.Max},
	} {
		gotLat, gotLon, err := g.Forward(c.i, c.j)
		if err != nil {
			return nil, err
		}
		dLon := math.Abs(NormalizeLon(gotLon - c.lon))
		if math.Abs(gotLat-c.lat) > cornerTolerance || dLon > cornerTolerance {
			return nil, fmt.Errorf("%w: %s corner maps to (%.9f, %.9f), declared (%g, %g)",
				ErrNumericDegeneracy, c.name, gotLat, gotLon, c.lat, c.lon)
		}
	}
	return g, nil
}

// NewProjectionGridFromOrigin places index (0, 0) at the geographic origin and
// steps dx, dy plane units per column and row.
func NewProjectionGridFromOrigin(nx, ny int, proj Projection, originLat, originLon, dx, dy float64) (*ProjectionGrid, error) {
	if proj == nil {
		return nil, fmt.Errorf("%w: projection grid needs a projection", ErrConfiguration)
	}
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("%w: projection grid needs nx, ny > 0, got nx=%d ny=%d", ErrConfiguration, nx, ny)
	}
	if dx == 0 || dy == 0 || math.IsNaN(dx) || math.IsNaN(dy) || math.IsInf(dx, 0) || math.IsInf(dy, 0) {
		return nil, fmt.Errorf("%w: projection grid spacing must be finite and non-zero, got dx=%v dy=%v", ErrConfiguration, dx, dy)
	}
	x0, y0, err := proj.Project(originLat, originLon)
	if err != nil {
		return nil, fmt.Errorf("project grid origin: %w", err)
	}
	g := &ProjectionGrid{NX: nx, NY: ny, Projection: proj, x0: x0, y0: y0, dx: dx, dy: dy}
	if err := g.validateCorners(); err != nil {
		return nil, err
	}
	return g, nil
}

// validateCorners unprojects all four plane corners. The projection domains
// are convex in the plane, so every interior index is then valid too.
func (g *ProjectionGrid) validateCorners() error {
	for _, ij := range [][2]int{{0, 0}, {g.NX - 1, 0}, {0, g.NY - 1}, {g.NX - 1, g.NY - 1}} {
		if _, _, err := g.Forward(ij[0], ij[1]); err != nil {
			return fmt.Errorf("projection grid corner (%d, %d): %w", ij[0], ij[1], err)
		}
	}
	return nil
}

// Kind implements Grid.
func (g *ProjectionGrid) Kind() Kind { return KindProjection }

// Count implements Grid.
func (g *ProjectionGrid) Count() int { return g.NX * g.NY }

// Spacing returns the plane origin and step sizes.
func (g *ProjectionGrid) Spacing() (x0, y0, dx, dy float64) {
	return g.x0, g.y0, g.dx, g.dy
}

// Forward maps grid index (i, j) to geographic coordinates.
func (g *ProjectionGrid) Forward(i, j int) (lat, lon float64, err error) {
	return g.Projection.Unproject(g.x0+float64(i)*g.dx, g.y0+float64(j)*g.dy)
}

// PointAt returns the coordinates of a point index.
func (g *ProjectionGrid) PointAt(index int) (lat, lon float64, err error) {
	if index < 0 || index >= g.Count() {
		return 0, 0, fmt.Errorf("%w: point index %d outside [0, %d)", ErrRange, index, g.Count())
	}
	return g.Forward(index%g.NX, index/g.NX)
}

func (g *ProjectionGrid) compute() {
	g.coordsOnce.Do(func() {
		n := g.Count()
		g.lats = make([]float64, n)
		g.lons = make([]float64, n)
		b := Bounds{
			Latitude:  Range{Min: math.Inf(1), Max: math.Inf(-1)},
			Longitude: Range{Min: math.Inf(1), Max: math.Inf(-1)},
		}
		for j := 0; j < g.NY; j++ {
			for i := 0; i < g.NX; i++ {
				k := j*g.NX + i
				lat, lon, err := g.Forward(i, j)
				if err != nil {
					lat, lon = math.NaN(), math.NaN()
				} else {
					b.Latitude.Min = math.Min(b.Latitude.Min, lat)
					b.Latitude.Max = math.Max(b.Latitude.Max, lat)
					b.Longitude.Min = math.Min(b.Longitude.Min, lon)
					b.Longitude.Max = math.Max(b.Longitude.Max, lon)
				}
				g.lats[k], g.lons[k] = lat, lon
			}
		}
		g.bounds = b
	})
}

// Coordinates implements Grid. The arrays are computed on first use.
func (g *ProjectionGrid) Coordinates() (lats, lons []float64) {
	g.compute()
	return g.lats, g.lons
}

// Bounds implements Grid. It is the extent of the grid's point coordinates.
func (g *ProjectionGrid) Bounds() Bounds {
	g.compute()
	return g.bounds
}

// FindPoint implements Grid with an exhaustive search. Converters index the
// coordinates instead when they query repeatedly.
func (g *ProjectionGrid) FindPoint(lat, lon float64) (int, error) {
	if err := ValidateLatLon(lat, lon); err != nil {
		return 0, err
	}
	lats, lons := g.Coordinates()
	return nearestIndex(lats, lons, lat, lon)
}
