package interp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"

	"go.ngs.io/regrid/internal/domain"
)

// tieSlack bounds the rounding error of a chord length computed from unit
// vectors. Squared chords within tieSlack*(chord+tieSlack) of the nearest one
// count as equidistant.
const tieSlack = 1e-13

// spherePoint is a source grid point on the unit sphere, tagged with its
// point index.
type spherePoint struct {
	X, Y, Z float64
	Index   int
}

// Compare implements kdtree.Comparable.
func (p spherePoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(spherePoint)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	case 2:
		return p.Z - q.Z
	default:
		panic("illegal dimension")
	}
}

// Dims implements kdtree.Comparable.
func (p spherePoint) Dims() int { return 3 }

// Distance implements kdtree.Comparable. It is the squared chord length.
func (p spherePoint) Distance(c kdtree.Comparable) float64 {
	q := c.(spherePoint)
	dx := p.X - q.X
	dy := p.Y - q.Y
	dz := p.Z - q.Z
	return dx*dx + dy*dy + dz*dz
}

// spherePoints satisfies kdtree.Interface.
type spherePoints []spherePoint

func (p spherePoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p spherePoints) Len() int                              { return len(p) }
func (p spherePoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot implements kdtree.Interface.
func (p spherePoints) Pivot(d kdtree.Dim) int {
	plane := pointPlane{spherePoints: p, Dim: d}
	return kdtree.Partition(plane, kdtree.MedianOfRandoms(plane, 100))
}

// pointPlane implements kdtree.SortSlicer along one dimension.
type pointPlane struct {
	spherePoints
	kdtree.Dim
}

func (p pointPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.spherePoints[i].X < p.spherePoints[j].X
	case 1:
		return p.spherePoints[i].Y < p.spherePoints[j].Y
	case 2:
		return p.spherePoints[i].Z < p.spherePoints[j].Z
	default:
		panic("illegal dimension")
	}
}

func (p pointPlane) Slice(start, end int) kdtree.SortSlicer {
	return pointPlane{spherePoints: p.spherePoints[start:end], Dim: p.Dim}
}

func (p pointPlane) Swap(i, j int) {
	p.spherePoints[i], p.spherePoints[j] = p.spherePoints[j], p.spherePoints[i]
}

// Index answers nearest-neighbour queries over a fixed set of geographic
// points. Distances are unit-sphere chord lengths, so the seam at ±180° and
// the poles need no special handling. An Index is read-only once built and
// safe for concurrent queries.
type Index struct {
	tree *kdtree.Tree
	size int
}

// NewIndex builds an index over parallel latitude/longitude arrays in degrees.
// Points with non-finite coordinates are left out.
func NewIndex(lats, lons []float64) (*Index, error) {
	if len(lats) != len(lons) {
		return nil, &domain.ShapeMismatchError{What: "longitude array", Expected: len(lats), Got: len(lons)}
	}
	points := make(spherePoints, 0, len(lats))
	for i := range lats {
		if math.IsNaN(lats[i]) || math.IsNaN(lons[i]) || math.IsInf(lats[i], 0) || math.IsInf(lons[i], 0) {
			continue
		}
		x, y, z := domain.UnitVector(lats[i], lons[i])
		points = append(points, spherePoint{X: x, Y: y, Z: z, Index: i})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: spatial index needs at least one finite point", domain.ErrConfiguration)
	}
	return &Index{tree: kdtree.New(points, false), size: len(points)}, nil
}

// Len returns the number of indexed points.
func (ix *Index) Len() int { return ix.size }

// Nearest returns the point index closest to (lat, lon) and its squared chord
// distance. Equidistant points resolve to the smallest index.
func (ix *Index) Nearest(lat, lon float64) (int, float64, error) {
	if err := domain.ValidateLatLon(lat, lon); err != nil {
		return 0, 0, err
	}
	x, y, z := domain.UnitVector(lat, lon)
	q := spherePoint{X: x, Y: y, Z: z}

	got, dist := ix.tree.Nearest(q)
	if got == nil {
		return 0, 0, fmt.Errorf("%w: spatial index is empty", domain.ErrConfiguration)
	}
	best, bestDist := got.(spherePoint).Index, dist

	keeper := kdtree.NewDistKeeper(tieLimit(dist))
	ix.tree.NearestSet(keeper, q)
	for _, c := range keeper.Heap {
		// The keeper's distance sentinel carries no point.
		if c.Comparable == nil {
			continue
		}
		if idx := c.Comparable.(spherePoint).Index; idx < best {
			best, bestDist = idx, c.Dist
		}
	}
	return best, bestDist, nil
}

// tieLimit returns the largest squared chord still tied with dist.
func tieLimit(dist float64) float64 {
	return dist + tieSlack*(math.Sqrt(dist)+tieSlack)
}
