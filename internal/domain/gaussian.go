package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
)

// GaussianGridType identifies a reduced Gaussian grid variant.
//
// Octahedral (O-series) and classic (N-series) grids are both supported. The
// number is L, the count of latitude rows per hemisphere. N-series presets use
// the same octahedral row table as O-series grids (20 points next to each pole,
// 4 more per row); only the name and row count differ.
type GaussianGridType string

// Supported reduced Gaussian variants.
const (
	O320  GaussianGridType = "o320"
	O1280 GaussianGridType = "o1280"
	N160  GaussianGridType = "n160"
	N320  GaussianGridType = "n320"
)

// GaussianGridTypes lists every supported variant in a stable order.
var GaussianGridTypes = []GaussianGridType{O320, O1280, N160, N320}

type gaussianLayout struct {
	lines      int
	octahedral bool
}

var gaussianLayouts = map[GaussianGridType]gaussianLayout{
	O320:  {lines: 320, octahedral: true},
	O1280: {lines: 1280, octahedral: true},
	N160:  {lines: 160},
	N320:  {lines: 320},
}

// ParseGaussianGridType resolves a case-insensitive variant name ("O320",
// "n160", ...).
func ParseGaussianGridType(name string) (GaussianGridType, error) {
	t := GaussianGridType(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := gaussianLayouts[t]; !ok {
		return "", fmt.Errorf("%w: unknown gaussian grid type %q", ErrConfiguration, name)
	}
	return t, nil
}

func (t GaussianGridType) layout() (gaussianLayout, error) {
	l, ok := gaussianLayouts[t]
	if !ok {
		return gaussianLayout{}, fmt.Errorf("%w: unknown gaussian grid type %q", ErrConfiguration, string(t))
	}
	return l, nil
}

// String returns the upper-case variant name.
func (t GaussianGridType) String() string { return strings.ToUpper(string(t)) }

// IsOctahedral reports whether t is an O-series grid.
func (t GaussianGridType) IsOctahedral() bool {
	return gaussianLayouts[t].octahedral
}

// LatitudeLines returns L, the number of rows per hemisphere.
func (t GaussianGridType) LatitudeLines() int {
	return gaussianLayouts[t].lines
}

// Rows returns the total number of latitude rows (2L).
func (t GaussianGridType) Rows() int {
	return 2 * t.LatitudeLines()
}

// Count returns the total number of points, 4L(L+9).
func (t GaussianGridType) Count() int {
	l := t.LatitudeLines()
	return 4 * l * (l + 9)
}

// PointsInRow returns the number of longitudes on row y, y in [0, 2L).
func (t GaussianGridType) PointsInRow(y int) (int, error) {
	l, err := t.layout()
	if err != nil {
		return 0, err
	}
	if y < 0 || y >= 2*l.lines {
		return 0, fmt.Errorf("%w: row %d outside [0, %d)", ErrRange, y, 2*l.lines)
	}
	return octahedralRowPoints(l.lines, y), nil
}

// octahedralRowPoints starts at 20 points next to the pole and adds 4 per
// row towards the equator, mirrored in the southern hemisphere. It is the row
// table for every variant, N-series included.
func octahedralRowPoints(lines, y int) int {
	if y < lines {
		return 20 + 4*y
	}
	return 20 + 4*(2*lines-y-1)
}

func (t GaussianGridType) rowPoints(y int) int {
	return octahedralRowPoints(t.LatitudeLines(), y)
}

// RowOffset returns the index of the first point on row y (the prefix sum of
// all previous rows), y in [0, 2L]. RowOffset(2L) equals Count.
func (t GaussianGridType) RowOffset(y int) (int, error) {
	l, err := t.layout()
	if err != nil {
		return 0, err
	}
	if y < 0 || y > 2*l.lines {
		return 0, fmt.Errorf("%w: row %d outside [0, %d]", ErrRange, y, 2*l.lines)
	}
	return t.rowOffset(y), nil
}

func (t GaussianGridType) rowOffset(y int) int {
	l := t.LatitudeLines()
	if y <= l {
		return 2*y*y + 18*y
	}
	remaining := 2*l - y
	return t.Count() - (2*remaining*remaining + 18*remaining)
}

// RowLatitude returns the Gaussian latitude of row y in degrees. Row 0 is the
// northernmost row.
func (t GaussianGridType) RowLatitude(y int) (float64, error) {
	lats, err := t.Latitudes()
	if err != nil {
		return 0, err
	}
	if y < 0 || y >= len(lats) {
		return 0, fmt.Errorf("%w: row %d outside [0, %d)", ErrRange, y, len(lats))
	}
	return lats[y], nil
}

var gaussianLatitudes sync.Map // GaussianGridType -> *latitudeTable

type latitudeTable struct {
	once sync.Once
	lats []float64
}

// Latitudes returns all 2L row latitudes in degrees, north to south. The
// returned slice is shared and must not be modified.
func (t GaussianGridType) Latitudes() ([]float64, error) {
	l, err := t.layout()
	if err != nil {
		return nil, err
	}
	v, _ := gaussianLatitudes.LoadOrStore(t, &latitudeTable{})
	table := v.(*latitudeTable)
	table.once.Do(func() {
		table.lats = gaussianLatitudesFor(l.lines)
	})
	return table.lats, nil
}

// gaussianLatitudesFor computes the 2*lines Gaussian latitudes as the arcsine
// of the roots of the Legendre polynomial of degree 2*lines, using Newton
// iteration from the usual cosine initial guess.
func gaussianLatitudesFor(lines int) []float64 {
	n := 2 * lines
	lats := make([]float64, n)
	for k := 0; k < lines; k++ {
		x := math.Cos(math.Pi * (float64(k) + 0.75) / (float64(n) + 0.5))
		for iter := 0; iter < 100; iter++ {
			p, dp := legendre(n, x)
			dx := p / dp
			x -= dx
			if math.Abs(dx) <= 1e-15 {
				break
			}
		}
		lat := toDeg(math.Asin(x))
		lats[k] = lat
		lats[n-1-k] = -lat
	}
	return lats
}

// legendre evaluates P_n(x) and its derivative by the three-term recurrence.
func legendre(n int, x float64) (p, dp float64) {
	p0, p1 := 1.0, x
	for k := 2; k <= n; k++ {
		p0, p1 = p1, ((2*float64(k)-1)*x*p1-(float64(k)-1)*p0)/float64(k)
	}
	p = p1
	dp = float64(n) * (x*p1 - p0) / (x*x - 1)
	return p, dp
}

// PointAt resolves a flat index to its (lat, lon). Longitudes start at 0° on
// every row and are returned in [-180, 180).
func (t GaussianGridType) PointAt(index int) (lat, lon float64, err error) {
	lats, err := t.Latitudes()
	if err != nil {
		return 0, 0, err
	}
	if index < 0 || index >= t.Count() {
		return 0, 0, fmt.Errorf("%w: point index %d outside [0, %d)", ErrRange, index, t.Count())
	}
	rows := t.Rows()
	// First row whose end lies beyond index.
	y := sort.Search(rows, func(r int) bool { return t.rowOffset(r+1) > index })
	x := index - t.rowOffset(y)
	nx := t.rowPoints(y)
	return lats[y], NormalizeLon(float64(x) * 360 / float64(nx)), nil
}

// FindPoint returns the index of the grid point nearest to (lat, lon): the
// nearest row by latitude, then the nearest column on that row. Ties resolve
// to the smaller index.
func (t GaussianGridType) FindPoint(lat, lon float64) (int, error) {
	x, y, err := t.FindPointXY(lat, lon)
	if err != nil {
		return 0, err
	}
	return t.rowOffset(y) + x, nil
}

// FindPointXY is FindPoint returning the (column, row) pair.
func (t GaussianGridType) FindPointXY(lat, lon float64) (x, y int, err error) {
	lats, err := t.Latitudes()
	if err != nil {
		return 0, 0, err
	}
	if err := ValidateLatLon(lat, lon); err != nil {
		return 0, 0, err
	}

	// Rows are sorted north to south; i is the first row at or below lat.
	n := len(lats)
	i := sort.Search(n, func(r int) bool { return lats[r] <= lat })
	switch {
	case i == 0:
		y = 0
	case i == n:
		y = n - 1
	case lat-lats[i] < lats[i-1]-lat:
		y = i
	default:
		y = i - 1
	}

	nx := t.rowPoints(y)
	f := normalizeLon360(lon) * float64(nx) / 360
	lo := int(math.Floor(f))
	frac := f - float64(lo)
	switch {
	case frac < 0.5:
		x = lo
	case frac > 0.5:
		x = lo + 1
	default:
		x = min(lo%nx, (lo+1)%nx)
	}
	return x % nx, y, nil
}

// Coordinates returns latitude and longitude arrays of length Count in point
// index order.
func (t GaussianGridType) Coordinates() (lats, lons []float64, err error) {
	rowLats, err := t.Latitudes()
	if err != nil {
		return nil, nil, err
	}
	total := t.Count()
	lats = make([]float64, total)
	lons = make([]float64, total)
	for y := 0; y < t.Rows(); y++ {
		start := t.rowOffset(y)
		nx := t.rowPoints(y)
		dx := 360 / float64(nx)
		for x := 0; x < nx; x++ {
			lats[start+x] = rowLats[y]
			lons[start+x] = NormalizeLon(float64(x) * dx)
		}
	}
	return lats, lons, nil
}
