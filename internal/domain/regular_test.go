package domain

import (
	"errors"
	"math"
	"testing"
)

func globalOneDegree(t *testing.T) RegularGrid {
	t.Helper()
	g, err := NewRegularGrid(360, 181, -90, -180, 1, 1)
	if err != nil {
		t.Fatalf("NewRegularGrid: %v", err)
	}
	return g
}

func TestRegularFindPoint(t *testing.T) {
	g := globalOneDegree(t)
	tests := []struct {
		name     string
		lat, lon float64
		want     int
	}{
		{"origin", -90, -180, 0},
		{"equator prime meridian", 0, 0, 90*360 + 180},
		{"tie resolves to smaller index", 0.5, 0.5, 90*360 + 180},
		{"just past tie", 0.51, 0.51, 91*360 + 181},
		{"dateline wraps to first column", 10, 180, 100 * 360},
		{"west of seam wraps", 10, 179.6, 100 * 360},
		{"east longitudes", 10, 540, 100 * 360},
		{"north pole", 90, 0, 180*360 + 180},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.FindPoint(tt.lat, tt.lon)
			if err != nil {
				t.Fatalf("FindPoint: %v", err)
			}
			if got != tt.want {
				t.Errorf("FindPoint(%v, %v): expected %d, got %d", tt.lat, tt.lon, tt.want, got)
			}
		})
	}
}

func TestRegularFindPointWithinHalfSpacing(t *testing.T) {
	g, err := NewRegularGrid(40, 30, 20, 100, 0.25, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	for lat := 20.0; lat <= 34.5; lat += 0.37 {
		for lon := 100.0; lon <= 109.75; lon += 0.29 {
			index, err := g.FindPoint(lat, lon)
			if err != nil {
				t.Fatalf("FindPoint(%v, %v): %v", lat, lon, err)
			}
			pLat, pLon, err := g.PointAt(index)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(pLat-lat) > g.Dy/2+1e-9 || math.Abs(pLon-lon) > g.Dx/2+1e-9 {
				t.Fatalf("FindPoint(%v, %v) = (%v, %v), farther than half a cell", lat, lon, pLat, pLon)
			}
		}
	}
}

func TestRegularFindPointOutOfRange(t *testing.T) {
	g, err := NewRegularGrid(10, 10, 30, 120, 0.1, 0.1)
	if err != nil {
		t.Fatal(err)
	}

	inside := []struct{ lat, lon float64 }{
		{30.04, 120.04}, {29.96, 120}, {30, 119.96}, {30.94, 120.94},
	}
	for _, c := range inside {
		if _, err := g.FindPoint(c.lat, c.lon); err != nil {
			t.Errorf("FindPoint(%v, %v): unexpected error %v", c.lat, c.lon, err)
		}
	}

	outside := []struct{ lat, lon float64 }{
		{29.8, 120}, {31.2, 120}, {30, 119.8}, {30, 121.2}, {95, 120}, {math.NaN(), 120},
	}
	for _, c := range outside {
		if _, err := g.FindPoint(c.lat, c.lon); !errors.Is(err, ErrRange) {
			t.Errorf("FindPoint(%v, %v): expected ErrRange, got %v", c.lat, c.lon, err)
		}
	}
}

func TestRegularReshapeFlatten(t *testing.T) {
	g, err := NewRegularGrid(3, 2, 0, 0, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	flat := []float64{1, 2, 3, 4, 5, 6}
	raster, err := g.Reshape(flat)
	if err != nil {
		t.Fatalf("Reshape: %v", err)
	}
	if len(raster) != 2 || len(raster[0]) != 3 || raster[1][0] != 4 {
		t.Fatalf("Reshape: unexpected raster %v", raster)
	}
	back := Flatten(raster)
	for i := range flat {
		if back[i] != flat[i] {
			t.Fatalf("Flatten(Reshape(x)) != x: %v", back)
		}
	}

	_, err = g.Reshape(flat[:5])
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("short input: expected ErrShapeMismatch, got %v", err)
	}
	var shapeErr *ShapeMismatchError
	if !errors.As(err, &shapeErr) || shapeErr.Expected != 6 || shapeErr.Got != 5 {
		t.Errorf("short input: unexpected error detail %v", err)
	}
}

func TestRegularCoordinates(t *testing.T) {
	g, err := NewRegularGrid(4, 3, -10, 20, 0.5, 2)
	if err != nil {
		t.Fatal(err)
	}
	lats, lons := g.Coordinates()
	if len(lats) != 12 || len(lons) != 12 {
		t.Fatalf("coordinates: expected 12 points, got %d/%d", len(lats), len(lons))
	}
	for index := range lats {
		lat, lon, err := g.PointAt(index)
		if err != nil {
			t.Fatal(err)
		}
		if lats[index] != lat || lons[index] != lon {
			t.Errorf("index %d: Coordinates (%v, %v), PointAt (%v, %v)", index, lats[index], lons[index], lat, lon)
		}
	}
	lat2d, lon2d := g.Coordinates2D()
	if lat2d[2][0] != -6 || lon2d[0][3] != 21.5 {
		t.Errorf("Coordinates2D: got lat %v lon %v", lat2d[2][0], lon2d[0][3])
	}
	b := g.Bounds()
	if b.Latitude != (Range{Min: -10, Max: -6}) || b.Longitude != (Range{Min: 20, Max: 21.5}) {
		t.Errorf("Bounds: got %+v", b)
	}
}

func TestRegularValidate(t *testing.T) {
	tests := []struct {
		name           string
		nx, ny         int
		latMin, lonMin float64
		dx, dy         float64
	}{
		{"zero nx", 0, 10, 0, 0, 1, 1},
		{"negative ny", 10, -1, 0, 0, 1, 1},
		{"zero dx", 10, 10, 0, 0, 0, 1},
		{"NaN dy", 10, 10, 0, 0, 1, math.NaN()},
		{"infinite origin", 10, 10, math.Inf(1), 0, 1, 1},
	}
	for _, tt := range tests {
		if _, err := NewRegularGrid(tt.nx, tt.ny, tt.latMin, tt.lonMin, tt.dx, tt.dy); !errors.Is(err, ErrConfiguration) {
			t.Errorf("%s: expected ErrConfiguration, got %v", tt.name, err)
		}
	}
}
