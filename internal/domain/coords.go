package domain

import (
	"fmt"
	"math"
)

// NormalizeLon maps any finite longitude into [-180, 180).
func NormalizeLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

// normalizeLon360 maps any finite longitude into [0, 360).
func normalizeLon360(lon float64) float64 {
	lon = math.Mod(lon, 360)
	if lon < 0 {
		lon += 360
	}
	return lon
}

// ValidateLatLon checks that lat lies in [-90, 90] and that both values are
// finite. Longitude is not range-checked; callers normalize it.
func ValidateLatLon(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) {
		return fmt.Errorf("%w: latitude %v is not finite", ErrRange, lat)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %g outside [-90, 90]", ErrRange, lat)
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		return fmt.Errorf("%w: longitude %v is not finite", ErrRange, lon)
	}
	return nil
}

// roundHalfDown rounds to the nearest integer with exact halves going to the
// lower value, so that equidistant candidates resolve to the smaller index.
func roundHalfDown(f float64) int {
	return int(math.Ceil(f - 0.5))
}

// UnitVector returns the unit-sphere ECEF vector of (lat, lon) in degrees.
func UnitVector(lat, lon float64) (x, y, z float64) {
	φ := toRad(lat)
	λ := toRad(lon)
	cosφ := math.Cos(φ)
	return cosφ * math.Cos(λ), cosφ * math.Sin(λ), math.Sin(φ)
}

// ChordDistance2 returns the squared chord length between two points on the
// unit sphere. It orders pairs exactly like great-circle distance and is the
// single distance convention used for nearest-point searches.
func ChordDistance2(lat1, lon1, lat2, lon2 float64) float64 {
	x1, y1, z1 := UnitVector(lat1, lon1)
	x2, y2, z2 := UnitVector(lat2, lon2)
	dx, dy, dz := x1-x2, y1-y2, z1-z2
	return dx*dx + dy*dy + dz*dz
}

func toRad(d float64) float64 { return d * math.Pi / 180 }
func toDeg(r float64) float64 { return r * 180 / math.Pi }
