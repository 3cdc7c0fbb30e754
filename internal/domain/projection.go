package domain

import (
	"fmt"
	"math"
)

// ProjectionKind names a supported cartographic projection.
type ProjectionKind string

// Supported projection kinds. The values match the preset table's type names.
const (
	KindLambertConformalConic     ProjectionKind = "LambertConformalConicProjection"
	KindRotatedLatLon             ProjectionKind = "RotatedLatLonProjection"
	KindStereographic             ProjectionKind = "StereographicProjection"
	KindLambertAzimuthalEqualArea ProjectionKind = "LambertAzimuthalEqualAreaProjection"
)

// Projection maps between geographic coordinates (degrees) and a projection
// plane. Implementations are immutable and safe for concurrent use.
type Projection interface {
	Kind() ProjectionKind
	// Project maps (lat, lon) to plane coordinates.
	Project(lat, lon float64) (x, y float64, err error)
	// Unproject maps plane coordinates back to (lat, lon), lon in [-180, 180).
	Unproject(x, y float64) (lat, lon float64, err error)
}

// wrapRad maps an angle in radians into [-π, π).
func wrapRad(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

func validateRadius(kind ProjectionKind, r float64) error {
	if !(r > 0) || math.IsInf(r, 0) {
		return fmt.Errorf("%w: %s radius must be positive, got %v", ErrConfiguration, kind, r)
	}
	return nil
}

func validateParallel(kind ProjectionKind, name string, deg float64) error {
	if math.IsNaN(deg) || deg < -90 || deg > 90 {
		return fmt.Errorf("%w: %s %s %v outside [-90, 90]", ErrConfiguration, kind, name, deg)
	}
	return nil
}

// LambertConformalConic is the spherical Lambert conformal conic projection
// with standard parallels Phi1 and Phi2, origin latitude Phi0 and central
// meridian Lambda0 (degrees). Plane units follow Radius.
type LambertConformalConic struct {
	Lambda0, Phi0, Phi1, Phi2 float64
	Radius                    float64

	n, f, rho0 float64
}

// NewLambertConformalConic validates the parameters and precomputes the cone
// constants. Equal standard parallels select the tangent cone.
func NewLambertConformalConic(lambda0, phi0, phi1, phi2, radius float64) (*LambertConformalConic, error) {
	kind := KindLambertConformalConic
	if err := validateRadius(kind, radius); err != nil {
		return nil, err
	}
	for _, p := range []struct {
		name string
		v    float64
	}{{"phi0", phi0}, {"phi1", phi1}, {"phi2", phi2}} {
		if err := validateParallel(kind, p.name, p.v); err != nil {
			return nil, err
		}
	}
	if math.IsNaN(lambda0) || math.IsInf(lambda0, 0) {
		return nil, fmt.Errorf("%w: %s lambda0 is not finite", ErrConfiguration, kind)
	}

	φ0, φ1, φ2 := toRad(phi0), toRad(phi1), toRad(phi2)
	if math.Abs(math.Cos(φ1)) < 1e-12 || math.Abs(math.Cos(φ2)) < 1e-12 {
		return nil, fmt.Errorf("%w: %s standard parallel at a pole (phi1=%g, phi2=%g)", ErrNumericDegeneracy, kind, phi1, phi2)
	}

	var n float64
	if phi1 == phi2 {
		n = math.Sin(φ1)
	} else {
		n = math.Log(math.Cos(φ1)/math.Cos(φ2)) /
			math.Log(math.Tan(math.Pi/4+φ2/2)/math.Tan(math.Pi/4+φ1/2))
	}
	if math.Abs(n) < 1e-12 || math.IsNaN(n) {
		return nil, fmt.Errorf("%w: %s cone constant is zero (phi1=%g, phi2=%g)", ErrNumericDegeneracy, kind, phi1, phi2)
	}

	f := math.Cos(φ1) * math.Pow(math.Tan(math.Pi/4+φ1/2), n) / n
	t0 := math.Tan(math.Pi/4 + φ0/2)
	rho0 := radius * f / math.Pow(t0, n)
	if math.IsNaN(rho0) || math.IsInf(rho0, 0) {
		return nil, fmt.Errorf("%w: %s origin latitude %g lies on the cone apex opposite", ErrNumericDegeneracy, kind, phi0)
	}

	return &LambertConformalConic{
		Lambda0: lambda0, Phi0: phi0, Phi1: phi1, Phi2: phi2, Radius: radius,
		n: n, f: f, rho0: rho0,
	}, nil
}

// Kind implements Projection.
func (p *LambertConformalConic) Kind() ProjectionKind { return KindLambertConformalConic }

// Project implements Projection.
func (p *LambertConformalConic) Project(lat, lon float64) (x, y float64, err error) {
	if err := ValidateLatLon(lat, lon); err != nil {
		return 0, 0, err
	}
	t := math.Tan(math.Pi/4 + toRad(lat)/2)
	ρ := p.Radius * p.f / math.Pow(t, p.n)
	if math.IsNaN(ρ) || math.IsInf(ρ, 0) {
		return 0, 0, fmt.Errorf("%w: latitude %g maps to infinity in %s", ErrRange, lat, p.Kind())
	}
	θ := p.n * wrapRad(toRad(lon-p.Lambda0))
	return ρ * math.Sin(θ), p.rho0 - ρ*math.Cos(θ), nil
}

// Unproject implements Projection.
func (p *LambertConformalConic) Unproject(x, y float64) (lat, lon float64, err error) {
	sign := 1.0
	if p.n < 0 {
		sign = -1
	}
	dy := p.rho0 - y
	ρ := sign * math.Hypot(x, dy)
	if ρ == 0 {
		return sign * 90, NormalizeLon(p.Lambda0), nil
	}
	θ := math.Atan2(sign*x, sign*dy)
	φ := 2*math.Atan(math.Pow(p.Radius*p.f/ρ, 1/p.n)) - math.Pi/2
	return toDeg(φ), NormalizeLon(p.Lambda0 + toDeg(θ/p.n)), nil
}

// RotatedLatLon is a latitude-longitude grid whose south pole sits at
// (Latitude, Longitude). Plane coordinates are rotated (lon, lat) degrees.
type RotatedLatLon struct {
	Latitude, Longitude float64

	sinβ, cosβ float64
}

// NewRotatedLatLon builds the rotation for a south pole at (lat, lon).
func NewRotatedLatLon(lat, lon float64) (*RotatedLatLon, error) {
	if err := validateParallel(KindRotatedLatLon, "latitude", lat); err != nil {
		return nil, err
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		return nil, fmt.Errorf("%w: %s longitude is not finite", ErrConfiguration, KindRotatedLatLon)
	}
	β := toRad(lat + 90)
	return &RotatedLatLon{Latitude: lat, Longitude: lon, sinβ: math.Sin(β), cosβ: math.Cos(β)}, nil
}

// Kind implements Projection.
func (p *RotatedLatLon) Kind() ProjectionKind { return KindRotatedLatLon }

// Project implements Projection. x is the rotated longitude, y the rotated
// latitude.
func (p *RotatedLatLon) Project(lat, lon float64) (x, y float64, err error) {
	if err := ValidateLatLon(lat, lon); err != nil {
		return 0, 0, err
	}
	vx, vy, vz := UnitVector(lat, lon-p.Longitude)
	rx := vx*p.cosβ + vz*p.sinβ
	rz := -vx*p.sinβ + vz*p.cosβ
	return toDeg(math.Atan2(vy, rx)), toDeg(math.Asin(clampUnit(rz))), nil
}

// Unproject implements Projection.
func (p *RotatedLatLon) Unproject(x, y float64) (lat, lon float64, err error) {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return 0, 0, fmt.Errorf("%w: rotated coordinate (%v, %v) is not finite", ErrRange, x, y)
	}
	rx, ry, rz := UnitVector(y, x)
	vx := rx*p.cosβ - rz*p.sinβ
	vz := rx*p.sinβ + rz*p.cosβ
	return toDeg(math.Asin(clampUnit(vz))), NormalizeLon(toDeg(math.Atan2(ry, vx)) + p.Longitude), nil
}

// azimuthal holds the shared centre terms of the azimuthal projections.
type azimuthal struct {
	lat0, lon0   float64
	sinφ1, cosφ1 float64
}

func newAzimuthal(lat0, lon0 float64) azimuthal {
	φ1 := toRad(lat0)
	return azimuthal{lat0: lat0, lon0: lon0, sinφ1: math.Sin(φ1), cosφ1: math.Cos(φ1)}
}

// terms returns cos(c) (the cosine of the angular distance from the centre)
// and the unscaled plane components.
func (a azimuthal) terms(lat, lon float64) (cosc, ux, uy float64) {
	φ := toRad(lat)
	dλ := toRad(lon - a.lon0)
	sinφ, cosφ := math.Sin(φ), math.Cos(φ)
	cosc = a.sinφ1*sinφ + a.cosφ1*cosφ*math.Cos(dλ)
	ux = cosφ * math.Sin(dλ)
	uy = a.cosφ1*sinφ - a.sinφ1*cosφ*math.Cos(dλ)
	return cosc, ux, uy
}

// inverse maps plane (x, y) at angular distance c from the centre back to
// geographic degrees.
func (a azimuthal) inverse(x, y, ρ, c float64) (lat, lon float64) {
	if ρ == 0 {
		return a.lat0, NormalizeLon(a.lon0)
	}
	sinc, cosc := math.Sin(c), math.Cos(c)
	φ := math.Asin(clampUnit(cosc*a.sinφ1 + y*sinc*a.cosφ1/ρ))
	λ := math.Atan2(x*sinc, ρ*a.cosφ1*cosc-y*a.sinφ1*sinc)
	return toDeg(φ), NormalizeLon(a.lon0 + toDeg(λ))
}

// Stereographic is the oblique spherical stereographic projection centred on
// (Latitude, Longitude).
type Stereographic struct {
	Latitude, Longitude, Radius float64

	az azimuthal
}

// NewStereographic validates the centre and radius.
func NewStereographic(lat, lon, radius float64) (*Stereographic, error) {
	kind := KindStereographic
	if err := validateRadius(kind, radius); err != nil {
		return nil, err
	}
	if err := validateParallel(kind, "latitude", lat); err != nil {
		return nil, err
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		return nil, fmt.Errorf("%w: %s longitude is not finite", ErrConfiguration, kind)
	}
	return &Stereographic{Latitude: lat, Longitude: lon, Radius: radius, az: newAzimuthal(lat, lon)}, nil
}

// Kind implements Projection.
func (p *Stereographic) Kind() ProjectionKind { return KindStereographic }

// Project implements Projection.
func (p *Stereographic) Project(lat, lon float64) (x, y float64, err error) {
	if err := ValidateLatLon(lat, lon); err != nil {
		return 0, 0, err
	}
	cosc, ux, uy := p.az.terms(lat, lon)
	if 1+cosc < 1e-12 {
		return 0, 0, fmt.Errorf("%w: (%g, %g) is the antipode of the %s centre", ErrNumericDegeneracy, lat, lon, p.Kind())
	}
	k := 2 * p.Radius / (1 + cosc)
	return k * ux, k * uy, nil
}

// Unproject implements Projection.
func (p *Stereographic) Unproject(x, y float64) (lat, lon float64, err error) {
	ρ := math.Hypot(x, y)
	if math.IsNaN(ρ) || math.IsInf(ρ, 0) {
		return 0, 0, fmt.Errorf("%w: plane coordinate (%v, %v) is not finite", ErrRange, x, y)
	}
	c := 2 * math.Atan(ρ/(2*p.Radius))
	lat, lon = p.az.inverse(x, y, ρ, c)
	return lat, lon, nil
}

// LambertAzimuthalEqualArea is the spherical Lambert azimuthal equal-area
// projection centred on (Phi1, Lambda0).
type LambertAzimuthalEqualArea struct {
	Lambda0, Phi1, Radius float64

	az azimuthal
}

// NewLambertAzimuthalEqualArea validates the centre and radius.
func NewLambertAzimuthalEqualArea(lambda0, phi1, radius float64) (*LambertAzimuthalEqualArea, error) {
	kind := KindLambertAzimuthalEqualArea
	if err := validateRadius(kind, radius); err != nil {
		return nil, err
	}
	if err := validateParallel(kind, "phi1", phi1); err != nil {
		return nil, err
	}
	if math.IsNaN(lambda0) || math.IsInf(lambda0, 0) {
		return nil, fmt.Errorf("%w: %s lambda0 is not finite", ErrConfiguration, kind)
	}
	return &LambertAzimuthalEqualArea{Lambda0: lambda0, Phi1: phi1, Radius: radius, az: newAzimuthal(phi1, lambda0)}, nil
}

// Kind implements Projection.
func (p *LambertAzimuthalEqualArea) Kind() ProjectionKind { return KindLambertAzimuthalEqualArea }

// Project implements Projection.
func (p *LambertAzimuthalEqualArea) Project(lat, lon float64) (x, y float64, err error) {
	if err := ValidateLatLon(lat, lon); err != nil {
		return 0, 0, err
	}
	cosc, ux, uy := p.az.terms(lat, lon)
	if 1+cosc < 1e-12 {
		return 0, 0, fmt.Errorf("%w: (%g, %g) is the antipode of the %s centre", ErrNumericDegeneracy, lat, lon, p.Kind())
	}
	k := p.Radius * math.Sqrt(2/(1+cosc))
	return k * ux, k * uy, nil
}

// Unproject implements Projection. Plane points farther than 2*Radius from
// the centre lie outside the projected sphere.
func (p *LambertAzimuthalEqualArea) Unproject(x, y float64) (lat, lon float64, err error) {
	ρ := math.Hypot(x, y)
	if math.IsNaN(ρ) || math.IsInf(ρ, 0) {
		return 0, 0, fmt.Errorf("%w: plane coordinate (%v, %v) is not finite", ErrRange, x, y)
	}
	limit := 2 * p.Radius
	if ρ > limit*(1+1e-12) {
		return 0, 0, fmt.Errorf("%w: plane radius %g exceeds %g in %s", ErrRange, ρ, limit, p.Kind())
	}
	c := 2 * math.Asin(clampUnit(ρ/limit))
	lat, lon = p.az.inverse(x, y, ρ, c)
	return lat, lon, nil
}
