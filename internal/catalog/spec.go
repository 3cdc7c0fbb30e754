// Package catalog builds source grids from declarative specs and keeps the
// named presets grouped by data domain.
package catalog

import (
	"fmt"

	"go.ngs.io/regrid/internal/domain"
)

// GridSpec declares a source grid: its variant and the parameters that
// variant needs.
type GridSpec struct {
	Type   domain.Kind `toml:"type" json:"type"`
	Params GridParams  `toml:"params" json:"params"`
}

// GridParams is the union of the parameters of every grid variant. Fields a
// variant does not use are ignored.
type GridParams struct {
	// RegularGrid, and ProjectionGrid dimensions.
	NX int `toml:"nx" json:"nx,omitempty"`
	NY int `toml:"ny" json:"ny,omitempty"`

	LatMin       float64 `toml:"latMin" json:"latMin,omitempty"`
	LonMin       float64 `toml:"lonMin" json:"lonMin,omitempty"`
	Dx           float64 `toml:"dx" json:"dx,omitempty"`
	Dy           float64 `toml:"dy" json:"dy,omitempty"`
	SearchRadius int     `toml:"searchRadius" json:"searchRadius,omitempty"`

	// GaussianGrid.
	GridType string `toml:"grid_type" json:"grid_type,omitempty"`

	// ProjectionGrid. Either the corner ranges or the projection origin is
	// set; the origin form uses Dx and Dy in plane units.
	Projection                *ProjectionSpec `toml:"projection" json:"projection,omitempty"`
	Latitude                  *domain.Range   `toml:"latitude" json:"latitude,omitempty"`
	Longitude                 *domain.Range   `toml:"longitude" json:"longitude,omitempty"`
	LatitudeProjectionOrigin  *float64        `toml:"latitudeProjectionOrigin" json:"latitudeProjectionOrigin,omitempty"`
	LongitudeProjectionOrigin *float64        `toml:"longitudeProjectionOrigin" json:"longitudeProjectionOrigin,omitempty"`
}

// ProjectionSpec declares a projection by kind.
type ProjectionSpec struct {
	Type   domain.ProjectionKind `toml:"type" json:"type"`
	Params ProjectionParams      `toml:"params" json:"params"`
}

// ProjectionParams is the union of the projection parameters, in degrees
// except Radius.
type ProjectionParams struct {
	Lambda0   float64 `toml:"lambda0" json:"lambda0,omitempty"`
	Phi0      float64 `toml:"phi0" json:"phi0,omitempty"`
	Phi1      float64 `toml:"phi1" json:"phi1,omitempty"`
	Phi2      float64 `toml:"phi2" json:"phi2,omitempty"`
	Radius    float64 `toml:"radius" json:"radius,omitempty"`
	Latitude  float64 `toml:"latitude" json:"latitude,omitempty"`
	Longitude float64 `toml:"longitude" json:"longitude,omitempty"`
}

// BuildProjection constructs the projection a spec declares.
func BuildProjection(spec ProjectionSpec) (domain.Projection, error) {
	p := spec.Params
	var (
		proj domain.Projection
		err  error
	)
	switch spec.Type {
	case domain.KindLambertConformalConic:
		proj, err = domain.NewLambertConformalConic(p.Lambda0, p.Phi0, p.Phi1, p.Phi2, p.Radius)
	case domain.KindRotatedLatLon:
		proj, err = domain.NewRotatedLatLon(p.Latitude, p.Longitude)
	case domain.KindStereographic:
		proj, err = domain.NewStereographic(p.Latitude, p.Longitude, p.Radius)
	case domain.KindLambertAzimuthalEqualArea:
		proj, err = domain.NewLambertAzimuthalEqualArea(p.Lambda0, p.Phi1, p.Radius)
	default:
		return nil, fmt.Errorf("%w: unsupported projection type %q", domain.ErrConfiguration, spec.Type)
	}
	if err != nil {
		return nil, err
	}
	return proj, nil
}

// BuildGrid constructs the grid a spec declares.
func BuildGrid(spec GridSpec) (domain.Grid, error) {
	p := spec.Params
	switch spec.Type {
	case domain.KindRegular:
		g, err := domain.NewRegularGrid(p.NX, p.NY, p.LatMin, p.LonMin, p.Dx, p.Dy)
		if err != nil {
			return nil, err
		}
		if p.SearchRadius > 0 {
			g.SearchRadius = p.SearchRadius
		}
		return g, nil

	case domain.KindGaussian:
		t, err := domain.ParseGaussianGridType(p.GridType)
		if err != nil {
			return nil, err
		}
		g, err := domain.NewGaussianGrid(t)
		if err != nil {
			return nil, err
		}
		return g, nil

	case domain.KindProjection:
		if p.Projection == nil {
			return nil, fmt.Errorf("%w: projection grid without projection", domain.ErrConfiguration)
		}
		proj, err := BuildProjection(*p.Projection)
		if err != nil {
			return nil, err
		}
		var g *domain.ProjectionGrid
		switch {
		case p.Latitude != nil && p.Longitude != nil:
			g, err = domain.NewProjectionGrid(p.NX, p.NY, proj, *p.Latitude, *p.Longitude)
		case p.LatitudeProjectionOrigin != nil && p.LongitudeProjectionOrigin != nil:
			g, err = domain.NewProjectionGridFromOrigin(p.NX, p.NY, proj,
				*p.LatitudeProjectionOrigin, *p.LongitudeProjectionOrigin, p.Dx, p.Dy)
		default:
			return nil, fmt.Errorf("%w: projection grid needs latitude/longitude ranges or a projection origin", domain.ErrConfiguration)
		}
		if err != nil {
			return nil, err
		}
		return g, nil

	default:
		return nil, fmt.Errorf("%w: unsupported grid type %q", domain.ErrConfiguration, spec.Type)
	}
}
