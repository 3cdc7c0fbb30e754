package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"

	"go.ngs.io/regrid/internal/domain"
)

func float64p(v float64) *float64 { return &v }

func testTable() map[string]map[string]GridSpec {
	return map[string]map[string]GridSpec{
		"EcmwfDomain": {
			"ifs_seas": {Type: domain.KindGaussian, Params: GridParams{GridType: "O320"}},
			"ifs025": {Type: domain.KindRegular, Params: GridParams{
				NX: 1440, NY: 721, LatMin: -90, LonMin: -180, Dx: 0.25, Dy: 0.25,
			}},
		},
		"NcepDomain": {
			"hrrr_conus": {Type: domain.KindProjection, Params: GridParams{
				NX: 1799, NY: 1059,
				Latitude:  &domain.Range{Min: 21.138, Max: 47.8424},
				Longitude: &domain.Range{Min: -122.72, Max: -60.918},
				Projection: &ProjectionSpec{
					Type:   domain.KindLambertConformalConic,
					Params: ProjectionParams{Lambda0: -97.5, Phi1: 38.5, Phi2: 38.5, Radius: 6371229},
				},
			}},
		},
	}
}

func TestBuildGrid_Variants(t *testing.T) {
	tests := []struct {
		name  string
		spec  GridSpec
		kind  domain.Kind
		count int
	}{
		{
			name:  "gaussian",
			spec:  GridSpec{Type: domain.KindGaussian, Params: GridParams{GridType: "n160"}},
			kind:  domain.KindGaussian,
			count: 108160,
		},
		{
			name: "regular with search radius",
			spec: GridSpec{Type: domain.KindRegular, Params: GridParams{
				NX: 360, NY: 181, LatMin: -90, LonMin: -180, Dx: 1, Dy: 1, SearchRadius: 3,
			}},
			kind:  domain.KindRegular,
			count: 360 * 181,
		},
		{
			name: "projection from origin",
			spec: GridSpec{Type: domain.KindProjection, Params: GridParams{
				NX: 100, NY: 80, Dx: 2000, Dy: 2000,
				LatitudeProjectionOrigin:  float64p(39.671),
				LongitudeProjectionOrigin: float64p(-25.421997),
				Projection: &ProjectionSpec{
					Type:   domain.KindLambertConformalConic,
					Params: ProjectionParams{Lambda0: -8, Phi0: 55.5, Phi1: 55.5, Phi2: 55.5, Radius: 6371229},
				},
			}},
			kind:  domain.KindProjection,
			count: 8000,
		},
		{
			name: "rotated corners",
			spec: GridSpec{Type: domain.KindProjection, Params: GridParams{
				NX: 18, NY: 9,
				Latitude:   &domain.Range{Min: 42, Max: 50},
				Longitude:  &domain.Range{Min: 0, Max: 17},
				Projection: &ProjectionSpec{Type: domain.KindRotatedLatLon, Params: ProjectionParams{Latitude: -43, Longitude: 10}},
			}},
			kind:  domain.KindProjection,
			count: 162,
		},
	}

	for _, tt := range tests {
		g, err := BuildGrid(tt.spec)
		if err != nil {
			t.Fatalf("%s: BuildGrid: %v", tt.name, err)
		}
		if g.Kind() != tt.kind {
			t.Errorf("%s: kind: expected %s, got %s", tt.name, tt.kind, g.Kind())
		}
		if g.Count() != tt.count {
			t.Errorf("%s: count: expected %d, got %d", tt.name, tt.count, g.Count())
		}
	}

	g, _ := BuildGrid(tests[1].spec)
	if r := g.(domain.RegularGrid); r.SearchRadius != 3 {
		t.Errorf("search radius: expected 3, got %v", r.SearchRadius)
	}
}

func TestBuildGrid_SearchRadiusFromTOML(t *testing.T) {
	const doc = `type = "RegularGrid"
params = { nx = 3072, ny = 1536, latMin = -89.912, lonMin = -180.0, dx = 0.1171875, dy = 0.1171875, searchRadius = 2 }
`
	var spec GridSpec
	if _, err := toml.Decode(doc, &spec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	g, err := BuildGrid(spec)
	if err != nil {
		t.Fatalf("BuildGrid: %v", err)
	}
	if r := g.(domain.RegularGrid); r.SearchRadius != 2 {
		t.Errorf("search radius: expected 2, got %d", r.SearchRadius)
	}

	// Without the key the grid keeps its default radius.
	spec.Params.SearchRadius = 0
	g, err = BuildGrid(spec)
	if err != nil {
		t.Fatal(err)
	}
	if r := g.(domain.RegularGrid); r.SearchRadius != 1 {
		t.Errorf("default search radius: expected 1, got %d", r.SearchRadius)
	}
}

func TestBuildGrid_Errors(t *testing.T) {
	lcc := &ProjectionSpec{Type: domain.KindLambertConformalConic, Params: ProjectionParams{Phi1: 30, Phi2: 60, Radius: 6371229}}
	tests := []struct {
		name string
		spec GridSpec
		want error
	}{
		{"unknown type", GridSpec{Type: "HexGrid"}, domain.ErrConfiguration},
		{"unknown gaussian", GridSpec{Type: domain.KindGaussian, Params: GridParams{GridType: "O96"}}, domain.ErrConfiguration},
		{"regular without spacing", GridSpec{Type: domain.KindRegular, Params: GridParams{NX: 10, NY: 10}}, domain.ErrConfiguration},
		{"projection missing", GridSpec{Type: domain.KindProjection, Params: GridParams{NX: 10, NY: 10}}, domain.ErrConfiguration},
		{"projection without placement", GridSpec{Type: domain.KindProjection, Params: GridParams{NX: 10, NY: 10, Projection: lcc}}, domain.ErrConfiguration},
		{"unknown projection", GridSpec{Type: domain.KindProjection, Params: GridParams{
			NX: 10, NY: 10, Projection: &ProjectionSpec{Type: "Mercator"},
		}}, domain.ErrConfiguration},
		{"opposite parallels", GridSpec{Type: domain.KindProjection, Params: GridParams{
			NX: 10, NY: 10, Dx: 1000, Dy: 1000,
			LatitudeProjectionOrigin: float64p(0), LongitudeProjectionOrigin: float64p(0),
			Projection: &ProjectionSpec{Type: domain.KindLambertConformalConic, Params: ProjectionParams{Phi1: 30, Phi2: -30, Radius: 1}},
		}}, domain.ErrNumericDegeneracy},
	}
	for _, tt := range tests {
		g, err := BuildGrid(tt.spec)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
		if g != nil {
			t.Errorf("%s: expected nil grid, got %T", tt.name, g)
		}
	}
}

func TestRegistry_Lookup(t *testing.T) {
	reg := NewRegistry(testTable())

	spec, err := reg.Lookup("EcmwfDomain", "ifs_seas")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if spec.Params.GridType != "O320" {
		t.Errorf("grid type: expected O320, got %q", spec.Params.GridType)
	}

	if _, err := reg.Lookup("EcmwfDomain", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing name: expected ErrNotFound, got %v", err)
	}
	if _, err := reg.Lookup("Nowhere", "ifs"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing domain: expected ErrNotFound, got %v", err)
	}
	if _, err := reg.Names("Nowhere"); !errors.Is(err, ErrNotFound) {
		t.Errorf("names of missing domain: expected ErrNotFound, got %v", err)
	}

	g, err := reg.Build("NcepDomain", "hrrr_conus")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.Count() != 1799*1059 {
		t.Errorf("hrrr count: got %d", g.Count())
	}
}

func TestRegistry_Listing(t *testing.T) {
	reg := NewRegistry(testTable())

	domains := reg.Domains()
	if len(domains) != 2 || domains[0] != "EcmwfDomain" || domains[1] != "NcepDomain" {
		t.Errorf("domains: got %v", domains)
	}
	names, err := reg.Names("EcmwfDomain")
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "ifs025" || names[1] != "ifs_seas" {
		t.Errorf("names: got %v", names)
	}

	entries := reg.Entries()
	if len(entries) != 3 {
		t.Fatalf("entries: expected 3, got %d", len(entries))
	}
	if entries[2].Domain != "NcepDomain" || entries[2].Name != "hrrr_conus" {
		t.Errorf("last entry: got %s/%s", entries[2].Domain, entries[2].Name)
	}
	if err := reg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestRegistry_ValidateReportsEveryFailure(t *testing.T) {
	table := testTable()
	table["Broken"] = map[string]GridSpec{
		"a": {Type: domain.KindGaussian, Params: GridParams{GridType: "X1"}},
		"b": {Type: "Nope"},
	}
	err := NewRegistry(table).Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
	msg := err.Error()
	for _, want := range []string{"Broken/a", "Broken/b"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q does not mention %s", msg, want)
		}
	}
}

func TestDescribe(t *testing.T) {
	reg := NewRegistry(testTable())

	g, err := reg.Build("EcmwfDomain", "ifs_seas")
	if err != nil {
		t.Fatal(err)
	}
	info := Describe("EcmwfDomain", "ifs_seas", g, false)
	if info.Kind != domain.KindGaussian || info.Count != 421120 || info.Rows != 640 || info.GridType != "O320" {
		t.Errorf("gaussian info: got %+v", info)
	}
	if info.Bounds != nil {
		t.Error("bounds should be omitted")
	}

	g, err = reg.Build("EcmwfDomain", "ifs025")
	if err != nil {
		t.Fatal(err)
	}
	info = Describe("EcmwfDomain", "ifs025", g, true)
	if info.Rows != 721 || info.Bounds == nil {
		t.Fatalf("regular info: got %+v", info)
	}
	if info.Bounds.Latitude.Min != -90 || info.Bounds.Latitude.Max != 90 {
		t.Errorf("regular bounds: got %+v", *info.Bounds)
	}
}
