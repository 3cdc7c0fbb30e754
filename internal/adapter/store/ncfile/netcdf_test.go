package ncfile

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/regrid/internal/adapter/store"
	"go.ngs.io/regrid/internal/converter"
	"go.ngs.io/regrid/internal/domain"
)

// createSamplesNC writes a variable with the given dimension order.
func createSamplesNC(t *testing.T, path string, dimNames []string, lengths []int, values []float32, fill *float32) {
	t.Helper()
	f, err := netcdf.CreateFile(path, netcdf.CLOBBER)
	if err != nil {
		t.Fatalf("create nc: %v", err)
	}
	defer f.Close()

	dims := make([]netcdf.Dim, len(dimNames))
	for i, name := range dimNames {
		d, err := f.AddDim(name, uint64(lengths[i]))
		if err != nil {
			t.Fatalf("add dim %s: %v", name, err)
		}
		dims[i] = d
	}
	v, err := f.AddVar("t2m", netcdf.FLOAT, dims)
	if err != nil {
		t.Fatalf("add var: %v", err)
	}
	if fill != nil {
		if err := v.Attr("_FillValue").WriteFloat32s([]float32{*fill}); err != nil {
			t.Fatalf("write fill: %v", err)
		}
	}
	if err := f.EndDef(); err != nil {
		t.Fatalf("enddef: %v", err)
	}
	if err := v.WriteFloat32s(values); err != nil {
		t.Fatalf("write t2m: %v", err)
	}
}

func TestReadSamples_PointsOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.nc")
	fill := float32(-999)
	createSamplesNC(t, path, []string{"points"}, []int{4}, []float32{1, 2, -999, 4}, &fill)

	got, err := NewStore().ReadSamples(path, "t2m")
	if err != nil {
		t.Fatalf("ReadSamples: %v", err)
	}
	if got.Field.Points != 4 || got.Field.Times != 0 {
		t.Fatalf("shape: expected (4,), got points=%d times=%d", got.Field.Points, got.Field.Times)
	}
	if got.Field.Values[1] != 2 || !math.IsNaN(got.Field.Values[2]) {
		t.Errorf("values: got %v", got.Field.Values)
	}
}

func TestReadSamples_TimeMajorIsTransposed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.nc")
	// (time=2, points=3)
	createSamplesNC(t, path, []string{"time", "points"}, []int{2, 3}, []float32{1, 2, 3, 10, 20, 30}, nil)

	got, err := NewStore().ReadSamples(path, "t2m")
	if err != nil {
		t.Fatalf("ReadSamples: %v", err)
	}
	if got.Field.Points != 3 || got.Field.Times != 2 {
		t.Fatalf("shape: expected (3, 2), got (%d, %d)", got.Field.Points, got.Field.Times)
	}
	want := []float64{1, 10, 2, 20, 3, 30}
	for i := range want {
		if got.Field.Values[i] != want[i] {
			t.Fatalf("values: expected %v, got %v", want, got.Field.Values)
		}
	}
}

func TestReadSamples_MissingVariable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.nc")
	createSamplesNC(t, path, []string{"points"}, []int{2}, []float32{1, 2}, nil)
	if _, err := NewStore().ReadSamples(path, "precip"); err == nil {
		t.Fatal("expected error for missing variable")
	}
}

func TestWriteRaster_RoundTrip(t *testing.T) {
	target, err := converter.BuildTargetGrid(converter.Uniform(1), domain.Range{Min: 0, Max: 1}, domain.Range{Min: 10, Max: 12}, 0)
	if err != nil {
		t.Fatal(err)
	}
	raster := &converter.Raster{NY: 2, NX: 3, Times: 2, Values: []float64{
		1, 2, 3, 4, 5, 6,
		7, 8, 9, 10, 11, 12,
	}}
	path := filepath.Join(t.TempDir(), "out.nc")
	s := NewStore()
	if err := s.WriteRaster(path, store.Output{Variable: "t2m", Units: "K", Target: target, Raster: raster, Time: []float64{0, 6}}); err != nil {
		t.Fatalf("WriteRaster: %v", err)
	}

	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		t.Fatal(err)
	}
	defer nc.Close()

	lonVar, err := nc.Var("lon")
	if err != nil {
		t.Fatal(err)
	}
	lons := make([]float64, 3)
	if err := lonVar.ReadFloat64s(lons); err != nil {
		t.Fatal(err)
	}
	if lons[0] != 10 || lons[2] != 12 {
		t.Errorf("lon: got %v", lons)
	}

	dataVar, err := nc.Var("t2m")
	if err != nil {
		t.Fatal(err)
	}
	dims, err := dataVar.Dims()
	if err != nil || len(dims) != 3 {
		t.Fatalf("t2m dims: expected 3, got %d (%v)", len(dims), err)
	}
	data := make([]float64, 12)
	if err := dataVar.ReadFloat64s(data); err != nil {
		t.Fatal(err)
	}
	for i, want := range raster.Values {
		if data[i] != want {
			t.Fatalf("t2m[%d]: expected %v, got %v", i, want, data[i])
		}
	}
}

func TestWriteRaster_ShapeMismatch(t *testing.T) {
	target, _ := converter.BuildTargetGrid(converter.Uniform(1), domain.Range{Min: 0, Max: 1}, domain.Range{Min: 0, Max: 1}, 0)
	raster := &converter.Raster{NY: 3, NX: 2, Values: make([]float64, 6)}
	path := filepath.Join(t.TempDir(), "out.nc")
	if err := NewStore().WriteRaster(path, store.Output{Target: target, Raster: raster}); err == nil {
		t.Fatal("expected shape error")
	}
}
