package usecase

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go.ngs.io/regrid/internal/adapter/store"
	"go.ngs.io/regrid/internal/catalog"
	"go.ngs.io/regrid/internal/converter"
	"go.ngs.io/regrid/internal/domain"
	"go.ngs.io/regrid/internal/pkg/metrics"
)

// earthRadiusKm is the mean Earth radius used for reported distances.
const earthRadiusKm = 6371.0

// ErrInvalidRequest marks requests rejected before any grid work starts.
var ErrInvalidRequest = errors.New("invalid request")

// Options configures a ResampleUseCase.
type Options struct {
	Workers           int
	MaxTargetCells    int
	DefaultResolution float64
	Logger            logrus.FieldLogger
}

// ResampleUseCase orchestrates grid lookups, resampling and file export over
// the preset catalog. Converters are built once per preset and cached.
type ResampleUseCase struct {
	registry *catalog.Registry
	readers  map[string]store.SampleReader
	writers  map[string]store.RasterWriter
	opts     Options
	log      logrus.FieldLogger

	mu         sync.Mutex
	converters map[string]*converterEntry
}

type converterEntry struct {
	once sync.Once
	conv *converter.Converter
	err  error
}

// NewResampleUseCase creates a use case. readers and writers are keyed by
// file extension without the dot ("nc", "csv").
func NewResampleUseCase(registry *catalog.Registry, readers map[string]store.SampleReader, writers map[string]store.RasterWriter, opts Options) *ResampleUseCase {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.MaxTargetCells <= 0 {
		opts.MaxTargetCells = converter.DefaultMaxTargetCells
	}
	if !(opts.DefaultResolution > 0) {
		opts.DefaultResolution = 0.25
	}
	return &ResampleUseCase{
		registry:   registry,
		readers:    readers,
		writers:    writers,
		opts:       opts,
		log:        opts.Logger,
		converters: make(map[string]*converterEntry),
	}
}

// Converter returns the cached converter for a preset grid, building it on
// first use.
func (uc *ResampleUseCase) Converter(dom, name string) (*converter.Converter, error) {
	key := dom + "/" + name

	uc.mu.Lock()
	entry, ok := uc.converters[key]
	if !ok {
		entry = &converterEntry{}
		uc.converters[key] = entry
	}
	uc.mu.Unlock()

	entry.once.Do(func() {
		entry.conv, entry.err = uc.buildConverter(dom, name)
		if entry.err != nil {
			// Unknown and invalid grids are not cached.
			uc.mu.Lock()
			if uc.converters[key] == entry {
				delete(uc.converters, key)
			}
			uc.mu.Unlock()
			return
		}
		uc.mu.Lock()
		metrics.ConvertersCached.Set(float64(len(uc.converters)))
		uc.mu.Unlock()
	})
	return entry.conv, entry.err
}

func (uc *ResampleUseCase) buildConverter(dom, name string) (*converter.Converter, error) {
	grid, err := uc.registry.Build(dom, name)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	conv, err := converter.New(grid,
		converter.WithWorkers(uc.opts.Workers),
		converter.WithMaxTargetCells(uc.opts.MaxTargetCells),
		converter.WithLogger(uc.log.WithFields(logrus.Fields{"domain": dom, "grid": name})),
		converter.WithIndexObserver(func(kind domain.Kind, took time.Duration) {
			metrics.ObserveIndexBuild(string(kind), took)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create converter for %s/%s: %w", dom, name, err)
	}
	uc.log.WithFields(logrus.Fields{
		"domain": dom,
		"grid":   name,
		"kind":   grid.Kind(),
		"points": grid.Count(),
		"took":   time.Since(start),
	}).Info("converter ready")
	return conv, nil
}

// ListGrids summarizes every preset grid without bounds.
func (uc *ResampleUseCase) ListGrids() ([]catalog.GridInfo, error) {
	entries := uc.registry.Entries()
	out := make([]catalog.GridInfo, 0, len(entries))
	for _, e := range entries {
		g, err := catalog.BuildGrid(e.Spec)
		if err != nil {
			return nil, fmt.Errorf("build %s/%s: %w", e.Domain, e.Name, err)
		}
		out = append(out, catalog.Describe(e.Domain, e.Name, g, false))
	}
	return out, nil
}

// DescribeGrid summarizes one preset grid including its bounds.
func (uc *ResampleUseCase) DescribeGrid(dom, name string) (*catalog.GridInfo, error) {
	conv, err := uc.Converter(dom, name)
	if err != nil {
		return nil, err
	}
	info := catalog.Describe(dom, name, conv.Grid(), true)
	return &info, nil
}

// PointRequest asks for the grid point nearest to a location.
type PointRequest struct {
	Domain string
	Name   string
	Lat    float64
	Lon    float64
}

// PointResponse is the nearest grid point to a requested location.
type PointResponse struct {
	Domain     string  `json:"domain"`
	Name       string  `json:"name"`
	Index      int     `json:"index"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	DistanceKm float64 `json:"distance_km"`
}

// FindPoint resolves the grid point nearest to the requested location using
// the grid's own lookup.
func (uc *ResampleUseCase) FindPoint(req PointRequest) (*PointResponse, error) {
	if err := domain.ValidateLatLon(req.Lat, req.Lon); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	conv, err := uc.Converter(req.Domain, req.Name)
	if err != nil {
		return nil, err
	}
	idx, err := conv.Grid().FindPoint(req.Lat, req.Lon)
	if err != nil {
		return nil, err
	}
	lats, lons := conv.Coordinates()
	lat, lon := lats[idx], lons[idx]
	chord := math.Sqrt(domain.ChordDistance2(req.Lat, req.Lon, lat, lon))
	return &PointResponse{
		Domain:     req.Domain,
		Name:       req.Name,
		Index:      idx,
		Lat:        lat,
		Lon:        lon,
		DistanceKm: 2 * earthRadiusKm * math.Asin(math.Min(1, chord/2)),
	}, nil
}

// TargetSpec describes the regular target grid of a resample. Zero
// resolutions select the configured default; nil ranges select the source
// grid's bounds.
type TargetSpec struct {
	DLat      float64
	DLon      float64
	Latitude  *domain.Range
	Longitude *domain.Range
}

// ResampleRequest carries samples for a preset grid.
type ResampleRequest struct {
	Domain string
	Name   string
	Method string
	// Values is point-major: Points values, or Points*Times values when Times
	// is positive.
	Values []float64
	Times  int
	Target TargetSpec
}

// ResampleResponse is a resampled field. Values is indexed [step][row][col];
// single-step fields have one step. NaN cells are encoded as null.
type ResampleResponse struct {
	Domain string         `json:"domain"`
	Name   string         `json:"name"`
	Method string         `json:"method"`
	NY     int            `json:"ny"`
	NX     int            `json:"nx"`
	Times  int            `json:"times"`
	Lat    []float64      `json:"lat"`
	Lon    []float64      `json:"lon"`
	Values [][][]*float64 `json:"values"`
}

// Resample resamples the request's samples onto a regular grid.
func (uc *ResampleUseCase) Resample(req ResampleRequest) (*ResampleResponse, error) {
	if req.Times < 0 {
		return nil, fmt.Errorf("%w: times must not be negative", ErrInvalidRequest)
	}
	method, err := converter.ParseMethod(req.Method)
	if err != nil {
		return nil, err
	}
	conv, err := uc.Converter(req.Domain, req.Name)
	if err != nil {
		return nil, err
	}

	field := converter.NewField(req.Values)
	if req.Times > 0 {
		if len(req.Values)%req.Times != 0 {
			return nil, &domain.ShapeMismatchError{What: "field values", Expected: conv.Count() * req.Times, Got: len(req.Values)}
		}
		field = converter.NewTimeField(req.Values, len(req.Values)/req.Times, req.Times)
	}

	target, raster, err := uc.resample(conv, field, req.Target, method)
	if err != nil {
		return nil, err
	}
	return &ResampleResponse{
		Domain: req.Domain,
		Name:   req.Name,
		Method: string(method),
		NY:     raster.NY,
		NX:     raster.NX,
		Times:  raster.Times,
		Lat:    target.Lat1D,
		Lon:    target.Lon1D,
		Values: nullableSteps(raster),
	}, nil
}

func (uc *ResampleUseCase) target(conv *converter.Converter, spec TargetSpec) (*converter.TargetGrid, error) {
	res := converter.Resolution{DLat: spec.DLat, DLon: spec.DLon}
	if res.DLat == 0 {
		res.DLat = uc.opts.DefaultResolution
	}
	if res.DLon == 0 {
		res.DLon = uc.opts.DefaultResolution
	}
	lat, lon := conv.DefaultRanges()
	if spec.Latitude != nil {
		lat = *spec.Latitude
	} else {
		lat = alignInward(lat, res.DLat)
	}
	if spec.Longitude != nil {
		lon = *spec.Longitude
	}
	return conv.BuildTargetGrid(res, lat, lon)
}

// alignInward shrinks r to the multiples of step it contains, so a default
// latitude range never steps past a pole.
func alignInward(r domain.Range, step float64) domain.Range {
	if !(step > 0) {
		return r
	}
	aligned := domain.Range{
		Min: math.Ceil(r.Min/step-1e-9) * step,
		Max: math.Floor(r.Max/step+1e-9) * step,
	}
	if aligned.Min > aligned.Max {
		return r
	}
	return aligned
}

func (uc *ResampleUseCase) resample(conv *converter.Converter, field converter.Field, spec TargetSpec, method converter.Method) (*converter.TargetGrid, *converter.Raster, error) {
	kind := string(conv.Grid().Kind())
	start := time.Now()

	target, err := uc.target(conv, spec)
	if err != nil {
		metrics.ObserveResample(kind, string(method), 0, err)
		return nil, nil, err
	}
	raster, err := conv.Interpolate(field, target, method)
	took := time.Since(start)
	metrics.ObserveResample(kind, string(method), took, err)
	if err != nil {
		return nil, nil, err
	}
	return target, raster, nil
}

func nullableSteps(r *converter.Raster) [][][]*float64 {
	out := make([][][]*float64, r.Steps())
	for t := range out {
		rows := make([][]*float64, r.NY)
		for y := range rows {
			row := make([]*float64, r.NX)
			for x := range row {
				if v := r.At(y, x, t); !math.IsNaN(v) {
					row[x] = &v
				}
			}
			rows[y] = row
		}
		out[t] = rows
	}
	return out
}

// ExportRequest resamples a sample file and writes the raster to disk.
type ExportRequest struct {
	Domain   string
	Name     string
	Input    string
	Output   string
	Variable string
	Units    string
	Method   string
	Target   TargetSpec
}

// ExportResult describes a written raster.
type ExportResult struct {
	Output   string `json:"output"`
	Variable string `json:"variable"`
	NY       int    `json:"ny"`
	NX       int    `json:"nx"`
	Times    int    `json:"times"`
}

// Export reads samples from Input, resamples them and writes Output. The
// input and output formats follow the file extensions; an empty Output
// replaces the input extension with ".nc".
func (uc *ResampleUseCase) Export(req ExportRequest) (*ExportResult, error) {
	if req.Input == "" {
		return nil, fmt.Errorf("%w: input path is required", ErrInvalidRequest)
	}
	output := req.Output
	if output == "" {
		output = strings.TrimSuffix(req.Input, filepath.Ext(req.Input)) + ".nc"
	}
	if output == req.Input {
		return nil, fmt.Errorf("%w: output %s would overwrite the input", ErrInvalidRequest, output)
	}

	reader, ok := uc.readers[formatOf(req.Input)]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported input format %q", ErrInvalidRequest, filepath.Ext(req.Input))
	}
	writer, ok := uc.writers[formatOf(output)]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported output format %q", ErrInvalidRequest, filepath.Ext(output))
	}
	method, err := converter.ParseMethod(req.Method)
	if err != nil {
		return nil, err
	}
	conv, err := uc.Converter(req.Domain, req.Name)
	if err != nil {
		return nil, err
	}

	samples, err := reader.ReadSamples(req.Input, req.Variable)
	if err != nil {
		return nil, fmt.Errorf("read samples: %w", err)
	}
	target, raster, err := uc.resample(conv, samples.Field, req.Target, method)
	if err != nil {
		return nil, err
	}

	variable := samples.Variable
	if variable == "" {
		variable = "data"
	}
	out := store.Output{
		Variable: variable,
		Units:    req.Units,
		Target:   target,
		Raster:   raster,
		Time:     samples.Time,
	}
	if err := writer.WriteRaster(output, out); err != nil {
		return nil, fmt.Errorf("write raster: %w", err)
	}

	uc.log.WithFields(logrus.Fields{
		"input":  req.Input,
		"output": output,
		"ny":     raster.NY,
		"nx":     raster.NX,
	}).Info("exported raster")
	return &ExportResult{Output: output, Variable: variable, NY: raster.NY, NX: raster.NX, Times: raster.Times}, nil
}

func formatOf(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "nc4", "netcdf":
		return "nc"
	}
	return ext
}
