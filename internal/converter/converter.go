// Package converter resamples fields on any source grid onto regular
// latitude-longitude target grids.
package converter

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"go.ngs.io/regrid/internal/adapter/interp"
	"go.ngs.io/regrid/internal/domain"
)

// Converter is bound to one source grid for its lifetime. Source coordinates
// are computed once at construction; the spatial index is built on first use
// and shared read-only afterwards. A Converter is safe for concurrent use.
type Converter struct {
	grid       domain.Grid
	lats, lons []float64

	workers      int
	maxCells     int
	log          logrus.FieldLogger
	onIndexBuilt func(domain.Kind, time.Duration)

	indexOnce sync.Once
	index     *interp.Index
	indexErr  error
}

// Option configures a Converter.
type Option func(*Converter)

// WithWorkers sets how many target rows are resolved concurrently.
func WithWorkers(n int) Option {
	return func(c *Converter) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithMaxTargetCells caps the target grids this converter builds.
func WithMaxTargetCells(n int) Option {
	return func(c *Converter) {
		if n > 0 {
			c.maxCells = n
		}
	}
}

// WithLogger sets the logger used for index builds and resampling.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Converter) {
		if l != nil {
			c.log = l
		}
	}
}

// WithIndexObserver registers fn to be called once the spatial index is built.
func WithIndexObserver(fn func(kind domain.Kind, took time.Duration)) Option {
	return func(c *Converter) { c.onIndexBuilt = fn }
}

// New binds a converter to grid and computes its point coordinates.
func New(grid domain.Grid, opts ...Option) (*Converter, error) {
	if grid == nil {
		return nil, fmt.Errorf("%w: converter needs a source grid", domain.ErrConfiguration)
	}
	c := &Converter{
		grid:     grid,
		workers:  runtime.GOMAXPROCS(0),
		maxCells: DefaultMaxTargetCells,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.lats, c.lons = grid.Coordinates()
	if len(c.lats) != grid.Count() || len(c.lons) != grid.Count() {
		return nil, &domain.ShapeMismatchError{What: "source coordinates", Expected: grid.Count(), Got: len(c.lats)}
	}
	return c, nil
}

// Grid returns the source grid.
func (c *Converter) Grid() domain.Grid { return c.grid }

// Count returns the number of source points.
func (c *Converter) Count() int { return c.grid.Count() }

// Coordinates returns the cached source coordinates. Callers must not modify
// them.
func (c *Converter) Coordinates() (lats, lons []float64) { return c.lats, c.lons }

// DefaultRanges returns the source grid's extent, used when a caller omits
// target ranges.
func (c *Converter) DefaultRanges() (lat, lon domain.Range) {
	b := c.grid.Bounds()
	return b.Latitude, b.Longitude
}

// BuildTargetGrid builds a target grid within this converter's cell limit. It
// does not touch converter state.
func (c *Converter) BuildTargetGrid(res Resolution, lat, lon domain.Range) (*TargetGrid, error) {
	return BuildTargetGrid(res, lat, lon, c.maxCells)
}

// spatialIndex builds the index on first call.
func (c *Converter) spatialIndex() (*interp.Index, error) {
	c.indexOnce.Do(func() {
		start := time.Now()
		c.index, c.indexErr = interp.NewIndex(c.lats, c.lons)
		took := time.Since(start)
		if c.indexErr != nil {
			c.log.WithError(c.indexErr).WithField("grid", c.grid.Kind()).Error("spatial index build failed")
			return
		}
		c.log.WithFields(logrus.Fields{
			"grid":   c.grid.Kind(),
			"points": c.index.Len(),
			"took":   took,
		}).Debug("spatial index built")
		if c.onIndexBuilt != nil {
			c.onIndexBuilt(c.grid.Kind(), took)
		}
	})
	return c.index, c.indexErr
}

// Lookup resolves the nearest source point of every target cell, in
// row-major order. The result depends only on the source grid and target, so
// callers may reuse it across fields with ApplyLookup.
func (c *Converter) Lookup(target *TargetGrid) ([]int, error) {
	if err := target.validate(); err != nil {
		return nil, err
	}
	index, err := c.spatialIndex()
	if err != nil {
		return nil, err
	}

	lookup := make([]int, target.Cells())
	var g errgroup.Group
	g.SetLimit(c.workers)
	for y := 0; y < target.NY; y++ {
		row := lookup[y*target.NX : (y+1)*target.NX]
		lat := target.Lat1D[y]
		g.Go(func() error {
			for x, lon := range target.Lon1D {
				idx, _, err := index.Nearest(lat, lon)
				if err != nil {
					return fmt.Errorf("target cell (%d, %d): %w", y, x, err)
				}
				row[x] = idx
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lookup, nil
}

// Interpolate resamples field onto target with method. The field must match
// the source grid exactly; nothing is allocated for the output otherwise.
func (c *Converter) Interpolate(field Field, target *TargetGrid, method Method) (*Raster, error) {
	if err := field.validate(c.Count()); err != nil {
		return nil, err
	}
	if _, err := ParseMethod(string(method)); err != nil {
		return nil, err
	}
	start := time.Now()
	lookup, err := c.Lookup(target)
	if err != nil {
		return nil, err
	}
	out, err := c.ApplyLookup(field, target, lookup, method)
	if err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{
		"grid":   c.grid.Kind(),
		"method": method,
		"ny":     target.NY,
		"nx":     target.NX,
		"times":  field.Times,
		"took":   time.Since(start),
	}).Debug("field resampled")
	return out, nil
}

// ApplyLookup resamples field using a lookup previously returned by Lookup for
// the same target.
func (c *Converter) ApplyLookup(field Field, target *TargetGrid, lookup []int, method Method) (*Raster, error) {
	if err := field.validate(c.Count()); err != nil {
		return nil, err
	}
	m, err := ParseMethod(string(method))
	if err != nil {
		return nil, err
	}
	if err := target.validate(); err != nil {
		return nil, err
	}
	if len(lookup) != target.Cells() {
		return nil, &domain.ShapeMismatchError{What: "lookup", Expected: target.Cells(), Got: len(lookup)}
	}
	for _, src := range lookup {
		if src < 0 || src >= c.Count() {
			return nil, fmt.Errorf("%w: lookup index %d outside [0, %d)", domain.ErrRange, src, c.Count())
		}
	}
	out := newRaster(target, field.Times)
	resamplers[m](field, lookup, out)
	return out, nil
}
