package store

import (
	"go.ngs.io/regrid/internal/converter"
)

// Samples is a field read from a sample file together with its optional time
// axis.
type Samples struct {
	Variable string
	Field    converter.Field
	// Time holds one coordinate per time step; it is empty for single-step
	// fields or when the file carries no time axis.
	Time []float64
}

// SampleReader loads source samples in the source grid's point order.
type SampleReader interface {
	ReadSamples(path, variable string) (*Samples, error)
}

// Output describes a resampled raster to persist.
type Output struct {
	Variable string
	Units    string
	Target   *converter.TargetGrid
	Raster   *converter.Raster
	Time     []float64
}

// RasterWriter persists resampled rasters with their target coordinates.
type RasterWriter interface {
	WriteRaster(path string, out Output) error
}
