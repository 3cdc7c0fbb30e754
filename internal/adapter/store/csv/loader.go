// Package csv provides CSV sample loading and raster export.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.ngs.io/regrid/internal/adapter/store"
	"go.ngs.io/regrid/internal/converter"
)

// SampleStore reads point samples from CSV files and writes rasters as
// long-form CSV.
//
// Sample files have a header whose first column is "point" followed by one
// column per time step. Rows may appear in any order but must cover every
// point index from 0 to N-1 exactly once.
type SampleStore struct{}

// NewSampleStore creates a new CSV sample store.
func NewSampleStore() *SampleStore { return &SampleStore{} }

var (
	_ store.SampleReader = (*SampleStore)(nil)
	_ store.RasterWriter = (*SampleStore)(nil)
)

// ReadSamples loads a sample file. variable selects a single value column by
// header name; when empty every column after "point" is read as a time step
// (a single column yields a one-dimensional field).
func (s *SampleStore) ReadSamples(path, variable string) (*store.Samples, error) {
	//nolint:gosec // G304: path comes from the command line or configuration.
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	return readSamples(file, variable)
}

func readSamples(r io.Reader, variable string) (*store.Samples, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) < 2 || strings.TrimSpace(header[0]) != "point" {
		return nil, fmt.Errorf("invalid CSV header: expected point followed by value columns, got %v", header)
	}

	columns := make([]int, 0, len(header)-1)
	for i := 1; i < len(header); i++ {
		if variable == "" || strings.TrimSpace(header[i]) == variable {
			columns = append(columns, i)
		}
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("column %q not found in CSV header %v", variable, header)
	}
	name := variable
	if name == "" && len(columns) == 1 {
		name = strings.TrimSpace(header[columns[0]])
	}

	rows := make(map[int][]float64)
	maxPoint := -1
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		if len(record) != len(header) {
			return nil, fmt.Errorf("invalid CSV record on line %d: expected %d columns, got %d", line, len(header), len(record))
		}

		point, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil || point < 0 {
			return nil, fmt.Errorf("invalid point index %q on line %d", record[0], line)
		}
		if _, dup := rows[point]; dup {
			return nil, fmt.Errorf("duplicate point index %d on line %d", point, line)
		}
		values := make([]float64, len(columns))
		for k, col := range columns {
			values[k], err = strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid value for point %d column %s: %w", point, header[col], err)
			}
		}
		rows[point] = values
		maxPoint = max(maxPoint, point)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("no samples found in CSV")
	}
	if maxPoint+1 != len(rows) {
		return nil, fmt.Errorf("CSV samples are not contiguous: %d rows for point indices up to %d", len(rows), maxPoint)
	}

	points, steps := len(rows), len(columns)
	flat := make([]float64, points*steps)
	for p, values := range rows {
		copy(flat[p*steps:(p+1)*steps], values)
	}
	samples := &store.Samples{Variable: name}
	if steps == 1 {
		samples.Field = converter.NewField(flat)
	} else {
		samples.Field = converter.NewTimeField(flat, points, steps)
	}
	return samples, nil
}

// WriteRaster writes one row per target cell: lat, lon and one value column
// per time step.
func (s *SampleStore) WriteRaster(path string, out store.Output) error {
	if out.Target == nil || out.Raster == nil {
		return fmt.Errorf("nothing to write: target and raster are required")
	}
	//nolint:gosec // G304: path comes from the command line or configuration.
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file %s: %w", path, err)
	}
	if err := writeRaster(file, out); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func writeRaster(w io.Writer, out store.Output) error {
	r, target := out.Raster, out.Target
	if r.NY != target.NY || r.NX != target.NX {
		return fmt.Errorf("raster shape (%d, %d) does not match target (%d, %d)", r.NY, r.NX, target.NY, target.NX)
	}
	variable := out.Variable
	if variable == "" {
		variable = "value"
	}

	steps := r.Steps()
	header := []string{"lat", "lon"}
	if r.Times == 0 {
		header = append(header, variable)
	} else {
		for k := 0; k < steps; k++ {
			label := strconv.Itoa(k)
			if k < len(out.Time) {
				label = strconv.FormatFloat(out.Time[k], 'g', -1, 64)
			}
			header = append(header, variable+"@"+label)
		}
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	record := make([]string, len(header))
	for y, lat := range target.Lat1D {
		for x, lon := range target.Lon1D {
			record[0] = strconv.FormatFloat(lat, 'f', -1, 64)
			record[1] = strconv.FormatFloat(lon, 'f', -1, 64)
			for k := 0; k < steps; k++ {
				record[2+k] = strconv.FormatFloat(r.At(y, x, k), 'g', -1, 64)
			}
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}
	writer.Flush()
	return writer.Error()
}
