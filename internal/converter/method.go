package converter

import (
	"fmt"
	"sort"
	"strings"

	"go.ngs.io/regrid/internal/domain"
)

// Method names a resampling method.
type Method string

// Nearest copies the value of the closest source point to each target cell.
const Nearest Method = "nearest"

// resampler fills out from field using the per-cell source indices.
type resampler func(field Field, lookup []int, out *Raster)

var resamplers = map[Method]resampler{
	Nearest: resampleNearest,
}

// ParseMethod resolves a case-insensitive method name. An empty name selects
// Nearest.
func ParseMethod(name string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(name)))
	if m == "" {
		return Nearest, nil
	}
	if _, ok := resamplers[m]; !ok {
		return "", fmt.Errorf("%w: %q (available: %s)", domain.ErrUnsupportedMethod, name, strings.Join(methodNames(), ", "))
	}
	return m, nil
}

// Methods lists the registered methods in name order.
func Methods() []Method {
	names := methodNames()
	out := make([]Method, len(names))
	for i, n := range names {
		out[i] = Method(n)
	}
	return out
}

func methodNames() []string {
	names := make([]string, 0, len(resamplers))
	for m := range resamplers {
		names = append(names, string(m))
	}
	sort.Strings(names)
	return names
}

func resampleNearest(field Field, lookup []int, out *Raster) {
	steps := field.steps()
	for cell, src := range lookup {
		copy(out.Values[cell*steps:(cell+1)*steps], field.Values[src*steps:(src+1)*steps])
	}
}
