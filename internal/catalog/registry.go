package catalog

import (
	"errors"
	"fmt"
	"sort"

	"go.ngs.io/regrid/internal/domain"
)

// ErrNotFound is returned when a domain or grid name is not registered.
var ErrNotFound = errors.New("grid not found")

// Registry holds grid specs keyed by data domain and grid name.
type Registry struct {
	domains map[string]map[string]GridSpec
}

// Entry is one registered grid spec.
type Entry struct {
	Domain string   `json:"domain"`
	Name   string   `json:"name"`
	Spec   GridSpec `json:"spec"`
}

// NewRegistry creates a registry from a domain -> name -> spec table. The
// table is copied.
func NewRegistry(table map[string]map[string]GridSpec) *Registry {
	domains := make(map[string]map[string]GridSpec, len(table))
	for dom, grids := range table {
		copied := make(map[string]GridSpec, len(grids))
		for name, spec := range grids {
			copied[name] = spec
		}
		domains[dom] = copied
	}
	return &Registry{domains: domains}
}

// Lookup returns the spec registered under dom and name.
func (r *Registry) Lookup(dom, name string) (GridSpec, error) {
	grids, ok := r.domains[dom]
	if !ok {
		return GridSpec{}, fmt.Errorf("%w: unknown domain %q", ErrNotFound, dom)
	}
	spec, ok := grids[name]
	if !ok {
		return GridSpec{}, fmt.Errorf("%w: unknown grid %q in domain %q", ErrNotFound, name, dom)
	}
	return spec, nil
}

// Build looks up and constructs a registered grid.
func (r *Registry) Build(dom, name string) (domain.Grid, error) {
	spec, err := r.Lookup(dom, name)
	if err != nil {
		return nil, err
	}
	g, err := BuildGrid(spec)
	if err != nil {
		return nil, fmt.Errorf("build %s/%s: %w", dom, name, err)
	}
	return g, nil
}

// Domains returns the registered domain names in sorted order.
func (r *Registry) Domains() []string {
	out := make([]string, 0, len(r.domains))
	for dom := range r.domains {
		out = append(out, dom)
	}
	sort.Strings(out)
	return out
}

// Names returns the grid names of a domain in sorted order.
func (r *Registry) Names(dom string) ([]string, error) {
	grids, ok := r.domains[dom]
	if !ok {
		return nil, fmt.Errorf("%w: unknown domain %q", ErrNotFound, dom)
	}
	out := make([]string, 0, len(grids))
	for name := range grids {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// Entries returns every registered spec ordered by domain, then name.
func (r *Registry) Entries() []Entry {
	var out []Entry
	for _, dom := range r.Domains() {
		names, _ := r.Names(dom)
		for _, name := range names {
			out = append(out, Entry{Domain: dom, Name: name, Spec: r.domains[dom][name]})
		}
	}
	return out
}

// Validate builds every registered grid and reports all failures.
func (r *Registry) Validate() error {
	var errs []error
	for _, e := range r.Entries() {
		if _, err := BuildGrid(e.Spec); err != nil {
			errs = append(errs, fmt.Errorf("%s/%s: %w", e.Domain, e.Name, err))
		}
	}
	return errors.Join(errs...)
}

// GridInfo summarizes a grid for listings.
type GridInfo struct {
	Domain     string                `json:"domain"`
	Name       string                `json:"name"`
	Kind       domain.Kind           `json:"kind"`
	Count      int                   `json:"count"`
	Rows       int                   `json:"rows"`
	GridType   string                `json:"grid_type,omitempty"`
	Projection domain.ProjectionKind `json:"projection,omitempty"`
	Bounds     *domain.Bounds        `json:"bounds,omitempty"`
}

// Describe summarizes g. Bounds are included only when withBounds is set,
// since they require the coordinates of projection grids.
func Describe(dom, name string, g domain.Grid, withBounds bool) GridInfo {
	info := GridInfo{Domain: dom, Name: name, Kind: g.Kind(), Count: g.Count()}
	switch grid := g.(type) {
	case domain.RegularGrid:
		info.Rows = grid.NY
	case domain.GaussianGrid:
		info.Rows = grid.Type.Rows()
		info.GridType = grid.Type.String()
	case *domain.ProjectionGrid:
		info.Rows = grid.NY
		info.Projection = grid.Projection.Kind()
	}
	if withBounds {
		b := g.Bounds()
		info.Bounds = &b
	}
	return info
}
