// Package preset loads the preset grid table from TOML.
//
// The table groups grid specs by data domain:
//
//	[EcmwfDomain.ifs_seas]
//	type = "GaussianGrid"
//	params = { grid_type = "O320" }
package preset

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"go.ngs.io/regrid/internal/catalog"
)

//go:embed grids.toml
var defaultTable []byte

// Default returns the registry built from the embedded preset table.
func Default() (*catalog.Registry, error) {
	reg, err := Parse(defaultTable)
	if err != nil {
		return nil, fmt.Errorf("embedded preset table: %w", err)
	}
	return reg, nil
}

// Load reads a preset table from path.
//
//nolint:gosec // G304: path comes from configuration.
func Load(path string) (*catalog.Registry, error) {
	var table map[string]map[string]catalog.GridSpec
	md, err := toml.DecodeFile(path, &table)
	if err != nil {
		return nil, fmt.Errorf("failed to decode preset table %s: %w", path, err)
	}
	reg, err := finish(table, md)
	if err != nil {
		return nil, fmt.Errorf("preset table %s: %w", path, err)
	}
	return reg, nil
}

// Parse decodes a preset table and validates every grid in it.
func Parse(data []byte) (*catalog.Registry, error) {
	var table map[string]map[string]catalog.GridSpec
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&table)
	if err != nil {
		return nil, fmt.Errorf("failed to decode preset table: %w", err)
	}
	return finish(table, md)
}

func finish(table map[string]map[string]catalog.GridSpec, md toml.MetaData) (*catalog.Registry, error) {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in preset table: %s", strings.Join(keys, ", "))
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("preset table is empty")
	}
	reg := catalog.NewRegistry(table)
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}
