// Package app wires configuration, the preset catalog and the file stores
// into a resample use case shared by the server and the CLI.
package app

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"go.ngs.io/regrid/internal/adapter/store"
	"go.ngs.io/regrid/internal/adapter/store/csv"
	"go.ngs.io/regrid/internal/adapter/store/ncfile"
	"go.ngs.io/regrid/internal/adapter/store/preset"
	"go.ngs.io/regrid/internal/catalog"
	"go.ngs.io/regrid/internal/pkg/config"
	"go.ngs.io/regrid/internal/usecase"
)

// Version is the release version reported by the binaries.
const Version = "0.1.0"

// LoadCatalog returns the preset table at path, or the embedded table when
// path is empty.
func LoadCatalog(path string) (*catalog.Registry, error) {
	if path == "" {
		return preset.Default()
	}
	return preset.Load(path)
}

// NewResampleUseCase builds the use case described by cfg.
func NewResampleUseCase(cfg *config.Config, log logrus.FieldLogger) (*usecase.ResampleUseCase, error) {
	registry, err := LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("load grid catalog: %w", err)
	}
	log.WithFields(logrus.Fields{
		"catalog": catalogName(cfg.Catalog.Path),
		"domains": len(registry.Domains()),
		"grids":   len(registry.Entries()),
	}).Info("grid catalog loaded")

	ncStore := ncfile.NewStore()
	csvStore := csv.NewSampleStore()
	readers := map[string]store.SampleReader{"nc": ncStore, "csv": csvStore}
	writers := map[string]store.RasterWriter{"nc": ncStore, "csv": csvStore}

	return usecase.NewResampleUseCase(registry, readers, writers, usecase.Options{
		Workers:           cfg.Resample.Workers,
		MaxTargetCells:    cfg.Resample.MaxTargetCells,
		DefaultResolution: cfg.Resample.DefaultResolution,
		Logger:            log,
	}), nil
}

func catalogName(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}
