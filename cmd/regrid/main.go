// Command regrid inspects the preset source grids and resamples gridded
// files onto regular latitude/longitude rasters.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"go.ngs.io/regrid/internal/app"
	"go.ngs.io/regrid/internal/domain"
	"go.ngs.io/regrid/internal/pkg/config"
	"go.ngs.io/regrid/internal/pkg/logging"
	"go.ngs.io/regrid/internal/usecase"
)

var (
	cfg *config.Config
	log *logrus.Logger

	catalogPath string
	logLevel    string
	jsonOutput  bool
)

// Root is the main command.
var Root = &cobra.Command{
	Use:   "regrid",
	Short: "Resample model output from native grids onto lat/lon rasters.",
	Long: `regrid maps fields stored on reduced Gaussian, regular and projected
source grids onto regular latitude/longitude rasters by nearest neighbour
lookup. Source grids are selected by domain and name from a preset catalog.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		if cmd.Flags().Changed("catalog") {
			cfg.Catalog.Path = catalogPath
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = logLevel
		}
		log = logging.Setup(cfg.Log.Level, cfg.Log.Format)
		return nil
	},
}

func init() {
	Root.PersistentFlags().StringVar(&catalogPath, "catalog", "", "grid preset TOML file (default: embedded presets)")
	Root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	Root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")

	pointCmd.Flags().String("domain", "", "grid domain")
	pointCmd.Flags().String("name", "", "grid name within the domain")
	pointCmd.Flags().Float64("lat", 0, "latitude in degrees")
	pointCmd.Flags().Float64("lon", 0, "longitude in degrees")
	for _, f := range []string{"domain", "name", "lat", "lon"} {
		_ = pointCmd.MarkFlagRequired(f)
	}

	exportCmd.Flags().String("domain", "", "grid domain")
	exportCmd.Flags().String("name", "", "grid name within the domain")
	exportCmd.Flags().StringP("input", "i", "", "input file (.nc or .csv)")
	exportCmd.Flags().StringP("output", "o", "", "output file (default: input with .nc extension)")
	exportCmd.Flags().String("variable", "", "variable to read (default: data)")
	exportCmd.Flags().String("units", "", "units attribute of the output variable")
	exportCmd.Flags().String("method", "nearest", "interpolation method")
	exportCmd.Flags().Float64("resolution", 0, "target step in degrees for both axes (default: configured resolution)")
	exportCmd.Flags().Float64("dlat", 0, "target latitude step in degrees")
	exportCmd.Flags().Float64("dlon", 0, "target longitude step in degrees")
	exportCmd.Flags().Float64("lat-min", 0, "southern edge of the target raster")
	exportCmd.Flags().Float64("lat-max", 0, "northern edge of the target raster")
	exportCmd.Flags().Float64("lon-min", 0, "western edge of the target raster")
	exportCmd.Flags().Float64("lon-max", 0, "eastern edge of the target raster")
	for _, f := range []string{"domain", "name", "input"} {
		_ = exportCmd.MarkFlagRequired(f)
	}

	Root.AddCommand(gridsCmd, pointCmd, exportCmd, versionCmd)
}

func main() {
	if err := Root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newUseCase() (*usecase.ResampleUseCase, error) {
	return app.NewResampleUseCase(cfg, log)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var gridsCmd = &cobra.Command{
	Use:   "grids [domain]",
	Short: "List the preset source grids.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		uc, err := newUseCase()
		if err != nil {
			return err
		}
		grids, err := uc.ListGrids()
		if err != nil {
			return err
		}
		if len(args) == 1 {
			filtered := grids[:0]
			for _, g := range grids {
				if g.Domain == args[0] {
					filtered = append(filtered, g)
				}
			}
			if len(filtered) == 0 {
				return fmt.Errorf("no grids in domain %q", args[0])
			}
			grids = filtered
		}
		if jsonOutput {
			return printJSON(cmd, grids)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DOMAIN\tNAME\tKIND\tPOINTS\tROWS\tDETAIL")
		for _, g := range grids {
			detail := g.GridType
			if g.Projection != "" {
				detail = string(g.Projection)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n", g.Domain, g.Name, g.Kind, g.Count, g.Rows, detail)
		}
		return w.Flush()
	},
}

var pointCmd = &cobra.Command{
	Use:   "point",
	Short: "Find the grid point nearest to a location.",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		dom, _ := f.GetString("domain")
		name, _ := f.GetString("name")
		lat, _ := f.GetFloat64("lat")
		lon, _ := f.GetFloat64("lon")

		uc, err := newUseCase()
		if err != nil {
			return err
		}
		resp, err := uc.FindPoint(usecase.PointRequest{Domain: dom, Name: name, Lat: lat, Lon: lon})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, resp)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "index %d at (%g, %g), %.3f km away\n",
			resp.Index, resp.Lat, resp.Lon, resp.DistanceKm)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Resample a gridded file onto a regular lat/lon raster.",
	Long: `export reads a field stored on a preset source grid from a NetCDF or CSV
file, resamples it onto a regular lat/lon raster and writes the raster to a
NetCDF or CSV file chosen by the output extension.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := exportRequest(cmd)
		if err != nil {
			return err
		}
		uc, err := newUseCase()
		if err != nil {
			return err
		}
		res, err := uc.Export(*req)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, res)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %s on %dx%d, %d time step(s)\n",
			res.Output, res.Variable, res.NY, res.NX, res.Times)
		return nil
	},
}

// exportRequest collects the export flags. Range edges apply only when both
// ends of an axis are given.
func exportRequest(cmd *cobra.Command) (*usecase.ExportRequest, error) {
	f := cmd.Flags()
	req := &usecase.ExportRequest{}
	req.Domain, _ = f.GetString("domain")
	req.Name, _ = f.GetString("name")
	req.Input, _ = f.GetString("input")
	req.Output, _ = f.GetString("output")
	req.Variable, _ = f.GetString("variable")
	req.Units, _ = f.GetString("units")
	req.Method, _ = f.GetString("method")

	resolution, _ := f.GetFloat64("resolution")
	req.Target.DLat, _ = f.GetFloat64("dlat")
	req.Target.DLon, _ = f.GetFloat64("dlon")
	if req.Target.DLat == 0 {
		req.Target.DLat = resolution
	}
	if req.Target.DLon == 0 {
		req.Target.DLon = resolution
	}

	var err error
	if req.Target.Latitude, err = rangeFlags(cmd, "lat-min", "lat-max"); err != nil {
		return nil, err
	}
	if req.Target.Longitude, err = rangeFlags(cmd, "lon-min", "lon-max"); err != nil {
		return nil, err
	}
	return req, nil
}

func rangeFlags(cmd *cobra.Command, lo, hi string) (*domain.Range, error) {
	f := cmd.Flags()
	loSet, hiSet := f.Changed(lo), f.Changed(hi)
	if !loSet && !hiSet {
		return nil, nil
	}
	if loSet != hiSet {
		return nil, fmt.Errorf("--%s and --%s must be given together", lo, hi)
	}
	lower, _ := f.GetFloat64(lo)
	upper, _ := f.GetFloat64(hi)
	return &domain.Range{Min: lower, Max: upper}, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number.",
	PersistentPreRunE: func(*cobra.Command, []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "regrid v%s\n", app.Version)
	},
}
