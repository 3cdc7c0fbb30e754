// Package main provides the regrid HTTP server.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"go.ngs.io/regrid/internal/app"
	httpHandler "go.ngs.io/regrid/internal/http"
	"go.ngs.io/regrid/internal/pkg/config"
	"go.ngs.io/regrid/internal/pkg/logging"
)

func main() {
	// Parse command-line flags.
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("regrid-server version %s\n", app.Version)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logging.Setup(cfg.Log.Level, cfg.Log.Format)
	log.WithFields(logrus.Fields{
		"port":    cfg.Server.Port,
		"workers": cfg.Resample.Workers,
	}).Info("starting regrid server")

	resampleUC, err := app.NewResampleUseCase(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize resampler")
	}

	// Setup router.
	router := httpHandler.SetupRouter(resampleUC, cfg.Server.AllowedOrigins())

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Infof("server listening on %s", addr)
	if err := router.Run(addr); err != nil {
		log.WithError(err).Fatal("failed to start server")
	}
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("Regrid Server v%s\n\n", app.Version)
	fmt.Println("USAGE:")
	fmt.Println("  regrid-server [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println()
	fmt.Println("CONFIGURATION:")
	fmt.Println("  Settings are read from config.yaml (in . or ./configs) and from")
	fmt.Println("  environment variables prefixed with REGRID_.")
	fmt.Println()
	fmt.Println("  REGRID_SERVER_PORT                  Server port (default: 8080)")
	fmt.Println("  REGRID_SERVER_CORS_ALLOWED_ORIGINS  Comma-separated allowed origins (default: all origins)")
	fmt.Println("  REGRID_CATALOG_PATH                 Grid preset TOML file (default: embedded presets)")
	fmt.Println("  REGRID_LOG_LEVEL                    Log level (default: info)")
	fmt.Println("  REGRID_LOG_FORMAT                   text or json (default: text)")
	fmt.Println("  REGRID_RESAMPLE_WORKERS             Rows resampled in parallel (default: CPU count)")
	fmt.Println("  REGRID_RESAMPLE_MAX_TARGET_CELLS    Largest accepted target grid (default: 50000000)")
	fmt.Println("  REGRID_RESAMPLE_DEFAULT_RESOLUTION  Target step in degrees (default: 0.25)")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET  /health                           Health check")
	fmt.Println("  GET  /metrics                          Prometheus metrics")
	fmt.Println("  GET  /v1/grids                         List preset grids")
	fmt.Println("  GET  /v1/grids/:domain/:name           Describe a grid")
	fmt.Println("  GET  /v1/grids/:domain/:name/point     Nearest grid point to lat/lon")
	fmt.Println("  GET  /v1/methods                       Supported interpolation methods")
	fmt.Println("  POST /v1/resample                      Resample values onto a lat/lon grid")
	fmt.Println()
}
