// Package main provides the reach-metrics query HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/ngs-hydro/reach-metrics/internal/adapter/store"
	"github.com/ngs-hydro/reach-metrics/internal/adapter/weather"
	"github.com/ngs-hydro/reach-metrics/internal/config"
	"github.com/ngs-hydro/reach-metrics/internal/httpapi"
	"github.com/ngs-hydro/reach-metrics/internal/logging"
	"github.com/ngs-hydro/reach-metrics/internal/query"
)

const version = "0.1.0"

func main() {
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}
	if *showVersion {
		fmt.Printf("reach-metrics-server version %s\n", version)
		return
	}

	cfg := config.LoadServerConfig()
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: "stdout"})

	logger.Info("starting reach-metrics query server", "port", cfg.Port)

	ctx := context.Background()
	db, err := store.NewDB(ctx, store.Config{DSN: cfg.DatabaseDSN, MaxConns: cfg.StoreMaxConns, ConnectTimeout: cfg.StoreConnTimeout}, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	reference := store.NewReferenceCache()
	if err := reference.Load(ctx, db.Pool()); err != nil {
		logger.Error("failed to load reference cache", "error", err)
		os.Exit(1)
	}
	logger.Info("reference cache loaded", "flowlines", reference.Len())

	species, err := config.LoadSpeciesConfigs(cfg.SpeciesConfigDir)
	if err != nil {
		logger.Error("failed to load species configs", "error", err)
		os.Exit(1)
	}
	hatches, err := config.LoadHatchConfigs(cfg.HatchConfigDir)
	if err != nil {
		logger.Error("failed to load hatch configs", "error", err)
		os.Exit(1)
	}
	logger.Info("startup configuration loaded", "species", len(species), "hatches", len(hatches))

	var weatherClient *weather.Client
	if cfg.WeatherBaseURL != "" {
		weatherClient = weather.NewClient(cfg.WeatherBaseURL, http.DefaultClient, logger)
	}

	hydro := store.NewHydroStore(db.Pool())
	svc := query.NewService(hydro, reference, weatherClient, species, hatches)

	router := httpapi.SetupRouter(svc, db.Pool(), cfg.CORSAllowOrigins)

	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info("server listening", "addr", addr)
	logger.Info("endpoints",
		"hydrology", "GET /reach/{feature_id}/hydrology",
		"species", "GET /reach/{feature_id}/species/{species_id}",
		"hatches", "GET /reach/{feature_id}/hatches",
		"health", "GET /health",
		"metadata", "GET /metadata",
	)

	if err := router.Run(addr); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("reach-metrics query server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  reach-metrics-server [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  PORT                    Server port (default: 8080)")
	fmt.Println("  DATABASE_DSN            Postgres connection string")
	fmt.Println("  ARCHIVE_BASE_URL        Forecast archive base URL")
	fmt.Println("  WEATHER_BASE_URL        Air-temperature collaborator base URL")
	fmt.Println("  SPECIES_CONFIG_DIR      Directory of species YAML documents (default: ./config/species)")
	fmt.Println("  HATCH_CONFIG_DIR        Directory of hatch YAML documents (default: ./config/hatches)")
	fmt.Println("  LOG_LEVEL               debug, info, warn, error (default: info)")
	fmt.Println("  LOG_FORMAT              json, text (default: json)")
	fmt.Println("  STORE_MAX_CONNS         Max database pool connections (default: 10)")
	fmt.Println("  STORE_CONN_TIMEOUT      Database connect timeout (default: 5s)")
	fmt.Println("  CORS_ALLOWED_ORIGINS    Comma-separated list of allowed origins (default: all origins)")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET /health                                   Health check")
	fmt.Println("  GET /metadata                                 Configured species, hatches, timeframes")
	fmt.Println("  GET /reach/{feature_id}/hydrology              Hydrology snapshot series")
	fmt.Println("  GET /reach/{feature_id}/species/{species_id}   Habitat suitability score")
	fmt.Println("  GET /reach/{feature_id}/hatches                Hatch likelihood forecast")
	fmt.Println()
}
