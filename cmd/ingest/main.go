// Package main provides the reach-metrics ingestion daemon: it drives the Orchestrator
// on every configured product's independent cadence via the Scheduler, running until
// signaled to stop.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ngs-hydro/reach-metrics/internal/adapter/archive"
	"github.com/ngs-hydro/reach-metrics/internal/adapter/store"
	"github.com/ngs-hydro/reach-metrics/internal/config"
	"github.com/ngs-hydro/reach-metrics/internal/domain"
	"github.com/ngs-hydro/reach-metrics/internal/ingest"
	"github.com/ngs-hydro/reach-metrics/internal/logging"
	"github.com/ngs-hydro/reach-metrics/internal/product"
)

const version = "0.1.0"

func main() {
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	scratchDir := flag.String("scratch-dir", os.TempDir(), "Directory for staging fetched artifacts before parsing")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}
	if *showVersion {
		fmt.Printf("reach-metrics-ingest version %s\n", version)
		return
	}

	cfg := config.LoadServerConfig()
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: "stdout"})

	if err := config.RequireNonEmpty("DATABASE_DSN", cfg.DatabaseDSN); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := config.RequireNonEmpty("ARCHIVE_BASE_URL", cfg.ArchiveBaseURL); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("starting reach-metrics ingestion daemon")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	archiveClient := archive.NewClient(cfg.ArchiveBaseURL, nil, logger)
	loader := store.NewLoader(db.Pool(), logger)

	configs := make(map[product.Name]ingest.ProductConfig, len(product.All))
	for _, name := range product.All {
		configs[name] = ingest.ProductConfig{
			Unit:          domain.UnitSI,
			ExpectedCount: reference.Len(),
			Variables:     domain.ValidVariables,
		}
	}

	orch := ingest.NewOrchestrator(archiveClient, loader, reference, configs, *scratchDir, logger)
	scheduler := ingest.NewScheduler(orch, ingest.DefaultSchedulerConfig, logger)

	if err := scheduler.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	logger.Info("ingestion daemon running", "products", product.All)
	<-ctx.Done()

	logger.Info("shutdown signal received, stopping scheduler")
	scheduler.Stop()
	logger.Info("ingestion daemon stopped")
}

func printUsage() {
	fmt.Printf("reach-metrics ingestion daemon v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  reach-metrics-ingest [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println("  -scratch-dir   Directory for staging fetched artifacts (default: OS temp dir)")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  DATABASE_DSN            Postgres connection string (required)")
	fmt.Println("  ARCHIVE_BASE_URL        Forecast archive base URL (required)")
	fmt.Println("  LOG_LEVEL               debug, info, warn, error (default: info)")
	fmt.Println("  LOG_FORMAT              json, text (default: json)")
	fmt.Println("  STORE_MAX_CONNS         Max database pool connections (default: 10)")
	fmt.Println("  STORE_CONN_TIMEOUT      Database connect timeout (default: 5s)")
	fmt.Println()
	fmt.Println("Runs every product in internal/product.All on its own schedule until")
	fmt.Println("SIGINT or SIGTERM, per spec §4.1's independent per-product cadence.")
}
