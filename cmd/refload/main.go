// Package main provides the reach-metrics reference-data loader: a one-shot bulk load of
// flowline geometry and monthly flow statistics CSV extracts into nhd.flowline and
// nhd.monthly_flow_statistics.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/ngs-hydro/reach-metrics/internal/adapter/store"
	csvstore "github.com/ngs-hydro/reach-metrics/internal/adapter/store/csv"
	"github.com/ngs-hydro/reach-metrics/internal/domain"
)

func main() {
	dsn := flag.String("dsn", "", "Postgres connection string (required)")
	flowlinesPath := flag.String("flowlines", "", "Path to flowline CSV extract")
	statsPath := flag.String("monthly-stats", "", "Path to monthly flow statistics CSV extract")
	statsUnit := flag.String("monthly-stats-unit", "si", "Unit the monthly statistics CSV is published in: si or cfs")
	timeout := flag.Duration("timeout", 60*time.Second, "Overall load timeout")
	flag.Parse()

	if *dsn == "" {
		log.Fatal("refload: -dsn is required")
	}
	if *flowlinesPath == "" && *statsPath == "" {
		log.Fatal("refload: at least one of -flowlines or -monthly-stats is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := store.NewDB(ctx, store.Config{DSN: *dsn}, nil)
	if err != nil {
		log.Fatalf("refload: failed to connect to database: %v", err)
	}
	defer db.Close()

	loader := store.NewRefLoader(db.Pool())

	if *flowlinesPath != "" {
		flowlines, err := csvstore.NewFlowlineStore(*flowlinesPath).Load()
		if err != nil {
			log.Fatalf("refload: failed to read flowline CSV: %v", err)
		}
		log.Printf("loaded %d flowlines from %s", len(flowlines), *flowlinesPath)

		n, err := loader.LoadFlowlines(ctx, flowlines)
		if err != nil {
			log.Fatalf("refload: failed to load flowlines: %v", err)
		}
		log.Printf("wrote %d flowline vertex rows", n)
	}

	if *statsPath != "" {
		unit, err := parseUnit(*statsUnit)
		if err != nil {
			log.Fatalf("refload: %v", err)
		}

		stats, err := csvstore.NewMonthlyStatsStore(*statsPath, unit).Load()
		if err != nil {
			log.Fatalf("refload: failed to read monthly statistics CSV: %v", err)
		}
		log.Printf("loaded monthly statistics for %d reaches from %s", len(stats), *statsPath)

		n, err := loader.LoadMonthlyStatistics(ctx, stats)
		if err != nil {
			log.Fatalf("refload: failed to load monthly statistics: %v", err)
		}
		log.Printf("wrote %d monthly statistics rows", n)
	}

	log.Println("refload complete")
}

func parseUnit(s string) (domain.SourceUnit, error) {
	switch s {
	case "si":
		return domain.UnitSI, nil
	case "cfs":
		return domain.UnitCFS, nil
	default:
		return "", fmt.Errorf("unknown monthly stats unit %q (want si or cfs)", s)
	}
}
