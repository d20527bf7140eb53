// Package main drives the ingestion Orchestrator over a historical range of cycles for
// one product, for backfilling a gap or re-running a corrected archive window.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ngs-hydro/reach-metrics/internal/adapter/archive"
	"github.com/ngs-hydro/reach-metrics/internal/adapter/store"
	"github.com/ngs-hydro/reach-metrics/internal/domain"
	"github.com/ngs-hydro/reach-metrics/internal/ingest"
	"github.com/ngs-hydro/reach-metrics/internal/product"
)

func main() {
	dsn := flag.String("dsn", "", "Postgres connection string (required)")
	archiveBaseURL := flag.String("archive-base-url", "", "Forecast archive base URL (required)")
	productName := flag.String("product", "", "Product to backfill: analysis, short_forecast, medium_forecast_blend, or analysis_no_assim (required)")
	unit := flag.String("unit", "si", "Flow unit the archive publishes for this product: si or cfs")
	from := flag.String("from", "", "Start of the cycle range, RFC3339 (required)")
	to := flag.String("to", "", "End of the cycle range, RFC3339, inclusive (required)")
	scratchDir := flag.String("scratch-dir", os.TempDir(), "Directory for staging fetched artifacts before parsing")
	flag.Parse()

	if *dsn == "" || *archiveBaseURL == "" || *productName == "" || *from == "" || *to == "" {
		fmt.Fprintln(os.Stderr, "backfill: -dsn, -archive-base-url, -product, -from, and -to are all required")
		flag.Usage()
		os.Exit(1)
	}

	name := product.Name(*productName)
	sched, ok := product.Schedules[name]
	if !ok {
		log.Fatalf("backfill: unknown product %q", name)
	}

	sourceUnit, err := parseUnit(*unit)
	if err != nil {
		log.Fatalf("backfill: %v", err)
	}

	fromTime, err := time.Parse(time.RFC3339, *from)
	if err != nil {
		log.Fatalf("backfill: invalid -from: %v", err)
	}
	toTime, err := time.Parse(time.RFC3339, *to)
	if err != nil {
		log.Fatalf("backfill: invalid -to: %v", err)
	}

	ctx := context.Background()
	db, err := store.NewDB(ctx, store.Config{DSN: *dsn}, nil)
	if err != nil {
		log.Fatalf("backfill: failed to connect to database: %v", err)
	}
	defer db.Close()

	reference := store.NewReferenceCache()
	if err := reference.Load(ctx, db.Pool()); err != nil {
		log.Fatalf("backfill: failed to load reference cache: %v", err)
	}

	archiveClient := archive.NewClient(*archiveBaseURL, nil, nil)
	loader := store.NewLoader(db.Pool(), nil)
	orch := ingest.NewOrchestrator(archiveClient, loader, reference, map[product.Name]ingest.ProductConfig{
		name: {Unit: sourceUnit, ExpectedCount: reference.Len(), Variables: domain.ValidVariables},
	}, *scratchDir, nil)

	cycles := cycleTimesInRange(sched, fromTime, toTime)
	if len(cycles) == 0 {
		log.Fatalf("backfill: no valid cycle hours for %q in [%s, %s]", name, fromTime, toTime)
	}
	log.Printf("backfilling %d cycles for %s", len(cycles), name)

	succeeded, failed := 0, 0
	for i, cycleTime := range cycles {
		if err := orch.RunJob(ctx, name, cycleTime); err != nil {
			log.Printf("[%d/%d] %s: failed: %v", i+1, len(cycles), cycleTime.Format(time.RFC3339), err)
			failed++
			continue
		}
		log.Printf("[%d/%d] %s: ok", i+1, len(cycles), cycleTime.Format(time.RFC3339))
		succeeded++
	}

	log.Printf("backfill complete: %d succeeded, %d failed", succeeded, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// cycleTimesInRange enumerates every valid cycle time for sched within [from, to],
// inclusive, in ascending order.
func cycleTimesInRange(sched product.Schedule, from, to time.Time) []time.Time {
	from, to = from.UTC(), to.UTC()
	var cycles []time.Time
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	for !day.After(to) {
		for _, h := range sched.ValidCycleHours {
			candidate := day.Add(time.Duration(h) * time.Hour)
			if candidate.Before(from) || candidate.After(to) {
				continue
			}
			cycles = append(cycles, candidate)
		}
		day = day.Add(24 * time.Hour)
	}
	return cycles
}

func parseUnit(s string) (domain.SourceUnit, error) {
	switch s {
	case "si":
		return domain.UnitSI, nil
	case "cfs":
		return domain.UnitCFS, nil
	default:
		return "", fmt.Errorf("unknown unit %q (want si or cfs)", s)
	}
}
