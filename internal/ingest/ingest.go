// Package ingest implements the Orchestrator: one run of the Fetcher -> Parser ->
// Validator -> Normalizer -> Loader pipeline for a single (product, cycle_time) job, per
// spec §4.1-§4.5. Each product is ingested independently on its own cadence; a failure in
// one product/cycle never blocks another.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ngs-hydro/reach-metrics/internal/adapter/archive"
	"github.com/ngs-hydro/reach-metrics/internal/adapter/normalize"
	"github.com/ngs-hydro/reach-metrics/internal/adapter/parse"
	"github.com/ngs-hydro/reach-metrics/internal/adapter/store"
	"github.com/ngs-hydro/reach-metrics/internal/adapter/validate"
	"github.com/ngs-hydro/reach-metrics/internal/domain"
	"github.com/ngs-hydro/reach-metrics/internal/product"
)

// ProductConfig is the per-product ingestion config the Orchestrator needs beyond the
// closed product.Schedules table: the artifact's declared flow unit and the expected
// per-artifact reach count used by the Validator's size check.
type ProductConfig struct {
	Unit          domain.SourceUnit
	ExpectedCount int
	Variables     []domain.Variable
}

// Orchestrator wires one run of the pipeline together: fetch every forecast-hour
// artifact for a (product, cycle_time) job, parse, validate, normalize, and hand the
// accumulated records to the Loader as a single bulk-insert transaction.
type Orchestrator struct {
	Archive    *archive.Client
	Loader     *store.Loader
	Domain     validate.DomainSet
	Configs    map[product.Name]ProductConfig
	ScratchDir string
	Logger     *slog.Logger
}

// NewOrchestrator builds an Orchestrator; scratchDir is where fetched artifacts are
// staged on disk before parsing (the NetCDF decoder reads from a file path, not memory).
func NewOrchestrator(archiveClient *archive.Client, loader *store.Loader, domainSet validate.DomainSet,
	configs map[product.Name]ProductConfig, scratchDir string, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{Archive: archiveClient, Loader: loader, Domain: domainSet, Configs: configs, ScratchDir: scratchDir, Logger: logger}
}

// RunJob ingests one product's cycle: every forecast-hour artifact the schedule table
// retains for this product, for the given cycle_time. It returns the taxonomy-tagged
// domain.JobError the Loader's own failure path already produces; fetch, parse, and
// validate failures are wrapped into the same taxonomy here so every job failure carries
// a JobErrorKind regardless of which stage produced it.
func (o *Orchestrator) RunJob(ctx context.Context, name product.Name, cycleTime time.Time) error {
	sched, ok := product.Schedules[name]
	if !ok {
		return domain.NewJobError(domain.JobErrorMalformed, fmt.Errorf("ingest: unknown product %q", name))
	}
	cfg, ok := o.Configs[name]
	if !ok {
		return domain.NewJobError(domain.JobErrorMalformed, fmt.Errorf("ingest: no configuration for product %q", name))
	}

	log := o.Logger.With("product", name, "cycle_time", cycleTime.UTC())
	log.Info("starting ingestion job")

	var allRecords []domain.HydroRecord
	ingestedAt := time.Now().UTC()

	for _, offset := range forecastOffsets(sched) {
		var forecastHour *int
		if isForecastFamily(name) {
			h := offset
			forecastHour = &h
		}

		artifact, err := o.fetchArtifact(ctx, name, cycleTime, offset)
		if err != nil {
			if isNotYetPublished(err) {
				log.Info("skipping unpublished artifact", "forecast_hour", offset)
				continue
			}
			return domain.NewJobError(domain.JobErrorTransient, err)
		}

		frame, err := o.parseArtifact(artifact, cfg.Variables)
		if err != nil {
			return domain.NewJobError(domain.JobErrorMalformed, err)
		}

		if err := validate.Validate(frame, validate.Options{
			Domain:        o.Domain,
			ExpectedCount: cfg.ExpectedCount,
		}); err != nil {
			return domain.NewJobError(domain.JobErrorInvalid, err)
		}

		records, err := normalize.Normalize(normalize.Input{
			Frame:        frame,
			Product:      name,
			CycleTime:    cycleTime,
			ForecastHour: forecastHour,
			Unit:         cfg.Unit,
		}, ingestedAt)
		if err != nil {
			return domain.NewJobError(domain.JobErrorMalformed, err)
		}
		allRecords = append(allRecords, records...)
	}

	return o.Loader.Load(ctx, store.LoadJob{
		Product:   string(name),
		CycleTime: cycleTime.UTC(),
		Domain:    "conus",
		Records:   allRecords,
	})
}

// forecastOffsets returns the forecast-hour axis to fetch: {0} for analysis-family
// products with no ForecastOffsets entry, and the schedule's configured offsets
// otherwise.
func forecastOffsets(sched product.Schedule) []int {
	if len(sched.ForecastOffsets) == 0 {
		return []int{0}
	}
	return sched.ForecastOffsets
}

func isForecastFamily(name product.Name) bool {
	return name == product.ShortForecast || name == product.MediumForecastBlend
}

func artifactName(name product.Name, forecastHour int) string {
	if isForecastFamily(name) {
		return fmt.Sprintf("%s.f%03d.nc", name, forecastHour)
	}
	return fmt.Sprintf("%s.nc", name)
}

func (o *Orchestrator) fetchArtifact(ctx context.Context, name product.Name, cycleTime time.Time, forecastHour int) (*archive.Artifact, error) {
	return o.Archive.Fetch(ctx, name, cycleTime, forecastHour, "conus", artifactName(name, forecastHour))
}

func isNotYetPublished(err error) bool {
	return errors.Is(err, archive.ErrNotYetPublished)
}

// parseArtifact stages the fetched artifact's bytes to a scratch file and parses it,
// since the NetCDF decoder requires a path rather than an in-memory buffer.
func (o *Orchestrator) parseArtifact(a *archive.Artifact, wantVars []domain.Variable) (*parse.Frame, error) {
	path := fmt.Sprintf("%s/%s_%s_%d.nc", o.ScratchDir, a.Product, a.CycleTime.Format("20060102T15"), a.ForecastHour)
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return nil, fmt.Errorf("ingest: staging artifact: %w", err)
	}
	defer os.Remove(path)

	if len(wantVars) == 0 {
		wantVars = domain.ValidVariables
	}
	return parse.ParseFile(path, wantVars)
}
