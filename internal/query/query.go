// Package query implements the QueryService of spec §4.8: the three reach-centric reads
// (hydrology, species score, hatch forecast) built on top of HydroStore, ReferenceCache,
// MetricsEngine and ScoringEngine. Query workers are stateless and issue only read-only
// store calls, per spec §5.
package query

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ngs-hydro/reach-metrics/internal/adapter/store"
	"github.com/ngs-hydro/reach-metrics/internal/adapter/weather"
	"github.com/ngs-hydro/reach-metrics/internal/domain"
	"github.com/ngs-hydro/reach-metrics/internal/metrics"
	"github.com/ngs-hydro/reach-metrics/internal/scoring"
)

// Timeframe is the closed set of hydrology query windows from spec §6.
type Timeframe string

const (
	TimeframeNow     Timeframe = "now"
	TimeframeToday   Timeframe = "today"
	TimeframeOutlook Timeframe = "outlook"
	TimeframeAll     Timeframe = "all"
)

// HydrologySnapshot is one instant's worth of the hydrology read: flow, velocity, BDI,
// flow percentile, and confidence. Source-product variable names and filenames never
// reach this type, per spec §4.8.
type HydrologySnapshot struct {
	Timestamp      time.Time
	FlowM3S        *float64
	VelocityMS     *float64
	BDI            metrics.BDIResult
	FlowPercentile metrics.FlowPercentileResult
	Confidence     metrics.ConfidenceResult
}

// HealthStatus is the GET health payload: store reachability plus the most recent
// successful ingestion per product.
type HealthStatus struct {
	StoreReachable       bool
	LastSuccessfulIngest map[string]time.Time
}

// Metadata enumerates what the system is configured to serve.
type Metadata struct {
	Species     []string
	Hatches     []string
	Timeframes  []Timeframe
	Confidences []metrics.ConfidenceLevel
}

// Service wires the read-side collaborators together. WeatherClient may be nil: species
// scoring then always treats thermal suitability as unavailable (weight renormalized),
// since TSI's stage-1 translation needs current air temperature.
type Service struct {
	Hydro      *store.HydroStore
	Reference  *store.ReferenceCache
	Weather    *weather.Client
	Species    map[string]domain.SpeciesConfig
	Hatches    map[string]domain.HatchConfig
	RisingLimb metrics.RisingLimbParams
	ThermalCfg metrics.AirToWaterParams
}

// NewService builds a Service with the documented metric defaults.
func NewService(hydro *store.HydroStore, ref *store.ReferenceCache, weatherClient *weather.Client,
	species map[string]domain.SpeciesConfig, hatches map[string]domain.HatchConfig) *Service {
	return &Service{
		Hydro:      hydro,
		Reference:  ref,
		Weather:    weatherClient,
		Species:    species,
		Hatches:    hatches,
		RisingLimb: metrics.DefaultRisingLimbParams,
		ThermalCfg: metrics.DefaultAirToWaterParams,
	}
}

// ReachHydrology implements the `GET reach/{feature_id}/hydrology` read for the given
// timeframe, as of asOf.
func (s *Service) ReachHydrology(ctx context.Context, featureID int64, timeframe Timeframe, asOf time.Time) ([]HydrologySnapshot, error) {
	switch timeframe {
	case TimeframeNow:
		records, err := s.Hydro.Now(ctx, featureID, asOf)
		if err != nil {
			return nil, fmt.Errorf("query: reading now hydrology: %w", err)
		}
		return s.snapshotsFromRecords(featureID, records)
	case TimeframeToday:
		records, err := s.Hydro.Today(ctx, featureID, asOf)
		if err != nil {
			return nil, fmt.Errorf("query: reading today hydrology: %w", err)
		}
		return s.snapshotsFromRecords(featureID, records)
	case TimeframeOutlook:
		records, err := s.Hydro.Outlook(ctx, featureID, asOf)
		if err != nil {
			return nil, fmt.Errorf("query: reading outlook hydrology: %w", err)
		}
		return s.snapshotsFromRecords(featureID, records)
	case TimeframeAll:
		return s.allSnapshots(ctx, featureID, asOf)
	default:
		return nil, fmt.Errorf("query: unknown timeframe %q", timeframe)
	}
}

func (s *Service) allSnapshots(ctx context.Context, featureID int64, asOf time.Time) ([]HydrologySnapshot, error) {
	var all []domain.HydroRecord
	for _, fetch := range []func(context.Context, int64, time.Time) ([]domain.HydroRecord, error){
		s.Hydro.Now, s.Hydro.Today, s.Hydro.Outlook,
	} {
		records, err := fetch(ctx, featureID, asOf)
		if err != nil {
			return nil, fmt.Errorf("query: reading combined hydrology: %w", err)
		}
		all = append(all, records...)
	}
	return s.snapshotsFromRecords(featureID, all)
}

// snapshotsFromRecords groups HydroRecords sharing a valid_time into one snapshot each,
// sorted ascending by time.
func (s *Service) snapshotsFromRecords(featureID int64, records []domain.HydroRecord) ([]HydrologySnapshot, error) {
	type bucket struct {
		values       map[domain.Variable]*float64
		source       domain.Source
		forecastHour *int
	}
	buckets := make(map[time.Time]*bucket)
	var order []time.Time
	for _, r := range records {
		b, ok := buckets[r.ValidTime]
		if !ok {
			b = &bucket{values: make(map[domain.Variable]*float64), source: r.Source, forecastHour: r.ForecastHour}
			buckets[r.ValidTime] = b
			order = append(order, r.ValidTime)
		}
		b.values[r.Variable] = r.Value
	}
	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })

	monthlyStats, _ := s.Reference.MonthlyStatistics(featureID)

	snapshots := make([]HydrologySnapshot, 0, len(order))
	for _, t := range order {
		b := buckets[t]
		snapshots = append(snapshots, s.buildSnapshot(t, b.values, b.source, b.forecastHour, monthlyStats))
	}
	return snapshots, nil
}

func (s *Service) buildSnapshot(validTime time.Time, values map[domain.Variable]*float64, source domain.Source,
	forecastHour *int, stats domain.MonthlyFlowStatistics) HydrologySnapshot {

	flow := values[domain.VariableStreamflow]
	bdi := metrics.ComputeBDI(
		derefOrZero(values[domain.VariableQSurface]),
		derefOrZero(values[domain.VariableQSubsurface]),
		derefOrZero(values[domain.VariableQGroundwater]),
	)

	var flowPct metrics.FlowPercentileResult
	if flow != nil {
		mean, ok := stats.MeanFlowForMonth(int(validTime.Month()))
		if ok {
			flowPct = metrics.FlowPercentile(*flow, &mean)
		} else {
			flowPct = metrics.FlowPercentile(*flow, nil)
		}
	} else {
		flowPct = metrics.FlowPercentileResult{Category: metrics.FlowUnknown}
	}

	confidence := metrics.ClassifyConfidence(metrics.ConfidenceInput{Source: source, ForecastHour: forecastHour})

	return HydrologySnapshot{
		Timestamp:      validTime,
		FlowM3S:        flow,
		VelocityMS:     values[domain.VariableVelocity],
		BDI:            bdi,
		FlowPercentile: flowPct,
		Confidence:     confidence,
	}
}

func derefOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// SpeciesScore implements `GET reach/{feature_id}/species/{species_id}`: it runs the
// ScoringEngine on demand against the latest hydrology snapshot for the given timeframe.
func (s *Service) SpeciesScore(ctx context.Context, featureID int64, speciesID string, timeframe Timeframe, asOf time.Time) (scoring.HabitatScore, error) {
	cfg, ok := s.Species[speciesID]
	if !ok {
		return scoring.HabitatScore{}, fmt.Errorf("query: unknown species %q", speciesID)
	}

	snapshots, err := s.ReachHydrology(ctx, featureID, timeframe, asOf)
	if err != nil {
		return scoring.HabitatScore{}, err
	}
	if len(snapshots) == 0 {
		return scoring.HabitatScore{}, fmt.Errorf("query: no hydrology data for reach %d at timeframe %q", featureID, timeframe)
	}
	latest := snapshots[len(snapshots)-1]

	velocity := metrics.VelocitySuitability(derefOrZero(latest.VelocityMS), cfg.Velocity)

	thermal := s.thermalSuitability(ctx, featureID, latest, cfg)

	horizon, err := s.ReachHydrology(ctx, featureID, TimeframeToday, asOf)
	if err != nil {
		return scoring.HabitatScore{}, err
	}
	cv := shortHorizonFlowCV(horizon)

	inputs := scoring.HabitatInputs{
		FlowPercentile:     latest.FlowPercentile,
		Velocity:           velocity,
		BDI:                latest.BDI,
		Thermal:            thermal,
		ShortHorizonFlowCV: cv,
		Confidence:         latest.Confidence,
	}
	return scoring.ScoreHabitat(inputs, cfg.Weights, cfg.FlowPercentile), nil
}

// thermalSuitability resolves TSI stage 1+2 for one reach/snapshot, fetching current air
// temperature from the weather collaborator. Returns nil when there is no weather
// client, no flowline for the reach, or no air-temperature reading at or before the
// snapshot time (including a failed fetch), signaling the caller to drop the thermal component.
func (s *Service) thermalSuitability(ctx context.Context, featureID int64, snap HydrologySnapshot, cfg domain.SpeciesConfig) *metrics.TSIResult {
	if s.Weather == nil {
		return nil
	}
	flowline, ok := s.Reference.Flowline(featureID)
	if !ok {
		return nil
	}
	forecast, err := s.Weather.Fetch(ctx, flowline.Centroid(), 1)
	if err != nil {
		return nil
	}
	reading, ok := forecast.AtOrBefore(snap.Timestamp)
	if !ok {
		return nil
	}
	elevation := (flowline.MinElevationM + flowline.MaxElevationM) / 2
	result := metrics.ThermalSuitability(reading.AirTempC, snap.BDI.BDI, &elevation, cfg.Temperature, s.ThermalCfg)
	return &result
}

// shortHorizonFlowCV estimates next-18h flow variability from a snapshot series, clipped
// to [0,1], per §9's resolution that the stability score's variability window defaults
// to the short-forecast horizon.
func shortHorizonFlowCV(snapshots []HydrologySnapshot) float64 {
	var flows []float64
	for _, s := range snapshots {
		if s.FlowM3S != nil {
			flows = append(flows, *s.FlowM3S)
		}
	}
	if len(flows) < 2 {
		return 0
	}
	spread := metrics.ComputeEnsembleSpread(flows)
	if spread.CV > 1 {
		return 1
	}
	return spread.CV
}

// HatchForecast implements `GET reach/{feature_id}/hatches`: it runs the HatchEngine for
// every configured hatch against the latest "now" hydrology snapshot, descending by
// likelihood.
func (s *Service) HatchForecast(ctx context.Context, featureID int64, date time.Time) ([]scoring.HatchPrediction, error) {
	snapshots, err := s.ReachHydrology(ctx, featureID, TimeframeNow, date)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("query: no hydrology data for reach %d", featureID)
	}
	latest := snapshots[len(snapshots)-1]

	risingLimb, err := s.risingLimbAt(ctx, featureID, date)
	if err != nil {
		return nil, err
	}

	predictions := make([]scoring.HatchPrediction, 0, len(s.Hatches))
	for _, cfg := range s.Hatches {
		in := scoring.HatchInputs{
			FlowPercentile:   latest.FlowPercentile,
			RisingLimbResult: risingLimb,
			VelocityMS:       derefOrZero(latest.VelocityMS),
			BDI:              latest.BDI.BDI,
		}
		predictions = append(predictions, scoring.ScoreHatch(in, cfg, date))
	}

	sort.Slice(predictions, func(i, j int) bool { return predictions[i].Likelihood > predictions[j].Likelihood })
	return predictions, nil
}

// risingLimbAt detects a rising limb in the 18 hours leading up to date, using the
// short_forecast ("today") window read 18 hours back as a proxy for recent streamflow
// history.
func (s *Service) risingLimbAt(ctx context.Context, featureID int64, asOf time.Time) (metrics.RisingLimbResult, error) {
	records, err := s.Hydro.Today(ctx, featureID, asOf.Add(-18*time.Hour))
	if err != nil {
		return metrics.RisingLimbResult{}, fmt.Errorf("query: reading rising-limb history: %w", err)
	}

	var samples []metrics.FlowSample
	for _, r := range records {
		if r.Variable == domain.VariableStreamflow {
			samples = append(samples, metrics.FlowSample{Time: r.ValidTime, Value: r.Value})
		}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].Time.Before(samples[j].Time) })

	return metrics.DetectRisingLimb(samples, s.RisingLimb), nil
}

// Metadata implements `GET metadata`.
func (s *Service) Metadata() Metadata {
	species := make([]string, 0, len(s.Species))
	for id := range s.Species {
		species = append(species, id)
	}
	sort.Strings(species)

	hatches := make([]string, 0, len(s.Hatches))
	for id := range s.Hatches {
		hatches = append(hatches, id)
	}
	sort.Strings(hatches)

	return Metadata{
		Species:     species,
		Hatches:     hatches,
		Timeframes:  []Timeframe{TimeframeNow, TimeframeToday, TimeframeOutlook, TimeframeAll},
		Confidences: []metrics.ConfidenceLevel{metrics.ConfidenceHigh, metrics.ConfidenceMedium, metrics.ConfidenceLow},
	}
}

// Health implements `GET health`: store reachability plus last successful ingestion per
// product, read from nwm.ingestion_log.
func (s *Service) Health(ctx context.Context, pool store.PgxIface) (HealthStatus, error) {
	if err := pool.Ping(ctx); err != nil {
		return HealthStatus{StoreReachable: false, LastSuccessfulIngest: map[string]time.Time{}}, nil
	}

	rows, err := pool.Query(ctx, `
		SELECT product, MAX(completed_at)
		FROM nwm.ingestion_log
		WHERE status = 'success'
		GROUP BY product
	`)
	if err != nil {
		return HealthStatus{}, fmt.Errorf("query: reading ingestion log: %w", err)
	}
	defer rows.Close()

	last := make(map[string]time.Time)
	for rows.Next() {
		var product string
		var completedAt time.Time
		if err := rows.Scan(&product, &completedAt); err != nil {
			return HealthStatus{}, fmt.Errorf("query: scanning ingestion log row: %w", err)
		}
		last[product] = completedAt
	}
	if err := rows.Err(); err != nil {
		return HealthStatus{}, fmt.Errorf("query: iterating ingestion log: %w", err)
	}

	return HealthStatus{StoreReachable: true, LastSuccessfulIngest: last}, nil
}
