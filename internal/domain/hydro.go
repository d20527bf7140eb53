// Package domain holds the canonical entities of the reach metrics core: the
// time-indexed hydrologic record, the static reference tables it joins against, and the
// species/hatch configuration documents the scoring engine consumes.
package domain

import (
	"fmt"
	"time"
)

// Variable is one of the closed set of hydrologic quantities a HydroRecord can carry.
type Variable string

// Closed set of variables recorded by the core. Source-product variable names are
// translated into these at the Normalizer boundary and never leak past it.
const (
	VariableStreamflow    Variable = "streamflow"
	VariableVelocity      Variable = "velocity"
	VariableNudge         Variable = "nudge"
	VariableQSurface      Variable = "q_surface"
	VariableQSubsurface   Variable = "q_subsurface"
	VariableQGroundwater  Variable = "q_groundwater"
)

// ValidVariables enumerates every Variable the core accepts.
var ValidVariables = []Variable{
	VariableStreamflow, VariableVelocity, VariableNudge,
	VariableQSurface, VariableQSubsurface, VariableQGroundwater,
}

// Valid reports whether v belongs to the closed variable set.
func (v Variable) Valid() bool {
	for _, candidate := range ValidVariables {
		if v == candidate {
			return true
		}
	}
	return false
}

// Source tags the forecast product family a HydroRecord was normalized from.
type Source string

// Closed set of canonical sources. Original product filenames are discarded by the
// Normalizer; only these four tokens are ever persisted.
const (
	SourceAnalysis             Source = "analysis"
	SourceShortForecast        Source = "short_forecast"
	SourceMediumForecastBlend  Source = "medium_forecast_blend"
	SourceAnalysisNoAssim      Source = "analysis_no_assim"
)

// ValidSources enumerates every Source the core accepts.
var ValidSources = []Source{
	SourceAnalysis, SourceShortForecast, SourceMediumForecastBlend, SourceAnalysisNoAssim,
}

// Valid reports whether s belongs to the closed source set.
func (s Source) Valid() bool {
	for _, candidate := range ValidSources {
		if s == candidate {
			return true
		}
	}
	return false
}

// IsForecast reports whether s carries a forecast_hour (i.e. is not an analysis source).
func (s Source) IsForecast() bool {
	return s == SourceShortForecast || s == SourceMediumForecastBlend
}

// HydroRecord is the canonical ingested unit: one (reach, variable, time) observation or
// forecast sample. Value is a pointer so that "missing" is distinguishable from zero —
// the spec's missing-value sentinel is resolved to nil by the Parser before a record
// ever reaches this type.
type HydroRecord struct {
	FeatureID    int64
	ValidTime    time.Time
	Variable     Variable
	Value        *float64
	Source       Source
	ForecastHour *int // absent (nil) for analysis sources, present for forecast sources.
	IngestedAt   time.Time
}

// Key returns the primary-identity tuple of the record. ForecastHour is a derived
// attribute, not part of identity, per spec.
type Key struct {
	FeatureID int64
	ValidTime time.Time
	Variable  Variable
	Source    Source
}

// Key extracts the identity tuple of the record.
func (r HydroRecord) Key() Key {
	return Key{
		FeatureID: r.FeatureID,
		ValidTime: r.ValidTime,
		Variable:  r.Variable,
		Source:    r.Source,
	}
}

// Validate enforces the structural invariants of §3: valid_time is absolute, analysis
// sources never carry a forecast_hour, forecast sources always do, and
// valid_time = cycle_time + forecast_hour when both are knowable at this layer (checked
// by the Normalizer, which has cycle_time in scope; here we only check internal
// consistency between Source and ForecastHour presence).
func (r HydroRecord) Validate() error {
	if !r.Variable.Valid() {
		return fmt.Errorf("hydro record: unknown variable %q", r.Variable)
	}
	if !r.Source.Valid() {
		return fmt.Errorf("hydro record: unknown source %q", r.Source)
	}
	if r.Source.IsForecast() {
		if r.ForecastHour == nil {
			return fmt.Errorf("hydro record: source %q requires a forecast_hour", r.Source)
		}
		if *r.ForecastHour < 0 {
			return fmt.Errorf("hydro record: forecast_hour must be non-negative, got %d", *r.ForecastHour)
		}
	} else if r.ForecastHour != nil {
		return fmt.Errorf("hydro record: source %q must not carry a forecast_hour", r.Source)
	}
	if r.ValidTime.Location() != time.UTC {
		return fmt.Errorf("hydro record: valid_time must be UTC, got location %s", r.ValidTime.Location())
	}
	return nil
}
