// Package product models the closed set of four hydrologic forecast products the core
// ingests. Per spec.md §9 ("Polymorphism over product family"), the four products differ
// only in cadence and the forecast_hour -> valid_time mapping; they share a single
// normalization step rather than a deep inheritance hierarchy.
package product

import (
	"fmt"
	"time"
)

// Name identifies one of the four ingestible products.
type Name string

const (
	Analysis            Name = "analysis"
	ShortForecast        Name = "short_forecast"
	MediumForecastBlend Name = "medium_forecast_blend"
	AnalysisNoAssim     Name = "analysis_no_assim"
)

// All enumerates every configured product, in a stable order used for scheduling
// fan-out.
var All = []Name{Analysis, ShortForecast, MediumForecastBlend, AnalysisNoAssim}

// Schedule is the closed cadence table of §4.1. ValidCycleHours lists the UTC hours at
// which the product publishes a cycle; ForecastOffsets lists the forecast_hour values
// retained from each cycle (empty/zero for analysis-style products, which only retain
// offset 0).
type Schedule struct {
	CadenceHours    int   // hours between cycles, e.g. 1, 6, 24.
	ValidCycleHours []int // subset of 0-23 at which this product's cadence lands.
	ForecastOffsets []int // forecast hours retained, in ascending order.
}

// Schedules is the closed schedule table from spec §4.1. ForecastOffsets are the
// documented defaults; the ingestion Orchestrator reads them from this table directly and
// no configuration setting overrides them. The closed set of products and their
// cadence/valid-hour shape is not configurable either.
var Schedules = map[Name]Schedule{
	Analysis: {
		CadenceHours:    1,
		ValidCycleHours: hoursRange(0, 23),
		ForecastOffsets: []int{0},
	},
	ShortForecast: {
		CadenceHours:    1,
		ValidCycleHours: hoursRange(0, 23),
		ForecastOffsets: []int{1, 18},
	},
	MediumForecastBlend: {
		CadenceHours:    6,
		ValidCycleHours: []int{0, 6, 12, 18},
		ForecastOffsets: []int{24},
	},
	AnalysisNoAssim: {
		CadenceHours:    24,
		ValidCycleHours: []int{0},
		ForecastOffsets: []int{0},
	},
}

func hoursRange(start, end int) []int {
	hours := make([]int, 0, end-start+1)
	for h := start; h <= end; h++ {
		hours = append(hours, h)
	}
	return hours
}

// IsValidCycleHour reports whether hour is a publishing hour for the named product. An
// unconfigured product name is never valid. This is the core safety rule of §4.1:
// dispatching a product at the wrong hour must never fail, only report "not valid."
func IsValidCycleHour(name Name, hour int) bool {
	sched, ok := Schedules[name]
	if !ok {
		return false
	}
	for _, h := range sched.ValidCycleHours {
		if h == hour {
			return true
		}
	}
	return false
}

// LatestValidCycleTime rounds wallClock (any instant) down to the latest valid cycle
// time for the named product, in UTC. Returns an error only if name is unconfigured;
// there is always a valid cycle time for any configured product at any wall-clock
// instant (the schedule tables are total over 0-23).
func LatestValidCycleTime(name Name, wallClock time.Time) (time.Time, error) {
	sched, ok := Schedules[name]
	if !ok {
		return time.Time{}, fmt.Errorf("product: unknown product %q", name)
	}
	wallClock = wallClock.UTC()
	dayStart := time.Date(wallClock.Year(), wallClock.Month(), wallClock.Day(), 0, 0, 0, 0, time.UTC)

	best := time.Time{}
	found := false
	// Search today and, in case all of today's valid hours are still in the future
	// relative to wallClock (e.g. a daily product queried at 00:30 looking for hour 0
	// is fine, but one queried just after midnight before hour 0 elapses is not),
	// fall back to yesterday's last valid hour.
	for _, h := range sched.ValidCycleHours {
		candidate := dayStart.Add(time.Duration(h) * time.Hour)
		if !candidate.After(wallClock) && (!found || candidate.After(best)) {
			best = candidate
			found = true
		}
	}
	if found {
		return best, nil
	}
	// Nothing today has elapsed yet; use yesterday's latest valid hour.
	yesterday := dayStart.Add(-24 * time.Hour)
	maxHour := sched.ValidCycleHours[0]
	for _, h := range sched.ValidCycleHours {
		if h > maxHour {
			maxHour = h
		}
	}
	return yesterday.Add(time.Duration(maxHour) * time.Hour), nil
}

// ForecastOffsetsFor returns the forecast-hour offsets retained for name: override when
// it is non-empty, else the Schedules default. Nothing in the ingestion path calls it, so
// the Schedules defaults are the offsets in effect.
func ForecastOffsetsFor(name Name, override []int) []int {
	if len(override) > 0 {
		return override
	}
	return Schedules[name].ForecastOffsets
}
