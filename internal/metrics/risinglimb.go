// Package metrics computes the derived reach-level indices of spec §4.6. Every function
// here is pure: deterministic in its inputs and configuration, with no I/O.
package metrics

import (
	"time"

	"github.com/ngs-hydro/reach-metrics/internal/domain"
)

// RisingLimbIntensity classifies the steepest qualifying slope a detected rising limb
// exhibits. It is the same type as domain.RisingLimbIntensity, so a detected intensity can
// be checked directly against a hatch signature's allowed set.
type RisingLimbIntensity = domain.RisingLimbIntensity

const (
	IntensityWeak     = domain.IntensityWeak
	IntensityModerate = domain.IntensityModerate
	IntensityStrong   = domain.IntensityStrong
)

// FlowSample is one time-ordered streamflow observation; a nil Value marks a gap that
// breaks any window straddling it.
type FlowSample struct {
	Time  time.Time
	Value *float64
}

// RisingLimbParams bounds what counts as a rising limb and how its intensity is graded.
type RisingLimbParams struct {
	MinSlope          float64 // m3/s per hour; a window qualifies only if every per-hour slope strictly exceeds this.
	MinDurationHours  int     // minimum consecutive qualifying samples in the window (one fewer qualifying slope).
	WeakThreshold     float64
	ModerateThreshold float64
	StrongThreshold   float64
}

// DefaultRisingLimbParams mirrors commonly used NWM rising-limb detection presets.
var DefaultRisingLimbParams = RisingLimbParams{
	MinSlope:          0,
	MinDurationHours:  3,
	WeakThreshold:     5,
	ModerateThreshold: 20,
	StrongThreshold:   50,
}

// RisingLimbResult is the detection verdict for one series.
type RisingLimbResult struct {
	Detected  bool
	Intensity *RisingLimbIntensity
	MaxSlope  float64
}

// DetectRisingLimb implements §4.6.1. Samples must already be time-ordered; gaps (nil
// Value) are skipped without interpolation, and a qualifying window may never straddle
// one - consecutive runs are segmented at every gap before the slope search runs.
func DetectRisingLimb(samples []FlowSample, params RisingLimbParams) RisingLimbResult {
	best := RisingLimbResult{}

	for _, run := range contiguousRuns(samples) {
		slopes := perHourSlopes(run)
		windowMax, found := maxQualifyingWindowSlope(slopes, params.MinSlope, params.MinDurationHours)
		if !found {
			continue
		}
		if !best.Detected || windowMax > best.MaxSlope {
			best.MaxSlope = windowMax
		}
		best.Detected = true
	}

	if !best.Detected {
		return RisingLimbResult{Detected: false}
	}

	intensity := classifyIntensity(best.MaxSlope, params)
	best.Intensity = &intensity
	return best
}

// contiguousRuns splits samples into maximal runs with no gap (nil Value).
func contiguousRuns(samples []FlowSample) [][]FlowSample {
	var runs [][]FlowSample
	var current []FlowSample
	for _, s := range samples {
		if s.Value == nil {
			if len(current) > 0 {
				runs = append(runs, current)
				current = nil
			}
			continue
		}
		current = append(current, s)
	}
	if len(current) > 0 {
		runs = append(runs, current)
	}
	return runs
}

// perHourSlopes computes the first difference of flow divided by elapsed hours between
// consecutive samples in a gap-free run.
func perHourSlopes(run []FlowSample) []float64 {
	if len(run) < 2 {
		return nil
	}
	slopes := make([]float64, 0, len(run)-1)
	for i := 1; i < len(run); i++ {
		elapsedHours := run[i].Time.Sub(run[i-1].Time).Hours()
		if elapsedHours <= 0 {
			slopes = append(slopes, 0)
			continue
		}
		slopes = append(slopes, (*run[i].Value-*run[i-1].Value)/elapsedHours)
	}
	return slopes
}

// maxQualifyingWindowSlope finds the maximum slope within any window of at least
// minDurationHours consecutive samples whose per-hour slopes all strictly exceed
// minSlope. A window of minDurationHours samples spans minDurationHours-1 slopes, so the
// run of qualifying slopes required is one shorter than minDurationHours: a ramp of
// exactly minDurationHours samples (minDurationHours-1 slopes) must qualify, and
// shortening the ramp by one sample (one fewer slope) must not.
func maxQualifyingWindowSlope(slopes []float64, minSlope float64, minDurationHours int) (float64, bool) {
	requiredSlopes := minDurationHours - 1
	if requiredSlopes < 1 {
		requiredSlopes = 1
	}
	found := false
	var maxSlope float64
	runLen := 0
	runMax := 0.0

	for _, slope := range slopes {
		if slope > minSlope {
			runLen++
			if slope > runMax {
				runMax = slope
			}
			if runLen >= requiredSlopes {
				found = true
				if runMax > maxSlope {
					maxSlope = runMax
				}
			}
		} else {
			runLen = 0
			runMax = 0
		}
	}
	return maxSlope, found
}

func classifyIntensity(maxSlope float64, params RisingLimbParams) RisingLimbIntensity {
	switch {
	case maxSlope >= params.StrongThreshold:
		return IntensityStrong
	case maxSlope >= params.ModerateThreshold:
		return IntensityModerate
	default:
		return IntensityWeak
	}
}
