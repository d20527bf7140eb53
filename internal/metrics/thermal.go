package metrics

import (
	"math"

	"github.com/ngs-hydro/reach-metrics/internal/domain"
)

// AirToWaterParams are the stage-1 S-curve coefficients of §4.6.5. One preset,
// DefaultAirToWaterParams, is defined; there are no elevation-stratified or per-region
// presets, and elevation enters only through the lapse-rate correction.
type AirToWaterParams struct {
	Alpha        float64 // asymptotic warm-end water temperature.
	Mu           float64 // asymptotic cold-end water temperature.
	Gamma        float64 // S-curve steepness.
	Beta         float64 // air temperature at the curve's midpoint.
	GroundwaterK float64 // groundwater buffering coefficient.
	GroundwaterT float64 // groundwater reference temperature, degrees C.
	ElevationRef float64 // reference elevation, meters.
	LapseRateC   float64 // degrees C per 300m above ElevationRef (negative).
}

// DefaultAirToWaterParams matches the documented defaults in §4.6.5.
var DefaultAirToWaterParams = AirToWaterParams{
	Alpha:        24,
	Mu:           2,
	Gamma:        0.20,
	Beta:         15,
	GroundwaterK: 0.35,
	GroundwaterT: 10,
	ElevationRef: 0,
	LapseRateC:   -0.6,
}

// WaterTemperature computes the stage-1 air-to-water translation: an S-curve base
// estimate, groundwater buffering by BDI, and an optional elevation lapse correction.
func WaterTemperature(airTempC, bdi float64, elevationM *float64, params AirToWaterParams) float64 {
	base := params.Mu + (params.Alpha-params.Mu)/(1+math.Exp(params.Gamma*(params.Beta-airTempC)))
	buffered := base - params.GroundwaterK*bdi*(base-params.GroundwaterT)
	if elevationM == nil {
		return buffered
	}
	return buffered + ((*elevationM-params.ElevationRef)/300)*params.LapseRateC
}

// TSIResult is the stage-2 thermal suitability score.
type TSIResult struct {
	WaterTempC float64
	Score      float64
}

// ThermalSuitability scores a water temperature against species thresholds, per §4.6.5
// stage 2: full credit in the optimal range, linear decay through stress to critical,
// zero beyond critical.
func ThermalSuitability(airTempC, bdi float64, elevationM *float64, thresholds domain.TemperatureThresholds, params AirToWaterParams) TSIResult {
	tw := WaterTemperature(airTempC, bdi, elevationM, params)
	return TSIResult{WaterTempC: tw, Score: scoreWaterTemperature(tw, thresholds)}
}

// scoreWaterTemperature implements §4.6.5 stage 2. Thresholds widen outward in the order
// optimal_min <= optimal_max <= stress <= critical (domain.TemperatureThresholds.Monotone);
// the spec defines decay only above optimal_max, so water colder than optimal_min scores
// 1 as well - cold water is never the limiting factor for the species this metric targets.
func scoreWaterTemperature(tw float64, t domain.TemperatureThresholds) float64 {
	switch {
	case tw <= t.OptimalMaxC:
		return 1
	case tw <= t.StressC:
		return linearBetween(tw, t.OptimalMaxC, t.StressC, 1, 0.5)
	case tw <= t.CriticalC:
		return linearBetween(tw, t.StressC, t.CriticalC, 0.5, 0)
	default:
		return 0
	}
}

// linearBetween linearly interpolates value's score between two temperature anchors.
func linearBetween(tw, t0, t1, score0, score1 float64) float64 {
	if t1 == t0 {
		return score0
	}
	frac := (tw - t0) / (t1 - t0)
	if frac < 0 {
		frac = 0
	} else if frac > 1 {
		frac = 1
	}
	return score0 + frac*(score1-score0)
}
