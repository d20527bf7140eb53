package domain

import (
	"fmt"
	"math"
)

// SpeciesWeights are the ScoringEngine's component weights for a species habitat score.
// Must sum to 1.0 within ValidationEpsilon.
type SpeciesWeights struct {
	Flow      float64 `yaml:"flow"`
	Velocity  float64 `yaml:"velocity"`
	Thermal   float64 `yaml:"thermal"`
	Stability float64 `yaml:"stability"`
}

// Sum returns the total of the four weights.
func (w SpeciesWeights) Sum() float64 {
	return w.Flow + w.Velocity + w.Thermal + w.Stability
}

// VelocityRange is the tolerable/optimal velocity envelope used by the velocity
// suitability metric.
type VelocityRange struct {
	MinTolerableMS float64 `yaml:"min_tolerable_ms"`
	MinOptimalMS   float64 `yaml:"min_optimal_ms"`
	MaxOptimalMS   float64 `yaml:"max_optimal_ms"`
	MaxTolerableMS float64 `yaml:"max_tolerable_ms"`
}

// Monotone reports whether the four bounds are non-decreasing.
func (r VelocityRange) Monotone() bool {
	return r.MinTolerableMS <= r.MinOptimalMS &&
		r.MinOptimalMS <= r.MaxOptimalMS &&
		r.MaxOptimalMS <= r.MaxTolerableMS
}

// FlowPercentileRange is the optimal flow-percentile band for a species.
type FlowPercentileRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Monotone reports whether Min <= Max.
func (r FlowPercentileRange) Monotone() bool {
	return r.Min <= r.Max
}

// TemperatureThresholds are the species-specific thermal breakpoints consumed by the TSI
// metric.
type TemperatureThresholds struct {
	OptimalMinC float64 `yaml:"optimal_min_c"`
	OptimalMaxC float64 `yaml:"optimal_max_c"`
	StressC     float64 `yaml:"stress_c"`
	CriticalC   float64 `yaml:"critical_c"`
}

// Monotone reports whether the thresholds widen outward in the expected order:
// optimal_min <= optimal_max <= stress <= critical.
func (t TemperatureThresholds) Monotone() bool {
	return t.OptimalMinC <= t.OptimalMaxC &&
		t.OptimalMaxC <= t.StressC &&
		t.StressC <= t.CriticalC
}

// SpeciesConfig is the static, startup-loaded configuration for one species' habitat
// scoring. The ScoringEngine performs no hard-coded thresholds; everything species
// specific lives here.
type SpeciesConfig struct {
	ID                    string                `yaml:"id"`
	DisplayName           string                `yaml:"display_name"`
	Weights               SpeciesWeights        `yaml:"weights"`
	Velocity              VelocityRange         `yaml:"velocity"`
	FlowPercentile        FlowPercentileRange   `yaml:"flow_percentile"`
	Temperature           TemperatureThresholds `yaml:"temperature"`
	StabilityBDIThreshold float64               `yaml:"stability_bdi_threshold"`
}

// ValidationEpsilon bounds the tolerance for the weight-sum check.
const ValidationEpsilon = 1e-6

// Validate enforces the §6 startup validation contract for a SpeciesConfig: weights sum
// to 1±epsilon, and every threshold range is monotone. A configuration failing this check
// must abort process startup per §7 — the system refuses to serve with invalid
// configuration.
func (c SpeciesConfig) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("species config: id must not be empty")
	}
	if sum := c.Weights.Sum(); math.Abs(sum-1.0) > ValidationEpsilon {
		return fmt.Errorf("species config %s: weights must sum to 1.0, got %.9f", c.ID, sum)
	}
	for _, w := range []float64{c.Weights.Flow, c.Weights.Velocity, c.Weights.Thermal, c.Weights.Stability} {
		if w < 0 {
			return fmt.Errorf("species config %s: weights must be non-negative", c.ID)
		}
	}
	if !c.Velocity.Monotone() {
		return fmt.Errorf("species config %s: velocity range is not monotone: %+v", c.ID, c.Velocity)
	}
	if !c.FlowPercentile.Monotone() {
		return fmt.Errorf("species config %s: flow_percentile range is not monotone: %+v", c.ID, c.FlowPercentile)
	}
	if !c.Temperature.Monotone() {
		return fmt.Errorf("species config %s: temperature thresholds are not monotone: %+v", c.ID, c.Temperature)
	}
	if c.StabilityBDIThreshold < 0 || c.StabilityBDIThreshold > 1 {
		return fmt.Errorf("species config %s: stability_bdi_threshold must be in [0,1], got %.3f",
			c.ID, c.StabilityBDIThreshold)
	}
	return nil
}
