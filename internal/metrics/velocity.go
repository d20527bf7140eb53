package metrics

import "github.com/ngs-hydro/reach-metrics/internal/domain"

// VelocityCategory is the coarse band a velocity suitability score falls into.
type VelocityCategory string

const (
	VelocityTooSlow VelocityCategory = "too_slow"
	VelocityTooFast VelocityCategory = "too_fast"
	VelocityOptimal VelocityCategory = "optimal"
	VelocitySlow    VelocityCategory = "slow"
	VelocityFast    VelocityCategory = "fast"
)

// VelocityResult is the suitability score and category from §4.6.3.
type VelocityResult struct {
	Score    float64
	Category VelocityCategory
}

// VelocitySuitability scores a reach's velocity against a species' tolerable/optimal
// range, gradient-scoring the tolerable-but-not-optimal bands.
func VelocitySuitability(v float64, r domain.VelocityRange) VelocityResult {
	switch {
	case v < r.MinTolerableMS:
		return VelocityResult{Score: 0, Category: VelocityTooSlow}
	case v > r.MaxTolerableMS:
		return VelocityResult{Score: 0, Category: VelocityTooFast}
	case v >= r.MinOptimalMS && v <= r.MaxOptimalMS:
		return VelocityResult{Score: 1, Category: VelocityOptimal}
	case v < r.MinOptimalMS:
		return VelocityResult{Score: risingGradient(v, r.MinTolerableMS, r.MinOptimalMS), Category: VelocitySlow}
	default: // v > r.MaxOptimalMS
		return VelocityResult{Score: fallingGradient(v, r.MaxOptimalMS, r.MaxTolerableMS), Category: VelocityFast}
	}
}

// risingGradient scores v in [zero, one] linearly: 0 at zero, 1 at one.
func risingGradient(v, zero, one float64) float64 {
	if one == zero {
		return 1
	}
	return (v - zero) / (one - zero)
}

// fallingGradient scores v in [one, zero] linearly: 1 at one, 0 at zero.
func fallingGradient(v, one, zero float64) float64 {
	if zero == one {
		return 1
	}
	return (zero - v) / (zero - one)
}
