package scoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/ngs-hydro/reach-metrics/internal/domain"
	"github.com/ngs-hydro/reach-metrics/internal/metrics"
)

// HatchRating buckets a hatch's likelihood into a descriptive band.
type HatchRating string

const (
	HatchVeryLikely HatchRating = "very_likely"
	HatchLikely     HatchRating = "likely"
	HatchPossible   HatchRating = "possible"
	HatchUnlikely   HatchRating = "unlikely"
)

// HatchInputs is everything the hatch likelihood score needs about one reach at one
// instant.
type HatchInputs struct {
	FlowPercentile   metrics.FlowPercentileResult
	RisingLimbResult metrics.RisingLimbResult
	VelocityMS       float64
	BDI              float64
}

// HatchSignatureMatch records whether each of the four hydrologic conditions matched.
type HatchSignatureMatch struct {
	FlowPercentile bool
	RisingLimb     bool
	Velocity       bool
	BDI            bool
}

// HatchPrediction is the full §4.7.2 output for one hatch, one reach, one date.
type HatchPrediction struct {
	HatchID     string
	InSeason    bool
	Likelihood  float64
	Rating      HatchRating
	Match       HatchSignatureMatch
	Explanation string
}

// ScoreHatch computes the likelihood of one hatch event at one reach on one date, per
// §4.7.2. date is interpreted in UTC; only its day-of-year matters.
func ScoreHatch(in HatchInputs, cfg domain.HatchConfig, date time.Time) HatchPrediction {
	dayOfYear := date.UTC().YearDay()
	if !cfg.Window.Contains(dayOfYear) {
		return HatchPrediction{
			HatchID:     cfg.ID,
			InSeason:    false,
			Likelihood:  0,
			Rating:      HatchUnlikely,
			Explanation: fmt.Sprintf("out of season: day %d is outside [%d, %d]", dayOfYear, cfg.Window.StartDayOfYear, cfg.Window.EndDayOfYear),
		}
	}

	match := HatchSignatureMatch{
		FlowPercentile: in.FlowPercentile.Percentile != nil &&
			*in.FlowPercentile.Percentile >= cfg.Signature.FlowPercentileMin &&
			*in.FlowPercentile.Percentile <= cfg.Signature.FlowPercentileMax,
		RisingLimb: cfg.Signature.AllowsIntensity(in.RisingLimbResult.Intensity),
		Velocity:   in.VelocityMS >= cfg.Signature.VelocityMinMS && in.VelocityMS <= cfg.Signature.VelocityMaxMS,
		BDI:        in.BDI >= cfg.Signature.MinBDI,
	}

	matches := 0
	for _, ok := range []bool{match.FlowPercentile, match.RisingLimb, match.Velocity, match.BDI} {
		if ok {
			matches++
		}
	}
	likelihood := float64(matches) / 4

	return HatchPrediction{
		HatchID:     cfg.ID,
		InSeason:    true,
		Likelihood:  likelihood,
		Rating:      rateHatch(likelihood),
		Match:       match,
		Explanation: explainHatch(match),
	}
}

func rateHatch(likelihood float64) HatchRating {
	switch {
	case likelihood >= 0.75:
		return HatchVeryLikely
	case likelihood >= 0.50:
		return HatchLikely
	case likelihood >= 0.25:
		return HatchPossible
	default:
		return HatchUnlikely
	}
}

func explainHatch(match HatchSignatureMatch) string {
	describe := func(name string, ok bool) string {
		if ok {
			return name + " matches"
		}
		return name + " does not match"
	}
	parts := []string{
		describe("flow percentile", match.FlowPercentile),
		describe("rising limb intensity", match.RisingLimb),
		describe("velocity", match.Velocity),
		describe("baseflow dominance", match.BDI),
	}
	return strings.Join(parts, "; ")
}
