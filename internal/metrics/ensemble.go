package metrics

import (
	"fmt"
	"math"

	"github.com/ngs-hydro/reach-metrics/internal/domain"
)

// SpreadLevel buckets an ensemble's coefficient of variation into a coarse band.
type SpreadLevel string

const (
	SpreadLow      SpreadLevel = "low"
	SpreadModerate SpreadLevel = "moderate"
	SpreadHigh     SpreadLevel = "high"
)

// EnsembleSpread is the mean, population standard deviation, coefficient of variation,
// and coarse band computed from a set of ensemble member flows, per §4.6.6.
type EnsembleSpread struct {
	Mean  float64
	Std   float64
	CV    float64
	Level SpreadLevel
}

// ComputeEnsembleSpread summarizes ensemble member flows {q_1,...,q_N} for a single
// reach/valid_time. An empty or single-member set has no spread: CV is 0, level low.
func ComputeEnsembleSpread(members []float64) EnsembleSpread {
	n := len(members)
	if n == 0 {
		return EnsembleSpread{Level: SpreadLow}
	}

	var sum float64
	for _, q := range members {
		sum += q
	}
	mean := sum / float64(n)

	var sumSq float64
	for _, q := range members {
		d := q - mean
		sumSq += d * d
	}
	std := math.Sqrt(sumSq / float64(n))

	var cv float64
	if mean > 0 {
		cv = std / mean
	}

	return EnsembleSpread{Mean: mean, Std: std, CV: cv, Level: classifySpread(cv)}
}

func classifySpread(cv float64) SpreadLevel {
	switch {
	case cv < 0.15:
		return SpreadLow
	case cv < 0.30:
		return SpreadModerate
	default:
		return SpreadHigh
	}
}

// ConfidenceLevel is the tri-valued confidence token returned alongside every reach
// hydrology query.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// ConfidenceResult is a confidence classification with its supporting reasoning, per
// §4.6.6's "every output names which rule fired" requirement.
type ConfidenceResult struct {
	Level     ConfidenceLevel
	Reasoning string
}

// ConfidenceInput is what the confidence classifier needs to know about a HydroRecord's
// provenance and, if available, its ensemble spread.
type ConfidenceInput struct {
	Source       domain.Source
	ForecastHour *int         // nil for analysis sources.
	Spread       *EnsembleSpread // nil when ensemble members were unavailable.
}

// ClassifyConfidence implements the §4.6.6 decision tree, evaluated top-to-bottom: the
// first matching rule decides the output, and every output names that rule.
func ClassifyConfidence(in ConfidenceInput) ConfidenceResult {
	switch in.Source {
	case domain.SourceAnalysis:
		return ConfidenceResult{Level: ConfidenceHigh, Reasoning: "rule 1: analysis source is always high confidence"}

	case domain.SourceShortForecast:
		hour := 0
		if in.ForecastHour != nil {
			hour = *in.ForecastHour
		}
		switch {
		case hour <= 3:
			if in.Spread == nil || in.Spread.CV < 0.15 {
				return ConfidenceResult{
					Level:     ConfidenceHigh,
					Reasoning: fmt.Sprintf("rule 2: short_forecast at hour %d with spread unknown or CV < 0.15", hour),
				}
			}
			return ConfidenceResult{
				Level:     ConfidenceMedium,
				Reasoning: fmt.Sprintf("rule 2: short_forecast at hour %d with CV %.3f >= 0.15", hour, in.Spread.CV),
			}
		case hour <= 12:
			if in.Spread != nil && in.Spread.CV > 0.30 {
				return ConfidenceResult{
					Level:     ConfidenceLow,
					Reasoning: fmt.Sprintf("rule 3: short_forecast at hour %d with CV %.3f > 0.30", hour, in.Spread.CV),
				}
			}
			return ConfidenceResult{Level: ConfidenceMedium, Reasoning: fmt.Sprintf("rule 3: short_forecast at hour %d", hour)}
		}

	case domain.SourceMediumForecastBlend:
		if in.Spread != nil && in.Spread.CV > 0.40 {
			return ConfidenceResult{
				Level:     ConfidenceLow,
				Reasoning: fmt.Sprintf("rule 4: medium_forecast_blend with CV %.3f > 0.40", in.Spread.CV),
			}
		}
		return ConfidenceResult{Level: ConfidenceMedium, Reasoning: "rule 4: medium_forecast_blend"}
	}

	return ConfidenceResult{Level: ConfidenceMedium, Reasoning: "rule 5: default"}
}
