package product

import (
	"fmt"
	"time"

	"github.com/ngs-hydro/reach-metrics/internal/domain"
)

// ToSource maps a product Name to its canonical domain.Source tag. The two enums share
// tokens by construction; this function is the single place that relationship is
// encoded, so the rest of the codebase never compares the two string types directly.
func ToSource(name Name) (domain.Source, error) {
	switch name {
	case Analysis:
		return domain.SourceAnalysis, nil
	case ShortForecast:
		return domain.SourceShortForecast, nil
	case MediumForecastBlend:
		return domain.SourceMediumForecastBlend, nil
	case AnalysisNoAssim:
		return domain.SourceAnalysisNoAssim, nil
	default:
		return "", fmt.Errorf("product: unknown product %q", name)
	}
}

// ValidTime computes the absolute valid_time for a sample from the given product at the
// given cycle time and forecast-hour offset, per the exact rules of spec §4.4.
//
//   - analysis, analysis_no_assim: valid_time = cycle_time, offset must be 0/absent.
//   - short_forecast: valid_time = cycle_time + h hours, h >= 1 (h=0 is never "current";
//     callers must discard h=0 samples before calling this, ok reports false if h<1).
//   - medium_forecast_blend: valid_time = cycle_time + h hours, h >= 0.
//
// forecastHour is nil for analysis-family products (no offset axis) and non-nil for
// forecast products. ok is false when the (product, forecastHour) combination is not
// normalizeable (e.g. short_forecast at h=0), signaling the caller to discard the sample
// rather than treat it as an error.
func ValidTime(name Name, cycleTime time.Time, forecastHour *int) (validTime time.Time, canonicalHour *int, ok bool) {
	cycleTime = cycleTime.UTC()
	switch name {
	case Analysis, AnalysisNoAssim:
		return cycleTime, nil, true
	case ShortForecast:
		if forecastHour == nil || *forecastHour < 1 {
			return time.Time{}, nil, false
		}
		h := *forecastHour
		return cycleTime.Add(time.Duration(h) * time.Hour), &h, true
	case MediumForecastBlend:
		if forecastHour == nil || *forecastHour < 0 {
			return time.Time{}, nil, false
		}
		h := *forecastHour
		return cycleTime.Add(time.Duration(h) * time.Hour), &h, true
	default:
		return time.Time{}, nil, false
	}
}
