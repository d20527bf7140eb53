// Package normalize implements the Normalizer: turning a validated parse.Frame plus its
// (product, cycle_time, forecast_hour) coordinates into a stream of domain.HydroRecord,
// per spec §4.4's exact per-product rules.
package normalize

import (
	"time"

	"github.com/ngs-hydro/reach-metrics/internal/adapter/parse"
	"github.com/ngs-hydro/reach-metrics/internal/domain"
	"github.com/ngs-hydro/reach-metrics/internal/product"
)

// Input bundles the frame being normalized with the ingestion coordinates that are not
// carried on the frame itself.
type Input struct {
	Frame        *parse.Frame
	Product      product.Name
	CycleTime    time.Time
	ForecastHour *int // nil for analysis-family products.
	Unit         domain.SourceUnit
}

// flowLikeVariables are converted from the source's declared unit to SI; all other
// variables (velocity, nudge) are assumed already dimensionally consistent across
// sources and pass through unconverted.
var flowLikeVariables = map[domain.Variable]bool{
	domain.VariableStreamflow:   true,
	domain.VariableQSurface:     true,
	domain.VariableQSubsurface:  true,
	domain.VariableQGroundwater: true,
}

// Normalize maps every sample in in.Frame to a domain.HydroRecord. Samples whose
// (product, forecast_hour) combination is not normalizeable (short_forecast at h=0) are
// silently discarded, per §4.4 - this is not an error, the sample is defined to never
// represent "current" data. ingestedAt is stamped onto every produced record.
func Normalize(in Input, ingestedAt time.Time) ([]domain.HydroRecord, error) {
	source, err := product.ToSource(in.Product)
	if err != nil {
		return nil, err
	}

	validTime, canonicalHour, ok := product.ValidTime(in.Product, in.CycleTime, in.ForecastHour)
	if !ok {
		return nil, nil
	}

	records := make([]domain.HydroRecord, 0, len(in.Frame.Samples))
	for _, s := range in.Frame.Samples {
		rec := domain.HydroRecord{
			FeatureID:    s.FeatureID,
			ValidTime:    validTime,
			Variable:     s.Variable,
			Source:       source,
			ForecastHour: canonicalHour,
			IngestedAt:   ingestedAt.UTC(),
		}
		if s.Value != nil {
			val := *s.Value
			if flowLikeVariables[s.Variable] {
				val, err = domain.ConvertFlowToSI(val, in.Unit)
				if err != nil {
					return nil, err
				}
			}
			rec.Value = &val
		}
		records = append(records, rec)
	}
	return records, nil
}
