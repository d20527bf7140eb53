// Package validate implements the Validator: domain, range, and size checks on a parsed
// Frame before it reaches the Normalizer, per spec §4.3.
package validate

import (
	"github.com/ngs-hydro/reach-metrics/internal/adapter/parse"
	"github.com/ngs-hydro/reach-metrics/internal/domain"
)

// VariableBounds are the physically plausible [min, max] range for one variable, in SI
// units, used by the range check.
type VariableBounds struct {
	Min, Max float64
}

// DefaultBounds gives conservative CONUS-scale bounds per variable. Flows and
// groundwater/subsurface fluxes cannot be negative; velocity is bounded by a generous
// but finite channel-flow range. A value outside its bounds fails validation; it is
// not clamped.
var DefaultBounds = map[domain.Variable]VariableBounds{
	domain.VariableStreamflow:   {Min: 0, Max: 500000},
	domain.VariableVelocity:     {Min: 0, Max: 15},
	domain.VariableNudge:        {Min: -100000, Max: 100000},
	domain.VariableQSurface:     {Min: 0, Max: 500000},
	domain.VariableQSubsurface:  {Min: 0, Max: 500000},
	domain.VariableQGroundwater: {Min: 0, Max: 500000},
}

// SizeTolerance bounds how far the observed record count may fall below the expected
// count before the frame is rejected as a short read. A count above the expected one is
// not rejected.
const SizeTolerance = 0.02 // 2%.

// DomainSet reports membership of a feature_id in the declared geographic domain. It is
// the caller's responsibility to supply one backed by the loaded reference table (a
// flowline/reach list), since the set of valid reaches is deployment-specific.
type DomainSet interface {
	Contains(featureID int64) bool
}

// Options configures a validation pass: the declared domain membership, the variable
// bounds table, and the expected record count used by the size check.
type Options struct {
	Domain        DomainSet
	Bounds        map[domain.Variable]VariableBounds
	ExpectedCount int
}

// Validate runs the domain, range, and size checks on a parsed Frame and returns the
// first violation encountered as a domain.ValidationError, or nil if the frame passes.
// Checks run in the fixed order domain -> range -> size, matching §4.3's listing; a
// frame that fails the domain check is never range-checked, since a feature_id outside
// the declared domain makes its value meaningless to bound.
func Validate(frame *parse.Frame, opts Options) error {
	bounds := opts.Bounds
	if bounds == nil {
		bounds = DefaultBounds
	}

	if opts.Domain != nil {
		for _, s := range frame.Samples {
			if !opts.Domain.Contains(s.FeatureID) {
				return domain.NewValidationError(domain.ValidationDomainMismatch)
			}
		}
	}

	outOfRangeCount := map[domain.Variable]int{}
	for _, s := range frame.Samples {
		if s.Value == nil {
			continue
		}
		b, ok := bounds[s.Variable]
		if !ok {
			continue
		}
		if *s.Value < b.Min || *s.Value > b.Max {
			outOfRangeCount[s.Variable]++
		}
	}
	for v, count := range outOfRangeCount {
		if count > 0 {
			err := domain.NewValidationError(domain.ValidationOutOfRange)
			err.Variable = v
			err.Count = count
			return err
		}
	}

	if opts.ExpectedCount > 0 {
		observed := len(frame.Samples)
		lower := int(float64(opts.ExpectedCount) * (1 - SizeTolerance))
		if observed < lower {
			err := domain.NewValidationError(domain.ValidationShortRead)
			err.Count = observed
			return err
		}
	}

	return nil
}
