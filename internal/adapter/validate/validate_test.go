package validate

import (
	"testing"

	"github.com/ngs-hydro/reach-metrics/internal/adapter/parse"
	"github.com/ngs-hydro/reach-metrics/internal/domain"
)

type staticDomain map[int64]bool

func (s staticDomain) Contains(featureID int64) bool { return s[featureID] }

func flowSample(id int64, value float64) parse.Sample {
	v := value
	return parse.Sample{FeatureID: id, Variable: domain.VariableStreamflow, Value: &v}
}

func TestValidatePasses(t *testing.T) {
	frame := &parse.Frame{Samples: []parse.Sample{flowSample(1, 10), flowSample(2, 20)}}
	opts := Options{Domain: staticDomain{1: true, 2: true}, ExpectedCount: 2}
	if err := Validate(frame, opts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateDomainMismatch(t *testing.T) {
	frame := &parse.Frame{Samples: []parse.Sample{flowSample(1, 10), flowSample(99, 20)}}
	opts := Options{Domain: staticDomain{1: true}}
	err := Validate(frame, opts)
	if err == nil {
		t.Fatal("expected domain_mismatch error")
	}
	ve, ok := err.(*domain.ValidationError)
	if !ok || ve.Kind != domain.ValidationDomainMismatch {
		t.Errorf("got %v, want domain_mismatch", err)
	}
}

func TestValidateOutOfRange(t *testing.T) {
	frame := &parse.Frame{Samples: []parse.Sample{flowSample(1, -5)}}
	err := Validate(frame, Options{})
	if err == nil {
		t.Fatal("expected out_of_range error")
	}
	ve, ok := err.(*domain.ValidationError)
	if !ok || ve.Kind != domain.ValidationOutOfRange || ve.Variable != domain.VariableStreamflow {
		t.Errorf("got %v, want out_of_range(streamflow)", err)
	}
}

func TestValidateShortRead(t *testing.T) {
	frame := &parse.Frame{Samples: []parse.Sample{flowSample(1, 10)}}
	opts := Options{ExpectedCount: 1000}
	err := Validate(frame, opts)
	if err == nil {
		t.Fatal("expected short_read error")
	}
	ve, ok := err.(*domain.ValidationError)
	if !ok || ve.Kind != domain.ValidationShortRead {
		t.Errorf("got %v, want short_read", err)
	}
}

func TestValidateIgnoresMissingValuesInRangeCheck(t *testing.T) {
	frame := &parse.Frame{Samples: []parse.Sample{{FeatureID: 1, Variable: domain.VariableStreamflow, Value: nil}}}
	if err := Validate(frame, Options{}); err != nil {
		t.Fatalf("unexpected error for missing-value sample: %v", err)
	}
}

func TestValidateSkipsRangeCheckWhenDomainFails(t *testing.T) {
	frame := &parse.Frame{Samples: []parse.Sample{flowSample(99, -999999)}}
	opts := Options{Domain: staticDomain{1: true}}
	err := Validate(frame, opts)
	ve, ok := err.(*domain.ValidationError)
	if !ok || ve.Kind != domain.ValidationDomainMismatch {
		t.Errorf("expected domain_mismatch to take precedence over out_of_range, got %v", err)
	}
}
