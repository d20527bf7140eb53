package metrics

import (
	"math"
	"testing"
)

func meanPtr(v float64) *float64 { return &v }

// Spec scenario 3: flow near the historical mean lands near the 50th percentile.
func TestFlowPercentileMid(t *testing.T) {
	got := FlowPercentile(41.64, meanPtr(41.66))
	if got.Percentile == nil {
		t.Fatal("expected a non-nil percentile")
	}
	if math.Abs(*got.Percentile-50.0) > 0.5 {
		t.Errorf("percentile = %v, want ~50.0", *got.Percentile)
	}
	if got.Category != FlowNormal {
		t.Errorf("category = %v, want %v", got.Category, FlowNormal)
	}
}

func TestFlowPercentileNilHistoricalMeanIsUnknown(t *testing.T) {
	got := FlowPercentile(10, nil)
	if got.Category != FlowUnknown || got.Percentile != nil {
		t.Errorf("got %+v, want unknown category with nil percentile", got)
	}
}

func TestFlowPercentileNonPositiveHistoricalMeanIsUnknown(t *testing.T) {
	got := FlowPercentile(10, meanPtr(0))
	if got.Category != FlowUnknown || got.Percentile != nil {
		t.Errorf("got %+v, want unknown category with nil percentile", got)
	}

	got = FlowPercentile(10, meanPtr(-5))
	if got.Category != FlowUnknown || got.Percentile != nil {
		t.Errorf("got %+v, want unknown category with nil percentile", got)
	}
}

func TestFlowPercentileExtremesApproachFloorAndHundred(t *testing.T) {
	// With ratio -> 0 the tanh curve bottoms out at 50 - 50*tanh(2), about 1.80, not 0.
	low := FlowPercentile(0.001, meanPtr(1000))
	floor := 50 - 50*math.Tanh(2)
	if low.Percentile == nil || math.Abs(*low.Percentile-floor) > 1e-3 {
		t.Errorf("far-below-mean flow should approach the curve floor %.4f, got %+v", floor, low)
	}

	high := FlowPercentile(1000, meanPtr(0.001))
	if high.Percentile == nil || *high.Percentile < 99 || *high.Percentile > 100 {
		t.Errorf("far-above-mean flow should clamp near 100, got %+v", high)
	}
}

func TestClassifyFlowPercentileBandBoundaries(t *testing.T) {
	tests := []struct {
		p    float64
		want FlowPercentileCategory
	}{
		{0, FlowExtremeLow},
		{9.999, FlowExtremeLow},
		{10, FlowLow},
		{24.999, FlowLow},
		{25, FlowBelowNormal},
		{39.999, FlowBelowNormal},
		{40, FlowNormal},
		{59.999, FlowNormal},
		{60, FlowAboveNormal},
		{74.999, FlowAboveNormal},
		{75, FlowHigh},
		{89.999, FlowHigh},
		{90, FlowExtremeHigh},
		{100, FlowExtremeHigh},
	}
	for _, tt := range tests {
		if got := classifyFlowPercentile(tt.p); got != tt.want {
			t.Errorf("classifyFlowPercentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}
