package scoring

import (
	"testing"
	"time"

	"github.com/ngs-hydro/reach-metrics/internal/domain"
	"github.com/ngs-hydro/reach-metrics/internal/metrics"
)

func blueWingedOlive() domain.HatchConfig {
	return domain.HatchConfig{
		ID:          "blue_winged_olive",
		DisplayName: "Blue-Winged Olive",
		Signature: domain.HydrologicSignature{
			FlowPercentileMin: 25,
			FlowPercentileMax: 75,
			AllowedRisingLimb: []domain.RisingLimbIntensity{domain.IntensityWeak, domain.IntensityModerate},
			VelocityMinMS:     0.2,
			VelocityMaxMS:     0.9,
			MinBDI:            0.3,
		},
		Window: domain.TemporalWindow{StartDayOfYear: 60, EndDayOfYear: 150},
	}
}

func TestScoreHatchOutOfSeason(t *testing.T) {
	date := time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC)
	pred := ScoreHatch(HatchInputs{}, blueWingedOlive(), date)
	if pred.InSeason {
		t.Error("expected out of season")
	}
	if pred.Likelihood != 0 || pred.Rating != HatchUnlikely {
		t.Errorf("out of season must be likelihood 0 / unlikely, got %v %v", pred.Likelihood, pred.Rating)
	}
}

func TestScoreHatchAllSignaturesMatch(t *testing.T) {
	date := time.Date(2026, time.April, 15, 0, 0, 0, 0, time.UTC) // day 105, within [60,150]
	weak := domain.IntensityWeak
	p := 50.0
	in := HatchInputs{
		FlowPercentile:   metrics.FlowPercentileResult{Percentile: &p},
		RisingLimbResult: metrics.RisingLimbResult{Detected: true, Intensity: &weak},
		VelocityMS:       0.5,
		BDI:              0.4,
	}
	pred := ScoreHatch(in, blueWingedOlive(), date)
	if !pred.InSeason {
		t.Fatal("expected in season")
	}
	if pred.Likelihood != 1 {
		t.Errorf("all four signatures match, expected likelihood 1, got %v", pred.Likelihood)
	}
	if pred.Rating != HatchVeryLikely {
		t.Errorf("expected very_likely, got %v", pred.Rating)
	}
}

func TestScoreHatchNoSignaturesMatch(t *testing.T) {
	date := time.Date(2026, time.April, 15, 0, 0, 0, 0, time.UTC)
	p := 95.0
	strong := domain.IntensityStrong
	in := HatchInputs{
		FlowPercentile:   metrics.FlowPercentileResult{Percentile: &p},
		RisingLimbResult: metrics.RisingLimbResult{Detected: true, Intensity: &strong},
		VelocityMS:       5,
		BDI:              0,
	}
	pred := ScoreHatch(in, blueWingedOlive(), date)
	if pred.Likelihood != 0 {
		t.Errorf("expected likelihood 0, got %v", pred.Likelihood)
	}
	if pred.Rating != HatchUnlikely {
		t.Errorf("expected unlikely, got %v", pred.Rating)
	}
	if pred.Match.FlowPercentile || pred.Match.RisingLimb || pred.Match.Velocity || pred.Match.BDI {
		t.Errorf("expected all match flags false, got %+v", pred.Match)
	}
}

func TestScoreHatchNoRisingLimbDetectedNeverMatches(t *testing.T) {
	date := time.Date(2026, time.April, 15, 0, 0, 0, 0, time.UTC)
	p := 50.0
	in := HatchInputs{
		FlowPercentile:   metrics.FlowPercentileResult{Percentile: &p},
		RisingLimbResult: metrics.RisingLimbResult{Detected: false},
		VelocityMS:       0.5,
		BDI:              0.4,
	}
	pred := ScoreHatch(in, blueWingedOlive(), date)
	if pred.Match.RisingLimb {
		t.Error("absent rising limb intensity must never match")
	}
	if pred.Likelihood != 0.75 {
		t.Errorf("expected likelihood 0.75 (3 of 4 match), got %v", pred.Likelihood)
	}
	if pred.Rating != HatchVeryLikely {
		t.Errorf("0.75 should round to very_likely, got %v", pred.Rating)
	}
}

func TestScoreHatchRatingBands(t *testing.T) {
	tests := []struct {
		likelihood float64
		want       HatchRating
	}{
		{1.0, HatchVeryLikely},
		{0.75, HatchVeryLikely},
		{0.5, HatchLikely},
		{0.25, HatchPossible},
		{0, HatchUnlikely},
	}
	for _, tt := range tests {
		if got := rateHatch(tt.likelihood); got != tt.want {
			t.Errorf("rateHatch(%v) = %v, want %v", tt.likelihood, got, tt.want)
		}
	}
}

func TestScoreHatchWindowBoundaryInclusive(t *testing.T) {
	cfg := blueWingedOlive()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, cfg.Window.StartDayOfYear-1)
	end := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, cfg.Window.EndDayOfYear-1)
	for _, date := range []time.Time{start, end} {
		pred := ScoreHatch(HatchInputs{}, cfg, date)
		if !pred.InSeason {
			t.Errorf("boundary date %v should be in season for window [%d,%d]", date, cfg.Window.StartDayOfYear, cfg.Window.EndDayOfYear)
		}
	}
}
