package domain

import "testing"

func validHatchConfig() HatchConfig {
	return HatchConfig{
		ID: "pmd",
		Signature: HydrologicSignature{
			FlowPercentileMin: 55, FlowPercentileMax: 80,
			AllowedRisingLimb: []RisingLimbIntensity{IntensityWeak, IntensityModerate},
			VelocityMinMS:     0.4,
			VelocityMaxMS:     0.9,
			MinBDI:            0.65,
		},
		Window: TemporalWindow{StartDayOfYear: 135, EndDayOfYear: 180},
	}
}

func TestHatchConfigValidate(t *testing.T) {
	if err := validHatchConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestHatchConfigValidateRejectsOutOfRangeWindow(t *testing.T) {
	c := validHatchConfig()
	c.Window.EndDayOfYear = 400
	if err := c.Validate(); err == nil {
		t.Error("expected error for day-of-year out of [1,366]")
	}
}

func TestHatchConfigValidateRejectsInvertedWindow(t *testing.T) {
	c := validHatchConfig()
	c.Window.StartDayOfYear, c.Window.EndDayOfYear = 200, 100
	if err := c.Validate(); err == nil {
		t.Error("expected error for inverted window")
	}
}

func TestTemporalWindowContainsBoundaries(t *testing.T) {
	w := TemporalWindow{StartDayOfYear: 135, EndDayOfYear: 180}
	if !w.Contains(135) || !w.Contains(180) {
		t.Error("expected boundaries to be inclusive")
	}
	if w.Contains(134) || w.Contains(181) {
		t.Error("expected days outside window to be excluded")
	}
}

func TestHydrologicSignatureAllowsIntensity(t *testing.T) {
	sig := HydrologicSignature{AllowedRisingLimb: []RisingLimbIntensity{IntensityWeak}}
	weak := IntensityWeak
	strong := IntensityStrong
	if !sig.AllowsIntensity(&weak) {
		t.Error("expected weak to be allowed")
	}
	if sig.AllowsIntensity(&strong) {
		t.Error("expected strong to be disallowed")
	}
	if sig.AllowsIntensity(nil) {
		t.Error("expected nil intensity (no rising limb) to never match")
	}
}
