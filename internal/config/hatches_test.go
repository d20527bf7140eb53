package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validHatchYAML = `
id: blue_winged_olive
display_name: Blue-Winged Olive
signature:
  flow_percentile_min: 25
  flow_percentile_max: 75
  allowed_rising_limb: [weak, moderate]
  velocity_min_ms: 0.2
  velocity_max_ms: 0.9
  min_bdi: 0.3
window:
  start_day_of_year: 60
  end_day_of_year: 150
`

func TestLoadHatchConfigsValid(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bwo.yaml"), []byte(validHatchYAML), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	configs, err := LoadHatchConfigs(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := configs["blue_winged_olive"]; !ok {
		t.Fatal("expected blue_winged_olive config to be loaded")
	}
}

func TestLoadHatchConfigsRejectsBadWindow(t *testing.T) {
	dir := t.TempDir()
	invalid := `
id: bad_hatch
signature:
  allowed_rising_limb: [weak]
window:
  start_day_of_year: 200
  end_day_of_year: 100
`
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte(invalid), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	if _, err := LoadHatchConfigs(dir); err == nil {
		t.Error("expected validation error for inverted window")
	}
}

func TestLoadHatchConfigsRejectsDuplicateID(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(validHatchYAML), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(validHatchYAML), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	if _, err := LoadHatchConfigs(dir); err == nil {
		t.Error("expected duplicate id error")
	}
}
