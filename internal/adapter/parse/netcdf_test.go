package parse

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fhs/go-netcdf/netcdf"

	"github.com/ngs-hydro/reach-metrics/internal/domain"
)

func createForecastNC(t *testing.T, path string, featureIDs []float64, streamflow, velocity []float64) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	f, err := netcdf.CreateFile(path, netcdf.CLOBBER)
	if err != nil {
		t.Fatalf("create nc: %v", err)
	}
	defer func() { _ = f.Close() }()

	featureDim, _ := f.AddDim("feature_id", len(featureIDs))
	vFeature, _ := f.AddVar("feature_id", netcdf.DOUBLE, []netcdf.Dim{featureDim})
	vFlow, _ := f.AddVar("streamflow", netcdf.DOUBLE, []netcdf.Dim{featureDim})
	vVelocity, _ := f.AddVar("velocity", netcdf.DOUBLE, []netcdf.Dim{featureDim})

	if err := f.EndDef(); err != nil {
		t.Fatalf("enddef: %v", err)
	}
	if err := vFeature.WriteFloat64s(featureIDs); err != nil {
		t.Fatalf("write feature_id: %v", err)
	}
	if err := vFlow.WriteFloat64s(streamflow); err != nil {
		t.Fatalf("write streamflow: %v", err)
	}
	if err := vVelocity.WriteFloat64s(velocity); err != nil {
		t.Fatalf("write velocity: %v", err)
	}
}

func TestParseFileDecodesRequestedVariables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "forecast.nc")
	createForecastNC(t, path, []float64{101, 102, 103}, []float64{1.5, 2.5, 3.5}, []float64{0.1, 0.2, 0.3})

	frame, err := ParseFile(path, []domain.Variable{domain.VariableStreamflow, domain.VariableVelocity})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frame.Samples) != 6 {
		t.Fatalf("len(Samples) = %d, want 6", len(frame.Samples))
	}

	var flowSamples, velSamples int
	for _, s := range frame.Samples {
		if s.Value == nil {
			t.Errorf("sample for feature %d var %s has nil value", s.FeatureID, s.Variable)
			continue
		}
		switch s.Variable {
		case domain.VariableStreamflow:
			flowSamples++
		case domain.VariableVelocity:
			velSamples++
		}
	}
	if flowSamples != 3 || velSamples != 3 {
		t.Errorf("flowSamples=%d velSamples=%d, want 3 and 3", flowSamples, velSamples)
	}
}

func TestParseFileSkipsAbsentVariables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "forecast.nc")
	createForecastNC(t, path, []float64{101}, []float64{1.0}, []float64{0.1})

	frame, err := ParseFile(path, []domain.Variable{domain.VariableStreamflow, domain.VariableNudge})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frame.Samples) != 1 {
		t.Fatalf("len(Samples) = %d, want 1 (nudge absent from file)", len(frame.Samples))
	}
	if frame.Samples[0].Variable != domain.VariableStreamflow {
		t.Errorf("Variable = %s, want streamflow", frame.Samples[0].Variable)
	}
}

func TestParseFileMissingFile(t *testing.T) {
	_, err := ParseFile("/nonexistent/path/forecast.nc", []domain.Variable{domain.VariableStreamflow})
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}
