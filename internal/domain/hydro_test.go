package domain

import (
	"testing"
	"time"
)

func TestHydroRecordValidate(t *testing.T) {
	h := 3
	cases := []struct {
		name    string
		record  HydroRecord
		wantErr bool
	}{
		{
			name: "valid analysis record",
			record: HydroRecord{
				FeatureID: 1, ValidTime: time.Now().UTC(),
				Variable: VariableStreamflow, Source: SourceAnalysis,
			},
			wantErr: false,
		},
		{
			name: "valid forecast record",
			record: HydroRecord{
				FeatureID: 1, ValidTime: time.Now().UTC(),
				Variable: VariableStreamflow, Source: SourceShortForecast, ForecastHour: &h,
			},
			wantErr: false,
		},
		{
			name: "analysis with forecast hour is invalid",
			record: HydroRecord{
				FeatureID: 1, ValidTime: time.Now().UTC(),
				Variable: VariableStreamflow, Source: SourceAnalysis, ForecastHour: &h,
			},
			wantErr: true,
		},
		{
			name: "forecast without forecast hour is invalid",
			record: HydroRecord{
				FeatureID: 1, ValidTime: time.Now().UTC(),
				Variable: VariableStreamflow, Source: SourceShortForecast,
			},
			wantErr: true,
		},
		{
			name: "unknown variable is invalid",
			record: HydroRecord{
				FeatureID: 1, ValidTime: time.Now().UTC(),
				Variable: "bogus", Source: SourceAnalysis,
			},
			wantErr: true,
		},
		{
			name: "non-UTC valid_time is invalid",
			record: HydroRecord{
				FeatureID: 1, ValidTime: time.Now(),
				Variable: VariableStreamflow, Source: SourceAnalysis,
			},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Force a non-UTC location for that one case regardless of host TZ.
			if tc.name == "non-UTC valid_time is invalid" {
				tc.record.ValidTime = tc.record.ValidTime.In(time.FixedZone("TEST", 3600))
			}
			err := tc.record.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestHydroRecordKeyExcludesForecastHour(t *testing.T) {
	h1, h2 := 1, 18
	a := HydroRecord{FeatureID: 5, ValidTime: time.Unix(0, 0).UTC(), Variable: VariableStreamflow, Source: SourceShortForecast, ForecastHour: &h1}
	b := HydroRecord{FeatureID: 5, ValidTime: time.Unix(0, 0).UTC(), Variable: VariableStreamflow, Source: SourceShortForecast, ForecastHour: &h2}

	if a.Key() != b.Key() {
		t.Errorf("expected keys to be equal regardless of forecast_hour, got %+v vs %+v", a.Key(), b.Key())
	}
}
