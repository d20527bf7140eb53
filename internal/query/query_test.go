package query

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/ngs-hydro/reach-metrics/internal/adapter/store"
	"github.com/ngs-hydro/reach-metrics/internal/domain"
)

var hydroRecordColumns = []string{"feature_id", "valid_time", "variable", "value", "source", "forecast_hour", "ingested_at"}

func mustPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestReachHydrologyNowBuildsSingleSnapshot(t *testing.T) {
	mock := mustPool(t)
	validTime := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	ingestedAt := validTime.Add(5 * time.Minute)

	rows := pgxmock.NewRows(hydroRecordColumns).
		AddRow(int64(101), validTime, "streamflow", ptr(25.0), "analysis", (*int)(nil), ingestedAt).
		AddRow(int64(101), validTime, "velocity", ptr(0.6), "analysis", (*int)(nil), ingestedAt).
		AddRow(int64(101), validTime, "q_surface", ptr(10.0), "analysis", (*int)(nil), ingestedAt).
		AddRow(int64(101), validTime, "q_subsurface", ptr(10.0), "analysis", (*int)(nil), ingestedAt).
		AddRow(int64(101), validTime, "q_groundwater", ptr(5.0), "analysis", (*int)(nil), ingestedAt)
	mock.ExpectQuery(`SELECT DISTINCT ON \(variable\)`).WillReturnRows(rows)

	svc := NewService(store.NewHydroStore(mock), store.NewReferenceCache(), nil, nil, nil)

	snapshots, err := svc.ReachHydrology(context.Background(), 101, TimeframeNow, validTime)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)

	snap := snapshots[0]
	require.NotNil(t, snap.FlowM3S)
	require.InDelta(t, 25.0, *snap.FlowM3S, 1e-9)
	require.NotNil(t, snap.VelocityMS)
	require.InDelta(t, 0.6, *snap.VelocityMS, 1e-9)
	require.InDelta(t, 0.6, snap.BDI.BDI, 1e-9) // (10+5)/25 groundwater+subsurface share
	require.Equal(t, "high", string(snap.Confidence.Level))
}

func TestReachHydrologyUnknownTimeframe(t *testing.T) {
	mock := mustPool(t)
	svc := NewService(store.NewHydroStore(mock), store.NewReferenceCache(), nil, nil, nil)
	_, err := svc.ReachHydrology(context.Background(), 101, Timeframe("bogus"), time.Now())
	require.Error(t, err)
}

func TestSpeciesScoreUnknownSpeciesErrors(t *testing.T) {
	mock := mustPool(t)
	svc := NewService(store.NewHydroStore(mock), store.NewReferenceCache(), nil, map[string]domain.SpeciesConfig{}, nil)
	_, err := svc.SpeciesScore(context.Background(), 101, "nonexistent", TimeframeNow, time.Now())
	require.Error(t, err)
}

func TestHatchForecastSortsByLikelihoodDescending(t *testing.T) {
	mock := mustPool(t)
	validTime := time.Date(2026, 4, 15, 12, 0, 0, 0, time.UTC)
	ingestedAt := validTime.Add(time.Minute)

	nowRows := pgxmock.NewRows(hydroRecordColumns).
		AddRow(int64(1), validTime, "streamflow", ptr(50.0), "analysis", (*int)(nil), ingestedAt).
		AddRow(int64(1), validTime, "velocity", ptr(0.5), "analysis", (*int)(nil), ingestedAt)
	mock.ExpectQuery(`SELECT DISTINCT ON \(variable\)`).WillReturnRows(nowRows)

	todayRows := pgxmock.NewRows(hydroRecordColumns)
	mock.ExpectQuery(`SELECT feature_id, valid_time, variable, value, source, forecast_hour, ingested_at FROM nwm.hydro_record`).
		WillReturnRows(todayRows)

	hatches := map[string]domain.HatchConfig{
		"always_in_season": {
			ID: "always_in_season",
			Signature: domain.HydrologicSignature{
				FlowPercentileMin: 0, FlowPercentileMax: 100,
				AllowedRisingLimb: []domain.RisingLimbIntensity{domain.IntensityWeak, domain.IntensityModerate, domain.IntensityStrong},
				VelocityMinMS:     0, VelocityMaxMS: 10,
				MinBDI: 0,
			},
			Window: domain.TemporalWindow{StartDayOfYear: 1, EndDayOfYear: 366},
		},
		"never_in_season": {
			ID: "never_in_season",
			Signature: domain.HydrologicSignature{
				AllowedRisingLimb: []domain.RisingLimbIntensity{domain.IntensityWeak},
			},
			Window: domain.TemporalWindow{StartDayOfYear: 1, EndDayOfYear: 1},
		},
	}

	svc := NewService(store.NewHydroStore(mock), store.NewReferenceCache(), nil, nil, hatches)
	predictions, err := svc.HatchForecast(context.Background(), 1, validTime)
	require.NoError(t, err)
	require.Len(t, predictions, 2)
	require.GreaterOrEqual(t, predictions[0].Likelihood, predictions[1].Likelihood)
}

func ptr(v float64) *float64 { return &v }
