package store

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/ngs-hydro/reach-metrics/internal/domain"
)

func TestRefLoaderLoadFlowlinesCommitsOnSuccess(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM nhd.flowline`).WillReturnResult(pgconn.NewCommandTag("DELETE 0"))
	mock.ExpectCopyFrom(pgx.Identifier{"nhd", "flowline"}, flowlineColumns).WillReturnResult(2)
	mock.ExpectCommit()

	loader := NewRefLoader(mock)
	flowlines := []domain.Flowline{
		{FeatureID: 101, StreamName: "Willow Creek", Geometry: []domain.Point{{Lon: -120.5, Lat: 44.1}, {Lon: -120.51, Lat: 44.11}}},
	}

	n, err := loader.LoadFlowlines(context.Background(), flowlines)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefLoaderLoadMonthlyStatisticsCommitsOnSuccess(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM nhd.monthly_flow_statistics`).WillReturnResult(pgconn.NewCommandTag("DELETE 0"))
	mock.ExpectCopyFrom(pgx.Identifier{"nhd", "monthly_flow_statistics"}, monthlyStatColumns).WillReturnResult(1)
	mock.ExpectCommit()

	loader := NewRefLoader(mock)
	jan := 12.5
	janV := 0.6
	stats := []domain.MonthlyFlowStatistics{
		{FeatureID: 101, MeanFlowM3S: [13]*float64{1: &jan}, MeanVelocityMS: [13]*float64{1: &janV}},
	}

	n, err := loader.LoadMonthlyStatistics(context.Background(), stats)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFlowlineVertexRowsAdapter(t *testing.T) {
	rows := &flowlineVertexRows{flowlines: []domain.Flowline{
		{FeatureID: 1, Geometry: []domain.Point{{Lon: 1, Lat: 2}, {Lon: 3, Lat: 4}}},
		{FeatureID: 2, Geometry: []domain.Point{{Lon: 5, Lat: 6}}},
	}}
	count := 0
	for rows.Next() {
		vals, err := rows.Values()
		require.NoError(t, err)
		require.Len(t, vals, 10)
		count++
	}
	require.Equal(t, 3, count)
}

func TestMonthlyStatRowsAdapterSkipsAbsentMonths(t *testing.T) {
	jan := 1.0
	rows := &monthlyStatRows{stats: []domain.MonthlyFlowStatistics{
		{FeatureID: 1, MeanFlowM3S: [13]*float64{1: &jan}},
	}}
	count := 0
	for rows.Next() {
		vals, err := rows.Values()
		require.NoError(t, err)
		require.Equal(t, 1, vals[1])
		count++
	}
	require.Equal(t, 1, count)
}
