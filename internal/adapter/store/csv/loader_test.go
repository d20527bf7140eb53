package csv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngs-hydro/reach-metrics/internal/domain"
)

func writeCSV(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestFlowlineStoreLoadGroupsVerticesByFeature(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "flowlines.csv", ""+
		"feature_id,stream_name,drainage_area_km2,stream_order,slope_percent,min_elevation_m,max_elevation_m,vertex_order,lon,lat\n"+
		"101,Willow Creek,8.2,1,1.1,410.0,460.0,0,-120.5,44.1\n"+
		"101,Willow Creek,8.2,1,1.1,410.0,460.0,1,-120.51,44.11\n"+
		"102,Big River,1500.0,4,0.2,90.0,120.0,0,-121.0,45.0\n",
	)

	flowlines, err := NewFlowlineStore(path).Load()
	require.NoError(t, err)
	require.Len(t, flowlines, 2)

	assert.Equal(t, int64(101), flowlines[0].FeatureID)
	assert.Equal(t, "Willow Creek", flowlines[0].StreamName)
	require.Len(t, flowlines[0].Geometry, 2)
	assert.Equal(t, domain.Point{Lon: -120.5, Lat: 44.1}, flowlines[0].Geometry[0])
	assert.Equal(t, domain.Point{Lon: -120.51, Lat: 44.11}, flowlines[0].Geometry[1])

	assert.Equal(t, int64(102), flowlines[1].FeatureID)
	require.Len(t, flowlines[1].Geometry, 1)
}

func TestFlowlineStoreLoadRejectsBadHeader(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "flowlines.csv", "feature_id,lon,lat\n101,-120.5,44.1\n")

	_, err := NewFlowlineStore(path).Load()
	require.Error(t, err)
}

func TestFlowlineStoreLoadRejectsInvertedElevation(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "flowlines.csv", ""+
		"feature_id,stream_name,drainage_area_km2,stream_order,slope_percent,min_elevation_m,max_elevation_m,vertex_order,lon,lat\n"+
		"101,Willow Creek,8.2,1,1.1,500.0,400.0,0,-120.5,44.1\n",
	)

	_, err := NewFlowlineStore(path).Load()
	require.Error(t, err)
}

func TestMonthlyStatsStoreLoadConvertsCFS(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "stats.csv", ""+
		"feature_id,month,mean_flow_m3s,mean_velocity_ms\n"+
		"101,1,35.3147,0.5\n"+
		"101,2,70.6294,0.6\n",
	)

	stats, err := NewMonthlyStatsStore(path, domain.UnitCFS).Load()
	require.NoError(t, err)
	require.Len(t, stats, 1)

	jan, ok := stats[0].MeanFlowForMonth(1)
	require.True(t, ok)
	assert.InDelta(t, 1.0, jan, 1e-4)

	feb, ok := stats[0].MeanFlowForMonth(2)
	require.True(t, ok)
	assert.InDelta(t, 2.0, feb, 1e-4)
}

func TestMonthlyStatsStoreLoadSIPassesThrough(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "stats.csv", ""+
		"feature_id,month,mean_flow_m3s,mean_velocity_ms\n"+
		"101,1,12.5,0.6\n",
	)

	stats, err := NewMonthlyStatsStore(path, domain.UnitSI).Load()
	require.NoError(t, err)
	require.Len(t, stats, 1)

	jan, ok := stats[0].MeanFlowForMonth(1)
	require.True(t, ok)
	assert.InDelta(t, 12.5, jan, 1e-9)
}

func TestMonthlyStatsStoreLoadRejectsMonthOutOfRange(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "stats.csv", ""+
		"feature_id,month,mean_flow_m3s,mean_velocity_ms\n"+
		"101,13,12.5,0.6\n",
	)

	_, err := NewMonthlyStatsStore(path, domain.UnitSI).Load()
	require.Error(t, err)
}
