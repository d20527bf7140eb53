package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/ngs-hydro/reach-metrics/internal/adapter/store"
	"github.com/ngs-hydro/reach-metrics/internal/query"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var hydroRecordColumns = []string{"feature_id", "valid_time", "variable", "value", "source", "forecast_hour", "ingested_at"}

func testRouter(t *testing.T) (*gin.Engine, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	svc := query.NewService(store.NewHydroStore(mock), store.NewReferenceCache(), nil, nil, nil)
	return SetupRouter(svc, mock, ""), mock
}

func TestGetHydrologyReturnsSnapshots(t *testing.T) {
	router, mock := testRouter(t)

	validTime := time.Date(2026, 5, 1, 6, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows(hydroRecordColumns).
		AddRow(int64(101), validTime, "streamflow", ptr(12.5), "analysis", (*int)(nil), validTime).
		AddRow(int64(101), validTime, "velocity", ptr(0.4), "analysis", (*int)(nil), validTime)
	mock.ExpectQuery(`SELECT DISTINCT ON \(variable\)`).WillReturnRows(rows)

	req := httptest.NewRequest(http.MethodGet, "/reach/101/hydrology?timeframe=now", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Hydrology []struct {
			FlowM3S    float64 `json:"flow_m3s"`
			Confidence struct {
				Level string `json:"level"`
			} `json:"confidence"`
		} `json:"hydrology"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Hydrology, 1)
	require.InDelta(t, 12.5, body.Hydrology[0].FlowM3S, 1e-9)
	require.Equal(t, "high", body.Hydrology[0].Confidence.Level)
}

func TestGetHydrologyRejectsBadFeatureID(t *testing.T) {
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/reach/not-a-number/hydrology", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSpeciesScoreUnknownSpeciesReturnsNotFound(t *testing.T) {
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/reach/101/species/nonexistent", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetMetadataListsTimeframesAndConfidences(t *testing.T) {
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metadata", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Timeframes  []string `json:"timeframes"`
		Confidences []string `json:"confidences"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Contains(t, body.Timeframes, "now")
	require.Contains(t, body.Confidences, "high")
}

func TestGetHealthReportsStoreReachable(t *testing.T) {
	router, mock := testRouter(t)
	mock.ExpectPing()
	mock.ExpectQuery(`SELECT product, MAX\(completed_at\)`).
		WillReturnRows(pgxmock.NewRows([]string{"product", "max"}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func ptr(v float64) *float64 { return &v }
