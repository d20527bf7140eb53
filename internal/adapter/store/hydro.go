package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ngs-hydro/reach-metrics/internal/domain"
)

// HydroStore reads nwm.hydro_record for the internal time-alias views of §4.4: now,
// today, outlook, no_assim. These names are internal only; they are never part of the
// wire contract.
type HydroStore struct {
	pool PgxIface
}

func NewHydroStore(pool PgxIface) *HydroStore {
	return &HydroStore{pool: pool}
}

func (s *HydroStore) query(ctx context.Context, sql string, args ...any) ([]domain.HydroRecord, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("store: querying hydro records: %w", err)
	}
	defer rows.Close()

	var out []domain.HydroRecord
	for rows.Next() {
		var r domain.HydroRecord
		var variable, source string
		if err := rows.Scan(&r.FeatureID, &r.ValidTime, &variable, &r.Value, &source, &r.ForecastHour, &r.IngestedAt); err != nil {
			return nil, fmt.Errorf("store: scanning hydro record: %w", err)
		}
		r.Variable = domain.Variable(variable)
		r.Source = domain.Source(source)
		out = append(out, r)
	}
	return out, rows.Err()
}

const selectColumns = `feature_id, valid_time, variable, value, source, forecast_hour, ingested_at`

// Now returns the latest analysis valid_time <= asOf for the given reach.
func (s *HydroStore) Now(ctx context.Context, featureID int64, asOf time.Time) ([]domain.HydroRecord, error) {
	sql := fmt.Sprintf(`
		SELECT DISTINCT ON (variable) %s
		FROM nwm.hydro_record
		WHERE feature_id = $1 AND source = $2 AND valid_time <= $3
		ORDER BY variable, valid_time DESC
	`, selectColumns)
	return s.query(ctx, sql, featureID, string(domain.SourceAnalysis), asOf.UTC())
}

// Today returns short_forecast records with valid_time in (asOf, asOf+18h].
func (s *HydroStore) Today(ctx context.Context, featureID int64, asOf time.Time) ([]domain.HydroRecord, error) {
	sql := fmt.Sprintf(`
		SELECT %s FROM nwm.hydro_record
		WHERE feature_id = $1 AND source = $2 AND valid_time > $3 AND valid_time <= $4
		ORDER BY valid_time ASC
	`, selectColumns)
	return s.query(ctx, sql, featureID, string(domain.SourceShortForecast), asOf.UTC(), asOf.UTC().Add(18*time.Hour))
}

// Outlook returns medium_forecast_blend records with valid_time in (asOf, asOf+10d].
func (s *HydroStore) Outlook(ctx context.Context, featureID int64, asOf time.Time) ([]domain.HydroRecord, error) {
	sql := fmt.Sprintf(`
		SELECT %s FROM nwm.hydro_record
		WHERE feature_id = $1 AND source = $2 AND valid_time > $3 AND valid_time <= $4
		ORDER BY valid_time ASC
	`, selectColumns)
	return s.query(ctx, sql, featureID, string(domain.SourceMediumForecastBlend), asOf.UTC(), asOf.UTC().AddDate(0, 0, 10))
}

// NoAssim returns the latest analysis_no_assim valid_time <= asOf for the given reach.
// Internal only, per §4.4 - never surfaced to external clients.
func (s *HydroStore) NoAssim(ctx context.Context, featureID int64, asOf time.Time) ([]domain.HydroRecord, error) {
	sql := fmt.Sprintf(`
		SELECT DISTINCT ON (variable) %s
		FROM nwm.hydro_record
		WHERE feature_id = $1 AND source = $2 AND valid_time <= $3
		ORDER BY variable, valid_time DESC
	`, selectColumns)
	return s.query(ctx, sql, featureID, string(domain.SourceAnalysisNoAssim), asOf.UTC())
}
