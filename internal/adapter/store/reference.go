package store

import (
	"context"
	"fmt"

	"github.com/ngs-hydro/reach-metrics/internal/domain"
)

// ReferenceCache holds the static reference tables (flowline geometry and monthly flow
// statistics) the MetricsEngine joins HydroRecords against. It is loaded once at startup
// by the commands that serve or ingest (cmd/refload only writes these tables) and treated as immutable for the life of the process - per
// spec §4.6, reference data changes out of band from the ingestion pipeline.
type ReferenceCache struct {
	flowlines map[int64]domain.Flowline
	stats     map[int64]domain.MonthlyFlowStatistics
}

// NewReferenceCache builds an empty cache; use Load to populate it from the store.
func NewReferenceCache() *ReferenceCache {
	return &ReferenceCache{
		flowlines: make(map[int64]domain.Flowline),
		stats:     make(map[int64]domain.MonthlyFlowStatistics),
	}
}

// Flowline looks up a reach's static geometry/attributes by feature_id.
func (c *ReferenceCache) Flowline(featureID int64) (domain.Flowline, bool) {
	f, ok := c.flowlines[featureID]
	return f, ok
}

// MonthlyStatistics looks up a reach's historical monthly flow/velocity means.
func (c *ReferenceCache) MonthlyStatistics(featureID int64) (domain.MonthlyFlowStatistics, bool) {
	s, ok := c.stats[featureID]
	return s, ok
}

// Contains implements validate.DomainSet: a feature_id belongs to the declared domain
// iff it has a known flowline.
func (c *ReferenceCache) Contains(featureID int64) bool {
	_, ok := c.flowlines[featureID]
	return ok
}

// Len reports the number of flowlines loaded, used as the Validator's expected count.
func (c *ReferenceCache) Len() int { return len(c.flowlines) }

// Load reads every row of nhd.flowline and nhd.monthly_flow_statistics into memory.
func (c *ReferenceCache) Load(ctx context.Context, pool PgxIface) error {
	rows, err := pool.Query(ctx, `
		SELECT feature_id, stream_name, drainage_area_km2, stream_order, slope_percent,
		       min_elevation_m, max_elevation_m, geometry_lon, geometry_lat
		FROM nhd.flowline
		ORDER BY feature_id, vertex_order
	`)
	if err != nil {
		return fmt.Errorf("store: querying flowlines: %w", err)
	}
	defer rows.Close()

	flowlines := make(map[int64]domain.Flowline)
	for rows.Next() {
		var featureID int64
		var streamName string
		var drainageAreaKM2, slopePercent, minElevationM, maxElevationM, lon, lat float64
		var streamOrder int
		if err := rows.Scan(&featureID, &streamName, &drainageAreaKM2, &streamOrder,
			&slopePercent, &minElevationM, &maxElevationM, &lon, &lat); err != nil {
			return fmt.Errorf("store: scanning flowline row: %w", err)
		}
		f, ok := flowlines[featureID]
		if !ok {
			f = domain.Flowline{
				FeatureID:       featureID,
				StreamName:      streamName,
				DrainageAreaKM2: drainageAreaKM2,
				StreamOrder:     streamOrder,
				SlopePercent:    slopePercent,
				MinElevationM:   minElevationM,
				MaxElevationM:   maxElevationM,
			}
		}
		f.Geometry = append(f.Geometry, domain.Point{Lon: lon, Lat: lat})
		flowlines[featureID] = f
	}
	for id, f := range flowlines {
		c.flowlines[id] = f
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("store: iterating flowlines: %w", err)
	}

	statRows, err := pool.Query(ctx, `
		SELECT feature_id, month, mean_flow_m3s, mean_velocity_ms
		FROM nhd.monthly_flow_statistics
	`)
	if err != nil {
		return fmt.Errorf("store: querying monthly flow statistics: %w", err)
	}
	defer statRows.Close()

	for statRows.Next() {
		var featureID int64
		var month int
		var meanFlow, meanVelocity *float64
		if err := statRows.Scan(&featureID, &month, &meanFlow, &meanVelocity); err != nil {
			return fmt.Errorf("store: scanning monthly flow statistics row: %w", err)
		}
		s, ok := c.stats[featureID]
		if !ok {
			s = domain.MonthlyFlowStatistics{FeatureID: featureID}
		}
		if month >= 1 && month <= 12 {
			s.MeanFlowM3S[month] = meanFlow
			s.MeanVelocityMS[month] = meanVelocity
		}
		c.stats[featureID] = s
	}
	if err := statRows.Err(); err != nil {
		return fmt.Errorf("store: iterating monthly flow statistics: %w", err)
	}

	return nil
}
