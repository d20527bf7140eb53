// Package csv loads the static reference tables - flowline geometry and monthly flow
// statistics - from flat CSV extracts of a geospatial/hydrologic source, for bulk insert
// by cmd/refload. This is the one-time/out-of-band load path; ReferenceCache.Load reads
// the already-populated nhd.flowline / nhd.monthly_flow_statistics tables at startup.
package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ngs-hydro/reach-metrics/internal/domain"
)

// FlowlineStore provides access to flowline reference data from a CSV extract: one row
// per polyline vertex, grouped by feature_id in vertex_order.
type FlowlineStore struct {
	path string
}

// NewFlowlineStore creates a new CSV-based flowline store.
func NewFlowlineStore(path string) *FlowlineStore {
	return &FlowlineStore{path: path}
}

var flowlineHeader = []string{
	"feature_id", "stream_name", "drainage_area_km2", "stream_order",
	"slope_percent", "min_elevation_m", "max_elevation_m", "vertex_order", "lon", "lat",
}

// Load reads the full flowline extract into memory, in file order.
func (s *FlowlineStore) Load() ([]domain.Flowline, error) {
	//nolint:gosec // G304: File path is operator-supplied configuration, not untrusted input.
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open flowline CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	// Read header.
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	// Validate header.
	if len(header) != len(flowlineHeader) {
		return nil, fmt.Errorf("invalid CSV header: expected %v, got %v", flowlineHeader, header)
	}
	for i, h := range header {
		if strings.TrimSpace(h) != flowlineHeader[i] {
			return nil, fmt.Errorf("invalid CSV header: expected column %d to be %s, got %s", i, flowlineHeader[i], h)
		}
	}

	// Read data rows, accumulating vertices per feature_id.
	order := make([]int64, 0)
	byID := make(map[int64]*domain.Flowline)

	for {
		record, err := reader.Read()
		if err != nil {
			// EOF is expected.
			if err.Error() == "EOF" {
				break
			}
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		if len(record) != len(flowlineHeader) {
			return nil, fmt.Errorf("invalid CSV record: expected %d columns, got %d", len(flowlineHeader), len(record))
		}

		featureID, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid feature_id %q: %w", record[0], err)
		}

		f, ok := byID[featureID]
		if !ok {
			drainageArea, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid drainage_area_km2 for feature %d: %w", featureID, err)
			}
			streamOrder, err := strconv.Atoi(strings.TrimSpace(record[3]))
			if err != nil {
				return nil, fmt.Errorf("invalid stream_order for feature %d: %w", featureID, err)
			}
			slope, err := strconv.ParseFloat(strings.TrimSpace(record[4]), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid slope_percent for feature %d: %w", featureID, err)
			}
			minElev, err := strconv.ParseFloat(strings.TrimSpace(record[5]), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid min_elevation_m for feature %d: %w", featureID, err)
			}
			maxElev, err := strconv.ParseFloat(strings.TrimSpace(record[6]), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid max_elevation_m for feature %d: %w", featureID, err)
			}
			f = &domain.Flowline{
				FeatureID:       featureID,
				StreamName:      strings.TrimSpace(record[1]),
				DrainageAreaKM2: drainageArea,
				StreamOrder:     streamOrder,
				SlopePercent:    slope,
				MinElevationM:   minElev,
				MaxElevationM:   maxElev,
			}
			byID[featureID] = f
			order = append(order, featureID)
		}

		lon, err := strconv.ParseFloat(strings.TrimSpace(record[8]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid lon for feature %d: %w", featureID, err)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(record[9]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid lat for feature %d: %w", featureID, err)
		}
		f.Geometry = append(f.Geometry, domain.Point{Lon: lon, Lat: lat})
	}

	if len(order) == 0 {
		return nil, fmt.Errorf("no flowlines found in CSV file %s", s.path)
	}

	flowlines := make([]domain.Flowline, 0, len(order))
	for _, id := range order {
		f := *byID[id]
		if err := f.Validate(); err != nil {
			return nil, err
		}
		flowlines = append(flowlines, f)
	}
	return flowlines, nil
}

// MonthlyStatsStore provides access to monthly flow statistics from a CSV extract, one
// row per (feature_id, month).
type MonthlyStatsStore struct {
	path string
	unit domain.SourceUnit
}

// NewMonthlyStatsStore creates a new CSV-based monthly statistics store. unit declares
// the convention the source values are published in; CFS values are converted to SI on
// load, since the loader must not guess a reach's unit silently.
func NewMonthlyStatsStore(path string, unit domain.SourceUnit) *MonthlyStatsStore {
	return &MonthlyStatsStore{path: path, unit: unit}
}

var monthlyStatsHeader = []string{"feature_id", "month", "mean_flow_m3s", "mean_velocity_ms"}

// Load reads the full monthly statistics extract into memory, in file order.
func (s *MonthlyStatsStore) Load() ([]domain.MonthlyFlowStatistics, error) {
	//nolint:gosec // G304: File path is operator-supplied configuration, not untrusted input.
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open monthly statistics CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) != len(monthlyStatsHeader) {
		return nil, fmt.Errorf("invalid CSV header: expected %v, got %v", monthlyStatsHeader, header)
	}
	for i, h := range header {
		if strings.TrimSpace(h) != monthlyStatsHeader[i] {
			return nil, fmt.Errorf("invalid CSV header: expected column %d to be %s, got %s", i, monthlyStatsHeader[i], h)
		}
	}

	order := make([]int64, 0)
	byID := make(map[int64]*domain.MonthlyFlowStatistics)

	for {
		record, err := reader.Read()
		if err != nil {
			if err.Error() == "EOF" {
				break
			}
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		if len(record) != len(monthlyStatsHeader) {
			return nil, fmt.Errorf("invalid CSV record: expected %d columns, got %d", len(monthlyStatsHeader), len(record))
		}

		featureID, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid feature_id %q: %w", record[0], err)
		}
		month, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid month for feature %d: %w", featureID, err)
		}
		if month < 1 || month > 12 {
			return nil, fmt.Errorf("month %d out of range for feature %d", month, featureID)
		}

		rawFlow, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid mean_flow_m3s for feature %d: %w", featureID, err)
		}
		meanFlow, err := domain.ConvertFlowToSI(rawFlow, s.unit)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", featureID, err)
		}
		meanVelocity, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid mean_velocity_ms for feature %d: %w", featureID, err)
		}

		stat, ok := byID[featureID]
		if !ok {
			stat = &domain.MonthlyFlowStatistics{FeatureID: featureID}
			byID[featureID] = stat
			order = append(order, featureID)
		}
		stat.MeanFlowM3S[month] = &meanFlow
		stat.MeanVelocityMS[month] = &meanVelocity
	}

	stats := make([]domain.MonthlyFlowStatistics, 0, len(order))
	for _, id := range order {
		stats = append(stats, *byID[id])
	}
	return stats, nil
}
