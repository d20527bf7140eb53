// Package parse implements the Parser: decoding raw NWM-style NetCDF forecast artifacts
// into tabular (feature_id, variable, value) frames. The decode machinery - candidate
// variable name search, fill-value detection, typed-array reads - is adapted from the
// FES/GEBCO grid loaders, generalized from a 2D lat/lon grid to a 1D feature_id axis.
package parse

import (
	"fmt"
	"os"

	"github.com/fhs/go-netcdf/netcdf"

	"github.com/ngs-hydro/reach-metrics/internal/domain"
)

// variableCandidates maps a canonical domain.Variable to the NetCDF variable names NWM
// output files use for it across product generations.
var variableCandidates = map[domain.Variable][]string{
	domain.VariableStreamflow:   {"streamflow", "qSfcLatRunoff", "q_streamflow"},
	domain.VariableVelocity:     {"velocity", "velocity_m_s"},
	domain.VariableNudge:        {"nudge", "qBtmVertRunoff"},
	domain.VariableQSurface:     {"q_surface", "qSfcLatRunoff"},
	domain.VariableQSubsurface:  {"q_subsurface", "qBucket"},
	domain.VariableQGroundwater: {"q_groundwater", "qBtmVertRunoff"},
}

var featureIDCandidates = []string{"feature_id", "station_id", "link"}

// Sample is one decoded (feature, variable, value) observation, prior to domain/source
// tagging - the Normalizer attaches valid_time/source/forecast_hour to produce a
// domain.HydroRecord.
type Sample struct {
	FeatureID int64
	Variable  domain.Variable
	Value     *float64 // nil if the raw value matched the file's fill/missing sentinel.
}

// Frame is the full set of decoded samples from one artifact.
type Frame struct {
	Samples []Sample
}

// ParseFile opens a NetCDF artifact on disk and decodes every requested variable into a
// Frame. Variables absent from the file are silently skipped rather than erroring - a
// product's file need not carry every variable the schema defines.
//
// Units are never sniffed from file attributes: spec §9 resolves the CFS/SI open
// question by requiring an explicit per-source unit tag supplied by configuration
// (domain.SourceUnit, applied by the Normalizer via domain.ConvertFlowToSI), since
// NetCDF "units" attributes are written inconsistently across product generations and
// guessing from them would silently reintroduce the ambiguity the spec calls out.
func ParseFile(path string, wantVars []domain.Variable) (*Frame, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("parse: artifact not found: %w", err)
	}

	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("parse: opening NetCDF file: %w", err)
	}
	defer func() { _ = nc.Close() }()

	featureIDs, err := readFeatureIDs(nc)
	if err != nil {
		return nil, fmt.Errorf("parse: reading feature_id axis: %w", err)
	}

	frame := &Frame{}

	for _, want := range wantVars {
		names, ok := variableCandidates[want]
		if !ok {
			continue
		}
		v, found := findVar(nc, names)
		if !found {
			continue
		}

		values, err := readFloat64Var(v)
		if err != nil {
			return nil, fmt.Errorf("parse: reading variable %s: %w", want, err)
		}
		if len(values) != len(featureIDs) {
			return nil, fmt.Errorf("parse: variable %s has %d values, feature_id axis has %d", want, len(values), len(featureIDs))
		}

		fill, hasFill := getFillValue(v)

		for i, raw := range values {
			sample := Sample{FeatureID: featureIDs[i], Variable: want}
			if hasFill && raw == fill {
				frame.Samples = append(frame.Samples, sample)
				continue
			}
			val := raw
			sample.Value = &val
			frame.Samples = append(frame.Samples, sample)
		}
	}

	return frame, nil
}

func readFeatureIDs(nc netcdf.Dataset) ([]int64, error) {
	for _, name := range featureIDCandidates {
		v, err := nc.Var(name)
		if err != nil {
			continue
		}
		floats, err := readFloat64Var(v)
		if err != nil {
			continue
		}
		ids := make([]int64, len(floats))
		for i, f := range floats {
			ids[i] = int64(f)
		}
		return ids, nil
	}
	return nil, fmt.Errorf("feature_id variable not found (tried: %v)", featureIDCandidates)
}

func findVar(nc netcdf.Dataset, names []string) (netcdf.Var, bool) {
	for _, name := range names {
		if v, err := nc.Var(name); err == nil {
			return v, true
		}
	}
	return netcdf.Var{}, false
}

// getFillValue returns the _FillValue or missing_value attribute if present as float64.
func getFillValue(v netcdf.Var) (float64, bool) {
	for _, name := range []string{"_FillValue", "missing_value"} {
		a := v.Attr(name)
		if a == (netcdf.Attr{}) {
			continue
		}
		if n, err := a.Len(); err == nil && n > 0 {
			buf64 := make([]float64, 1)
			if err := a.ReadFloat64s(buf64); err == nil {
				return buf64[0], true
			}
			buf32 := make([]float32, 1)
			if err := a.ReadFloat32s(buf32); err == nil {
				return float64(buf32[0]), true
			}
			bufi := make([]int32, 1)
			if err := a.ReadInt32s(bufi); err == nil {
				return float64(bufi[0]), true
			}
		}
	}
	return 0, false
}

// readFloat64Var reads a 1D variable of any common NetCDF numeric type as float64.
func readFloat64Var(v netcdf.Var) ([]float64, error) {
	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions: %w", err)
	}
	if len(dims) != 1 {
		return nil, fmt.Errorf("expected 1D variable, got %dD", len(dims))
	}

	length, err := dims[0].Len()
	if err != nil {
		return nil, err
	}

	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get var type: %w", err)
	}
	switch t {
	case netcdf.DOUBLE:
		data := make([]float64, length)
		if err := v.ReadFloat64s(data); err != nil {
			return nil, err
		}
		return data, nil
	case netcdf.FLOAT:
		tmp := make([]float32, length)
		if err := v.ReadFloat32s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, length)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	case netcdf.INT:
		tmp := make([]int32, length)
		if err := v.ReadInt32s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, length)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	case netcdf.SHORT:
		tmp := make([]int16, length)
		if err := v.ReadInt16s(tmp); err != nil {
			return nil, err
		}
		out := make([]float64, length)
		for i, val := range tmp {
			out[i] = float64(val)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported var type: %v", t)
	}
}
