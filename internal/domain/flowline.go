package domain

import "fmt"

// GradientClass buckets a reach by channel slope, used by the velocity and habitat
// metrics to contextualize raw hydraulic values.
type GradientClass string

const (
	GradientPool    GradientClass = "pool"
	GradientRun     GradientClass = "run"
	GradientRiffle  GradientClass = "riffle"
	GradientCascade GradientClass = "cascade"
)

// SizeClass buckets a reach by drainage area.
type SizeClass string

const (
	SizeHeadwater   SizeClass = "headwater"
	SizeCreek       SizeClass = "creek"
	SizeSmallRiver  SizeClass = "small_river"
	SizeRiver       SizeClass = "river"
	SizeLargeRiver  SizeClass = "large_river"
)

// Point is a WGS84 (lon, lat) coordinate. Used for both Flowline geometry (one Point per
// polyline vertex) and ReachCentroid.
type Point struct {
	Lon float64
	Lat float64
}

// Flowline is the static reference record for a reach. Populated once from a geospatial
// source; immutable after bulk load.
type Flowline struct {
	FeatureID     int64
	Geometry      []Point // polyline vertices; non-empty, invariant enforced by Validate.
	StreamName    string
	DrainageAreaKM2 float64
	StreamOrder   int
	SlopePercent  float64
	MinElevationM float64
	MaxElevationM float64
}

// Validate enforces the Flowline invariants of §3: geometry must be present, and
// max_elevation_m must not be below min_elevation_m.
func (f Flowline) Validate() error {
	if len(f.Geometry) == 0 {
		return fmt.Errorf("flowline %d: geometry must be non-empty", f.FeatureID)
	}
	if f.MaxElevationM < f.MinElevationM {
		return fmt.Errorf("flowline %d: max_elevation_m (%.1f) below min_elevation_m (%.1f)",
			f.FeatureID, f.MaxElevationM, f.MinElevationM)
	}
	return nil
}

// GradientClass derives the reach's gradient class deterministically from slope. The
// thresholds below are expressed in percent slope and mirror the conventional
// pool/run/riffle/cascade breakpoints used in stream habitat classification: a
// reach shallower than 0.5% is impounded/low-energy ("pool"), up to 2% is a typical
// "run", up to 4% is riffle habitat, and anything steeper is cascade/step-pool.
func (f Flowline) GradientClass() GradientClass {
	switch {
	case f.SlopePercent < 0.5:
		return GradientPool
	case f.SlopePercent < 2.0:
		return GradientRun
	case f.SlopePercent < 4.0:
		return GradientRiffle
	default:
		return GradientCascade
	}
}

// SizeClass derives the reach's size class deterministically from drainage area, using
// the conventional stream-order-adjacent breakpoints (km²): headwater < 10, creek < 100,
// small river < 1000, river < 10000, else large river.
func (f Flowline) SizeClass() SizeClass {
	switch {
	case f.DrainageAreaKM2 < 10:
		return SizeHeadwater
	case f.DrainageAreaKM2 < 100:
		return SizeCreek
	case f.DrainageAreaKM2 < 1000:
		return SizeSmallRiver
	case f.DrainageAreaKM2 < 10000:
		return SizeRiver
	default:
		return SizeLargeRiver
	}
}

// Centroid returns the arithmetic mean of the flowline's vertices, a cheap approximation
// of a true geometric centroid used as the reach's weather probe point — fine for the
// short, roughly-uniform-length segments a reach represents.
func (f Flowline) Centroid() Point {
	if len(f.Geometry) == 0 {
		return Point{}
	}
	var sumLon, sumLat float64
	for _, p := range f.Geometry {
		sumLon += p.Lon
		sumLat += p.Lat
	}
	n := float64(len(f.Geometry))
	return Point{Lon: sumLon / n, Lat: sumLat / n}
}

// ReachCentroid is the derived feature_id -> (lat, lon) reference used as the probe
// location for external weather inputs. Stored separately from Flowline so that the
// weather adapter does not need to pull full geometry.
type ReachCentroid struct {
	FeatureID int64
	Point     Point
}
