package metrics

// BDICategory classifies the baseflow dominance index into a coarse descriptive band.
type BDICategory string

const (
	CategoryGroundwaterFed BDICategory = "groundwater_fed"
	CategoryStormDominated BDICategory = "storm_dominated"
	CategoryMixed          BDICategory = "mixed"
	CategoryUndefined      BDICategory = "undefined"
)

// BDIResult is the Baseflow Dominance Index of §4.6.2.
type BDIResult struct {
	BDI      float64
	Category BDICategory
}

// ComputeBDI combines surface, shallow-subsurface, and deep-groundwater flow components
// at a reach into a baseflow dominance index in [0, 1].
func ComputeBDI(qSurface, qSubsurface, qGroundwater float64) BDIResult {
	total := qSurface + qSubsurface + qGroundwater
	if total <= 0 {
		return BDIResult{BDI: 0, Category: CategoryUndefined}
	}

	bdi := (qSubsurface + qGroundwater) / total
	if bdi < 0 {
		bdi = 0
	} else if bdi > 1 {
		bdi = 1
	}

	var category BDICategory
	switch {
	case bdi >= 0.65:
		category = CategoryGroundwaterFed
	case bdi < 0.35:
		category = CategoryStormDominated
	default:
		category = CategoryMixed
	}

	return BDIResult{BDI: bdi, Category: category}
}
