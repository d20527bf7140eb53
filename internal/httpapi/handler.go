package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ngs-hydro/reach-metrics/internal/adapter/store"
	"github.com/ngs-hydro/reach-metrics/internal/query"
	"github.com/ngs-hydro/reach-metrics/internal/scoring"
)

// Handler handles HTTP requests for reach hydrology, species, and hatch reads.
type Handler struct {
	svc  *query.Service
	pool store.PgxIface
}

// NewHandler creates a new HTTP handler.
func NewHandler(svc *query.Service, pool store.PgxIface) *Handler {
	return &Handler{svc: svc, pool: pool}
}

// confidenceDTO is the §6 confidence token shape shared by every read.
type confidenceDTO struct {
	Level     string `json:"level"`
	Reasoning string `json:"reasoning"`
}

// hydrologySnapshotDTO is the §6 hydrology read shape: `{flow_m3s, velocity_m_s, bdi,
// flow_percentile, confidence:{level,reasoning}, timestamp}`.
type hydrologySnapshotDTO struct {
	Timestamp      string        `json:"timestamp"`
	FlowM3S        *float64      `json:"flow_m3s"`
	VelocityMS     *float64      `json:"velocity_m_s"`
	BDI            float64       `json:"bdi"`
	FlowPercentile *float64      `json:"flow_percentile"`
	FlowCategory   string        `json:"flow_category"`
	Confidence     confidenceDTO `json:"confidence"`
}

func confidenceDTOFrom(level, reasoning string) confidenceDTO {
	return confidenceDTO{Level: level, Reasoning: reasoning}
}

func hydrologySnapshotDTOFrom(s query.HydrologySnapshot) hydrologySnapshotDTO {
	return hydrologySnapshotDTO{
		Timestamp:      s.Timestamp.UTC().Format(time.RFC3339),
		FlowM3S:        s.FlowM3S,
		VelocityMS:     s.VelocityMS,
		BDI:            s.BDI.BDI,
		FlowPercentile: s.FlowPercentile.Percentile,
		FlowCategory:   string(s.FlowPercentile.Category),
		Confidence:     confidenceDTOFrom(string(s.Confidence.Level), s.Confidence.Reasoning),
	}
}

// GetHydrology handles GET /reach/:feature_id/hydrology.
func (h *Handler) GetHydrology(c *gin.Context) {
	featureID, err := parseFeatureID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	timeframe := query.Timeframe(c.DefaultQuery("timeframe", string(query.TimeframeNow)))
	asOf, err := parseAsOf(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snapshots, err := h.svc.ReachHydrology(c.Request.Context(), featureID, timeframe, asOf)
	if err != nil {
		respondQueryError(c, err)
		return
	}

	dtos := make([]hydrologySnapshotDTO, len(snapshots))
	for i, s := range snapshots {
		dtos[i] = hydrologySnapshotDTOFrom(s)
	}
	c.JSON(http.StatusOK, gin.H{"feature_id": featureID, "timeframe": timeframe, "hydrology": dtos})
}

// habitatScoreDTO mirrors scoring.HabitatScore for §4.7.1's species score payload.
type habitatScoreDTO struct {
	FlowScore      float64       `json:"flow_score"`
	VelocityScore  float64       `json:"velocity_score"`
	ThermalScore   float64       `json:"thermal_score"`
	StabilityScore float64       `json:"stability_score"`
	Overall        float64       `json:"overall"`
	Rating         string        `json:"rating"`
	Confidence     confidenceDTO `json:"confidence"`
	Explanation    string        `json:"explanation"`
}

func habitatScoreDTOFrom(s scoring.HabitatScore) habitatScoreDTO {
	return habitatScoreDTO{
		FlowScore:      s.FlowScore,
		VelocityScore:  s.VelocityScore,
		ThermalScore:   s.ThermalScore,
		StabilityScore: s.StabilityScore,
		Overall:        s.Overall,
		Rating:         string(s.Rating),
		Confidence:     confidenceDTOFrom(string(s.Confidence.Level), s.Confidence.Reasoning),
		Explanation:    s.Explanation,
	}
}

// GetSpeciesScore handles GET /reach/:feature_id/species/:species_id.
func (h *Handler) GetSpeciesScore(c *gin.Context) {
	featureID, err := parseFeatureID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	speciesID := c.Param("species_id")

	timeframe := query.Timeframe(c.DefaultQuery("timeframe", string(query.TimeframeNow)))
	asOf, err := parseAsOf(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	score, err := h.svc.SpeciesScore(c.Request.Context(), featureID, speciesID, timeframe, asOf)
	if err != nil {
		respondQueryError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"feature_id": featureID, "species_id": speciesID, "score": habitatScoreDTOFrom(score)})
}

// hatchSignatureMatchDTO mirrors scoring.HatchSignatureMatch.
type hatchSignatureMatchDTO struct {
	FlowPercentile bool `json:"flow_percentile"`
	RisingLimb     bool `json:"rising_limb"`
	Velocity       bool `json:"velocity"`
	BDI            bool `json:"bdi"`
}

// hatchPredictionDTO mirrors scoring.HatchPrediction for §4.7.2's hatch forecast payload.
type hatchPredictionDTO struct {
	HatchID     string                 `json:"hatch_id"`
	InSeason    bool                   `json:"in_season"`
	Likelihood  float64                `json:"likelihood"`
	Rating      string                 `json:"rating"`
	Match       hatchSignatureMatchDTO `json:"match"`
	Explanation string                 `json:"explanation"`
}

func hatchPredictionDTOFrom(p scoring.HatchPrediction) hatchPredictionDTO {
	return hatchPredictionDTO{
		HatchID:    p.HatchID,
		InSeason:   p.InSeason,
		Likelihood: p.Likelihood,
		Rating:     string(p.Rating),
		Match: hatchSignatureMatchDTO{
			FlowPercentile: p.Match.FlowPercentile,
			RisingLimb:     p.Match.RisingLimb,
			Velocity:       p.Match.Velocity,
			BDI:            p.Match.BDI,
		},
		Explanation: p.Explanation,
	}
}

// GetHatchForecast handles GET /reach/:feature_id/hatches.
func (h *Handler) GetHatchForecast(c *gin.Context) {
	featureID, err := parseFeatureID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	date := time.Now().UTC()
	if dateStr := c.Query("date"); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date (expected YYYY-MM-DD): " + err.Error()})
			return
		}
		date = parsed
	}

	predictions, err := h.svc.HatchForecast(c.Request.Context(), featureID, date)
	if err != nil {
		respondQueryError(c, err)
		return
	}

	dtos := make([]hatchPredictionDTO, len(predictions))
	for i, p := range predictions {
		dtos[i] = hatchPredictionDTOFrom(p)
	}
	c.JSON(http.StatusOK, gin.H{"feature_id": featureID, "date": date.Format("2006-01-02"), "hatches": dtos})
}

// GetMetadata handles GET /metadata.
func (h *Handler) GetMetadata(c *gin.Context) {
	meta := h.svc.Metadata()
	timeframes := make([]string, len(meta.Timeframes))
	for i, t := range meta.Timeframes {
		timeframes[i] = string(t)
	}
	confidences := make([]string, len(meta.Confidences))
	for i, lvl := range meta.Confidences {
		confidences[i] = string(lvl)
	}
	c.JSON(http.StatusOK, gin.H{
		"species":     meta.Species,
		"hatches":     meta.Hatches,
		"timeframes":  timeframes,
		"confidences": confidences,
	})
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(c *gin.Context) {
	status, err := h.svc.Health(c.Request.Context(), h.pool)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if !status.StoreReachable {
		c.JSON(http.StatusServiceUnavailable, gin.H{"store_reachable": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"store_reachable":        true,
		"last_successful_ingest": status.LastSuccessfulIngest,
	})
}

func parseFeatureID(c *gin.Context) (int64, error) {
	raw := c.Param("feature_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.New("invalid feature_id: " + raw)
	}
	return id, nil
}

func parseAsOf(c *gin.Context) (time.Time, error) {
	raw := c.Query("as_of")
	if raw == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errors.New("invalid as_of (expected RFC3339): " + err.Error())
	}
	return t.UTC(), nil
}

// respondQueryError maps a query-layer error to the §6 status code contract: 404 for
// unknown feature/species, 400 for malformed input, 503 otherwise.
func respondQueryError(c *gin.Context, err error) {
	msg := err.Error()
	switch {
	case containsAny(msg, "unknown species", "no hydrology data for reach"):
		c.JSON(http.StatusNotFound, gin.H{"error": msg})
	case containsAny(msg, "unknown timeframe"):
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": msg})
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
