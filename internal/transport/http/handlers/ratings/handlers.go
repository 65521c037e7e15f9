package ratingshandler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfreview/internal/domain/auth"
	"perfreview/internal/domain/features"
	"perfreview/internal/domain/lifecycle"
	"perfreview/internal/domain/rating"
	"perfreview/internal/platform/metrics"
	"perfreview/internal/transport/http/api"
	"perfreview/internal/transport/http/middleware"
	"perfreview/internal/transport/http/shared"
)

// Handler exposes the rating engine and stage derivation without touching
// storage, for forms that preview results while they are being edited.
type Handler struct {
	Metrics *metrics.Collector
}

func NewHandler(collector *metrics.Collector) *Handler {
	return &Handler{Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/ratings", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermRatingsCalculate))
		r.Post("/calculate", h.handleCalculate)
		r.Post("/weights/resolve", h.handleResolveWeights)
		r.Post("/round", h.handleRound)
	})
	r.With(middleware.RequirePermission(auth.PermKPIRead)).Post("/lifecycle/stage", h.handleStage)
}

type calculateRequest struct {
	Items      []rating.Item       `json:"items"`
	Scale      []float64           `json:"scale"`
	Features   *features.Set       `json:"features"`
	PeriodType features.PeriodType `json:"periodType"`
	Rater      rating.RaterType    `json:"rater"`
}

// handleCalculate always answers 200: input problems are reported inside the
// result so live editing never breaks.
func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload calculateRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	set := features.DefaultSet()
	if payload.Features != nil {
		set = *payload.Features
	}
	result := rating.ComputeFinalRating(payload.Items, payload.Scale, set, payload.PeriodType, payload.Rater)
	h.Metrics.RecordCalculation(string(result.Method))
	if !result.OK() {
		slog.Info("rating preview degraded", "err", result.Error, "requestId", reqID)
	}
	api.Success(w, result, reqID)
}

type resolveWeightsRequest struct {
	Weights []rating.Weight `json:"weights" validate:"min=1"`
}

type resolvedWeight struct {
	Input    rating.Weight `json:"input"`
	Fraction float64       `json:"fraction"`
}

func (h *Handler) handleResolveWeights(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload resolveWeightsRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	out := make([]resolvedWeight, 0, len(payload.Weights))
	var total float64
	for _, weight := range payload.Weights {
		fraction := rating.ResolveWeight(weight)
		total += fraction
		out = append(out, resolvedWeight{Input: weight, Fraction: fraction})
	}
	api.Success(w, map[string]any{"weights": out, "total": total}, reqID)
}

type roundRequest struct {
	Values []float64 `json:"values" validate:"min=1"`
	Scale  []float64 `json:"scale" validate:"min=1"`
}

func (h *Handler) handleRound(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload roundRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	scale := rating.NewScale(payload.Scale...)
	if len(scale) == 0 {
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "scale", Reason: "must contain at least one finite rating"}})
		return
	}
	rounded := make([]float64, 0, len(payload.Values))
	for _, value := range payload.Values {
		rounded = append(rounded, rating.RoundToScale(value, scale))
	}
	api.Success(w, map[string]any{"scale": scale, "rounded": rounded}, reqID)
}

type stageRequest struct {
	KPIStatus         lifecycle.KPIStatus     `json:"kpiStatus" validate:"required"`
	ReviewStatus      *lifecycle.ReviewStatus `json:"reviewStatus"`
	SelfRatingEnabled bool                    `json:"selfRatingEnabled"`
	Viewer            lifecycle.Role          `json:"viewer" validate:"omitempty,oneof=employee manager"`
}

type StageResponse struct {
	lifecycle.Derivation
	Label   string             `json:"label"`
	Actions []lifecycle.Action `json:"actions"`
}

func NewStageResponse(derivation lifecycle.Derivation, viewer lifecycle.Role) StageResponse {
	return StageResponse{
		Derivation: derivation,
		Label:      derivation.Label(viewer),
		Actions:    derivation.ActionsFor(viewer),
	}
}

func (h *Handler) handleStage(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload stageRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	viewer := payload.Viewer
	if viewer == "" {
		viewer = lifecycle.RoleEmployee
	}
	derivation := lifecycle.DeriveReviewStage(payload.KPIStatus, payload.ReviewStatus, payload.SelfRatingEnabled)
	if derivation.Anomaly != "" {
		slog.Warn("stage derivation anomaly", "anomaly", derivation.Anomaly, "requestId", reqID)
		h.Metrics.RecordAnomaly()
	}
	api.Success(w, NewStageResponse(derivation, viewer), reqID)
}
