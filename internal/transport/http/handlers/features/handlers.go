package featureshandler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfreview/internal/domain/auth"
	"perfreview/internal/domain/features"
	"perfreview/internal/transport/http/api"
	"perfreview/internal/transport/http/middleware"
	"perfreview/internal/transport/http/shared"
)

type Writer interface {
	UpsertFeatures(ctx context.Context, tenantID, departmentID string, period features.PeriodType, flags features.Flags) error
}

type Handler struct {
	Resolver *features.Resolver
	Store    Writer
}

func NewHandler(resolver *features.Resolver, store Writer) *Handler {
	return &Handler{Resolver: resolver, Store: store}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermFeaturesRead)).Get("/features", h.handleResolve)
	r.With(middleware.RequirePermission(auth.PermFeaturesWrite)).Put("/features", h.handleUpsert)
}

var periodTypes = []string{string(features.PeriodQuarterly), string(features.PeriodYearly)}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	period := r.URL.Query().Get("periodType")
	v := shared.NewValidator()
	if period == "" {
		v.Add("periodType", "is required")
	}
	v.Enum("periodType", period, periodTypes, "must be quarterly or yearly")
	if v.Reject(w, reqID) {
		return
	}
	snapshot := h.Resolver.Resolve(r.Context(), user.TenantID, r.URL.Query().Get("departmentId"), features.PeriodType(period))
	api.Success(w, map[string]any{"snapshot": snapshot, "policy": snapshot.Policy()}, reqID)
}

type upsertRequest struct {
	DepartmentID string         `json:"departmentId"`
	PeriodType   string         `json:"periodType" validate:"required,oneof=quarterly yearly"`
	Flags        features.Flags `json:"flags"`
}

func (h *Handler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	var payload upsertRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	period := features.PeriodType(payload.PeriodType)
	if err := h.Store.UpsertFeatures(r.Context(), user.TenantID, payload.DepartmentID, period, payload.Flags); err != nil {
		slog.Error("feature upsert failed", "err", err, "tenantId", user.TenantID, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "features_update_failed", "failed to update features", reqID)
		return
	}
	slog.Info("features updated", "tenantId", user.TenantID, "departmentId", payload.DepartmentID, "periodType", period, "userId", user.UserID)
	snapshot := h.Resolver.Resolve(r.Context(), user.TenantID, payload.DepartmentID, period)
	api.Success(w, map[string]any{"snapshot": snapshot, "policy": snapshot.Policy()}, reqID)
}
