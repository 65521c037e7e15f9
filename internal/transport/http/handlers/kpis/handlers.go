package kpishandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"perfreview/internal/domain/audit"
	"perfreview/internal/domain/auth"
	"perfreview/internal/domain/kpi"
	"perfreview/internal/domain/lifecycle"
	"perfreview/internal/domain/rating"
	"perfreview/internal/transport/http/api"
	ratingshandler "perfreview/internal/transport/http/handlers/ratings"
	"perfreview/internal/transport/http/middleware"
	"perfreview/internal/transport/http/shared"
)

type Handler struct {
	Service *kpi.Service
}

func NewHandler(service *kpi.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/kpis", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermKPIStatsRead)).Get("/stats", h.handleStats)
		r.Route("/{kpiID}", func(r chi.Router) {
			r.Use(middleware.RequirePermission(auth.PermKPIRead))
			r.Get("/", h.handleGet)
			r.Get("/rating", h.handleRating)
			r.Get("/history", h.handleHistory)
			r.Post("/acknowledge", h.handleAcknowledge)
			r.Post("/self-rating", h.handleSelfRating)
			r.Post("/confirm", h.handleConfirm)
			r.Post("/reject", h.handleReject)
			r.With(middleware.RequirePermission(auth.PermKPIReview)).Post("/manager-rating", h.handleManagerRating)
			r.With(middleware.RequirePermission(auth.PermKPIReview)).Post("/initiate-review", h.handleInitiateReview)
		})
	})
}

type detailResponse struct {
	kpi.Detail
	View ratingshandler.StageResponse `json:"view"`
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, detail kpi.Detail, viewer lifecycle.Role) {
	api.Success(w, detailResponse{Detail: detail, View: ratingshandler.NewStageResponse(detail.Stage, viewer)}, middleware.GetRequestID(r.Context()))
}

func actorFrom(r *http.Request, role lifecycle.Role) (auth.UserContext, kpi.Actor, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		return auth.UserContext{}, kpi.Actor{}, false
	}
	return user, kpi.Actor{EmployeeID: user.EmployeeID, Role: role}, true
}

// viewerRole picks the participant role for read endpoints. The "as" query
// parameter wins; otherwise managers view as managers.
func viewerRole(r *http.Request, user auth.UserContext) (lifecycle.Role, bool) {
	if raw := r.URL.Query().Get("as"); raw != "" {
		return lifecycle.ParseRole(raw)
	}
	if user.Role == auth.RoleManager {
		return lifecycle.RoleManager, true
	}
	return lifecycle.RoleEmployee, true
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	role, ok := viewerRole(r, user)
	if !ok {
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "as", Reason: "must be employee or manager"}})
		return
	}
	detail, err := h.Service.Detail(r.Context(), user.TenantID, chi.URLParam(r, "kpiID"), kpi.Actor{EmployeeID: user.EmployeeID, Role: role})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, r, detail, role)
}

func (h *Handler) handleRating(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	role, ok := viewerRole(r, user)
	if !ok {
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "as", Reason: "must be employee or manager"}})
		return
	}
	rater := rating.RaterType(r.URL.Query().Get("rater"))
	if rater == "" {
		rater = rating.RaterType(role)
	}
	v := shared.NewValidator()
	v.Enum("rater", string(rater), []string{string(rating.RaterEmployee), string(rating.RaterManager)}, "must be employee or manager")
	if v.Reject(w, reqID) {
		return
	}
	result, err := h.Service.Calculate(r.Context(), user.TenantID, chi.URLParam(r, "kpiID"), kpi.Actor{EmployeeID: user.EmployeeID, Role: role}, rater)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, result, reqID)
}

func (h *Handler) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	user, actor, ok := actorFrom(r, lifecycle.RoleEmployee)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	detail, err := h.Service.Acknowledge(r.Context(), user.TenantID, chi.URLParam(r, "kpiID"), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, r, detail, actor.Role)
}

type selfRatingRequest struct {
	Ratings []kpi.ItemRating `json:"ratings" validate:"min=1,dive"`
}

func (h *Handler) handleSelfRating(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, actor, ok := actorFrom(r, lifecycle.RoleEmployee)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	var payload selfRatingRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	detail, err := h.Service.SubmitSelfRating(r.Context(), user.TenantID, chi.URLParam(r, "kpiID"), actor, payload.Ratings)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, r, detail, actor.Role)
}

type managerRatingRequest struct {
	Ratings              []kpi.ItemRating `json:"ratings" validate:"dive"`
	Actuals              []kpi.ItemActual `json:"actuals" validate:"dive"`
	ConfirmationRequired *bool            `json:"confirmationRequired"`
}

func (h *Handler) handleManagerRating(w http.ResponseWriter, r *http.Request) {
	h.managerSubmission(w, r, h.Service.SubmitManagerRating)
}

func (h *Handler) handleInitiateReview(w http.ResponseWriter, r *http.Request) {
	h.managerSubmission(w, r, h.Service.InitiateReview)
}

type submitFunc func(ctx context.Context, tenantID, kpiID string, actor kpi.Actor, sub kpi.ManagerSubmission) (kpi.Detail, error)

func (h *Handler) managerSubmission(w http.ResponseWriter, r *http.Request, submit submitFunc) {
	reqID := middleware.GetRequestID(r.Context())
	user, actor, ok := actorFrom(r, lifecycle.RoleManager)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	var payload managerRatingRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	if len(payload.Ratings) == 0 && len(payload.Actuals) == 0 {
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "ratings", Reason: "ratings or actuals are required"}})
		return
	}
	detail, err := submit(r.Context(), user.TenantID, chi.URLParam(r, "kpiID"), actor, kpi.ManagerSubmission{
		Ratings:              payload.Ratings,
		Actuals:              payload.Actuals,
		ConfirmationRequired: payload.ConfirmationRequired,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, r, detail, actor.Role)
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	user, actor, ok := actorFrom(r, lifecycle.RoleEmployee)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	detail, err := h.Service.Confirm(r.Context(), user.TenantID, chi.URLParam(r, "kpiID"), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, r, detail, actor.Role)
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"max=2000"`
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, actor, ok := actorFrom(r, lifecycle.RoleEmployee)
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	var payload rejectRequest
	if r.ContentLength != 0 && !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	detail, err := h.Service.Reject(r.Context(), user.TenantID, chi.URLParam(r, "kpiID"), actor, payload.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.respond(w, r, detail, actor.Role)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	role, ok := viewerRole(r, user)
	if !ok {
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "as", Reason: "must be employee or manager"}})
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "limit", Reason: "must be a positive integer"}})
			return
		}
		limit = parsed
	}
	filter := audit.Filter{Action: r.URL.Query().Get("action")}
	events, err := h.Service.History(r.Context(), user.TenantID, chi.URLParam(r, "kpiID"), kpi.Actor{EmployeeID: user.EmployeeID, Role: role}, filter, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, events, reqID)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	managerID := r.URL.Query().Get("managerId")
	if user.Role == auth.RoleManager {
		if managerID != "" && managerID != user.EmployeeID {
			api.Fail(w, http.StatusForbidden, "forbidden", "managers can only view their own team", reqID)
			return
		}
		managerID = user.EmployeeID
	}
	summary, err := h.Service.Stats(r.Context(), user.TenantID, managerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, summary, reqID)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, kpi.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "kpi_not_found", "kpi not found", reqID)
	case errors.Is(err, kpi.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "not a participant of this kpi", reqID)
	case errors.Is(err, lifecycle.ErrTerminal):
		api.Fail(w, http.StatusConflict, "review_completed", "review is already completed", reqID)
	case errors.Is(err, lifecycle.ErrActionNotPermitted):
		api.Fail(w, http.StatusConflict, "action_not_permitted", err.Error(), reqID)
	case errors.Is(err, kpi.ErrInvalidRatings):
		api.Fail(w, http.StatusBadRequest, "invalid_ratings", err.Error(), reqID)
	case errors.Is(err, kpi.ErrNotRateable):
		api.Fail(w, http.StatusUnprocessableEntity, "not_rateable", err.Error(), reqID)
	default:
		slog.Error("kpi request failed", "err", err, "path", r.URL.Path, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "kpi_request_failed", "request failed", reqID)
	}
}
