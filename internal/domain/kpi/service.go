package kpi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"perfreview/internal/domain/features"
	"perfreview/internal/domain/lifecycle"
	"perfreview/internal/domain/rating"
	"perfreview/internal/platform/metrics"
)

type Service struct {
	Store        StoreAPI
	Features     *features.Resolver
	Metrics      *metrics.Collector
	DefaultScale rating.Scale
	Options      lifecycle.Options
	Audit        Auditor
	Now          func() time.Time
}

func NewService(store StoreAPI, resolver *features.Resolver, collector *metrics.Collector, scale rating.Scale, opts lifecycle.Options) *Service {
	return &Service{
		Store:        store,
		Features:     resolver,
		Metrics:      collector,
		DefaultScale: scale,
		Options:      opts,
		Now:          time.Now,
	}
}

// snapshot is one KPI loaded with the inputs every operation needs.
type snapshot struct {
	kpi      KPI
	review   *Review
	features features.Snapshot
}

// priorStatus is the review status a write expects to replace. Empty means
// no review row exists yet.
func (s snapshot) priorStatus() lifecycle.ReviewStatus {
	if s.review == nil {
		return ""
	}
	return s.review.Status
}

func (s snapshot) state() lifecycle.State {
	state := lifecycle.State{KPIStatus: s.kpi.Status, SelfRatingEnabled: s.features.SelfRatingEnabled}
	if s.review != nil {
		state.Review = lifecycle.StatusPtr(s.review.Status)
	}
	return state
}

func (s *Service) load(ctx context.Context, tenantID, kpiID string, actor Actor) (snapshot, error) {
	k, err := s.Store.GetKPI(ctx, tenantID, kpiID)
	if err != nil {
		return snapshot{}, err
	}
	if !isParticipant(k, actor) {
		return snapshot{}, ErrForbidden
	}
	review, err := s.Store.GetReview(ctx, tenantID, kpiID)
	if err != nil {
		return snapshot{}, err
	}
	return snapshot{
		kpi:      k,
		review:   review,
		features: s.Features.Resolve(ctx, tenantID, k.DepartmentID, k.PeriodType),
	}, nil
}

func isParticipant(k KPI, actor Actor) bool {
	switch actor.Role {
	case lifecycle.RoleEmployee:
		return actor.EmployeeID != "" && actor.EmployeeID == k.EmployeeID
	case lifecycle.RoleManager:
		return actor.EmployeeID != "" && actor.EmployeeID == k.ManagerID
	}
	return false
}

func (s *Service) derive(snap snapshot) lifecycle.Derivation {
	derivation := lifecycle.Derive(snap.state())
	if derivation.Anomaly != "" {
		slog.Warn("kpi review state anomaly", "kpiId", snap.kpi.ID, "stage", derivation.Stage, "anomaly", derivation.Anomaly)
		s.Metrics.RecordAnomaly()
	}
	return derivation
}

func (s *Service) Detail(ctx context.Context, tenantID, kpiID string, actor Actor) (Detail, error) {
	snap, err := s.load(ctx, tenantID, kpiID, actor)
	if err != nil {
		return Detail{}, err
	}
	return Detail{KPI: snap.kpi, Review: snap.review, Features: snap.features, Stage: s.derive(snap)}, nil
}

// Scale returns the tenant's rating scale, falling back to the configured
// default when none is stored.
func (s *Service) Scale(ctx context.Context, tenantID string) (rating.Scale, error) {
	scale, err := s.Store.RatingScale(ctx, tenantID)
	if errors.Is(err, ErrNotFound) {
		return s.DefaultScale, nil
	}
	if err != nil {
		return nil, err
	}
	return scale, nil
}

// Calculate runs the rating engine over the stored items of a KPI.
func (s *Service) Calculate(ctx context.Context, tenantID, kpiID string, actor Actor, rater rating.RaterType) (rating.Result, error) {
	snap, err := s.load(ctx, tenantID, kpiID, actor)
	if err != nil {
		return rating.Result{}, err
	}
	scale, err := s.Scale(ctx, tenantID)
	if err != nil {
		return rating.Result{}, err
	}
	return s.compute(snap.kpi.Items, scale, snap.features, rater), nil
}

func (s *Service) compute(items []rating.Item, scale rating.Scale, snap features.Snapshot, rater rating.RaterType) rating.Result {
	result := rating.Compute(items, scale, snap, rater)
	s.Metrics.RecordCalculation(string(result.Method))
	if !result.OK() {
		slog.Warn("rating calculation degraded", "rater", rater, "err", result.Error)
	}
	return result
}

func (s *Service) Acknowledge(ctx context.Context, tenantID, kpiID string, actor Actor) (Detail, error) {
	snap, err := s.load(ctx, tenantID, kpiID, actor)
	if err != nil {
		return Detail{}, err
	}
	next, err := s.transition(snap, actor.Role, lifecycle.ActionAcknowledgeKPI, s.Options)
	if err != nil {
		return Detail{}, err
	}
	if err := s.Store.AcknowledgeKPI(ctx, tenantID, kpiID); err != nil {
		return Detail{}, fmt.Errorf("acknowledge kpi: %w", err)
	}
	s.recordTransition(ctx, tenantID, snap, actor, lifecycle.ActionAcknowledgeKPI, next, snap.review)
	return s.Detail(ctx, tenantID, kpiID, actor)
}

// SubmitSelfRating records the employee's ratings for every item and attaches
// the resulting final rating to the review.
func (s *Service) SubmitSelfRating(ctx context.Context, tenantID, kpiID string, actor Actor, ratings []ItemRating) (Detail, error) {
	snap, err := s.load(ctx, tenantID, kpiID, actor)
	if err != nil {
		return Detail{}, err
	}
	next, err := s.transition(snap, actor.Role, lifecycle.ActionSubmitSelfRating, s.Options)
	if err != nil {
		return Detail{}, err
	}
	scale, err := s.Scale(ctx, tenantID)
	if err != nil {
		return Detail{}, err
	}
	items, err := applyRatings(snap.kpi.Items, ratings, scale, rating.RaterEmployee)
	if err != nil {
		return Detail{}, err
	}
	result := s.compute(items, scale, snap.features, rating.RaterEmployee)
	if !result.OK() {
		return Detail{}, fmt.Errorf("%w: %s", ErrNotRateable, result.Error)
	}

	now := s.Now()
	review := s.reviewFor(snap)
	review.Status = *next.Review
	review.EmployeeRating = floatPtr(result.FinalRating)
	review.EmployeeSubmittedAt = &now
	if err := s.Store.SaveReview(ctx, tenantID, snap.priorStatus(), review, ItemUpdate{Rater: rating.RaterEmployee, Ratings: ratings}); err != nil {
		return Detail{}, fmt.Errorf("save self rating: %w", err)
	}
	s.recordTransition(ctx, tenantID, snap, actor, lifecycle.ActionSubmitSelfRating, next, &review)
	return s.Detail(ctx, tenantID, kpiID, actor)
}

func (s *Service) SubmitManagerRating(ctx context.Context, tenantID, kpiID string, actor Actor, sub ManagerSubmission) (Detail, error) {
	return s.managerSubmit(ctx, tenantID, kpiID, actor, lifecycle.ActionSubmitManagerRating, sub)
}

// InitiateReview creates a manager-led review when self-rating is disabled.
func (s *Service) InitiateReview(ctx context.Context, tenantID, kpiID string, actor Actor, sub ManagerSubmission) (Detail, error) {
	return s.managerSubmit(ctx, tenantID, kpiID, actor, lifecycle.ActionInitiateReview, sub)
}

func (s *Service) managerSubmit(ctx context.Context, tenantID, kpiID string, actor Actor, action lifecycle.Action, sub ManagerSubmission) (Detail, error) {
	snap, err := s.load(ctx, tenantID, kpiID, actor)
	if err != nil {
		return Detail{}, err
	}
	opts := s.Options
	if sub.ConfirmationRequired != nil {
		opts.ConfirmationRequired = *sub.ConfirmationRequired
	}
	next, err := s.transition(snap, actor.Role, action, opts)
	if err != nil {
		return Detail{}, err
	}
	scale, err := s.Scale(ctx, tenantID)
	if err != nil {
		return Detail{}, err
	}

	items := snap.kpi.Items
	if snap.features.Policy() == features.PolicyActualVsTarget {
		if items, err = applyActuals(items, sub.Actuals); err != nil {
			return Detail{}, err
		}
		if len(sub.Ratings) > 0 {
			if items, err = applyRatings(items, sub.Ratings, scale, rating.RaterManager); err != nil {
				return Detail{}, err
			}
		}
	} else {
		if len(sub.Actuals) > 0 {
			return Detail{}, fmt.Errorf("%w: actual values are not used by the %s policy", ErrInvalidRatings, snap.features.Policy())
		}
		if items, err = applyRatings(items, sub.Ratings, scale, rating.RaterManager); err != nil {
			return Detail{}, err
		}
	}
	result := s.compute(items, scale, snap.features, rating.RaterManager)
	if !result.OK() {
		return Detail{}, fmt.Errorf("%w: %s", ErrNotRateable, result.Error)
	}

	now := s.Now()
	review := s.reviewFor(snap)
	review.Status = *next.Review
	review.ManagerRating = floatPtr(result.FinalRating)
	review.ManagerSubmittedAt = &now
	review.RejectionReason = ""
	update := ItemUpdate{Rater: rating.RaterManager, Ratings: sub.Ratings, Actuals: sub.Actuals}
	if err := s.Store.SaveReview(ctx, tenantID, snap.priorStatus(), review, update); err != nil {
		return Detail{}, fmt.Errorf("save manager rating: %w", err)
	}
	s.recordTransition(ctx, tenantID, snap, actor, action, next, &review)
	return s.Detail(ctx, tenantID, kpiID, actor)
}

func (s *Service) Confirm(ctx context.Context, tenantID, kpiID string, actor Actor) (Detail, error) {
	snap, err := s.load(ctx, tenantID, kpiID, actor)
	if err != nil {
		return Detail{}, err
	}
	next, err := s.transition(snap, actor.Role, lifecycle.ActionConfirmReview, s.Options)
	if err != nil {
		return Detail{}, err
	}
	now := s.Now()
	review := s.reviewFor(snap)
	review.Status = *next.Review
	review.CompletedAt = &now
	if err := s.Store.SaveReview(ctx, tenantID, snap.priorStatus(), review, ItemUpdate{}); err != nil {
		return Detail{}, fmt.Errorf("confirm review: %w", err)
	}
	s.recordTransition(ctx, tenantID, snap, actor, lifecycle.ActionConfirmReview, next, &review)
	return s.Detail(ctx, tenantID, kpiID, actor)
}

func (s *Service) Reject(ctx context.Context, tenantID, kpiID string, actor Actor, reason string) (Detail, error) {
	snap, err := s.load(ctx, tenantID, kpiID, actor)
	if err != nil {
		return Detail{}, err
	}
	next, err := s.transition(snap, actor.Role, lifecycle.ActionRejectReview, s.Options)
	if err != nil {
		return Detail{}, err
	}
	review := s.reviewFor(snap)
	review.Status = *next.Review
	review.RejectionReason = reason
	if err := s.Store.SaveReview(ctx, tenantID, snap.priorStatus(), review, ItemUpdate{}); err != nil {
		return Detail{}, fmt.Errorf("reject review: %w", err)
	}
	s.recordTransition(ctx, tenantID, snap, actor, lifecycle.ActionRejectReview, next, &review)
	return s.Detail(ctx, tenantID, kpiID, actor)
}

// Stats buckets every KPI of the tenant, optionally restricted to one
// manager, through the same derivation the detail view uses.
func (s *Service) Stats(ctx context.Context, tenantID, managerID string) (lifecycle.Summary, error) {
	rows, err := s.Store.ListStates(ctx, tenantID, managerID)
	if err != nil {
		return lifecycle.Summary{}, err
	}
	type scope struct {
		department string
		period     features.PeriodType
	}
	selfRating := map[scope]bool{}
	states := make([]lifecycle.State, 0, len(rows))
	for _, row := range rows {
		key := scope{department: row.DepartmentID, period: row.PeriodType}
		enabled, ok := selfRating[key]
		if !ok {
			enabled = s.Features.Resolve(ctx, tenantID, row.DepartmentID, row.PeriodType).SelfRatingEnabled
			selfRating[key] = enabled
		}
		states = append(states, lifecycle.State{KPIStatus: row.KPIStatus, Review: row.ReviewStatus, SelfRatingEnabled: enabled})
	}
	summary := lifecycle.Summarize(states)
	if summary.Anomalies > 0 {
		slog.Warn("kpi statistics include anomalous states", "tenantId", tenantID, "anomalies", summary.Anomalies)
	}
	return summary, nil
}

func (s *Service) transition(snap snapshot, role lifecycle.Role, action lifecycle.Action, opts lifecycle.Options) (lifecycle.State, error) {
	next, err := lifecycle.Apply(snap.state(), role, action, opts)
	s.Metrics.RecordTransition(string(action), err)
	if err != nil {
		return lifecycle.State{}, err
	}
	return next, nil
}

func (s *Service) reviewFor(snap snapshot) Review {
	if snap.review != nil {
		return *snap.review
	}
	return Review{ID: uuid.NewString(), KPIID: snap.kpi.ID}
}

// applyRatings returns a copy of items with rater's ratings replaced. Every
// item must be rated exactly once with a value from scale.
func applyRatings(items []rating.Item, ratings []ItemRating, scale rating.Scale, rater rating.RaterType) ([]rating.Item, error) {
	scale = rating.NewScale(scale...)
	byID := make(map[string]float64, len(ratings))
	for _, r := range ratings {
		if _, dup := byID[r.ItemID]; dup {
			return nil, fmt.Errorf("%w: item %s rated twice", ErrInvalidRatings, r.ItemID)
		}
		if !scale.Contains(r.Rating) {
			return nil, fmt.Errorf("%w: %v is not on the rating scale", ErrInvalidRatings, r.Rating)
		}
		byID[r.ItemID] = r.Rating
	}

	out := make([]rating.Item, len(items))
	for i, item := range items {
		value, ok := byID[item.ID]
		if !ok {
			return nil, fmt.Errorf("%w: item %s is not rated", ErrInvalidRatings, item.ID)
		}
		delete(byID, item.ID)
		if rater == rating.RaterEmployee {
			item.EmployeeRating = floatPtr(value)
		} else {
			item.ManagerRating = floatPtr(value)
		}
		out[i] = item
	}
	for id := range byID {
		return nil, fmt.Errorf("%w: unknown item %s", ErrInvalidRatings, id)
	}
	return out, nil
}

// applyActuals returns a copy of items with actual values replaced. Items
// without a submitted value keep their stored one.
func applyActuals(items []rating.Item, actuals []ItemActual) ([]rating.Item, error) {
	byID := make(map[string]*float64, len(actuals))
	for _, a := range actuals {
		if a.ActualValue != nil && (math.IsNaN(*a.ActualValue) || math.IsInf(*a.ActualValue, 0)) {
			return nil, fmt.Errorf("%w: actual value for item %s is not a number", ErrInvalidRatings, a.ItemID)
		}
		byID[a.ItemID] = a.ActualValue
	}
	out := make([]rating.Item, len(items))
	for i, item := range items {
		if value, ok := byID[item.ID]; ok {
			item.ActualValue = value
			delete(byID, item.ID)
		}
		out[i] = item
	}
	for id := range byID {
		return nil, fmt.Errorf("%w: unknown item %s", ErrInvalidRatings, id)
	}
	return out, nil
}

func floatPtr(v float64) *float64 {
	return &v
}
