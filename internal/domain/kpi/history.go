package kpi

import (
	"context"
	"log/slog"

	"perfreview/internal/domain/audit"
	"perfreview/internal/domain/lifecycle"
	"perfreview/internal/requestctx"
)

// Auditor persists and reads back the transition trail of a KPI.
type Auditor interface {
	Record(ctx context.Context, tenantID string, evt audit.Event, before, after any) error
	List(ctx context.Context, tenantID, kpiID string, filter audit.Filter, limit int) ([]audit.Event, error)
}

const defaultHistoryLimit = 50

// recordTransition writes the audit event for a transition that has already
// been persisted. Failures are logged and never undo the transition.
func (s *Service) recordTransition(ctx context.Context, tenantID string, snap snapshot, actor Actor, action lifecycle.Action, next lifecycle.State, after *Review) {
	if s.Audit == nil {
		return
	}
	evt := audit.Event{
		KPIID:     snap.kpi.ID,
		ActorID:   actor.EmployeeID,
		Role:      string(actor.Role),
		Action:    string(action),
		FromStage: string(lifecycle.Derive(snap.state()).Stage),
		ToStage:   string(lifecycle.Derive(next).Stage),
		RequestID: requestctx.GetRequestID(ctx),
	}
	var before any
	if snap.review != nil {
		before = snap.review
	}
	var afterValue any
	if after != nil {
		afterValue = after
	}
	if err := s.Audit.Record(ctx, tenantID, evt, before, afterValue); err != nil {
		slog.Warn("review audit write failed", "kpiId", snap.kpi.ID, "action", action, "err", err)
	}
}

// History returns the newest transitions of a KPI to one of its participants.
func (s *Service) History(ctx context.Context, tenantID, kpiID string, actor Actor, filter audit.Filter, limit int) ([]audit.Event, error) {
	if _, err := s.load(ctx, tenantID, kpiID, actor); err != nil {
		return nil, err
	}
	if s.Audit == nil {
		return []audit.Event{}, nil
	}
	if limit <= 0 || limit > defaultHistoryLimit {
		limit = defaultHistoryLimit
	}
	return s.Audit.List(ctx, tenantID, kpiID, filter, limit)
}
