package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"perfreview/internal/platform/querier"
)

// Event is one completed review transition on a KPI.
type Event struct {
	ID        string          `json:"id"`
	KPIID     string          `json:"kpiId"`
	ActorID   string          `json:"actorId"`
	Role      string          `json:"role"`
	Action    string          `json:"action"`
	FromStage string          `json:"fromStage"`
	ToStage   string          `json:"toStage"`
	RequestID string          `json:"requestId,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	Before    json.RawMessage `json:"before,omitempty"`
	After     json.RawMessage `json:"after,omitempty"`
}

type Filter struct {
	Action  string
	ActorID string
}

type Service struct {
	DB querier.Querier
}

func New(db querier.Querier) *Service {
	return &Service{DB: db}
}

func (s *Service) Record(ctx context.Context, tenantID string, evt Event, before, after any) error {
	beforeJSON, err := marshalOptional(before)
	if err != nil {
		return err
	}
	afterJSON, err := marshalOptional(after)
	if err != nil {
		return err
	}

	_, err = s.DB.Exec(ctx, `
    INSERT INTO review_events (tenant_id, kpi_id, actor_id, role, action, from_stage, to_stage, before_json, after_json, request_id)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
  `, tenantID, evt.KPIID, evt.ActorID, evt.Role, evt.Action, evt.FromStage, evt.ToStage, beforeJSON, afterJSON, evt.RequestID)
	return err
}

// List returns the newest events for one KPI first.
func (s *Service) List(ctx context.Context, tenantID, kpiID string, filter Filter, limit int) ([]Event, error) {
	query, args := buildQuery(tenantID, kpiID, filter)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var evt Event
		var before, after []byte
		if err := rows.Scan(&evt.ID, &evt.KPIID, &evt.ActorID, &evt.Role, &evt.Action, &evt.FromStage, &evt.ToStage, &evt.RequestID, &evt.CreatedAt, &before, &after); err != nil {
			return nil, err
		}
		evt.Before = before
		evt.After = after
		out = append(out, evt)
	}
	return out, rows.Err()
}

func buildQuery(tenantID, kpiID string, filter Filter) (string, []any) {
	query := `SELECT id::text, kpi_id, actor_id, role, action, from_stage, to_stage, request_id, created_at, before_json, after_json
    FROM review_events WHERE tenant_id = $1 AND kpi_id = $2`
	args := []any{tenantID, kpiID}
	if filter.Action != "" {
		query += fmt.Sprintf(" AND action = $%d", len(args)+1)
		args = append(args, filter.Action)
	}
	if filter.ActorID != "" {
		query += fmt.Sprintf(" AND actor_id = $%d", len(args)+1)
		args = append(args, filter.ActorID)
	}
	return query, args
}

func marshalOptional(value any) ([]byte, error) {
	if value == nil {
		return nil, nil
	}
	return json.Marshal(value)
}
