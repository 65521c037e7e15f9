package kpi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"perfreview/internal/domain/features"
	"perfreview/internal/domain/lifecycle"
	"perfreview/internal/domain/rating"
)

var ratingColumns = map[rating.RaterType]string{
	rating.RaterEmployee: "employee_rating",
	rating.RaterManager:  "manager_rating",
}

func (s *Store) GetKPI(ctx context.Context, tenantID, kpiID string) (KPI, error) {
	var out KPI
	var period, status string
	if err := s.DB.QueryRow(ctx, `
    SELECT id, employee_id, manager_id, COALESCE(department_id, ''), title, period_type, status, acknowledged_at, created_at
    FROM kpis
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, kpiID).Scan(&out.ID, &out.EmployeeID, &out.ManagerID, &out.DepartmentID, &out.Title, &period, &status, &out.AcknowledgedAt, &out.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return KPI{}, ErrNotFound
		}
		return KPI{}, err
	}
	out.PeriodType = features.PeriodType(period)
	out.Status = lifecycle.KPIStatus(status)

	items, err := s.listItems(ctx, out.ID)
	if err != nil {
		return KPI{}, err
	}
	out.Items = items
	return out, nil
}

func (s *Store) listItems(ctx context.Context, kpiID string) ([]rating.Item, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, title, goal_weight, employee_rating, manager_rating, actual_value, target_value
    FROM kpi_items
    WHERE kpi_id = $1
    ORDER BY position, id
  `, kpiID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []rating.Item{}
	for rows.Next() {
		var item rating.Item
		var weight *string
		if err := rows.Scan(&item.ID, &item.Title, &weight, &item.EmployeeRating, &item.ManagerRating, &item.ActualValue, &item.TargetValue); err != nil {
			return nil, err
		}
		item.GoalWeight = rating.ParseStoredWeight(weight)
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Store) GetReview(ctx context.Context, tenantID, kpiID string) (*Review, error) {
	var review Review
	var status string
	if err := s.DB.QueryRow(ctx, `
    SELECT id, kpi_id, status, employee_rating, manager_rating, employee_submitted_at, manager_submitted_at, completed_at, rejection_reason
    FROM kpi_reviews
    WHERE tenant_id = $1 AND kpi_id = $2
  `, tenantID, kpiID).Scan(&review.ID, &review.KPIID, &status, &review.EmployeeRating, &review.ManagerRating, &review.EmployeeSubmittedAt, &review.ManagerSubmittedAt, &review.CompletedAt, &review.RejectionReason); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	review.Status = lifecycle.ReviewStatus(status)
	return &review, nil
}

// RatingScale returns ErrNotFound when the tenant has no custom scale. A
// stored but empty scale is returned as is.
func (s *Store) RatingScale(ctx context.Context, tenantID string) (rating.Scale, error) {
	var optionsJSON []byte
	if err := s.DB.QueryRow(ctx, `
    SELECT options_json FROM rating_scales WHERE tenant_id = $1
  `, tenantID).Scan(&optionsJSON); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var options []float64
	if err := json.Unmarshal(optionsJSON, &options); err != nil {
		return nil, fmt.Errorf("decode rating scale: %w", err)
	}
	return rating.NewScale(options...), nil
}

func (s *Store) AcknowledgeKPI(ctx context.Context, tenantID, kpiID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE kpis
    SET status = $1, acknowledged_at = now()
    WHERE tenant_id = $2 AND id = $3 AND status = $4
  `, string(lifecycle.KPIStatusAcknowledged), tenantID, kpiID, string(lifecycle.KPIStatusPending))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return lifecycle.ErrActionNotPermitted
	}
	return nil
}

const insertReview = `
    INSERT INTO kpi_reviews (id, tenant_id, kpi_id, status, employee_rating, manager_rating, employee_submitted_at, manager_submitted_at, completed_at, rejection_reason)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
  `

// SaveReview writes item ratings and the review row in one transaction. The
// row is only written while its status still equals expected, or while no row
// exists when expected is empty; otherwise nothing is persisted and
// lifecycle.ErrActionNotPermitted is returned.
func (s *Store) SaveReview(ctx context.Context, tenantID string, expected lifecycle.ReviewStatus, review Review, update ItemUpdate) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if len(update.Ratings) > 0 {
		column, ok := ratingColumns[update.Rater]
		if !ok {
			return fmt.Errorf("unknown rater %q", update.Rater)
		}
		for _, r := range update.Ratings {
			if _, err := tx.Exec(ctx, "UPDATE kpi_items SET "+column+" = $1 WHERE kpi_id = $2 AND id = $3", r.Rating, review.KPIID, r.ItemID); err != nil {
				return err
			}
		}
	}
	for _, a := range update.Actuals {
		if _, err := tx.Exec(ctx, "UPDATE kpi_items SET actual_value = $1 WHERE kpi_id = $2 AND id = $3", a.ActualValue, review.KPIID, a.ItemID); err != nil {
			return err
		}
	}

	args := []any{review.ID, tenantID, review.KPIID, string(review.Status), review.EmployeeRating, review.ManagerRating, review.EmployeeSubmittedAt, review.ManagerSubmittedAt, review.CompletedAt, review.RejectionReason}
	query := insertReview + " ON CONFLICT (kpi_id) DO NOTHING"
	if expected != "" {
		query = insertReview + `
    ON CONFLICT (kpi_id) DO UPDATE
    SET status = EXCLUDED.status,
        employee_rating = EXCLUDED.employee_rating,
        manager_rating = EXCLUDED.manager_rating,
        employee_submitted_at = EXCLUDED.employee_submitted_at,
        manager_submitted_at = EXCLUDED.manager_submitted_at,
        completed_at = EXCLUDED.completed_at,
        rejection_reason = EXCLUDED.rejection_reason,
        updated_at = now()
    WHERE kpi_reviews.status = $11
  `
		args = append(args, string(expected))
	}
	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: review changed concurrently", lifecycle.ErrActionNotPermitted)
	}

	return tx.Commit(ctx)
}

func (s *Store) ListStates(ctx context.Context, tenantID, managerID string) ([]StateRow, error) {
	query := `
    SELECT k.id, COALESCE(k.department_id, ''), k.period_type, k.status, r.status
    FROM kpis k
    LEFT JOIN kpi_reviews r ON r.kpi_id = k.id
    WHERE k.tenant_id = $1
  `
	args := []any{tenantID}
	if managerID != "" {
		query += " AND k.manager_id = $2"
		args = append(args, managerID)
	}
	query += " ORDER BY k.created_at DESC"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StateRow
	for rows.Next() {
		var row StateRow
		var period, kpiStatus string
		var reviewStatus *string
		if err := rows.Scan(&row.KPIID, &row.DepartmentID, &period, &kpiStatus, &reviewStatus); err != nil {
			return nil, err
		}
		row.PeriodType = features.PeriodType(period)
		row.KPIStatus = lifecycle.KPIStatus(kpiStatus)
		if reviewStatus != nil {
			row.ReviewStatus = lifecycle.StatusPtr(lifecycle.ReviewStatus(*reviewStatus))
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
