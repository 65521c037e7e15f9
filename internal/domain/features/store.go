package features

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"perfreview/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) DepartmentFlags(ctx context.Context, tenantID, departmentID string, period PeriodType) (Flags, error) {
	return s.loadFlags(ctx, `
    SELECT use_goal_weight, use_actual_values, enable_employee_self_rating
    FROM feature_settings
    WHERE tenant_id = $1 AND department_id = $2 AND period_type = $3
  `, tenantID, departmentID, string(period))
}

func (s *Store) CompanyFlags(ctx context.Context, tenantID string, period PeriodType) (Flags, error) {
	return s.loadFlags(ctx, `
    SELECT use_goal_weight, use_actual_values, enable_employee_self_rating
    FROM feature_settings
    WHERE tenant_id = $1 AND department_id IS NULL AND period_type = $2
  `, tenantID, string(period))
}

func (s *Store) UpsertFeatures(ctx context.Context, tenantID, departmentID string, period PeriodType, flags Flags) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO feature_settings (tenant_id, department_id, period_type, use_goal_weight, use_actual_values, enable_employee_self_rating)
    VALUES ($1,$2,$3,$4,$5,$6)
    ON CONFLICT (tenant_id, (COALESCE(department_id, '')), period_type) DO UPDATE
    SET use_goal_weight = EXCLUDED.use_goal_weight,
        use_actual_values = EXCLUDED.use_actual_values,
        enable_employee_self_rating = EXCLUDED.enable_employee_self_rating,
        updated_at = now()
  `, tenantID, nullIfEmpty(departmentID), string(period), flags.UseGoalWeight, flags.UseActualValues, flags.EnableEmployeeSelfRating)
	return err
}

func (s *Store) loadFlags(ctx context.Context, query string, args ...any) (Flags, error) {
	var flags Flags
	err := s.DB.QueryRow(ctx, query, args...).Scan(&flags.UseGoalWeight, &flags.UseActualValues, &flags.EnableEmployeeSelfRating)
	if errors.Is(err, pgx.ErrNoRows) {
		return Flags{}, ErrNotConfigured
	}
	if err != nil {
		return Flags{}, err
	}
	return flags, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
