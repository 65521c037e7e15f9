package db

import (
	"context"
	"encoding/json"
	"errors"

	"perfreview/internal/domain/features"
	"perfreview/internal/platform/config"
	"perfreview/internal/platform/querier"
)

// Seed gives tenantID a rating scale and company-wide feature settings
// taken from the review defaults. Existing rows are left alone.
func Seed(ctx context.Context, db querier.Querier, tenantID string, review config.ReviewConfig) error {
	if tenantID == "" {
		return errors.New("seed tenant id is required")
	}
	if err := ensureRatingScale(ctx, db, tenantID, review.Scale()); err != nil {
		return err
	}
	return ensureCompanyFeatures(ctx, db, tenantID, review.DefaultFeatures)
}

func ensureRatingScale(ctx context.Context, db querier.Querier, tenantID string, scale []float64) error {
	options, err := json.Marshal(scale)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, `
    INSERT INTO rating_scales (tenant_id, options_json)
    VALUES ($1, $2)
    ON CONFLICT (tenant_id) DO NOTHING
  `, tenantID, string(options))
	return err
}

func ensureCompanyFeatures(ctx context.Context, db querier.Querier, tenantID string, set features.Set) error {
	periods := map[features.PeriodType]features.Flags{
		features.PeriodQuarterly: set.Quarterly,
		features.PeriodYearly:    set.Yearly,
	}
	for period, flags := range periods {
		_, err := db.Exec(ctx, `
      INSERT INTO feature_settings (tenant_id, department_id, period_type, use_goal_weight, use_actual_values, enable_employee_self_rating)
      VALUES ($1, NULL, $2, $3, $4, $5)
      ON CONFLICT (tenant_id, (COALESCE(department_id, '')), period_type) DO NOTHING
    `, tenantID, string(period), flags.UseGoalWeight, flags.UseActualValues, flags.EnableEmployeeSelfRating)
		if err != nil {
			return err
		}
	}
	return nil
}
