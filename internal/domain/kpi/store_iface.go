package kpi

import (
	"context"

	"perfreview/internal/domain/lifecycle"
	"perfreview/internal/domain/rating"
)

type StoreAPI interface {
	GetKPI(ctx context.Context, tenantID, kpiID string) (KPI, error)
	GetReview(ctx context.Context, tenantID, kpiID string) (*Review, error)
	RatingScale(ctx context.Context, tenantID string) (rating.Scale, error)
	AcknowledgeKPI(ctx context.Context, tenantID, kpiID string) error
	SaveReview(ctx context.Context, tenantID string, expected lifecycle.ReviewStatus, review Review, update ItemUpdate) error
	ListStates(ctx context.Context, tenantID, managerID string) ([]StateRow, error)
}
