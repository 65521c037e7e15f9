package kpi

import (
	"time"

	"perfreview/internal/domain/features"
	"perfreview/internal/domain/lifecycle"
	"perfreview/internal/domain/rating"
)

type KPI struct {
	ID             string              `json:"id"`
	EmployeeID     string              `json:"employeeId"`
	ManagerID      string              `json:"managerId"`
	DepartmentID   string              `json:"departmentId,omitempty"`
	Title          string              `json:"title"`
	PeriodType     features.PeriodType `json:"periodType"`
	Status         lifecycle.KPIStatus `json:"status"`
	AcknowledgedAt *time.Time          `json:"acknowledgedAt,omitempty"`
	Items          []rating.Item       `json:"items"`
	CreatedAt      time.Time           `json:"createdAt"`
}

type Review struct {
	ID                  string                 `json:"id"`
	KPIID               string                 `json:"kpiId"`
	Status              lifecycle.ReviewStatus `json:"status"`
	EmployeeRating      *float64               `json:"employeeRating,omitempty"`
	ManagerRating       *float64               `json:"managerRating,omitempty"`
	EmployeeSubmittedAt *time.Time             `json:"employeeSubmittedAt,omitempty"`
	ManagerSubmittedAt  *time.Time             `json:"managerSubmittedAt,omitempty"`
	CompletedAt         *time.Time             `json:"completedAt,omitempty"`
	RejectionReason     string                 `json:"rejectionReason,omitempty"`
}

// Detail is a KPI together with everything needed to render it.
type Detail struct {
	KPI      KPI                  `json:"kpi"`
	Review   *Review              `json:"review,omitempty"`
	Features features.Snapshot    `json:"features"`
	Stage    lifecycle.Derivation `json:"stage"`
}

// Actor is the participant performing a lifecycle action.
type Actor struct {
	EmployeeID string
	Role       lifecycle.Role
}

type ItemRating struct {
	ItemID string  `json:"itemId" validate:"required"`
	Rating float64 `json:"rating"`
}

type ItemActual struct {
	ItemID      string   `json:"itemId" validate:"required"`
	ActualValue *float64 `json:"actualValue"`
}

// ManagerSubmission carries a manager's ratings and, for actual-vs-target
// KPIs, the measured values.
type ManagerSubmission struct {
	Ratings              []ItemRating
	Actuals              []ItemActual
	ConfirmationRequired *bool
}

// ItemUpdate is what the store writes back to kpi_items on a submission.
type ItemUpdate struct {
	Rater   rating.RaterType
	Ratings []ItemRating
	Actuals []ItemActual
}

// StateRow is the minimal projection used for bucket statistics.
type StateRow struct {
	KPIID        string
	DepartmentID string
	PeriodType   features.PeriodType
	KPIStatus    lifecycle.KPIStatus
	ReviewStatus *lifecycle.ReviewStatus
}
