package lifecycle

type KPIStatus string

const (
	KPIStatusPending      KPIStatus = "pending"
	KPIStatusAcknowledged KPIStatus = "acknowledged"
)

type ReviewStatus string

const (
	ReviewStatusPending                      ReviewStatus = "pending"
	ReviewStatusEmployeeSubmitted            ReviewStatus = "employee_submitted"
	ReviewStatusManagerSubmitted             ReviewStatus = "manager_submitted"
	ReviewStatusAwaitingEmployeeConfirmation ReviewStatus = "awaiting_employee_confirmation"
	ReviewStatusCompleted                    ReviewStatus = "completed"
	ReviewStatusRejected                     ReviewStatus = "rejected"
)

// StatusPtr returns a pointer to a copy of status, for building States.
func StatusPtr(status ReviewStatus) *ReviewStatus {
	return &status
}

type Stage string

const (
	StageAwaitingAcknowledgement Stage = "awaiting_acknowledgement"
	StageManagerWillInitiate     Stage = "manager_will_initiate_review"
	StageReviewPendingAction     Stage = "review_pending_action_required"
	StageSelfRatingRequired      Stage = "self_rating_required"
	StageSelfRatingSubmitted     Stage = "self_rating_submitted"
	StageManagerRatingSubmitted  Stage = "manager_rating_submitted"
	StageReviewCompleted         Stage = "review_completed"
	StageReviewRejected          Stage = "review_rejected"
	StageInProgress              Stage = "in_progress"
)

type Bucket string

const (
	BucketNone                         Bucket = ""
	BucketPending                      Bucket = "pending"
	BucketAcknowledgedReviewPending    Bucket = "acknowledged_review_pending"
	BucketReviewPending                Bucket = "review_pending"
	BucketSelfRatingSubmitted          Bucket = "self_rating_submitted"
	BucketAwaitingEmployeeConfirmation Bucket = "awaiting_employee_confirmation"
	BucketReviewCompleted              Bucket = "review_completed"
	BucketReviewRejected               Bucket = "review_rejected"
)

// Buckets lists every statistics bucket in dashboard order.
var Buckets = []Bucket{
	BucketPending,
	BucketAcknowledgedReviewPending,
	BucketReviewPending,
	BucketSelfRatingSubmitted,
	BucketAwaitingEmployeeConfirmation,
	BucketReviewCompleted,
	BucketReviewRejected,
}

type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
)

type Action string

const (
	ActionAcknowledgeKPI      Action = "acknowledge_kpi"
	ActionSubmitSelfRating    Action = "submit_self_rating"
	ActionSubmitManagerRating Action = "submit_manager_rating"
	ActionInitiateReview      Action = "initiate_review"
	ActionConfirmReview       Action = "confirm_review"
	ActionRejectReview        Action = "reject_review"
)

func ParseKPIStatus(raw string) (KPIStatus, bool) {
	switch status := KPIStatus(raw); status {
	case KPIStatusPending, KPIStatusAcknowledged:
		return status, true
	}
	return "", false
}

func ParseReviewStatus(raw string) (ReviewStatus, bool) {
	switch status := ReviewStatus(raw); status {
	case ReviewStatusPending, ReviewStatusEmployeeSubmitted, ReviewStatusManagerSubmitted,
		ReviewStatusAwaitingEmployeeConfirmation, ReviewStatusCompleted, ReviewStatusRejected:
		return status, true
	}
	return "", false
}

func ParseRole(raw string) (Role, bool) {
	switch role := Role(raw); role {
	case RoleEmployee, RoleManager:
		return role, true
	}
	return "", false
}
