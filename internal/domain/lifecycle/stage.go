package lifecycle

import "fmt"

// State is everything the review stage depends on. Review is nil until a
// review exists for the KPI.
type State struct {
	KPIStatus         KPIStatus     `json:"kpiStatus"`
	Review            *ReviewStatus `json:"reviewStatus,omitempty"`
	SelfRatingEnabled bool          `json:"selfRatingEnabled"`
}

// Derivation is the single answer every dashboard, detail page and report
// uses for "where is this KPI".
type Derivation struct {
	Stage            Stage             `json:"stage"`
	Bucket           Bucket            `json:"bucket,omitempty"`
	Terminal         bool              `json:"terminal"`
	PermittedActions map[Role][]Action `json:"permittedActions"`
	// Anomaly describes a record combination that should not exist upstream.
	Anomaly string `json:"anomaly,omitempty"`
}

// Label is the human-facing stage name as seen by viewer.
func (d Derivation) Label(viewer Role) string {
	return d.Stage.Label(viewer)
}

// ActionsFor returns the actions role may take, never nil.
func (d Derivation) ActionsFor(role Role) []Action {
	if actions, ok := d.PermittedActions[role]; ok {
		return actions
	}
	return []Action{}
}

var stageLabels = map[Stage]string{
	StageAwaitingAcknowledgement: "Awaiting Acknowledgement",
	StageManagerWillInitiate:     "Manager Will Initiate Review",
	StageReviewPendingAction:     "Review Pending – Action Required",
	StageSelfRatingRequired:      "Self-Rating Required",
	StageSelfRatingSubmitted:     "Self-Rating Submitted – Awaiting Manager Review",
	StageManagerRatingSubmitted:  "Manager Rating Submitted",
	StageReviewCompleted:         "Review Completed",
	StageReviewRejected:          "Review Rejected",
	StageInProgress:              "In Progress",
}

func (s Stage) Label(viewer Role) string {
	if s == StageManagerRatingSubmitted && viewer == RoleEmployee {
		return "Awaiting Your Confirmation"
	}
	if label, ok := stageLabels[s]; ok {
		return label
	}
	return stageLabels[StageInProgress]
}

var stageBuckets = map[Stage]Bucket{
	StageAwaitingAcknowledgement: BucketPending,
	StageManagerWillInitiate:     BucketAcknowledgedReviewPending,
	StageReviewPendingAction:     BucketAcknowledgedReviewPending,
	StageSelfRatingRequired:      BucketReviewPending,
	StageSelfRatingSubmitted:     BucketSelfRatingSubmitted,
	StageManagerRatingSubmitted:  BucketAwaitingEmployeeConfirmation,
	StageReviewCompleted:         BucketReviewCompleted,
	StageReviewRejected:          BucketReviewRejected,
}

func (s Stage) Bucket() Bucket {
	return stageBuckets[s]
}

// DeriveReviewStage is Derive for callers holding the three raw inputs.
func DeriveReviewStage(kpiStatus KPIStatus, review *ReviewStatus, selfRatingEnabled bool) Derivation {
	return Derive(State{KPIStatus: kpiStatus, Review: review, SelfRatingEnabled: selfRatingEnabled})
}

// Derive maps a State to its stage, statistics bucket and permitted actions.
// Rules are checked in order and the first match wins.
func Derive(state State) Derivation {
	stage, anomaly := classify(state)
	return Derivation{
		Stage:            stage,
		Bucket:           stage.Bucket(),
		Terminal:         stage == StageReviewCompleted,
		PermittedActions: permittedActions(state, stage, anomaly),
		Anomaly:          anomaly,
	}
}

func classify(state State) (Stage, string) {
	switch state.KPIStatus {
	case KPIStatusPending:
		// An unacknowledged KPI wins over whatever review data is attached.
		if state.Review != nil {
			return StageAwaitingAcknowledgement, fmt.Sprintf("review in status %q attached to unacknowledged kpi", *state.Review)
		}
		return StageAwaitingAcknowledgement, ""
	case KPIStatusAcknowledged:
	default:
		return StageInProgress, fmt.Sprintf("unknown kpi status %q", state.KPIStatus)
	}

	if state.Review == nil {
		if !state.SelfRatingEnabled {
			return StageManagerWillInitiate, ""
		}
		return StageReviewPendingAction, ""
	}

	switch *state.Review {
	case ReviewStatusPending:
		return StageSelfRatingRequired, ""
	case ReviewStatusEmployeeSubmitted:
		return StageSelfRatingSubmitted, ""
	case ReviewStatusManagerSubmitted, ReviewStatusAwaitingEmployeeConfirmation:
		return StageManagerRatingSubmitted, ""
	case ReviewStatusCompleted:
		return StageReviewCompleted, ""
	case ReviewStatusRejected:
		return StageReviewRejected, ""
	}
	return StageInProgress, fmt.Sprintf("unknown review status %q", *state.Review)
}
