package lifecycle

import (
	"errors"
	"testing"
)

func TestApplySelfRatedFlow(t *testing.T) {
	opts := DefaultOptions()
	state := State{KPIStatus: KPIStatusPending, SelfRatingEnabled: true}
	steps := []struct {
		role   Role
		action Action
		stage  Stage
	}{
		{RoleEmployee, ActionAcknowledgeKPI, StageReviewPendingAction},
		{RoleEmployee, ActionSubmitSelfRating, StageSelfRatingSubmitted},
		{RoleManager, ActionSubmitManagerRating, StageManagerRatingSubmitted},
		{RoleEmployee, ActionRejectReview, StageReviewRejected},
		{RoleEmployee, ActionSubmitSelfRating, StageSelfRatingSubmitted},
		{RoleManager, ActionSubmitManagerRating, StageManagerRatingSubmitted},
		{RoleEmployee, ActionConfirmReview, StageReviewCompleted},
	}
	for i, step := range steps {
		next, err := Apply(state, step.role, step.action, opts)
		if err != nil {
			t.Fatalf("step %d %s: %v", i, step.action, err)
		}
		if got := Derive(next).Stage; got != step.stage {
			t.Fatalf("step %d %s: expected %q, got %q", i, step.action, step.stage, got)
		}
		state = next
	}
	if *state.Review != ReviewStatusCompleted {
		t.Fatalf("expected completed review, got %q", *state.Review)
	}
}

func TestApplyDoesNotModifyInput(t *testing.T) {
	state := State{KPIStatus: KPIStatusAcknowledged, Review: StatusPtr(ReviewStatusEmployeeSubmitted), SelfRatingEnabled: true}
	if _, err := Apply(state, RoleManager, ActionSubmitManagerRating, DefaultOptions()); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if *state.Review != ReviewStatusEmployeeSubmitted {
		t.Fatalf("input state changed to %q", *state.Review)
	}
}

func TestApplyManagerSubmissionTarget(t *testing.T) {
	state := State{KPIStatus: KPIStatusAcknowledged}
	next, err := Apply(state, RoleManager, ActionInitiateReview, Options{ConfirmationRequired: false})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if *next.Review != ReviewStatusManagerSubmitted {
		t.Fatalf("expected manager_submitted, got %q", *next.Review)
	}
	next, err = Apply(state, RoleManager, ActionInitiateReview, DefaultOptions())
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if *next.Review != ReviewStatusAwaitingEmployeeConfirmation {
		t.Fatalf("expected awaiting_employee_confirmation, got %q", *next.Review)
	}
}

func TestApplyRejectsUnpermittedActions(t *testing.T) {
	cases := []struct {
		name   string
		state  State
		role   Role
		action Action
	}{
		{"manager acknowledges", State{KPIStatus: KPIStatusPending}, RoleManager, ActionAcknowledgeKPI},
		{"self rating disabled", State{KPIStatus: KPIStatusAcknowledged}, RoleEmployee, ActionSubmitSelfRating},
		{"initiate with self rating", State{KPIStatus: KPIStatusAcknowledged, SelfRatingEnabled: true}, RoleManager, ActionInitiateReview},
		{"employee confirms early", State{KPIStatus: KPIStatusAcknowledged, Review: StatusPtr(ReviewStatusEmployeeSubmitted), SelfRatingEnabled: true}, RoleEmployee, ActionConfirmReview},
		{"manager confirms", State{KPIStatus: KPIStatusAcknowledged, Review: StatusPtr(ReviewStatusManagerSubmitted)}, RoleManager, ActionConfirmReview},
		{"unknown state", State{KPIStatus: KPIStatus("draft")}, RoleEmployee, ActionAcknowledgeKPI},
		{"acknowledge with stale review", State{KPIStatus: KPIStatusPending, Review: StatusPtr(ReviewStatusRejected), SelfRatingEnabled: true}, RoleEmployee, ActionAcknowledgeKPI},
		{"confirm on unacknowledged kpi", State{KPIStatus: KPIStatusPending, Review: StatusPtr(ReviewStatusAwaitingEmployeeConfirmation)}, RoleEmployee, ActionConfirmReview},
		{"resubmit self rating disabled", State{KPIStatus: KPIStatusAcknowledged, Review: StatusPtr(ReviewStatusRejected)}, RoleEmployee, ActionSubmitSelfRating},
	}
	for _, tc := range cases {
		if Can(tc.state, tc.role, tc.action) {
			t.Fatalf("%s: Can reported true", tc.name)
		}
		if _, err := Apply(tc.state, tc.role, tc.action, DefaultOptions()); !errors.Is(err, ErrActionNotPermitted) {
			t.Fatalf("%s: expected ErrActionNotPermitted, got %v", tc.name, err)
		}
	}
}

func TestApplyCompletedIsTerminal(t *testing.T) {
	state := State{KPIStatus: KPIStatusAcknowledged, Review: StatusPtr(ReviewStatusCompleted), SelfRatingEnabled: true}
	for _, action := range []Action{ActionSubmitSelfRating, ActionConfirmReview, ActionRejectReview} {
		if _, err := Apply(state, RoleEmployee, action, DefaultOptions()); !errors.Is(err, ErrTerminal) {
			t.Fatalf("%s: expected ErrTerminal, got %v", action, err)
		}
	}
	if _, err := Apply(state, RoleManager, ActionSubmitManagerRating, DefaultOptions()); !errors.Is(err, ErrTerminal) {
		t.Fatalf("expected ErrTerminal for manager, got %v", err)
	}
}

func TestPermittedActionsMatchApply(t *testing.T) {
	var states []State
	reviews := []*ReviewStatus{nil}
	for _, status := range []ReviewStatus{ReviewStatusPending, ReviewStatusEmployeeSubmitted, ReviewStatusManagerSubmitted, ReviewStatusAwaitingEmployeeConfirmation, ReviewStatusRejected} {
		reviews = append(reviews, StatusPtr(status))
	}
	for _, kpiStatus := range []KPIStatus{KPIStatusPending, KPIStatusAcknowledged} {
		for _, review := range reviews {
			for _, enabled := range []bool{true, false} {
				states = append(states, State{KPIStatus: kpiStatus, Review: review, SelfRatingEnabled: enabled})
			}
		}
	}
	for _, state := range states {
		derived := Derive(state)
		for _, role := range []Role{RoleEmployee, RoleManager} {
			for _, action := range derived.ActionsFor(role) {
				if _, err := Apply(state, role, action, DefaultOptions()); err != nil {
					t.Fatalf("%+v: advertised %s/%s failed: %v", state, role, action, err)
				}
			}
		}
	}
}
