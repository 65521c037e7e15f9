package lifecycle

import "fmt"

// Options tune transitions that have more than one possible target.
type Options struct {
	// ConfirmationRequired sends manager submissions to
	// awaiting_employee_confirmation instead of manager_submitted.
	ConfirmationRequired bool
}

func DefaultOptions() Options {
	return Options{ConfirmationRequired: true}
}

type transition struct {
	from   Stage
	role   Role
	action Action
	guard  func(State) bool
	apply  func(State, Options) State
}

// transitions is the complete workflow. Nothing leaves StageReviewCompleted.
var transitions = []transition{
	{from: StageAwaitingAcknowledgement, role: RoleEmployee, action: ActionAcknowledgeKPI, apply: acknowledge},
	{from: StageReviewPendingAction, role: RoleEmployee, action: ActionSubmitSelfRating, apply: moveReview(ReviewStatusEmployeeSubmitted)},
	{from: StageSelfRatingRequired, role: RoleEmployee, action: ActionSubmitSelfRating, guard: selfRatingOn, apply: moveReview(ReviewStatusEmployeeSubmitted)},
	{from: StageSelfRatingRequired, role: RoleManager, action: ActionSubmitManagerRating, guard: selfRatingOff, apply: submitManagerRating},
	{from: StageManagerWillInitiate, role: RoleManager, action: ActionInitiateReview, apply: submitManagerRating},
	{from: StageSelfRatingSubmitted, role: RoleManager, action: ActionSubmitManagerRating, apply: submitManagerRating},
	{from: StageManagerRatingSubmitted, role: RoleEmployee, action: ActionConfirmReview, apply: moveReview(ReviewStatusCompleted)},
	{from: StageManagerRatingSubmitted, role: RoleEmployee, action: ActionRejectReview, apply: moveReview(ReviewStatusRejected)},
	{from: StageReviewRejected, role: RoleEmployee, action: ActionSubmitSelfRating, guard: selfRatingOn, apply: moveReview(ReviewStatusEmployeeSubmitted)},
	{from: StageReviewRejected, role: RoleManager, action: ActionSubmitManagerRating, apply: submitManagerRating},
}

// Apply performs action on behalf of role and returns the resulting state.
// The input state is never modified. Anomalous states accept no action.
func Apply(state State, role Role, action Action, opts Options) (State, error) {
	stage, anomaly := classify(state)
	if stage == StageReviewCompleted {
		return state, ErrTerminal
	}
	if anomaly != "" {
		return state, fmt.Errorf("%w: %s", ErrActionNotPermitted, anomaly)
	}
	for _, t := range transitions {
		if t.matches(state, stage, role) && t.action == action {
			return t.apply(state, opts), nil
		}
	}
	return state, fmt.Errorf("%w: %s cannot %s at %s", ErrActionNotPermitted, role, action, stage)
}

// Can reports whether role may take action in state.
func Can(state State, role Role, action Action) bool {
	stage, anomaly := classify(state)
	if anomaly != "" {
		return false
	}
	for _, t := range transitions {
		if t.matches(state, stage, role) && t.action == action {
			return true
		}
	}
	return false
}

func permittedActions(state State, stage Stage, anomaly string) map[Role][]Action {
	out := map[Role][]Action{
		RoleEmployee: {},
		RoleManager:  {},
	}
	if anomaly != "" {
		return out
	}
	for _, t := range transitions {
		if t.matches(state, stage, t.role) {
			out[t.role] = append(out[t.role], t.action)
		}
	}
	return out
}

func (t transition) matches(state State, stage Stage, role Role) bool {
	if t.from != stage || t.role != role {
		return false
	}
	return t.guard == nil || t.guard(state)
}

func selfRatingOn(state State) bool {
	return state.SelfRatingEnabled
}

func selfRatingOff(state State) bool {
	return !state.SelfRatingEnabled
}

func acknowledge(state State, _ Options) State {
	state.KPIStatus = KPIStatusAcknowledged
	return state
}

func moveReview(status ReviewStatus) func(State, Options) State {
	return func(state State, _ Options) State {
		state.Review = StatusPtr(status)
		return state
	}
}

func submitManagerRating(state State, opts Options) State {
	if opts.ConfirmationRequired {
		state.Review = StatusPtr(ReviewStatusAwaitingEmployeeConfirmation)
	} else {
		state.Review = StatusPtr(ReviewStatusManagerSubmitted)
	}
	return state
}
