package features

type PeriodType string

const (
	PeriodQuarterly PeriodType = "quarterly"
	PeriodYearly    PeriodType = "yearly"
)

// ParsePeriodType maps free-form period names onto the two supported cadences.
func ParsePeriodType(raw string) (PeriodType, bool) {
	switch PeriodType(raw) {
	case PeriodQuarterly:
		return PeriodQuarterly, true
	case PeriodYearly:
		return PeriodYearly, true
	}
	return "", false
}

type Policy string

const (
	PolicyNormal         Policy = "normal"
	PolicyGoalWeight     Policy = "goal_weight"
	PolicyActualVsTarget Policy = "actual_vs_target"
)

// Flags are the switches HR sets for one period type. Normal calculation is
// what remains when neither weighting flag is on.
type Flags struct {
	UseGoalWeight            bool `json:"useGoalWeight" yaml:"use_goal_weight"`
	UseActualValues          bool `json:"useActualValues" yaml:"use_actual_values"`
	EnableEmployeeSelfRating bool `json:"enableEmployeeSelfRating" yaml:"enable_employee_self_rating"`
}

// Set holds company or department features for both period types.
type Set struct {
	Quarterly Flags `json:"quarterly" yaml:"quarterly"`
	Yearly    Flags `json:"yearly" yaml:"yearly"`
}

// DefaultFlags is normal calculation with employee self-rating enabled.
func DefaultFlags() Flags {
	return Flags{EnableEmployeeSelfRating: true}
}

func DefaultSet() Set {
	return Set{Quarterly: DefaultFlags(), Yearly: DefaultFlags()}
}

// Snapshot returns the read-only view for period. Unknown periods get the
// default snapshot.
func (s Set) Snapshot(period PeriodType) Snapshot {
	switch period {
	case PeriodQuarterly:
		return s.Quarterly.snapshot(period)
	case PeriodYearly:
		return s.Yearly.snapshot(period)
	}
	return Default(period)
}

func (f Flags) snapshot(period PeriodType) Snapshot {
	return Snapshot{
		PeriodType:        period,
		UseGoalWeight:     f.UseGoalWeight,
		UseActualValues:   f.UseActualValues,
		SelfRatingEnabled: f.EnableEmployeeSelfRating,
	}
}

// Snapshot is the per-calculation view of the features that apply to one KPI.
type Snapshot struct {
	PeriodType        PeriodType `json:"periodType"`
	UseGoalWeight     bool       `json:"useGoalWeight"`
	UseActualValues   bool       `json:"useActualValues"`
	SelfRatingEnabled bool       `json:"selfRatingEnabled"`
	Defaulted         bool       `json:"defaulted,omitempty"`
}

func Default(period PeriodType) Snapshot {
	return Snapshot{PeriodType: period, SelfRatingEnabled: true, Defaulted: true}
}

// Policy applies the precedence actual values > goal weight > normal.
func (s Snapshot) Policy() Policy {
	switch {
	case s.UseActualValues:
		return PolicyActualVsTarget
	case s.UseGoalWeight:
		return PolicyGoalWeight
	}
	return PolicyNormal
}
