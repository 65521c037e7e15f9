package rating

// Method names the calculation policy that produced a Result.
type Method string

const (
	MethodNone           Method = "none"
	MethodNormal         Method = "normal"
	MethodGoalWeight     Method = "goal_weight"
	MethodActualVsTarget Method = "actual_vs_target"
)

// RaterType selects whose item ratings a calculation reads.
type RaterType string

const (
	RaterEmployee RaterType = "employee"
	RaterManager  RaterType = "manager"
)

const (
	errNoItems      = "no kpi items to rate"
	errEmptyScale   = "rating scale is empty"
	errUnknownRater = "unknown rater type"
)
