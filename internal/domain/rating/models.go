package rating

import (
	"math"
	"sort"
)

// Item is one measurable line of a KPI assignment.
type Item struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	EmployeeRating *float64 `json:"employeeRating,omitempty"`
	ManagerRating  *float64 `json:"managerRating,omitempty"`
	GoalWeight     Weight   `json:"goalWeight"`
	ActualValue    *float64 `json:"actualValue,omitempty"`
	TargetValue    *float64 `json:"targetValue,omitempty"`
}

// RatingFor returns the rating submitted by rater, or 0 when none was given.
func (i Item) RatingFor(rater RaterType) float64 {
	if rater == RaterEmployee {
		return finiteOrZero(i.EmployeeRating)
	}
	return finiteOrZero(i.ManagerRating)
}

// ItemBreakdown is one item's contribution to the overall percentage.
type ItemBreakdown struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Contribution float64 `json:"contribution"`
}

// Result is the outcome of one rating calculation; Error is set when no policy could run.
type Result struct {
	Method      Method          `json:"method"`
	Percentage  float64         `json:"percentage"`
	RawRating   float64         `json:"rawRating"`
	FinalRating float64         `json:"finalRating"`
	PerItem     []ItemBreakdown `json:"perItem"`
	Error       string          `json:"error,omitempty"`
}

// OK reports whether a calculation policy actually ran.
func (r Result) OK() bool {
	return r.Method != MethodNone && r.Error == ""
}

// Scale is the ascending set of discrete ratings a rater may choose from.
type Scale []float64

// NewScale sorts values ascending and drops duplicates and non-finite entries.
func NewScale(values ...float64) Scale {
	out := make(Scale, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	sort.Float64s(out)
	deduped := out[:0]
	for i, v := range out {
		if i > 0 && v == deduped[len(deduped)-1] {
			continue
		}
		deduped = append(deduped, v)
	}
	return deduped
}

func DefaultScale() Scale {
	return Scale{1, 2, 3, 4, 5}
}

func (s Scale) Max() float64 {
	if len(s) == 0 {
		return 0
	}
	highest := s[0]
	for _, v := range s[1:] {
		if v > highest {
			highest = v
		}
	}
	return highest
}

func (s Scale) Contains(value float64) bool {
	for _, v := range s {
		if v == value {
			return true
		}
	}
	return false
}

func finiteOrZero(v *float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0
	}
	return *v
}
