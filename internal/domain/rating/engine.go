package rating

import (
	"perfreview/internal/domain/features"
)

// ComputeFinalRating rates items under the calculation policy that set enables
// for period. It never fails: empty items, an empty scale or an unknown rater
// produce a Result with MethodNone and an Error message.
func ComputeFinalRating(items []Item, scale Scale, set features.Set, period features.PeriodType, rater RaterType) Result {
	return Compute(items, scale, set.Snapshot(period), rater)
}

// Compute is ComputeFinalRating for an already resolved feature snapshot.
func Compute(items []Item, scale Scale, snapshot features.Snapshot, rater RaterType) Result {
	scale = NewScale(scale...)
	switch {
	case len(items) == 0:
		return failed(errNoItems)
	case len(scale) == 0:
		return failed(errEmptyScale)
	case rater != RaterEmployee && rater != RaterManager:
		return failed(errUnknownRater)
	}

	var result Result
	switch snapshot.Policy() {
	case features.PolicyActualVsTarget:
		result = computeActualVsTarget(items)
	case features.PolicyGoalWeight:
		result = computeGoalWeight(items, scale, rater)
	default:
		result = computeNormal(items, scale, rater)
	}
	result.FinalRating = RoundToScale(result.RawRating, scale)
	return result
}

func failed(reason string) Result {
	return Result{Method: MethodNone, PerItem: []ItemBreakdown{}, Error: reason}
}

func computeNormal(items []Item, scale Scale, rater RaterType) Result {
	maxRating := scale.Max()
	perItem := make([]ItemBreakdown, 0, len(items))
	var totalRating, totalPossible float64
	for _, item := range items {
		value := item.RatingFor(rater)
		totalRating += value
		totalPossible += maxRating
		perItem = append(perItem, ItemBreakdown{ID: item.ID, Title: item.Title, Contribution: value})
	}

	var percentage float64
	if totalPossible != 0 {
		percentage = totalRating / totalPossible * 100
	}
	return Result{
		Method:     MethodNormal,
		Percentage: percentage,
		RawRating:  percentage / 100 * maxRating,
		PerItem:    perItem,
	}
}

// computeGoalWeight sums rating*weight. The sum is already on the rating scale;
// weights are expected to total about 1 but that is not enforced.
func computeGoalWeight(items []Item, scale Scale, rater RaterType) Result {
	maxRating := scale.Max()
	perItem := make([]ItemBreakdown, 0, len(items))
	var totalContribution, totalWeight float64
	for _, item := range items {
		weight := ResolveWeight(item.GoalWeight)
		contribution := item.RatingFor(rater) * weight
		totalContribution += contribution
		totalWeight += weight
		perItem = append(perItem, ItemBreakdown{ID: item.ID, Title: item.Title, Contribution: contribution})
	}

	var percentage float64
	if totalWeight != 0 && maxRating != 0 {
		percentage = totalContribution / totalWeight / maxRating * 100
	}
	return Result{
		Method:     MethodGoalWeight,
		Percentage: percentage,
		RawRating:  totalContribution,
		PerItem:    perItem,
	}
}

// computeActualVsTarget only reads actual and target values, which managers
// enter, so the rater does not matter here. RawRating is the final percentage
// expressed as a decimal (80% -> 0.8).
func computeActualVsTarget(items []Item) Result {
	perItem := make([]ItemBreakdown, 0, len(items))
	var finalPercentage float64
	for _, item := range items {
		var achieved float64
		target := finiteOrZero(item.TargetValue)
		if target != 0 {
			achieved = finiteOrZero(item.ActualValue) / target * 100
		}
		itemPercent := achieved * ResolveWeight(item.GoalWeight)
		finalPercentage += itemPercent
		perItem = append(perItem, ItemBreakdown{ID: item.ID, Title: item.Title, Contribution: itemPercent})
	}
	return Result{
		Method:     MethodActualVsTarget,
		Percentage: finalPercentage,
		RawRating:  finalPercentage / 100,
		PerItem:    perItem,
	}
}
