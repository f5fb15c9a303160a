package core

import "math"

// GoalProgress is what the goal card shows: how far along the month is,
// how much is missing, and a rough count of extra clients that would
// close the gap.
type GoalProgress struct {
	Percent       int
	Missing       float64
	ClientsNeeded int
}

// TrackGoal derives progress figures from projected income and a
// target. The percentage is clamped to [0, 100] and rounded to the
// nearest integer. avgClientFee is a configured constant, not a
// derived statistic. A non-positive target or fee is an invalid
// configuration, never silently computed around.
func TrackGoal(projectedIncome, target, avgClientFee float64) (GoalProgress, error) {
	if target <= 0 {
		return GoalProgress{}, ErrInvalidGoalTarget
	}
	if avgClientFee <= 0 {
		return GoalProgress{}, ErrInvalidGoalTarget
	}

	pct := projectedIncome / target * 100
	pct = math.Min(math.Max(pct, 0), 100)

	missing := math.Max(target-projectedIncome, 0)

	needed := 0
	if missing > 0 {
		needed = int(math.Ceil(missing / avgClientFee))
	}

	return GoalProgress{
		Percent:       int(math.Round(pct)),
		Missing:       missing,
		ClientsNeeded: needed,
	}, nil
}
