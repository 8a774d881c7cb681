package views

import (
	"slices"

	"finboard/internal/core"
)

// GoalStatus is the rendered state of a savings goal.
type GoalStatus struct {
	Ratio    float64
	Reached  bool
	Archived bool
}

// GoalProgress computes saved/target. An explicit achievement date wins
// over the numeric ratio when the two disagree.
func GoalProgress(g core.Goal) GoalStatus {
	st := GoalStatus{Archived: g.ArchivedAt != nil}
	if g.Target <= 0 {
		st.Ratio = 1
	} else {
		st.Ratio = float64(g.Saved) / float64(g.Target)
	}
	if st.Ratio < 0 {
		st.Ratio = 0
	}
	st.Reached = st.Ratio >= 1
	if g.AchievedAt != nil {
		st.Reached = true
	}
	return st
}

// Percent is the clamped whole percentage for progress bars.
func (s GoalStatus) Percent() int {
	if s.Reached || s.Ratio >= 1 {
		return 100
	}
	return int(s.Ratio * 100)
}

// SortGoals orders goals by their manual position, then id.
func SortGoals(goals []core.Goal) []core.Goal {
	out := slices.Clone(goals)
	slices.SortStableFunc(out, func(a, b core.Goal) int {
		if a.Position != b.Position {
			return a.Position - b.Position
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// ActiveGoals drops archived goals, keeping order.
func ActiveGoals(goals []core.Goal) []core.Goal {
	var out []core.Goal
	for _, g := range goals {
		if g.ArchivedAt == nil {
			out = append(out, g)
		}
	}
	return out
}

// ArchivedGoals keeps only archived goals, keeping order.
func ArchivedGoals(goals []core.Goal) []core.Goal {
	var out []core.Goal
	for _, g := range goals {
		if g.ArchivedAt != nil {
			out = append(out, g)
		}
	}
	return out
}
