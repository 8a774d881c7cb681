package views

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"finboard/internal/core"
)

func TestGoalProgress(t *testing.T) {
	achieved := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		goal     core.Goal
		ratio    float64
		reached  bool
		archived bool
	}{
		{"half", core.Goal{Target: 1000, Saved: 500}, 0.5, false, false},
		{"exact", core.Goal{Target: 1000, Saved: 1000}, 1, true, false},
		{"exceeded", core.Goal{Target: 1000, Saved: 1500}, 1.5, true, false},
		{"zero target", core.Goal{Target: 0, Saved: 10}, 1, true, false},
		{"negative saved", core.Goal{Target: 1000, Saved: -10}, 0, false, false},
		{"achieved date wins", core.Goal{Target: 1000, Saved: 100, AchievedAt: &achieved}, 0.1, true, false},
		{"archived", core.Goal{Target: 1000, Saved: 100, ArchivedAt: &achieved}, 0.1, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := GoalProgress(tt.goal)
			assert.InDelta(t, tt.ratio, st.Ratio, 1e-9)
			assert.Equal(t, tt.reached, st.Reached)
			assert.Equal(t, tt.archived, st.Archived)
		})
	}
}

func TestGoalStatusPercent(t *testing.T) {
	assert.Equal(t, 42, GoalStatus{Ratio: 0.425}.Percent())
	assert.Equal(t, 100, GoalStatus{Ratio: 0.1, Reached: true}.Percent())
}

func TestSortAndActiveGoals(t *testing.T) {
	archived := time.Now()
	goals := []core.Goal{
		{ID: 3, Position: 2},
		{ID: 1, Position: 1},
		{ID: 2, Position: 1, ArchivedAt: &archived},
	}

	sorted := SortGoals(goals)
	assert.Equal(t, []int64{1, 2, 3}, []int64{sorted[0].ID, sorted[1].ID, sorted[2].ID})

	active := ActiveGoals(sorted)
	assert.Len(t, active, 2)
	assert.Equal(t, int64(1), active[0].ID)
	assert.Equal(t, int64(3), active[1].ID)

	old := ArchivedGoals(sorted)
	assert.Len(t, old, 1)
	assert.Equal(t, int64(2), old[0].ID)
}
