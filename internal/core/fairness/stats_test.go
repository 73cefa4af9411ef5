package fairness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cinematch/engine/internal/core/model"
)

func rowsFor(perUser ...map[string]float64) []model.GroupScoreRow {
	rows := make([]model.GroupScoreRow, 0, len(perUser))
	for i, scores := range perUser {
		rows = append(rows, model.GroupScoreRow{MovieID: i + 1, PerUserScore: scores})
	}
	return rows
}

func TestStatsBalancedGroup(t *testing.T) {
	rows := rowsFor(
		map[string]float64{"ada": 0.8, "grace": 0.8},
		map[string]float64{"ada": 0.6, "grace": 0.6},
	)

	s := Stats(rows, []string{"ada", "grace"})

	assert.InDelta(t, 0.7, s.UserSatisfaction["ada"], 1e-9)
	assert.InDelta(t, 0.7, s.UserSatisfaction["grace"], 1e-9)
	assert.InDelta(t, 1.0, s.OverallFairness, 1e-9)
}

func TestStatsSkewedGroup(t *testing.T) {
	rows := rowsFor(
		map[string]float64{"ada": 0.9, "grace": 0.2},
		map[string]float64{"ada": 0.8, "grace": 0.3},
	)

	s := Stats(rows, []string{"ada", "grace"})

	assert.Equal(t, "grace", s.LeastSatisfied)
	assert.Equal(t, "ada", s.MostSatisfied)
	assert.Less(t, s.OverallFairness, 0.5)
}

func TestStatsSoloUserIsPerfectlyFair(t *testing.T) {
	rows := rowsFor(map[string]float64{"solo": 0.4})

	s := Stats(rows, []string{"solo"})

	assert.Equal(t, 1.0, s.OverallFairness)
	assert.Equal(t, "solo", s.LeastSatisfied)
	assert.Equal(t, "solo", s.MostSatisfied)
}

func TestStatsEmptyRows(t *testing.T) {
	s := Stats(nil, []string{"ada", "grace"})

	assert.Equal(t, 0.0, s.UserSatisfaction["ada"])
	assert.Equal(t, 1.0, s.OverallFairness)
}

func TestVariance(t *testing.T) {
	balanced := rowsFor(map[string]float64{"ada": 0.5, "grace": 0.5})
	skewed := rowsFor(map[string]float64{"ada": 0.9, "grace": 0.1})

	assert.Equal(t, 0.0, Variance(balanced, []string{"ada", "grace"}))
	assert.InDelta(t, 0.16, Variance(skewed, []string{"ada", "grace"}), 1e-9)
}
