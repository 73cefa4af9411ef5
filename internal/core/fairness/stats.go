package fairness

import "github.com/cinematch/engine/internal/core/model"

// Stats summarizes how evenly a returned list treats the group: per-user
// average satisfaction, least/most satisfied members, and an overall
// fairness figure of 1 minus scaled satisfaction variance.
func Stats(rows []model.GroupScoreRow, users []string) model.FairnessStats {
	satisfaction := make(map[string]float64, len(users))
	if len(rows) > 0 {
		for _, name := range users {
			sum := 0.0
			for _, row := range rows {
				sum += row.PerUserScore[name]
			}
			satisfaction[name] = sum / float64(len(rows))
		}
	} else {
		for _, name := range users {
			satisfaction[name] = 0
		}
	}

	least, most := "", ""
	leastScore, mostScore := 0.0, 0.0
	for _, name := range users {
		s := satisfaction[name]
		if least == "" || s < leastScore || (s == leastScore && name < least) {
			least, leastScore = name, s
		}
		if most == "" || s > mostScore || (s == mostScore && name < most) {
			most, mostScore = name, s
		}
	}

	overall := 1.0
	if len(users) > 1 {
		mean := 0.0
		for _, s := range satisfaction {
			mean += s
		}
		mean /= float64(len(satisfaction))
		variance := 0.0
		for _, s := range satisfaction {
			d := s - mean
			variance += d * d
		}
		variance /= float64(len(satisfaction))

		overall = 1.0 - variance*10 // scale so small variances still register
		if overall < 0 {
			overall = 0
		}
	}

	return model.FairnessStats{
		OverallFairness:  overall,
		UserSatisfaction: satisfaction,
		LeastSatisfied:   least,
		MostSatisfied:    most,
	}
}

// Variance returns the variance of per-user average satisfaction over the
// rows; the evaluation harness gates on it.
func Variance(rows []model.GroupScoreRow, users []string) float64 {
	if len(users) == 0 || len(rows) == 0 {
		return 0
	}
	stats := Stats(rows, users)
	mean := 0.0
	for _, s := range stats.UserSatisfaction {
		mean += s
	}
	mean /= float64(len(stats.UserSatisfaction))
	v := 0.0
	for _, s := range stats.UserSatisfaction {
		d := s - mean
		v += d * d
	}
	return v / float64(len(stats.UserSatisfaction))
}
