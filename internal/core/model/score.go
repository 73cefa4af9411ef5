package model

// CandidateScore is one movie from a single user's retrieval pass.
type CandidateScore struct {
	MovieID       int     `json:"movie_id"`
	RawSimilarity float64 `json:"similarity"`
}

// GroupScoreRow is one movie scored across the whole group.
// FairScore = (1-w)*AverageScore + w*MinimumScore for the configured
// fairness weight w; MinimumScore <= AverageScore always holds.
type GroupScoreRow struct {
	MovieID      int                `json:"movie_id"`
	PerUserScore map[string]float64 `json:"individual_scores"`
	AverageScore float64            `json:"avg_score"`
	MinimumScore float64            `json:"min_score"`
	FairScore    float64            `json:"fair_score"`
}

// FairnessStats summarizes how evenly a recommendation list treats the
// group. OverallFairness is 1 minus scaled satisfaction variance,
// clamped to [0,1].
type FairnessStats struct {
	OverallFairness  float64            `json:"overall_fairness"`
	UserSatisfaction map[string]float64 `json:"user_satisfaction"`
	LeastSatisfied   string             `json:"least_satisfied,omitempty"`
	MostSatisfied    string             `json:"most_satisfied,omitempty"`
}
