package evaluation

import "time"

// Quality targets the recommendation pipeline has to clear before a
// build ships. Each evaluator method reports pass/fail against these.
const (
	TargetConsistency    = 0.8
	TargetGenreAlignment = 0.6
	TargetUniqueGenres   = 4
	TargetEntropy        = 0.5
	TargetAvgMinScore    = 0.4
	TargetMaxVariance    = 0.1
	TargetRepeatRate     = 0.0

	consistencyTrials = 5
	feedbackRounds    = 3
)

// ConsistencyResult holds the mean pairwise Jaccard overlap across
// repeated runs of one scenario.
type ConsistencyResult struct {
	Scenario string  `json:"scenario"`
	Trials   int     `json:"trials"`
	Score    float64 `json:"score"`
	Target   float64 `json:"target"`
	Passed   bool    `json:"passed"`
}

// AlignmentResult reports how often mood queries surface movies from
// the genres that mood implies.
type AlignmentResult struct {
	PerMood map[string]float64 `json:"per_mood"`
	Score   float64            `json:"score"`
	Target  float64            `json:"target"`
	Passed  bool               `json:"passed"`
}

// DiversityResult reports genre breadth for the diverse-group scenario.
type DiversityResult struct {
	Scenario     string  `json:"scenario"`
	UniqueGenres int     `json:"unique_genres"`
	Entropy      float64 `json:"entropy"`
	YearSpan     int     `json:"year_span"`
	Passed       bool    `json:"passed"`
}

// FairnessResult reports how well the least-satisfied participant does.
type FairnessResult struct {
	Scenario    string  `json:"scenario"`
	AvgMinScore float64 `json:"avg_min_score"`
	Variance    float64 `json:"satisfaction_variance"`
	Passed      bool    `json:"passed"`
}

// FeedbackLoopResult reports whether swiped movies leak back into later
// rounds of the same session.
type FeedbackLoopResult struct {
	Rounds     int     `json:"rounds"`
	Shown      int     `json:"shown"`
	Repeats    int     `json:"repeats"`
	RepeatRate float64 `json:"repeat_rate"`
	Passed     bool    `json:"passed"`
}

// Report is the full evaluation output, serialized as-is by the
// /evaluate endpoint and the evaluate command.
type Report struct {
	GeneratedAt  time.Time           `json:"generated_at"`
	Consistency  []ConsistencyResult `json:"consistency"`
	Alignment    AlignmentResult     `json:"genre_alignment"`
	Diversity    DiversityResult     `json:"diversity"`
	Fairness     FairnessResult      `json:"fairness"`
	FeedbackLoop FeedbackLoopResult  `json:"feedback_loop"`
	AllPassed    bool                `json:"all_passed"`
}
