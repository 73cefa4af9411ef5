// Package evaluation gates the recommendation pipeline on measurable
// quality targets: stable output across runs, mood-to-genre alignment,
// genre diversity for mixed groups, least-misery fairness, and a
// feedback loop that never repeats a swiped movie.
package evaluation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/cinematch/engine/internal/core/fairness"
	"github.com/cinematch/engine/internal/core/model"
	"github.com/cinematch/engine/internal/core/mood"
)

// System is the slice of the recommender the harness drives. RankGroup
// returns fairness rows without the LLM rerank so the metrics see the
// deterministic part of the pipeline.
type System interface {
	RankGroup(ctx context.Context, participants []model.Participant, sessionID string, topK int) ([]model.GroupScoreRow, bool, error)
	RecordSwipe(ctx context.Context, rec model.SwipeRecord) (int, bool, error)
	ClearSession(ctx context.Context, sessionID string) error
}

// Catalog resolves movie ids to metadata for the genre metrics.
type Catalog interface {
	GetByID(id int) (model.MovieRecord, bool)
}

// Scenario is a fixed group composition the harness replays.
type Scenario struct {
	Name         string
	Participants []model.Participant
}

func scenarios() []Scenario {
	return []Scenario{
		{
			Name: "solo",
			Participants: []model.Participant{
				{Name: "Solo", Moods: []model.MoodTag{model.MoodRelaxed, model.MoodFunny}},
			},
		},
		{
			Name: "diverse_trio",
			Participants: []model.Participant{
				{Name: "Romantic", Moods: []model.MoodTag{model.MoodRomantic, model.MoodEmotional}, Note: "love stories"},
				{Name: "Action", Moods: []model.MoodTag{model.MoodIntense, model.MoodThrilling}, Note: "explosions"},
				{Name: "Comedy", Moods: []model.MoodTag{model.MoodFunny, model.MoodRelaxed}, Note: "make me laugh"},
			},
		},
		{
			Name: "similar_pair",
			Participants: []model.Participant{
				{Name: "User1", Moods: []model.MoodTag{model.MoodRomantic}},
				{Name: "User2", Moods: []model.MoodTag{model.MoodRomantic, model.MoodRelaxed}, Note: "feel good"},
			},
		},
	}
}

type Evaluator struct {
	sys     System
	catalog Catalog
	topK    int
	log     *zap.Logger
}

func NewEvaluator(sys System, catalog Catalog, topK int, log *zap.Logger) *Evaluator {
	if topK <= 0 {
		topK = 10
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{sys: sys, catalog: catalog, topK: topK, log: log}
}

// EvaluateConsistency runs each scenario several times and measures the
// mean pairwise Jaccard overlap of the returned movie id sets.
func (e *Evaluator) EvaluateConsistency(ctx context.Context) ([]ConsistencyResult, error) {
	results := make([]ConsistencyResult, 0, len(scenarios()))
	for _, sc := range scenarios() {
		sets := make([]map[int]bool, 0, consistencyTrials)
		for i := 0; i < consistencyTrials; i++ {
			rows, _, err := e.sys.RankGroup(ctx, sc.Participants, "", e.topK)
			if err != nil {
				return nil, fmt.Errorf("consistency %s trial %d: %w", sc.Name, i+1, err)
			}
			set := make(map[int]bool, len(rows))
			for _, row := range rows {
				set[row.MovieID] = true
			}
			sets = append(sets, set)
		}

		var overlaps []float64
		for i := 0; i < len(sets); i++ {
			for j := i + 1; j < len(sets); j++ {
				overlaps = append(overlaps, jaccard(sets[i], sets[j]))
			}
		}
		score := mean(overlaps)
		results = append(results, ConsistencyResult{
			Scenario: sc.Name,
			Trials:   consistencyTrials,
			Score:    score,
			Target:   TargetConsistency,
			Passed:   score > TargetConsistency,
		})
		e.log.Info("consistency evaluated",
			zap.String("scenario", sc.Name), zap.Float64("score", score))
	}
	return results, nil
}

// EvaluateGenreAlignment checks, mood by mood, that a solo query for
// that mood surfaces movies from the genres the mood implies.
func (e *Evaluator) EvaluateGenreAlignment(ctx context.Context) (AlignmentResult, error) {
	perMood := make(map[string]float64, len(model.AllMoods()))
	for _, m := range model.AllMoods() {
		participants := []model.Participant{{Name: "eval", Moods: []model.MoodTag{m}}}
		rows, _, err := e.sys.RankGroup(ctx, participants, "", e.topK)
		if err != nil {
			return AlignmentResult{}, fmt.Errorf("alignment %s: %w", m, err)
		}

		expected := mood.ExpectedGenres(m)
		matched, total := 0, 0
		for _, row := range rows {
			movie, ok := e.catalog.GetByID(row.MovieID)
			if !ok {
				continue
			}
			total++
			if movie.HasGenre(expected) {
				matched++
			}
		}
		if total > 0 {
			perMood[string(m)] = float64(matched) / float64(total)
		} else {
			perMood[string(m)] = 0
		}
	}

	scores := make([]float64, 0, len(perMood))
	for _, s := range perMood {
		scores = append(scores, s)
	}
	score := mean(scores)
	return AlignmentResult{
		PerMood: perMood,
		Score:   score,
		Target:  TargetGenreAlignment,
		Passed:  score > TargetGenreAlignment,
	}, nil
}

// EvaluateDiversity measures genre breadth for the diverse trio: a
// group with conflicting tastes should not collapse to one genre.
func (e *Evaluator) EvaluateDiversity(ctx context.Context) (DiversityResult, error) {
	sc := scenarios()[1]
	rows, _, err := e.sys.RankGroup(ctx, sc.Participants, "", e.topK)
	if err != nil {
		return DiversityResult{}, fmt.Errorf("diversity %s: %w", sc.Name, err)
	}

	genreCounts := make(map[string]int)
	minYear, maxYear := 0, 0
	for _, row := range rows {
		movie, ok := e.catalog.GetByID(row.MovieID)
		if !ok {
			continue
		}
		for _, g := range movie.Genres {
			genreCounts[g]++
		}
		if year, err := strconv.Atoi(movie.ReleaseYear); err == nil {
			if minYear == 0 || year < minYear {
				minYear = year
			}
			if year > maxYear {
				maxYear = year
			}
		}
	}

	entropy := normalizedEntropy(genreCounts)
	span := 0
	if minYear > 0 {
		span = maxYear - minYear
	}
	return DiversityResult{
		Scenario:     sc.Name,
		UniqueGenres: len(genreCounts),
		Entropy:      entropy,
		YearSpan:     span,
		Passed:       len(genreCounts) >= TargetUniqueGenres && entropy > TargetEntropy,
	}, nil
}

// EvaluateFairness checks that the least-satisfied member of the
// diverse trio still scores reasonably and satisfaction stays balanced.
func (e *Evaluator) EvaluateFairness(ctx context.Context) (FairnessResult, error) {
	sc := scenarios()[1]
	rows, _, err := e.sys.RankGroup(ctx, sc.Participants, "", e.topK)
	if err != nil {
		return FairnessResult{}, fmt.Errorf("fairness %s: %w", sc.Name, err)
	}

	users := make([]string, len(sc.Participants))
	for i, p := range sc.Participants {
		users[i] = p.Name
	}

	mins := make([]float64, 0, len(rows))
	for _, row := range rows {
		mins = append(mins, row.MinimumScore)
	}
	avgMin := mean(mins)
	variance := fairness.Variance(rows, users)

	return FairnessResult{
		Scenario:    sc.Name,
		AvgMinScore: avgMin,
		Variance:    variance,
		Passed:      avgMin > TargetAvgMinScore && variance < TargetMaxVariance,
	}, nil
}

// EvaluateFeedbackLoop plays several swipe rounds in one session and
// counts movies that come back after being swiped. Any repeat fails.
func (e *Evaluator) EvaluateFeedbackLoop(ctx context.Context) (FeedbackLoopResult, error) {
	sc := scenarios()[2]
	sessionID := "eval-feedback-loop"
	if err := e.sys.ClearSession(ctx, sessionID); err != nil {
		return FeedbackLoopResult{}, fmt.Errorf("reset eval session: %w", err)
	}
	defer func() {
		if err := e.sys.ClearSession(ctx, sessionID); err != nil {
			e.log.Warn("eval session cleanup failed", zap.Error(err))
		}
	}()

	swiped := make(map[int]bool)
	shown, repeats := 0, 0
	for round := 1; round <= feedbackRounds; round++ {
		rows, _, err := e.sys.RankGroup(ctx, sc.Participants, sessionID, 5)
		if err != nil {
			return FeedbackLoopResult{}, fmt.Errorf("feedback round %d: %w", round, err)
		}
		for i, row := range rows {
			shown++
			if swiped[row.MovieID] {
				repeats++
				continue
			}
			action := model.SwipeLike
			if i%2 == 1 {
				action = model.SwipeDislike
			}
			rec := model.SwipeRecord{
				SessionID: sessionID,
				UserName:  sc.Participants[0].Name,
				MovieID:   row.MovieID,
				Action:    action,
				Round:     round,
				Timestamp: time.Now().UTC(),
			}
			if _, _, err := e.sys.RecordSwipe(ctx, rec); err != nil {
				return FeedbackLoopResult{}, fmt.Errorf("record eval swipe: %w", err)
			}
			swiped[row.MovieID] = true
		}
	}

	rate := 0.0
	if shown > 0 {
		rate = float64(repeats) / float64(shown)
	}
	return FeedbackLoopResult{
		Rounds:     feedbackRounds,
		Shown:      shown,
		Repeats:    repeats,
		RepeatRate: rate,
		Passed:     rate <= TargetRepeatRate,
	}, nil
}

// RunFullEvaluation runs every metric and folds the verdicts into one
// report.
func (e *Evaluator) RunFullEvaluation(ctx context.Context) (*Report, error) {
	consistency, err := e.EvaluateConsistency(ctx)
	if err != nil {
		return nil, err
	}
	alignment, err := e.EvaluateGenreAlignment(ctx)
	if err != nil {
		return nil, err
	}
	diversity, err := e.EvaluateDiversity(ctx)
	if err != nil {
		return nil, err
	}
	fair, err := e.EvaluateFairness(ctx)
	if err != nil {
		return nil, err
	}
	loop, err := e.EvaluateFeedbackLoop(ctx)
	if err != nil {
		return nil, err
	}

	allPassed := alignment.Passed && diversity.Passed && fair.Passed && loop.Passed
	for _, c := range consistency {
		allPassed = allPassed && c.Passed
	}

	return &Report{
		GeneratedAt:  time.Now().UTC(),
		Consistency:  consistency,
		Alignment:    alignment,
		Diversity:    diversity,
		Fairness:     fair,
		FeedbackLoop: loop,
		AllPassed:    allPassed,
	}, nil
}
