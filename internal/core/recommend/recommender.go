// Package recommend orchestrates the ranking pipeline: mood query →
// embedding → feedback blend → concurrent per-user retrieval → fairness
// aggregation → optional LLM rerank. Request-scoped and stateless except
// for the learner it delegates to.
package recommend

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cinematch/engine/internal/core/fairness"
	"github.com/cinematch/engine/internal/core/feedback"
	"github.com/cinematch/engine/internal/core/model"
	"github.com/cinematch/engine/internal/core/mood"
	"github.com/cinematch/engine/internal/core/retrieval"
	"github.com/cinematch/engine/internal/data"
	"github.com/cinematch/engine/internal/llm"
)

// ModelEmbeddingOnly marks responses served by the fairness ranking alone,
// with no LLM rerank (disabled or failed).
const ModelEmbeddingOnly = "embedding_only"

type Request struct {
	Participants []model.Participant `json:"participants"`
	NumResults   int                 `json:"num_recommendations"`
	SessionID    string              `json:"session_id,omitempty"`
	Round        int                 `json:"round,omitempty"`
}

type Response struct {
	Recommendations  []model.Recommendation `json:"recommendations"`
	ModelUsed        string                 `json:"model_used"`
	ResponseTimeMS   int64                  `json:"response_time_ms"`
	FairnessApplied  bool                   `json:"fairness_applied"`
	FairnessDegraded bool                   `json:"fairness_degraded"`
	FairnessStats    *model.FairnessStats   `json:"fairness_stats,omitempty"`
	FeedbackApplied  bool                   `json:"feedback_applied"`
	Round            int                    `json:"round"`
	SeenCount        int                    `json:"seen_count"`
}

type Options struct {
	FairnessWeight    float64
	CandidatesPerUser int
	DefaultResults    int
	// Provider names the LLM behind the reranker, for response metadata.
	Provider string
}

type Recommender struct {
	embedder  llm.EmbedderClient
	retriever *retrieval.Retriever
	learner   *feedback.Learner
	reranker  *llm.GroupReranker // nil disables the rerank stage
	repo      *data.Repository
	opts      Options
	log       *zap.Logger
}

func NewRecommender(
	embedder llm.EmbedderClient,
	retriever *retrieval.Retriever,
	learner *feedback.Learner,
	reranker *llm.GroupReranker,
	repo *data.Repository,
	opts Options,
	log *zap.Logger,
) *Recommender {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recommender{
		embedder:  embedder,
		retriever: retriever,
		learner:   learner,
		reranker:  reranker,
		repo:      repo,
		opts:      opts,
		log:       log,
	}
}

// pipelineResult is everything the ranking stages produce before the
// rerank decision.
type pipelineResult struct {
	rows            []model.GroupScoreRow
	degraded        bool
	feedbackApplied bool
	seenCount       int
}

// runPipeline executes query build → embed → feedback blend → concurrent
// retrieval → fairness aggregation.
func (r *Recommender) runPipeline(ctx context.Context, req Request) (*pipelineResult, error) {
	if len(req.Participants) == 0 {
		return nil, fmt.Errorf("no participants")
	}

	exclude := make(map[int]bool)
	seenCount := 0
	if req.SessionID != "" {
		seen, err := r.learner.SeenMovies(ctx, req.SessionID)
		if err != nil {
			return nil, fmt.Errorf("load seen movies: %w", err)
		}
		for _, id := range seen {
			exclude[id] = true
		}
		seenCount = len(seen)
	}

	queries, feedbackApplied, err := r.buildQueries(ctx, req)
	if err != nil {
		return nil, err
	}

	group, err := r.retriever.RetrieveGroup(ctx, queries, exclude, r.opts.CandidatesPerUser)
	if err != nil {
		return nil, err
	}

	rows, mergeDegraded := fairness.Aggregate(group.PerUser, r.opts.FairnessWeight, r.opts.CandidatesPerUser)
	return &pipelineResult{
		rows:            rows,
		degraded:        mergeDegraded || len(group.Degraded) > 0,
		feedbackApplied: feedbackApplied,
		seenCount:       seenCount,
	}, nil
}

// RankGroup runs the pipeline up to the fairness rows, skipping the LLM
// rerank. The evaluation harness gates on these rows; production callers
// want Recommend.
func (r *Recommender) RankGroup(ctx context.Context, participants []model.Participant, sessionID string, topK int) ([]model.GroupScoreRow, bool, error) {
	res, err := r.runPipeline(ctx, Request{Participants: participants, SessionID: sessionID})
	if err != nil {
		return nil, false, err
	}
	rows := res.rows
	if topK > 0 && len(rows) > topK {
		rows = rows[:topK]
	}
	return rows, res.degraded, nil
}

// Recommend runs the whole pipeline for one request. It always returns
// some ordered list (possibly degraded-flagged); the only error case is
// retrieval failing for every participant.
func (r *Recommender) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	n := req.NumResults
	if n <= 0 {
		n = r.opts.DefaultResults
	}
	round := req.Round
	if round < 1 {
		round = 1
	}

	res, err := r.runPipeline(ctx, req)
	if err != nil {
		return nil, err
	}
	rows := res.rows

	recs, modelUsed := r.rankFinal(ctx, req, rows, n, round)

	var stats *model.FairnessStats
	if len(req.Participants) > 1 {
		users := make([]string, len(req.Participants))
		for i, p := range req.Participants {
			users[i] = p.Name
		}
		top := rows
		if len(top) > n {
			top = top[:n]
		}
		s := fairness.Stats(top, users)
		stats = &s
	}

	return &Response{
		Recommendations:  recs,
		ModelUsed:        modelUsed,
		ResponseTimeMS:   time.Since(start).Milliseconds(),
		FairnessApplied:  len(req.Participants) > 1,
		FairnessDegraded: res.degraded,
		FairnessStats:    stats,
		FeedbackApplied:  res.feedbackApplied,
		Round:            round,
		SeenCount:        res.seenCount,
	}, nil
}

// buildQueries embeds each participant's expanded mood query and, when the
// session has enough feedback, blends in the learned preference vector.
func (r *Recommender) buildQueries(ctx context.Context, req Request) ([]retrieval.UserQuery, bool, error) {
	queries := make([]retrieval.UserQuery, 0, len(req.Participants))
	feedbackApplied := false

	for _, p := range req.Participants {
		text := mood.BuildQuery(p.Moods, p.Note)
		vec, err := r.embedder.Embed(ctx, text)
		if err != nil {
			return nil, false, fmt.Errorf("embed query for %s: %w", p.Name, err)
		}

		if req.SessionID != "" {
			adjusted, applied, err := r.learner.AdjustedQuery(ctx, req.SessionID, p.Name, vec)
			if err != nil {
				// Feedback is best-effort; the mood query still stands.
				r.log.Warn("adjusted query failed, using base query",
					zap.String("participant", p.Name), zap.Error(err))
			} else {
				vec = adjusted
				feedbackApplied = feedbackApplied || applied
			}
		}

		queries = append(queries, retrieval.UserQuery{Name: p.Name, Vector: vec})
	}
	return queries, feedbackApplied, nil
}

// rankFinal hands the fairness rows to the LLM reranker and falls back to
// fair-score order when the rerank is disabled or fails. The fallback
// path is always available: rerank failure is logged, never user-facing.
func (r *Recommender) rankFinal(ctx context.Context, req Request, rows []model.GroupScoreRow, n, round int) ([]model.Recommendation, string) {
	if r.reranker != nil && len(rows) > 0 {
		recs, err := r.rerank(ctx, req, rows, n, round)
		if err == nil {
			return recs, r.opts.Provider
		}
		r.log.Warn("rerank failed, falling back to fairness order", zap.Error(err))
	}
	return r.fallbackRanking(rows, n), ModelEmbeddingOnly
}

func (r *Recommender) rerank(ctx context.Context, req Request, rows []model.GroupScoreRow, n, round int) ([]model.Recommendation, error) {
	candidates := make([]llm.ScoredCandidate, 0, len(rows))
	for _, row := range rows {
		movie, ok := r.repo.GetByID(row.MovieID)
		if !ok {
			continue
		}
		candidates = append(candidates, llm.ScoredCandidate{
			Movie:   movie,
			Fair:    row.FairScore,
			Avg:     row.AverageScore,
			Min:     row.MinimumScore,
			PerUser: row.PerUserScore,
		})
	}

	var history map[string]llm.SwipeDigest
	if round > 1 && req.SessionID != "" {
		history = r.swipeHistory(ctx, req.SessionID, req.Participants)
	}

	return r.reranker.Rank(ctx, req.Participants, candidates, n, history, round)
}

// fallbackRanking serves the fairness order directly, explaining each pick
// with per-user match percentages.
func (r *Recommender) fallbackRanking(rows []model.GroupScoreRow, n int) []model.Recommendation {
	recs := make([]model.Recommendation, 0, n)
	for _, row := range rows {
		movie, ok := r.repo.GetByID(row.MovieID)
		if !ok {
			continue
		}
		recs = append(recs, model.Recommendation{
			ID:          movie.ID,
			Title:       movie.Title,
			Why:         fairWhy(row),
			PosterURL:   movie.PosterURL,
			Overview:    movie.Overview,
			VoteAverage: movie.VoteAverage,
			ReleaseYear: movie.ReleaseYear,
			Genres:      movie.Genres,
			TrailerKey:  movie.TrailerKey,
		})
		if len(recs) == n {
			break
		}
	}
	return recs
}

// swipeHistory digests up to five liked and disliked titles per user for
// the rerank prompt.
func (r *Recommender) swipeHistory(ctx context.Context, sessionID string, participants []model.Participant) map[string]llm.SwipeDigest {
	const maxTitles = 5
	history := make(map[string]llm.SwipeDigest)

	for _, p := range participants {
		swipes, err := r.learner.UserSwipes(ctx, sessionID, p.Name)
		if err != nil {
			r.log.Warn("swipe history unavailable",
				zap.String("participant", p.Name), zap.Error(err))
			continue
		}
		var d llm.SwipeDigest
		for _, rec := range swipes {
			movie, ok := r.repo.GetByID(rec.MovieID)
			if !ok {
				continue
			}
			switch rec.Action {
			case model.SwipeLike:
				if len(d.Likes) < maxTitles {
					d.Likes = append(d.Likes, movie.Title)
				}
			case model.SwipeDislike:
				if len(d.Dislikes) < maxTitles {
					d.Dislikes = append(d.Dislikes, movie.Title)
				}
			}
		}
		if len(d.Likes) > 0 || len(d.Dislikes) > 0 {
			history[p.Name] = d
		}
	}
	return history
}
