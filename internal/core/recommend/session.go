package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cinematch/engine/internal/core/model"
)

// fairWhy renders the fallback explanation from per-user percentages,
// e.g. "Fair match - Ada: 82%, Grace: 75%".
func fairWhy(row model.GroupScoreRow) string {
	if len(row.PerUserScore) == 0 {
		return "Recommended based on group preferences"
	}
	names := make([]string, 0, len(row.PerUserScore))
	for name := range row.PerUserScore {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %d%%", name, int(row.PerUserScore[name]*100)))
	}
	return "Fair match - " + strings.Join(parts, ", ")
}

// RecordSwipe commits one verdict and reports the user's running total
// plus whether feedback now shapes their retrieval.
func (r *Recommender) RecordSwipe(ctx context.Context, rec model.SwipeRecord) (total int, ready bool, err error) {
	return r.learner.RecordSwipe(ctx, rec)
}

// SessionStats returns per-user swipe counts and the session's seen set.
func (r *Recommender) SessionStats(ctx context.Context, sessionID string) (map[string]model.SwipeStats, []int, error) {
	stats, err := r.learner.Stats(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	seen, err := r.learner.SeenMovies(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	return stats, seen, nil
}

// SessionMatches computes the group's agreed movies, enriched with
// catalog titles and posters.
func (r *Recommender) SessionMatches(ctx context.Context, sessionID string) (model.SessionMatches, error) {
	matches, err := r.learner.Matches(ctx, sessionID)
	if err != nil {
		return matches, err
	}
	enrich := func(in []model.MovieMatch) []model.MovieMatch {
		out := make([]model.MovieMatch, 0, len(in))
		for _, m := range in {
			if movie, ok := r.repo.GetByID(m.MovieID); ok {
				m.Title = movie.Title
				m.PosterURL = movie.PosterURL
			}
			out = append(out, m)
		}
		return out
	}
	matches.Perfect = enrich(matches.Perfect)
	matches.Majority = enrich(matches.Majority)
	return matches, nil
}

// ClearSession drops all feedback state for a session.
func (r *Recommender) ClearSession(ctx context.Context, sessionID string) error {
	return r.learner.ClearSession(ctx, sessionID)
}
