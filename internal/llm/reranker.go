package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cinematch/engine/internal/core/common"
	"github.com/cinematch/engine/internal/core/model"
	"github.com/cinematch/engine/internal/core/mood"
)

// ScoredCandidate is one fairness-ranked movie handed to the reranker.
type ScoredCandidate struct {
	Movie   model.MovieRecord
	Fair    float64
	Avg     float64
	Min     float64
	PerUser map[string]float64
}

// SwipeDigest is one user's liked/disliked titles, sent on round >= 2 so
// the model can respect revealed taste.
type SwipeDigest struct {
	Likes    []string
	Dislikes []string
}

// GroupReranker asks an LLM to pick and order the final list from the
// fairness candidates, attaching a one-line reason per movie. It is a
// black box to the pipeline: any failure falls back to fair-score order
// at the call site.
type GroupReranker struct {
	LLM LLMClient
}

func NewGroupReranker(client LLMClient) *GroupReranker {
	return &GroupReranker{LLM: client}
}

type rerankItem struct {
	ID  int    `json:"id"`
	Why string `json:"why"`
}

// Rank returns up to n recommendations in the model's order. The model may
// drop candidates; it may not invent ids — unknown ids are discarded.
func (r *GroupReranker) Rank(
	ctx context.Context,
	participants []model.Participant,
	candidates []ScoredCandidate,
	n int,
	history map[string]SwipeDigest,
	round int,
) ([]model.Recommendation, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	prompt := r.buildPrompt(participants, candidates, n, history, round)
	resp, err := r.LLM.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("rerank generate: %w", err)
	}

	items, err := common.ParseJSON[[]rerankItem](resp)
	if err != nil {
		return nil, fmt.Errorf("rerank parse: %w", err)
	}

	byID := make(map[int]ScoredCandidate, len(candidates))
	for _, c := range candidates {
		byID[c.Movie.ID] = c
	}

	recs := make([]model.Recommendation, 0, n)
	seen := make(map[int]bool)
	for _, item := range items {
		c, ok := byID[item.ID]
		if !ok || seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		why := strings.TrimSpace(item.Why)
		if why == "" {
			why = "Recommended based on group preferences"
		}
		recs = append(recs, toRecommendation(c.Movie, why))
		if len(recs) == n {
			break
		}
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("rerank returned no usable ids")
	}
	return recs, nil
}

func toRecommendation(m model.MovieRecord, why string) model.Recommendation {
	return model.Recommendation{
		ID:          m.ID,
		Title:       m.Title,
		Why:         why,
		PosterURL:   m.PosterURL,
		Overview:    m.Overview,
		VoteAverage: m.VoteAverage,
		ReleaseYear: m.ReleaseYear,
		Genres:      m.Genres,
		TrailerKey:  m.TrailerKey,
	}
}

func (r *GroupReranker) buildPrompt(
	participants []model.Participant,
	candidates []ScoredCandidate,
	n int,
	history map[string]SwipeDigest,
	round int,
) string {
	// Candidates go in preferred-genre-first, then vote-average order, so
	// truncation for prompt size keeps the likeliest picks.
	preferred := make(map[string]bool)
	for _, p := range participants {
		for _, m := range p.Moods {
			for _, g := range mood.ExpectedGenres(m) {
				preferred[g] = true
			}
		}
	}
	ordered := make([]ScoredCandidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		pi := hasPreferred(ordered[i].Movie, preferred)
		pj := hasPreferred(ordered[j].Movie, preferred)
		if pi != pj {
			return pi
		}
		return ordered[i].Movie.VoteAverage > ordered[j].Movie.VoteAverage
	})
	if len(ordered) > 30 {
		ordered = ordered[:30]
	}

	var b strings.Builder
	b.WriteString("You are a movie night concierge picking films for a group.\n\n")

	b.WriteString("Group members:\n")
	for _, p := range participants {
		moods := make([]string, len(p.Moods))
		for i, m := range p.Moods {
			moods[i] = string(m)
		}
		fmt.Fprintf(&b, "- %s: moods [%s]", p.Name, strings.Join(moods, ", "))
		if p.Note != "" {
			fmt.Fprintf(&b, ", note: %q", p.Note)
		}
		b.WriteString("\n")
	}

	if round > 1 && len(history) > 0 {
		b.WriteString("\nSwipe history from earlier rounds:\n")
		for user, d := range history {
			if len(d.Likes) > 0 {
				fmt.Fprintf(&b, "- %s liked: %s\n", user, strings.Join(d.Likes, ", "))
			}
			if len(d.Dislikes) > 0 {
				fmt.Fprintf(&b, "- %s disliked: %s\n", user, strings.Join(d.Dislikes, ", "))
			}
		}
	}

	b.WriteString("\nCandidate movies (pre-ranked for group fairness):\n")
	for _, c := range ordered {
		overview := c.Movie.Overview
		if len(overview) > 160 {
			overview = overview[:160] + "..."
		}
		fmt.Fprintf(&b, "[%d] %s (%s) genres: %s, rating: %.1f, group fit: %.2f: %s\n",
			c.Movie.ID, c.Movie.Title, c.Movie.ReleaseYear,
			strings.Join(c.Movie.Genres, "/"), c.Movie.VoteAverage, c.Fair, overview)
	}

	fmt.Fprintf(&b, `
Pick the %d movies the whole group will enjoy most. Balance everyone's
moods; do not favor one member. For each pick write one short sentence
explaining why it fits this group.

Output ONLY a JSON array, no other text:
[{"id": 123, "why": "..."}]
`, n)

	return b.String()
}

func hasPreferred(m model.MovieRecord, preferred map[string]bool) bool {
	for _, g := range m.Genres {
		if preferred[g] {
			return true
		}
	}
	return false
}
