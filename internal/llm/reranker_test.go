package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinematch/engine/internal/core/model"
)

type mockLLM struct {
	response string
	err      error
	prompt   string
}

func (m *mockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.prompt = prompt
	return m.response, m.err
}

func testCandidates() []ScoredCandidate {
	return []ScoredCandidate{
		{Movie: model.MovieRecord{ID: 1, Title: "Before Sunrise", Genres: []string{"Romance", "Drama"}, VoteAverage: 8.0}, Fair: 0.8},
		{Movie: model.MovieRecord{ID: 2, Title: "Die Hard", Genres: []string{"Action", "Thriller"}, VoteAverage: 7.8}, Fair: 0.7},
		{Movie: model.MovieRecord{ID: 3, Title: "Airplane!", Genres: []string{"Comedy"}, VoteAverage: 7.5}, Fair: 0.6},
	}
}

func testParticipants() []model.Participant {
	return []model.Participant{
		{Name: "ada", Moods: []model.MoodTag{model.MoodRomantic}},
		{Name: "grace", Moods: []model.MoodTag{model.MoodIntense}, Note: "explosions"},
	}
}

func TestRankParsesModelOutput(t *testing.T) {
	mock := &mockLLM{response: `[{"id": 2, "why": "Action for grace"}, {"id": 1, "why": "Romance for ada"}]`}
	r := NewGroupReranker(mock)

	recs, err := r.Rank(context.Background(), testParticipants(), testCandidates(), 2, nil, 1)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 2, recs[0].ID)
	assert.Equal(t, "Die Hard", recs[0].Title)
	assert.Equal(t, "Action for grace", recs[0].Why)
	assert.Equal(t, 1, recs[1].ID)
}

func TestRankToleratesSurroundingText(t *testing.T) {
	mock := &mockLLM{response: "Here are my picks:\n[{\"id\": 1, \"why\": \"fits\"}]\nEnjoy!"}
	r := NewGroupReranker(mock)

	recs, err := r.Rank(context.Background(), testParticipants(), testCandidates(), 2, nil, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 1, recs[0].ID)
}

func TestRankDiscardsUnknownAndDuplicateIDs(t *testing.T) {
	mock := &mockLLM{response: `[{"id": 999, "why": "made up"}, {"id": 3, "why": "laughs"}, {"id": 3, "why": "again"}]`}
	r := NewGroupReranker(mock)

	recs, err := r.Rank(context.Background(), testParticipants(), testCandidates(), 5, nil, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 3, recs[0].ID)
}

func TestRankAllIDsInventedIsError(t *testing.T) {
	mock := &mockLLM{response: `[{"id": 998, "why": "x"}, {"id": 999, "why": "y"}]`}
	r := NewGroupReranker(mock)

	_, err := r.Rank(context.Background(), testParticipants(), testCandidates(), 2, nil, 1)
	assert.Error(t, err)
}

func TestRankGenerateFailure(t *testing.T) {
	mock := &mockLLM{err: errors.New("provider down")}
	r := NewGroupReranker(mock)

	_, err := r.Rank(context.Background(), testParticipants(), testCandidates(), 2, nil, 1)
	assert.Error(t, err)
}

func TestRankEmptyWhyGetsDefault(t *testing.T) {
	mock := &mockLLM{response: `[{"id": 1, "why": "  "}]`}
	r := NewGroupReranker(mock)

	recs, err := r.Rank(context.Background(), testParticipants(), testCandidates(), 1, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, "Recommended based on group preferences", recs[0].Why)
}

func TestRankNoCandidates(t *testing.T) {
	r := NewGroupReranker(&mockLLM{})

	recs, err := r.Rank(context.Background(), testParticipants(), nil, 3, nil, 1)
	assert.NoError(t, err)
	assert.Nil(t, recs)
}

func TestPromptMentionsParticipantsAndNotes(t *testing.T) {
	mock := &mockLLM{response: `[{"id": 1, "why": "ok"}]`}
	r := NewGroupReranker(mock)

	_, err := r.Rank(context.Background(), testParticipants(), testCandidates(), 1, nil, 1)
	require.NoError(t, err)

	assert.Contains(t, mock.prompt, "ada")
	assert.Contains(t, mock.prompt, "grace")
	assert.Contains(t, mock.prompt, "explosions")
	assert.Contains(t, mock.prompt, "Before Sunrise")
}

func TestPromptIncludesHistoryOnLaterRounds(t *testing.T) {
	mock := &mockLLM{response: `[{"id": 1, "why": "ok"}]`}
	r := NewGroupReranker(mock)
	history := map[string]SwipeDigest{
		"ada": {Likes: []string{"Before Sunrise"}, Dislikes: []string{"Die Hard"}},
	}

	_, err := r.Rank(context.Background(), testParticipants(), testCandidates(), 1, history, 2)
	require.NoError(t, err)
	assert.Contains(t, mock.prompt, "liked: Before Sunrise")
	assert.Contains(t, mock.prompt, "disliked: Die Hard")

	// Round one never includes history.
	_, err = r.Rank(context.Background(), testParticipants(), testCandidates(), 1, history, 1)
	require.NoError(t, err)
	assert.False(t, strings.Contains(mock.prompt, "Swipe history"))
}
