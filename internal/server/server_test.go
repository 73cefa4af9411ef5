package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cinematch/engine/internal/config"
	"github.com/cinematch/engine/internal/core/evaluation"
	"github.com/cinematch/engine/internal/core/feedback"
	"github.com/cinematch/engine/internal/core/model"
	"github.com/cinematch/engine/internal/core/recommend"
	"github.com/cinematch/engine/internal/core/retrieval"
	"github.com/cinematch/engine/internal/data"
	"github.com/cinematch/engine/internal/index"
	"github.com/cinematch/engine/internal/store"
)

type axisEmbedder struct{}

func (axisEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.Contains(text, "love story") {
		return []float32{1, 0}, nil
	}
	return []float32{0, 1}, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	movies := []model.MovieRecord{
		{ID: 1, Title: "The Notebook", Genres: []string{"Romance", "Drama"}},
		{ID: 2, Title: "Before Sunrise", Genres: []string{"Romance"}},
		{ID: 3, Title: "Die Hard", Genres: []string{"Action"}},
	}
	vectors := [][]float32{{1, 0}, {0.9, 0.1}, {0, 1}}

	idx := index.NewMemoryIndex()
	require.NoError(t, idx.Upsert(context.Background(), movies, vectors))

	repo := data.NewRepository(movies)
	learner := feedback.NewLearner(store.NewMemoryStore(), idx, feedback.DefaultParams(), nil)
	retriever := retrieval.NewRetriever(idx, 0, 0, time.Second, nil)
	rec := recommend.NewRecommender(axisEmbedder{}, retriever, learner, nil, repo, recommend.Options{
		FairnessWeight:    0.5,
		CandidatesPerUser: 10,
		DefaultResults:    3,
	}, nil)
	eval := evaluation.NewEvaluator(rec, repo, 3, nil)

	srv := NewServer(rec, eval, repo, config.Default(), zap.NewNop())
	return srv.SetupRouter()
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, float64(3), resp["movies"])
}

func TestRecommendationsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	body := map[string]any{
		"participants": []map[string]any{
			{"name": "ada", "moods": []string{"romantic"}, "note": "love story"},
		},
		"num_recommendations": 2,
	}
	w := doJSON(t, router, http.MethodPost, "/recommendations", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Recommendations []model.Recommendation `json:"recommendations"`
		SessionID       string                 `json:"session_id"`
		ModelUsed       string                 `json:"model_used"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)
	assert.Len(t, resp.Recommendations, 2)
	assert.Equal(t, recommend.ModelEmbeddingOnly, resp.ModelUsed)
}

func TestRecommendationsKeepsProvidedSessionID(t *testing.T) {
	router := newTestRouter(t)

	body := map[string]any{
		"participants": []map[string]any{{"name": "ada", "moods": []string{"romantic"}}},
		"session_id":   "my-session",
	}
	w := doJSON(t, router, http.MethodPost, "/recommendations", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"session_id":"my-session"`)
}

func TestRecommendationsValidation(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/recommendations", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/recommendations", map[string]any{
		"participants": []map[string]any{{"name": "ada", "moods": []string{}}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSwipeFlow(t *testing.T) {
	router := newTestRouter(t)

	swipe := map[string]any{
		"session_id": "s1", "user_name": "ada", "movie_id": 1, "action": "like",
	}
	w := doJSON(t, router, http.MethodPost, "/swipe", swipe)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(1), resp["total_swipes"])
	assert.Equal(t, false, resp["feedback_ready"])

	w = doJSON(t, router, http.MethodGet, "/session/s1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"seen_count":1`)

	w = doJSON(t, router, http.MethodGet, "/session/s1/matches", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "The Notebook")

	w = doJSON(t, router, http.MethodDelete, "/session/s1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/session/s1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"seen_count":0`)
}

func TestSwipeValidation(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/swipe", map[string]any{
		"session_id": "s1", "user_name": "ada", "movie_id": 1, "action": "meh",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/swipe", map[string]any{
		"user_name": "ada", "movie_id": 1, "action": "like",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
