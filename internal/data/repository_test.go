package data

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cinematch/engine/internal/core/model"
	"github.com/cinematch/engine/internal/index"
)

func TestLoadRepository(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.json")
	raw := `[
		{"id": 1, "title": "The Notebook", "genres": ["Romance", "Drama"], "vote_average": 7.8},
		{"id": 2, "title": "Die Hard", "genres": ["Action"], "vote_average": 7.8}
	]`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	repo, err := LoadRepository(path)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.Len())

	m, ok := repo.GetByID(1)
	require.True(t, ok)
	assert.Equal(t, "The Notebook", m.Title)
	assert.True(t, m.HasGenre([]string{"Romance"}))
}

func TestLoadRepositoryMissingFile(t *testing.T) {
	_, err := LoadRepository(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestNewRepositoryDeduplicates(t *testing.T) {
	repo := NewRepository([]model.MovieRecord{
		{ID: 1, Title: "First"},
		{ID: 1, Title: "Duplicate"},
		{ID: 2, Title: "Second"},
	})

	assert.Equal(t, 2, repo.Len())
	m, _ := repo.GetByID(1)
	assert.Equal(t, "First", m.Title)
}

func TestGetByIDsPreservesOrder(t *testing.T) {
	repo := NewRepository([]model.MovieRecord{{ID: 1}, {ID: 2}, {ID: 3}})

	got := repo.GetByIDs([]int{3, 99, 1})
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].ID)
	assert.Equal(t, 1, got[1].ID)
}

func TestDocumentText(t *testing.T) {
	m := model.MovieRecord{
		Title:    "Alien",
		Genres:   []string{"Horror", "Science Fiction"},
		Overview: "In space no one can hear you scream.",
	}
	assert.Equal(t, "Alien. Horror, Science Fiction. In space no one can hear you scream.", DocumentText(m))
}

type countingEmbedder struct {
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	return []float32{1, 0}, nil
}

func TestSeedIfEmpty(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository([]model.MovieRecord{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}})
	idx := index.NewMemoryIndex()
	embedder := &countingEmbedder{}

	require.NoError(t, SeedIfEmpty(ctx, repo, idx, embedder, zap.NewNop()))
	assert.Equal(t, 2, embedder.calls)

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Second run is a no-op: the index already holds the catalog.
	require.NoError(t, SeedIfEmpty(ctx, repo, idx, embedder, zap.NewNop()))
	assert.Equal(t, 2, embedder.calls)
}
