package index

import (
	"context"
	"errors"

	"github.com/cinematch/engine/internal/core/model"
)

// ErrUnavailable marks a backend that cannot be reached. Callers must be
// able to tell this apart from "no matches": retrieval surfaces it after
// retries instead of returning an empty list.
var ErrUnavailable = errors.New("vector index unavailable")

// ErrNotFound marks a missing movie id on embedding lookups.
var ErrNotFound = errors.New("movie not in index")

// Index is the vector search collaborator. Implementations must be
// deterministic for a fixed vector and index state: equal scores break
// ties by ascending movie id.
type Index interface {
	// Search returns up to topK candidates ordered by similarity
	// descending. Scores are cosine similarity.
	Search(ctx context.Context, vector []float32, topK int) ([]model.CandidateScore, error)

	// Embedding returns the stored vector for one movie.
	Embedding(ctx context.Context, movieID int) ([]float32, error)

	// Upsert stores movies with their embedding vectors.
	Upsert(ctx context.Context, movies []model.MovieRecord, vectors [][]float32) error

	// Count returns the number of indexed movies.
	Count(ctx context.Context) (int, error)
}
