package index

import (
	"context"
	"sort"
	"sync"

	"github.com/cinematch/engine/internal/core/model"
	"github.com/cinematch/engine/internal/core/vecmath"
)

// MemoryIndex is a brute-force cosine index. It backs the evaluation
// harness and tests, and serves single-node deployments where the catalog
// is small enough to scan.
type MemoryIndex struct {
	mu      sync.RWMutex
	vectors map[int][]float32
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{vectors: make(map[int][]float32)}
}

func (x *MemoryIndex) Upsert(ctx context.Context, movies []model.MovieRecord, vectors [][]float32) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	for i, m := range movies {
		if i >= len(vectors) {
			break
		}
		x.vectors[m.ID] = vecmath.Normalize(vectors[i])
	}
	return nil
}

func (x *MemoryIndex) Search(ctx context.Context, vector []float32, topK int) ([]model.CandidateScore, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	scored := make([]model.CandidateScore, 0, len(x.vectors))
	for id, v := range x.vectors {
		scored = append(scored, model.CandidateScore{
			MovieID:       id,
			RawSimilarity: vecmath.Cosine(vector, v),
		})
	}

	// Similarity descending, ties by id ascending so repeated searches
	// against the same state return the same list.
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].RawSimilarity != scored[j].RawSimilarity {
			return scored[i].RawSimilarity > scored[j].RawSimilarity
		}
		return scored[i].MovieID < scored[j].MovieID
	})

	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

func (x *MemoryIndex) Embedding(ctx context.Context, movieID int) ([]float32, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	v, ok := x.vectors[movieID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out, nil
}

func (x *MemoryIndex) Count(ctx context.Context) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.vectors), nil
}
