package index

import (
	"context"
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/cinematch/engine/internal/core/model"
)

const (
	idField     = "movie_id"
	vectorField = "embedding"
)

// MilvusIndex backs the Index interface with a Milvus collection. The
// collection schema is movie_id (int64 primary key) + embedding (float
// vector), COSINE metric.
type MilvusIndex struct {
	client     client.Client
	collection string
	dim        int
}

func NewMilvusIndex(ctx context.Context, addr, collection string, dim int) (*MilvusIndex, error) {
	c, err := client.NewGrpcClient(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("%w: connect %s: %v", ErrUnavailable, addr, err)
	}
	return &MilvusIndex{client: c, collection: collection, dim: dim}, nil
}

func (x *MilvusIndex) Close() error {
	return x.client.Close()
}

func (x *MilvusIndex) Search(ctx context.Context, vector []float32, topK int) ([]model.CandidateScore, error) {
	sp, err := entity.NewIndexIvfFlatSearchParam(10)
	if err != nil {
		return nil, fmt.Errorf("search params: %w", err)
	}

	results, err := x.client.Search(
		ctx,
		x.collection,
		[]string{},
		"",
		[]string{idField},
		[]entity.Vector{entity.FloatVector(vector)},
		vectorField,
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", ErrUnavailable, err)
	}

	var scored []model.CandidateScore
	for _, result := range results {
		ids, ok := result.IDs.(*entity.ColumnInt64)
		if !ok {
			continue
		}
		for i := 0; i < ids.Len(); i++ {
			scored = append(scored, model.CandidateScore{
				MovieID:       int(ids.Data()[i]),
				RawSimilarity: float64(result.Scores[i]),
			})
		}
	}
	return scored, nil
}

func (x *MilvusIndex) Embedding(ctx context.Context, movieID int) ([]float32, error) {
	expr := fmt.Sprintf("%s == %d", idField, movieID)
	rs, err := x.client.Query(ctx, x.collection, []string{}, expr, []string{idField, vectorField})
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", ErrUnavailable, err)
	}
	for _, col := range rs {
		if vec, ok := col.(*entity.ColumnFloatVector); ok && vec.Len() > 0 {
			return vec.Data()[0], nil
		}
	}
	return nil, ErrNotFound
}

func (x *MilvusIndex) Upsert(ctx context.Context, movies []model.MovieRecord, vectors [][]float32) error {
	if len(movies) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(movies))
	vecs := make([][]float32, 0, len(movies))
	for i, m := range movies {
		if i >= len(vectors) {
			break
		}
		ids = append(ids, int64(m.ID))
		vecs = append(vecs, vectors[i])
	}

	_, err := x.client.Upsert(
		ctx,
		x.collection,
		"",
		entity.NewColumnInt64(idField, ids),
		entity.NewColumnFloatVector(vectorField, x.dim, vecs),
	)
	if err != nil {
		return fmt.Errorf("%w: upsert: %v", ErrUnavailable, err)
	}
	return x.client.Flush(ctx, x.collection, false)
}

func (x *MilvusIndex) Count(ctx context.Context) (int, error) {
	stats, err := x.client.GetCollectionStatistics(ctx, x.collection)
	if err != nil {
		return 0, fmt.Errorf("%w: stats: %v", ErrUnavailable, err)
	}
	n, err := strconv.Atoi(stats["row_count"])
	if err != nil {
		return 0, fmt.Errorf("parse row_count: %w", err)
	}
	return n, nil
}
