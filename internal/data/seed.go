package data

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cinematch/engine/internal/core/model"
	"github.com/cinematch/engine/internal/index"
	"github.com/cinematch/engine/internal/llm"
)

// DocumentText flattens a movie into the text that gets embedded. Title
// first, then genres, then the overview: the same composition the catalog
// was originally indexed with, so re-seeding is stable.
func DocumentText(m model.MovieRecord) string {
	return fmt.Sprintf("%s. %s. %s", m.Title, strings.Join(m.Genres, ", "), m.Overview)
}

// SeedIfEmpty embeds the whole catalog into the index when the index holds
// nothing. Ran before the server accepts traffic.
func SeedIfEmpty(ctx context.Context, repo *Repository, idx index.Index, embedder llm.EmbedderClient, log *zap.Logger) error {
	count, err := idx.Count(ctx)
	if err != nil {
		return fmt.Errorf("index count: %w", err)
	}
	if count > 0 {
		log.Info("index already seeded", zap.Int("movies", count))
		return nil
	}

	movies := repo.All()
	log.Info("seeding index", zap.Int("movies", len(movies)))

	vectors := make([][]float32, 0, len(movies))
	for _, m := range movies {
		vec, err := embedder.Embed(ctx, DocumentText(m))
		if err != nil {
			return fmt.Errorf("embed movie %d: %w", m.ID, err)
		}
		vectors = append(vectors, vec)
	}

	if err := idx.Upsert(ctx, movies, vectors); err != nil {
		return fmt.Errorf("seed index: %w", err)
	}
	log.Info("seeding complete", zap.Int("movies", len(movies)))
	return nil
}
