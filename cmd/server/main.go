package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cinematch/engine/internal/config"
	"github.com/cinematch/engine/internal/core/evaluation"
	"github.com/cinematch/engine/internal/core/feedback"
	"github.com/cinematch/engine/internal/core/recommend"
	"github.com/cinematch/engine/internal/core/retrieval"
	"github.com/cinematch/engine/internal/data"
	"github.com/cinematch/engine/internal/index"
	"github.com/cinematch/engine/internal/llm"
	"github.com/cinematch/engine/internal/server"
	"github.com/cinematch/engine/internal/store"
)

func main() {
	_ = godotenv.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal("load configuration", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx := context.Background()

	llmClient, embedder, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		log.Fatal("initialize llm client", zap.Error(err))
	}
	if embedder == nil {
		// Chat-only providers still need embeddings for retrieval.
		embedder = llm.NewOpenAIClient(os.Getenv("OPENAI_API_KEY"), "", cfg.LLM.EmbeddingModel, "")
		log.Info("provider has no embedding API, using openai embedder",
			zap.String("provider", cfg.LLM.Provider))
	}

	var idx index.Index
	switch cfg.Index.Backend {
	case "milvus":
		mv, err := index.NewMilvusIndex(ctx, cfg.Index.Address, cfg.Index.Collection, cfg.Index.Dim)
		if err != nil {
			log.Fatal("connect milvus", zap.Error(err))
		}
		defer mv.Close()
		idx = mv
	default:
		idx = index.NewMemoryIndex()
	}

	var sessions store.SessionStore
	switch cfg.Store.Backend {
	case "redis":
		rs := store.NewRedisStore(cfg.Store.Address, cfg.Store.Password, cfg.Store.DB)
		defer rs.Close()
		sessions = rs
	default:
		sessions = store.NewMemoryStore()
	}

	repo, err := data.LoadRepository(cfg.Data.MoviesPath)
	if err != nil {
		log.Fatal("load movie catalog", zap.String("path", cfg.Data.MoviesPath), zap.Error(err))
	}
	log.Info("movie catalog loaded", zap.Int("movies", repo.Len()))

	if err := data.SeedIfEmpty(ctx, repo, idx, embedder, log); err != nil {
		log.Fatal("seed vector index", zap.Error(err))
	}

	learner := feedback.NewLearner(sessions, idx, feedback.Params{
		LikeRate:    cfg.Feedback.LikeRate,
		DislikeRate: cfg.Feedback.DislikeRate,
		MinSwipes:   cfg.Feedback.MinSwipes,
		BlendWeight: cfg.Feedback.BlendWeight,
	}, log)

	retriever := retrieval.NewRetriever(idx,
		cfg.Retrieval.MaxRetries,
		time.Duration(cfg.Retrieval.BackoffMS)*time.Millisecond,
		time.Duration(cfg.Retrieval.TimeoutMS)*time.Millisecond,
		log)

	rec := recommend.NewRecommender(embedder, retriever, learner,
		llm.NewGroupReranker(llmClient), repo, recommend.Options{
			FairnessWeight:    cfg.Ranking.FairnessWeight,
			CandidatesPerUser: cfg.Ranking.CandidatesPerUser,
			DefaultResults:    cfg.Ranking.DefaultResults,
			Provider:          cfg.LLM.Provider,
		}, log)

	eval := evaluation.NewEvaluator(rec, repo, cfg.Ranking.DefaultResults, log)

	srv := server.NewServer(rec, eval, repo, cfg, log)
	router := srv.SetupRouter()

	log.Info("server listening", zap.String("port", cfg.Server.Port))
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
