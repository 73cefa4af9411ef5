// Command evaluate runs the full recommendation quality suite against
// the configured backends and writes a JSON report. It exits non-zero
// when any quality target is missed, so CI can gate on it.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
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
	"github.com/cinematch/engine/internal/store"
)

func main() {
	cfgPath := flag.String("config", "config/config.toml", "path to the TOML config file")
	output := flag.String("output", "evaluation_report.json", "where to write the JSON report")
	topK := flag.Int("topk", 10, "recommendations per evaluation run")
	flag.Parse()

	_ = godotenv.Load()

	log, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal("load configuration", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx := context.Background()

	_, embedder, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		log.Fatal("initialize llm client", zap.Error(err))
	}
	if embedder == nil {
		embedder = llm.NewOpenAIClient(os.Getenv("OPENAI_API_KEY"), "", cfg.LLM.EmbeddingModel, "")
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

	repo, err := data.LoadRepository(cfg.Data.MoviesPath)
	if err != nil {
		log.Fatal("load movie catalog", zap.Error(err))
	}
	if err := data.SeedIfEmpty(ctx, repo, idx, embedder, log); err != nil {
		log.Fatal("seed vector index", zap.Error(err))
	}

	// Evaluation always runs against an isolated in-memory swipe store so
	// the feedback-loop metric never touches live sessions.
	learner := feedback.NewLearner(store.NewMemoryStore(), idx, feedback.Params{
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

	// The rerank stage is skipped on purpose: the suite measures the
	// deterministic pipeline, and RankGroup never calls the LLM.
	rec := recommend.NewRecommender(embedder, retriever, learner, nil, repo, recommend.Options{
		FairnessWeight:    cfg.Ranking.FairnessWeight,
		CandidatesPerUser: cfg.Ranking.CandidatesPerUser,
		DefaultResults:    cfg.Ranking.DefaultResults,
		Provider:          cfg.LLM.Provider,
	}, log)

	eval := evaluation.NewEvaluator(rec, repo, *topK, log)

	report, err := eval.RunFullEvaluation(ctx)
	if err != nil {
		log.Fatal("evaluation failed", zap.Error(err))
	}

	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatal("encode report", zap.Error(err))
	}
	if err := os.WriteFile(*output, raw, 0o644); err != nil {
		log.Fatal("write report", zap.String("path", *output), zap.Error(err))
	}

	printSummary(report)
	if !report.AllPassed {
		os.Exit(1)
	}
}

func printSummary(r *evaluation.Report) {
	verdict := func(passed bool) string {
		if passed {
			return "PASS"
		}
		return "FAIL"
	}
	for _, c := range r.Consistency {
		fmt.Printf("consistency/%-13s %s  score=%.3f target>%.2f\n",
			c.Scenario, verdict(c.Passed), c.Score, c.Target)
	}
	fmt.Printf("genre_alignment           %s  score=%.3f target>%.2f\n",
		verdict(r.Alignment.Passed), r.Alignment.Score, r.Alignment.Target)
	fmt.Printf("diversity                 %s  genres=%d entropy=%.3f\n",
		verdict(r.Diversity.Passed), r.Diversity.UniqueGenres, r.Diversity.Entropy)
	fmt.Printf("fairness                  %s  avg_min=%.3f variance=%.4f\n",
		verdict(r.Fairness.Passed), r.Fairness.AvgMinScore, r.Fairness.Variance)
	fmt.Printf("feedback_loop             %s  repeats=%d/%d\n",
		verdict(r.FeedbackLoop.Passed), r.FeedbackLoop.Repeats, r.FeedbackLoop.Shown)
	fmt.Printf("overall                   %s\n", verdict(r.AllPassed))
}
