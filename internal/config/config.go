package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/cinematch/engine/internal/core/mood"
)

type ServerConfig struct {
	Port        string   `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

type LLMConfig struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	EmbeddingModel string `toml:"embedding_model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
}

type IndexConfig struct {
	Backend    string `toml:"backend"` // "memory" or "milvus"
	Address    string `toml:"address"`
	Collection string `toml:"collection"`
	Dim        int    `toml:"dim"`
}

type StoreConfig struct {
	Backend  string `toml:"backend"` // "memory" or "redis"
	Address  string `toml:"address"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type RankingConfig struct {
	// FairnessWeight blends average and minimum scores:
	// 0 = pure average, 1 = pure least misery.
	FairnessWeight    float64 `toml:"fairness_weight"`
	CandidatesPerUser int     `toml:"candidates_per_user"`
	DefaultResults    int     `toml:"default_results"`
}

type FeedbackConfig struct {
	LikeRate    float64 `toml:"like_rate"`
	DislikeRate float64 `toml:"dislike_rate"`
	MinSwipes   int     `toml:"min_swipes"`
	// BlendWeight is how much of the learned vector goes into the
	// adjusted query once feedback is ready.
	BlendWeight float64 `toml:"blend_weight"`
}

type RetrievalConfig struct {
	TimeoutMS  int `toml:"timeout_ms"`
	MaxRetries int `toml:"max_retries"`
	BackoffMS  int `toml:"backoff_ms"`
}

type DataConfig struct {
	MoviesPath string `toml:"movies_path"`
}

type Config struct {
	Server    ServerConfig    `toml:"server"`
	LLM       LLMConfig       `toml:"llm"`
	Index     IndexConfig     `toml:"index"`
	Store     StoreConfig     `toml:"store"`
	Ranking   RankingConfig   `toml:"ranking"`
	Feedback  FeedbackConfig  `toml:"feedback"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Data      DataConfig      `toml:"data"`
}

// Default returns the shipped configuration. Weights follow the tuned
// production values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", CORSOrigins: []string{"*"}},
		LLM: LLMConfig{
			Provider:       "groq",
			Model:          "llama-3.1-8b-instant",
			EmbeddingModel: "text-embedding-3-small",
		},
		Index:     IndexConfig{Backend: "memory", Collection: "movies", Dim: 384},
		Store:     StoreConfig{Backend: "memory"},
		Ranking:   RankingConfig{FairnessWeight: 0.5, CandidatesPerUser: 30, DefaultResults: 10},
		Feedback:  FeedbackConfig{LikeRate: 0.25, DislikeRate: 0.15, MinSwipes: 5, BlendWeight: 0.5},
		Retrieval: RetrievalConfig{TimeoutMS: 8000, MaxRetries: 2, BackoffMS: 200},
		Data:      DataConfig{MoviesPath: "data/movies.json"},
	}
}

// Load reads a TOML file over the defaults, then applies env overrides.
// A missing file is not an error: env-only deployments are supported.
func Load(path string) (*Config, error) {
	cfg := Default()

	if raw, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config '%s': %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setStr := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setStr(&c.Server.Port, "PORT")
	setStr(&c.LLM.Provider, "LLM_PROVIDER")
	setStr(&c.LLM.Model, "LLM_MODEL")
	setStr(&c.LLM.EmbeddingModel, "LLM_EMBEDDING_MODEL")
	setStr(&c.LLM.APIKey, "LLM_API_KEY")
	setStr(&c.LLM.BaseURL, "LLM_BASE_URL")
	setStr(&c.Index.Backend, "INDEX_BACKEND")
	setStr(&c.Index.Address, "MILVUS_ADDRESS")
	setStr(&c.Index.Collection, "MILVUS_COLLECTION")
	setStr(&c.Store.Backend, "STORE_BACKEND")
	setStr(&c.Store.Address, "REDIS_ADDRESS")
	setStr(&c.Store.Password, "REDIS_PASSWORD")
	setStr(&c.Data.MoviesPath, "MOVIES_PATH")

	if v := os.Getenv("FAIRNESS_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Ranking.FairnessWeight = f
		}
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Store.DB = n
		}
	}
}

// Validate runs the startup completeness checks. Failures here are
// configuration errors: fatal, never retried.
func (c *Config) Validate() error {
	if err := mood.Validate(); err != nil {
		return fmt.Errorf("mood tables: %w", err)
	}
	if w := c.Ranking.FairnessWeight; w < 0 || w > 1 {
		return fmt.Errorf("fairness_weight %v out of [0,1]", w)
	}
	if c.Ranking.CandidatesPerUser <= 0 {
		return fmt.Errorf("candidates_per_user must be positive")
	}
	if c.Feedback.LikeRate <= 0 || c.Feedback.LikeRate >= 1 {
		return fmt.Errorf("feedback like_rate %v out of (0,1)", c.Feedback.LikeRate)
	}
	if c.Feedback.DislikeRate < 0 || c.Feedback.DislikeRate > c.Feedback.LikeRate {
		return fmt.Errorf("feedback dislike_rate %v must be within [0, like_rate]", c.Feedback.DislikeRate)
	}
	if c.Feedback.MinSwipes < 1 {
		return fmt.Errorf("feedback min_swipes must be at least 1")
	}
	switch c.Index.Backend {
	case "memory", "milvus":
	default:
		return fmt.Errorf("unknown index backend %q", c.Index.Backend)
	}
	switch c.Store.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}
