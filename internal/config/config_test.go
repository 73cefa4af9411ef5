package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 0.5, cfg.Ranking.FairnessWeight)
}

func TestLoadTOMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	raw := `
[server]
port = "9090"

[ranking]
fairness_weight = 0.7

[index]
backend = "milvus"
address = "localhost:19530"
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 0.7, cfg.Ranking.FairnessWeight)
	assert.Equal(t, "milvus", cfg.Index.Backend)
	// Untouched sections keep their defaults.
	assert.Equal(t, 30, cfg.Ranking.CandidatesPerUser)
	assert.Equal(t, "memory", cfg.Store.Backend)
}

func TestLoadMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not [valid toml"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("LLM_PROVIDER", "claude")
	t.Setenv("FAIRNESS_WEIGHT", "0.9")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "claude", cfg.LLM.Provider)
	assert.Equal(t, 0.9, cfg.Ranking.FairnessWeight)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"fairness weight above one", func(c *Config) { c.Ranking.FairnessWeight = 1.5 }},
		{"negative fairness weight", func(c *Config) { c.Ranking.FairnessWeight = -0.1 }},
		{"zero candidates", func(c *Config) { c.Ranking.CandidatesPerUser = 0 }},
		{"like rate too large", func(c *Config) { c.Feedback.LikeRate = 1.0 }},
		{"dislike above like", func(c *Config) { c.Feedback.DislikeRate = 0.5 }},
		{"zero min swipes", func(c *Config) { c.Feedback.MinSwipes = 0 }},
		{"unknown index backend", func(c *Config) { c.Index.Backend = "pinecone" }},
		{"unknown store backend", func(c *Config) { c.Store.Backend = "postgres" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
