package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envVars = []string{
	"LLM_API_KEY", "OPENAI_API_KEY", "LLM_BASE_URL", "LLM_REQUEST_TIMEOUT",
	"LLM_PRIMARY_MODEL", "LLM_FALLBACK_MODEL", "LLM_TEMPERATURE", "LLM_MAX_TOKENS",
	"EMBEDDING_BASE_URL", "EMBEDDING_MODEL", "EMBEDDING_DIMENSIONS", "EMBEDDING_CACHE_SIZE",
	"CHUNK_MAX_LENGTH", "CHUNK_OVERLAP", "RETRIEVAL_K", "LEXICAL_WEIGHT",
	"MIN_RESUME_CHARS", "MAX_UPLOAD_BYTES", "INDEX_BACKEND", "QDRANT_URL",
	"DB_PATH", "API_PORT", "LOG_LEVEL", "LOG_FORMAT",
	"SENTRY_DSN", "SENTRY_ENVIRONMENT", "EVAL_SIMILARITY_THRESHOLD",
}

// clearEnv unsets every config key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envVars {
		original, ok := os.LookupEnv(key)
		_ = os.Unsetenv(key)
		if ok {
			t.Cleanup(func() { _ = os.Setenv(key, original) })
		} else {
			t.Cleanup(func() { _ = os.Unsetenv(key) })
		}
	}
	// Keep .env discovery away from the developer's files.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	dbPath := filepath.Join(t.TempDir(), "nested", "qa.db")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DB_PATH", dbPath)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.APIKey())
	assert.Equal(t, "https://api.openai.com", cfg.LLMBaseURL)
	assert.Equal(t, cfg.LLMBaseURL, cfg.EmbeddingBaseURL, "embedding URL defaults to the LLM URL")
	assert.Equal(t, 60*time.Second, cfg.LLMRequestTimeout)
	assert.Equal(t, "gpt-4.1-mini", cfg.PrimaryModel)
	assert.Equal(t, "gpt-4.1", cfg.FallbackModel)
	assert.InDelta(t, 0.2, cfg.Temperature, 1e-6)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, 800, cfg.ChunkMaxLength)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, 4, cfg.RetrievalK)
	assert.InDelta(t, 0.1, cfg.LexicalWeight, 1e-9)
	assert.Equal(t, 100, cfg.MinResumeChars)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, BackendFlat, cfg.IndexBackend)
	assert.Equal(t, "9000", cfg.APIPort)
	assert.InDelta(t, 0.55, cfg.EvalSimilarityThreshold, 1e-9)

	info, err := os.Stat(filepath.Dir(dbPath))
	require.NoError(t, err, "data directory is created")
	assert.True(t, info.IsDir())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_API_KEY", "primary-key")
	t.Setenv("OPENAI_API_KEY", "ignored")
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "qa.db"))
	t.Setenv("EMBEDDING_BASE_URL", "http://localhost:8081")
	t.Setenv("LLM_FALLBACK_MODEL", "none")
	t.Setenv("INDEX_BACKEND", "Qdrant")
	t.Setenv("RETRIEVAL_K", "6")
	t.Setenv("LLM_REQUEST_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "primary-key", cfg.APIKey())
	assert.Equal(t, "http://localhost:8081", cfg.EmbeddingBaseURL)
	assert.Empty(t, cfg.FallbackModel, "none disables the fallback")
	assert.Equal(t, BackendQdrant, cfg.IndexBackend)
	assert.Equal(t, 6, cfg.RetrievalK)
	assert.Equal(t, 5*time.Second, cfg.LLMRequestTimeout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing api key", env: map[string]string{}},
		{name: "overlap not below max length", env: map[string]string{"OPENAI_API_KEY": "k", "CHUNK_OVERLAP": "800"}},
		{name: "negative overlap", env: map[string]string{"OPENAI_API_KEY": "k", "CHUNK_OVERLAP": "-1"}},
		{name: "zero k", env: map[string]string{"OPENAI_API_KEY": "k", "RETRIEVAL_K": "0"}},
		{name: "negative weight", env: map[string]string{"OPENAI_API_KEY": "k", "LEXICAL_WEIGHT": "-0.5"}},
		{name: "unknown backend", env: map[string]string{"OPENAI_API_KEY": "k", "INDEX_BACKEND": "faiss"}},
		{name: "malformed integer", env: map[string]string{"OPENAI_API_KEY": "k", "RETRIEVAL_K": "four"}},
		{name: "threshold out of range", env: map[string]string{"OPENAI_API_KEY": "k", "EVAL_SIMILARITY_THRESHOLD": "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "qa.db"))
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	dir, err := os.Getwd()
	require.NoError(t, err)

	content := "OPENAI_API_KEY=from-dotenv\nRETRIEVAL_K=7\nDB_PATH=" + filepath.Join(dir, "qa.db") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("OPENAI_API_KEY")
		_ = os.Unsetenv("RETRIEVAL_K")
		_ = os.Unsetenv("DB_PATH")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.APIKey())
	assert.Equal(t, 7, cfg.RetrievalK)
}
