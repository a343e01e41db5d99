package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Index backends.
const (
	BackendFlat   = "flat"
	BackendQdrant = "qdrant"
)

// Config holds all configuration for the application.
type Config struct {
	LLMAPIKey         string        `envconfig:"LLM_API_KEY"`
	OpenAIAPIKey      string        `envconfig:"OPENAI_API_KEY"`
	LLMBaseURL        string        `envconfig:"LLM_BASE_URL" default:"https://api.openai.com"`
	LLMRequestTimeout time.Duration `envconfig:"LLM_REQUEST_TIMEOUT" default:"60s"`
	PrimaryModel      string        `envconfig:"LLM_PRIMARY_MODEL" default:"gpt-4.1-mini"`
	// FallbackModel may be set to "none" to disable the fallback.
	FallbackModel string  `envconfig:"LLM_FALLBACK_MODEL" default:"gpt-4.1"`
	Temperature   float32 `envconfig:"LLM_TEMPERATURE" default:"0.2"`
	MaxTokens     int     `envconfig:"LLM_MAX_TOKENS" default:"0"`

	// EmbeddingBaseURL defaults to LLMBaseURL.
	EmbeddingBaseURL    string `envconfig:"EMBEDDING_BASE_URL"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"0"`
	EmbeddingCacheSize  int    `envconfig:"EMBEDDING_CACHE_SIZE" default:"1000"`

	ChunkMaxLength int     `envconfig:"CHUNK_MAX_LENGTH" default:"800"`
	ChunkOverlap   int     `envconfig:"CHUNK_OVERLAP" default:"200"`
	RetrievalK     int     `envconfig:"RETRIEVAL_K" default:"4"`
	LexicalWeight  float64 `envconfig:"LEXICAL_WEIGHT" default:"0.1"`

	MinResumeChars int   `envconfig:"MIN_RESUME_CHARS" default:"100"`
	MaxUploadBytes int64 `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`

	IndexBackend string `envconfig:"INDEX_BACKEND" default:"flat"`
	QdrantURL    string `envconfig:"QDRANT_URL" default:"http://localhost:6333"`

	DBPath  string `envconfig:"DB_PATH" default:"./data/resume-qa.db"`
	APIPort string `envconfig:"API_PORT" default:"9000"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	SentryDSN         string `envconfig:"SENTRY_DSN"`
	SentryEnvironment string `envconfig:"SENTRY_ENVIRONMENT" default:"development"`

	EvalSimilarityThreshold float64 `envconfig:"EVAL_SIMILARITY_THRESHOLD" default:"0.55"`
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the result.
// If a .env file exists in the current directory or up to five parents, it is
// loaded first. Environment variables already set take precedence over .env values.
func Load() (*Config, error) {
	loadDotEnv()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadForEval is Load without creating the database directory.
func LoadForEval() (*Config, error) {
	loadDotEnv()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotEnv() {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func (c *Config) finish() error {
	if err := c.Validate(); err != nil {
		return err
	}

	// Create the data directory for the database file.
	dataDir := filepath.Dir(c.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// Validate checks semantic constraints that struct tags cannot express.
func (c *Config) Validate() error {
	if c.APIKey() == "" {
		return fmt.Errorf("LLM_API_KEY or OPENAI_API_KEY is required")
	}
	if c.EmbeddingBaseURL == "" {
		c.EmbeddingBaseURL = c.LLMBaseURL
	}
	if strings.EqualFold(c.FallbackModel, "none") {
		c.FallbackModel = ""
	}

	if c.ChunkMaxLength <= 0 {
		return fmt.Errorf("CHUNK_MAX_LENGTH must be greater than 0")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkMaxLength {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_MAX_LENGTH), got %d", c.ChunkOverlap)
	}
	if c.RetrievalK <= 0 {
		return fmt.Errorf("RETRIEVAL_K must be greater than 0")
	}
	if c.LexicalWeight < 0 {
		return fmt.Errorf("LEXICAL_WEIGHT must not be negative")
	}
	if c.EmbeddingDimensions < 0 {
		return fmt.Errorf("EMBEDDING_DIMENSIONS must not be negative")
	}
	if c.MinResumeChars < 0 {
		return fmt.Errorf("MIN_RESUME_CHARS must not be negative")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be greater than 0")
	}

	c.IndexBackend = strings.ToLower(c.IndexBackend)
	switch c.IndexBackend {
	case BackendFlat, BackendQdrant:
	default:
		return fmt.Errorf("INDEX_BACKEND must be %q or %q, got %q", BackendFlat, BackendQdrant, c.IndexBackend)
	}

	if c.EvalSimilarityThreshold < -1 || c.EvalSimilarityThreshold > 1 {
		return fmt.Errorf("EVAL_SIMILARITY_THRESHOLD must be within [-1, 1]")
	}

	return nil
}

// APIKey returns LLM_API_KEY, falling back to OPENAI_API_KEY.
func (c *Config) APIKey() string {
	if c.LLMAPIKey != "" {
		return c.LLMAPIKey
	}
	return c.OpenAIAPIKey
}
