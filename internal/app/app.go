// Package app assembles the question-answering engine from configuration.
// Both the API server and the evaluation CLI build their engine here.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"resume-qa/internal/config"
	"resume-qa/internal/handlers"
	"resume-qa/internal/indexer"
	"resume-qa/internal/llm"
	"resume-qa/internal/rag"
	"resume-qa/internal/vectorstore"
)

// Components are the wired engine and the clients behind it.
type Components struct {
	Engine   rag.Engine
	Embedder *llm.CachedEmbedder
	Chat     *llm.Client
	// Qdrant is nil unless the qdrant index backend is configured.
	Qdrant *vectorstore.QdrantStore

	primaryModel string
}

// Build wires chunker, embedder, index backend, retriever and generator.
// It performs no network calls.
func Build(cfg *config.Config) (*Components, error) {
	opts := []llm.Option{llm.WithTimeout(cfg.LLMRequestTimeout)}

	embeddings := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.APIKey(), cfg.EmbeddingModel, cfg.EmbeddingDimensions, opts...)
	embedder := llm.NewCachedEmbedder(embeddings, cfg.EmbeddingModel, cfg.EmbeddingCacheSize)
	chat := llm.NewClient(cfg.LLMBaseURL, cfg.APIKey(), cfg.PrimaryModel, opts...)

	chunker, err := indexer.NewChunker(cfg.ChunkMaxLength, cfg.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("failed to create chunker: %w", err)
	}

	c := &Components{
		Embedder:     embedder,
		Chat:         chat,
		primaryModel: cfg.PrimaryModel,
	}

	var indexes vectorstore.Builder = vectorstore.FlatBuilder{}
	if cfg.IndexBackend == config.BackendQdrant {
		store, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create qdrant client: %w", err)
		}
		c.Qdrant = store
		indexes = store
	}

	builder := indexer.NewBuilder(chunker, embedder, indexes, cfg.EmbeddingModel)
	retriever := rag.NewRetriever(embedder, cfg.LexicalWeight)
	generator := rag.NewGenerator(chat, rag.GeneratorConfig{
		PrimaryModel:  cfg.PrimaryModel,
		FallbackModel: cfg.FallbackModel,
		Temperature:   cfg.Temperature,
		MaxTokens:     cfg.MaxTokens,
	})
	c.Engine = rag.NewEngine(builder, retriever, generator, cfg.RetrievalK)

	return c, nil
}

// HealthChecks returns the dependency checks served by /api/health.
func (c *Components) HealthChecks(db *sql.DB) map[string]handlers.HealthCheck {
	checks := map[string]handlers.HealthCheck{
		"llm": func(ctx context.Context) error {
			ok, err := c.Chat.ModelAvailable(ctx, c.primaryModel)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("model %q not available", c.primaryModel)
			}
			return nil
		},
	}
	if db != nil {
		checks["database"] = db.PingContext
	}
	if c.Qdrant != nil {
		checks["vector_store"] = c.Qdrant.HealthCheck
	}
	return checks
}

// Close releases the vector database connection, if any.
func (c *Components) Close() error {
	if c.Qdrant == nil {
		return nil
	}
	return c.Qdrant.Close()
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text", "":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return slog.New(handler), nil
}

// ParseLevel maps debug, info, warn and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, errors.Join(fmt.Errorf("invalid log level %q", s), err)
	}
	return lvl, nil
}
