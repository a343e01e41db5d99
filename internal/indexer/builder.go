package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"resume-qa/internal/contextutil"
	"resume-qa/internal/vectorstore"
)

// ErrEmptyDocument is returned when the document text is empty or whitespace.
var ErrEmptyDocument = errors.New("document text is empty")

// Builder turns document text into a KnowledgeBase: chunk, embed all chunks in
// one batch, then index the vectors.
type Builder struct {
	chunker        *Chunker
	embedder       Embedder
	indexes        vectorstore.Builder
	embeddingModel string
	logger         *slog.Logger
}

// NewBuilder creates a knowledge base builder. embeddingModel only feeds the
// index version reported in Stats.
func NewBuilder(chunker *Chunker, embedder Embedder, indexes vectorstore.Builder, embeddingModel string) *Builder {
	return &Builder{
		chunker:        chunker,
		embedder:       embedder,
		indexes:        indexes,
		embeddingModel: embeddingModel,
		logger:         slog.Default(),
	}
}

func (b *Builder) getLogger(ctx context.Context) *slog.Logger {
	if l := contextutil.LoggerFromContext(ctx); l != slog.Default() {
		return l
	}
	return b.logger
}

// Build runs the full pipeline. On failure no knowledge base is returned and any
// index created along the way is closed.
func (b *Builder) Build(ctx context.Context, text string) (*KnowledgeBase, error) {
	logger := b.getLogger(ctx)

	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	chunks, err := b.chunker.Split(text)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk document: %w", err)
	}

	logger.DebugContext(ctx, "chunked document", "chunks", len(chunks), "max_length", b.chunker.MaxLength, "overlap", b.chunker.Overlap)

	vectors, err := b.embedder.EmbedTexts(ctx, chunks)
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed chunks", "chunks", len(chunks), "error", err)
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("failed to embed chunks: expected %d embeddings, got %d", len(chunks), len(vectors))
	}

	index, err := b.indexes.Build(ctx, vectors)
	if err != nil {
		logger.ErrorContext(ctx, "failed to build vector index", "vectors", len(vectors), "error", err)
		return nil, fmt.Errorf("failed to build vector index: %w", err)
	}

	stats := ComputeStats(text, chunks, b.chunker.MaxLength, b.chunker.Overlap, b.embeddingModel)
	kb, err := NewKnowledgeBase(chunks, index, stats)
	if err != nil {
		if closeErr := index.Close(ctx); closeErr != nil {
			logger.WarnContext(ctx, "failed to close index after build error", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to assemble knowledge base: %w", err)
	}

	logger.InfoContext(ctx, "built knowledge base",
		"kb_id", kb.ID(),
		"characters", stats.Characters,
		"chunks", stats.Chunks,
		"dimension", index.Dimension(),
		"index_version", stats.IndexVersion,
	)

	return kb, nil
}
