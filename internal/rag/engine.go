package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_engine.go -package=mocks resume-qa/internal/rag Engine

import (
	"context"
	"fmt"
	"log/slog"

	"resume-qa/internal/contextutil"
	"resume-qa/internal/indexer"
)

// DefaultK is the number of chunks placed in an answer prompt.
const DefaultK = 4

// Engine is the question-answering surface used by the service and evaluation layers.
type Engine interface {
	// BuildKnowledgeBase chunks, embeds and indexes a document.
	BuildKnowledgeBase(ctx context.Context, text string) (*indexer.KnowledgeBase, error)

	// Answer retrieves context from kb and generates an answer to query.
	Answer(ctx context.Context, query string, kb *indexer.KnowledgeBase) (Answer, error)

	// Retrieve returns up to k chunk texts for query, best first.
	Retrieve(ctx context.Context, query string, kb *indexer.KnowledgeBase, k int) ([]string, error)

	// RetrieveScored is Retrieve with per-candidate scores.
	RetrieveScored(ctx context.Context, query string, kb *indexer.KnowledgeBase, k int) ([]ScoredCandidate, error)
}

// ragEngine implements the Engine interface.
type ragEngine struct {
	builder   *indexer.Builder
	retriever *Retriever
	generator *Generator
	k         int
	logger    *slog.Logger
}

// NewEngine creates a new RAG engine. k <= 0 uses DefaultK.
func NewEngine(builder *indexer.Builder, retriever *Retriever, generator *Generator, k int) Engine {
	if k <= 0 {
		k = DefaultK
	}
	return &ragEngine{
		builder:   builder,
		retriever: retriever,
		generator: generator,
		k:         k,
		logger:    slog.Default(),
	}
}

func (e *ragEngine) getLogger(ctx context.Context) *slog.Logger {
	if l := contextutil.LoggerFromContext(ctx); l != slog.Default() {
		return l
	}
	return e.logger
}

func (e *ragEngine) BuildKnowledgeBase(ctx context.Context, text string) (*indexer.KnowledgeBase, error) {
	return e.builder.Build(ctx, text)
}

func (e *ragEngine) Retrieve(ctx context.Context, query string, kb *indexer.KnowledgeBase, k int) ([]string, error) {
	return e.retriever.Retrieve(ctx, query, kb, k)
}

func (e *ragEngine) RetrieveScored(ctx context.Context, query string, kb *indexer.KnowledgeBase, k int) ([]ScoredCandidate, error) {
	return e.retriever.RetrieveScored(ctx, query, kb, k)
}

// Answer answers a question using RAG.
func (e *ragEngine) Answer(ctx context.Context, query string, kb *indexer.KnowledgeBase) (Answer, error) {
	logger := e.getLogger(ctx)

	logger.InfoContext(ctx, "RAG query started", "question_length", len(query), "k", e.k)

	candidates, err := e.retriever.RetrieveScored(ctx, query, kb, e.k)
	if err != nil {
		return Answer{}, fmt.Errorf("failed to retrieve context: %w", err)
	}

	chunks := make([]string, len(candidates))
	for i, c := range candidates {
		chunks[i] = c.Text
	}

	gen, err := e.generator.Generate(ctx, query, chunks)
	if err != nil {
		return Answer{}, err
	}

	logger.InfoContext(ctx, "RAG query completed",
		"chunks_used", len(chunks),
		"model", gen.Model,
		"used_fallback", gen.UsedFallback,
		"answer_length", len(gen.Text),
	)

	return Answer{
		Text:         gen.Text,
		Model:        gen.Model,
		UsedFallback: gen.UsedFallback,
		Sources:      candidates,
	}, nil
}
