package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"resume-qa/internal/contextutil"
	"resume-qa/internal/indexer"
	"resume-qa/internal/vectorstore"
)

// ErrNoKnowledgeBase is returned when retrieval is attempted without a knowledge base.
var ErrNoKnowledgeBase = errors.New("no knowledge base")

// Retriever ranks vector-index neighbors by a blend of vector similarity and
// query/chunk token overlap.
type Retriever struct {
	embedder      indexer.Embedder
	lexicalWeight float64
	logger        *slog.Logger
}

// NewRetriever creates a hybrid retriever. A negative weight falls back to DefaultLexicalWeight.
func NewRetriever(embedder indexer.Embedder, lexicalWeight float64) *Retriever {
	if lexicalWeight < 0 {
		lexicalWeight = DefaultLexicalWeight
	}
	return &Retriever{
		embedder:      embedder,
		lexicalWeight: lexicalWeight,
		logger:        slog.Default(),
	}
}

func (r *Retriever) getLogger(ctx context.Context) *slog.Logger {
	if l := contextutil.LoggerFromContext(ctx); l != slog.Default() {
		return l
	}
	return r.logger
}

// Retrieve returns the text of up to k chunks, best first.
func (r *Retriever) Retrieve(ctx context.Context, query string, kb *indexer.KnowledgeBase, k int) ([]string, error) {
	candidates, err := r.RetrieveScored(ctx, query, kb, k)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Text
	}
	return texts, nil
}

// RetrieveScored embeds the query, takes the k nearest chunks from the index and
// re-orders them by hybrid score, descending. Candidates with equal scores keep
// their vector-index order.
func (r *Retriever) RetrieveScored(ctx context.Context, query string, kb *indexer.KnowledgeBase, k int) ([]ScoredCandidate, error) {
	logger := r.getLogger(ctx)

	if kb == nil {
		return nil, ErrNoKnowledgeBase
	}
	if k <= 0 {
		return nil, vectorstore.ErrInvalidK
	}

	vectors, err := r.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed query", "error", err)
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("failed to embed query: expected 1 embedding, got %d", len(vectors))
	}

	neighbors, err := kb.Index().Search(ctx, vectors[0], k)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search vector index", "kb_id", kb.ID(), "k", k, "error", err)
		return nil, fmt.Errorf("failed to search vector index: %w", err)
	}

	queryTokens := tokenSet(query)
	candidates := make([]ScoredCandidate, 0, len(neighbors))
	for rank, n := range neighbors {
		text, ok := kb.Chunk(n.Index)
		if !ok {
			logger.WarnContext(ctx, "skipping neighbor outside chunk list", "index", n.Index, "chunks", kb.Len())
			continue
		}
		overlap := lexicalOverlap(queryTokens, text)
		candidates = append(candidates, ScoredCandidate{
			ChunkIndex:     n.Index,
			Text:           text,
			VectorRank:     rank + 1,
			Distance:       n.Distance,
			ScoreVector:    vectorScore(n.Distance),
			LexicalOverlap: overlap,
			ScoreFinal:     hybridScore(n.Distance, overlap, r.lexicalWeight),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].ScoreFinal > candidates[j].ScoreFinal
	})

	if len(candidates) > 0 {
		logger.DebugContext(ctx, "hybrid retrieval completed",
			"kb_id", kb.ID(),
			"k", k,
			"results", len(candidates),
			"top_chunk", candidates[0].ChunkIndex,
			"top_score", candidates[0].ScoreFinal,
		)
	}

	return candidates, nil
}
