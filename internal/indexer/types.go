package indexer

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks resume-qa/internal/indexer Embedder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"resume-qa/internal/vectorstore"
)

// Embedder turns texts into vectors, one per input text and in input order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// KnowledgeBase is the ordered chunk list of one document plus the vector index
// over their embeddings. Neighbor i of the index is chunk i. A knowledge base is
// never mutated after construction.
type KnowledgeBase struct {
	id        string
	chunks    []string
	index     vectorstore.Index
	stats     Stats
	createdAt time.Time
}

// NewKnowledgeBase pairs chunks with an index built over their embeddings.
func NewKnowledgeBase(chunks []string, index vectorstore.Index, stats Stats) (*KnowledgeBase, error) {
	if index == nil {
		return nil, fmt.Errorf("knowledge base requires an index")
	}
	if index.Len() != len(chunks) {
		return nil, fmt.Errorf("index holds %d vectors for %d chunks", index.Len(), len(chunks))
	}

	return &KnowledgeBase{
		id:        uuid.New().String(),
		chunks:    append([]string(nil), chunks...),
		index:     index,
		stats:     stats,
		createdAt: time.Now().UTC(),
	}, nil
}

func (kb *KnowledgeBase) ID() string {
	return kb.id
}

// Len returns the number of chunks.
func (kb *KnowledgeBase) Len() int {
	return len(kb.chunks)
}

// Chunk returns chunk i and whether it exists.
func (kb *KnowledgeBase) Chunk(i int) (string, bool) {
	if i < 0 || i >= len(kb.chunks) {
		return "", false
	}
	return kb.chunks[i], true
}

// Chunks returns a copy of the chunk list in document order.
func (kb *KnowledgeBase) Chunks() []string {
	return append([]string(nil), kb.chunks...)
}

func (kb *KnowledgeBase) Index() vectorstore.Index {
	return kb.index
}

func (kb *KnowledgeBase) Stats() Stats {
	return kb.stats
}

func (kb *KnowledgeBase) CreatedAt() time.Time {
	return kb.createdAt
}

// Close releases the vector index.
func (kb *KnowledgeBase) Close(ctx context.Context) error {
	return kb.index.Close(ctx)
}
