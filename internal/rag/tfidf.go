package rag

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
)

const tfidfField = "text"

type tfidfDocument struct {
	Text string `json:"text"`
}

// TFIDFIndex is a purely lexical baseline over a chunk list, backed by an
// in-memory bleve index with English analysis.
type TFIDFIndex struct {
	index  bleve.Index
	chunks []string
}

// NewTFIDFIndex indexes chunks in memory. Close releases the index.
func NewTFIDFIndex(chunks []string) (*TFIDFIndex, error) {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	idx, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create tf-idf index: %w", err)
	}

	batch := idx.NewBatch()
	for i, chunk := range chunks {
		if err := batch.Index(strconv.Itoa(i), tfidfDocument{Text: chunk}); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("failed to index chunk %d: %w", i, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("failed to execute batch: %w", err)
	}

	return &TFIDFIndex{
		index:  idx,
		chunks: append([]string(nil), chunks...),
	}, nil
}

// Retrieve returns up to k chunks ranked by lexical relevance to query. When
// fewer than k chunks match, the remaining slots are filled with unmatched
// chunks in document order.
func (t *TFIDFIndex) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}
	if k > len(t.chunks) {
		k = len(t.chunks)
	}

	results := make([]string, 0, k)
	used := make(map[int]bool, k)

	if strings.TrimSpace(query) != "" {
		matchQuery := bleve.NewMatchQuery(query)
		matchQuery.SetField(tfidfField)

		req := bleve.NewSearchRequest(matchQuery)
		req.Size = k

		res, err := t.index.SearchInContext(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("tf-idf search failed: %w", err)
		}

		for _, hit := range res.Hits {
			i, err := strconv.Atoi(hit.ID)
			if err != nil || i < 0 || i >= len(t.chunks) || used[i] {
				continue
			}
			used[i] = true
			results = append(results, t.chunks[i])
		}
	}

	for i := 0; i < len(t.chunks) && len(results) < k; i++ {
		if !used[i] {
			results = append(results, t.chunks[i])
		}
	}

	return results, nil
}

// Close releases the underlying index.
func (t *TFIDFIndex) Close() error {
	return t.index.Close()
}
