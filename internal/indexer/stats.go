package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"
)

const (
	// ChunkerVersion is the version identifier for the chunker implementation.
	// Update this when chunking logic changes significantly.
	ChunkerVersion = "fixed-window-v1"
	// TokensPerRune is an approximation for token counting (4 chars per token).
	TokensPerRune = 4.0
)

// Stats describes a built knowledge base.
type Stats struct {
	// Characters is the number of characters in the source document.
	Characters int `json:"characters"`
	// Chunks is the number of chunks embedded and indexed.
	Chunks int `json:"chunks"`
	// ChunkTokenStats contains statistics about estimated token counts per chunk.
	ChunkTokenStats ChunkTokenStats `json:"chunk_token_stats"`
	// ChunkerVersion is the version of the chunker used.
	ChunkerVersion string `json:"chunker_version"`
	// IndexVersion identifies the build parameters (chunker, window sizes, embedding model).
	IndexVersion string `json:"index_version"`
}

// ChunkTokenStats contains statistics about token counts in chunks.
type ChunkTokenStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

// ComputeStats summarizes a document and its chunks.
func ComputeStats(text string, chunks []string, maxLength, overlap int, embeddingModel string) Stats {
	tokenCounts := make([]int, 0, len(chunks))
	for _, chunk := range chunks {
		tokenCounts = append(tokenCounts, estimateTokens(chunk))
	}

	return Stats{
		Characters:      utf8.RuneCountInString(text),
		Chunks:          len(chunks),
		ChunkTokenStats: computeTokenStats(tokenCounts),
		ChunkerVersion:  ChunkerVersion,
		IndexVersion:    IndexVersion(maxLength, overlap, embeddingModel),
	}
}

// IndexVersion hashes the parameters that determine chunk boundaries and vectors.
// Two knowledge bases with the same version embed identical text the same way.
func IndexVersion(maxLength, overlap int, embeddingModel string) string {
	input := fmt.Sprintf("%s|%s|maxLength=%d|overlap=%d", ChunkerVersion, embeddingModel, maxLength, overlap)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16]
}

// estimateTokens approximates a token count from rune count (~4 chars per token).
func estimateTokens(text string) int {
	n := int(math.Round(float64(utf8.RuneCountInString(text)) / TokensPerRune))
	if n < 1 {
		return 1
	}
	return n
}

// computeTokenStats computes min, max, mean, and p95 from token counts.
func computeTokenStats(tokenCounts []int) ChunkTokenStats {
	if len(tokenCounts) == 0 {
		return ChunkTokenStats{}
	}

	sorted := make([]int, len(tokenCounts))
	copy(sorted, tokenCounts)
	sort.Ints(sorted)

	sum := 0
	for _, count := range tokenCounts {
		sum += count
	}
	mean := float64(sum) / float64(len(tokenCounts))

	p95Index := int(math.Ceil(float64(len(sorted)) * 0.95))
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}

	return ChunkTokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100, // Round to 2 decimal places
		P95:  sorted[p95Index],
	}
}
