package rag

import "strings"

// DefaultLexicalWeight is the score added per query token found in a chunk.
const DefaultLexicalWeight = 0.1

// vectorScore maps a squared distance onto (0, 1], decreasing in distance.
func vectorScore(distance float64) float64 {
	return 1 / (1 + distance)
}

// tokenSet lower-cases text and splits it on whitespace. Punctuation stays
// attached to its token, so "SQL," and "sql" are different tokens.
func tokenSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// lexicalOverlap counts distinct query tokens that also occur in the chunk.
func lexicalOverlap(queryTokens map[string]struct{}, chunk string) int {
	if len(queryTokens) == 0 {
		return 0
	}
	chunkTokens := tokenSet(chunk)
	n := 0
	for token := range queryTokens {
		if _, ok := chunkTokens[token]; ok {
			n++
		}
	}
	return n
}

func hybridScore(distance float64, overlap int, weight float64) float64 {
	return vectorScore(distance) + weight*float64(overlap)
}
