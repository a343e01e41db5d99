package rag

// ScoredCandidate is one retrieved chunk with the scores that ranked it.
type ScoredCandidate struct {
	// ChunkIndex is the chunk's position in the knowledge base.
	ChunkIndex int `json:"chunk_index"`
	// Text is the chunk text.
	Text string `json:"text"`
	// VectorRank is the 1-based rank returned by the vector index.
	VectorRank int `json:"vector_rank"`
	// Distance is the squared Euclidean distance to the query vector.
	Distance float64 `json:"distance"`
	// ScoreVector is 1 / (1 + Distance).
	ScoreVector float64 `json:"score_vector"`
	// LexicalOverlap is the number of distinct query tokens present in the chunk.
	LexicalOverlap int `json:"lexical_overlap"`
	// ScoreFinal is the hybrid score used for ordering.
	ScoreFinal float64 `json:"score_final"`
}

// Answer is a generated answer together with the context it was grounded on.
type Answer struct {
	// Text is the model's answer.
	Text string `json:"answer"`
	// Model is the model that produced the answer.
	Model string `json:"model"`
	// UsedFallback is true when the primary model failed and the fallback answered.
	UsedFallback bool `json:"used_fallback"`
	// Sources are the chunks placed in the prompt, best first.
	Sources []ScoredCandidate `json:"sources"`
}
