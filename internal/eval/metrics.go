package eval

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/token/porter"
)

// Qualitative error kinds. A case gets at most one, checked in this order.
const (
	ErrorRetrieval  = "retrieval error"
	ErrorGeneration = "generation error"
	ErrorIncomplete = "incomplete answer"
)

const (
	bleuMaxOrder = 4
	// bleuSmoothingK is the k of Chen and Cherry's smoothing method 4.
	bleuSmoothingK = 5.0
)

// GoldTerms splits a gold answer into lower-cased whitespace terms.
func GoldTerms(gold string) []string {
	return strings.Fields(strings.ToLower(gold))
}

// ContainsAnyTerm reports whether any term occurs in text as a substring,
// ignoring case.
func ContainsAnyTerm(text string, terms []string) bool {
	text = strings.ToLower(text)
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// RetrievalHit reports whether any gold term appears in the joined chunks.
func RetrievalHit(chunks []string, gold string) bool {
	return ContainsAnyTerm(strings.Join(chunks, " "), GoldTerms(gold))
}

// Hallucinated reports whether answer mentions none of the gold terms.
func Hallucinated(answer, gold string) bool {
	return !ContainsAnyTerm(answer, GoldTerms(gold))
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0 when
// either is a zero vector or their lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// SentenceBLEU scores hypothesis against a single reference with uniform
// weights over 1- to 4-grams. Zero n-gram precisions are smoothed with method 4
// of Chen and Cherry (2014). A hypothesis sharing no unigram with the
// reference scores 0.
func SentenceBLEU(reference, hypothesis []string) float64 {
	hypLen := len(hypothesis)
	if hypLen == 0 || len(reference) == 0 {
		return 0
	}

	precisions := make([]float64, 0, bleuMaxOrder)
	incvnt := 1
	for n := 1; n <= bleuMaxOrder; n++ {
		matched, total := clippedMatches(reference, hypothesis, n)
		if n == 1 && matched == 0 {
			return 0
		}
		denom := float64(max(1, total))
		switch {
		case matched > 0:
			precisions = append(precisions, float64(matched)/denom)
		case hypLen > 1:
			smoothed := 1 / (math.Pow(2, float64(incvnt)) * bleuSmoothingK / math.Log(float64(hypLen)))
			precisions = append(precisions, smoothed/denom)
			incvnt++
		}
	}

	// Orders that could not be smoothed contribute nothing.
	var logSum float64
	for _, p := range precisions {
		logSum += math.Log(p) / bleuMaxOrder
	}

	return brevityPenalty(len(reference), hypLen) * math.Exp(logSum)
}

func brevityPenalty(refLen, hypLen int) float64 {
	if hypLen > refLen {
		return 1
	}
	return math.Exp(1 - float64(refLen)/float64(hypLen))
}

// clippedMatches counts hypothesis n-grams also in reference, each clipped to
// its reference count, and the total number of hypothesis n-grams.
func clippedMatches(reference, hypothesis []string, n int) (matched, total int) {
	refCounts := ngramCounts(reference, n)
	for gram, count := range ngramCounts(hypothesis, n) {
		total += count
		matched += min(count, refCounts[gram])
	}
	return matched, total
}

func ngramCounts(tokens []string, n int) map[string]int {
	counts := make(map[string]int)
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], "\x00")]++
	}
	return counts
}

// RougeTokens lower-cases text, splits it on anything that is not a letter or
// digit and Porter-stems tokens longer than three characters.
func RougeTokens(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(fields) == 0 {
		return nil
	}

	var (
		stream    analysis.TokenStream
		positions []int
	)
	for i, f := range fields {
		if utf8.RuneCountInString(f) > 3 {
			stream = append(stream, &analysis.Token{Term: []byte(f)})
			positions = append(positions, i)
		}
	}
	stream = porter.NewPorterStemmer().Filter(stream)
	for j, tok := range stream {
		fields[positions[j]] = string(tok.Term)
	}
	return fields
}

// Rouge1F1 is the unigram overlap F-measure between reference and candidate.
func Rouge1F1(reference, candidate string) float64 {
	ref, cand := RougeTokens(reference), RougeTokens(candidate)
	if len(ref) == 0 || len(cand) == 0 {
		return 0
	}

	refCounts := make(map[string]int, len(ref))
	for _, t := range ref {
		refCounts[t]++
	}
	overlap := 0
	for _, t := range cand {
		if refCounts[t] > 0 {
			refCounts[t]--
			overlap++
		}
	}
	return fMeasure(overlap, len(ref), len(cand))
}

// RougeLF1 is the longest-common-subsequence F-measure between reference and
// candidate.
func RougeLF1(reference, candidate string) float64 {
	ref, cand := RougeTokens(reference), RougeTokens(candidate)
	if len(ref) == 0 || len(cand) == 0 {
		return 0
	}
	return fMeasure(lcsLength(ref, cand), len(ref), len(cand))
}

func fMeasure(overlap, refLen, candLen int) float64 {
	if overlap == 0 {
		return 0
	}
	precision := float64(overlap) / float64(candLen)
	recall := float64(overlap) / float64(refLen)
	return 2 * precision * recall / (precision + recall)
}

func lcsLength(a, b []string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// Classify returns the qualitative error for a case, or "" when there is none.
func Classify(hit bool, similarity, threshold float64, answer string, minAnswerLength int) string {
	switch {
	case !hit:
		return ErrorRetrieval
	case similarity < threshold:
		return ErrorGeneration
	case utf8.RuneCountInString(strings.TrimSpace(answer)) < minAnswerLength:
		return ErrorIncomplete
	default:
		return ""
	}
}
