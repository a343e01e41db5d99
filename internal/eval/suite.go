// Package eval scores retrieval and answer quality of the question-answering
// engine against a suite of questions with gold answers.
package eval

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Suite defaults.
const (
	DefaultK                   = 5
	DefaultSimilarityThreshold = 0.55
	DefaultMinAnswerLength     = 5
)

//go:embed default_suite.yaml
var defaultSuite []byte

// Case is one question with its reference answer.
type Case struct {
	Question string `yaml:"question" json:"question"`
	Gold     string `yaml:"gold" json:"gold"`
}

// Suite is a set of cases plus the parameters they are scored with.
type Suite struct {
	Name string `yaml:"name" json:"name"`
	// K is the number of chunks retrieved when checking for a retrieval hit.
	K int `yaml:"k" json:"k"`
	// SimilarityThreshold is the answer/gold cosine similarity below which a
	// retrieved-but-wrong answer counts as a generation error.
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold"`
	// MinAnswerLength is the character count below which an answer is incomplete.
	MinAnswerLength int    `yaml:"min_answer_length" json:"min_answer_length"`
	Cases           []Case `yaml:"cases" json:"cases"`
}

// DefaultSuite returns the built-in product manager suite.
func DefaultSuite() (*Suite, error) {
	return ParseSuite(defaultSuite)
}

// LoadSuite reads a YAML suite from path.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite: %w", err)
	}
	return ParseSuite(data)
}

// ParseSuite decodes a YAML suite, fills unset parameters with defaults and
// validates the cases.
func ParseSuite(data []byte) (*Suite, error) {
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse suite: %w", err)
	}

	if s.K == 0 {
		s.K = DefaultK
	}
	if s.SimilarityThreshold == 0 {
		s.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if s.MinAnswerLength == 0 {
		s.MinAnswerLength = DefaultMinAnswerLength
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks parameters and cases.
func (s *Suite) Validate() error {
	if len(s.Cases) == 0 {
		return fmt.Errorf("suite has no cases")
	}
	if s.K <= 0 {
		return fmt.Errorf("suite k must be greater than 0, got %d", s.K)
	}
	if s.SimilarityThreshold < -1 || s.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold must be within [-1, 1], got %v", s.SimilarityThreshold)
	}
	if s.MinAnswerLength < 0 {
		return fmt.Errorf("min answer length must not be negative")
	}
	for i, c := range s.Cases {
		if strings.TrimSpace(c.Question) == "" {
			return fmt.Errorf("case %d: question is required", i+1)
		}
		if strings.TrimSpace(c.Gold) == "" {
			return fmt.Errorf("case %d: gold answer is required", i+1)
		}
	}
	return nil
}
