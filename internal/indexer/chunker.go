package indexer

import (
	"errors"
	"fmt"
)

const (
	// DefaultMaxLength is the default chunk window, in characters.
	DefaultMaxLength = 800
	// DefaultOverlap is the default number of characters shared by consecutive chunks.
	DefaultOverlap = 200
)

// ErrInvalidChunkConfig is wrapped by every ConfigError.
var ErrInvalidChunkConfig = errors.New("invalid chunk configuration")

// ConfigError reports a chunker configuration that cannot produce a terminating split.
type ConfigError struct {
	MaxLength int
	Overlap   int
	Reason    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid chunk configuration (max_length=%d, overlap=%d): %s", e.MaxLength, e.Overlap, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidChunkConfig
}

// Chunker splits document text into overlapping fixed-length windows.
type Chunker struct {
	MaxLength int
	Overlap   int
}

// NewChunker creates a chunker, rejecting configurations that would never advance.
func NewChunker(maxLength, overlap int) (*Chunker, error) {
	if err := validateChunkConfig(maxLength, overlap); err != nil {
		return nil, err
	}
	return &Chunker{
		MaxLength: maxLength,
		Overlap:   overlap,
	}, nil
}

// Split splits text using the chunker's window settings.
func (c *Chunker) Split(text string) ([]string, error) {
	return Split(text, c.MaxLength, c.Overlap)
}

// Split cuts text into windows of at most maxLength characters, each starting
// maxLength-overlap characters after the previous one. Lengths count Unicode
// code points, not bytes.
//
// Text that fits in one window (including empty text) yields exactly one chunk
// equal to the input. Otherwise windows are emitted until the start offset passes
// the end of the text, clipping each window to the text. A window that starts
// inside the previous chunk's overlap is still emitted, so the last two chunks
// may both be shorter than maxLength.
func Split(text string, maxLength, overlap int) ([]string, error) {
	if err := validateChunkConfig(maxLength, overlap); err != nil {
		return nil, err
	}

	runes := []rune(text)
	if len(runes) <= maxLength {
		return []string{text}, nil
	}

	step := maxLength - overlap
	chunks := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := min(start+maxLength, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}

	return chunks, nil
}

func validateChunkConfig(maxLength, overlap int) error {
	switch {
	case maxLength <= 0:
		return &ConfigError{MaxLength: maxLength, Overlap: overlap, Reason: "max_length must be positive"}
	case overlap < 0:
		return &ConfigError{MaxLength: maxLength, Overlap: overlap, Reason: "overlap must not be negative"}
	case overlap >= maxLength:
		return &ConfigError{MaxLength: maxLength, Overlap: overlap, Reason: "overlap must be smaller than max_length"}
	}
	return nil
}
