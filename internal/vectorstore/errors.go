package vectorstore

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidK is returned when a search asks for k <= 0 neighbors.
	ErrInvalidK = errors.New("k must be greater than 0")

	// ErrEmptyIndex is returned when searching an index that holds no vectors.
	ErrEmptyIndex = errors.New("index is empty")

	// ErrIndexClosed is returned when searching an index after Close.
	ErrIndexClosed = errors.New("index is closed")

	// ErrDimensionMismatch is wrapped by every DimensionMismatchError.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// DimensionMismatchError reports a vector whose length differs from the index dimension.
type DimensionMismatchError struct {
	Expected int
	Got      int
	// Position is the offending vector's position during build, or -1 for a query.
	Position int
}

func (e *DimensionMismatchError) Error() string {
	if e.Position < 0 {
		return fmt.Sprintf("query dimension mismatch: expected %d, got %d", e.Expected, e.Got)
	}
	return fmt.Sprintf("vector %d dimension mismatch: expected %d, got %d", e.Position, e.Expected, e.Got)
}

func (e *DimensionMismatchError) Unwrap() error {
	return ErrDimensionMismatch
}

func validateQuery(query []float32, k, size, dim int) error {
	if k <= 0 {
		return ErrInvalidK
	}
	if size == 0 {
		return ErrEmptyIndex
	}
	if len(query) != dim {
		return &DimensionMismatchError{Expected: dim, Got: len(query), Position: -1}
	}
	return nil
}

func validateVectors(vectors [][]float32) (int, error) {
	if len(vectors) == 0 {
		return 0, nil
	}
	dim := len(vectors[0])
	if dim == 0 {
		return 0, fmt.Errorf("vector 0 has zero dimension: %w", ErrDimensionMismatch)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return 0, &DimensionMismatchError{Expected: dim, Got: len(v), Position: i}
		}
	}
	return dim, nil
}
