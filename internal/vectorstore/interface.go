package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_index.go -package=mocks resume-qa/internal/vectorstore Index,Builder

import "context"

// Neighbor is one search hit: the position of the stored vector in build order
// and its squared Euclidean distance to the query.
type Neighbor struct {
	Index    int
	Distance float64
}

// Index is a read-only nearest-neighbor index over a fixed set of vectors.
type Index interface {
	// Search returns up to k neighbors of query in ascending distance order.
	Search(ctx context.Context, query []float32, k int) ([]Neighbor, error)

	// Len returns the number of stored vectors.
	Len() int

	// Dimension returns the vector dimension, or 0 for an empty index.
	Dimension() int

	// Close releases any resources held by the index.
	Close(ctx context.Context) error
}

// Builder constructs an Index over vectors. Vector i is reported as Neighbor.Index i.
type Builder interface {
	Build(ctx context.Context, vectors [][]float32) (Index, error)
}
