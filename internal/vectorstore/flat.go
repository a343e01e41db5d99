package vectorstore

import (
	"context"
	"sort"
)

// FlatIndex is an exact brute-force index. Every search scans all stored vectors.
type FlatIndex struct {
	vectors [][]float32
	dim     int
}

// NewFlatIndex copies vectors into a new flat index.
func NewFlatIndex(vectors [][]float32) (*FlatIndex, error) {
	dim, err := validateVectors(vectors)
	if err != nil {
		return nil, err
	}

	stored := make([][]float32, len(vectors))
	for i, v := range vectors {
		stored[i] = append([]float32(nil), v...)
	}

	return &FlatIndex{
		vectors: stored,
		dim:     dim,
	}, nil
}

// Search returns the k nearest stored vectors by squared Euclidean distance.
// Equal distances keep insertion order. When k exceeds Len, all vectors are returned.
func (f *FlatIndex) Search(ctx context.Context, query []float32, k int) ([]Neighbor, error) {
	if err := validateQuery(query, k, len(f.vectors), f.dim); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	neighbors := make([]Neighbor, len(f.vectors))
	for i, v := range f.vectors {
		neighbors[i] = Neighbor{Index: i, Distance: SquaredL2(query, v)}
	}

	sortNeighbors(neighbors)

	if k < len(neighbors) {
		neighbors = neighbors[:k]
	}
	return neighbors, nil
}

func (f *FlatIndex) Len() int {
	return len(f.vectors)
}

func (f *FlatIndex) Dimension() int {
	return f.dim
}

// Close is a no-op; the index lives only in memory.
func (f *FlatIndex) Close(ctx context.Context) error {
	return nil
}

// SquaredL2 returns the squared Euclidean distance between a and b, accumulated in float64.
// The vectors must have equal length.
func SquaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// sortNeighbors orders neighbors by distance, then by stored position.
func sortNeighbors(neighbors []Neighbor) []Neighbor {
	sort.SliceStable(neighbors, func(a, b int) bool {
		if neighbors[a].Distance != neighbors[b].Distance {
			return neighbors[a].Distance < neighbors[b].Distance
		}
		return neighbors[a].Index < neighbors[b].Index
	})
	return neighbors
}

// FlatBuilder builds FlatIndex values.
type FlatBuilder struct{}

func (FlatBuilder) Build(ctx context.Context, vectors [][]float32) (Index, error) {
	idx, err := NewFlatIndex(vectors)
	if err != nil {
		return nil, err
	}
	return idx, nil
}
