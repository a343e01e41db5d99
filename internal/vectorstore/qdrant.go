package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"resume-qa/internal/contextutil"
)

const collectionPrefix = "kb_"

// QdrantStore builds indexes backed by Qdrant. Each built index owns a private
// collection that is dropped when the index is closed.
type QdrantStore struct {
	client *qdrant.Client
	logger *slog.Logger
}

// NewQdrantStore creates a new Qdrant vector store client.
// urlStr should be in the format "http://host:port" (e.g., "http://localhost:6333").
// The gRPC port (typically 6334) will be derived from the HTTP port.
func NewQdrantStore(urlStr string) (*QdrantStore, error) {
	host, port, err := parseQdrantURL(urlStr)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantStore{
		client: client,
		logger: slog.Default(),
	}, nil
}

// parseQdrantURL returns the host and gRPC port for an HTTP Qdrant URL.
func parseQdrantURL(urlStr string) (string, int, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := 6334
	if parsedURL.Port() != "" {
		httpPort, err := strconv.Atoi(parsedURL.Port())
		if err == nil {
			// gRPC port is typically HTTP port + 1
			port = httpPort + 1
		}
	}

	return host, port, nil
}

func (s *QdrantStore) getLogger(ctx context.Context) *slog.Logger {
	if l := contextutil.LoggerFromContext(ctx); l != slog.Default() {
		return l
	}
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

// Build uploads vectors into a fresh collection and returns an index over it.
func (s *QdrantStore) Build(ctx context.Context, vectors [][]float32) (Index, error) {
	dim, err := validateVectors(vectors)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return &QdrantIndex{store: s}, nil
	}

	logger := s.getLogger(ctx)
	collection := collectionPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dim),
			Distance: qdrant.Distance_Euclid,
		}),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to create collection", "collection", collection, "error", err)
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	points := make([]*qdrant.PointStruct, 0, len(vectors))
	for i, v := range vectors {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(i)),
			Vectors: qdrant.NewVectors(v...),
		})
	}

	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert points", "collection", collection, "count", len(points), "error", err)
		if dropErr := s.client.DeleteCollection(ctx, collection); dropErr != nil {
			logger.WarnContext(ctx, "failed to drop collection after upsert error", "collection", collection, "error", dropErr)
		}
		return nil, fmt.Errorf("failed to upsert points: %w", err)
	}

	logger.InfoContext(ctx, "built qdrant index", "collection", collection, "count", len(points), "dimension", dim)
	return &QdrantIndex{
		store:      s,
		collection: collection,
		size:       len(vectors),
		dim:        dim,
	}, nil
}

// HealthCheck verifies the Qdrant server is reachable.
func (s *QdrantStore) HealthCheck(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("failed to reach Qdrant: %w", err)
	}
	return nil
}

// Close closes the underlying gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// QdrantIndex is an Index stored in a single Qdrant collection.
// Close waits for in-flight searches before dropping the collection.
type QdrantIndex struct {
	store      *QdrantStore
	collection string
	size       int
	dim        int

	mu     sync.RWMutex
	closed bool
}

// Search runs an exact (non-HNSW) query. Qdrant reports plain Euclidean
// distance, so scores are squared before being returned.
func (q *QdrantIndex) Search(ctx context.Context, query []float32, k int) ([]Neighbor, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return nil, ErrIndexClosed
	}
	if err := validateQuery(query, k, q.size, q.dim); err != nil {
		return nil, err
	}

	logger := q.store.getLogger(ctx)

	limit := uint64(min(k, q.size))
	scoredPoints, err := q.store.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          &limit,
		Params: &qdrant.SearchParams{
			Exact: qdrant.PtrOf(true),
		},
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to search points", "collection", q.collection, "k", k, "error", err)
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	neighbors := make([]Neighbor, 0, len(scoredPoints))
	for _, p := range scoredPoints {
		if p.GetId() == nil {
			continue
		}
		d := float64(p.GetScore())
		neighbors = append(neighbors, Neighbor{
			Index:    int(p.GetId().GetNum()),
			Distance: d * d,
		})
	}

	return sortNeighbors(neighbors), nil
}

func (q *QdrantIndex) Len() int {
	return q.size
}

func (q *QdrantIndex) Dimension() int {
	return q.dim
}

// Close drops the collection backing the index. Closing twice is a no-op.
func (q *QdrantIndex) Close(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	if q.collection != "" {
		if err := q.store.client.DeleteCollection(ctx, q.collection); err != nil {
			return fmt.Errorf("failed to delete collection %s: %w", q.collection, err)
		}
		q.store.getLogger(ctx).InfoContext(ctx, "dropped qdrant index", "collection", q.collection)
	}
	q.closed = true
	return nil
}
