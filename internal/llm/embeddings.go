package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultEmbeddingModel is used when no embedding model is configured.
const DefaultEmbeddingModel = string(openai.SmallEmbedding3)

const opEmbeddings = "embeddings"

// EmbeddingsClient is a client for an OpenAI-compatible embeddings API.
type EmbeddingsClient struct {
	BaseURL      string
	APIKey       string
	Model        string
	ExpectedSize int // Expected vector size for validation; 0 disables the check
	api          *openai.Client
}

// NewEmbeddingsClient creates a new embeddings client.
// baseURL is the provider host without the "/v1" suffix.
func NewEmbeddingsClient(baseURL, apiKey, model string, expectedSize int, opts ...Option) *EmbeddingsClient {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &EmbeddingsClient{
		BaseURL:      baseURL,
		APIKey:       apiKey,
		Model:        model,
		ExpectedSize: expectedSize,
		api:          newOpenAIClient(baseURL, apiKey, opts),
	}
}

// ModelName returns the embedding model identifier.
func (c *EmbeddingsClient) ModelName() string {
	return c.Model
}

// EmbedTexts generates embeddings for the given texts in a single batched call.
// The i-th returned vector belongs to texts[i]. Vectors are returned as produced
// by the provider, without normalization.
func (c *EmbeddingsClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fatalError(opEmbeddings, c.Model, ErrEmptyInput)
	}

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.Model),
	})
	if err != nil {
		return nil, newServiceError(opEmbeddings, c.Model, err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fatalError(opEmbeddings, c.Model,
			fmt.Errorf("%w: expected %d embeddings, got %d", ErrMalformedResponse, len(texts), len(resp.Data)))
	}

	// Items are placed by their index field; providers may return them out of order.
	result := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(texts) {
			return nil, fatalError(opEmbeddings, c.Model,
				fmt.Errorf("%w: embedding index %d out of range", ErrMalformedResponse, data.Index))
		}
		if result[data.Index] != nil {
			return nil, fatalError(opEmbeddings, c.Model,
				fmt.Errorf("%w: duplicate embedding index %d", ErrMalformedResponse, data.Index))
		}
		if c.ExpectedSize > 0 && len(data.Embedding) != c.ExpectedSize {
			return nil, fatalError(opEmbeddings, c.Model,
				fmt.Errorf("%w: embedding %d has size %d, expected %d", ErrMalformedResponse, data.Index, len(data.Embedding), c.ExpectedSize))
		}
		if len(data.Embedding) == 0 {
			return nil, fatalError(opEmbeddings, c.Model,
				fmt.Errorf("%w: embedding %d is empty", ErrMalformedResponse, data.Index))
		}
		result[data.Index] = data.Embedding
	}

	return result, nil
}
