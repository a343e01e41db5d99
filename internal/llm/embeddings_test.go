package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

func writeEmbeddings(t *testing.T, w http.ResponseWriter, data []openai.Embedding) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(openai.EmbeddingResponse{
		Object: "list",
		Data:   data,
		Model:  openai.SmallEmbedding3,
	})
}

func TestNewEmbeddingsClient(t *testing.T) {
	client := NewEmbeddingsClient("http://localhost:8080", "test-key", "", 1536)
	if client == nil {
		t.Fatal("NewEmbeddingsClient() returned nil")
	}
	if client.BaseURL != "http://localhost:8080" {
		t.Errorf("NewEmbeddingsClient() BaseURL = %v, want http://localhost:8080", client.BaseURL)
	}
	if client.Model != DefaultEmbeddingModel {
		t.Errorf("NewEmbeddingsClient() Model = %v, want %v", client.Model, DefaultEmbeddingModel)
	}
	if client.ExpectedSize != 1536 {
		t.Errorf("NewEmbeddingsClient() ExpectedSize = %v, want 1536", client.ExpectedSize)
	}
}

func TestEmbeddingsClient_EmbedTexts(t *testing.T) {
	tests := []struct {
		name          string
		texts         []string
		expectedSize  int
		serverResp    func(t *testing.T, w http.ResponseWriter, r *http.Request)
		wantErr       bool
		wantTransient bool
		wantCount     int
	}{
		{
			name:         "successful embedding",
			texts:        []string{"Hello", "World"},
			expectedSize: 3,
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.URL.Path != "/v1/embeddings" {
					t.Errorf("expected /v1/embeddings, got %s", r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
					t.Errorf("Authorization = %q, want Bearer test-key", got)
				}
				var req embeddingsRequest
				_ = json.NewDecoder(r.Body).Decode(&req)
				if len(req.Input) != 2 {
					t.Errorf("expected one batch of 2 inputs, got %d", len(req.Input))
				}
				if req.Model != "test-model" {
					t.Errorf("model = %s, want test-model", req.Model)
				}
				writeEmbeddings(t, w, []openai.Embedding{
					{Embedding: []float32{1, 0, 0}, Index: 0},
					{Embedding: []float32{0, 1, 0}, Index: 1},
				})
			},
			wantCount: 2,
		},
		{
			name:         "size check disabled",
			texts:        []string{"Hello"},
			expectedSize: 0,
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				writeEmbeddings(t, w, []openai.Embedding{{Embedding: make([]float32, 7), Index: 0}})
			},
			wantCount: 1,
		},
		{
			name:         "wrong embedding count",
			texts:        []string{"Hello", "World"},
			expectedSize: 3,
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				writeEmbeddings(t, w, []openai.Embedding{{Embedding: make([]float32, 3), Index: 0}})
			},
			wantErr: true,
		},
		{
			name:         "wrong vector size",
			texts:        []string{"Hello"},
			expectedSize: 3,
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				writeEmbeddings(t, w, []openai.Embedding{{Embedding: make([]float32, 2), Index: 0}})
			},
			wantErr: true,
		},
		{
			name:         "duplicate index",
			texts:        []string{"Hello", "World"},
			expectedSize: 1,
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				writeEmbeddings(t, w, []openai.Embedding{
					{Embedding: []float32{1}, Index: 0},
					{Embedding: []float32{2}, Index: 0},
				})
			},
			wantErr: true,
		},
		{
			name:         "server error",
			texts:        []string{"Hello"},
			expectedSize: 3,
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("internal server error"))
			},
			wantErr:       true,
			wantTransient: true,
		},
		{
			name:         "rate limited",
			texts:        []string{"Hello"},
			expectedSize: 3,
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit_exceeded"}}`))
			},
			wantErr:       true,
			wantTransient: true,
		},
		{
			name:         "invalid request",
			texts:        []string{"Hello"},
			expectedSize: 3,
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":{"message":"bad input","type":"invalid_request_error"}}`))
			},
			wantErr:       true,
			wantTransient: false,
		},
		{
			name:         "unauthorized",
			texts:        []string{"Hello"},
			expectedSize: 3,
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
			},
			wantErr:       true,
			wantTransient: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.serverResp(t, w, r)
			}))
			defer server.Close()

			client := NewEmbeddingsClient(server.URL, "test-key", "test-model", tt.expectedSize)
			embeddings, err := client.EmbedTexts(context.Background(), tt.texts)

			if tt.wantErr {
				if err == nil {
					t.Fatal("EmbedTexts() expected error, got nil")
				}
				var svcErr *ServiceError
				if !errors.As(err, &svcErr) {
					t.Fatalf("EmbedTexts() error type = %T, want *ServiceError", err)
				}
				if IsTransient(err) != tt.wantTransient {
					t.Errorf("IsTransient() = %v, want %v (err: %v)", IsTransient(err), tt.wantTransient, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("EmbedTexts() error = %v", err)
			}
			if len(embeddings) != tt.wantCount {
				t.Errorf("EmbedTexts() returned %d embeddings, want %d", len(embeddings), tt.wantCount)
			}
		})
	}
}

func TestEmbeddingsClient_EmbedTexts_EmptyInput(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := NewEmbeddingsClient(server.URL, "test-key", "test-model", 3)
	_, err := client.EmbedTexts(context.Background(), []string{})
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("EmbedTexts() error = %v, want ErrEmptyInput", err)
	}
	if IsTransient(err) {
		t.Error("empty input should be a fatal error")
	}
	if calls.Load() != 0 {
		t.Errorf("server called %d times, want 0", calls.Load())
	}
}

func TestEmbeddingsClient_EmbedTexts_PreservesOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Items deliberately returned in reverse order.
		writeEmbeddings(t, w, []openai.Embedding{
			{Embedding: []float32{2, 2}, Index: 2},
			{Embedding: []float32{1, 1}, Index: 1},
			{Embedding: []float32{0, 0}, Index: 0},
		})
	}))
	defer server.Close()

	client := NewEmbeddingsClient(server.URL, "test-key", "test-model", 2)
	embeddings, err := client.EmbedTexts(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}
	for i, vec := range embeddings {
		if vec[0] != float32(i) {
			t.Errorf("embedding %d = %v, want first component %d", i, vec, i)
		}
	}
}

func TestEmbeddingsClient_EmbedTexts_TransportErrors(t *testing.T) {
	t.Run("connection refused", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		client := NewEmbeddingsClient(url, "test-key", "test-model", 3)
		_, err := client.EmbedTexts(context.Background(), []string{"Hello"})
		if err == nil {
			t.Fatal("EmbedTexts() expected error, got nil")
		}
		if !IsTransient(err) {
			t.Errorf("connection failure should be transient, got %v", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer server.Close()

		client := NewEmbeddingsClient(server.URL, "test-key", "test-model", 3, WithTimeout(50*time.Millisecond))
		_, err := client.EmbedTexts(context.Background(), []string{"Hello"})
		if err == nil {
			t.Fatal("EmbedTexts() expected error, got nil")
		}
		if !IsTransient(err) {
			t.Errorf("timeout should be transient, got %v", err)
		}
	})

	t.Run("caller cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		client := NewEmbeddingsClient(server.URL, "test-key", "test-model", 3)
		_, err := client.EmbedTexts(ctx, []string{"Hello"})
		if err == nil {
			t.Fatal("EmbedTexts() expected error, got nil")
		}
		if IsTransient(err) {
			t.Errorf("cancellation should not be transient, got %v", err)
		}
	})
}
