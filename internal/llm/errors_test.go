package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantStatus    int
		wantTransient bool
	}{
		{name: "api 429", err: &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}, wantStatus: 429, wantTransient: true},
		{name: "api 503", err: &openai.APIError{HTTPStatusCode: http.StatusServiceUnavailable}, wantStatus: 503, wantTransient: true},
		{name: "api 400", err: &openai.APIError{HTTPStatusCode: http.StatusBadRequest}, wantStatus: 400},
		{name: "api 401", err: &openai.APIError{HTTPStatusCode: http.StatusUnauthorized}, wantStatus: 401},
		{name: "request 408", err: &openai.RequestError{HTTPStatusCode: http.StatusRequestTimeout}, wantStatus: 408, wantTransient: true},
		{name: "request 500", err: &openai.RequestError{HTTPStatusCode: http.StatusInternalServerError}, wantStatus: 500, wantTransient: true},
		{name: "deadline", err: fmt.Errorf("wrapped: %w", context.DeadlineExceeded), wantTransient: true},
		{name: "canceled", err: context.Canceled},
		{name: "plain", err: errors.New("something else")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, transient := classify(tt.err)
			if status != tt.wantStatus {
				t.Errorf("classify() status = %d, want %d", status, tt.wantStatus)
			}
			if transient != tt.wantTransient {
				t.Errorf("classify() transient = %v, want %v", transient, tt.wantTransient)
			}
		})
	}
}

func TestServiceError(t *testing.T) {
	inner := errors.New("boom")
	err := fmt.Errorf("failed to embed query: %w", &ServiceError{
		Op:         opEmbeddings,
		Model:      "m",
		StatusCode: 429,
		Transient:  true,
		Err:        inner,
	})

	if !IsTransient(err) {
		t.Error("IsTransient() = false, want true through wrapping")
	}
	if !errors.Is(err, inner) {
		t.Error("ServiceError should unwrap to the cause")
	}
	if IsTransient(inner) {
		t.Error("IsTransient() on a non-ServiceError should be false")
	}
	if got := err.Error(); got != `failed to embed query: embeddings request to model "m" failed (transient, status 429): boom` {
		t.Errorf("Error() = %q", got)
	}
}
