package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrEmptyInput is returned when an embedding request has no texts.
	ErrEmptyInput = errors.New("empty input array")

	// ErrMalformedResponse is returned when the provider answers with data that
	// cannot be mapped back onto the request.
	ErrMalformedResponse = errors.New("malformed response")
)

// ServiceError describes a failed call to the model provider. Transient errors
// (rate limits, server errors, timeouts, transport failures) may succeed if the
// caller tries again later; all other errors will not.
type ServiceError struct {
	Op         string
	Model      string
	StatusCode int
	Transient  bool
	Err        error
}

func (e *ServiceError) Error() string {
	kind := "fatal"
	if e.Transient {
		kind = "transient"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s request to model %q failed (%s, status %d): %v", e.Op, e.Model, kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s request to model %q failed (%s): %v", e.Op, e.Model, kind, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err contains a ServiceError marked transient.
func IsTransient(err error) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Transient
	}
	return false
}

func newServiceError(op, model string, err error) *ServiceError {
	status, transient := classify(err)
	return &ServiceError{
		Op:         op,
		Model:      model,
		StatusCode: status,
		Transient:  transient,
		Err:        err,
	}
}

func fatalError(op, model string, err error) *ServiceError {
	return &ServiceError{Op: op, Model: model, Err: err}
}

func classify(err error) (int, bool) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode, transientStatus(apiErr.HTTPStatusCode)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode, transientStatus(reqErr.HTTPStatusCode)
	}

	if errors.Is(err, context.Canceled) {
		return 0, false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return 0, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return 0, true
	}

	return 0, false
}

func transientStatus(code int) bool {
	return code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests ||
		code >= http.StatusInternalServerError
}
