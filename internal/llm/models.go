package llm

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

const opModels = "models"

// ModelAvailable reports whether the provider serves the named model.
// A 404 from the provider means the model is unknown and is not an error.
func (c *Client) ModelAvailable(ctx context.Context, name string) (bool, error) {
	if name == "" {
		name = c.Model
	}

	_, err := c.api.GetModel(ctx, name)
	if err == nil {
		return true, nil
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusNotFound {
		return false, nil
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusNotFound {
		return false, nil
	}

	return false, newServiceError(opModels, name, err)
}
