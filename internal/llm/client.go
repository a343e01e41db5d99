package llm

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

const opChat = "chat completion"

// ErrNoChoices is returned when a chat completion contains no choices.
var ErrNoChoices = errors.New("no choices returned")

// Client is a client for an OpenAI-compatible chat completions API.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string
	api     *openai.Client
}

// NewClient creates a new LLM client. model is used when a request does not name one.
func NewClient(baseURL, apiKey, model string, opts ...Option) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		api:     newOpenAIClient(baseURL, apiKey, opts),
	}
}

// ChatWithMessages sends a non-streaming chat completion request and returns the
// content of the first choice.
func (c *Client) ChatWithMessages(ctx context.Context, messages []Message, params ChatParams) (string, error) {
	model := params.Model
	if model == "" {
		model = c.Model
	}

	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", newServiceError(opChat, model, err)
	}

	if len(resp.Choices) == 0 {
		return "", fatalError(opChat, model, ErrNoChoices)
	}

	return resp.Choices[0].Message.Content, nil
}
