package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_client.go -package=mocks resume-qa/internal/rag ChatClient

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"resume-qa/internal/contextutil"
	"resume-qa/internal/llm"
)

const (
	DefaultPrimaryModel  = "gpt-4.1-mini"
	DefaultFallbackModel = "gpt-4.1"
	DefaultTemperature   = float32(0.2)

	// SystemPrompt is sent as the system message of every answer request.
	SystemPrompt = "You answer questions about the given resume."
)

const promptTemplate = `You are a helpful assistant answering questions about a resume.
Use only the information from the context.

Context:
%s

Question: %s
Answer:`

// ChatClient sends chat completion requests.
type ChatClient interface {
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
}

// GeneratorConfig holds the models and sampling settings used for answers.
type GeneratorConfig struct {
	PrimaryModel  string
	FallbackModel string // empty disables the fallback attempt
	Temperature   float32
	MaxTokens     int
}

// Generation is the tagged result of Generate: which model answered, and
// whether the primary failed first.
type Generation struct {
	Text         string
	Model        string
	UsedFallback bool
	// PrimaryErr is the primary model's error when UsedFallback is true.
	PrimaryErr error
}

// GenerationError is returned when the primary model and the fallback both fail.
type GenerationError struct {
	PrimaryModel  string
	FallbackModel string
	Primary       error
	Fallback      error
}

func (e *GenerationError) Error() string {
	if e.Fallback == nil {
		return fmt.Sprintf("answer generation failed on %s: %v", e.PrimaryModel, e.Primary)
	}
	return fmt.Sprintf("answer generation failed on %s (%v) and fallback %s (%v)",
		e.PrimaryModel, e.Primary, e.FallbackModel, e.Fallback)
}

func (e *GenerationError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Primary != nil {
		errs = append(errs, e.Primary)
	}
	if e.Fallback != nil {
		errs = append(errs, e.Fallback)
	}
	return errs
}

// Generator produces grounded answers with a single fallback attempt.
type Generator struct {
	client ChatClient
	cfg    GeneratorConfig
	logger *slog.Logger
}

// NewGenerator creates a generator. An empty PrimaryModel uses DefaultPrimaryModel.
func NewGenerator(client ChatClient, cfg GeneratorConfig) *Generator {
	if cfg.PrimaryModel == "" {
		cfg.PrimaryModel = DefaultPrimaryModel
	}
	return &Generator{
		client: client,
		cfg:    cfg,
		logger: slog.Default(),
	}
}

func (g *Generator) getLogger(ctx context.Context) *slog.Logger {
	if l := contextutil.LoggerFromContext(ctx); l != slog.Default() {
		return l
	}
	return g.logger
}

// BuildPrompt renders the user prompt. Chunks are joined with blank lines.
func BuildPrompt(query string, chunks []string) string {
	return fmt.Sprintf(promptTemplate, strings.Join(chunks, "\n\n"), query)
}

// Messages returns the chat messages sent for query and chunks.
func Messages(query string, chunks []string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: SystemPrompt},
		{Role: llm.RoleUser, Content: BuildPrompt(query, chunks)},
	}
}

// Generate asks the primary model; on any error it asks the fallback model once
// with the same messages and parameters.
func (g *Generator) Generate(ctx context.Context, query string, chunks []string) (Generation, error) {
	logger := g.getLogger(ctx)
	messages := Messages(query, chunks)

	logger.InfoContext(ctx, "sending request to LLM",
		"model", g.cfg.PrimaryModel,
		"chunks", len(chunks),
		"prompt_length", len(messages[1].Content),
	)

	text, primaryErr := g.client.ChatWithMessages(ctx, messages, g.params(g.cfg.PrimaryModel))
	if primaryErr == nil {
		return Generation{Text: text, Model: g.cfg.PrimaryModel}, nil
	}

	if g.cfg.FallbackModel == "" {
		logger.ErrorContext(ctx, "primary model failed, no fallback configured", "model", g.cfg.PrimaryModel, "error", primaryErr)
		return Generation{}, &GenerationError{PrimaryModel: g.cfg.PrimaryModel, Primary: primaryErr}
	}

	logger.WarnContext(ctx, "primary model failed, trying fallback",
		"model", g.cfg.PrimaryModel,
		"fallback_model", g.cfg.FallbackModel,
		"transient", llm.IsTransient(primaryErr),
		"error", primaryErr,
	)

	text, fallbackErr := g.client.ChatWithMessages(ctx, messages, g.params(g.cfg.FallbackModel))
	if fallbackErr != nil {
		logger.ErrorContext(ctx, "fallback model failed", "model", g.cfg.FallbackModel, "error", fallbackErr)
		return Generation{}, &GenerationError{
			PrimaryModel:  g.cfg.PrimaryModel,
			FallbackModel: g.cfg.FallbackModel,
			Primary:       primaryErr,
			Fallback:      fallbackErr,
		}
	}

	return Generation{
		Text:         text,
		Model:        g.cfg.FallbackModel,
		UsedFallback: true,
		PrimaryErr:   primaryErr,
	}, nil
}

func (g *Generator) params(model string) llm.ChatParams {
	return llm.ChatParams{
		Model:       model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	}
}
