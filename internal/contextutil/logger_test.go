package contextutil

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestLoggerFromContext(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name string
		ctx  context.Context
		want *slog.Logger
	}{
		{name: "empty context", ctx: context.Background(), want: slog.Default()},
		{name: "nil context", ctx: nil, want: slog.Default()},
		{name: "with logger", ctx: WithLogger(context.Background(), logger), want: logger},
		{name: "wrong type under key", ctx: context.WithValue(context.Background(), LoggerKey(), "nope"), want: slog.Default()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LoggerFromContext(tt.ctx); got != tt.want {
				t.Errorf("LoggerFromContext() = %p, want %p", got, tt.want)
			}
		})
	}
}
