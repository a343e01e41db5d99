// Package telemetry reports errors to Sentry. Every function is a no-op when
// Sentry has not been initialized with a DSN.
package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
)

const serviceName = "resume-qa"

// Config holds the configuration for Sentry initialization.
type Config struct {
	DSN         string
	Environment string
	Release     string
	Debug       bool
}

// Init initializes Sentry and returns a function that flushes pending events.
// If DSN is empty, it returns a no-op flush function.
func Init(cfg Config) (func(), error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		Debug:       cfg.Debug,
		ServerName:  serviceName,
		SampleRate:  1.0,
	})
	if err != nil {
		slog.Warn("sentry: failed to initialize, continuing without error reporting", "error", err)
		return func() {}, nil
	}

	slog.Info("sentry: error reporting initialized", "environment", cfg.Environment)
	return func() {
		sentry.Flush(5 * time.Second)
	}, nil
}

// Reporter sends errors to Sentry with tags. It satisfies the service layer's
// error reporter.
type Reporter struct {
	hub *sentry.Hub
}

// NewReporter creates a Reporter bound to the global hub.
func NewReporter() *Reporter {
	return &Reporter{hub: sentry.CurrentHub()}
}

// CaptureError captures err, preferring the request hub stored in ctx.
func (r *Reporter) CaptureError(ctx context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = r.hub
	}
	if hub == nil {
		return
	}

	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		hub.CaptureException(err)
	})
}

// CaptureError captures err on the hub in ctx or on the global hub.
func CaptureError(ctx context.Context, err error) {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
	} else {
		sentry.CaptureException(err)
	}
}
