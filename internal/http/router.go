package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"resume-qa/internal/handlers"
	"resume-qa/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	QAService      service.QAService
	HealthChecks   map[string]handlers.HealthCheck
	MaxUploadBytes int64
	// DefaultK is used by retrieve requests that omit k.
	DefaultK int
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(SentryMiddleware)
	r.Use(CORS)

	sessionHandler := handlers.NewSessionHandler(deps.QAService)
	uploadHandler := handlers.NewUploadHandler(deps.QAService, deps.MaxUploadBytes)
	askHandler := handlers.NewAskHandler(deps.QAService, deps.DefaultK)
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)

		r.Post("/sessions", sessionHandler.Create)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Delete("/", sessionHandler.Delete)
			r.Post("/clear", sessionHandler.Clear)
			r.Get("/messages", sessionHandler.History)
			r.Post("/resume", uploadHandler.File)
			r.Post("/resume/text", uploadHandler.Text)
			r.Post("/ask", askHandler.Ask)
			r.Post("/retrieve", askHandler.Retrieve)
		})
	})

	return r
}
