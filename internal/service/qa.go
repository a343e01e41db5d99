package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_qa_service.go -package=mocks resume-qa/internal/service QAService
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_error_reporter.go -package=mocks resume-qa/internal/service ErrorReporter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"resume-qa/internal/contextutil"
	"resume-qa/internal/indexer"
	"resume-qa/internal/llm"
	"resume-qa/internal/loader"
	"resume-qa/internal/rag"
	"resume-qa/internal/session"
	"resume-qa/internal/storage"
)

// Defaults for Config fields left at zero.
const (
	DefaultMinResumeChars = 100
	DefaultPreviewChars   = 500
)

// ErrorReporter forwards failures to an external error tracker.
type ErrorReporter interface {
	CaptureError(ctx context.Context, err error, tags map[string]string)
}

// Config tunes the QA service.
type Config struct {
	// MinResumeChars is the minimum trimmed length of extracted text.
	MinResumeChars int
	// PreviewChars bounds the preview returned after an upload.
	PreviewChars int
}

// SessionInfo describes a session to API callers.
type SessionInfo struct {
	ID               string
	ResumeName       string
	HasKnowledgeBase bool
	CreatedAt        time.Time
}

// UploadResult reports the outcome of indexing a résumé.
type UploadResult struct {
	SessionID  string
	ResumeName string
	Characters int
	Chunks     int
	Preview    string
	Text       string
	Stats      indexer.Stats
}

// AskResult is an answer together with the chunks it was grounded on.
type AskResult struct {
	Answer       string
	Model        string
	UsedFallback bool
	Sources      []rag.ScoredCandidate
}

// Message is one transcript entry.
type Message struct {
	Role         string
	Content      string
	Model        string
	UsedFallback bool
	CreatedAt    time.Time
}

// QAService is the session-level résumé question-answering API.
type QAService interface {
	// CreateSession starts an empty session.
	CreateSession(ctx context.Context) (SessionInfo, error)
	// DeleteSession removes a session, its transcript and its knowledge base.
	DeleteSession(ctx context.Context, sessionID string) error
	// UploadDocument extracts text from a PDF or DOCX file and indexes it.
	UploadDocument(ctx context.Context, sessionID, filename string, data []byte) (UploadResult, error)
	// UploadText indexes already extracted résumé text.
	UploadText(ctx context.Context, sessionID, text string) (UploadResult, error)
	// Ask answers a question about the session's résumé and records the exchange.
	Ask(ctx context.Context, sessionID, question string) (AskResult, error)
	// Retrieve returns the top k scored chunks for query without generating.
	Retrieve(ctx context.Context, sessionID, query string, k int) ([]rag.ScoredCandidate, error)
	// History returns the session transcript in order.
	History(ctx context.Context, sessionID string) ([]Message, error)
	// Clear drops the transcript, knowledge base and résumé text.
	Clear(ctx context.Context, sessionID string) error
}

// qaService implements QAService.
type qaService struct {
	engine   rag.Engine
	sessions *session.Manager
	records  storage.SessionStore
	messages storage.MessageStore
	reporter ErrorReporter
	cfg      Config
	logger   *slog.Logger
}

// NewQAService creates a new QAService. reporter may be nil.
func NewQAService(engine rag.Engine, sessions *session.Manager, records storage.SessionStore, messages storage.MessageStore, reporter ErrorReporter, cfg Config) QAService {
	if cfg.MinResumeChars <= 0 {
		cfg.MinResumeChars = DefaultMinResumeChars
	}
	if cfg.PreviewChars <= 0 {
		cfg.PreviewChars = DefaultPreviewChars
	}
	return &qaService{
		engine:   engine,
		sessions: sessions,
		records:  records,
		messages: messages,
		reporter: reporter,
		cfg:      cfg,
		logger:   slog.Default(),
	}
}

func (s *qaService) getLogger(ctx context.Context) *slog.Logger {
	if l := contextutil.LoggerFromContext(ctx); l != nil && l != slog.Default() {
		return l
	}
	return s.logger
}

func (s *qaService) CreateSession(ctx context.Context) (SessionInfo, error) {
	rec := &storage.SessionRecord{}
	if err := s.records.Upsert(ctx, rec); err != nil {
		return SessionInfo{}, WrapError(err, "failed to create session")
	}

	sess := s.sessions.Create(rec.ID)
	s.getLogger(ctx).InfoContext(ctx, "session created", "session_id", sess.ID)

	return SessionInfo{ID: sess.ID, CreatedAt: rec.CreatedAt}, nil
}

func (s *qaService) DeleteSession(ctx context.Context, sessionID string) error {
	err := s.records.Delete(ctx, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return WrapError(err, "failed to delete session")
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, session.ErrNotFound) {
		return WrapError(err, "failed to delete session")
	}

	s.getLogger(ctx).InfoContext(ctx, "session deleted", "session_id", sessionID)
	return nil
}

// session resolves a live session. Sessions known to the database but not to
// this process are revived without a knowledge base.
func (s *qaService) session(ctx context.Context, sessionID string) (session.Session, *storage.SessionRecord, error) {
	rec, err := s.records.Get(ctx, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return session.Session{}, nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return session.Session{}, nil, WrapError(err, "failed to load session")
	}

	sess, err := s.sessions.Get(sessionID)
	if errors.Is(err, session.ErrNotFound) {
		sess = s.sessions.Create(sessionID)
	}
	return sess, rec, nil
}

func (s *qaService) UploadDocument(ctx context.Context, sessionID, filename string, data []byte) (UploadResult, error) {
	logger := s.getLogger(ctx)

	if !loader.Supported(filename) {
		logger.WarnContext(ctx, "unsupported upload", "session_id", sessionID, "filename", filename)
		return UploadResult{}, fmt.Errorf("%s: %w", filename, ErrUnsupportedDocument)
	}

	text, err := loader.Load(filename, data)
	if err != nil {
		logger.WarnContext(ctx, "failed to extract resume text", "session_id", sessionID, "filename", filename, "error", err)
		return UploadResult{}, fmt.Errorf("%w: %w", ErrDocumentTooShort, err)
	}

	return s.index(ctx, sessionID, filename, text)
}

func (s *qaService) UploadText(ctx context.Context, sessionID, text string) (UploadResult, error) {
	return s.index(ctx, sessionID, "", loader.Clean(text))
}

func (s *qaService) index(ctx context.Context, sessionID, name, text string) (UploadResult, error) {
	logger := s.getLogger(ctx)

	_, rec, err := s.session(ctx, sessionID)
	if err != nil {
		return UploadResult{}, err
	}

	trimmed := utf8.RuneCountInString(strings.TrimSpace(text))
	if trimmed < s.cfg.MinResumeChars {
		logger.WarnContext(ctx, "resume text too short",
			"session_id", sessionID,
			"characters", trimmed,
			"min_characters", s.cfg.MinResumeChars,
		)
		return UploadResult{}, fmt.Errorf("%w: %d characters, need %d", ErrDocumentTooShort, trimmed, s.cfg.MinResumeChars)
	}

	kb, err := s.engine.BuildKnowledgeBase(ctx, text)
	if err != nil {
		logger.ErrorContext(ctx, "failed to build knowledge base", "session_id", sessionID, "error", err)
		s.report(ctx, err, sessionID, "build_knowledge_base")
		return UploadResult{}, fmt.Errorf("%w: failed to build knowledge base: %w", ErrExternalService, err)
	}

	if err := s.sessions.SetKnowledgeBase(ctx, sessionID, name, text, kb); err != nil {
		if closeErr := kb.Close(ctx); closeErr != nil {
			logger.WarnContext(ctx, "failed to close knowledge base", "session_id", sessionID, "error", closeErr)
		}
		return UploadResult{}, WrapError(err, "failed to store knowledge base")
	}

	chars := utf8.RuneCountInString(text)
	rec.ResumeName = name
	rec.ResumeChars = chars
	rec.ChunkCount = kb.Len()
	if err := s.records.Upsert(ctx, rec); err != nil {
		return UploadResult{}, WrapError(err, "failed to update session")
	}

	logger.InfoContext(ctx, "resume indexed",
		"session_id", sessionID,
		"kb_id", kb.ID(),
		"characters", chars,
		"chunks", kb.Len(),
	)

	return UploadResult{
		SessionID:  sessionID,
		ResumeName: name,
		Characters: chars,
		Chunks:     kb.Len(),
		Preview:    preview(text, s.cfg.PreviewChars),
		Text:       text,
		Stats:      kb.Stats(),
	}, nil
}

func (s *qaService) Ask(ctx context.Context, sessionID, question string) (AskResult, error) {
	logger := s.getLogger(ctx)

	question = strings.TrimSpace(question)
	if question == "" {
		logger.WarnContext(ctx, "empty question", "session_id", sessionID)
		return AskResult{}, &ValidationError{Field: "question", Message: "cannot be empty"}
	}

	sess, _, err := s.session(ctx, sessionID)
	if err != nil {
		return AskResult{}, err
	}
	if !sess.HasKnowledgeBase() {
		return AskResult{}, ErrNoKnowledgeBase
	}

	if err := s.messages.Append(ctx, &storage.MessageRecord{
		SessionID: sessionID,
		Role:      llm.RoleUser,
		Content:   question,
	}); err != nil {
		return AskResult{}, WrapError(err, "failed to record question")
	}

	answer, err := s.engine.Answer(ctx, question, sess.KB)
	if err != nil {
		var genErr *rag.GenerationError
		if errors.As(err, &genErr) {
			logger.ErrorContext(ctx, "answer generation failed",
				"session_id", sessionID,
				"primary_model", genErr.PrimaryModel,
				"fallback_model", genErr.FallbackModel,
				"error", err,
			)
			s.report(ctx, err, sessionID, "generate")
			return AskResult{}, fmt.Errorf("%w: %w", ErrExternalService, err)
		}
		logger.ErrorContext(ctx, "failed to answer question", "session_id", sessionID, "error", err)
		return AskResult{}, fmt.Errorf("%w: %w", ErrExternalService, err)
	}

	if err := s.messages.Append(ctx, &storage.MessageRecord{
		SessionID:    sessionID,
		Role:         llm.RoleAssistant,
		Content:      answer.Text,
		Model:        answer.Model,
		UsedFallback: answer.UsedFallback,
	}); err != nil {
		return AskResult{}, WrapError(err, "failed to record answer")
	}

	if answer.UsedFallback {
		logger.WarnContext(ctx, "answer served by fallback model", "session_id", sessionID, "model", answer.Model)
	}

	return AskResult{
		Answer:       answer.Text,
		Model:        answer.Model,
		UsedFallback: answer.UsedFallback,
		Sources:      answer.Sources,
	}, nil
}

func (s *qaService) Retrieve(ctx context.Context, sessionID, query string, k int) ([]rag.ScoredCandidate, error) {
	if k <= 0 {
		return nil, &ValidationError{Field: "k", Message: "must be positive"}
	}

	sess, _, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.HasKnowledgeBase() {
		return nil, ErrNoKnowledgeBase
	}

	candidates, err := s.engine.RetrieveScored(ctx, query, sess.KB, k)
	if err != nil {
		s.getLogger(ctx).ErrorContext(ctx, "retrieval failed", "session_id", sessionID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrExternalService, err)
	}
	return candidates, nil
}

func (s *qaService) History(ctx context.Context, sessionID string) ([]Message, error) {
	if _, _, err := s.session(ctx, sessionID); err != nil {
		return nil, err
	}

	records, err := s.messages.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, WrapError(err, "failed to load history")
	}

	out := make([]Message, len(records))
	for i, r := range records {
		out[i] = Message{
			Role:         r.Role,
			Content:      r.Content,
			Model:        r.Model,
			UsedFallback: r.UsedFallback,
			CreatedAt:    r.CreatedAt,
		}
	}
	return out, nil
}

func (s *qaService) Clear(ctx context.Context, sessionID string) error {
	_, rec, err := s.session(ctx, sessionID)
	if err != nil {
		return err
	}

	if err := s.messages.DeleteBySession(ctx, sessionID); err != nil {
		return WrapError(err, "failed to clear history")
	}
	if err := s.sessions.Clear(ctx, sessionID); err != nil {
		return WrapError(err, "failed to clear session")
	}

	rec.ResumeName = ""
	rec.ResumeChars = 0
	rec.ChunkCount = 0
	if err := s.records.Upsert(ctx, rec); err != nil {
		return WrapError(err, "failed to update session")
	}

	s.getLogger(ctx).InfoContext(ctx, "session cleared", "session_id", sessionID)
	return nil
}

func (s *qaService) report(ctx context.Context, err error, sessionID, op string) {
	if s.reporter == nil {
		return
	}
	s.reporter.CaptureError(ctx, err, map[string]string{
		"session_id": sessionID,
		"operation":  op,
	})
}

func preview(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	r := []rune(text)
	return string(r[:n]) + "…"
}
