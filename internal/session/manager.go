// Package session keeps per-user résumé state in memory. Each session owns at
// most one knowledge base; replacing or clearing it releases the old index.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"resume-qa/internal/contextutil"
	"resume-qa/internal/indexer"
)

// ErrNotFound is returned for unknown session IDs.
var ErrNotFound = errors.New("session not found")

// Session is a snapshot of one session's state.
type Session struct {
	ID         string
	ResumeName string
	ResumeText string
	KB         *indexer.KnowledgeBase
	CreatedAt  time.Time
}

// HasKnowledgeBase reports whether a résumé has been indexed.
func (s Session) HasKnowledgeBase() bool {
	return s.KB != nil
}

// Manager is a concurrency-safe registry of sessions keyed by UUID.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *slog.Logger
}

// NewManager creates an empty session registry.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		logger:   slog.Default(),
	}
}

func (m *Manager) getLogger(ctx context.Context) *slog.Logger {
	if l := contextutil.LoggerFromContext(ctx); l != nil && l != slog.Default() {
		return l
	}
	return m.logger
}

// Create registers a new empty session. An empty id generates a fresh UUID.
// Creating an id that already exists returns the existing session unchanged.
func (m *Manager) Create(id string) Session {
	if id == "" {
		id = uuid.New().String()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		return *s
	}
	s := &Session{ID: id, CreatedAt: time.Now().UTC()}
	m.sessions[id] = s
	return *s
}

// Get returns a snapshot of the session.
func (m *Manager) Get(id string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return *s, nil
}

// SetKnowledgeBase stores a freshly built knowledge base and its source text,
// closing whichever knowledge base it replaces.
func (m *Manager) SetKnowledgeBase(ctx context.Context, id, resumeName, resumeText string, kb *indexer.KnowledgeBase) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	old := s.KB
	s.ResumeName = resumeName
	s.ResumeText = resumeText
	s.KB = kb
	m.mu.Unlock()

	m.release(ctx, id, old)
	return nil
}

// Clear drops the session's résumé and knowledge base but keeps the session.
func (m *Manager) Clear(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	old := s.KB
	s.ResumeName = ""
	s.ResumeText = ""
	s.KB = nil
	m.mu.Unlock()

	m.release(ctx, id, old)
	return nil
}

// Delete removes the session and closes its knowledge base.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(m.sessions, id)
	m.mu.Unlock()

	m.release(ctx, id, s.KB)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close releases every knowledge base and empties the registry.
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for id, s := range sessions {
		m.release(ctx, id, s.KB)
	}
}

func (m *Manager) release(ctx context.Context, id string, kb *indexer.KnowledgeBase) {
	if kb == nil {
		return
	}
	if err := kb.Close(ctx); err != nil {
		m.getLogger(ctx).WarnContext(ctx, "failed to close knowledge base",
			"session_id", id,
			"kb_id", kb.ID(),
			"error", err,
		)
	}
}
