package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_session_store.go -package=mocks resume-qa/internal/storage SessionStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// SessionStore defines the interface for session storage operations.
type SessionStore interface {
	// Upsert inserts a new session or updates an existing one.
	// A new UUID is generated when session.ID is empty.
	Upsert(ctx context.Context, session *SessionRecord) error
	// Get gets a session by ID. Returns ErrNotFound if not found.
	Get(ctx context.Context, id string) (*SessionRecord, error)
	// Delete removes a session and, through the foreign key, its messages.
	// Returns ErrNotFound if the session does not exist.
	Delete(ctx context.Context, id string) error
}

// SessionRepo provides methods for session operations.
// It implements the SessionStore interface.
type SessionRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewSessionRepo creates a new SessionRepo.
func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db, now: time.Now}
}

// Upsert inserts a new session or updates the résumé metadata of an existing one.
// CreatedAt is preserved on update.
func (r *SessionRepo) Upsert(ctx context.Context, session *SessionRecord) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}

	now := r.now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, resume_name, resume_chars, chunk_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		 resume_name = excluded.resume_name, resume_chars = excluded.resume_chars,
		 chunk_count = excluded.chunk_count, updated_at = excluded.updated_at`,
		session.ID, session.ResumeName, session.ResumeChars, session.ChunkCount, session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	return nil
}

// Get gets a session by ID.
// Returns nil and ErrNotFound if not found.
func (r *SessionRepo) Get(ctx context.Context, id string) (*SessionRecord, error) {
	var s SessionRecord
	err := r.db.QueryRowContext(ctx,
		"SELECT id, resume_name, resume_chars, chunk_count, created_at, updated_at FROM sessions WHERE id = ?",
		id,
	).Scan(&s.ID, &s.ResumeName, &s.ResumeChars, &s.ChunkCount, &s.CreatedAt, &s.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	return &s, nil
}

// Delete removes a session by ID.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}
