package storage

import "time"

// SessionRecord is the persisted metadata of a chat session.
// The knowledge base itself lives in memory only.
type SessionRecord struct {
	ID          string // UUID
	ResumeName  string // Uploaded file name, empty until a résumé is loaded
	ResumeChars int    // Characters of extracted text
	ChunkCount  int    // Chunks in the current knowledge base
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MessageRecord is one entry of a session transcript.
type MessageRecord struct {
	ID           string // UUID
	SessionID    string // Foreign key to sessions.id
	Role         string // "user" or "assistant"
	Content      string
	Model        string // Serving model, assistant messages only
	UsedFallback bool
	CreatedAt    time.Time
}
