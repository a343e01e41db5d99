package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"resume-qa/internal/contextutil"
	"resume-qa/internal/service"
)

// SessionHandler serves session lifecycle and transcript endpoints.
type SessionHandler struct {
	qa service.QAService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(qa service.QAService) *SessionHandler {
	return &SessionHandler{qa: qa}
}

// SessionResponse is returned when a session is created.
type SessionResponse struct {
	SessionID string `json:"session_id"`
	CreatedAt string `json:"created_at"`
}

// MessageResponse is one transcript entry.
type MessageResponse struct {
	Role         string `json:"role"`
	Content      string `json:"content"`
	Model        string `json:"model,omitempty"`
	UsedFallback bool   `json:"used_fallback,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// HistoryResponse is the transcript of a session.
type HistoryResponse struct {
	SessionID string            `json:"session_id"`
	Messages  []MessageResponse `json:"messages"`
}

// Create handles POST /api/sessions.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	info, err := h.qa.CreateSession(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to create session")
		return
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "session created", "session_id", info.ID)
	writeJSON(ctx, w, http.StatusCreated, SessionResponse{
		SessionID: info.ID,
		CreatedAt: info.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// Delete handles DELETE /api/sessions/{id}.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.qa.DeleteSession(ctx, chi.URLParam(r, "id")); err != nil {
		handleServiceError(ctx, w, err, "Failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Clear handles POST /api/sessions/{id}/clear.
func (h *SessionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.qa.Clear(ctx, chi.URLParam(r, "id")); err != nil {
		handleServiceError(ctx, w, err, "Failed to clear session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// History handles GET /api/sessions/{id}/messages.
func (h *SessionHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	messages, err := h.qa.History(ctx, id)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to load messages")
		return
	}

	resp := HistoryResponse{SessionID: id, Messages: make([]MessageResponse, len(messages))}
	for i, m := range messages {
		resp.Messages[i] = MessageResponse{
			Role:         m.Role,
			Content:      m.Content,
			Model:        m.Model,
			UsedFallback: m.UsedFallback,
			CreatedAt:    m.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}
