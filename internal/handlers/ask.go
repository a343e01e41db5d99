package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"resume-qa/internal/contextutil"
	"resume-qa/internal/rag"
	"resume-qa/internal/service"
)

// AskHandler handles HTTP requests for question answering and retrieval.
type AskHandler struct {
	qa       service.QAService
	defaultK int
}

// NewAskHandler creates a new AskHandler. defaultK applies to retrieve
// requests that omit k.
func NewAskHandler(qa service.QAService, defaultK int) *AskHandler {
	if defaultK <= 0 {
		defaultK = rag.DefaultK
	}
	return &AskHandler{qa: qa, defaultK: defaultK}
}

// AskRequest represents the HTTP request payload for a question.
type AskRequest struct {
	Question string `json:"question"`
	// Debug includes the scored source chunks in the response.
	Debug bool `json:"debug,omitempty"`
}

// AskResponse represents the HTTP response payload for a question.
type AskResponse struct {
	Answer       string                `json:"answer"`
	Model        string                `json:"model"`
	UsedFallback bool                  `json:"used_fallback"`
	Sources      []rag.ScoredCandidate `json:"sources,omitempty"`
}

// RetrieveRequest represents the HTTP request payload for retrieval.
type RetrieveRequest struct {
	Query string `json:"query"`
	K     *int   `json:"k,omitempty"`
}

// RetrieveResponse lists retrieved chunks, best first.
type RetrieveResponse struct {
	Chunks     []string              `json:"chunks"`
	Candidates []rag.ScoredCandidate `json:"candidates"`
}

// Ask handles POST /api/sessions/{id}/ask.
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req AskRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.qa.Ask(ctx, chi.URLParam(r, "id"), req.Question)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to answer question")
		return
	}

	resp := AskResponse{
		Answer:       res.Answer,
		Model:        res.Model,
		UsedFallback: res.UsedFallback,
	}
	if req.Debug {
		resp.Sources = res.Sources
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

// Retrieve handles POST /api/sessions/{id}/retrieve.
func (h *AskHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RetrieveRequest
	if err := decodeJSON(r, &req); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	k := h.defaultK
	if req.K != nil {
		k = *req.K
	}

	candidates, err := h.qa.Retrieve(ctx, chi.URLParam(r, "id"), req.Query, k)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to retrieve chunks")
		return
	}

	resp := RetrieveResponse{
		Chunks:     make([]string, len(candidates)),
		Candidates: candidates,
	}
	for i, c := range candidates {
		resp.Chunks[i] = c.Text
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}
