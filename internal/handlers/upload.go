package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"resume-qa/internal/contextutil"
	"resume-qa/internal/indexer"
	"resume-qa/internal/service"
)

// multipartMemory is the in-memory part of a multipart form; the rest spills to disk.
const multipartMemory = 8 << 20

// UploadHandler accepts résumé uploads.
type UploadHandler struct {
	qa       service.QAService
	maxBytes int64
}

// NewUploadHandler creates a new UploadHandler. Requests larger than maxBytes are rejected.
func NewUploadHandler(qa service.QAService, maxBytes int64) *UploadHandler {
	return &UploadHandler{qa: qa, maxBytes: maxBytes}
}

// UploadTextRequest is the body of POST /api/sessions/{id}/resume/text.
type UploadTextRequest struct {
	Text string `json:"text"`
}

// UploadResponse reports what was indexed.
type UploadResponse struct {
	SessionID  string        `json:"session_id"`
	ResumeName string        `json:"resume_name,omitempty"`
	Characters int           `json:"characters"`
	Chunks     int           `json:"chunks"`
	Preview    string        `json:"preview"`
	Stats      indexer.Stats `json:"stats"`
	Message    string        `json:"message"`
}

func uploadResponse(res service.UploadResult) UploadResponse {
	return UploadResponse{
		SessionID:  res.SessionID,
		ResumeName: res.ResumeName,
		Characters: res.Characters,
		Chunks:     res.Chunks,
		Preview:    res.Preview,
		Stats:      res.Stats,
		Message:    "Resume processed. You can now ask questions.",
	}
}

// File handles POST /api/sessions/{id}/resume with a multipart "file" field.
func (h *UploadHandler) File(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	id := chi.URLParam(r, "id")

	if r.ContentLength > h.maxBytes {
		logger.WarnContext(ctx, "upload too large", "content_length", r.ContentLength, "limit", h.maxBytes)
		writeError(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.WarnContext(ctx, "upload too large", "limit", h.maxBytes)
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		logger.WarnContext(ctx, "invalid multipart form", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		logger.WarnContext(ctx, "missing file field", "error", err)
		writeError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		logger.ErrorContext(ctx, "failed to read upload", "error", err)
		writeError(w, http.StatusBadRequest, "Failed to read file")
		return
	}

	res, err := h.qa.UploadDocument(ctx, id, header.Filename, data)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to process resume")
		return
	}
	writeJSON(ctx, w, http.StatusOK, uploadResponse(res))
}

// Text handles POST /api/sessions/{id}/resume/text.
func (h *UploadHandler) Text(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	var req UploadTextRequest
	if err := decodeJSON(r, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Body too large")
			return
		}
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.qa.UploadText(ctx, chi.URLParam(r, "id"), req.Text)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to process resume")
		return
	}
	writeJSON(ctx, w, http.StatusOK, uploadResponse(res))
}
