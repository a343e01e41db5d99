package service

import (
	"errors"
	"fmt"

	"resume-qa/internal/rag"
)

var (
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrExternalService is returned when an external service call fails.
	ErrExternalService = errors.New("external service error")
	// ErrNoKnowledgeBase is returned when a question arrives before a résumé.
	ErrNoKnowledgeBase = errors.New("no resume has been uploaded")
	// ErrDocumentTooShort is returned when too little text could be extracted.
	ErrDocumentTooShort = errors.New("resume text is too short")
	// ErrUnsupportedDocument is returned for uploads that are neither PDF nor DOCX.
	ErrUnsupportedDocument = errors.New("unsupported document type")
)

// User-facing messages for errors the UI shows verbatim.
const (
	MessageNoKnowledgeBase    = "Upload a resume first."
	MessageDocumentTooShort   = "Resume text is too short or could not be extracted."
	MessageUnsupported        = "Upload a PDF or DOCX file."
	MessageGenerationFailed   = "Sorry, an answer could not be generated right now. Please try again."
	MessageServiceUnavailable = "A required service is unavailable. Please try again."
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// UserMessage returns the text shown to an end user for err, or "" when the
// error has no user-facing rendering.
func UserMessage(err error) string {
	var genErr *rag.GenerationError
	var valErr *ValidationError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoKnowledgeBase):
		return MessageNoKnowledgeBase
	case errors.Is(err, ErrDocumentTooShort):
		return MessageDocumentTooShort
	case errors.Is(err, ErrUnsupportedDocument):
		return MessageUnsupported
	case errors.As(err, &valErr):
		return valErr.Field + " " + valErr.Message
	case errors.As(err, &genErr):
		return MessageGenerationFailed
	case errors.Is(err, ErrExternalService):
		return MessageServiceUnavailable
	}
	return ""
}
