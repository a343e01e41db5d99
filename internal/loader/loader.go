// Package loader extracts plain text from uploaded résumé files.
package loader

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for files that are neither PDF nor DOCX.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Load extracts cleaned text from data, dispatching on the file extension.
func Load(filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return LoadPDF(data)
	case ".docx":
		return LoadDOCX(data)
	default:
		return "", ErrUnsupportedFormat
	}
}

// Supported reports whether Load understands the file's extension.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".docx":
		return true
	}
	return false
}

// Clean normalizes extracted text: non-breaking spaces and tabs become spaces,
// every line is trimmed, and blank lines are dropped.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\u00a0", " ")
	text = strings.ReplaceAll(text, "\t", " ")

	lines := strings.Split(strings.TrimSpace(text), "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// joinNonEmpty cleans each part and joins the non-empty results with newlines.
func joinNonEmpty(parts []string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if c := Clean(p); c != "" {
			out = append(out, c)
		}
	}
	return strings.Join(out, "\n")
}
