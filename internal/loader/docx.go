package loader

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"
)

var errEmptyDOCX = errors.New("docx has no body content")

// LoadDOCX extracts paragraph text from a WordprocessingML document.
// Paragraphs, including those inside table cells, are separated by newlines;
// tabs and line breaks inside a paragraph are kept as whitespace.
func LoadDOCX(data []byte) (string, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx: %w", err)
	}
	if len(doc.Document.Body.Items) == 0 {
		return "", fmt.Errorf("failed to open docx: %w", errEmptyDOCX)
	}

	var paragraphs []string
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			paragraphs = append(paragraphs, paragraphText(it))
		case *docx.Table:
			paragraphs = append(paragraphs, tableParagraphs(it)...)
		}
	}
	return joinNonEmpty(paragraphs), nil
}

func tableParagraphs(t *docx.Table) []string {
	var out []string
	for _, row := range t.TableRows {
		for _, cell := range row.TableCells {
			for _, p := range cell.Paragraphs {
				out = append(out, paragraphText(p))
			}
			for _, nested := range cell.Tables {
				out = append(out, tableParagraphs(nested)...)
			}
		}
	}
	return out
}

// paragraphText keeps only the visible text of a paragraph. Hyperlinks
// contribute their label, not their target.
func paragraphText(p *docx.Paragraph) string {
	var sb strings.Builder
	for _, child := range p.Children {
		switch c := child.(type) {
		case *docx.Run:
			writeRun(&sb, c)
		case *docx.Hyperlink:
			writeRun(&sb, &c.Run)
		}
	}
	return sb.String()
}

func writeRun(sb *strings.Builder, r *docx.Run) {
	for _, child := range r.Children {
		switch c := child.(type) {
		case *docx.Text:
			sb.WriteString(c.Text)
		case *docx.Tab:
			sb.WriteByte('\t')
		case *docx.BarterRabbet:
			sb.WriteByte('\n')
		}
	}
}
