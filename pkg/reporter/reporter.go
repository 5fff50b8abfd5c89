package reporter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/nao1215/markdown"

	"github.com/amosWeiskopf/site2md/internal/models"
)

// Supported output formats
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// Reporter renders a consolidated document in various formats
type Reporter struct{}

// New creates a new Reporter instance
func New() *Reporter {
	return &Reporter{}
}

// Render creates the document in the specified format. An empty format
// means markdown.
func (r *Reporter) Render(doc *models.ConsolidatedDocument, format string) (string, error) {
	var buf bytes.Buffer
	if err := r.Write(&buf, doc, format); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Write renders doc to w.
func (r *Reporter) Write(w io.Writer, doc *models.ConsolidatedDocument, format string) error {
	switch format {
	case "", FormatMarkdown:
		return r.writeMarkdown(w, doc)
	case FormatJSON:
		return r.writeJSON(w, doc)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// writeJSON emits the document as indented JSON
func (r *Reporter) writeJSON(w io.Writer, doc *models.ConsolidatedDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

// writeMarkdown emits one "# title" section per page, in document order.
func (r *Reporter) writeMarkdown(w io.Writer, doc *models.ConsolidatedDocument) error {
	md := markdown.NewMarkdown(w)
	for _, page := range doc.Pages {
		md.H1(page.Title)
		md.PlainText("")
		md.PlainText(page.Body)
		md.PlainText("")
	}
	if err := md.Build(); err != nil {
		return fmt.Errorf("failed to write markdown: %w", err)
	}
	return nil
}
