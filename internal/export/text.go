package export

import (
	"io"

	"github.com/nao1215/sitegrab/internal/model"
)

// TextWriter outputs the plain text of every page, each preceded by a
// "--- <url> ---" line.
type TextWriter struct {
	baseWriter
}

// NewTextWriter creates a TextWriter.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the pages of outcome.
func (w *TextWriter) Write(outcome *model.Outcome) (int, error) {
	return w.writePages(outcome, func(p model.PageRecord) string {
		return "--- " + p.URL + " ---\n\n" + p.Content + "\n\n"
	})
}
