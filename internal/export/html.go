package export

import (
	"io"
	"strings"

	"github.com/nao1215/sitegrab/internal/model"
)

// HTMLWriter outputs the raw markup of every page, each preceded by an
// HTML comment naming its URL.
type HTMLWriter struct {
	baseWriter
}

// NewHTMLWriter creates an HTMLWriter.
func NewHTMLWriter(output io.Writer) *HTMLWriter {
	return &HTMLWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the pages of outcome.
func (w *HTMLWriter) Write(outcome *model.Outcome) (int, error) {
	return w.writePages(outcome, func(p model.PageRecord) string {
		// "--" cannot appear inside a comment.
		return "<!-- " + strings.ReplaceAll(p.URL, "--", "%2D%2D") + " -->\n" + p.HTML + "\n\n"
	})
}
