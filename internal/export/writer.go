package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/sitegrab/internal/config"
	"github.com/nao1215/sitegrab/internal/model"
)

// Writer renders an outcome to its destination.
type Writer interface {
	// Write outputs the outcome and returns the number of bytes written.
	Write(outcome *model.Outcome) (int, error)
}

// NewWriter returns the Writer for format, which is matched
// case-insensitively against config.ExportFormats.
func NewWriter(format string, output io.Writer) (Writer, error) {
	switch strings.ToLower(format) {
	case config.FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	case config.FormatText:
		return NewTextWriter(output), nil
	case config.FormatMarkdown:
		return NewMarkdownWriter(output), nil
	case config.FormatHTML:
		return NewHTMLWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownExportFormat, format)
	}
}

// FileExtension returns the conventional file extension for format.
func FileExtension(format string) string {
	switch strings.ToLower(format) {
	case config.FormatText:
		return ".txt"
	case config.FormatMarkdown:
		return ".md"
	case config.FormatHTML:
		return ".html"
	default:
		return ".json"
	}
}

// baseWriter holds the output destination shared by all writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// writePages emits one section per page built by section, stopping on
// the first write error.
func (b baseWriter) writePages(outcome *model.Outcome, section func(model.PageRecord) string) (int, error) {
	var total int
	for _, page := range outcome.Pages() {
		n, err := io.WriteString(b.output, section(page))
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
