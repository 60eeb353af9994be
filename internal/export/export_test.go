package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/nao1215/sitegrab/internal/config"
	"github.com/nao1215/sitegrab/internal/model"
)

func crawlOutcome() *model.Outcome {
	images := []model.AssetRef{
		{OriginalURL: "https://example.com/a.png", LocalPath: "example.com/images/a.png", Size: 2048, Category: "images"},
	}
	files := []model.AssetRef{
		{OriginalURL: "https://example.com/r.pdf", LocalPath: "example.com/documents/r.pdf", Size: 100, Category: "documents"},
	}
	return &model.Outcome{Crawl: &model.CrawlResult{
		DomainCrawl: true,
		Domain:      "example.com",
		PagesCount:  2,
		VisitedURLs: []string{"https://example.com/", "https://example.com/about"},
		Pages: []model.PageRecord{
			{
				URL:              "https://example.com/",
				Title:            "Home",
				Content:          "Welcome home",
				Markdown:         "# Welcome\n\nhome",
				HTML:             "<h1>Welcome</h1>home",
				DownloadedImages: images,
				DownloadedFiles:  files,
			},
			{
				URL:      "https://example.com/about",
				Content:  "About us",
				Markdown: "About us",
				HTML:     "<p>About us</p>",
			},
		},
		Downloads:    model.NewDownloadSummary(images, files),
		ExportFormat: "json",
	}}
}

func pageOutcome() *model.Outcome {
	return &model.Outcome{Page: &model.PageResult{
		ExtractedContent: "Single",
		Markdown:         "Single",
		CleanedHTML:      "<b>Single</b>",
		Metadata:         model.Metadata{Title: "One", URL: "https://example.com/one"},
		Links:            []string{},
		Downloads:        model.NewDownloadSummary(nil, nil),
		ExportFormat:     "text",
	}}
}

func render(t *testing.T, format string, outcome *model.Outcome) string {
	t.Helper()

	var buf bytes.Buffer
	w, err := NewWriter(format, &buf)
	if err != nil {
		t.Fatalf("NewWriter(%q): %v", format, err)
	}
	n, err := w.Write(outcome)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if format != config.FormatMarkdown && n != buf.Len() {
		t.Errorf("reported %d bytes, wrote %d", n, buf.Len())
	}
	return buf.String()
}

func TestNewWriter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format string
		want   string
	}{
		{"json", "*export.JSONWriter"},
		{"JSON", "*export.JSONWriter"},
		{"text", "*export.TextWriter"},
		{"markdown", "*export.MarkdownWriter"},
		{"html", "*export.HTMLWriter"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()

			w, err := NewWriter(tt.format, &bytes.Buffer{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := fmt.Sprintf("%T", w); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}

	t.Run("unknown format", func(t *testing.T) {
		t.Parallel()

		if _, err := NewWriter("pdf", &bytes.Buffer{}); !errors.Is(err, config.ErrUnknownExportFormat) {
			t.Errorf("expected ErrUnknownExportFormat, got %v", err)
		}
	})
}

func TestFileExtension(t *testing.T) {
	t.Parallel()

	want := map[string]string{"json": ".json", "text": ".txt", "markdown": ".md", "HTML": ".html", "": ".json"}
	for format, ext := range want {
		if got := FileExtension(format); got != ext {
			t.Errorf("FileExtension(%q) = %q, want %q", format, got, ext)
		}
	}
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("round trips a crawl", func(t *testing.T) {
		t.Parallel()

		out := render(t, "json", crawlOutcome())
		if !strings.Contains(out, "\n  \"domainCrawl\": true") {
			t.Errorf("expected indented output, got %s", out)
		}
		var decoded model.Outcome
		if err := json.Unmarshal([]byte(out), &decoded); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if !decoded.IsDomainCrawl() || decoded.Crawl.PagesCount != 2 {
			t.Errorf("unexpected decoded outcome %+v", decoded.Crawl)
		}
	})

	t.Run("compact output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(pageOutcome()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Errorf("expected a single line, got %q", buf.String())
		}
		if !strings.Contains(buf.String(), `"extractedContent":"Single"`) {
			t.Errorf("unexpected output %s", buf.String())
		}
	})

	t.Run("empty outcome fails", func(t *testing.T) {
		t.Parallel()

		if _, err := NewJSONWriter(&bytes.Buffer{}).Write(&model.Outcome{}); err == nil {
			t.Error("expected error for empty outcome")
		}
	})
}

func TestTextWriter(t *testing.T) {
	t.Parallel()

	got := render(t, "text", crawlOutcome())
	want := "--- https://example.com/ ---\n\nWelcome home\n\n--- https://example.com/about ---\n\nAbout us\n\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	single := render(t, "text", pageOutcome())
	if single != "--- https://example.com/one ---\n\nSingle\n\n" {
		t.Errorf("unexpected single page output %q", single)
	}
}

func TestHTMLWriter(t *testing.T) {
	t.Parallel()

	got := render(t, "html", crawlOutcome())
	want := "<!-- https://example.com/ -->\n<h1>Welcome</h1>home\n\n<!-- https://example.com/about -->\n<p>About us</p>\n\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("pages and downloads", func(t *testing.T) {
		t.Parallel()

		out := render(t, "markdown", crawlOutcome())
		for _, want := range []string{
			"# Home",
			"URL: https://example.com/",
			"# Welcome\n\nhome",
			"# https://example.com/about",
			"## Downloads",
			"Documents",
			"Images",
			"2.0 KiB",
			"mermaid",
			"`example.com/documents/r.pdf` from https://example.com/r.pdf",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
		if strings.Index(out, "# Home") > strings.Index(out, "# https://example.com/about") {
			t.Error("pages must keep crawl order")
		}
	})

	t.Run("no downloads section without assets", func(t *testing.T) {
		t.Parallel()

		out := render(t, "markdown", pageOutcome())
		if !strings.Contains(out, "# One") {
			t.Errorf("expected page heading, got %s", out)
		}
		if strings.Contains(out, "Downloads") {
			t.Error("expected no downloads section")
		}
	})
}

func TestFormatBytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
