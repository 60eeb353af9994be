package export

import (
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/sitegrab/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MarkdownWriter outputs every page as a markdown section followed by a
// summary of the downloaded assets.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the pages and downloads of outcome.
func (w *MarkdownWriter) Write(outcome *model.Outcome) (int, error) {
	md := markdown.NewMarkdown(w.output)

	for _, page := range outcome.Pages() {
		w.writePage(md, page)
	}
	w.writeDownloads(md, outcome.Downloads())

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writePage(md *markdown.Markdown, page model.PageRecord) {
	heading := page.Title
	if heading == "" {
		heading = page.URL
	}
	md.H1(heading)
	md.PlainText("")
	md.PlainTextf("URL: %s", page.URL)
	md.PlainText("")
	if page.Markdown != "" {
		md.PlainText(page.Markdown)
		md.PlainText("")
	}
	md.HorizontalRule()
	md.PlainText("")
}

func (w *MarkdownWriter) writeDownloads(md *markdown.Markdown, summary model.DownloadSummary) {
	stats := summary.Stats
	if stats.TotalImages+stats.TotalFiles == 0 {
		return
	}

	md.H2("Downloads")
	md.PlainText("")

	counts := categoryCounts(stats)
	rows := make([][]string, 0, len(counts)+1)
	for _, category := range slices.Sorted(maps.Keys(counts)) {
		rows = append(rows, []string{categoryLabel(category), strconv.Itoa(counts[category])})
	}
	rows = append(rows, []string{"**Total size**", formatBytes(stats.TotalSize)})
	md.Table(markdown.TableSet{
		Header: []string{"Category", "Files"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(counts) > 1 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Downloads by category"),
			piechart.WithShowData(true),
		)
		for _, category := range slices.Sorted(maps.Keys(counts)) {
			chart.LabelAndIntValue(categoryLabel(category), uint64(counts[category]))
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	w.writeAssetList(md, "Images", summary.Images)
	w.writeAssetList(md, "Files", summary.Files)
}

func (w *MarkdownWriter) writeAssetList(md *markdown.Markdown, title string, assets []model.AssetRef) {
	if len(assets) == 0 {
		return
	}
	md.H3(title)
	md.PlainText("")
	items := make([]string, 0, len(assets))
	for _, a := range assets {
		items = append(items, "`"+a.LocalPath+"` from "+a.OriginalURL)
	}
	md.BulletList(items...)
	md.PlainText("")
}

// categoryCounts merges image and file counts into one map.
func categoryCounts(stats model.DownloadStats) map[string]int {
	counts := maps.Clone(stats.FilesByCategory)
	if counts == nil {
		counts = make(map[string]int)
	}
	if stats.TotalImages > 0 {
		counts["images"] += stats.TotalImages
	}
	return counts
}

func categoryLabel(category string) string {
	return cases.Title(language.English).String(category)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(n)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
