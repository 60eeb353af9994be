package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/sitegrab/internal/database"
	"github.com/nao1215/sitegrab/internal/model"
)

// seedHistory stores two runs of example.com and one of other.org and
// returns the database directory.
func seedHistory(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	runs := []struct {
		seed  string
		pages map[string]string
	}{
		{"https://example.com/", map[string]string{"https://example.com/": "Welcome", "https://example.com/about": "About us"}},
		{"https://example.com/", map[string]string{"https://example.com/": "Welcome", "https://example.com/about": "About us, updated"}},
		{"https://other.org/", map[string]string{"https://other.org/": "Other"}},
	}
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, r := range runs {
		var records []model.PageRecord
		for _, u := range []string{r.seed, r.seed + "about"} {
			content, ok := r.pages[u]
			if !ok {
				continue
			}
			records = append(records, model.PageRecord{
				URL:      u,
				Title:    "Title of " + u,
				Content:  content,
				Markdown: content,
			})
		}
		job := model.NewJob(r.seed, strings.TrimSuffix(strings.TrimPrefix(r.seed, "https://"), "/"), true)
		job.StartedAt = start.Add(time.Duration(i) * time.Hour)
		job.FinishedAt = job.StartedAt.Add(time.Minute)
		job.Outcome = &model.Outcome{Crawl: &model.CrawlResult{
			DomainCrawl: true,
			Domain:      job.Domain,
			PagesCount:  len(records),
			Pages:       records,
			Downloads: model.NewDownloadSummary([]model.AssetRef{{
				OriginalURL: r.seed + "logo.png",
				LocalPath:   job.Domain + "/images/logo.png",
				Size:        42,
				Category:    "images",
			}}, nil),
			ExportFormat: "json",
		}}
		if _, err := db.SaveJob(context.Background(), job); err != nil {
			t.Fatalf("failed to save job: %v", err)
		}
	}
	return dir
}

func runHistory(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewHistoryCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// TestNewHistoryCmd tests the history command creation.
func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()
	if cmd.Use != "history [domain]" {
		t.Errorf("expected use 'history [domain]', got %q", cmd.Use)
	}
	for _, name := range []string{"id", "format", "output", "pages", "diff", "db-dir"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected %s flag", name)
		}
	}
	if err := cmd.Args(cmd, []string{"a", "b"}); err == nil {
		t.Error("expected error for more than one domain")
	}
}

// TestRunHistoryCmd tests listing and exporting recorded runs.
func TestRunHistoryCmd(t *testing.T) {
	// Subtests share one database file and run sequentially.
	dbDir := seedHistory(t)

	t.Run("lists every run newest first", func(t *testing.T) {
		out, err := runHistory(t, "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Crawl history (3 runs)") {
			t.Errorf("unexpected listing:\n%s", out)
		}
		if strings.Index(out, "https://other.org/") > strings.Index(out, "https://example.com/") {
			t.Errorf("expected newest run first:\n%s", out)
		}
	})

	t.Run("filters by domain", func(t *testing.T) {
		out, err := runHistory(t, "--db-dir", dbDir, "other.org")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "(1 runs)") || strings.Contains(out, "example.com") {
			t.Errorf("unexpected listing:\n%s", out)
		}
	})

	t.Run("unknown domain", func(t *testing.T) {
		out, err := runHistory(t, "--db-dir", dbDir, "unknown.test")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "No crawl history found for unknown.test") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("exports a run as markdown", func(t *testing.T) {
		out, err := runHistory(t, "--db-dir", dbDir, "--id", "1", "-f", "markdown")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "# Title of https://example.com/about") {
			t.Errorf("expected page heading in export:\n%s", out)
		}
	})

	t.Run("exports a run to a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "exports", "run.txt")
		out, err := runHistory(t, "--db-dir", dbDir, "--id", "3", "-f", "text", "-o", path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != "" {
			t.Errorf("expected no stdout output, got %q", out)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read export: %v", err)
		}
		if !strings.Contains(string(content), "--- https://other.org/ ---") {
			t.Errorf("unexpected export %q", string(content))
		}
	})

	t.Run("lists page fingerprints", func(t *testing.T) {
		out, err := runHistory(t, "--db-dir", dbDir, "--id", "1", "--pages")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		hash := database.ContentHash("Welcome")[:12]
		if !strings.Contains(out, hash+"  ") {
			t.Errorf("expected hash %s in:\n%s", hash, out)
		}
		if !strings.Contains(out, "example.com/images/logo.png") {
			t.Errorf("expected asset in:\n%s", out)
		}
	})

	t.Run("lists changed pages", func(t *testing.T) {
		out, err := runHistory(t, "--db-dir", dbDir, "--diff", "1,2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "https://example.com/about") {
			t.Errorf("expected changed page in:\n%s", out)
		}
		if strings.Contains(out, "  https://example.com/\n") {
			t.Errorf("unchanged page reported:\n%s", out)
		}
	})

	t.Run("no changes", func(t *testing.T) {
		out, err := runHistory(t, "--db-dir", dbDir, "--diff", "1,1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "No changes") {
			t.Errorf("unexpected output %q", out)
		}
	})

	errorTests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown run", []string{"--id", "99"}, "not found"},
		{"unknown run in diff", []string{"--diff", "1,99"}, "not found"},
		{"pages without id", []string{"--pages"}, "requires --id"},
		{"diff with one id", []string{"--diff", "1"}, "exactly two"},
		{"unknown format", []string{"--id", "1", "-f", "pdf"}, "unknown export format"},
		{"negative id", []string{"--id", "-1"}, "positive"},
	}
	for _, tt := range errorTests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runHistory(t, append([]string{"--db-dir", dbDir}, tt.args...)...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRunHistoryCmdWithoutDatabase(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "missing")
	out, err := runHistory(t, "--db-dir", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "No crawl history found.") {
		t.Errorf("unexpected output %q", out)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("history must not create the database directory")
	}
}
