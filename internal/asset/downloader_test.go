package asset

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/sitegrab/internal/fetch"
)

func newAssetServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/files/report.pdf", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, "%PDF-1.4 body")
	})
	mux.HandleFunc("/img/photo.png", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		fmt.Fprint(w, "not really a png")
	})
	mux.HandleFunc("/download", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, "%PDF")
	})
	mux.HandleFunc("/big.zip", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, strings.Repeat("z", 2048))
	})
	mux.HandleFunc("/missing.pdf", http.NotFound)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func fixedClock() time.Time {
	return time.UnixMilli(1700000000000)
}

func TestDownloaderDownload(t *testing.T) {
	t.Parallel()

	srv := newAssetServer(t)
	root := t.TempDir()
	d := NewDownloader(fetch.New(srv.Client()), root, WithClock(fixedClock))

	out, err := d.Download(context.Background(), srv.URL+"/files/report.pdf", "example.com", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Success {
		t.Fatal("expected success")
	}
	if out.FilePath != "example.com/documents/report.pdf" {
		t.Errorf("unexpected FilePath %q", out.FilePath)
	}
	if out.Size != int64(len("%PDF-1.4 body")) {
		t.Errorf("unexpected size %d", out.Size)
	}
	data, err := os.ReadFile(filepath.Join(root, "example.com", "documents", "report.pdf"))
	if err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}
	if string(data) != "%PDF-1.4 body" {
		t.Errorf("unexpected file content %q", data)
	}
}

func TestDownloaderCollisionNaming(t *testing.T) {
	t.Parallel()

	srv := newAssetServer(t)
	root := t.TempDir()
	d := NewDownloader(fetch.New(srv.Client()), root)

	want := []string{
		"example.com/documents/report.pdf",
		"example.com/documents/report_1.pdf",
		"example.com/documents/report_2.pdf",
	}
	for i, w := range want {
		out, err := d.Download(context.Background(), srv.URL+"/files/report.pdf", "example.com", true)
		if err != nil {
			t.Fatalf("download %d: unexpected error: %v", i, err)
		}
		if out.FilePath != w {
			t.Errorf("download %d: got %q, want %q", i, out.FilePath, w)
		}
	}
}

func TestDownloaderGeneratedName(t *testing.T) {
	t.Parallel()

	srv := newAssetServer(t)
	d := NewDownloader(fetch.New(srv.Client()), t.TempDir(), WithClock(fixedClock))

	out, err := d.Download(context.Background(), srv.URL+"/download", "example.com", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Category != CategoryOther {
		t.Errorf("expected category other, got %q", out.Category)
	}
	if out.FilePath != "example.com/other/file_1700000000000.pdf" {
		t.Errorf("unexpected generated path %q", out.FilePath)
	}
}

func TestDownloaderPersistDisabled(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	d := NewDownloader(fetch.New(nil), root)

	out, err := d.Download(context.Background(), "https://example.com/a.png", "example.com", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Success || out.FilePath != "" || out.Category != CategoryImages {
		t.Errorf("unexpected outcome %+v", out)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected nothing written, found %d entries", len(entries))
	}
}

func TestDownloaderFailures(t *testing.T) {
	t.Parallel()

	srv := newAssetServer(t)
	root := t.TempDir()
	d := NewDownloader(fetch.New(srv.Client()), root, WithMaxFileSize(1024))

	tests := []struct {
		name     string
		url      string
		domain   string
		category string
		kind     error
	}{
		{name: "not found", url: srv.URL + "/missing.pdf", domain: "example.com", category: CategoryDocuments, kind: fetch.ErrStatus},
		{name: "too large", url: srv.URL + "/big.zip", domain: "example.com", category: CategoryArchives, kind: fetch.ErrBodyTooLarge},
		{name: "relative url", url: "/img/a.png", domain: "example.com", category: CategoryImages, kind: ErrInvalidAssetURL},
		{name: "bad domain", url: srv.URL + "/img/photo.png", domain: "../etc", category: CategoryImages, kind: ErrInvalidDomain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := d.Download(context.Background(), tt.url, tt.domain, true)
			if !errors.Is(err, ErrDownload) || !errors.Is(err, tt.kind) {
				t.Errorf("expected ErrDownload and %v, got %v", tt.kind, err)
			}
			if out.Success || out.FilePath != "" || out.Size != 0 {
				t.Errorf("expected failed outcome, got %+v", out)
			}
			if out.Category != tt.category {
				t.Errorf("expected category %q, got %q", tt.category, out.Category)
			}
		})
	}

	if _, err := os.Stat(filepath.Join(root, "example.com", "archives", "big.zip")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("oversized asset must not be written, stat err = %v", err)
	}
}

func TestDownloaderImageWithoutEXIF(t *testing.T) {
	t.Parallel()

	srv := newAssetServer(t)
	d := NewDownloader(fetch.New(srv.Client()), t.TempDir())

	out, err := d.Download(context.Background(), srv.URL+"/img/photo.png", "example.com", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.ImageInfo != nil {
		t.Errorf("expected no image info, got %v", out.ImageInfo)
	}
	if out.FilePath != "example.com/images/photo.png" {
		t.Errorf("unexpected path %q", out.FilePath)
	}
}

func TestSanitizeFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"a:b?.png", "a_b_.png"},
		{".", ""},
		{"..", ""},
		{"/", ""},
		{strings.Repeat("x", 300) + ".pdf", strings.Repeat("x", 196) + ".pdf"},
	}

	for _, tt := range tests {
		if got := sanitizeFileName(tt.in); got != tt.want {
			t.Errorf("sanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestImageInfoNoEXIF(t *testing.T) {
	t.Parallel()

	if info := ImageInfo([]byte("plain bytes")); info != nil {
		t.Errorf("expected nil, got %v", info)
	}
}
