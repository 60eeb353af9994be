package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetcherFetch(t *testing.T) {
	t.Parallel()

	headers := make(chan http.Header, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Clone()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><title>ok</title></html>")
	}))
	t.Cleanup(srv.Close)

	f := New(srv.Client(), WithHeaders(map[string]string{
		"Accept-Language": "ja",
		"User-Agent":      "ignored",
	}))
	resp, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if string(resp.Body) != "<html><title>ok</title></html>" {
		t.Errorf("unexpected body %q", resp.Body)
	}
	if !strings.HasPrefix(resp.ContentType, "text/html") {
		t.Errorf("unexpected content type %q", resp.ContentType)
	}
	got := <-headers
	gotUA, gotLang := got.Get("User-Agent"), got.Get("Accept-Language")
	if gotUA != DefaultUserAgent {
		t.Errorf("expected default User-Agent, got %q", gotUA)
	}
	if gotLang != "ja" {
		t.Errorf("expected custom header to be sent, got %q", gotLang)
	}
	if resp.Truncated {
		t.Error("did not expect truncation")
	}
}

func TestFetcherStatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	_, err := New(srv.Client()).Fetch(context.Background(), srv.URL+"/missing")
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("expected ErrStatus, got %v", err)
	}
	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if fe.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", fe.StatusCode)
	}
}

func TestFetcherRequestError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := New(&http.Client{Timeout: time.Second}).Fetch(context.Background(), addr)
	if !errors.Is(err, ErrRequest) {
		t.Errorf("expected ErrRequest, got %v", err)
	}

	_, err = New(nil).Fetch(context.Background(), "://bad")
	if !errors.Is(err, ErrRequest) {
		t.Errorf("expected ErrRequest for malformed URL, got %v", err)
	}
}

func TestFetcherCanceledContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "late")
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(srv.Client()).Fetch(ctx, srv.URL)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}

func TestFetcherTruncatesPages(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, strings.Repeat("a", 100))
	}))
	t.Cleanup(srv.Close)

	resp, err := New(srv.Client(), WithMaxBodySize(10)).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Body) != 10 || !resp.Truncated {
		t.Errorf("expected 10 truncated bytes, got %d (truncated=%v)", len(resp.Body), resp.Truncated)
	}
}

func TestFetcherFetchLimited(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/stream" {
			w.(http.Flusher).Flush()
		}
		fmt.Fprint(w, strings.Repeat("b", 64))
	}))
	t.Cleanup(srv.Close)

	f := New(srv.Client())

	tests := []struct {
		name    string
		path    string
		limit   int64
		wantErr error
		wantLen int
	}{
		{name: "within limit", path: "/", limit: 64, wantLen: 64},
		{name: "unlimited", path: "/", limit: 0, wantLen: 64},
		{name: "content length over limit", path: "/", limit: 10, wantErr: ErrBodyTooLarge},
		{name: "chunked body over limit", path: "/stream", limit: 10, wantErr: ErrBodyTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resp, err := f.FetchLimited(context.Background(), srv.URL+tt.path, tt.limit)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(resp.Body) != tt.wantLen {
				t.Errorf("expected %d bytes, got %d", tt.wantLen, len(resp.Body))
			}
		})
	}
}

func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		proxy   string
		wantErr bool
	}{
		{name: "direct", proxy: ""},
		{name: "socks5 proxy", proxy: "127.0.0.1:1080"},
		{name: "missing port", proxy: "127.0.0.1", wantErr: true},
		{name: "port out of range", proxy: "127.0.0.1:70000", wantErr: true},
		{name: "empty host", proxy: ":1080", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client, err := NewHTTPClient(5*time.Second, tt.proxy)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidProxyAddress) {
					t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if client.Timeout != 5*time.Second {
				t.Errorf("expected timeout 5s, got %v", client.Timeout)
			}
		})
	}
}
