package fetch

import (
	"context"
	"io"
	"net/http"
	"time"
)

// DefaultUserAgent is the identifying header sent when none is configured.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// DefaultMaxBodySize is the page size limit used when none is configured (10MB).
const DefaultMaxBodySize = 10 * 1024 * 1024

// Response is a completed GET.
type Response struct {
	// URL is the final URL after redirects.
	URL string
	// StatusCode is the HTTP status of the final response.
	StatusCode int
	// ContentType is the raw Content-Type header.
	ContentType string
	// Body holds the bytes read.
	Body []byte
	// Truncated is set when Fetch stopped reading at the page size limit.
	Truncated bool
}

// Fetcher issues GET requests with a fixed identifying User-Agent.
// It is safe for concurrent use.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	headers     map[string]string
	maxBodySize int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithUserAgent replaces the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithHeaders adds extra request headers. User-Agent cannot be overridden
// this way.
func WithHeaders(headers map[string]string) Option {
	return func(f *Fetcher) {
		f.headers = headers
	}
}

// WithMaxBodySize sets the number of page bytes Fetch reads before it
// truncates. Zero or negative values keep the default.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// New returns a Fetcher using client. A nil client gets a plain client
// with a 30 second timeout.
func New(client *http.Client, opts ...Option) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	f := &Fetcher{
		client:      client,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves a page. Bodies longer than the page size limit are
// truncated and flagged with Response.Truncated instead of failing.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	resp, err := f.do(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return nil, &Error{Kind: ErrRequest, URL: rawURL, Err: err}
	}
	r := newResponse(resp, body)
	if int64(len(body)) > f.maxBodySize {
		r.Body = body[:f.maxBodySize]
		r.Truncated = true
	}
	return r, nil
}

// FetchLimited retrieves an asset and fails with ErrBodyTooLarge once the
// body exceeds limit bytes. A limit of zero reads everything.
func (f *Fetcher) FetchLimited(ctx context.Context, rawURL string, limit int64) (*Response, error) {
	resp, err := f.do(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if limit > 0 && resp.ContentLength > limit {
		return nil, &Error{Kind: ErrBodyTooLarge, URL: rawURL}
	}

	reader := io.Reader(resp.Body)
	if limit > 0 {
		reader = io.LimitReader(resp.Body, limit+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &Error{Kind: ErrRequest, URL: rawURL, Err: err}
	}
	if limit > 0 && int64(len(body)) > limit {
		return nil, &Error{Kind: ErrBodyTooLarge, URL: rawURL}
	}
	return newResponse(resp, body), nil
}

// do sends the request and turns transport failures and non-2xx statuses
// into *Error. On success the caller owns resp.Body.
func (f *Fetcher) do(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{Kind: ErrRequest, URL: rawURL, Err: err}
	}
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("User-Agent", f.userAgent)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Error{Kind: ErrRequest, URL: rawURL, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &Error{Kind: ErrStatus, URL: rawURL, StatusCode: resp.StatusCode}
	}
	return resp, nil
}

func newResponse(resp *http.Response, body []byte) *Response {
	final := resp.Request.URL.String()
	return &Response{
		URL:         final,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}
}
