package scope

import (
	"net/url"
	"path"
	"strings"
)

// Filter narrows a crawl by URL path using glob patterns.
// The zero value allows every URL.
type Filter struct {
	// Ignore patterns exclude matching paths.
	Ignore []string
	// Follow patterns, when present, are the only paths allowed.
	Follow []string
}

// Allow reports whether raw passes the filter.
// Ignore patterns win over follow patterns.
func (f Filter) Allow(raw string) bool {
	if len(f.Ignore) == 0 && len(f.Follow) == 0 {
		return true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	p := u.Path
	if p == "" {
		p = "/"
	}

	for _, pattern := range f.Ignore {
		if MatchPattern(pattern, p) {
			return false
		}
	}
	if len(f.Follow) == 0 {
		return true
	}
	for _, pattern := range f.Follow {
		if MatchPattern(pattern, p) {
			return true
		}
	}
	return false
}

// MatchPattern reports whether the URL path p matches pattern.
//
//   - "/blog/*" matches "/blog" and everything below it
//   - "*.pdf" matches any path ending in ".pdf"
//   - other patterns use path.Match, and patterns without a slash are
//     also tried against the last path segment
func MatchPattern(pattern, p string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	if ext, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(ext, ".") && !strings.ContainsAny(ext, "*?[") {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	if matched, err := path.Match(pattern, p); err == nil && matched {
		return true
	}
	if !strings.Contains(pattern, "/") {
		if matched, err := path.Match(pattern, path.Base(p)); err == nil && matched {
			return true
		}
	}
	return false
}
