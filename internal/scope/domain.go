package scope

import (
	"net/url"
	"strings"
)

// ExtractDomain returns the lower-cased hostname of raw without its port.
// It returns an empty string when raw does not parse or has no host.
func ExtractDomain(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// IsSameDomain reports whether raw belongs to domain: its hostname equals
// domain or ends with "." + domain. Unparseable URLs and an empty domain
// never match.
func IsSameDomain(raw, domain string) bool {
	if domain == "" {
		return false
	}
	host := ExtractDomain(raw)
	if host == "" {
		return false
	}
	domain = strings.ToLower(domain)
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// NormalizeURL returns the key under which raw is tracked as visited.
// The fragment is dropped, scheme and host are lower-cased and an empty
// path becomes "/", so "https://Example.com#top" and "https://example.com/"
// are the same page. Values that do not parse are returned unchanged.
func NormalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Fragment = ""
	u.RawFragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" && u.Opaque == "" {
		u.Path = "/"
	}
	return u.String()
}
