package config

import "maps"

// SiteConfig holds per-domain crawl settings from the site file.
type SiteConfig struct {
	// Headers are extra HTTP headers sent to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Depth overrides maxDepth for this site. Zero keeps the CLI value.
	Depth int `yaml:"depth,omitempty"`

	// MaxPages overrides maxPages for this site. Zero keeps the CLI value.
	MaxPages int `yaml:"maxPages,omitempty"`

	// IgnorePatterns are glob patterns matched against URL paths; matching
	// pages are never enqueued.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns restrict enqueuing to paths matching at least one
	// pattern. The seed itself is always crawled.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// File represents the structure of the .sitegrab site file.
type File struct {
	// Sites maps a domain (e.g. "example.com") to its settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every site unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the settings for domain merged over the defaults.
// The returned Headers map is a copy and may be modified by the caller.
func (cf *File) GetSiteConfig(domain string) SiteConfig {
	result := cf.Defaults
	result.Headers = maps.Clone(cf.Defaults.Headers)

	site, ok := cf.Sites[domain]
	if !ok {
		return result
	}

	if site.Depth != 0 {
		result.Depth = site.Depth
	}
	if site.MaxPages != 0 {
		result.MaxPages = site.MaxPages
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(site.Headers))
		}
		maps.Copy(result.Headers, site.Headers)
	}
	if len(site.IgnorePatterns) > 0 {
		result.IgnorePatterns = site.IgnorePatterns
	}
	if len(site.FollowPatterns) > 0 {
		result.FollowPatterns = site.FollowPatterns
	}
	return result
}
