// Package config provides the configuration structures for sitegrab.
//
// CrawlOptions is the per-crawl option bag shared by the CLI and the HTTP
// API. Config wraps it with the settings that only matter to the command
// line (targets, download root, proxy, history database). The optional
// .sitegrab YAML file supplies per-domain headers, depth and path filters.
package config
