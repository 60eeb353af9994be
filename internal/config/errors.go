package config

import "errors"

// Configuration validation errors.
// They are returned by Config.Validate and CrawlOptions.Validate so that
// callers can use errors.Is to map them to exit codes or HTTP statuses.
var (
	// ErrNoTarget is returned when no seed URL is specified.
	ErrNoTarget = errors.New("no target specified: provide at least one URL")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrNoDownloadDir is returned when the download root is empty.
	ErrNoDownloadDir = errors.New("download directory must not be empty")

	// ErrInvalidMaxDepth is returned when maxDepth is negative.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidMaxPages is returned when maxPages is less than one.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be at least 1")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidMaxFileSize is returned when maxFileSize is negative.
	ErrInvalidMaxFileSize = errors.New("invalid max file size: must be non-negative")

	// ErrInvalidPerPageLimit is returned when a per-page download cap is negative.
	ErrInvalidPerPageLimit = errors.New("invalid per-page download limit: must be non-negative")

	// ErrUnknownExportFormat is returned for an export format outside ExportFormats.
	ErrUnknownExportFormat = errors.New("unknown export format")

	// ErrInvalidDuration is returned when a delay cannot be decoded.
	ErrInvalidDuration = errors.New("invalid duration")
)
