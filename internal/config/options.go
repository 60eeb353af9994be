package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Default crawl option values. They match the behaviour users of the
// HTTP API already rely on, so changing them changes the shape of every
// dataset produced without explicit options.
const (
	// DefaultMaxDepth is the number of link hops followed from the seed.
	DefaultMaxDepth = 3

	// DefaultMaxPages caps the number of page records in one crawl.
	DefaultMaxPages = 50

	// DefaultCrawlDelay is the fixed pause between network requests.
	DefaultCrawlDelay = 500 * time.Millisecond

	// DefaultMaxFileSize is the largest asset the downloader keeps (50 MiB).
	// A value of zero disables the cap.
	DefaultMaxFileSize int64 = 50 * 1024 * 1024

	// DefaultMaxImagesPerPage is the number of <img> sources downloaded per page.
	DefaultMaxImagesPerPage = 10

	// DefaultMaxFilesPerPage is the number of media and link assets downloaded per page.
	DefaultMaxFilesPerPage = 10

	// DefaultExportFormat is the format used when none is requested.
	DefaultExportFormat = FormatJSON
)

// Export formats understood by the export package.
const (
	// FormatJSON exports the whole outcome as indented JSON.
	FormatJSON = "json"
	// FormatText exports the plain text of every page.
	FormatText = "text"
	// FormatMarkdown exports the markdown of every page plus a downloads summary.
	FormatMarkdown = "markdown"
	// FormatHTML exports the raw markup of every page.
	FormatHTML = "html"
)

// ExportFormats lists every supported export format in display order.
func ExportFormats() []string {
	return []string{FormatJSON, FormatText, FormatMarkdown, FormatHTML}
}

// CrawlOptions is the option bag for a single crawl invocation.
// The JSON field names are the ones accepted by the HTTP API.
type CrawlOptions struct {
	// Recursive selects domain crawl mode. When false only the seed page is
	// scraped and a single-page result is returned.
	Recursive bool `json:"recursive"`

	// MaxDepth is the maximum number of link hops from the seed.
	// Zero means only the seed page is visited.
	MaxDepth int `json:"maxDepth"`

	// MaxPages caps the number of page records in the result.
	MaxPages int `json:"maxPages"`

	// Delay is the fixed pause after each network request.
	Delay Duration `json:"delay"`

	// DownloadImages enables persisting image assets.
	DownloadImages bool `json:"downloadImages"`

	// DownloadFiles enables persisting every other downloadable asset.
	DownloadFiles bool `json:"downloadFiles"`

	// MaxFileSize is the largest asset, in bytes, that is written to disk.
	// Larger assets fail to download. Zero disables the cap.
	MaxFileSize int64 `json:"maxFileSize"`

	// ExportFormat is echoed back in the result and selects the CLI output writer.
	ExportFormat string `json:"exportFormat"`

	// MaxImagesPerPage bounds how many image sources of one page are downloaded.
	MaxImagesPerPage int `json:"maxImagesPerPage"`

	// MaxFilesPerPage bounds how many media/link assets of one page are downloaded.
	MaxFilesPerPage int `json:"maxFilesPerPage"`
}

// DefaultCrawlOptions returns the options used when a caller supplies none.
func DefaultCrawlOptions() CrawlOptions {
	return CrawlOptions{
		Recursive:        false,
		MaxDepth:         DefaultMaxDepth,
		MaxPages:         DefaultMaxPages,
		Delay:            Duration(DefaultCrawlDelay),
		DownloadImages:   true,
		DownloadFiles:    true,
		MaxFileSize:      DefaultMaxFileSize,
		ExportFormat:     DefaultExportFormat,
		MaxImagesPerPage: DefaultMaxImagesPerPage,
		MaxFilesPerPage:  DefaultMaxFilesPerPage,
	}
}

// Validate reports the first option that is out of range.
func (o CrawlOptions) Validate() error {
	if o.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}
	if o.MaxPages < 1 {
		return ErrInvalidMaxPages
	}
	if o.Delay < 0 {
		return ErrInvalidCrawlDelay
	}
	if o.MaxFileSize < 0 {
		return ErrInvalidMaxFileSize
	}
	if o.MaxImagesPerPage < 0 || o.MaxFilesPerPage < 0 {
		return ErrInvalidPerPageLimit
	}
	if !IsExportFormat(o.ExportFormat) {
		return fmt.Errorf("%w: %q", ErrUnknownExportFormat, o.ExportFormat)
	}
	return nil
}

// IsExportFormat reports whether format names a supported export format.
// Matching is case-insensitive.
func IsExportFormat(format string) bool {
	format = strings.ToLower(format)
	for _, f := range ExportFormats() {
		if f == format {
			return true
		}
	}
	return false
}

// Duration is a time.Duration that travels over JSON as a number of
// milliseconds. A JSON string such as "1.5s" is accepted as well.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// MarshalJSON encodes d as integer milliseconds.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).Milliseconds())
}

// UnmarshalJSON decodes milliseconds or a Go duration string.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var ms float64
	if err := json.Unmarshal(data, &ms); err == nil {
		*d = Duration(time.Duration(ms * float64(time.Millisecond)))
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDuration, string(data))
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDuration, err)
	}
	*d = Duration(parsed)
	return nil
}
