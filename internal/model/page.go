package model

// PageRecord is one successfully fetched page of a domain crawl.
type PageRecord struct {
	// URL is the normalized page URL; unique within a crawl.
	URL string `json:"url"`

	// Title is the text of the first <title> element, or empty.
	Title string `json:"title"`

	// Content is the whitespace-normalized plain text of the page.
	Content string `json:"content"`

	// Markdown is the lightweight markdown rendering of the page.
	Markdown string `json:"markdown"`

	// HTML is the raw markup as fetched.
	HTML string `json:"html"`

	// Links are the absolute link targets found on the page, in document order.
	Links []string `json:"links"`

	// DownloadedImages are the image assets persisted for this page.
	DownloadedImages []AssetRef `json:"downloadedImages"`

	// DownloadedFiles are the non-image assets persisted for this page.
	DownloadedFiles []AssetRef `json:"downloadedFiles"`

	// Truncated is set when the page body hit the size limit.
	Truncated bool `json:"truncated,omitempty"`
}

// PageResult is the outcome of a non-recursive crawl: a single page with
// its metadata.
type PageResult struct {
	// ExtractedContent is the plain text of the page.
	ExtractedContent string `json:"extractedContent"`

	// Markdown is the markdown rendering of the page.
	Markdown string `json:"markdown"`

	// CleanedHTML is the raw markup as fetched.
	CleanedHTML string `json:"cleanedHtml"`

	// Metadata describes the page.
	Metadata Metadata `json:"metadata"`

	// Links are the absolute link targets found on the page.
	Links []string `json:"links"`

	// Downloads summarizes the assets persisted for the page.
	Downloads DownloadSummary `json:"downloads"`

	// ExportFormat echoes the requested export format.
	ExportFormat string `json:"exportFormat"`
}

// MaxMetadataImages is the number of image URLs listed in Metadata.
const MaxMetadataImages = 10

// Metadata is the descriptive information of a single scraped page.
type Metadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    string   `json:"keywords"`
	URL         string   `json:"url"`
	Images      []string `json:"images"`
}
