package model

import (
	"encoding/json"
	"errors"
)

// ErrEmptyOutcome is returned when an Outcome carries neither branch.
var ErrEmptyOutcome = errors.New("outcome has neither a crawl nor a page result")

// CrawlResult is the outcome of a recursive domain crawl.
type CrawlResult struct {
	// DomainCrawl is always true; it lets API clients tell the two
	// outcome shapes apart.
	DomainCrawl bool `json:"domainCrawl"`

	// Domain is the hostname of the seed URL.
	Domain string `json:"domain"`

	// PagesCount equals len(Pages).
	PagesCount int `json:"pagesCount"`

	// VisitedURLs lists every URL marked visited, in first-visit order.
	// It includes failed pages and downloaded assets.
	VisitedURLs []string `json:"visitedUrls"`

	// Pages are the successfully fetched pages in crawl order.
	Pages []PageRecord `json:"pages"`

	// Downloads summarizes every asset written during the crawl.
	Downloads DownloadSummary `json:"downloads"`

	// ExportFormat echoes the requested export format.
	ExportFormat string `json:"exportFormat"`
}

// Outcome is the result of one crawl invocation. Exactly one of Crawl
// and Page is set, depending on whether the crawl was recursive.
type Outcome struct {
	Crawl *CrawlResult
	Page  *PageResult
}

// IsDomainCrawl reports whether the outcome holds a recursive crawl.
func (o *Outcome) IsDomainCrawl() bool {
	return o != nil && o.Crawl != nil
}

// Downloads returns the download summary of whichever branch is set.
func (o *Outcome) Downloads() DownloadSummary {
	switch {
	case o == nil:
		return NewDownloadSummary(nil, nil)
	case o.Crawl != nil:
		return o.Crawl.Downloads
	case o.Page != nil:
		return o.Page.Downloads
	default:
		return NewDownloadSummary(nil, nil)
	}
}

// Pages returns the outcome as page records. A single-page outcome is
// presented as one record so that exporters handle both shapes alike.
func (o *Outcome) Pages() []PageRecord {
	switch {
	case o == nil:
		return nil
	case o.Crawl != nil:
		return o.Crawl.Pages
	case o.Page != nil:
		p := o.Page
		return []PageRecord{{
			URL:              p.Metadata.URL,
			Title:            p.Metadata.Title,
			Content:          p.ExtractedContent,
			Markdown:         p.Markdown,
			HTML:             p.CleanedHTML,
			Links:            p.Links,
			DownloadedImages: p.Downloads.Images,
			DownloadedFiles:  p.Downloads.Files,
		}}
	default:
		return nil
	}
}

// MarshalJSON encodes the branch that is set.
func (o Outcome) MarshalJSON() ([]byte, error) {
	switch {
	case o.Crawl != nil:
		return json.Marshal(o.Crawl)
	case o.Page != nil:
		return json.Marshal(o.Page)
	default:
		return nil, ErrEmptyOutcome
	}
}

// UnmarshalJSON decodes either branch, using the domainCrawl flag to
// decide which one.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var head struct {
		DomainCrawl bool `json:"domainCrawl"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	*o = Outcome{}
	if head.DomainCrawl {
		o.Crawl = &CrawlResult{}
		return json.Unmarshal(data, o.Crawl)
	}
	o.Page = &PageResult{}
	return json.Unmarshal(data, o.Page)
}
