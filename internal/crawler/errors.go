package crawler

import "errors"

var (
	// ErrInvalidSeedURL is returned when the seed is not an absolute
	// http(s) URL with a host. It ends the crawl before any request.
	ErrInvalidSeedURL = errors.New("invalid seed URL")

	// ErrFetchFailed is returned by Scrape when the page cannot be fetched.
	// Recursive crawls never return it; failed pages are skipped there.
	ErrFetchFailed = errors.New("failed to fetch page")
)
