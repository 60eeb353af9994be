// Package crawler implements the breadth-first domain crawl.
//
// A Spider starts from a seed URL, keeps a FIFO frontier of (URL, depth)
// entries and a visited set, and for each dequeued entry either downloads
// it as an asset or fetches it as a page. Pages are reduced to plain text
// and markdown, their images and media are downloaded within per-page
// caps, and their same-domain links are queued one level deeper.
//
// The crawl is sequential: one request at a time with a fixed delay in
// between. It stops when the frontier is empty or the page limit is
// reached. Individual failures never end a crawl.
//
// In single-page mode (Scrape) only the seed is fetched and a PageResult
// with title, description, keywords and up to ten image URLs is returned.
package crawler
