package crawler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/nao1215/sitegrab/internal/asset"
	"github.com/nao1215/sitegrab/internal/config"
	"github.com/nao1215/sitegrab/internal/content"
	"github.com/nao1215/sitegrab/internal/fetch"
	"github.com/nao1215/sitegrab/internal/model"
	"github.com/nao1215/sitegrab/internal/scope"
)

// Spider crawls one domain breadth-first.
//
// A Spider only holds configuration. Every call to Run, Crawl or Scrape
// builds its own frontier, visited set and result, so one Spider can
// serve concurrent crawls.
type Spider struct {
	fetcher    *fetch.Fetcher
	downloader *asset.Downloader

	// recursive selects Crawl over Scrape in Run.
	recursive bool

	// maxDepth limits link hops from the seed; 0 visits the seed only.
	maxDepth int

	// maxPages caps the number of page records.
	maxPages int

	// delay is the fixed pause after each entry that used the network.
	delay time.Duration

	downloadImages   bool
	downloadFiles    bool
	maxImagesPerPage int
	maxFilesPerPage  int

	exportFormat string

	// filter applies the site file's ignore/follow patterns to enqueued URLs.
	filter scope.Filter

	logger *slog.Logger
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithCrawlOptions applies every field of opts.
func WithCrawlOptions(opts config.CrawlOptions) SpiderOption {
	return func(s *Spider) {
		s.recursive = opts.Recursive
		s.maxDepth = opts.MaxDepth
		s.maxPages = opts.MaxPages
		s.delay = opts.Delay.Std()
		s.downloadImages = opts.DownloadImages
		s.downloadFiles = opts.DownloadFiles
		s.maxImagesPerPage = opts.MaxImagesPerPage
		s.maxFilesPerPage = opts.MaxFilesPerPage
		s.exportFormat = strings.ToLower(opts.ExportFormat)
	}
}

// WithRecursive selects domain crawl mode for Run.
func WithRecursive(recursive bool) SpiderOption {
	return func(s *Spider) {
		s.recursive = recursive
	}
}

// WithMaxDepth sets the maximum crawl depth.
// 0 = only the seed page, 1 = the seed plus the pages it links to, etc.
func WithMaxDepth(depth int) SpiderOption {
	return func(s *Spider) {
		s.maxDepth = depth
	}
}

// WithMaxPages sets the maximum number of page records.
func WithMaxPages(maxPages int) SpiderOption {
	return func(s *Spider) {
		s.maxPages = maxPages
	}
}

// WithDelay sets the pause between network requests.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.delay = d
	}
}

// WithDownloads enables or disables persisting images and other files.
func WithDownloads(images, files bool) SpiderOption {
	return func(s *Spider) {
		s.downloadImages = images
		s.downloadFiles = files
	}
}

// WithPerPageLimits bounds the image and file downloads made for one page.
func WithPerPageLimits(images, files int) SpiderOption {
	return func(s *Spider) {
		s.maxImagesPerPage = images
		s.maxFilesPerPage = files
	}
}

// WithFilter restricts enqueued URLs by path patterns.
func WithFilter(f scope.Filter) SpiderOption {
	return func(s *Spider) {
		s.filter = f
	}
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a Spider that fetches pages with f and stores assets
// with d. Unset options take the values of config.DefaultCrawlOptions.
// A nil downloader stores assets below config.DefaultDownloadDir.
func NewSpider(f *fetch.Fetcher, d *asset.Downloader, opts ...SpiderOption) *Spider {
	if f == nil {
		f = fetch.New(nil)
	}
	if d == nil {
		d = asset.NewDownloader(f, config.DefaultDownloadDir)
	}
	s := &Spider{fetcher: f, downloader: d}
	WithCrawlOptions(config.DefaultCrawlOptions())(s)
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// Recursive reports whether Run performs a domain crawl.
func (s *Spider) Recursive() bool {
	return s.recursive
}

// Run crawls seed in the configured mode and wraps the result in an Outcome.
// For recursive crawls a canceled context still yields the partial result
// alongside the context error.
func (s *Spider) Run(ctx context.Context, seed string) (*model.Outcome, error) {
	if s.recursive {
		result, err := s.Crawl(ctx, seed)
		if result == nil {
			return nil, err
		}
		return &model.Outcome{Crawl: result}, err
	}
	page, err := s.Scrape(ctx, seed)
	if err != nil {
		return nil, err
	}
	return &model.Outcome{Page: page}, nil
}

// Crawl visits seed and every same-domain page reachable from it within
// maxDepth hops, in breadth-first order, until maxPages pages were
// recorded or nothing is left to visit.
//
// Page fetch failures and download failures are logged and skipped.
// The only errors returned are ErrInvalidSeedURL and the context error
// when ctx ends; in the latter case the result gathered so far is
// returned too.
func (s *Spider) Crawl(ctx context.Context, seed string) (*model.CrawlResult, error) {
	seedURL, domain, err := parseSeed(seed)
	if err != nil {
		return nil, err
	}

	st := newCrawlState(domain)
	st.frontier.push(queueItem{url: scope.NormalizeURL(seedURL), depth: 0})

	for st.frontier.len() > 0 && len(st.pages) < s.maxPages {
		if err := ctx.Err(); err != nil {
			return st.result(s.exportFormat), err
		}

		item, _ := st.frontier.pop()
		usedNetwork := s.process(ctx, st, item)

		more := st.frontier.len() > 0 && len(st.pages) < s.maxPages
		if usedNetwork && more && s.delay > 0 {
			if err := sleep(ctx, s.delay); err != nil {
				return st.result(s.exportFormat), err
			}
		}
	}

	result := st.result(s.exportFormat)
	s.logger.Info("crawl finished",
		"domain", domain,
		"pages", result.PagesCount,
		"visited", len(result.VisitedURLs),
		"images", result.Downloads.Stats.TotalImages,
		"files", result.Downloads.Stats.TotalFiles,
	)
	return result, nil
}

// process handles one frontier entry and reports whether it used the
// network. A panic abandons the entry; the crawl goes on.
func (s *Spider) process(ctx context.Context, st *crawlState, item queueItem) (usedNetwork bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("abandoned frontier entry after panic", "url", item.url, "panic", fmt.Sprint(r))
		}
	}()

	if st.isVisited(item.url) {
		return false
	}
	s.logger.Debug("processing", "url", item.url, "depth", item.depth)

	switch {
	case asset.IsImage(item.url):
		st.markVisited(item.url)
		if !s.downloadImages || st.attempted(item.url, true) {
			return false
		}
		s.download(ctx, st, item.url, true)
		return true

	case asset.IsDownloadable(item.url):
		st.markVisited(item.url)
		if !s.downloadFiles || st.attempted(item.url, false) {
			return false
		}
		s.download(ctx, st, item.url, false)
		return true
	}

	st.markVisited(item.url)
	resp, err := s.fetcher.Fetch(ctx, item.url)
	if err != nil {
		s.logger.Warn("page fetch failed", "url", item.url, "error", err)
		return true
	}

	record, parsed, err := buildRecord(item.url, resp)
	if err != nil {
		s.logger.Warn("page parse failed", "url", item.url, "error", err)
		return true
	}
	record.DownloadedImages, record.DownloadedFiles = s.downloadPageAssets(ctx, st, parsed)
	st.pages = append(st.pages, record)

	if item.depth < s.maxDepth {
		s.enqueue(st, parsed, item.depth+1)
	}
	return true
}

// enqueue adds the same-domain links of a page, and the same-domain assets
// whose download is enabled, at depth. URLs already visited are skipped;
// URLs that are merely queued may be queued again and are deduplicated
// when they are dequeued.
func (s *Spider) enqueue(st *crawlState, parsed *ParseResult, depth int) {
	push := func(refs []string) {
		for _, ref := range refs {
			u := scope.NormalizeURL(ref)
			if !scope.IsSameDomain(u, st.domain) || st.isVisited(u) || !s.filter.Allow(u) {
				continue
			}
			st.frontier.push(queueItem{url: u, depth: depth})
		}
	}
	images, files := assetRefs(parsed)
	push(parsed.Links)
	if s.downloadImages {
		push(images)
	}
	if s.downloadFiles {
		push(files)
	}
}

// assetRefs splits the asset references of a page into image and file
// buckets. Media references with an image extension, such as a <link>
// icon or a <picture> <source>, belong to the image bucket.
func assetRefs(parsed *ParseResult) (images, files []string) {
	images = append(images, parsed.Images...)
	for _, ref := range parsed.Media {
		if asset.IsImage(ref) {
			if !slices.Contains(images, ref) {
				images = append(images, ref)
			}
			continue
		}
		files = append(files, ref)
	}
	return images, files
}

// downloadPageAssets downloads the first maxImagesPerPage image references
// and the first maxFilesPerPage file references of a page, skipping
// those already attempted in this crawl.
func (s *Spider) downloadPageAssets(ctx context.Context, st *crawlState, parsed *ParseResult) (images, files []model.AssetRef) {
	imageRefs, fileRefs := assetRefs(parsed)
	images, files = []model.AssetRef{}, []model.AssetRef{}
	if s.downloadImages {
		for _, ref := range firstN(imageRefs, s.maxImagesPerPage) {
			u := scope.NormalizeURL(ref)
			if st.attempted(u, true) {
				continue
			}
			if a, ok := s.download(ctx, st, u, true); ok {
				images = append(images, a)
			}
		}
	}
	if s.downloadFiles {
		for _, ref := range firstN(fileRefs, s.maxFilesPerPage) {
			u := scope.NormalizeURL(ref)
			if st.attempted(u, false) {
				continue
			}
			if a, ok := s.download(ctx, st, u, false); ok {
				files = append(files, a)
			}
		}
	}
	return images, files
}

// download stores assetURL in the image or file bucket and marks it
// visited. Failures are logged and reported with ok == false.
func (s *Spider) download(ctx context.Context, st *crawlState, assetURL string, image bool) (model.AssetRef, bool) {
	st.markVisited(assetURL)
	st.markAttempted(assetURL, image)

	out, err := s.downloader.Download(ctx, assetURL, st.domain, true)
	if err != nil {
		s.logger.Warn("asset download failed", "url", assetURL, "category", out.Category, "error", err)
		return model.AssetRef{}, false
	}
	ref := out.AssetRef(assetURL)
	if image {
		st.images = append(st.images, ref)
	} else {
		st.files = append(st.files, ref)
	}
	return ref, true
}

// buildRecord turns a fetched page into a PageRecord. Relative references
// are resolved against the final URL after redirects.
func buildRecord(pageURL string, resp *fetch.Response) (model.PageRecord, *ParseResult, error) {
	base := resp.URL
	if base == "" {
		base = pageURL
	}
	parser, err := NewParser(base)
	if err != nil {
		return model.PageRecord{}, nil, err
	}
	parsed, err := parser.Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return model.PageRecord{}, nil, err
	}

	markup := string(resp.Body)
	return model.PageRecord{
		URL:       pageURL,
		Title:     parsed.Title,
		Content:   content.PlainText(markup),
		Markdown:  content.Markdown(markup),
		HTML:      markup,
		Links:     parsed.Links,
		Truncated: resp.Truncated,
	}, parsed, nil
}

// parseSeed validates seed and returns it trimmed together with its domain.
func parseSeed(seed string) (string, string, error) {
	seed = strings.TrimSpace(seed)
	u, err := url.Parse(seed)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInvalidSeedURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", "", fmt.Errorf("%w: %q: scheme must be http or https", ErrInvalidSeedURL, seed)
	}
	domain := scope.ExtractDomain(seed)
	if domain == "" {
		return "", "", fmt.Errorf("%w: %q: missing host", ErrInvalidSeedURL, seed)
	}
	return seed, domain, nil
}

func firstN(list []string, n int) []string {
	if n < len(list) {
		return list[:max(n, 0)]
	}
	return list
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
