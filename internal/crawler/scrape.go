package crawler

import (
	"context"
	"fmt"

	"github.com/nao1215/sitegrab/internal/model"
	"github.com/nao1215/sitegrab/internal/scope"
)

// Scrape fetches a single page and returns its content, metadata and the
// assets downloaded from it. No links are followed. A fetch failure is
// returned as an error wrapping ErrFetchFailed.
func (s *Spider) Scrape(ctx context.Context, pageURL string) (*model.PageResult, error) {
	seedURL, domain, err := parseSeed(pageURL)
	if err != nil {
		return nil, err
	}

	resp, err := s.fetcher.Fetch(ctx, seedURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	record, parsed, err := buildRecord(scope.NormalizeURL(seedURL), resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	st := newCrawlState(domain)
	st.markVisited(record.URL)
	s.downloadPageAssets(ctx, st, parsed)

	s.logger.Info("page scraped",
		"url", seedURL,
		"links", len(parsed.Links),
		"images", len(st.images),
		"files", len(st.files),
	)

	return &model.PageResult{
		ExtractedContent: record.Content,
		Markdown:         record.Markdown,
		CleanedHTML:      record.HTML,
		Metadata: model.Metadata{
			Title:       parsed.Title,
			Description: parsed.Description,
			Keywords:    parsed.Keywords,
			URL:         seedURL,
			Images:      firstN(parsed.Images, model.MaxMetadataImages),
		},
		Links:        parsed.Links,
		Downloads:    model.NewDownloadSummary(st.images, st.files),
		ExportFormat: s.exportFormat,
	}, nil
}
