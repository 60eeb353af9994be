package crawler

import "github.com/nao1215/sitegrab/internal/model"

// crawlState is everything one crawl invocation mutates. It is never
// shared between invocations.
type crawlState struct {
	domain   string
	frontier frontier

	visited      map[string]struct{}
	visitedOrder []string

	// imageAttempts and fileAttempts hold asset URLs whose download was
	// already tried, per bucket.
	imageAttempts map[string]struct{}
	fileAttempts  map[string]struct{}

	pages  []model.PageRecord
	images []model.AssetRef
	files  []model.AssetRef
}

func newCrawlState(domain string) *crawlState {
	return &crawlState{
		domain:        domain,
		visited:       make(map[string]struct{}),
		imageAttempts: make(map[string]struct{}),
		fileAttempts:  make(map[string]struct{}),
		pages:         []model.PageRecord{},
	}
}

func (st *crawlState) isVisited(u string) bool {
	_, ok := st.visited[u]
	return ok
}

func (st *crawlState) markVisited(u string) {
	if _, ok := st.visited[u]; ok {
		return
	}
	st.visited[u] = struct{}{}
	st.visitedOrder = append(st.visitedOrder, u)
}

func (st *crawlState) attempted(u string, image bool) bool {
	set := st.fileAttempts
	if image {
		set = st.imageAttempts
	}
	_, ok := set[u]
	return ok
}

func (st *crawlState) markAttempted(u string, image bool) {
	if image {
		st.imageAttempts[u] = struct{}{}
		return
	}
	st.fileAttempts[u] = struct{}{}
}

// result snapshots the state into a CrawlResult.
func (st *crawlState) result(exportFormat string) *model.CrawlResult {
	visited := make([]string, len(st.visitedOrder))
	copy(visited, st.visitedOrder)
	return &model.CrawlResult{
		DomainCrawl:  true,
		Domain:       st.domain,
		PagesCount:   len(st.pages),
		VisitedURLs:  visited,
		Pages:        st.pages,
		Downloads:    model.NewDownloadSummary(st.images, st.files),
		ExportFormat: exportFormat,
	}
}
