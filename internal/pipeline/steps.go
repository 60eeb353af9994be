package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/sitegrab/internal/crawler"
	"github.com/nao1215/sitegrab/internal/database"
	"github.com/nao1215/sitegrab/internal/export"
	"github.com/nao1215/sitegrab/internal/model"
)

// CrawlStep runs the spider for the job's seed.
type CrawlStep struct {
	spider *crawler.Spider
	now    func() time.Time
}

// NewCrawlStep creates a CrawlStep that crawls with spider.
func NewCrawlStep(spider *crawler.Spider) *CrawlStep {
	return &CrawlStep{spider: spider, now: time.Now}
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do crawls the seed. A partial result of a cancelled crawl is kept on
// the job even though the error is returned.
func (s *CrawlStep) Do(ctx context.Context, job *model.Job) error {
	job.Recursive = s.spider.Recursive()
	job.StartedAt = s.now()
	outcome, err := s.spider.Run(ctx, job.Seed)
	job.FinishedAt = s.now()
	if outcome != nil {
		job.Outcome = outcome
	}
	return err
}

// PersistStep stores finished jobs in the history database.
type PersistStep struct {
	db *database.HistoryDB
}

// NewPersistStep creates a PersistStep writing to db.
func NewPersistStep(db *database.HistoryDB) *PersistStep {
	return &PersistStep{db: db}
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do saves the job. Jobs without an outcome are skipped.
func (s *PersistStep) Do(ctx context.Context, job *model.Job) error {
	if job.Outcome == nil {
		return nil
	}
	if _, err := s.db.SaveJob(ctx, job); err != nil {
		return fmt.Errorf("failed to save crawl history: %w", err)
	}
	return nil
}

// Output opens the destination of one job's export.
type Output func(job *model.Job) (io.WriteCloser, error)

// ExportStep renders the outcome in one format.
type ExportStep struct {
	format string
	output Output
	logger *slog.Logger
}

// NewExportStep creates an ExportStep writing format to output.
func NewExportStep(format string, output Output, logger *slog.Logger) *ExportStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportStep{format: format, output: output, logger: logger}
}

// Name returns the step name.
func (s *ExportStep) Name() string {
	return "export"
}

// Do writes the outcome. Jobs without an outcome are skipped.
func (s *ExportStep) Do(_ context.Context, job *model.Job) (err error) {
	if job.Outcome == nil {
		return nil
	}
	dst, err := s.output(job)
	if err != nil {
		return fmt.Errorf("failed to open export output: %w", err)
	}
	defer func() {
		err = errors.Join(err, dst.Close())
	}()

	w, err := export.NewWriter(s.format, dst)
	if err != nil {
		return err
	}
	n, err := w.Write(job.Outcome)
	if err != nil {
		return fmt.Errorf("failed to export %s: %w", job.Seed, err)
	}
	s.logger.Debug("exported outcome", "seed", job.Seed, "format", s.format, "bytes", n)
	return nil
}

// SerializedOutput returns an Output that buffers each job's export and
// writes it to w in one piece on Close, so concurrent jobs never
// interleave.
func SerializedOutput(w io.Writer) Output {
	var mu sync.Mutex
	return func(*model.Job) (io.WriteCloser, error) {
		return &bufferedOutput{dst: w, mu: &mu}, nil
	}
}

type bufferedOutput struct {
	bytes.Buffer
	dst io.Writer
	mu  *sync.Mutex
}

func (b *bufferedOutput) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := b.WriteTo(b.dst)
	return err
}

// FileOutput returns an Output writing to path. With perDomain set the
// domain is inserted before the extension ("out.json" becomes
// "out-example.com.json"), so several seeds do not overwrite each other.
func FileOutput(path string, perDomain bool) Output {
	return func(job *model.Job) (io.WriteCloser, error) {
		target := path
		if perDomain {
			target = domainFileName(path, job.Domain)
		}
		if dir := filepath.Dir(target); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, err
			}
		}
		return os.Create(filepath.Clean(target))
	}
}

func domainFileName(path, domain string) string {
	if domain == "" {
		domain = "unknown"
	}
	domain = strings.NewReplacer("/", "_", `\`, "_", ":", "_").Replace(domain)
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + domain + ext
}
