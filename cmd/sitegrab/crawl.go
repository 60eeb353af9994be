package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nao1215/sitegrab/internal/asset"
	"github.com/nao1215/sitegrab/internal/config"
	"github.com/nao1215/sitegrab/internal/crawler"
	"github.com/nao1215/sitegrab/internal/database"
	"github.com/nao1215/sitegrab/internal/fetch"
	"github.com/nao1215/sitegrab/internal/log"
	"github.com/nao1215/sitegrab/internal/model"
	"github.com/nao1215/sitegrab/internal/pipeline"
	"github.com/nao1215/sitegrab/internal/scope"
	"github.com/spf13/cobra"
)

// errCrawlFailed is returned when at least one seed produced no result.
var errCrawlFailed = errors.New("crawl failed")

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <url>...",
		Short: "Crawl one or more websites and export the dataset",
		Long: `Crawl fetches the given URLs and exports their content.

Without --recursive only the given page is scraped and its metadata,
links and assets are returned. With --recursive the crawl follows links
breadth-first on the same domain until --depth or --max-pages is reached.

Images and other files referenced by the pages are downloaded into
<download-dir>/<domain>/<category>/. The export is written to stdout
unless --output is given; with several URLs and --output each domain
gets its own file.

Examples:
  # Scrape a single page as JSON
  sitegrab crawl https://example.com/

  # Crawl a whole site two links deep and export markdown
  sitegrab crawl -r -d 2 -f markdown -o example.md https://example.com/

  # Crawl text only, without downloading assets
  sitegrab crawl -r --images=false --files=false -f text https://example.com/

  # Crawl several sites concurrently through a SOCKS5 proxy
  sitegrab crawl -r -b 2 --proxy 127.0.0.1:1080 https://a.example/ https://b.example/

Site file (.sitegrab) example:
  defaults:
    ignorePatterns: ["/logout*"]
  sites:
    example.com:
      headers:
        Authorization: "Bearer token"
      depth: 2`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCrawlCmd,
	}

	defaults := config.DefaultCrawlOptions()

	// Crawl behavior flags
	cmd.Flags().BoolP("recursive", "r", defaults.Recursive,
		"Crawl the whole domain instead of a single page")
	cmd.Flags().IntP("depth", "d", defaults.MaxDepth,
		"Maximum number of link hops from the seed")
	cmd.Flags().IntP("max-pages", "p", defaults.MaxPages,
		"Maximum number of pages per crawl")
	cmd.Flags().Duration("delay", defaults.Delay.Std(),
		"Pause between requests")

	// Download flags
	cmd.Flags().Bool("images", defaults.DownloadImages,
		"Download images")
	cmd.Flags().Bool("files", defaults.DownloadFiles,
		"Download documents, media and other files")
	cmd.Flags().Int64("max-file-size", defaults.MaxFileSize,
		"Largest asset in bytes that is kept (0 for no limit)")
	cmd.Flags().String("download-dir", config.DefaultDownloadDir,
		"Root directory for downloaded assets")
	cmd.Flags().Int("images-per-page", defaults.MaxImagesPerPage,
		"Maximum number of images downloaded per page")
	cmd.Flags().Int("files-per-page", defaults.MaxFilesPerPage,
		"Maximum number of files downloaded per page")

	// Export flags
	cmd.Flags().StringP("format", "f", defaults.ExportFormat,
		"Export format: json, text, markdown or html")
	cmd.Flags().StringP("output", "o", "",
		"Write the export to the specified file path (creates directories if needed)")

	// Connection flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().String("proxy", "",
		"Route requests through a SOCKS5 proxy (host:port)")

	// Batch and persistence flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent crawls")
	cmd.Flags().StringP("config", "c", "",
		"Site file path (default: .sitegrab in current or home directory, then the XDG config dir)")
	cmd.Flags().Bool("no-history", false,
		"Do not record the crawl in the history database")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.LoadSiteConfigs(); err != nil {
		return fmt.Errorf("failed to load site file: %w", err)
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runCrawl(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	opts := &cfg.Options

	if opts.Recursive, err = flags.GetBool("recursive"); err != nil {
		return nil, err
	}
	if opts.MaxDepth, err = flags.GetInt("depth"); err != nil {
		return nil, err
	}
	if opts.MaxPages, err = flags.GetInt("max-pages"); err != nil {
		return nil, err
	}
	delay, err := flags.GetDuration("delay")
	if err != nil {
		return nil, err
	}
	opts.Delay = config.Duration(delay)

	if opts.DownloadImages, err = flags.GetBool("images"); err != nil {
		return nil, err
	}
	if opts.DownloadFiles, err = flags.GetBool("files"); err != nil {
		return nil, err
	}
	if opts.MaxFileSize, err = flags.GetInt64("max-file-size"); err != nil {
		return nil, err
	}
	if opts.MaxImagesPerPage, err = flags.GetInt("images-per-page"); err != nil {
		return nil, err
	}
	if opts.MaxFilesPerPage, err = flags.GetInt("files-per-page"); err != nil {
		return nil, err
	}
	if opts.ExportFormat, err = flags.GetString("format"); err != nil {
		return nil, err
	}

	if cfg.DownloadDir, err = flags.GetString("download-dir"); err != nil {
		return nil, err
	}
	if cfg.OutputFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}

	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noHistory
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.Targets = args

	return cfg, nil
}

// runCrawl crawls every target of cfg and writes the export to stdout or
// cfg.OutputFile. A one-line summary per target goes to status.
func runCrawl(ctx context.Context, cfg *config.Config, stdout, status io.Writer, logger *slog.Logger) error {
	client, err := fetch.NewHTTPClient(cfg.Timeout, cfg.ProxyAddress)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}

	var db *database.HistoryDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer db.Close()
		logger.Debug("history database opened", "path", db.Path())
	}

	output := pipeline.SerializedOutput(stdout)
	if cfg.OutputFile != "" {
		output = pipeline.FileOutput(cfg.OutputFile, len(cfg.Targets) > 1)
	}

	factory := func(job *model.Job) *pipeline.Pipeline {
		p := pipeline.New(
			pipeline.WithLogger(logger),
			pipeline.WithContinueOnError(true),
		)
		p.AddStep(pipeline.NewCrawlStep(newSpider(cfg, client, job.Domain, cfg.OptionsFor(job.Domain), logger)))
		if db != nil {
			p.AddStep(pipeline.NewPersistStep(db))
		}
		p.AddStep(pipeline.NewExportStep(cfg.Options.ExportFormat, output, logger))
		return p
	}

	bp := pipeline.NewBatchProcessor(factory,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)
	jobs, batchErr := bp.ProcessBatch(ctx, cfg.Targets)

	failed := 0
	for _, job := range jobs {
		if job.Outcome == nil {
			failed++
		}
		printSummary(status, job)
	}

	if batchErr != nil {
		return batchErr
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d targets produced no result", errCrawlFailed, failed, len(jobs))
	}
	return nil
}

// newSpider wires a spider for one seed domain: the fetcher carries the
// site's extra headers and the downloader enforces the file size cap.
func newSpider(cfg *config.Config, client *http.Client, domain string, opts config.CrawlOptions, logger *slog.Logger) *crawler.Spider {
	var site config.SiteConfig
	if cfg.SiteConfigs != nil {
		site = cfg.SiteConfigs.GetSiteConfig(domain)
	}

	f := fetch.New(client,
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithHeaders(site.Headers),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
	)
	d := asset.NewDownloader(f, cfg.DownloadDir, asset.WithMaxFileSize(opts.MaxFileSize))

	return crawler.NewSpider(f, d,
		crawler.WithCrawlOptions(opts),
		crawler.WithFilter(scope.Filter{Ignore: site.IgnorePatterns, Follow: site.FollowPatterns}),
		crawler.WithLogger(logger.With("domain", domain)),
	)
}

// printSummary writes one status line for job.
func printSummary(w io.Writer, job *model.Job) {
	if job.Outcome == nil {
		switch {
		case len(job.Errors) > 0:
			fmt.Fprintf(w, "%s: failed: %s\n", job.Seed, job.Errors[0])
		case job.Interrupted:
			fmt.Fprintf(w, "%s: not started\n", job.Seed)
		default:
			fmt.Fprintf(w, "%s: no result\n", job.Seed)
		}
		return
	}

	downloads := job.Outcome.Downloads()
	line := fmt.Sprintf("%s: %d pages, %d images, %d files in %s",
		job.Seed,
		len(job.Outcome.Pages()),
		downloads.Stats.TotalImages,
		downloads.Stats.TotalFiles,
		job.Duration().Round(time.Millisecond),
	)
	if job.RunID != 0 {
		line += fmt.Sprintf(" (run #%d)", job.RunID)
	}
	if job.Interrupted {
		line += " [interrupted]"
	}
	fmt.Fprintln(w, line)
	for _, e := range job.Errors {
		fmt.Fprintf(w, "  warning: %s\n", e)
	}
}
