package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/nao1215/sitegrab/internal/api"
	"github.com/nao1215/sitegrab/internal/config"
	"github.com/nao1215/sitegrab/internal/crawler"
	"github.com/nao1215/sitegrab/internal/database"
	"github.com/nao1215/sitegrab/internal/fetch"
	"github.com/nao1215/sitegrab/internal/log"
	"github.com/spf13/cobra"
)

// shutdownTimeout bounds how long in-flight crawls may finish on shutdown.
const shutdownTimeout = 15 * time.Second

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the crawler over HTTP",
		Long: `Serve starts an HTTP server that runs crawls on request.

Endpoints:
  POST /api/crawl          {"url": "...", "options": {...}}
  GET  /downloads/<path>   downloaded assets
  GET  /api/history        recorded runs (?domain= filters)
  GET  /api/history/<id>   outcome of a recorded run
  GET  /health             liveness check

Options use the same names as the JSON export, for example
{"recursive": true, "maxDepth": 2, "maxPages": 20, "delay": 250}.
The delay is given in milliseconds.

Examples:
  # Listen on the default address
  sitegrab serve

  # Listen on all interfaces and keep assets in /srv/assets
  sitegrab serve --addr :8080 --download-dir /srv/assets`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().String("addr", config.DefaultListenAddress,
		"HTTP listen address")
	cmd.Flags().String("download-dir", config.DefaultDownloadDir,
		"Root directory for downloaded assets")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each outgoing request")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().String("proxy", "",
		"Route requests through a SOCKS5 proxy (host:port)")
	cmd.Flags().StringP("config", "c", "",
		"Site file path (default: .sitegrab in current or home directory, then the XDG config dir)")
	cmd.Flags().Bool("no-history", false,
		"Do not record crawls in the history database")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildServeConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateRuntime(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.LoadSiteConfigs(); err != nil {
		return fmt.Errorf("failed to load site file: %w", err)
	}

	logger := log.NewSecureJSONLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	handler, closeFn, err := newAPIServer(cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown error", "error", err)
		}
	}()

	logger.Info("api server listening", "addr", cfg.ListenAddress, "download_dir", cfg.DownloadDir)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("api server stopped")
	return nil
}

// buildServeConfig creates a Config from the serve command flags.
func buildServeConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.ListenAddress, err = flags.GetString("addr"); err != nil {
		return nil, err
	}
	if cfg.DownloadDir, err = flags.GetString("download-dir"); err != nil {
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
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noHistory
	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// newAPIServer builds the HTTP handler for cfg. The returned function
// releases the history database.
func newAPIServer(cfg *config.Config, logger *slog.Logger) (http.Handler, func(), error) {
	client, err := fetch.NewHTTPClient(cfg.Timeout, cfg.ProxyAddress)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	opts := []api.Option{
		api.WithDefaults(cfg.Options),
		api.WithLogger(logger),
	}
	closeFn := func() {}
	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open history database: %w", err)
		}
		opts = append(opts, api.WithHistory(db))
		closeFn = func() {
			if err := db.Close(); err != nil {
				logger.Error("failed to close history database", "error", err)
			}
		}
	}

	factory := func(domain string, options config.CrawlOptions) *crawler.Spider {
		return newSpider(cfg, client, domain, options, logger)
	}
	return api.NewServer(factory, cfg.DownloadDir, opts...), closeFn, nil
}
