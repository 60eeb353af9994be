package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/sitegrab/internal/config"
	"github.com/nao1215/sitegrab/internal/database"
	"github.com/nao1215/sitegrab/internal/export"
	"github.com/spf13/cobra"
)

// historyTimeLayout is the timestamp layout of the run listing.
const historyTimeLayout = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
// It reads the crawls recorded by the crawl and serve commands.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [domain]",
		Short: "List and re-export recorded crawls",
		Long: `History shows the crawls stored in the local history database.

Without flags every recorded run is listed, newest first. A domain
argument restricts the list to that domain. With --id the stored
outcome of one run is exported again in any format, and --pages lists
the content fingerprints of its pages and the assets it downloaded.
--diff compares two runs and prints the pages whose content changed.

Examples:
  # List every recorded crawl
  sitegrab history

  # List crawls of one domain
  sitegrab history example.com

  # Re-export run 3 as markdown
  sitegrab history --id 3 -f markdown -o run3.md

  # Show page fingerprints of run 3
  sitegrab history --id 3 --pages

  # Pages that changed between run 2 and run 5
  sitegrab history --diff 2,5`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().Int64P("id", "i", 0,
		"Export the outcome of the run with this ID (use the listing to see IDs)")
	cmd.Flags().StringP("format", "f", config.DefaultExportFormat,
		"Export format for --id: json, text, markdown or html")
	cmd.Flags().StringP("output", "o", "",
		"Write the export to the specified file path")
	cmd.Flags().Bool("pages", false,
		"With --id, list page fingerprints and downloaded assets instead of exporting")
	cmd.Flags().Int64Slice("diff", nil,
		"Compare two runs given as OLD,NEW and list changed pages")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory that holds the history database")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	id, err := flags.GetInt64("id")
	if err != nil {
		return err
	}
	format, err := flags.GetString("format")
	if err != nil {
		return err
	}
	output, err := flags.GetString("output")
	if err != nil {
		return err
	}
	showPages, err := flags.GetBool("pages")
	if err != nil {
		return err
	}
	diff, err := flags.GetInt64Slice("diff")
	if err != nil {
		return err
	}
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database
	if id < 0 {
		return errors.New("run ID must be positive")
	}
	if len(diff) != 0 && len(diff) != 2 {
		return errors.New("--diff takes exactly two run IDs: OLD,NEW")
	}
	if showPages && id == 0 {
		return errors.New("--pages requires --id")
	}
	if id != 0 && !config.IsExportFormat(format) {
		return fmt.Errorf("%w: %q", config.ErrUnknownExportFormat, format)
	}

	out := cmd.OutOrStdout()

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(dbDir, opts)
	if errors.Is(err, database.ErrDatabaseNotFound) {
		fmt.Fprintln(out, "No crawl history found.")
		fmt.Fprintln(out, "\nUse 'sitegrab crawl <url>' to record a crawl.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	switch {
	case len(diff) == 2:
		return showChangedPages(ctx, out, db, diff[0], diff[1])
	case id != 0 && showPages:
		return showRunPages(ctx, out, db, id)
	case id != 0:
		return exportRun(ctx, out, db, id, format, output)
	default:
		var domain string
		if len(args) > 0 {
			domain = args[0]
		}
		return listRuns(ctx, out, db, domain)
	}
}

// listRuns prints the recorded runs, newest first.
func listRuns(ctx context.Context, out io.Writer, db *database.HistoryDB, domain string) error {
	runs, err := db.ListRuns(ctx, domain)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		if domain != "" {
			fmt.Fprintf(out, "No crawl history found for %s\n", domain)
		} else {
			fmt.Fprintln(out, "No crawl history found.")
		}
		fmt.Fprintln(out, "\nUse 'sitegrab crawl <url>' to record a crawl.")
		return nil
	}

	fmt.Fprintf(out, "Crawl history (%d runs):\n\n", len(runs))
	fmt.Fprintf(out, "  %-6s  %-19s  %-9s  %6s  %6s  %6s  %s\n",
		"ID", "Date", "Mode", "Pages", "Images", "Files", "Seed")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 78))

	for _, run := range runs {
		mode := "page"
		if run.Recursive {
			mode = "domain"
		}
		fmt.Fprintf(out, "  %-6d  %-19s  %-9s  %6d  %6d  %6d  %s\n",
			run.ID,
			run.StartedAt.Local().Format(historyTimeLayout),
			mode,
			run.PagesCount,
			run.ImagesCount,
			run.FilesCount,
			run.Seed,
		)
		if len(run.Errors) > 0 {
			fmt.Fprintf(out, "  %-6s  %d error(s): %s\n", "", len(run.Errors), run.Errors[0])
		}
	}
	fmt.Fprintln(out, "\nUse 'sitegrab history --id <ID>' to export a run.")
	return nil
}

// exportRun writes the stored outcome of run id in format.
func exportRun(ctx context.Context, out io.Writer, db *database.HistoryDB, id int64, format, output string) (err error) {
	outcome, err := db.GetRunOutcome(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load run %d: %w", id, err)
	}

	dst := out
	if output != "" {
		if dir := filepath.Dir(output); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		f, err := os.Create(filepath.Clean(output))
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		dst = f
	}

	writer, err := export.NewWriter(format, dst)
	if err != nil {
		return err
	}
	if _, err := writer.Write(outcome); err != nil {
		return fmt.Errorf("failed to export run %d: %w", id, err)
	}
	return nil
}

// showRunPages prints the page fingerprints and assets of run id.
func showRunPages(ctx context.Context, out io.Writer, db *database.HistoryDB, id int64) error {
	pages, err := db.ListPages(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list pages: %w", err)
	}
	assets, err := db.ListAssets(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list assets: %w", err)
	}

	fmt.Fprintf(out, "Pages of run %d (%d):\n\n", id, len(pages))
	for _, p := range pages {
		hash := p.ContentHash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		suffix := ""
		if p.Truncated {
			suffix = " (truncated)"
		}
		fmt.Fprintf(out, "  %s  %7d  %s%s\n", hash, p.ContentLength, p.URL, suffix)
	}

	if len(assets) > 0 {
		fmt.Fprintf(out, "\nAssets (%d):\n\n", len(assets))
		for _, a := range assets {
			fmt.Fprintf(out, "  %-10s  %9d  %s\n", a.Category, a.Size, a.LocalPath)
		}
	}
	return nil
}

// showChangedPages prints the pages whose content differs between runs.
func showChangedPages(ctx context.Context, out io.Writer, db *database.HistoryDB, older, newer int64) error {
	for _, id := range []int64{older, newer} {
		if _, err := db.GetRunOutcome(ctx, id); err != nil {
			return fmt.Errorf("failed to load run %d: %w", id, err)
		}
	}

	changed, err := db.ChangedPages(ctx, older, newer)
	if err != nil {
		return fmt.Errorf("failed to compare runs: %w", err)
	}

	if len(changed) == 0 {
		fmt.Fprintf(out, "No changes between run %d and run %d\n", older, newer)
		return nil
	}
	fmt.Fprintf(out, "Changed between run %d and run %d (%d pages):\n\n", older, newer, len(changed))
	for _, u := range changed {
		fmt.Fprintf(out, "  %s\n", u)
	}
	return nil
}
