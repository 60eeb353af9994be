package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"golang.org/x/crypto/sha3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/sitegrab/internal/model"
)

// DBFileName is the name of the database file inside the database directory.
const DBFileName = "sitegrab.db"

// HistoryDB records crawl runs.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file when missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	var dsn string
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = dbPath + "?mode=rwc"
	} else {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	h := &HistoryDB{db: db, dbPath: dbPath}

	ctx := context.Background()
	if opts.EnableWAL {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if err := h.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return h, nil
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

func (h *HistoryDB) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed TEXT NOT NULL,
		domain TEXT NOT NULL,
		recursive INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		pages_count INTEGER NOT NULL,
		visited_count INTEGER NOT NULL,
		images_count INTEGER NOT NULL,
		files_count INTEGER NOT NULL,
		total_size INTEGER NOT NULL,
		export_format TEXT,
		errors TEXT,
		outcome_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_domain ON crawl_runs(domain);

	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES crawl_runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		title TEXT,
		content_hash TEXT NOT NULL,
		content_length INTEGER NOT NULL,
		truncated INTEGER NOT NULL DEFAULT 0,
		UNIQUE(run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_hash ON pages(content_hash);

	CREATE TABLE IF NOT EXISTS assets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES crawl_runs(id) ON DELETE CASCADE,
		original_url TEXT NOT NULL,
		local_path TEXT NOT NULL,
		category TEXT NOT NULL,
		size INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assets_run ON assets(run_id);
	`
	_, err := h.db.ExecContext(ctx, schema)
	return err
}

// RunSummary describes a stored run without its outcome.
type RunSummary struct {
	ID           int64     `json:"id"`
	Seed         string    `json:"seed"`
	Domain       string    `json:"domain"`
	Recursive    bool      `json:"recursive"`
	StartedAt    time.Time `json:"startedAt"`
	FinishedAt   time.Time `json:"finishedAt"`
	PagesCount   int       `json:"pagesCount"`
	VisitedCount int       `json:"visitedCount"`
	ImagesCount  int       `json:"imagesCount"`
	FilesCount   int       `json:"filesCount"`
	TotalSize    int64     `json:"totalSize"`
	ExportFormat string    `json:"exportFormat"`
	Errors       []string  `json:"errors,omitempty"`
}

// PageEntry is the stored fingerprint of one page of a run.
type PageEntry struct {
	URL           string
	Title         string
	ContentHash   string
	ContentLength int
	Truncated     bool
}

// ContentHash returns the hex SHA3-256 digest of a page's plain text.
func ContentHash(content string) string {
	sum := sha3.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// SaveJob stores a finished job as a new run and sets job.RunID.
func (h *HistoryDB) SaveJob(ctx context.Context, job *model.Job) (int64, error) {
	if job == nil || job.Outcome == nil {
		return 0, ErrNoOutcome
	}
	outcomeJSON, err := json.Marshal(job.Outcome)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize outcome: %w", err)
	}
	errorsJSON, err := json.Marshal(job.Errors)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize errors: %w", err)
	}

	pages := job.Outcome.Pages()
	downloads := job.Outcome.Downloads()
	visited := len(pages)
	exportFormat := ""
	if job.Outcome.IsDomainCrawl() {
		visited = len(job.Outcome.Crawl.VisitedURLs)
		exportFormat = job.Outcome.Crawl.ExportFormat
	} else if job.Outcome.Page != nil {
		exportFormat = job.Outcome.Page.ExportFormat
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
	INSERT INTO crawl_runs (seed, domain, recursive, started_at, finished_at,
		pages_count, visited_count, images_count, files_count, total_size,
		export_format, errors, outcome_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		job.Seed,
		job.Domain,
		job.Recursive,
		formatTimestamp(job.StartedAt),
		formatTimestamp(job.FinishedAt),
		len(pages),
		visited,
		downloads.Stats.TotalImages,
		downloads.Stats.TotalFiles,
		downloads.Stats.TotalSize,
		exportFormat,
		string(errorsJSON),
		string(outcomeJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert crawl run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	for _, p := range pages {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO pages (run_id, url, title, content_hash, content_length, truncated)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, url) DO NOTHING
		`, runID, p.URL, p.Title, ContentHash(p.Content), len(p.Content), p.Truncated); err != nil {
			return 0, fmt.Errorf("failed to insert page %s: %w", p.URL, err)
		}
	}

	for _, a := range slices.Concat(downloads.Images, downloads.Files) {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO assets (run_id, original_url, local_path, category, size)
		VALUES (?, ?, ?, ?, ?)
		`, runID, a.OriginalURL, a.LocalPath, a.Category, a.Size); err != nil {
			return 0, fmt.Errorf("failed to insert asset %s: %w", a.OriginalURL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit crawl run: %w", err)
	}
	job.RunID = runID
	return runID, nil
}

// ListRuns returns the stored runs, newest first. An empty domain lists
// every run.
func (h *HistoryDB) ListRuns(ctx context.Context, domain string) ([]RunSummary, error) {
	query := `
	SELECT id, seed, domain, recursive, started_at, finished_at, pages_count,
		visited_count, images_count, files_count, total_size, export_format, errors
	FROM crawl_runs
	`
	args := make([]any, 0, 1)
	if domain != "" {
		query += " WHERE domain = ?"
		args = append(args, domain)
	}
	query += " ORDER BY id DESC"

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var (
			run                RunSummary
			started, finished  string
			exportFormat, errs sql.NullString
		)
		if err := rows.Scan(
			&run.ID,
			&run.Seed,
			&run.Domain,
			&run.Recursive,
			&started,
			&finished,
			&run.PagesCount,
			&run.VisitedCount,
			&run.ImagesCount,
			&run.FilesCount,
			&run.TotalSize,
			&exportFormat,
			&errs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt = parseTimestamp(started)
		run.FinishedAt = parseTimestamp(finished)
		run.ExportFormat = exportFormat.String
		if errs.Valid && errs.String != "" {
			// A malformed list only loses the error messages.
			_ = json.Unmarshal([]byte(errs.String), &run.Errors)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRunOutcome loads the outcome stored for run id.
func (h *HistoryDB) GetRunOutcome(ctx context.Context, id int64) (*model.Outcome, error) {
	var outcomeJSON string
	err := h.db.QueryRowContext(ctx, `SELECT outcome_json FROM crawl_runs WHERE id = ?`, id).Scan(&outcomeJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl run: %w", err)
	}

	var outcome model.Outcome
	if err := json.Unmarshal([]byte(outcomeJSON), &outcome); err != nil {
		return nil, fmt.Errorf("failed to parse outcome: %w", err)
	}
	return &outcome, nil
}

// ListPages returns the page fingerprints of run runID in crawl order.
func (h *HistoryDB) ListPages(ctx context.Context, runID int64) ([]PageEntry, error) {
	rows, err := h.db.QueryContext(ctx, `
	SELECT url, title, content_hash, content_length, truncated
	FROM pages WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	pages := []PageEntry{}
	for rows.Next() {
		var (
			p     PageEntry
			title sql.NullString
		)
		if err := rows.Scan(&p.URL, &title, &p.ContentHash, &p.ContentLength, &p.Truncated); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		p.Title = title.String
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// ListAssets returns the assets downloaded during run runID, images first.
func (h *HistoryDB) ListAssets(ctx context.Context, runID int64) ([]model.AssetRef, error) {
	rows, err := h.db.QueryContext(ctx, `
	SELECT original_url, local_path, category, size
	FROM assets WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	assets := []model.AssetRef{}
	for rows.Next() {
		var a model.AssetRef
		if err := rows.Scan(&a.OriginalURL, &a.LocalPath, &a.Category, &a.Size); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// ChangedPages compares the page hashes of two runs and returns the URLs
// of run newer whose content differs from run older or is absent there.
func (h *HistoryDB) ChangedPages(ctx context.Context, older, newer int64) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, `
	SELECT n.url FROM pages n
	LEFT JOIN pages o ON o.run_id = ? AND o.url = n.url
	WHERE n.run_id = ? AND (o.id IS NULL OR o.content_hash <> n.content_hash)
	ORDER BY n.id
	`, older, newer)
	if err != nil {
		return nil, fmt.Errorf("failed to compare runs: %w", err)
	}
	defer rows.Close()

	changed := []string{}
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan page url: %w", err)
		}
		changed = append(changed, u)
	}
	return changed, rows.Err()
}

// timestampFormats contains the timestamp formats that may be stored.
// More specific formats come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTimestamp returns the zero time when s matches no known format.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
