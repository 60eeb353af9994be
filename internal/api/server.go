package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/nao1215/sitegrab/internal/config"
	"github.com/nao1215/sitegrab/internal/crawler"
	"github.com/nao1215/sitegrab/internal/database"
	"github.com/nao1215/sitegrab/internal/model"
	"github.com/nao1215/sitegrab/internal/pipeline"
	"github.com/nao1215/sitegrab/internal/scope"
)

// maxRequestBody bounds the size of a crawl request.
const maxRequestBody = 1 << 20

// SpiderFactory builds the spider for one request.
type SpiderFactory func(domain string, opts config.CrawlOptions) *crawler.Spider

// CrawlRequest is the body of POST /api/crawl. Options left out of the
// request keep their default values.
type CrawlRequest struct {
	URL     string              `json:"url"`
	Options config.CrawlOptions `json:"options"`
}

// CrawlResponse is the body of a successful crawl.
type CrawlResponse struct {
	Success bool           `json:"success"`
	Data    *model.Outcome `json:"data"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Server is the HTTP front end of the crawler.
type Server struct {
	mux         *http.ServeMux
	newSpider   SpiderFactory
	defaults    config.CrawlOptions
	downloadDir string
	db          *database.HistoryDB
	logger      *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithDefaults sets the options applied to fields a request leaves out.
func WithDefaults(opts config.CrawlOptions) Option {
	return func(s *Server) {
		s.defaults = opts
	}
}

// WithHistory records every crawl in db and enables the history routes.
func WithHistory(db *database.HistoryDB) Option {
	return func(s *Server) {
		s.db = db
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer wires the handlers. downloadDir is the asset root served
// below /downloads/.
func NewServer(newSpider SpiderFactory, downloadDir string, opts ...Option) *Server {
	s := &Server{
		mux:         http.NewServeMux(),
		newSpider:   newSpider,
		defaults:    config.DefaultCrawlOptions(),
		downloadDir: downloadDir,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// ServeHTTP satisfies the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/crawl", s.handleCrawl)
	s.mux.Handle("GET /downloads/", http.StripPrefix("/downloads/", http.FileServer(http.Dir(s.downloadDir))))
	if s.db != nil {
		s.mux.HandleFunc("GET /api/history", s.handleListRuns)
		s.mux.HandleFunc("GET /api/history/{id}", s.handleGetRun)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	req := CrawlRequest{Options: s.defaults}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid input", "invalid json payload: "+err.Error())
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "Invalid input", "url is required")
		return
	}
	if err := req.Options.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid input", err.Error())
		return
	}

	domain := scope.ExtractDomain(req.URL)
	job := model.NewJob(req.URL, domain, req.Options.Recursive)

	p := pipeline.New(pipeline.WithLogger(s.logger))
	p.AddStep(pipeline.NewCrawlStep(s.newSpider(domain, req.Options)))
	if s.db != nil {
		p.AddStep(pipeline.NewPersistStep(s.db))
	}

	err := p.Execute(r.Context(), job)
	switch {
	case errors.Is(err, crawler.ErrInvalidSeedURL):
		writeError(w, http.StatusBadRequest, "Invalid URL", err.Error())
		return
	case job.Outcome == nil:
		msg := "crawl produced no result"
		if err != nil {
			msg = err.Error()
		}
		s.logger.Error("crawl failed", "url", req.URL, "error", err)
		writeError(w, http.StatusInternalServerError, "Crawl failed", msg)
		return
	case err != nil:
		s.logger.Warn("crawl finished with errors", "url", req.URL, "error", err)
	}

	s.logger.Info("crawl served",
		"url", req.URL,
		"recursive", job.Recursive,
		"pages", len(job.Outcome.Pages()),
		"run_id", job.RunID,
		"elapsed", job.Duration(),
	)
	writeJSON(w, http.StatusOK, CrawlResponse{Success: true, Data: job.Outcome})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.db.ListRuns(r.Context(), r.URL.Query().Get("domain"))
	if err != nil {
		s.logger.Error("failed to list runs", "error", err)
		writeError(w, http.StatusInternalServerError, "History unavailable", err.Error())
		return
	}
	if runs == nil {
		runs = []database.RunSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid input", "run id must be a positive integer")
		return
	}

	outcome, err := s.db.GetRunOutcome(r.Context(), id)
	switch {
	case errors.Is(err, database.ErrRunNotFound):
		writeError(w, http.StatusNotFound, "Not found", err.Error())
	case err != nil:
		s.logger.Error("failed to load run", "run_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "History unavailable", err.Error())
	default:
		writeJSON(w, http.StatusOK, CrawlResponse{Success: true, Data: outcome})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, ErrorResponse{Error: kind, Message: message})
}
