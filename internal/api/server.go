package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/docchunk/internal/convert"
	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/pipeline"
	"github.com/dgallion1/docchunk/internal/store"
)

// Jobs is the job queue the ingest handlers submit to.
type Jobs interface {
	Submit(job *pipeline.Job) error
	GetJob(id string) *pipeline.Job
	QueueDepth() int
	TrackedJobs() int
}

// Documents is the read and delete side of the chunk store.
type Documents interface {
	GetDocument(ctx context.Context, docID string) (*store.Document, error)
	ListChunks(ctx context.Context, docID string, page, limit int) (*store.ChunkPage, error)
	TocChunks(ctx context.Context, docID string) ([]doctree.Chunk, error)
	DeleteDocument(ctx context.Context, docID string) error
	Ping(ctx context.Context) error
}

// HealthChecker is implemented by converters backed by a remote service.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Options carries the optional parts of the server.
type Options struct {
	APIKey string
	// Health, when set, is probed by GET /health.
	Health HealthChecker
	// Stats, when set, backs GET /api/stats/conversion.
	Stats *convert.LatencyStats
	// CheckExtension rejects doc paths the local parsers cannot read.
	CheckExtension bool
}

// Server is the HTTP API server for docchunk.
type Server struct {
	router chi.Router
	jobs   Jobs
	docs   Documents
	opts   Options
	log    *slog.Logger
}

// NewServer creates and configures the HTTP server.
func NewServer(jobs Jobs, docs Documents, opts Options, log *slog.Logger) *Server {
	s := &Server{
		jobs: jobs,
		docs: docs,
		opts: opts,
		log:  log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.opts.APIKey))

		r.Post("/api/ingest", s.handleIngest)
		r.Post("/api/ingest/batch", s.handleBatchIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Get("/api/stats/conversion", s.handleConversionStats)

		r.Get("/api/documents/{docID}", s.handleGetDocument)
		r.Get("/api/documents/{docID}/chunks", s.handleListChunks)
		r.Get("/api/documents/{docID}/index", s.handleDocumentIndex)
		r.Delete("/api/documents/{docID}", s.handleDeleteDocument)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]any{
		"status":       "ok",
		"queue_depth":  s.jobs.QueueDepth(),
		"tracked_jobs": s.jobs.TrackedJobs(),
		"store":        "ok",
	}
	if err := s.docs.Ping(r.Context()); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["store"] = err.Error()
	}
	if s.opts.Health != nil {
		if err := s.opts.Health.Health(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["converter"] = err.Error()
		} else {
			body["converter"] = "ok"
		}
	}
	writeJSON(w, status, body)
}
