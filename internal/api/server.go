package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/newslens/internal/config"
	"github.com/dgallion1/newslens/internal/feed"
	"github.com/dgallion1/newslens/internal/llm"
	"github.com/dgallion1/newslens/internal/metrics"
	"github.com/dgallion1/newslens/internal/pipeline"
	"github.com/dgallion1/newslens/internal/store"
)

type ModelCatalog interface {
	Models(ctx context.Context) []string
}

type HeadlineSource interface {
	Headlines(ctx context.Context, limit int) []feed.Headline
}

// History reads stored analyses.
type History interface {
	Get(ctx context.Context, id string) (store.Record, error)
	List(ctx context.Context, limit int) ([]store.Record, error)
}

// Deps are the services behind the HTTP API. Nil optional services make
// their endpoints answer 503.
type Deps struct {
	Orchestrator *pipeline.Orchestrator
	Extractor    pipeline.Extractor
	Models       ModelCatalog
	Headlines    HeadlineSource
	History      History
	LLMStats     *llm.Stats
	Metrics      *metrics.Metrics
}

// Server is the HTTP API server for newslens.
type Server struct {
	router chi.Router
	deps   Deps
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		deps: deps,
		log:  log,
		cfg:  cfg,
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
	r.Handle("/metrics", s.deps.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/analyze", s.handleAnalyze)
		r.Post("/analyze/upload", s.handleAnalyzeUpload)
		r.Post("/summarize", s.handleSummarize)
		r.Post("/translate", s.handleTranslate)

		r.Post("/jobs", s.handleSubmitJob)
		r.Get("/jobs/{jobID}", s.handleJobStatus)

		r.Get("/models", s.handleModels)
		r.Get("/headlines", s.handleHeadlines)
		r.Get("/stats/llm", s.handleLLMStats)

		r.Get("/analyses", s.handleListAnalyses)
		r.Get("/analyses/{id}", s.handleGetAnalysis)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"queue_depth": s.deps.Orchestrator.QueueDepth(),
	})
}
