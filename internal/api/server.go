// Package api is the RAG backend's HTTP surface.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dgallion1/ragdesk/internal/config"
	"github.com/dgallion1/ragdesk/internal/httpmw"
	"github.com/dgallion1/ragdesk/internal/llm"
	"github.com/dgallion1/ragdesk/internal/rag"
	"github.com/dgallion1/ragdesk/internal/wire"
)

// Ingester stores uploaded documents.
type Ingester interface {
	Ingest(ctx context.Context, docs []rag.Document) (wire.IngestResponse, error)
}

// Querier answers a question from stored documents.
type Querier interface {
	Query(ctx context.Context, query string, topK int) (wire.QueryResponse, error)
}

// Server is the HTTP API server for the RAG backend.
type Server struct {
	router   chi.Router
	ingester Ingester
	querier  Querier
	llm      *llm.Client
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server. chat may be nil, in
// which case the stats endpoint reports unavailable.
func NewServer(ingester Ingester, querier Querier, chat *llm.Client, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		ingester: ingester,
		querier:  querier,
		llm:      chat,
		log:      log,
		cfg:      cfg,
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
	r.Use(httpmw.RequestLogger(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", httpmw.HandleHealth)
	r.Post("/ingest", s.handleIngest)
	r.Post("/query", s.handleQuery)
	r.Get("/api/stats/llm", s.handleLLMStats)

	s.router = r
}
