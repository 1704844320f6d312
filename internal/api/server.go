package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/scanbook/internal/config"
	"github.com/dgallion1/scanbook/internal/ocr"
	"github.com/dgallion1/scanbook/internal/pipeline"
	"github.com/dgallion1/scanbook/internal/storage"
)

// Server is the HTTP API server for scanbook.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	storage      storage.Adapter
	ocrStats     *ocr.Stats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, store storage.Adapter, stats *ocr.Stats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		storage:      store,
		ocrStats:     stats,
		log:          log,
		cfg:          cfg,
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
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/convert", s.handleConvert)
		r.Route("/api/convert/{jobID}", func(r chi.Router) {
			r.Get("/status", s.handleConvertStatus)
			r.Get("/events", s.handleConvertEvents)
			r.Get("/epub", s.handleDownload(pipeline.ArtifactEPUB))
			r.Get("/docx", s.handleDownload(pipeline.ArtifactDOCX))
			r.Get("/report", s.handleDownload(pipeline.ArtifactReport))
			r.Get("/report.html", s.handleDownload(pipeline.ArtifactReportHTML))
		})

		r.Post("/api/toc/validate", s.handleValidateTOC)
		r.Get("/api/stats/ocr", s.handleOCRStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
