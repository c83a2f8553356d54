package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/planreport/internal/config"
	"github.com/dgallion1/planreport/internal/events"
	"github.com/dgallion1/planreport/internal/pipeline"
	"github.com/dgallion1/planreport/internal/planstore"
	"github.com/dgallion1/planreport/internal/report"
)

// Server is the HTTP API server for planreport.
type Server struct {
	router       chi.Router
	plans        *planstore.Store
	events       *events.Service
	orchestrator *pipeline.Orchestrator
	gen          *report.Generator
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(plans *planstore.Store, ev *events.Service, orch *pipeline.Orchestrator, gen *report.Generator, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		plans:        plans,
		events:       ev,
		orchestrator: orch,
		gen:          gen,
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

		r.Route("/api/plans", func(r chi.Router) {
			r.Post("/", s.handleCreatePlan)
			r.Get("/", s.handleListPlans)
			r.Route("/{planID}", func(r chi.Router) {
				r.Get("/", s.handleGetPlan)
				r.Put("/", s.handleUpdatePlan)
				r.Delete("/", s.handleDeletePlan)
				r.Post("/notes", s.handleImportNotes)
				r.Post("/reports", s.handleSubmitReport)
				r.Get("/export.docx", s.handleExportDOCX)
				r.Get("/export.xlsx", s.handleExportXLSX)
			})
		})

		r.Post("/api/reports/render", s.handleRender)
		r.Get("/api/reports/{jobID}/status", s.handleReportStatus)
		r.Get("/api/reports/{jobID}/download", s.handleReportDownload)

		r.Route("/api/events", func(r chi.Router) {
			r.Post("/", s.handleCreateEvent)
			r.Get("/", s.handleListEvents)
			r.Get("/summary", s.handleEventSummary)
			r.Get("/{eventID}", s.handleGetEvent)
			r.Put("/{eventID}", s.handleUpdateEvent)
			r.Delete("/{eventID}", s.handleDeleteEvent)
		})

		r.Get("/api/stats/render", s.handleRenderStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
