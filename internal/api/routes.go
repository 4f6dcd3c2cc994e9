package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yegors/cctv-repairs/internal/config"
	"github.com/yegors/cctv-repairs/internal/normalizer"
	"github.com/yegors/cctv-repairs/internal/repairs"
	"github.com/yegors/cctv-repairs/internal/session"
	"github.com/yegors/cctv-repairs/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     *config.Config
	logger     *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(sessions *session.Manager, repairsService *repairs.Service, norm *normalizer.Normalizer, cfg *config.Config, log *logger.Logger) *Router {
	return &Router{
		handler:    NewHandler(sessions, repairsService, norm, cfg.Export.FilenamePrefix, log),
		middleware: NewMiddleware(sessions, log),
		config:     cfg,
		logger:     log.Named("api-router"),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.Server.CORSAllowedOrigins))

	router.Route("/api/v1", func(router chi.Router) {
		// Public routes
		router.Post("/login", r.handler.Login)
		router.Get("/health", r.handler.GetHealth)

		// Everything else requires a live session
		router.Group(func(router chi.Router) {
			router.Use(r.middleware.RequireSession)

			router.Post("/logout", r.handler.Logout)
			router.Get("/session", r.handler.GetSession)
			router.Post("/navigate", r.handler.Navigate)

			// Search and records
			router.Post("/search", r.handler.Search)
			router.Get("/records", r.handler.ListRecords)
			router.Post("/records", r.handler.CreateRecord)
			router.Put("/records/{id}", r.handler.UpdateRecord)
			router.Delete("/records/{id}", r.handler.DeleteRecord)

			// Derived views
			router.Get("/options", r.handler.GetOptions)
			router.Get("/stats", r.handler.GetStats)
			router.Get("/export", r.handler.Export)

			// AI intake
			router.Post("/journal/analyze", r.handler.AnalyzeJournal)
			router.Post("/journal/save", r.handler.SaveJournal)
			router.Post("/journal/discard", r.handler.DiscardJournal)
		})
	})

	return router
}
