package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/api/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/crawler", func(r chi.Router) {
			r.Post("/trigger/{source}", s.handleTriggerSource)
			r.Post("/trigger/all", s.handleTriggerAll)
			r.Get("/sources", s.handleSources)
			r.Get("/test", s.handleProbeAll)
			r.Get("/tasks", s.handleRunHistory)
		})
		r.Route("/news", func(r chi.Router) {
			r.Get("/{id}", s.handleGetNews)
			r.Post("/{id}/summary", s.handleGenerateSummary)
		})
		r.Post("/summaries/batch", s.handleBatchEnrich)
	})

	return r
}
