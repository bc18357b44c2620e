package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/user/rating-ingest/internal/delivery/http/handler"
	"github.com/user/rating-ingest/internal/delivery/http/middleware"
	"github.com/user/rating-ingest/pkg/metrics"
)

func New(h *handler.Handler, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics(m))
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HandleHealthCheck)

		r.Post("/ingestions", h.HandleSubmitIngestion)
		r.Get("/ingestions/{schoolID}", h.HandleGetIngestionStatus)

		r.Get("/schools/unscraped", h.HandleUnscrapedSchools)
		r.Get("/schools/{schoolID}/departments", h.HandleDepartmentAverages)
		r.Get("/departments/{department}/schools", h.HandleDepartmentDistribution)
		r.Get("/instructors/search", h.HandleSearchInstructors)
	})

	return r
}
