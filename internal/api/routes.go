package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

type routerConfig struct {
	allowedOrigins []string
}

// RouterOption configures NewRouter.
type RouterOption func(*routerConfig)

// WithAllowedOrigins sets the CORS allowed origins. The default allows any origin.
func WithAllowedOrigins(origins ...string) RouterOption {
	return func(c *routerConfig) {
		if len(origins) > 0 {
			c.allowedOrigins = origins
		}
	}
}

// NewRouter creates and configures a new chi router with all routes and middleware.
func NewRouter(service ReportService, exporter ReportExporter, logger *slog.Logger, opts ...RouterOption) *chi.Mux {
	cfg := routerConfig{allowedOrigins: []string{"*"}}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(PrometheusMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Disposition"},
	}).Handler)
	r.Use(middleware.Timeout(60 * time.Second))

	h := NewHandler(service, exporter)

	// Health check endpoints (outside /api prefix)
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadinessCheck)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/reports", func(r chi.Router) {
		r.Post("/", h.GenerateReport)
		r.Post("/compute", h.ComputeReport)
		r.Post("/export/{format}", h.ExportReport)
		r.Get("/latency", h.GetReportLatency)
	})

	return r
}

// NewServer creates a new HTTP server with the configured router.
func NewServer(addr string, service ReportService, exporter ReportExporter, logger *slog.Logger, opts ...RouterOption) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      NewRouter(service, exporter, logger, opts...),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
