package main

import (
	"log/slog"
	"net/http"
	"os"

	"leaguestats/internal/api"
	"leaguestats/internal/app"
	"leaguestats/internal/export"
	"leaguestats/internal/kafka"
	"leaguestats/internal/reporting"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	cfg, err := app.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := app.NewLogger(os.Stdout, cfg.LogLevel, "server")
	slog.SetDefault(logger)

	logger.Info("starting leaguestats API server",
		slog.String("version", Version),
		slog.String("match_source", cfg.MatchSource),
	)

	// Initialize application context (match source, Kafka producer)
	appCtx, err := app.NewServerContext(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application context",
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	var engineOpts []reporting.EngineOption
	if appCtx.Producer != nil {
		engineOpts = append(engineOpts, reporting.WithNotifier(kafka.NewReportNotifier(appCtx.Producer, logger)))
		logger.Info("report notifications enabled",
			slog.String("topic", cfg.Kafka.TopicReports),
		)
	}

	engine := reporting.NewEngine(logger, engineOpts...)
	service := reporting.NewService(appCtx.Source, engine, cfg.ReportTimeout, logger)

	addr := cfg.Server.Addr()
	server := api.NewServer(addr, service, export.NewExporter(), logger,
		api.WithAllowedOrigins(cfg.Server.AllowedOrigins...),
	)
	server.ReadTimeout = cfg.Server.ReadTimeout
	server.WriteTimeout = cfg.Server.WriteTimeout
	server.IdleTimeout = cfg.Server.IdleTimeout

	// Store server reference in app context for graceful shutdown
	appCtx.Server = server

	go func() {
		logger.Info("HTTP server starting",
			slog.String("address", addr),
			slog.Duration("read_timeout", cfg.Server.ReadTimeout),
			slog.Duration("write_timeout", cfg.Server.WriteTimeout),
			slog.Duration("report_timeout", cfg.ReportTimeout),
		)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error",
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}()

	logger.Info("leaguestats API server is running",
		slog.String("address", addr),
		slog.String("reports_endpoint", "/api/reports"),
		slog.String("health_endpoint", "/health"),
		slog.String("metrics_endpoint", "/metrics"),
	)

	// Wait for shutdown signal (SIGINT, SIGTERM)
	app.WaitForShutdown(appCtx, cfg.Server.ShutdownTimeout)

	logger.Info("leaguestats API server shutdown complete")
}
