package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"leaguestats/internal/app"
	"leaguestats/internal/kafka"
	"leaguestats/internal/repository"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	cfg, err := app.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := app.NewLogger(os.Stdout, cfg.LogLevel, "archiver")
	slog.SetDefault(logger)

	logger.Info("starting leaguestats snapshot archiver",
		slog.String("version", Version),
	)

	// ClickHouse snapshot store, readers for the reports and retry topics, retry/dead writers
	appCtx, err := app.NewArchiverContext(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application context",
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	repo := repository.NewClickHouseRepository(appCtx.ClickHouse, logger)

	// Consumers stop through appCtx.Shutdown, which flushes each pending batch.
	ctx := context.Background()
	for _, reader := range appCtx.Readers {
		topic := reader.Config().Topic
		consumer := kafka.NewSnapshotConsumer(kafka.SnapshotConsumerConfig{
			Reader:        reader,
			Repository:    repo,
			RetryWriter:   appCtx.RetryWriter,
			DeadWriter:    appCtx.DeadWriter,
			BatchSize:     cfg.Archiver.BatchSize,
			FlushInterval: cfg.Archiver.FlushInterval,
			MaxRetries:    cfg.Archiver.MaxRetries,
			Logger:        logger.With(slog.String("topic", topic)),
		})
		appCtx.Consumers = append(appCtx.Consumers, consumer)

		consumer.Start(ctx)
	}

	metricsServer := &http.Server{
		Addr:         cfg.Archiver.MetricsAddr,
		Handler:      promhttp.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	appCtx.MetricsServer = metricsServer

	go func() {
		logger.Info("metrics server starting",
			slog.String("address", cfg.Archiver.MetricsAddr),
		)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error",
				slog.String("error", err.Error()),
			)
		}
	}()

	logger.Info("leaguestats snapshot archiver is running",
		slog.String("reports_topic", cfg.Kafka.TopicReports),
		slog.String("retry_topic", cfg.Kafka.TopicRetry),
		slog.String("dead_topic", cfg.Kafka.TopicDead),
		slog.Int("batch_size", cfg.Archiver.BatchSize),
		slog.Duration("flush_interval", cfg.Archiver.FlushInterval),
	)

	app.WaitForShutdown(appCtx, cfg.Server.ShutdownTimeout)

	logger.Info("leaguestats snapshot archiver shutdown complete")
}
