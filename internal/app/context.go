package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	kafkalib "github.com/segmentio/kafka-go"

	"leaguestats/internal/kafka"
	"leaguestats/internal/reporting"
	"leaguestats/internal/repository"
)

// AppContext is the central dependency injection container for the application.
// It holds all initialized connections, configuration, and provides lifecycle management.
type AppContext struct {
	Config *Config
	Logger *slog.Logger

	ClickHouse driver.Conn
	Postgres   *sql.DB
	Source     reporting.MatchSource

	Producer    *kafkalib.Writer
	Readers     []*kafkalib.Reader
	RetryWriter *kafkalib.Writer
	DeadWriter  *kafkalib.Writer
	Consumers   []*kafka.SnapshotConsumer

	Server        *http.Server
	MetricsServer *http.Server

	shutdownCh chan struct{}
}

// ContextOptions configures which components to initialize.
type ContextOptions struct {
	InitMatchSource bool // Open the configured match source (API server)
	InitProducer    bool // Kafka writer for report notifications (API server)
	InitArchiver    bool // ClickHouse snapshot store, readers and retry/dead writers (archiver)
}

// NewContext creates and initializes a new AppContext with all dependencies.
// Use opts to control which components to initialize. On failure, anything
// already opened is closed before returning.
func NewContext(cfg *Config, logger *slog.Logger, opts ContextOptions) (*AppContext, error) {
	c := &AppContext{
		Config:     cfg,
		Logger:     logger,
		shutdownCh: make(chan struct{}),
	}

	if err := c.init(opts); err != nil {
		c.closeResources()
		return nil, err
	}
	return c, nil
}

// NewServerContext creates an AppContext for the API server.
func NewServerContext(cfg *Config, logger *slog.Logger) (*AppContext, error) {
	return NewContext(cfg, logger, ServerOptions(cfg))
}

// NewArchiverContext creates an AppContext for the snapshot archiver.
func NewArchiverContext(cfg *Config, logger *slog.Logger) (*AppContext, error) {
	return NewContext(cfg, logger, ArchiverOptions())
}

// ServerOptions returns the components the API server needs.
func ServerOptions(cfg *Config) ContextOptions {
	return ContextOptions{InitMatchSource: true, InitProducer: cfg.Kafka.Enabled}
}

// ArchiverOptions returns the components the archiver needs.
func ArchiverOptions() ContextOptions {
	return ContextOptions{InitArchiver: true}
}

func (c *AppContext) init(opts ContextOptions) error {
	if opts.InitMatchSource {
		if err := c.initMatchSource(); err != nil {
			return err
		}
	}

	if opts.InitProducer {
		c.initProducer()
		c.Logger.Info("Kafka producer initialized",
			slog.Any("brokers", c.Config.Kafka.BootstrapServers),
			slog.String("topic", c.Config.Kafka.TopicReports),
		)
	}

	if opts.InitArchiver {
		if c.ClickHouse == nil {
			if err := c.initClickHouse(); err != nil {
				return fmt.Errorf("failed to initialize ClickHouse: %w", err)
			}
		}
		c.initArchiverKafka()
		c.Logger.Info("Kafka archiver components initialized",
			slog.Any("brokers", c.Config.Kafka.BootstrapServers),
			slog.String("topic", c.Config.Kafka.TopicReports),
			slog.String("retry_topic", c.Config.Kafka.TopicRetry),
			slog.String("group", c.Config.Archiver.ConsumerGroup),
		)
	}

	return nil
}

// initMatchSource opens the backend selected by MATCH_SOURCE.
func (c *AppContext) initMatchSource() error {
	switch c.Config.MatchSource {
	case MatchSourceClickHouse:
		if err := c.initClickHouse(); err != nil {
			return fmt.Errorf("failed to initialize ClickHouse: %w", err)
		}
		c.Source = repository.NewClickHouseRepository(c.ClickHouse, c.Logger)
	case MatchSourcePostgres:
		if err := c.initPostgres(); err != nil {
			return fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		c.Source = repository.NewPostgresRepository(c.Postgres, c.Logger)
	default:
		return fmt.Errorf("unknown match source %q", c.Config.MatchSource)
	}

	c.Logger.Info("match source ready", slog.String("backend", c.Config.MatchSource))
	return nil
}

// initClickHouse establishes and verifies a connection to ClickHouse.
func (c *AppContext) initClickHouse() error {
	chCfg := repository.DefaultConnectionConfig()
	chCfg.Hosts = c.Config.ClickHouse.Hosts
	chCfg.Database = c.Config.ClickHouse.Database
	chCfg.Username = c.Config.ClickHouse.User
	chCfg.Password = c.Config.ClickHouse.Password
	chCfg.MaxOpenConns = c.Config.ClickHouse.MaxOpenConns
	chCfg.DialTimeout = c.Config.ClickHouse.DialTimeout

	conn, err := repository.NewConnection(chCfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	c.ClickHouse = conn
	c.Logger.Info("ClickHouse connection established",
		slog.Any("hosts", chCfg.Hosts),
		slog.String("database", chCfg.Database),
	)
	return nil
}

// initPostgres opens and verifies the Postgres pool.
func (c *AppContext) initPostgres() error {
	pgCfg := repository.PostgresConfig{
		DSN:             c.Config.Postgres.DSN,
		MaxOpenConns:    c.Config.Postgres.MaxOpenConns,
		MaxIdleConns:    c.Config.Postgres.MaxIdleConns,
		ConnMaxLifetime: c.Config.Postgres.ConnMaxLifetime,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := repository.NewPostgresDB(ctx, pgCfg)
	if err != nil {
		return err
	}

	c.Postgres = db
	c.Logger.Info("Postgres connection established",
		slog.Int("max_open_conns", pgCfg.MaxOpenConns),
	)
	return nil
}

// initProducer creates the Kafka writer for report notifications.
func (c *AppContext) initProducer() {
	wCfg := kafka.DefaultWriterConfig(c.Config.Kafka.BootstrapServers, c.Config.Kafka.TopicReports)
	wCfg.WriteTimeout = c.Config.Kafka.ProducerTimeout
	c.Producer = kafka.NewWriter(wCfg)
}

// initArchiverKafka creates one reader for the reports topic, one for the retry
// topic, and the retry and dead letter writers.
func (c *AppContext) initArchiverKafka() {
	brokers := c.Config.Kafka.BootstrapServers
	group := c.Config.Archiver.ConsumerGroup

	for _, topic := range []string{c.Config.Kafka.TopicReports, c.Config.Kafka.TopicRetry} {
		rCfg := kafka.DefaultReaderConfig(brokers, topic, group)
		rCfg.MaxWait = c.Config.Archiver.FlushInterval
		c.Readers = append(c.Readers, kafka.NewReader(rCfg))
	}

	retryCfg := kafka.DefaultWriterConfig(brokers, c.Config.Kafka.TopicRetry)
	retryCfg.WriteTimeout = c.Config.Kafka.ProducerTimeout
	c.RetryWriter = kafka.NewWriter(retryCfg)

	deadCfg := kafka.DefaultWriterConfig(brokers, c.Config.Kafka.TopicDead)
	deadCfg.WriteTimeout = c.Config.Kafka.ProducerTimeout
	c.DeadWriter = kafka.NewWriter(deadCfg)
}

// ShutdownChan returns the channel that signals application shutdown.
func (c *AppContext) ShutdownChan() <-chan struct{} {
	return c.shutdownCh
}

// Shutdown gracefully closes all components in order:
// HTTP servers, consumers (final flush), Kafka clients, then the stores.
func (c *AppContext) Shutdown(ctx context.Context) error {
	c.Logger.Info("Starting graceful shutdown")

	var errs []error

	// Signal shutdown to any listeners
	close(c.shutdownCh)

	if c.Server != nil {
		c.Logger.Info("Shutting down HTTP server")
		if err := c.Server.Shutdown(ctx); err != nil {
			c.Logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
		}
	}

	if c.MetricsServer != nil {
		c.Logger.Info("Shutting down metrics server")
		if err := c.MetricsServer.Shutdown(ctx); err != nil {
			c.Logger.Error("metrics server shutdown error", slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	for _, consumer := range c.Consumers {
		consumer.Stop()
	}
	if len(c.Consumers) > 0 {
		c.Logger.Info("Snapshot consumers stopped", slog.Int("count", len(c.Consumers)))
	}

	errs = append(errs, c.closeResources()...)

	if len(errs) > 0 {
		c.Logger.Error("Shutdown completed with errors", slog.Int("error_count", len(errs)))
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	c.Logger.Info("Graceful shutdown completed successfully")
	return nil
}

// closeResources closes Kafka clients and store connections, collecting errors.
func (c *AppContext) closeResources() []error {
	var errs []error

	closeOne := func(name string, fn func() error) {
		if err := fn(); err != nil {
			c.Logger.Error(name+" close error", slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("%s close: %w", name, err))
		}
	}

	// Producer first so pending notifications are flushed.
	if c.Producer != nil {
		closeOne("Kafka producer", c.Producer.Close)
		c.Producer = nil
	}
	for _, reader := range c.Readers {
		closeOne("Kafka reader", reader.Close)
	}
	c.Readers = nil
	if c.RetryWriter != nil {
		closeOne("Kafka retry writer", c.RetryWriter.Close)
		c.RetryWriter = nil
	}
	if c.DeadWriter != nil {
		closeOne("Kafka dead letter writer", c.DeadWriter.Close)
		c.DeadWriter = nil
	}
	if c.Postgres != nil {
		closeOne("Postgres", c.Postgres.Close)
		c.Postgres = nil
	}
	if c.ClickHouse != nil {
		closeOne("ClickHouse", c.ClickHouse.Close)
		c.ClickHouse = nil
	}

	return errs
}
