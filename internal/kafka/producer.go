package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"

	"leaguestats/internal/domain"
)

var (
	// Prometheus metrics for the report notifier
	kafkaMessagesProduced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leaguestats",
			Subsystem: "kafka_producer",
			Name:      "messages_produced_total",
			Help:      "Total number of messages produced to Kafka",
		},
		[]string{"topic", "status"},
	)

	kafkaProduceLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "leaguestats",
			Subsystem: "kafka_producer",
			Name:      "produce_duration_seconds",
			Help:      "Histogram of Kafka produce latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		},
		[]string{"topic"},
	)

	kafkaMessageSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "leaguestats",
			Subsystem: "kafka_producer",
			Name:      "message_size_bytes",
			Help:      "Histogram of Kafka message sizes in bytes",
			Buckets:   []float64{1000, 5000, 10000, 50000, 100000, 500000, 1000000},
		},
		[]string{"topic"},
	)
)

// Message headers.
const (
	headerReportID          = "report_id"
	headerGroupBy           = "group_by"
	headerRetryCount        = "retry_count"
	headerOriginalTimestamp = "original_timestamp"
	headerFailedAt          = "failed_at"
	headerFailureReason     = "failure_reason"
)

// MessageWriter is the subset of *kafka.Writer used by this package.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ReportNotifier publishes report generated notifications to Kafka.
type ReportNotifier struct {
	writer MessageWriter
	topic  string
	logger *slog.Logger
}

// NewReportNotifier creates a new ReportNotifier instance.
func NewReportNotifier(writer *kafka.Writer, logger *slog.Logger) *ReportNotifier {
	if writer == nil {
		return newReportNotifier(nil, "", logger)
	}
	return newReportNotifier(writer, writer.Topic, logger)
}

func newReportNotifier(writer MessageWriter, topic string, logger *slog.Logger) *ReportNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportNotifier{
		writer: writer,
		topic:  topic,
		logger: logger,
	}
}

// ReportGenerated writes the notification envelope keyed by report ID.
func (n *ReportNotifier) ReportGenerated(ctx context.Context, event *domain.ReportGenerated) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	startTime := time.Now()

	value, err := event.ToKafkaMessage()
	if err != nil {
		n.logger.Error("failed to serialize report notification",
			slog.String("report_id", event.ReportID.String()),
			slog.String("error", err.Error()),
		)
		kafkaMessagesProduced.WithLabelValues(n.topic, "serialization_error").Inc()
		return fmt.Errorf("failed to serialize report notification: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.ReportID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: headerReportID, Value: []byte(event.ReportID.String())},
			{Key: headerGroupBy, Value: []byte(string(event.Options.GroupBy))},
		},
		Time: event.GeneratedAt,
	}

	err = n.writer.WriteMessages(ctx, msg)
	duration := time.Since(startTime)

	kafkaProduceLatency.WithLabelValues(n.topic).Observe(duration.Seconds())
	kafkaMessageSize.WithLabelValues(n.topic).Observe(float64(len(value)))

	if err != nil {
		n.logger.Error("failed to produce report notification",
			slog.String("report_id", event.ReportID.String()),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()),
		)
		kafkaMessagesProduced.WithLabelValues(n.topic, "error").Inc()
		return fmt.Errorf("failed to produce report notification: %w", err)
	}

	n.logger.Debug("report notification produced",
		slog.String("report_id", event.ReportID.String()),
		slog.Duration("duration", duration),
		slog.Int("message_size", len(value)),
	)
	kafkaMessagesProduced.WithLabelValues(n.topic, "success").Inc()

	return nil
}

// Close closes the Kafka writer and releases resources.
func (n *ReportNotifier) Close() error {
	if n.writer == nil {
		return nil
	}

	n.logger.Info("closing report notifier")

	if err := n.writer.Close(); err != nil {
		n.logger.Error("failed to close Kafka writer",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to close Kafka writer: %w", err)
	}
	return nil
}

// WriterConfig holds configuration for Kafka writer.
type WriterConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	WriteTimeout time.Duration
	MaxAttempts  int
	Async        bool
}

// DefaultWriterConfig returns default configuration for a topic writer.
func DefaultWriterConfig(brokers []string, topic string) WriterConfig {
	return WriterConfig{
		Brokers:      brokers,
		Topic:        topic,
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		MaxAttempts:  3,
		Async:        false,
	}
}

// NewWriter creates a Kafka writer partitioning by message key.
func NewWriter(cfg WriterConfig) *kafka.Writer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireAll,
		Async:        cfg.Async,
	}

	if cfg.MaxAttempts > 0 {
		w.MaxAttempts = cfg.MaxAttempts
	}

	return w
}
