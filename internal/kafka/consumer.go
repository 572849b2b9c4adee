package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"

	"leaguestats/internal/domain"
)

var (
	// Prometheus metrics for the snapshot consumer
	kafkaConsumerLag = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "leaguestats",
			Subsystem: "kafka_consumer",
			Name:      "lag",
			Help:      "Current consumer lag (difference between latest offset and committed offset)",
		},
		[]string{"topic", "partition"},
	)

	kafkaBatchesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leaguestats",
			Subsystem: "kafka_consumer",
			Name:      "batches_processed_total",
			Help:      "Total number of snapshot batches processed",
		},
		[]string{"status"},
	)

	kafkaSnapshotsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leaguestats",
			Subsystem: "kafka_consumer",
			Name:      "snapshots_consumed_total",
			Help:      "Total number of report notifications consumed from Kafka",
		},
		[]string{"status"},
	)

	kafkaConsumeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "leaguestats",
			Subsystem: "kafka_consumer",
			Name:      "consume_duration_seconds",
			Help:      "Histogram of batch processing duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"operation"},
	)

	kafkaRetryMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leaguestats",
			Subsystem: "kafka_consumer",
			Name:      "retry_messages_total",
			Help:      "Total number of notifications sent to the retry topic",
		},
		[]string{"status"},
	)

	kafkaDeadLetterMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leaguestats",
			Subsystem: "kafka_consumer",
			Name:      "dead_letter_messages_total",
			Help:      "Total number of notifications sent to the dead letter topic",
		},
		[]string{"reason"},
	)
)

// Dead letter reasons.
const (
	reasonParseError      = "parse_error"
	reasonRetriesExceeded = "max_retries_exceeded"
	reasonRetryFailed     = "retry_write_failed"
)

// SnapshotRepository stores archived report snapshots.
type SnapshotRepository interface {
	InsertSnapshots(ctx context.Context, snapshots []*domain.ReportSnapshot) error
}

// MessageReader is the subset of *kafka.Reader used by the consumer.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Stats() kafka.ReaderStats
}

// SnapshotConsumer consumes report notifications and batch inserts them into ClickHouse.
type SnapshotConsumer struct {
	reader        MessageReader
	repository    SnapshotRepository
	retryWriter   MessageWriter
	deadWriter    MessageWriter
	batchSize     int
	flushInterval time.Duration
	maxRetries    int
	logger        *slog.Logger

	batch     []*domain.ReportSnapshot
	messages  []kafka.Message
	// dead-lettered messages awaiting commit with the next flush
	routed    []kafka.Message
	batchLock sync.Mutex
	done      chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// SnapshotConsumerConfig holds configuration for the snapshot consumer.
// Nil writers disable the retry and dead letter topics.
type SnapshotConsumerConfig struct {
	Reader        MessageReader
	Repository    SnapshotRepository
	RetryWriter   MessageWriter
	DeadWriter    MessageWriter
	BatchSize     int
	FlushInterval time.Duration
	MaxRetries    int
	Logger        *slog.Logger
}

// NewSnapshotConsumer creates a new SnapshotConsumer instance.
func NewSnapshotConsumer(cfg SnapshotConsumerConfig) *SnapshotConsumer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &SnapshotConsumer{
		reader:        cfg.Reader,
		repository:    cfg.Repository,
		retryWriter:   cfg.RetryWriter,
		deadWriter:    cfg.DeadWriter,
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
		maxRetries:    cfg.MaxRetries,
		logger:        cfg.Logger,
		batch:         make([]*domain.ReportSnapshot, 0, cfg.BatchSize),
		messages:      make([]kafka.Message, 0, cfg.BatchSize),
		done:          make(chan struct{}),
	}
}

// Start launches the consume loop in its own goroutine and returns.
// The loop runs until Stop is called or the context is cancelled.
func (c *SnapshotConsumer) Start(ctx context.Context) {
	c.wg.Add(1)
	go c.run(ctx)
}

func (c *SnapshotConsumer) run(ctx context.Context) {
	defer c.wg.Done()

	c.logger.Info("starting snapshot consumer",
		slog.Int("batch_size", c.batchSize),
		slog.Duration("flush_interval", c.flushInterval),
	)

	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("context cancelled, flushing remaining batch")
			c.flush(context.Background())
			return

		case <-c.done:
			c.logger.Info("stop signal received, flushing remaining batch")
			c.flush(context.Background())
			return

		case <-ticker.C:
			c.flush(ctx)

		default:
			fetchCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
			msg, err := c.reader.FetchMessage(fetchCtx)
			cancel()

			if err != nil {
				if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
					continue
				}
				c.logger.Error("failed to fetch message",
					slog.String("error", err.Error()),
				)
				continue
			}

			c.handleMessage(ctx, msg)
		}
	}
}

// handleMessage parses one notification and adds it to the pending batch,
// flushing when the batch is full.
func (c *SnapshotConsumer) handleMessage(ctx context.Context, msg kafka.Message) {
	c.updateLagMetric(msg)

	snapshot, err := snapshotFromMessage(msg)
	if err != nil {
		c.logger.Error("failed to parse report notification",
			slog.String("error", err.Error()),
			slog.Int64("offset", msg.Offset),
			slog.Int("partition", msg.Partition),
		)
		kafkaSnapshotsConsumed.WithLabelValues("parse_error").Inc()
		if !c.sendToDead(ctx, []kafka.Message{msg}, reasonParseError) {
			return
		}
		// Committed with the batch so earlier pending offsets are not skipped.
		c.batchLock.Lock()
		c.routed = append(c.routed, msg)
		c.batchLock.Unlock()
		return
	}

	c.batchLock.Lock()
	c.batch = append(c.batch, snapshot)
	c.messages = append(c.messages, msg)
	batchLen := len(c.batch)
	c.batchLock.Unlock()

	c.logger.Debug("snapshot added to batch",
		slog.String("report_id", snapshot.ReportID.String()),
		slog.Int("batch_size", batchLen),
	)

	if batchLen >= c.batchSize {
		c.flush(ctx)
	}
}

func snapshotFromMessage(msg kafka.Message) (*domain.ReportSnapshot, error) {
	event, err := domain.ReportGeneratedFromKafkaMessage(msg.Value)
	if err != nil {
		return nil, err
	}
	return event.Snapshot()
}

func (c *SnapshotConsumer) updateLagMetric(msg kafka.Message) {
	stats := c.reader.Stats()
	kafkaConsumerLag.WithLabelValues(
		stats.Topic,
		strconv.Itoa(msg.Partition),
	).Set(float64(stats.Lag))
}

// flush writes the pending batch to the repository.
func (c *SnapshotConsumer) flush(ctx context.Context) {
	c.batchLock.Lock()
	routed := c.routed
	c.routed = nil
	if len(c.batch) == 0 {
		c.batchLock.Unlock()
		c.commit(ctx, routed)
		return
	}

	snapshots := c.batch
	messages := c.messages
	c.batch = make([]*domain.ReportSnapshot, 0, c.batchSize)
	c.messages = make([]kafka.Message, 0, c.batchSize)
	c.batchLock.Unlock()

	startTime := time.Now()
	err := c.repository.InsertSnapshots(ctx, snapshots)
	duration := time.Since(startTime)
	kafkaConsumeDuration.WithLabelValues("insert_snapshots").Observe(duration.Seconds())

	if err != nil {
		c.logger.Error("failed to insert snapshot batch",
			slog.Int("batch_size", len(snapshots)),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()),
		)
		kafkaBatchesProcessed.WithLabelValues("error").Inc()
		if c.sendToRetry(ctx, messages) {
			c.commit(ctx, append(messages, routed...))
		}
		return
	}

	c.commit(ctx, append(messages, routed...))

	c.logger.Info("snapshot batch flushed",
		slog.Int("batch_size", len(snapshots)),
		slog.Duration("duration", duration),
	)
	kafkaBatchesProcessed.WithLabelValues("success").Inc()
	kafkaSnapshotsConsumed.WithLabelValues("success").Add(float64(len(snapshots)))
}

func (c *SnapshotConsumer) commit(ctx context.Context, messages []kafka.Message) {
	if len(messages) == 0 {
		return
	}
	if err := c.reader.CommitMessages(ctx, messages...); err != nil {
		c.logger.Error("failed to commit messages",
			slog.Int("message_count", len(messages)),
			slog.String("error", err.Error()),
		)
	}
}

// sendToRetry republishes failed notifications with an incremented retry_count header.
// Messages past the retry limit, or all of them if the retry write fails, go to the dead letter topic.
// It reports whether every message was routed and may be committed.
func (c *SnapshotConsumer) sendToRetry(ctx context.Context, messages []kafka.Message) bool {
	if c.retryWriter == nil {
		c.logger.Warn("retry writer not configured, sending to dead letter",
			slog.Int("message_count", len(messages)),
		)
		return c.sendToDead(ctx, messages, reasonRetryFailed)
	}

	retryMessages := make([]kafka.Message, 0, len(messages))
	var exhausted []kafka.Message
	for _, original := range messages {
		retryCount := RetryCount(original) + 1
		if retryCount > c.maxRetries {
			c.logger.Warn("max retries exceeded, sending to dead letter",
				slog.String("report_id", string(original.Key)),
				slog.Int("retry_count", retryCount),
			)
			exhausted = append(exhausted, original)
			continue
		}
		retryMessages = append(retryMessages, retryMessage(original, retryCount))
	}

	routed := true
	if len(exhausted) > 0 {
		routed = c.sendToDead(ctx, exhausted, reasonRetriesExceeded)
	}

	if len(retryMessages) > 0 {
		if err := c.retryWriter.WriteMessages(ctx, retryMessages...); err != nil {
			c.logger.Error("failed to write to retry topic, sending to dead letter",
				slog.Int("message_count", len(retryMessages)),
				slog.String("error", err.Error()),
			)
			kafkaRetryMessages.WithLabelValues("error").Add(float64(len(retryMessages)))
			routed = c.sendToDead(ctx, retryMessages, reasonRetryFailed) && routed
		} else {
			c.logger.Info("notifications sent to retry topic",
				slog.Int("message_count", len(retryMessages)),
			)
			kafkaRetryMessages.WithLabelValues("success").Add(float64(len(retryMessages)))
		}
	}

	return routed
}

// RetryCount returns the retry_count header of a message, or 0 when absent or malformed.
func RetryCount(msg kafka.Message) int {
	for _, header := range msg.Headers {
		if header.Key != headerRetryCount {
			continue
		}
		n, err := strconv.Atoi(string(header.Value))
		if err != nil || n < 0 {
			return 0
		}
		return n
	}
	return 0
}

// retryMessage copies msg for the retry topic, replacing its retry_count header.
func retryMessage(msg kafka.Message, retryCount int) kafka.Message {
	headers := make([]kafka.Header, 0, len(msg.Headers)+2)
	hasOriginal := false
	for _, h := range msg.Headers {
		switch h.Key {
		case headerRetryCount:
			continue
		case headerOriginalTimestamp:
			hasOriginal = true
		}
		headers = append(headers, h)
	}
	headers = append(headers, kafka.Header{Key: headerRetryCount, Value: []byte(strconv.Itoa(retryCount))})
	if !hasOriginal && !msg.Time.IsZero() {
		headers = append(headers, kafka.Header{Key: headerOriginalTimestamp, Value: []byte(msg.Time.Format(time.RFC3339Nano))})
	}

	return kafka.Message{
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	}
}

// sendToDead publishes messages to the dead letter topic wrapped with failure metadata.
// It reports whether the messages were written.
func (c *SnapshotConsumer) sendToDead(ctx context.Context, messages []kafka.Message, reason string) bool {
	if c.deadWriter == nil {
		c.logger.Error("dead letter writer not configured, notifications lost",
			slog.Int("message_count", len(messages)),
			slog.String("reason", reason),
		)
		return false
	}

	failedAt := time.Now().UTC().Format(time.RFC3339Nano)
	deadMessages := make([]kafka.Message, 0, len(messages))
	for _, msg := range messages {
		deadMessages = append(deadMessages, deadLetterMessage(msg, reason, failedAt))
	}

	if err := c.deadWriter.WriteMessages(ctx, deadMessages...); err != nil {
		c.logger.Error("failed to write to dead letter topic",
			slog.Int("message_count", len(deadMessages)),
			slog.String("error", err.Error()),
		)
		return false
	}

	c.logger.Warn("notifications sent to dead letter topic",
		slog.Int("message_count", len(deadMessages)),
		slog.String("reason", reason),
	)
	kafkaDeadLetterMessages.WithLabelValues(reason).Add(float64(len(deadMessages)))
	return true
}

func deadLetterMessage(msg kafka.Message, reason, failedAt string) kafka.Message {
	failureInfo := map[string]interface{}{
		"failed_at":   failedAt,
		"reason":      reason,
		"report_id":   string(msg.Key),
		"retry_count": RetryCount(msg),
	}
	if json.Valid(msg.Value) {
		failureInfo["notification"] = json.RawMessage(msg.Value)
	} else {
		failureInfo["raw"] = string(msg.Value)
	}

	value, err := json.Marshal(failureInfo)
	if err != nil {
		value = msg.Value
	}

	return kafka.Message{
		Key:   msg.Key,
		Value: value,
		Headers: []kafka.Header{
			{Key: headerReportID, Value: msg.Key},
			{Key: headerFailedAt, Value: []byte(failedAt)},
			{Key: headerFailureReason, Value: []byte(reason)},
		},
	}
}

// Stop signals the consumer to stop and waits for it to finish.
func (c *SnapshotConsumer) Stop() {
	c.logger.Info("stopping snapshot consumer")
	c.stopOnce.Do(func() { close(c.done) })
	c.wg.Wait()
	c.logger.Info("snapshot consumer stopped")
}

// ReaderConfig holds configuration for Kafka reader.
type ReaderConfig struct {
	Brokers        []string
	Topic          string
	GroupID        string
	MinBytes       int
	MaxBytes       int
	MaxWait        time.Duration
	CommitInterval time.Duration
	StartOffset    int64
}

// DefaultReaderConfig returns default configuration for a consumer group reader.
func DefaultReaderConfig(brokers []string, topic, groupID string) ReaderConfig {
	return ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        5 * time.Second,
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	}
}

// NewReader creates a new Kafka reader.
func NewReader(cfg ReaderConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       cfg.MinBytes,
		MaxBytes:       cfg.MaxBytes,
		MaxWait:        cfg.MaxWait,
		CommitInterval: cfg.CommitInterval,
		StartOffset:    cfg.StartOffset,
		Dialer: &kafka.Dialer{
			Timeout:   10 * time.Second,
			DualStack: true,
		},
	})
}
