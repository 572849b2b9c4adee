package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"leaguestats/internal/domain"
)

// mockWriter records written messages.
type mockWriter struct {
	writeErr error
	written  []kafka.Message
	closed   bool
	mu       sync.Mutex
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.written = append(m.written, msgs...)
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

func (m *mockWriter) messages() []kafka.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written
}

// mockReader serves queued messages and records commits.
type mockReader struct {
	queue     []kafka.Message
	committed []kafka.Message
	mu        sync.Mutex
}

func (m *mockReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	m.mu.Lock()
	if len(m.queue) > 0 {
		msg := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()
		return msg, nil
	}
	m.mu.Unlock()

	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (m *mockReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed = append(m.committed, msgs...)
	return nil
}

func (m *mockReader) Stats() kafka.ReaderStats {
	return kafka.ReaderStats{Topic: "league.reports"}
}

func (m *mockReader) commits() []kafka.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.committed
}

// mockSnapshotRepository records inserted snapshots.
type mockSnapshotRepository struct {
	insertErr error
	inserted  []*domain.ReportSnapshot
	calls     int
	mu        sync.Mutex
}

func (m *mockSnapshotRepository) InsertSnapshots(ctx context.Context, snapshots []*domain.ReportSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, snapshots...)
	return nil
}

func (m *mockSnapshotRepository) snapshots() []*domain.ReportSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inserted
}

func createTestNotification() *domain.ReportGenerated {
	report := domain.NewEmptyReport()
	report.Summary.TotalMatches = 4
	report.Summary.CompletedMatches = 3
	report.Summary.TotalGoals = 9

	return domain.NewReportGenerated(
		domain.ReportFilters{TeamID: "team-a"},
		domain.ReportOptions{GroupBy: domain.GroupByWeek, IncludeInsights: true},
		report,
		time.Date(2024, 5, 4, 15, 0, 0, 0, time.UTC),
	)
}

func notificationMessage(event *domain.ReportGenerated, headers ...kafka.Header) kafka.Message {
	value, err := event.ToKafkaMessage()
	if err != nil {
		panic(err)
	}
	return kafka.Message{
		Key:     []byte(event.ReportID.String()),
		Value:   value,
		Headers: headers,
		Time:    event.GeneratedAt,
	}
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
