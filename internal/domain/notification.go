package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ReportGenerated is emitted after a report has been generated successfully.
type ReportGenerated struct {
	ReportID    uuid.UUID
	GeneratedAt time.Time
	Filters     ReportFilters
	Options     ReportOptions
	Report      *Report
}

// NewReportGenerated builds a notification with a fresh report ID.
func NewReportGenerated(filters ReportFilters, opts ReportOptions, report *Report, at time.Time) *ReportGenerated {
	return &ReportGenerated{
		ReportID:    uuid.New(),
		GeneratedAt: at.UTC(),
		Filters:     filters,
		Options:     opts,
		Report:      report,
	}
}

// ReportGeneratedMessage represents the serialized form of a ReportGenerated notification for Kafka.
type ReportGeneratedMessage struct {
	ReportID    string        `json:"reportId"`
	GeneratedAt string        `json:"generatedAt"`
	Filters     ReportFilters `json:"filters"`
	Options     ReportOptions `json:"options"`
	Report      *Report       `json:"report"`
}

// ToKafkaMessage converts the notification to a JSON byte slice for Kafka.
func (e *ReportGenerated) ToKafkaMessage() ([]byte, error) {
	msg := ReportGeneratedMessage{
		ReportID:    e.ReportID.String(),
		GeneratedAt: e.GeneratedAt.Format(time.RFC3339Nano),
		Filters:     e.Filters,
		Options:     e.Options,
		Report:      e.Report,
	}
	return json.Marshal(msg)
}

// ReportGeneratedFromKafkaMessage deserializes a Kafka message into a ReportGenerated notification.
func ReportGeneratedFromKafkaMessage(data []byte) (*ReportGenerated, error) {
	var msg ReportGeneratedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}

	reportID, err := uuid.Parse(msg.ReportID)
	if err != nil {
		return nil, err
	}

	generatedAt, err := time.Parse(time.RFC3339Nano, msg.GeneratedAt)
	if err != nil {
		return nil, err
	}

	if msg.Report == nil {
		return nil, errors.New("report is missing")
	}

	return &ReportGenerated{
		ReportID:    reportID,
		GeneratedAt: generatedAt,
		Filters:     msg.Filters,
		Options:     msg.Options,
		Report:      msg.Report,
	}, nil
}

// ReportSnapshot is the archived row written for every generated report.
type ReportSnapshot struct {
	ReportID         uuid.UUID
	GeneratedAt      time.Time
	GroupBy          string
	TotalMatches     int
	CompletedMatches int
	TotalGoals       int
	FiltersJSON      string
	ReportJSON       string
}

// Snapshot flattens the notification into an archive row.
func (e *ReportGenerated) Snapshot() (*ReportSnapshot, error) {
	if e.Report == nil {
		return nil, errors.New("report is missing")
	}
	filters, err := json.Marshal(e.Filters)
	if err != nil {
		return nil, err
	}
	report, err := json.Marshal(e.Report)
	if err != nil {
		return nil, err
	}
	return &ReportSnapshot{
		ReportID:         e.ReportID,
		GeneratedAt:      e.GeneratedAt,
		GroupBy:          string(e.Options.GroupBy),
		TotalMatches:     e.Report.Summary.TotalMatches,
		CompletedMatches: e.Report.Summary.CompletedMatches,
		TotalGoals:       e.Report.Summary.TotalGoals,
		FiltersJSON:      string(filters),
		ReportJSON:       string(report),
	}, nil
}
