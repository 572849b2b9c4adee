package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"leaguestats/internal/domain"
	"leaguestats/internal/export"
)

// maxBodyBytes bounds request bodies, compute requests included.
const maxBodyBytes = 10 << 20

// Endpoint labels used in report metrics.
const (
	endpointGenerate = "generate"
	endpointCompute  = "compute"
	endpointExport   = "export"
)

// ReportService defines the interface for building reports.
type ReportService interface {
	GenerateReport(ctx context.Context, filters domain.ReportFilters, opts domain.ReportOptions) (*domain.Report, error)
	Compute(ctx context.Context, matches []domain.MatchRecord, opts domain.ReportOptions) (*domain.Report, error)
	Ping(ctx context.Context) error
}

// ReportExporter defines the interface for rendering reports into download formats.
type ReportExporter interface {
	Supports(format string) bool
	Export(report *domain.Report, format string) ([]byte, string, error)
}

// Handler handles HTTP requests for the API.
type Handler struct {
	service  ReportService
	exporter ReportExporter
}

// NewHandler creates a new Handler with the given report service and exporter.
func NewHandler(service ReportService, exporter ReportExporter) *Handler {
	return &Handler{
		service:  service,
		exporter: exporter,
	}
}

// GenerateReport handles POST /api/reports.
// It loads matches matching the request filters and returns the aggregated report.
func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	filters, opts, ok := decodeReportRequest(w, r)
	if !ok {
		RecordReportRequest(endpointGenerate, statusInvalid)
		return
	}

	report, err := h.service.GenerateReport(r.Context(), filters, opts)
	if err != nil {
		respondReportError(w, endpointGenerate, err)
		return
	}

	RecordReportRequest(endpointGenerate, statusSuccess)
	RecordReportResponseTime(time.Since(start))
	respondJSON(w, http.StatusOK, report)
}

// ComputeReport handles POST /api/reports/compute.
// It aggregates the match list carried in the body without touching the match source.
func (h *Handler) ComputeReport(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req domain.ComputeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		RecordReportRequest(endpointCompute, statusInvalid)
		respondError(w, http.StatusBadRequest, "invalid JSON body", err.Error())
		return
	}

	opts, err := req.Options.ToOptions()
	if err != nil {
		RecordReportRequest(endpointCompute, statusInvalid)
		respondValidationError(w, err)
		return
	}

	report, err := h.service.Compute(r.Context(), req.Matches, opts)
	if err != nil {
		respondReportError(w, endpointCompute, err)
		return
	}

	RecordReportRequest(endpointCompute, statusSuccess)
	RecordReportResponseTime(time.Since(start))
	respondJSON(w, http.StatusOK, report)
}

// ExportReport handles POST /api/reports/export/{format}.
// It generates the report like GenerateReport and returns it rendered as an attachment.
func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	format := chi.URLParam(r, "format")
	if !h.exporter.Supports(format) {
		RecordReportRequest(endpointExport, statusInvalid)
		respondErrorWithField(w, http.StatusBadRequest, domain.ErrUnsupportedFormat.Error(), "format")
		return
	}

	filters, opts, ok := decodeReportRequest(w, r)
	if !ok {
		RecordReportRequest(endpointExport, statusInvalid)
		return
	}

	report, err := h.service.GenerateReport(r.Context(), filters, opts)
	if err != nil {
		respondReportError(w, endpointExport, err)
		return
	}

	data, contentType, err := h.exporter.Export(report, format)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedFormat) {
			RecordReportRequest(endpointExport, statusInvalid)
			respondErrorWithField(w, http.StatusBadRequest, domain.ErrUnsupportedFormat.Error(), "format")
			return
		}
		RecordReportRequest(endpointExport, statusFailed)
		respondError(w, http.StatusInternalServerError, "failed to export report", "")
		return
	}

	RecordReportRequest(endpointExport, statusSuccess)
	RecordReportResponseTime(time.Since(start))

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=report."+export.FileExtension(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// LatencyResponse represents the response for the report latency endpoint.
type LatencyResponse struct {
	Samples     int                      `json:"samples"`
	Percentiles *ResponseTimePercentiles `json:"percentiles"`
}

// GetReportLatency handles GET /api/reports/latency.
// Percentiles is null until at least one report has been served.
func (h *Handler) GetReportLatency(w http.ResponseWriter, r *http.Request) {
	response := LatencyResponse{
		Samples:     reportResponseTimeTracker.Count(),
		Percentiles: GetReportResponseTimePercentiles(),
	}
	respondJSON(w, http.StatusOK, response)
}

// HealthResponse represents the response for health check endpoints.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthCheck handles GET /health.
// It returns a simple health status without checking dependencies.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
	}
	respondJSON(w, http.StatusOK, response)
}

// ReadinessResponse represents the response for readiness check.
type ReadinessResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ReadinessCheck handles GET /ready.
// It verifies that the match source is reachable.
func (h *Handler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)

	if err := h.service.Ping(r.Context()); err != nil {
		checks["match_source"] = "unhealthy: " + err.Error()
		response := ReadinessResponse{
			Status:    "not ready",
			Timestamp: time.Now().UTC(),
			Checks:    checks,
		}
		respondJSON(w, http.StatusServiceUnavailable, response)
		return
	}
	checks["match_source"] = "healthy"

	response := ReadinessResponse{
		Status:    "ready",
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	}
	respondJSON(w, http.StatusOK, response)
}

// decodeReportRequest parses and validates a report request body.
// On failure it writes the 400 response and returns false.
func decodeReportRequest(w http.ResponseWriter, r *http.Request) (domain.ReportFilters, domain.ReportOptions, bool) {
	var req domain.ReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body", err.Error())
		return domain.ReportFilters{}, domain.ReportOptions{}, false
	}

	filters, opts, err := req.ToQuery()
	if err != nil {
		respondValidationError(w, err)
		return domain.ReportFilters{}, domain.ReportOptions{}, false
	}
	return filters, opts, true
}

// decodeJSON decodes the request body into dst. An empty body leaves dst at its zero value.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func respondValidationError(w http.ResponseWriter, err error) {
	if ve := domain.AsValidationError(err); ve != nil {
		respondErrorWithField(w, http.StatusBadRequest, ve.Message, ve.Field)
		return
	}
	respondError(w, http.StatusBadRequest, "validation failed", err.Error())
}

// respondReportError maps service errors onto status codes.
func respondReportError(w http.ResponseWriter, endpoint string, err error) {
	switch {
	case domain.IsValidationError(err):
		RecordReportRequest(endpoint, statusInvalid)
		respondValidationError(w, err)
	case errors.Is(err, domain.ErrSourceUnavailable):
		RecordReportRequest(endpoint, statusUnavailable)
		respondError(w, http.StatusServiceUnavailable, domain.ErrSourceUnavailable.Error(), "")
	default:
		RecordReportRequest(endpoint, statusFailed)
		respondError(w, http.StatusInternalServerError, domain.ErrReportGenerationFailed.Error(), "")
	}
}
