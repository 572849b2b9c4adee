package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"leaguestats/internal/api"
	"leaguestats/internal/domain"
	"leaguestats/internal/export"
)

// MockReportService implements api.ReportService for testing.
type MockReportService struct {
	GenerateReportFunc func(ctx context.Context, filters domain.ReportFilters, opts domain.ReportOptions) (*domain.Report, error)
	ComputeFunc        func(ctx context.Context, matches []domain.MatchRecord, opts domain.ReportOptions) (*domain.Report, error)
	PingFunc           func(ctx context.Context) error
}

func (m *MockReportService) GenerateReport(ctx context.Context, filters domain.ReportFilters, opts domain.ReportOptions) (*domain.Report, error) {
	if m.GenerateReportFunc != nil {
		return m.GenerateReportFunc(ctx, filters, opts)
	}
	return domain.NewEmptyReport(), nil
}

func (m *MockReportService) Compute(ctx context.Context, matches []domain.MatchRecord, opts domain.ReportOptions) (*domain.Report, error) {
	if m.ComputeFunc != nil {
		return m.ComputeFunc(ctx, matches, opts)
	}
	return domain.NewEmptyReport(), nil
}

func (m *MockReportService) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// MockExporter implements api.ReportExporter for testing.
type MockExporter struct {
	SupportsFunc func(format string) bool
	ExportFunc   func(report *domain.Report, format string) ([]byte, string, error)
}

func (m *MockExporter) Supports(format string) bool {
	if m.SupportsFunc != nil {
		return m.SupportsFunc(format)
	}
	return true
}

func (m *MockExporter) Export(report *domain.Report, format string) ([]byte, string, error) {
	if m.ExportFunc != nil {
		return m.ExportFunc(report, format)
	}
	return []byte("data"), "text/plain", nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Helper to create a chi router context with URL params
func withChiURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func postJSON(target string, body interface{}) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var errResp api.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return errResp
}

// ====================
// GenerateReport Tests
// ====================

func TestGenerateReport_Success(t *testing.T) {
	var (
		gotFilters domain.ReportFilters
		gotOpts    domain.ReportOptions
	)
	service := &MockReportService{
		GenerateReportFunc: func(ctx context.Context, filters domain.ReportFilters, opts domain.ReportOptions) (*domain.Report, error) {
			gotFilters = filters
			gotOpts = opts
			report := domain.NewEmptyReport()
			report.Summary.TotalMatches = 4
			return report, nil
		},
	}
	handler := api.NewHandler(service, &MockExporter{})

	req := postJSON("/api/reports", map[string]interface{}{
		"from":            "2024-01-01T00:00:00Z",
		"teamId":          "team-a",
		"status":          "COMPLETED",
		"groupBy":         "week",
		"includeInsights": true,
	})
	rr := httptest.NewRecorder()
	handler.GenerateReport(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}

	var report domain.Report
	if err := json.NewDecoder(rr.Body).Decode(&report); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if report.Summary.TotalMatches != 4 {
		t.Errorf("expected 4 total matches, got %d", report.Summary.TotalMatches)
	}

	if gotFilters.TeamID != "team-a" {
		t.Errorf("expected teamId team-a, got %q", gotFilters.TeamID)
	}
	if gotFilters.Status != domain.MatchStatusCompleted {
		t.Errorf("expected status COMPLETED, got %q", gotFilters.Status)
	}
	if gotFilters.From == nil || !gotFilters.From.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected from filter: %v", gotFilters.From)
	}
	if gotOpts.GroupBy != domain.GroupByWeek || !gotOpts.IncludeInsights || gotOpts.IncludeCharts {
		t.Errorf("unexpected options: %+v", gotOpts)
	}
}

func TestGenerateReport_EmptyBodyUsesDefaults(t *testing.T) {
	var gotOpts domain.ReportOptions
	service := &MockReportService{
		GenerateReportFunc: func(ctx context.Context, filters domain.ReportFilters, opts domain.ReportOptions) (*domain.Report, error) {
			gotOpts = opts
			return domain.NewEmptyReport(), nil
		},
	}
	handler := api.NewHandler(service, &MockExporter{})

	req := httptest.NewRequest(http.MethodPost, "/api/reports", nil)
	rr := httptest.NewRecorder()
	handler.GenerateReport(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if gotOpts.GroupBy != domain.DefaultGroupBy {
		t.Errorf("expected default groupBy %q, got %q", domain.DefaultGroupBy, gotOpts.GroupBy)
	}
}

func TestGenerateReport_InvalidJSON(t *testing.T) {
	called := false
	service := &MockReportService{
		GenerateReportFunc: func(ctx context.Context, filters domain.ReportFilters, opts domain.ReportOptions) (*domain.Report, error) {
			called = true
			return nil, nil
		},
	}
	handler := api.NewHandler(service, &MockExporter{})

	req := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader("invalid json"))
	rr := httptest.NewRecorder()
	handler.GenerateReport(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
	if errResp := decodeError(t, rr); errResp.Error == "" {
		t.Error("expected error field in response")
	}
	if called {
		t.Error("service should not be called for invalid JSON")
	}
}

func TestGenerateReport_ValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		body      map[string]interface{}
		wantField string
	}{
		{
			name:      "invalid groupBy",
			body:      map[string]interface{}{"groupBy": "decade"},
			wantField: "groupBy",
		},
		{
			name:      "invalid status",
			body:      map[string]interface{}{"status": "FINISHED"},
			wantField: "status",
		},
		{
			name:      "invalid from",
			body:      map[string]interface{}{"from": "yesterday"},
			wantField: "from",
		},
		{
			name: "to before from",
			body: map[string]interface{}{
				"from": "2024-02-01T00:00:00Z",
				"to":   "2024-01-01T00:00:00Z",
			},
			wantField: "to",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := api.NewHandler(&MockReportService{}, &MockExporter{})

			rr := httptest.NewRecorder()
			handler.GenerateReport(rr, postJSON("/api/reports", tt.body))

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
			}
			if errResp := decodeError(t, rr); errResp.Field != tt.wantField {
				t.Errorf("expected field %q, got %q", tt.wantField, errResp.Field)
			}
		})
	}
}

func TestGenerateReport_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "source unavailable",
			err:        fmt.Errorf("%w: connection refused", domain.ErrSourceUnavailable),
			wantStatus: http.StatusServiceUnavailable,
			wantMsg:    domain.ErrSourceUnavailable.Error(),
		},
		{
			name:       "generation failed",
			err:        domain.ErrReportGenerationFailed,
			wantStatus: http.StatusInternalServerError,
			wantMsg:    domain.ErrReportGenerationFailed.Error(),
		},
		{
			name:       "unexpected error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    domain.ErrReportGenerationFailed.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &MockReportService{
				GenerateReportFunc: func(ctx context.Context, filters domain.ReportFilters, opts domain.ReportOptions) (*domain.Report, error) {
					return nil, tt.err
				},
			}
			handler := api.NewHandler(service, &MockExporter{})

			rr := httptest.NewRecorder()
			handler.GenerateReport(rr, postJSON("/api/reports", map[string]interface{}{}))

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			errResp := decodeError(t, rr)
			if errResp.Message != tt.wantMsg {
				t.Errorf("expected message %q, got %q", tt.wantMsg, errResp.Message)
			}
			if strings.Contains(rr.Body.String(), "connection refused") || strings.Contains(rr.Body.String(), "boom") {
				t.Error("internal error details leaked into response")
			}
		})
	}
}

// ====================
// ComputeReport Tests
// ====================

func TestComputeReport_Success(t *testing.T) {
	var (
		gotMatches []domain.MatchRecord
		gotOpts    domain.ReportOptions
	)
	service := &MockReportService{
		ComputeFunc: func(ctx context.Context, matches []domain.MatchRecord, opts domain.ReportOptions) (*domain.Report, error) {
			gotMatches = matches
			gotOpts = opts
			return domain.NewEmptyReport(), nil
		},
	}
	handler := api.NewHandler(service, &MockExporter{})

	body := map[string]interface{}{
		"matches": []map[string]interface{}{
			{
				"id":        "m1",
				"status":    "COMPLETED",
				"homeTeam":  map[string]interface{}{"id": "team-a", "name": "Alpha"},
				"awayTeam":  map[string]interface{}{"id": "team-b", "name": "Beta"},
				"homeScore": 2,
				"awayScore": 1,
			},
		},
		"options": map[string]interface{}{"groupBy": "year", "includeCharts": true},
	}

	rr := httptest.NewRecorder()
	handler.ComputeReport(rr, postJSON("/api/reports/compute", body))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	if len(gotMatches) != 1 || gotMatches[0].ID != "m1" {
		t.Fatalf("unexpected matches passed to service: %+v", gotMatches)
	}
	if gotMatches[0].HomeScore == nil || *gotMatches[0].HomeScore != 2 {
		t.Errorf("expected home score 2, got %v", gotMatches[0].HomeScore)
	}
	if gotOpts.GroupBy != domain.GroupByYear || !gotOpts.IncludeCharts {
		t.Errorf("unexpected options: %+v", gotOpts)
	}
}

func TestComputeReport_InvalidOptions(t *testing.T) {
	handler := api.NewHandler(&MockReportService{}, &MockExporter{})

	body := map[string]interface{}{
		"matches": []interface{}{},
		"options": map[string]interface{}{"groupBy": "hour"},
	}
	rr := httptest.NewRecorder()
	handler.ComputeReport(rr, postJSON("/api/reports/compute", body))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
	if errResp := decodeError(t, rr); errResp.Field != "groupBy" {
		t.Errorf("expected field groupBy, got %q", errResp.Field)
	}
}

func TestComputeReport_GenerationFailed(t *testing.T) {
	service := &MockReportService{
		ComputeFunc: func(ctx context.Context, matches []domain.MatchRecord, opts domain.ReportOptions) (*domain.Report, error) {
			return nil, domain.ErrReportGenerationFailed
		},
	}
	handler := api.NewHandler(service, &MockExporter{})

	rr := httptest.NewRecorder()
	handler.ComputeReport(rr, postJSON("/api/reports/compute", map[string]interface{}{"matches": []interface{}{}}))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, rr.Code)
	}
}

// ====================
// ExportReport Tests
// ====================

func TestExportReport_Success(t *testing.T) {
	var gotFormat string
	exporter := &MockExporter{
		ExportFunc: func(report *domain.Report, format string) ([]byte, string, error) {
			gotFormat = format
			return []byte("team_id,team_name\n"), "text/csv; charset=utf-8", nil
		},
	}
	handler := api.NewHandler(&MockReportService{}, exporter)

	req := postJSON("/api/reports/export/csv", map[string]interface{}{"groupBy": "month"})
	req = withChiURLParams(req, map[string]string{"format": "csv"})
	rr := httptest.NewRecorder()
	handler.ExportReport(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if gotFormat != "csv" {
		t.Errorf("expected exporter to receive csv, got %q", gotFormat)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); cd != "attachment; filename=report.csv" {
		t.Errorf("unexpected content disposition %q", cd)
	}
	if rr.Body.String() != "team_id,team_name\n" {
		t.Errorf("unexpected body %q", rr.Body.String())
	}
}

func TestExportReport_UnsupportedFormat(t *testing.T) {
	called := false
	service := &MockReportService{
		GenerateReportFunc: func(ctx context.Context, filters domain.ReportFilters, opts domain.ReportOptions) (*domain.Report, error) {
			called = true
			return domain.NewEmptyReport(), nil
		},
	}
	exporter := &MockExporter{
		SupportsFunc: func(format string) bool { return false },
	}
	handler := api.NewHandler(service, exporter)

	req := postJSON("/api/reports/export/docx", map[string]interface{}{})
	req = withChiURLParams(req, map[string]string{"format": "docx"})
	rr := httptest.NewRecorder()
	handler.ExportReport(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
	if errResp := decodeError(t, rr); errResp.Field != "format" {
		t.Errorf("expected field format, got %q", errResp.Field)
	}
	if called {
		t.Error("report should not be generated for an unsupported format")
	}
}

func TestExportReport_ExportFailure(t *testing.T) {
	exporter := &MockExporter{
		ExportFunc: func(report *domain.Report, format string) ([]byte, string, error) {
			return nil, "", errors.New("disk full")
		},
	}
	handler := api.NewHandler(&MockReportService{}, exporter)

	req := postJSON("/api/reports/export/xlsx", map[string]interface{}{})
	req = withChiURLParams(req, map[string]string{"format": "xlsx"})
	rr := httptest.NewRecorder()
	handler.ExportReport(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, rr.Code)
	}
}

func TestExportReport_SourceUnavailable(t *testing.T) {
	service := &MockReportService{
		GenerateReportFunc: func(ctx context.Context, filters domain.ReportFilters, opts domain.ReportOptions) (*domain.Report, error) {
			return nil, domain.ErrSourceUnavailable
		},
	}
	handler := api.NewHandler(service, &MockExporter{})

	req := postJSON("/api/reports/export/json", map[string]interface{}{})
	req = withChiURLParams(req, map[string]string{"format": "json"})
	rr := httptest.NewRecorder()
	handler.ExportReport(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}
}

// ====================
// Health and Readiness Tests
// ====================

func TestHealthCheck(t *testing.T) {
	handler := api.NewHandler(&MockReportService{}, &MockExporter{})

	rr := httptest.NewRecorder()
	handler.HealthCheck(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp api.HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("expected status 'healthy', got '%s'", resp.Status)
	}
}

func TestReadinessCheck_Ready(t *testing.T) {
	handler := api.NewHandler(&MockReportService{}, &MockExporter{})

	rr := httptest.NewRecorder()
	handler.ReadinessCheck(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp api.ReadinessResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "ready" {
		t.Errorf("expected status 'ready', got '%s'", resp.Status)
	}
	if resp.Checks["match_source"] != "healthy" {
		t.Errorf("expected match_source healthy, got %q", resp.Checks["match_source"])
	}
}

func TestReadinessCheck_NotReady(t *testing.T) {
	service := &MockReportService{
		PingFunc: func(ctx context.Context) error {
			return errors.New("connection refused")
		},
	}
	handler := api.NewHandler(service, &MockExporter{})

	rr := httptest.NewRecorder()
	handler.ReadinessCheck(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}

	var resp api.ReadinessResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "not ready" {
		t.Errorf("expected status 'not ready', got '%s'", resp.Status)
	}
}

// ====================
// Router Tests
// ====================

func TestRouter_Routes(t *testing.T) {
	router := api.NewRouter(&MockReportService{}, export.NewExporter(), testLogger())

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"generate", http.MethodPost, "/api/reports", `{"groupBy":"month"}`, http.StatusOK},
		{"compute", http.MethodPost, "/api/reports/compute", `{"matches":[]}`, http.StatusOK},
		{"export json", http.MethodPost, "/api/reports/export/json", `{}`, http.StatusOK},
		{"export unknown", http.MethodPost, "/api/reports/export/docx", `{}`, http.StatusBadRequest},
		{"latency", http.MethodGet, "/api/reports/latency", "", http.StatusOK},
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"ready", http.MethodGet, "/ready", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"wrong method", http.MethodGet, "/api/reports/compute", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("%s %s: expected status %d, got %d", tt.method, tt.path, tt.wantStatus, rr.Code)
			}
		})
	}
}

func TestRouter_ExportXLSXHeaders(t *testing.T) {
	router := api.NewRouter(&MockReportService{}, export.NewExporter(), testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/reports/export/XLSX", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if cd := rr.Header().Get("Content-Disposition"); cd != "attachment; filename=report.xlsx" {
		t.Errorf("unexpected content disposition %q", cd)
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")) {
		t.Error("expected zip container for xlsx export")
	}
}

func TestGetReportLatency(t *testing.T) {
	router := api.NewRouter(&MockReportService{}, export.NewExporter(), testLogger())

	// Serve one report so the tracker holds at least one sample.
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader(`{}`)))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/reports/latency", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp api.LatencyResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Samples < 1 {
		t.Errorf("expected at least one sample, got %d", resp.Samples)
	}
	if resp.Percentiles == nil {
		t.Fatal("expected percentiles to be present")
	}
	if resp.Percentiles.P50 > resp.Percentiles.P95 || resp.Percentiles.P95 > resp.Percentiles.P99 {
		t.Errorf("percentiles out of order: %+v", resp.Percentiles)
	}
}

func TestNewServer(t *testing.T) {
	server := api.NewServer(":8080", &MockReportService{}, export.NewExporter(), testLogger())

	if server.Addr != ":8080" {
		t.Errorf("expected addr :8080, got %s", server.Addr)
	}
	if server.Handler == nil {
		t.Error("expected handler to be set")
	}
	if server.ReadTimeout != 15*time.Second {
		t.Errorf("expected read timeout 15s, got %v", server.ReadTimeout)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := api.NewRouter(&MockReportService{}, export.NewExporter(), testLogger(),
		api.WithAllowedOrigins("https://stats.example.com"),
	)

	tests := []struct {
		name       string
		origin     string
		wantHeader string
	}{
		{"allowed origin", "https://stats.example.com", "https://stats.example.com"},
		{"other origin", "https://evil.example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/reports", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tt.wantHeader {
				t.Errorf("expected Access-Control-Allow-Origin %q, got %q", tt.wantHeader, got)
			}
		})
	}
}
