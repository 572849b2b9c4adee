package api

import (
	"log/slog"
	"math"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Report request outcomes used as metric labels.
const (
	statusSuccess     = "success"
	statusInvalid     = "invalid"
	statusUnavailable = "unavailable"
	statusFailed      = "failed"
)

// Prometheus metrics for HTTP and report requests.
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leaguestats",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "leaguestats",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	reportRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leaguestats",
			Subsystem: "api",
			Name:      "report_requests_total",
			Help:      "Total number of report requests by endpoint and outcome",
		},
		[]string{"endpoint", "status"},
	)
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

// newResponseWriter creates a new responseWriter with a default 200 status.
func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader captures the status code before writing.
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

// Write ensures WriteHeader is called before writing the body.
func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Unwrap returns the underlying ResponseWriter for middleware compatibility.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// routePattern returns the matched chi pattern so path labels stay low cardinality.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// PrometheusMiddleware records HTTP request metrics.
func PrometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := newResponseWriter(w)

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(wrapped.statusCode)
		path := routePattern(r)

		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// RequestLogger returns middleware that logs HTTP requests using structured logging.
func RequestLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			logger.Info("request completed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
				slog.Int("status", wrapped.statusCode),
				slog.Duration("duration", time.Since(start)),
				slog.String("user_agent", r.UserAgent()),
			)
		})
	}
}

// RecordReportRequest increments the report request counter.
func RecordReportRequest(endpoint, status string) {
	reportRequestsTotal.WithLabelValues(endpoint, status).Inc()
}

// ResponseTimePercentiles holds latency percentiles in milliseconds.
type ResponseTimePercentiles struct {
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// ResponseTimeTracker tracks response times for percentile calculation.
// Uses a circular buffer to store recent response times.
type ResponseTimeTracker struct {
	mu       sync.RWMutex
	samples  []float64
	maxSize  int
	position int
}

var reportResponseTimeTracker = NewResponseTimeTracker(10000)

// NewResponseTimeTracker creates a new tracker with the given maximum sample size.
func NewResponseTimeTracker(maxSize int) *ResponseTimeTracker {
	return &ResponseTimeTracker{
		samples: make([]float64, 0, maxSize),
		maxSize: maxSize,
	}
}

// Record adds a response time sample in milliseconds.
func (t *ResponseTimeTracker) Record(durationMs float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.samples) < t.maxSize {
		t.samples = append(t.samples, durationMs)
	} else {
		t.samples[t.position] = durationMs
		t.position = (t.position + 1) % t.maxSize
	}
}

// Count returns the number of samples currently held.
func (t *ResponseTimeTracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.samples)
}

// Percentiles calculates p50, p95, and p99 percentiles.
// Returns nil if there are no samples.
func (t *ResponseTimeTracker) Percentiles() *ResponseTimePercentiles {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.samples) == 0 {
		return nil
	}

	sorted := make([]float64, len(t.samples))
	copy(sorted, t.samples)
	sort.Float64s(sorted)

	return &ResponseTimePercentiles{
		P50: percentile(sorted, 50),
		P95: percentile(sorted, 95),
		P99: percentile(sorted, 99),
	}
}

// percentile calculates the pth percentile of a sorted slice with linear interpolation.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	index := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))

	if lower == upper {
		return math.Round(sorted[lower]*100) / 100
	}

	fraction := index - float64(lower)
	result := sorted[lower] + fraction*(sorted[upper]-sorted[lower])
	return math.Round(result*100) / 100
}

// RecordReportResponseTime records how long a successful report request took.
func RecordReportResponseTime(duration time.Duration) {
	reportResponseTimeTracker.Record(float64(duration.Microseconds()) / 1000)
}

// GetReportResponseTimePercentiles returns the current report latency percentiles.
func GetReportResponseTimePercentiles() *ResponseTimePercentiles {
	return reportResponseTimeTracker.Percentiles()
}
