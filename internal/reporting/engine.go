// Package reporting aggregates match records into league reports: summary totals,
// standings, player output, event distribution, period trends and heuristic insights.
//
// Every call builds its accumulators from scratch, so an Engine is safe for concurrent use.
package reporting

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"leaguestats/internal/domain"
)

// Notifier receives a notification after every successfully generated report.
type Notifier interface {
	ReportGenerated(ctx context.Context, event *domain.ReportGenerated) error
}

// Engine runs the aggregation pipeline over an in-memory match list.
type Engine struct {
	logger   *slog.Logger
	notifier Notifier
	minutes  MinutesEstimator
	now      func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithNotifier registers the hook invoked after each successful report.
func WithNotifier(n Notifier) EngineOption {
	return func(e *Engine) {
		e.notifier = n
	}
}

// WithMinutesEstimator replaces the fixed minutes-per-match assumption.
func WithMinutesEstimator(m MinutesEstimator) EngineOption {
	return func(e *Engine) {
		if m != nil {
			e.minutes = m
		}
	}
}

// WithClock overrides the time source used for notifications and fallbacks.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates a new Engine instance.
func NewEngine(logger *slog.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		logger:  logger.With(slog.String("component", "reporting")),
		minutes: FixedMinutes(DefaultMinutesPerMatch),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Generate aggregates matches into a report.
// An empty match list yields the empty report. Any internal failure, including a
// cancelled context, is logged and reported as domain.ErrReportGenerationFailed;
// partial reports are never returned.
func (e *Engine) Generate(ctx context.Context, matches []domain.MatchRecord, filters domain.ReportFilters, opts domain.ReportOptions) (*domain.Report, error) {
	opts = opts.WithDefaults()
	startTime := time.Now()

	report, err := e.aggregate(ctx, matches, opts)
	duration := time.Since(startTime)
	reportGenerationDuration.Observe(duration.Seconds())
	reportMatchCount.Observe(float64(len(matches)))

	if err != nil {
		e.logger.Error("report generation failed",
			slog.Int("match_count", len(matches)),
			slog.String("group_by", string(opts.GroupBy)),
			slog.Bool("include_insights", opts.IncludeInsights),
			slog.Bool("include_charts", opts.IncludeCharts),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()),
		)
		reportsGenerated.WithLabelValues("error").Inc()
		return nil, domain.ErrReportGenerationFailed
	}

	e.logger.Debug("report generated",
		slog.Int("match_count", len(matches)),
		slog.Int("team_count", len(report.TeamPerformance)),
		slog.Int("player_count", len(report.PlayerPerformance)),
		slog.String("group_by", string(opts.GroupBy)),
		slog.Duration("duration", duration),
	)
	reportsGenerated.WithLabelValues("success").Inc()

	e.notify(ctx, filters, opts, report)
	return report, nil
}

// aggregate runs each section independently over the same match list.
func (e *Engine) aggregate(ctx context.Context, matches []domain.MatchRecord, opts domain.ReportOptions) (report *domain.Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			report = nil
			err = fmt.Errorf("panic during aggregation: %v", r)
		}
	}()

	report = domain.NewEmptyReport()
	if len(matches) == 0 {
		return report, nil
	}

	steps := []struct {
		name string
		run  func()
	}{
		{"summary", func() { report.Summary = calculateSummary(matches) }},
		{"team_performance", func() { report.TeamPerformance = calculateTeamPerformance(matches, e.now()) }},
		{"player_performance", func() { report.PlayerPerformance = calculatePlayerPerformance(matches, e.minutes) }},
		{"event_analysis", func() { report.EventAnalysis = analyzeEvents(matches) }},
		{"trends", func() {
			if opts.IncludeCharts {
				report.Trends = calculateTrends(matches, opts.GroupBy)
			}
		}},
		{"insights", func() {
			if opts.IncludeInsights {
				report.Insights = generateInsights(report.Summary, report.TeamPerformance, report.PlayerPerformance)
			}
		}},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("aborted before %s: %w", step.name, err)
		}
		step.run()
	}

	return report, nil
}

// notify invokes the notifier. Failures are logged and never fail the report.
func (e *Engine) notify(ctx context.Context, filters domain.ReportFilters, opts domain.ReportOptions, report *domain.Report) {
	if e.notifier == nil {
		return
	}

	event := domain.NewReportGenerated(filters, opts, report, e.now())
	if err := e.notifier.ReportGenerated(ctx, event); err != nil {
		e.logger.Warn("failed to publish report notification",
			slog.String("report_id", event.ReportID.String()),
			slog.String("error", err.Error()),
		)
		reportNotifications.WithLabelValues("error").Inc()
		return
	}
	reportNotifications.WithLabelValues("success").Inc()
}
