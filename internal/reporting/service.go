package reporting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"leaguestats/internal/domain"
)

// MatchSource loads the matches a report is computed over.
type MatchSource interface {
	ListMatches(ctx context.Context, filters domain.ReportFilters) ([]domain.MatchRecord, error)
	Ping(ctx context.Context) error
}

// Service loads matches from a source and runs the engine under a timeout.
type Service struct {
	source  MatchSource
	engine  *Engine
	timeout time.Duration
	logger  *slog.Logger
}

// NewService creates a new Service instance. A zero timeout disables the deadline.
func NewService(source MatchSource, engine *Engine, timeout time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source:  source,
		engine:  engine,
		timeout: timeout,
		logger:  logger,
	}
}

// GenerateReport fetches the matches selected by filters and aggregates them.
func (s *Service) GenerateReport(ctx context.Context, filters domain.ReportFilters, opts domain.ReportOptions) (*domain.Report, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	matches, err := s.source.ListMatches(ctx, filters)
	if err != nil {
		s.logger.Error("failed to load matches",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	return s.engine.Generate(ctx, matches, filters, opts)
}

// Compute aggregates a caller-supplied match list without touching the source.
func (s *Service) Compute(ctx context.Context, matches []domain.MatchRecord, opts domain.ReportOptions) (*domain.Report, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.engine.Generate(ctx, matches, domain.ReportFilters{}, opts)
}

// Ping checks the match source.
func (s *Service) Ping(ctx context.Context) error {
	if s.source == nil {
		return errors.New("match source not configured")
	}
	return s.source.Ping(ctx)
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
