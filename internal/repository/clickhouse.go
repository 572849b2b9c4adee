package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"leaguestats/internal/domain"
)

var (
	// Prometheus metrics for the match repositories
	queryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "leaguestats",
			Subsystem: "repository",
			Name:      "query_duration_seconds",
			Help:      "Histogram of repository query latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		},
		[]string{"backend", "operation"},
	)

	queryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leaguestats",
			Subsystem: "repository",
			Name:      "query_errors_total",
			Help:      "Total number of repository query errors",
		},
		[]string{"backend", "operation"},
	)

	matchesLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leaguestats",
			Subsystem: "repository",
			Name:      "matches_loaded_total",
			Help:      "Total number of match records loaded for reports",
		},
		[]string{"backend"},
	)

	snapshotBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "leaguestats",
			Subsystem: "clickhouse",
			Name:      "snapshot_batch_size",
			Help:      "Histogram of report snapshot batch insert sizes",
			Buckets:   []float64{1, 10, 50, 100, 500, 1000},
		},
	)

	snapshotsInserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "leaguestats",
			Subsystem: "clickhouse",
			Name:      "snapshots_inserted_total",
			Help:      "Total number of report snapshots inserted into ClickHouse",
		},
	)
)

const backendClickHouse = "clickhouse"

var clickhouseMatchColumns = matchColumns{
	id:           "id",
	status:       "status",
	homeTeamID:   "home_team_id",
	awayTeamID:   "away_team_id",
	startTime:    "start_time",
	tournamentID: "tournament_id",
	location:     "location",
	participants: "league.match_participants",
}

// ClickHouseRepository reads matches from the league tables and archives report snapshots.
type ClickHouseRepository struct {
	conn   driver.Conn
	logger *slog.Logger
}

// NewClickHouseRepository creates a new ClickHouseRepository instance.
func NewClickHouseRepository(conn driver.Conn, logger *slog.Logger) *ClickHouseRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClickHouseRepository{
		conn:   conn,
		logger: logger,
	}
}

// Ping performs a health check on the ClickHouse connection.
func (r *ClickHouseRepository) Ping(ctx context.Context) error {
	startTime := time.Now()
	err := r.conn.Ping(ctx)
	duration := time.Since(startTime)

	queryDuration.WithLabelValues(backendClickHouse, "ping").Observe(duration.Seconds())

	if err != nil {
		r.logger.Error("ClickHouse ping failed",
			slog.Duration("duration", duration),
			slog.String("error", err.Error()),
		)
		queryErrors.WithLabelValues(backendClickHouse, "ping").Inc()
		return fmt.Errorf("ClickHouse ping failed: %w", err)
	}

	r.logger.Debug("ClickHouse ping successful",
		slog.Duration("duration", duration),
	)
	return nil
}

// ListMatches loads the matches selected by filters with their participants and events.
func (r *ClickHouseRepository) ListMatches(ctx context.Context, filters domain.ReportFilters) ([]domain.MatchRecord, error) {
	startTime := time.Now()

	set, err := r.loadMatches(ctx, filters)
	if err != nil {
		return nil, r.fail("list_matches", startTime, err)
	}

	if len(set.matches) > 0 {
		ids := set.ids()
		if err := r.loadParticipants(ctx, set, ids); err != nil {
			return nil, r.fail("list_participants", startTime, err)
		}
		if err := r.loadEvents(ctx, set, ids); err != nil {
			return nil, r.fail("list_events", startTime, err)
		}
	}

	duration := time.Since(startTime)
	queryDuration.WithLabelValues(backendClickHouse, "list_matches").Observe(duration.Seconds())
	matchesLoaded.WithLabelValues(backendClickHouse).Add(float64(len(set.matches)))

	r.logger.Debug("successfully loaded matches",
		slog.Int("match_count", len(set.matches)),
		slog.Duration("duration", duration),
	)

	return set.records(), nil
}

func (r *ClickHouseRepository) loadMatches(ctx context.Context, filters domain.ReportFilters) (*matchSet, error) {
	where, args := buildMatchFilter(filters, clickhouseMatchColumns, questionPlaceholder)

	rows, err := r.conn.Query(ctx, `
		SELECT
			id,
			status,
			home_team_id,
			home_team_name,
			home_team_logo,
			away_team_id,
			away_team_name,
			away_team_logo,
			home_score,
			away_score,
			start_time,
			end_time,
			tournament_id,
			location
		FROM league.matches`+where+`
		ORDER BY start_time ASC, id ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	set := newMatchSet()
	for rows.Next() {
		var (
			m                          domain.MatchRecord
			status                     string
			homeID, homeName, homeLogo *string
			awayID, awayName, awayLogo *string
			homeScore, awayScore       *int32
			start, end                 *time.Time
			tournamentID, location     *string
		)
		if err := rows.Scan(&m.ID, &status, &homeID, &homeName, &homeLogo, &awayID, &awayName, &awayLogo,
			&homeScore, &awayScore, &start, &end, &tournamentID, &location); err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}

		m.Status = domain.MatchStatus(status)
		m.HomeTeam = teamRef(homeID, homeName, homeLogo)
		m.AwayTeam = teamRef(awayID, awayName, awayLogo)
		m.HomeScore = intFrom32(homeScore)
		m.AwayScore = intFrom32(awayScore)
		m.StartTime = start
		m.EndTime = end
		m.TournamentID = deref(tournamentID)
		m.Location = deref(location)
		set.add(m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match rows: %w", err)
	}
	return set, nil
}

func (r *ClickHouseRepository) loadParticipants(ctx context.Context, set *matchSet, ids []string) error {
	rows, err := r.conn.Query(ctx, `
		SELECT match_id, user_id, role, team_id, team_name, user_name
		FROM league.match_participants
		WHERE match_id IN (?)
		ORDER BY match_id ASC, position ASC
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			matchID, userID, role string
			teamID, teamName      *string
			userName              *string
		)
		if err := rows.Scan(&matchID, &userID, &role, &teamID, &teamName, &userName); err != nil {
			return fmt.Errorf("failed to scan participant row: %w", err)
		}

		p := domain.Participant{
			UserID: userID,
			Role:   domain.ParticipantRole(role),
			Team:   teamRef(teamID, teamName, nil),
		}
		if userName != nil {
			p.User = &domain.UserRef{ID: userID, Name: *userName}
		}
		set.addParticipant(matchID, p)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating participant rows: %w", err)
	}
	return nil
}

func (r *ClickHouseRepository) loadEvents(ctx context.Context, set *matchSet, ids []string) error {
	rows, err := r.conn.Query(ctx, `
		SELECT match_id, event_type, minute, player_id, team_id, player_name, team_name
		FROM league.match_events
		WHERE match_id IN (?)
		ORDER BY match_id ASC, minute ASC NULLS LAST, seq ASC
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			matchID, eventType   string
			minute               *int32
			playerID, teamID     *string
			playerName, teamName *string
		)
		if err := rows.Scan(&matchID, &eventType, &minute, &playerID, &teamID, &playerName, &teamName); err != nil {
			return fmt.Errorf("failed to scan event row: %w", err)
		}

		set.addEvent(matchID, domain.MatchEvent{
			Type:       domain.EventType(eventType),
			Minute:     intFrom32(minute),
			PlayerID:   deref(playerID),
			TeamID:     deref(teamID),
			PlayerName: deref(playerName),
			TeamName:   deref(teamName),
		})
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating event rows: %w", err)
	}
	return nil
}

func (r *ClickHouseRepository) fail(operation string, startTime time.Time, err error) error {
	duration := time.Since(startTime)
	r.logger.Error("ClickHouse query failed",
		slog.String("operation", operation),
		slog.Duration("duration", duration),
		slog.String("error", err.Error()),
	)
	queryErrors.WithLabelValues(backendClickHouse, operation).Inc()
	queryDuration.WithLabelValues(backendClickHouse, operation).Observe(duration.Seconds())
	return err
}

// InsertSnapshots inserts a batch of report snapshots into the league.report_snapshots table.
func (r *ClickHouseRepository) InsertSnapshots(ctx context.Context, snapshots []*domain.ReportSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	startTime := time.Now()

	batch, err := r.conn.PrepareBatch(ctx, `
		INSERT INTO league.report_snapshots (
			report_id,
			generated_at,
			group_by,
			total_matches,
			completed_matches,
			total_goals,
			filters,
			report
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		r.logger.Error("failed to prepare snapshot batch",
			slog.String("error", err.Error()),
		)
		queryErrors.WithLabelValues(backendClickHouse, "insert_snapshots_prepare").Inc()
		return fmt.Errorf("failed to prepare snapshot batch: %w", err)
	}

	appended, err := appendSnapshots(batch, snapshots)
	if err != nil {
		if abortErr := batch.Abort(); abortErr != nil {
			r.logger.Warn("failed to abort snapshot batch",
				slog.String("error", abortErr.Error()),
			)
		}
		r.logger.Error("failed to append snapshot to batch",
			slog.Int("batch_size", len(snapshots)),
			slog.String("error", err.Error()),
		)
		queryErrors.WithLabelValues(backendClickHouse, "insert_snapshots_append").Inc()
		return err
	}

	err = batch.Send()
	duration := time.Since(startTime)

	queryDuration.WithLabelValues(backendClickHouse, "insert_snapshots").Observe(duration.Seconds())
	snapshotBatchSize.Observe(float64(len(snapshots)))

	if err != nil {
		r.logger.Error("failed to send snapshot batch",
			slog.Int("batch_size", len(snapshots)),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()),
		)
		queryErrors.WithLabelValues(backendClickHouse, "insert_snapshots_send").Inc()
		return fmt.Errorf("failed to send snapshot batch: %w", err)
	}

	r.logger.Debug("successfully inserted snapshot batch",
		slog.Int("batch_size", appended),
		slog.Duration("duration", duration),
	)
	snapshotsInserted.Add(float64(appended))

	return nil
}

// snapshotAppender is the subset of driver.Batch used to stage snapshot rows.
type snapshotAppender interface {
	Append(v ...any) error
}

// appendSnapshots stages every non-nil snapshot, stopping at the first row the batch rejects.
func appendSnapshots(batch snapshotAppender, snapshots []*domain.ReportSnapshot) (int, error) {
	appended := 0
	for _, s := range snapshots {
		if s == nil {
			continue
		}

		err := batch.Append(
			s.ReportID,
			s.GeneratedAt,
			s.GroupBy,
			uint32(s.TotalMatches),
			uint32(s.CompletedMatches),
			uint32(s.TotalGoals),
			s.FiltersJSON,
			s.ReportJSON,
		)
		if err != nil {
			return appended, fmt.Errorf("failed to append snapshot %s: %w", s.ReportID, err)
		}
		appended++
	}
	return appended, nil
}

// Close closes the ClickHouse connection.
func (r *ClickHouseRepository) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}

// ConnectionConfig holds configuration for ClickHouse connection.
type ConnectionConfig struct {
	Hosts           []string
	Database        string
	Username        string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	DialTimeout     time.Duration
	Debug           bool
}

// DefaultConnectionConfig returns default ClickHouse connection configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		Hosts:           []string{"localhost:9000"},
		Database:        "league",
		Username:        "default",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		DialTimeout:     10 * time.Second,
	}
}

// NewConnection creates a new ClickHouse connection with the given configuration.
func NewConnection(cfg ConnectionConfig) (driver.Conn, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: cfg.Hosts,
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:     cfg.DialTimeout,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		Debug:           cfg.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open ClickHouse connection: %w", err)
	}

	return conn, nil
}
