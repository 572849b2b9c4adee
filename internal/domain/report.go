package domain

import "time"

// Report is the aggregated view over a set of matches.
// Used as the response for POST /api/reports and POST /api/reports/compute.
type Report struct {
	Summary           Summary             `json:"summary"`
	TeamPerformance   []TeamPerformance   `json:"teamPerformance"`
	PlayerPerformance []PlayerPerformance `json:"playerPerformance"`
	EventAnalysis     EventAnalysis       `json:"eventAnalysis"`
	Trends            Trends              `json:"trends"`
	Insights          Insights            `json:"insights"`
}

// Summary holds match-level totals and averages across every status.
type Summary struct {
	TotalMatches                int     `json:"totalMatches"`
	CompletedMatches            int     `json:"completedMatches"`
	CancelledMatches            int     `json:"cancelledMatches"`
	PostponedMatches            int     `json:"postponedMatches"`
	TotalGoals                  int     `json:"totalGoals"`
	AverageGoalsPerMatch        float64 `json:"averageGoalsPerMatch"`
	TotalParticipants           int     `json:"totalParticipants"`
	AverageParticipantsPerMatch float64 `json:"averageParticipantsPerMatch"`
	TotalDuration               int     `json:"totalDuration"`
	AverageMatchDuration        float64 `json:"averageMatchDuration"`
	WinPercentage               float64 `json:"winPercentage"`
	DrawPercentage              float64 `json:"drawPercentage"`
	LossPercentage              float64 `json:"lossPercentage"`
}

// MatchResult is the outcome of a match from one team's point of view.
type MatchResult string

// Match results.
const (
	ResultWin  MatchResult = "win"
	ResultDraw MatchResult = "draw"
	ResultLoss MatchResult = "loss"
)

// Initial returns the uppercase form letter for the result.
func (r MatchResult) Initial() string {
	switch r {
	case ResultWin:
		return "W"
	case ResultDraw:
		return "D"
	case ResultLoss:
		return "L"
	default:
		return ""
	}
}

// FormPoints returns the league points a result is worth.
func (r MatchResult) FormPoints() int {
	switch r {
	case ResultWin:
		return 3
	case ResultDraw:
		return 1
	default:
		return 0
	}
}

// MatchOutcome records a single completed match for one team.
type MatchOutcome struct {
	Result       MatchResult `json:"result"`
	GoalsFor     int         `json:"goalsFor"`
	GoalsAgainst int         `json:"goalsAgainst"`
	Date         *time.Time  `json:"date"`
}

// TeamPerformance is the standings row of a single team.
type TeamPerformance struct {
	TeamID         string     `json:"teamId"`
	TeamName       string     `json:"teamName"`
	MatchesPlayed  int        `json:"matchesPlayed"`
	Wins           int        `json:"wins"`
	Draws          int        `json:"draws"`
	Losses         int        `json:"losses"`
	Points         int        `json:"points"`
	GoalsFor       int        `json:"goalsFor"`
	GoalsAgainst   int        `json:"goalsAgainst"`
	GoalDifference int        `json:"goalDifference"`
	WinPercentage  float64    `json:"winPercentage"`
	Form           string     `json:"form"`
	LastMatch      *time.Time `json:"lastMatch"`
}

// PlayerPerformance aggregates a player's output across completed matches.
type PlayerPerformance struct {
	PlayerID         string  `json:"playerId"`
	PlayerName       string  `json:"playerName"`
	TeamName         string  `json:"teamName"`
	MatchesPlayed    int     `json:"matchesPlayed"`
	Goals            int     `json:"goals"`
	Assists          int     `json:"assists"`
	YellowCards      int     `json:"yellowCards"`
	RedCards         int     `json:"redCards"`
	TotalMinutes     int     `json:"totalMinutes"`
	AverageMinutes   float64 `json:"averageMinutes"`
	AverageRating    float64 `json:"averageRating"`
	GoalContribution int     `json:"goalContribution"`
}

// EventAnalysis describes the distribution of events across all matches.
type EventAnalysis struct {
	TotalEvents       int                `json:"totalEvents"`
	EventsByType      map[string]int     `json:"eventsByType"`
	EventsByMinute    []MinuteEvents     `json:"eventsByMinute"`
	EventsByTeam      []TeamEventStats   `json:"eventsByTeam"`
	MostActivePlayers []PlayerEventStats `json:"mostActivePlayers"`
}

// MinuteEvents is the number of events recorded at a given minute.
type MinuteEvents struct {
	Minute     int     `json:"minute"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// TeamEventStats is the event breakdown for a single team.
type TeamEventStats struct {
	TeamID     string         `json:"teamId"`
	TeamName   string         `json:"teamName"`
	EventCount int            `json:"eventCount"`
	EventTypes map[string]int `json:"eventTypes"`
}

// PlayerEventStats is the event breakdown for a single player.
type PlayerEventStats struct {
	PlayerID   string         `json:"playerId"`
	PlayerName string         `json:"playerName"`
	EventCount int            `json:"eventCount"`
	EventTypes map[string]int `json:"eventTypes"`
}

// Trends holds the time-bucketed series and per-team form.
type Trends struct {
	MatchesByPeriod     []PeriodMatches     `json:"matchesByPeriod"`
	PerformanceByPeriod []PeriodPerformance `json:"performanceByPeriod"`
	TeamFormTrend       []TeamFormTrend     `json:"teamFormTrend"`
}

// PeriodMatches is the match-volume view of a period bucket.
type PeriodMatches struct {
	Period            string  `json:"period"`
	Matches           int     `json:"matches"`
	AverageGoals      float64 `json:"averageGoals"`
	AverageDuration   float64 `json:"averageDuration"`
	WinPercentage     float64 `json:"winPercentage"`
	TotalParticipants int     `json:"totalParticipants"`
}

// PeriodPerformance is the performance view of a period bucket.
type PeriodPerformance struct {
	Period          string  `json:"period"`
	AverageGoals    float64 `json:"averageGoals"`
	AverageDuration float64 `json:"averageDuration"`
	WinPercentage   float64 `json:"winPercentage"`
	TotalEvents     int     `json:"totalEvents"`
}

// FormTrend classifies how a team's recent results compare to older ones.
type FormTrend string

// Form trends.
const (
	TrendImproving FormTrend = "improving"
	TrendStable    FormTrend = "stable"
	TrendDeclining FormTrend = "declining"
)

// TeamFormTrend is the recent form of a single team.
type TeamFormTrend struct {
	TeamID          string         `json:"teamId"`
	TeamName        string         `json:"teamName"`
	LastFiveMatches []MatchOutcome `json:"lastFiveMatches"`
	Trend           FormTrend      `json:"trend"`
}

// Insights holds heuristic findings derived from the other sections.
type Insights struct {
	KeyFindings         []string `json:"keyFindings"`
	Recommendations     []string `json:"recommendations"`
	Highlights          []string `json:"highlights"`
	AreasForImprovement []string `json:"areasForImprovement"`
}

// NewEmptyReport returns a report with zero totals and empty, non-nil collections.
func NewEmptyReport() *Report {
	return &Report{
		TeamPerformance:   []TeamPerformance{},
		PlayerPerformance: []PlayerPerformance{},
		EventAnalysis:     NewEmptyEventAnalysis(),
		Trends:            NewEmptyTrends(),
		Insights:          NewEmptyInsights(),
	}
}

// NewEmptyEventAnalysis returns an event analysis with initialized collections.
func NewEmptyEventAnalysis() EventAnalysis {
	return EventAnalysis{
		EventsByType:      make(map[string]int),
		EventsByMinute:    []MinuteEvents{},
		EventsByTeam:      []TeamEventStats{},
		MostActivePlayers: []PlayerEventStats{},
	}
}

// NewEmptyTrends returns trends with initialized collections.
func NewEmptyTrends() Trends {
	return Trends{
		MatchesByPeriod:     []PeriodMatches{},
		PerformanceByPeriod: []PeriodPerformance{},
		TeamFormTrend:       []TeamFormTrend{},
	}
}

// NewEmptyInsights returns insights with initialized collections.
func NewEmptyInsights() Insights {
	return Insights{
		KeyFindings:         []string{},
		Recommendations:     []string{},
		Highlights:          []string{},
		AreasForImprovement: []string{},
	}
}
