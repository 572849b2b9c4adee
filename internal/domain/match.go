package domain

import "time"

// MatchStatus represents the lifecycle state of a match.
type MatchStatus string

// Match status constants. Unknown statuses are carried through untouched.
const (
	MatchStatusScheduled  MatchStatus = "SCHEDULED"
	MatchStatusInProgress MatchStatus = "IN_PROGRESS"
	MatchStatusCompleted  MatchStatus = "COMPLETED"
	MatchStatusCancelled  MatchStatus = "CANCELLED"
	MatchStatusPostponed  MatchStatus = "POSTPONED"
)

// ValidMatchStatuses is a map of the statuses accepted as report filters.
var ValidMatchStatuses = map[MatchStatus]bool{
	MatchStatusScheduled:  true,
	MatchStatusInProgress: true,
	MatchStatusCompleted:  true,
	MatchStatusCancelled:  true,
	MatchStatusPostponed:  true,
}

// IsValid reports whether the status is one of the known lifecycle states.
func (s MatchStatus) IsValid() bool {
	return ValidMatchStatuses[s]
}

// ParticipantRole is the role a user holds in a single match.
type ParticipantRole string

// Participant roles. Only RolePlayer counts towards player performance.
const (
	RolePlayer   ParticipantRole = "PLAYER"
	RoleReferee  ParticipantRole = "REFEREE"
	RoleCoach    ParticipantRole = "COACH"
	RoleOfficial ParticipantRole = "OFFICIAL"
)

// EventType represents the type of a match event.
type EventType string

// Event types with dedicated counters. Any other type is analysed generically.
const (
	EventTypeGoal       EventType = "goal"
	EventTypeAssist     EventType = "assist"
	EventTypeYellowCard EventType = "yellow_card"
	EventTypeRedCard    EventType = "red_card"
)

// TeamRef is the denormalized team reference carried by a match.
type TeamRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo,omitempty"`
}

// UserRef is the denormalized user reference carried by a participant.
type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Participant is a user taking part in a match in a given role.
type Participant struct {
	UserID string          `json:"userId"`
	Role   ParticipantRole `json:"role"`
	Team   *TeamRef        `json:"team,omitempty"`
	User   *UserRef        `json:"user,omitempty"`
}

// MatchEvent is a single recorded occurrence within a match.
type MatchEvent struct {
	Type       EventType `json:"type"`
	Minute     *int      `json:"minute,omitempty"`
	PlayerID   string    `json:"playerId,omitempty"`
	TeamID     string    `json:"teamId,omitempty"`
	PlayerName string    `json:"player,omitempty"`
	TeamName   string    `json:"team,omitempty"`
}

// MatchRecord is a match joined with its teams, participants and events.
// Records are read-only for the duration of a report.
type MatchRecord struct {
	ID           string        `json:"id"`
	Status       MatchStatus   `json:"status"`
	HomeTeam     *TeamRef      `json:"homeTeam,omitempty"`
	AwayTeam     *TeamRef      `json:"awayTeam,omitempty"`
	HomeScore    *int          `json:"homeScore"`
	AwayScore    *int          `json:"awayScore"`
	StartTime    *time.Time    `json:"startTime"`
	EndTime      *time.Time    `json:"endTime"`
	TournamentID string        `json:"tournamentId,omitempty"`
	Location     string        `json:"location,omitempty"`
	Participants []Participant `json:"participants"`
	Events       []MatchEvent  `json:"events"`
}

// IsCompleted reports whether the match finished.
func (m *MatchRecord) IsCompleted() bool {
	return m.Status == MatchStatusCompleted
}

// HasBothTeams reports whether home and away teams are present.
func (m *MatchRecord) HasBothTeams() bool {
	return m.HomeTeam != nil && m.AwayTeam != nil
}

// HasScores reports whether both scores were recorded.
func (m *MatchRecord) HasScores() bool {
	return m.HomeScore != nil && m.AwayScore != nil
}

// Goals returns the home and away scores, treating missing scores as zero.
func (m *MatchRecord) Goals() (home, away int) {
	if m.HomeScore != nil {
		home = *m.HomeScore
	}
	if m.AwayScore != nil {
		away = *m.AwayScore
	}
	return home, away
}

// DurationMinutes returns the match length in whole minutes, rounded to the nearest minute.
// ok is false when either timestamp is missing.
func (m *MatchRecord) DurationMinutes() (minutes int, ok bool) {
	if m.StartTime == nil || m.EndTime == nil {
		return 0, false
	}
	d := m.EndTime.Sub(*m.StartTime)
	return int(d.Round(time.Minute) / time.Minute), true
}
