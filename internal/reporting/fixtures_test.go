package reporting

import (
	"time"

	"leaguestats/internal/domain"
)

var (
	baseTime = time.Date(2024, 5, 4, 15, 0, 0, 0, time.UTC)

	teamA = &domain.TeamRef{ID: "team-a", Name: "Team A"}
	teamB = &domain.TeamRef{ID: "team-b", Name: "Team B"}
	teamC = &domain.TeamRef{ID: "team-c", Name: "Team C"}
)

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

// completedMatch builds a 90 minute completed match.
func completedMatch(id string, home, away *domain.TeamRef, homeScore, awayScore int, start time.Time) domain.MatchRecord {
	return domain.MatchRecord{
		ID:        id,
		Status:    domain.MatchStatusCompleted,
		HomeTeam:  home,
		AwayTeam:  away,
		HomeScore: intPtr(homeScore),
		AwayScore: intPtr(awayScore),
		StartTime: timePtr(start),
		EndTime:   timePtr(start.Add(90 * time.Minute)),
	}
}

func player(id, name string, team *domain.TeamRef) domain.Participant {
	return domain.Participant{
		UserID: id,
		Role:   domain.RolePlayer,
		Team:   team,
		User:   &domain.UserRef{ID: id, Name: name},
	}
}

func event(eventType domain.EventType, minute int, playerID, teamID string) domain.MatchEvent {
	return domain.MatchEvent{
		Type:     eventType,
		Minute:   intPtr(minute),
		PlayerID: playerID,
		TeamID:   teamID,
	}
}

// leagueFixture is a small season: two A vs B matches, one B vs C, one cancelled and one scheduled.
func leagueFixture() []domain.MatchRecord {
	m1 := completedMatch("m1", teamA, teamB, 2, 1, baseTime)
	m1.Participants = []domain.Participant{
		player("p1", "Alice", teamA),
		player("p2", "Bob", teamB),
		{UserID: "r1", Role: domain.RoleReferee},
	}
	m1.Events = []domain.MatchEvent{
		event(domain.EventTypeGoal, 10, "p1", "team-a"),
		event(domain.EventTypeAssist, 10, "p1", "team-a"),
		event(domain.EventTypeGoal, 55, "p1", "team-a"),
		event(domain.EventTypeGoal, 70, "p2", "team-b"),
		event(domain.EventTypeYellowCard, 80, "p2", "team-b"),
	}

	m2 := completedMatch("m2", teamA, teamB, 1, 1, baseTime.AddDate(0, 0, 7))
	m2.Participants = []domain.Participant{
		player("p1", "Alice", teamA),
		player("p2", "Bob", teamB),
	}
	m2.Events = []domain.MatchEvent{
		event(domain.EventTypeGoal, 30, "p1", "team-a"),
		event(domain.EventTypeGoal, 88, "p2", "team-b"),
		event(domain.EventTypeRedCard, 89, "p2", "team-b"),
	}

	m3 := completedMatch("m3", teamB, teamC, 0, 3, baseTime.AddDate(0, 2, 0))
	m3.Participants = []domain.Participant{
		player("p3", "Carol", teamC),
	}

	cancelled := domain.MatchRecord{
		ID:       "m4",
		Status:   domain.MatchStatusCancelled,
		HomeTeam: teamA,
		AwayTeam: teamC,
		Events: []domain.MatchEvent{
			{Type: "substitution", PlayerID: "p9"},
		},
	}

	scheduled := domain.MatchRecord{
		ID:        "m5",
		Status:    domain.MatchStatusScheduled,
		HomeTeam:  teamC,
		AwayTeam:  teamA,
		StartTime: timePtr(baseTime.AddDate(0, 3, 0)),
	}

	return []domain.MatchRecord{m1, m2, m3, cancelled, scheduled}
}
