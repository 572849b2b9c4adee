package reporting

import "leaguestats/internal/domain"

const (
	unknownPlayer = "Unknown Player"
	unknownTeam   = "Unknown Team"
)

// DefaultMinutesPerMatch is credited to a player for every completed match played.
// Participation time is not tracked in match data.
const DefaultMinutesPerMatch = 90

// MinutesEstimator returns the minutes a participant played in a completed match.
type MinutesEstimator func(match *domain.MatchRecord, participant *domain.Participant) int

// FixedMinutes credits every participant with the same number of minutes per match.
func FixedMinutes(minutes int) MinutesEstimator {
	return func(*domain.MatchRecord, *domain.Participant) int {
		return minutes
	}
}

type playerAggregate struct {
	id            string
	name          string
	teamName      string
	matchesPlayed int
	goals         int
	assists       int
	yellowCards   int
	redCards      int
	totalMinutes  int
}

// calculatePlayerPerformance aggregates PLAYER participants of completed matches
// and returns them in first-seen order.
func calculatePlayerPerformance(matches []domain.MatchRecord, minutes MinutesEstimator) []domain.PlayerPerformance {
	byID := make(map[string]*playerAggregate)
	var order []*playerAggregate

	for i := range matches {
		m := &matches[i]
		if !m.IsCompleted() {
			continue
		}

		for j := range m.Participants {
			p := &m.Participants[j]
			if p.Role != domain.RolePlayer {
				continue
			}

			agg, ok := byID[p.UserID]
			if !ok {
				agg = &playerAggregate{id: p.UserID, name: unknownPlayer, teamName: unknownTeam}
				if p.User != nil && p.User.Name != "" {
					agg.name = p.User.Name
				}
				if p.Team != nil && p.Team.Name != "" {
					agg.teamName = p.Team.Name
				}
				byID[p.UserID] = agg
				order = append(order, agg)
			}

			agg.matchesPlayed++
			agg.totalMinutes += minutes(m, p)

			for _, ev := range m.Events {
				if ev.PlayerID != p.UserID {
					continue
				}
				switch ev.Type {
				case domain.EventTypeGoal:
					agg.goals++
				case domain.EventTypeAssist:
					agg.assists++
				case domain.EventTypeYellowCard:
					agg.yellowCards++
				case domain.EventTypeRedCard:
					agg.redCards++
				}
			}
		}
	}

	out := make([]domain.PlayerPerformance, 0, len(order))
	for _, p := range order {
		out = append(out, domain.PlayerPerformance{
			PlayerID:         p.id,
			PlayerName:       p.name,
			TeamName:         p.teamName,
			MatchesPlayed:    p.matchesPlayed,
			Goals:            p.goals,
			Assists:          p.assists,
			YellowCards:      p.yellowCards,
			RedCards:         p.redCards,
			TotalMinutes:     p.totalMinutes,
			AverageMinutes:   average(p.totalMinutes, p.matchesPlayed),
			AverageRating:    0, // no rating source is wired in yet
			GoalContribution: p.goals + p.assists,
		})
	}
	return out
}
