package reporting

import "leaguestats/internal/domain"

// calculateSummary computes totals over every match regardless of status.
// Win, draw and loss percentages only consider completed matches with both scores,
// judged from the home side.
func calculateSummary(matches []domain.MatchRecord) domain.Summary {
	var s domain.Summary
	var wins, draws, losses int

	s.TotalMatches = len(matches)
	for i := range matches {
		m := &matches[i]

		switch m.Status {
		case domain.MatchStatusCompleted:
			s.CompletedMatches++
		case domain.MatchStatusCancelled:
			s.CancelledMatches++
		case domain.MatchStatusPostponed:
			s.PostponedMatches++
		}

		home, away := m.Goals()
		s.TotalGoals += home + away
		s.TotalParticipants += len(m.Participants)

		if minutes, ok := m.DurationMinutes(); ok {
			s.TotalDuration += minutes
		}

		if m.IsCompleted() && m.HasScores() {
			switch {
			case home > away:
				wins++
			case home < away:
				losses++
			default:
				draws++
			}
		}
	}

	s.AverageGoalsPerMatch = average(s.TotalGoals, s.TotalMatches)
	s.AverageParticipantsPerMatch = average(s.TotalParticipants, s.TotalMatches)
	s.AverageMatchDuration = average(s.TotalDuration, s.TotalMatches)

	decided := wins + draws + losses
	s.WinPercentage = percentage(wins, decided)
	s.DrawPercentage = percentage(draws, decided)
	s.LossPercentage = percentage(losses, decided)

	return s
}
