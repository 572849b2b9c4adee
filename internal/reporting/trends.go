package reporting

import (
	"sort"
	"time"

	"leaguestats/internal/domain"
)

// trendThreshold is the average-points margin between recent and older form
// needed to call a team improving or declining.
const trendThreshold = 0.5

// recentWindow is how many of the last five results count as recent form.
const recentWindow = 3

type periodBucket struct {
	key          string
	first        time.Time
	matches      int
	goals        int
	duration     int
	decisive     int
	events       int
	participants int
}

// calculateTrends buckets completed matches by period and derives team form.
// Matches without a start time cannot be placed in a period and are skipped.
func calculateTrends(matches []domain.MatchRecord, groupBy domain.GroupBy) domain.Trends {
	trends := domain.NewEmptyTrends()
	buckets := make(map[string]*periodBucket)
	var order []*periodBucket

	for i := range matches {
		m := &matches[i]
		if !m.IsCompleted() || m.StartTime == nil {
			continue
		}

		key := PeriodKey(*m.StartTime, groupBy)
		b, ok := buckets[key]
		if !ok {
			b = &periodBucket{key: key, first: *m.StartTime}
			buckets[key] = b
			order = append(order, b)
		}
		if m.StartTime.Before(b.first) {
			b.first = *m.StartTime
		}

		home, away := m.Goals()
		b.matches++
		b.goals += home + away
		if minutes, ok := m.DurationMinutes(); ok {
			b.duration += minutes
		}
		// Any decisive result counts, regardless of which side won.
		if home != away {
			b.decisive++
		}
		b.events += len(m.Events)
		b.participants += len(m.Participants)
	}

	sort.SliceStable(order, func(i, j int) bool {
		if !order[i].first.Equal(order[j].first) {
			return order[i].first.Before(order[j].first)
		}
		return order[i].key < order[j].key
	})

	for _, b := range order {
		avgGoals := average(b.goals, b.matches)
		avgDuration := average(b.duration, b.matches)
		winPct := percentage(b.decisive, b.matches)

		trends.MatchesByPeriod = append(trends.MatchesByPeriod, domain.PeriodMatches{
			Period:            b.key,
			Matches:           b.matches,
			AverageGoals:      avgGoals,
			AverageDuration:   avgDuration,
			WinPercentage:     winPct,
			TotalParticipants: b.participants,
		})
		trends.PerformanceByPeriod = append(trends.PerformanceByPeriod, domain.PeriodPerformance{
			Period:          b.key,
			AverageGoals:    avgGoals,
			AverageDuration: avgDuration,
			WinPercentage:   winPct,
			TotalEvents:     b.events,
		})
	}

	trends.TeamFormTrend = calculateTeamFormTrend(matches)
	return trends
}

// calculateTeamFormTrend lists each team's last five results with a trend classification.
func calculateTeamFormTrend(matches []domain.MatchRecord) []domain.TeamFormTrend {
	table := buildTeamTable(matches)
	out := make([]domain.TeamFormTrend, 0, len(table.order))

	for _, t := range table.order {
		lastFive := recentOutcomes(t.outcomes, formLength)
		out = append(out, domain.TeamFormTrend{
			TeamID:          t.id,
			TeamName:        t.name,
			LastFiveMatches: lastFive,
			Trend:           classifyTrend(lastFive),
		})
	}
	return out
}

// classifyTrend compares the average points of the three most recent results
// with the older ones. lastFive must be ordered most recent first.
func classifyTrend(lastFive []domain.MatchOutcome) domain.FormTrend {
	if len(lastFive) < recentWindow {
		return domain.TrendStable
	}

	recent := lastFive[:recentWindow]
	older := lastFive[recentWindow:]
	if len(older) == 0 {
		return domain.TrendStable
	}

	recentAvg := averagePoints(recent)
	olderAvg := averagePoints(older)

	switch {
	case recentAvg > olderAvg+trendThreshold:
		return domain.TrendImproving
	case recentAvg < olderAvg-trendThreshold:
		return domain.TrendDeclining
	default:
		return domain.TrendStable
	}
}

func averagePoints(outcomes []domain.MatchOutcome) float64 {
	total := 0
	for _, o := range outcomes {
		total += o.Result.FormPoints()
	}
	return float64(total) / float64(len(outcomes))
}
