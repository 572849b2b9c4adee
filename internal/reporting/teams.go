package reporting

import (
	"sort"
	"strings"
	"time"

	"leaguestats/internal/domain"
)

// formLength is the number of most recent results kept for form and trend.
const formLength = 5

// teamAggregate accumulates one team's results within a single report.
type teamAggregate struct {
	id            string
	name          string
	matchesPlayed int
	wins          int
	draws         int
	losses        int
	points        int
	goalsFor      int
	goalsAgainst  int
	outcomes      []domain.MatchOutcome
}

func (t *teamAggregate) record(result domain.MatchResult, goalsFor, goalsAgainst int, date *time.Time) {
	t.matchesPlayed++
	t.goalsFor += goalsFor
	t.goalsAgainst += goalsAgainst
	t.points += result.FormPoints()

	switch result {
	case domain.ResultWin:
		t.wins++
	case domain.ResultDraw:
		t.draws++
	case domain.ResultLoss:
		t.losses++
	}

	t.outcomes = append(t.outcomes, domain.MatchOutcome{
		Result:       result,
		GoalsFor:     goalsFor,
		GoalsAgainst: goalsAgainst,
		Date:         date,
	})
}

// teamTable keys aggregates by team ID and remembers first-seen order
// so output does not depend on map iteration.
type teamTable struct {
	byID  map[string]*teamAggregate
	order []*teamAggregate
}

func newTeamTable() *teamTable {
	return &teamTable{byID: make(map[string]*teamAggregate)}
}

func (t *teamTable) get(ref *domain.TeamRef) *teamAggregate {
	if agg, ok := t.byID[ref.ID]; ok {
		return agg
	}
	agg := &teamAggregate{id: ref.ID, name: ref.Name}
	t.byID[ref.ID] = agg
	t.order = append(t.order, agg)
	return agg
}

// buildTeamTable folds every completed match with both teams present into per-team aggregates.
func buildTeamTable(matches []domain.MatchRecord) *teamTable {
	table := newTeamTable()

	for i := range matches {
		m := &matches[i]
		if !m.IsCompleted() || !m.HasBothTeams() {
			continue
		}

		home := table.get(m.HomeTeam)
		away := table.get(m.AwayTeam)
		homeGoals, awayGoals := m.Goals()

		switch {
		case homeGoals > awayGoals:
			home.record(domain.ResultWin, homeGoals, awayGoals, m.StartTime)
			away.record(domain.ResultLoss, awayGoals, homeGoals, m.StartTime)
		case homeGoals < awayGoals:
			home.record(domain.ResultLoss, homeGoals, awayGoals, m.StartTime)
			away.record(domain.ResultWin, awayGoals, homeGoals, m.StartTime)
		default:
			home.record(domain.ResultDraw, homeGoals, awayGoals, m.StartTime)
			away.record(domain.ResultDraw, awayGoals, homeGoals, m.StartTime)
		}
	}

	return table
}

// recentOutcomes returns up to n outcomes ordered by date descending.
// Outcomes without a date sort last; equal dates keep match order.
func recentOutcomes(outcomes []domain.MatchOutcome, n int) []domain.MatchOutcome {
	sorted := make([]domain.MatchOutcome, len(outcomes))
	copy(sorted, outcomes)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Date, sorted[j].Date
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		return a.After(*b)
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// formString concatenates result initials, most recent first.
func formString(outcomes []domain.MatchOutcome) string {
	var b strings.Builder
	for _, o := range outcomes {
		b.WriteString(o.Result.Initial())
	}
	return b.String()
}

// calculateTeamPerformance builds the standings rows in first-seen order.
func calculateTeamPerformance(matches []domain.MatchRecord, now time.Time) []domain.TeamPerformance {
	table := buildTeamTable(matches)
	out := make([]domain.TeamPerformance, 0, len(table.order))

	for _, t := range table.order {
		lastFive := recentOutcomes(t.outcomes, formLength)

		// Dated outcomes sort first, so a nil head means no outcome carries a date.
		fallback := now
		lastMatch := &fallback
		if len(lastFive) > 0 && lastFive[0].Date != nil {
			lastMatch = lastFive[0].Date
		}

		out = append(out, domain.TeamPerformance{
			TeamID:         t.id,
			TeamName:       t.name,
			MatchesPlayed:  t.matchesPlayed,
			Wins:           t.wins,
			Draws:          t.draws,
			Losses:         t.losses,
			Points:         t.points,
			GoalsFor:       t.goalsFor,
			GoalsAgainst:   t.goalsAgainst,
			GoalDifference: t.goalsFor - t.goalsAgainst,
			WinPercentage:  percentage(t.wins, t.matchesPlayed),
			Form:           formString(lastFive),
			LastMatch:      lastMatch,
		})
	}

	return out
}
