package reporting

import (
	"fmt"

	"leaguestats/internal/domain"
)

// Fixed heuristic thresholds.
const (
	highScoringThreshold   = 3.0
	competitiveThreshold   = 60.0
	shortDurationThreshold = 80.0
)

// Recommendations appended to every insights section.
var staticRecommendations = []string{
	"Continue monitoring player performance trends to identify development opportunities",
	"Review match scheduling to reduce cancellations and postponements",
}

// generateInsights turns the computed sections into human-readable findings.
func generateInsights(summary domain.Summary, teams []domain.TeamPerformance, players []domain.PlayerPerformance) domain.Insights {
	insights := domain.NewEmptyInsights()

	if summary.AverageGoalsPerMatch > highScoringThreshold {
		insights.KeyFindings = append(insights.KeyFindings,
			fmt.Sprintf("High scoring matches with an average of %.2f goals per match", summary.AverageGoalsPerMatch))
	}

	if summary.WinPercentage > competitiveThreshold {
		insights.KeyFindings = append(insights.KeyFindings,
			fmt.Sprintf("Strong competitive balance with a %.2f%% win rate", summary.WinPercentage))
	}

	if top, ok := topTeamByPoints(teams); ok {
		insights.Highlights = append(insights.Highlights,
			fmt.Sprintf("Top performing team: %s with %d points", top.TeamName, top.Points))
	}

	if top, ok := topPlayerByGoals(players); ok {
		insights.Highlights = append(insights.Highlights,
			fmt.Sprintf("Top scorer: %s with %d goals", top.PlayerName, top.Goals))
	}

	if summary.AverageMatchDuration < shortDurationThreshold {
		insights.AreasForImprovement = append(insights.AreasForImprovement,
			fmt.Sprintf("Average match duration of %.2f minutes is below the expected %.0f minutes",
				summary.AverageMatchDuration, shortDurationThreshold))
	}

	insights.Recommendations = append(insights.Recommendations, staticRecommendations...)
	return insights
}

// topTeamByPoints returns the first team with the most points.
func topTeamByPoints(teams []domain.TeamPerformance) (domain.TeamPerformance, bool) {
	if len(teams) == 0 {
		return domain.TeamPerformance{}, false
	}
	best := teams[0]
	for _, t := range teams[1:] {
		if t.Points > best.Points {
			best = t
		}
	}
	return best, true
}

// topPlayerByGoals returns the first player with the most goals.
func topPlayerByGoals(players []domain.PlayerPerformance) (domain.PlayerPerformance, bool) {
	if len(players) == 0 {
		return domain.PlayerPerformance{}, false
	}
	best := players[0]
	for _, p := range players[1:] {
		if p.Goals > best.Goals {
			best = p
		}
	}
	return best, true
}
