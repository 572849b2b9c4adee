package reporting

import (
	"testing"
	"time"

	"leaguestats/internal/domain"
)

func TestPeriodKey(t *testing.T) {
	may15 := time.Date(2024, 5, 15, 18, 30, 0, 0, time.UTC)

	testCases := []struct {
		name    string
		t       time.Time
		groupBy domain.GroupBy
		want    string
	}{
		{"day", may15, domain.GroupByDay, "2024-05-15"},
		{"week", may15, domain.GroupByWeek, "2024-W3"},
		{"week starting in previous year", time.Date(2021, 1, 2, 12, 0, 0, 0, time.UTC), domain.GroupByWeek, "2020-W2"},
		{"month", may15, domain.GroupByMonth, "2024-05"},
		{"quarter", may15, domain.GroupByQuarter, "2024-Q2"},
		{"quarter boundary", time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), domain.GroupByQuarter, "2024-Q1"},
		{"last quarter", time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), domain.GroupByQuarter, "2024-Q4"},
		{"year", may15, domain.GroupByYear, "2024"},
		{"unknown falls back to month", may15, domain.GroupBy("fortnight"), "2024-05"},
		{"evaluated in UTC", time.Date(2024, 6, 1, 1, 0, 0, 0, time.FixedZone("UTC+3", 3*3600)), domain.GroupByMonth, "2024-05"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PeriodKey(tc.t, tc.groupBy); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestCalculateTrends_QuarterBucket(t *testing.T) {
	m := completedMatch("m1", teamA, teamB, 2, 2, time.Date(2024, 5, 20, 19, 0, 0, 0, time.UTC))

	trends := calculateTrends([]domain.MatchRecord{m}, domain.GroupByQuarter)

	if len(trends.MatchesByPeriod) != 1 {
		t.Fatalf("expected 1 period, got %d", len(trends.MatchesByPeriod))
	}
	if trends.MatchesByPeriod[0].Period != "2024-Q2" {
		t.Errorf("expected 2024-Q2, got %s", trends.MatchesByPeriod[0].Period)
	}
	if trends.MatchesByPeriod[0].WinPercentage != 0 {
		t.Errorf("expected draw to not count as decisive, got %v", trends.MatchesByPeriod[0].WinPercentage)
	}
}

func TestCalculateTrends_Monthly(t *testing.T) {
	trends := calculateTrends(leagueFixture(), domain.GroupByMonth)

	if len(trends.MatchesByPeriod) != 2 || len(trends.PerformanceByPeriod) != 2 {
		t.Fatalf("expected 2 periods, got %d and %d", len(trends.MatchesByPeriod), len(trends.PerformanceByPeriod))
	}

	may := trends.MatchesByPeriod[0]
	if may.Period != "2024-05" || may.Matches != 2 {
		t.Errorf("unexpected first period: %+v", may)
	}
	if may.AverageGoals != 2.5 || may.AverageDuration != 90 || may.WinPercentage != 50 || may.TotalParticipants != 5 {
		t.Errorf("unexpected May figures: %+v", may)
	}
	if trends.PerformanceByPeriod[0].TotalEvents != 8 {
		t.Errorf("expected 8 events in May, got %d", trends.PerformanceByPeriod[0].TotalEvents)
	}

	july := trends.MatchesByPeriod[1]
	if july.Period != "2024-07" || july.WinPercentage != 100 {
		t.Errorf("unexpected second period: %+v", july)
	}
}

func TestCalculateTrends_ChronologicalOrder(t *testing.T) {
	matches := []domain.MatchRecord{
		completedMatch("m1", teamA, teamB, 1, 0, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)),
		completedMatch("m2", teamA, teamB, 1, 0, time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)),
		completedMatch("m3", teamA, teamB, 1, 0, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)),
	}
	undated := completedMatch("m4", teamA, teamB, 1, 0, baseTime)
	undated.StartTime = nil
	matches = append(matches, undated)

	trends := calculateTrends(matches, domain.GroupByYear)

	want := []string{"2023", "2024", "2025"}
	if len(trends.MatchesByPeriod) != len(want) {
		t.Fatalf("expected %d periods, got %d", len(want), len(trends.MatchesByPeriod))
	}
	for i, w := range want {
		if trends.MatchesByPeriod[i].Period != w {
			t.Errorf("expected %s at %d, got %s", w, i, trends.MatchesByPeriod[i].Period)
		}
	}
}

func TestClassifyTrend(t *testing.T) {
	w := domain.MatchOutcome{Result: domain.ResultWin}
	d := domain.MatchOutcome{Result: domain.ResultDraw}
	l := domain.MatchOutcome{Result: domain.ResultLoss}

	testCases := []struct {
		name     string
		lastFive []domain.MatchOutcome
		want     domain.FormTrend
	}{
		{"too few matches", []domain.MatchOutcome{w, w}, domain.TrendStable},
		{"no older matches", []domain.MatchOutcome{w, w, w}, domain.TrendStable},
		{"improving", []domain.MatchOutcome{w, w, w, l, l}, domain.TrendImproving},
		{"declining", []domain.MatchOutcome{l, l, l, w, w}, domain.TrendDeclining},
		{"flat", []domain.MatchOutcome{d, d, d, d, d}, domain.TrendStable},
		{"within margin", []domain.MatchOutcome{w, d, d, w, l}, domain.TrendStable},
		{"single older match", []domain.MatchOutcome{w, w, d, l}, domain.TrendImproving},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyTrend(tc.lastFive); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestCalculateTeamFormTrend(t *testing.T) {
	var matches []domain.MatchRecord
	// oldest to newest: L L W W W for team A
	scores := [][2]int{{0, 1}, {0, 2}, {1, 0}, {2, 0}, {3, 0}}
	for i, s := range scores {
		matches = append(matches, completedMatch("m", teamA, teamB, s[0], s[1], baseTime.AddDate(0, 0, i)))
	}

	trends := calculateTeamFormTrend(matches)
	if len(trends) != 2 {
		t.Fatalf("expected 2 teams, got %d", len(trends))
	}
	if trends[0].Trend != domain.TrendImproving {
		t.Errorf("expected team A improving, got %s", trends[0].Trend)
	}
	if trends[1].Trend != domain.TrendDeclining {
		t.Errorf("expected team B declining, got %s", trends[1].Trend)
	}
	if len(trends[0].LastFiveMatches) != 5 || trends[0].LastFiveMatches[0].GoalsFor != 3 {
		t.Errorf("expected most recent match first, got %+v", trends[0].LastFiveMatches)
	}
}
