package export

import (
	"github.com/xuri/excelize/v2"

	"leaguestats/internal/domain"
)

const (
	sheetSummary = "Summary"
	sheetTeams   = "Teams"
	sheetPlayers = "Players"
	sheetPeriods = "Periods"
)

func toXLSX(report *domain.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, err
	}
	for _, name := range []string{sheetTeams, sheetPlayers, sheetPeriods} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	writers := []func(*excelize.File, *domain.Report) error{
		writeSummarySheet,
		writeTeamsSheet,
		writePlayersSheet,
		writePeriodsSheet,
	}
	for _, write := range writers {
		if err := write(f, report); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, report *domain.Report) error {
	s := report.Summary
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Total matches", s.TotalMatches},
		{"Completed matches", s.CompletedMatches},
		{"Cancelled matches", s.CancelledMatches},
		{"Postponed matches", s.PostponedMatches},
		{"Total goals", s.TotalGoals},
		{"Average goals per match", s.AverageGoalsPerMatch},
		{"Total participants", s.TotalParticipants},
		{"Average participants per match", s.AverageParticipantsPerMatch},
		{"Total duration", s.TotalDuration},
		{"Average match duration", s.AverageMatchDuration},
		{"Win %", s.WinPercentage},
		{"Draw %", s.DrawPercentage},
		{"Loss %", s.LossPercentage},
	}
	if err := writeRows(f, sheetSummary, rows); err != nil {
		return err
	}
	return f.SetColWidth(sheetSummary, "A", "A", 32)
}

func writeTeamsSheet(f *excelize.File, report *domain.Report) error {
	rows := [][]interface{}{
		{"ID", "Team", "Played", "Wins", "Draws", "Losses", "Points", "GF", "GA", "GD", "Win %", "Form"},
	}
	for _, t := range report.TeamPerformance {
		rows = append(rows, []interface{}{
			t.TeamID, t.TeamName, t.MatchesPlayed, t.Wins, t.Draws, t.Losses, t.Points,
			t.GoalsFor, t.GoalsAgainst, t.GoalDifference, t.WinPercentage, t.Form,
		})
	}
	if err := writeRows(f, sheetTeams, rows); err != nil {
		return err
	}
	return f.SetColWidth(sheetTeams, "B", "B", 24)
}

func writePlayersSheet(f *excelize.File, report *domain.Report) error {
	rows := [][]interface{}{
		{"ID", "Player", "Team", "Matches", "Goals", "Assists", "Yellow", "Red", "Minutes", "Avg Minutes", "Contribution"},
	}
	for _, p := range report.PlayerPerformance {
		rows = append(rows, []interface{}{
			p.PlayerID, p.PlayerName, p.TeamName, p.MatchesPlayed, p.Goals, p.Assists,
			p.YellowCards, p.RedCards, p.TotalMinutes, p.AverageMinutes, p.GoalContribution,
		})
	}
	if err := writeRows(f, sheetPlayers, rows); err != nil {
		return err
	}
	return f.SetColWidth(sheetPlayers, "B", "C", 20)
}

func writePeriodsSheet(f *excelize.File, report *domain.Report) error {
	rows := [][]interface{}{
		{"Period", "Matches", "Avg Goals", "Avg Duration", "Win %", "Participants"},
	}
	for _, p := range report.Trends.MatchesByPeriod {
		rows = append(rows, []interface{}{
			p.Period, p.Matches, p.AverageGoals, p.AverageDuration, p.WinPercentage, p.TotalParticipants,
		})
	}
	return writeRows(f, sheetPeriods, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
