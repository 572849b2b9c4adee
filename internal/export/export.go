// Package export renders a report into downloadable formats.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"leaguestats/internal/domain"
)

// Format is an export format name as used in the URL.
type Format string

// Supported export formats.
const (
	FormatJSON Format = "json"
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var contentTypes = map[Format]string{
	FormatJSON: "application/json",
	FormatHTML: "text/html; charset=utf-8",
	// pdf is a plain-text rendering, not a PDF document.
	FormatPDF:  "text/plain; charset=utf-8",
	FormatCSV:  "text/csv; charset=utf-8",
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>League Match Report</title>
</head>
<body>
<h1>League Match Report</h1>
<pre>{{.}}</pre>
</body>
</html>
`))

var standingsHeader = []string{
	"team_id", "team_name", "matches_played", "wins", "draws", "losses", "points",
	"goals_for", "goals_against", "goal_difference", "win_percentage", "form",
}

// Exporter renders reports. The zero value is ready to use.
type Exporter struct{}

// NewExporter creates a new Exporter instance.
func NewExporter() *Exporter {
	return &Exporter{}
}

// Export renders report in the given format and returns the bytes with their content type.
// Unknown formats return a *domain.ExportError.
func (e *Exporter) Export(report *domain.Report, format string) ([]byte, string, error) {
	return Export(report, format)
}

// Supports reports whether format can be rendered.
func (e *Exporter) Supports(format string) bool {
	return IsSupported(format)
}

// IsSupported reports whether format names a known export format.
func IsSupported(format string) bool {
	_, ok := contentTypes[normalize(format)]
	return ok
}

func normalize(format string) Format {
	return Format(strings.ToLower(strings.TrimSpace(format)))
}

// Export renders report in the given format and returns the bytes with their content type.
func Export(report *domain.Report, format string) ([]byte, string, error) {
	f := normalize(format)
	contentType, ok := contentTypes[f]
	if !ok {
		return nil, "", &domain.ExportError{Format: format}
	}
	if report == nil {
		report = domain.NewEmptyReport()
	}

	var (
		data []byte
		err  error
	)
	switch f {
	case FormatJSON:
		data, err = toJSON(report)
	case FormatHTML:
		data, err = toHTML(report)
	case FormatPDF:
		data, err = toText(report)
	case FormatCSV:
		data, err = toCSV(report)
	case FormatXLSX:
		data, err = toXLSX(report)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to export report as %s: %w", f, err)
	}

	return data, contentType, nil
}

// FileExtension returns the file extension for a supported format.
func FileExtension(format string) string {
	f := normalize(format)
	if f == FormatPDF {
		return "txt"
	}
	return string(f)
}

func toJSON(report *domain.Report) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toHTML(report *domain.Report) ([]byte, error) {
	data, err := toJSON(report)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, string(data)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// toText produces the plain-text document served for pdf downloads.
func toText(report *domain.Report) ([]byte, error) {
	data, err := toJSON(report)
	if err != nil {
		return nil, err
	}

	s := report.Summary
	var buf bytes.Buffer
	buf.WriteString("League Match Report\n\n")
	fmt.Fprintf(&buf, "Total matches: %d\n", s.TotalMatches)
	fmt.Fprintf(&buf, "Completed matches: %d\n", s.CompletedMatches)
	fmt.Fprintf(&buf, "Total goals: %d\n", s.TotalGoals)
	fmt.Fprintf(&buf, "Average goals per match: %.2f\n", s.AverageGoalsPerMatch)
	fmt.Fprintf(&buf, "Average match duration: %.2f\n", s.AverageMatchDuration)
	buf.WriteString("\n")
	buf.Write(data)
	return buf.Bytes(), nil
}

func toCSV(report *domain.Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(standingsHeader); err != nil {
		return nil, err
	}
	for _, t := range report.TeamPerformance {
		row := []string{
			t.TeamID,
			t.TeamName,
			strconv.Itoa(t.MatchesPlayed),
			strconv.Itoa(t.Wins),
			strconv.Itoa(t.Draws),
			strconv.Itoa(t.Losses),
			strconv.Itoa(t.Points),
			strconv.Itoa(t.GoalsFor),
			strconv.Itoa(t.GoalsAgainst),
			strconv.Itoa(t.GoalDifference),
			strconv.FormatFloat(t.WinPercentage, 'f', 2, 64),
			t.Form,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
