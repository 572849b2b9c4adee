package reporting

import (
	"fmt"
	"time"

	"leaguestats/internal/domain"
)

// PeriodKey derives the trend bucket key of a timestamp. Times are evaluated in UTC.
//
//	day      2024-05-15
//	week     2024-W3   (year of the Sunday starting the week, number = ceil((day of month + weekday) / 7))
//	month    2024-05
//	quarter  2024-Q2
//	year     2024
//
// Unrecognized granularities fall back to the month format.
func PeriodKey(t time.Time, groupBy domain.GroupBy) string {
	t = t.UTC()

	switch groupBy {
	case domain.GroupByDay:
		return t.Format("2006-01-02")
	case domain.GroupByWeek:
		weekday := int(t.Weekday())
		weekStart := t.AddDate(0, 0, -weekday)
		week := (t.Day() + weekday + 6) / 7
		return fmt.Sprintf("%d-W%d", weekStart.Year(), week)
	case domain.GroupByQuarter:
		return fmt.Sprintf("%d-Q%d", t.Year(), (int(t.Month())+2)/3)
	case domain.GroupByYear:
		return fmt.Sprintf("%d", t.Year())
	default:
		return fmt.Sprintf("%d-%02d", t.Year(), int(t.Month()))
	}
}
